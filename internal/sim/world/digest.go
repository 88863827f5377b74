package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// stateDigest hashes the full simulation state at a tick. Two runs fed the
// same seed, params and acts must produce identical digests; the replay tool
// verifies recorded logs against it.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	putF64 := func(v float64) { putU64(math.Float64bits(v)) }

	putU64(nowTick)
	putU64(uint64(w.cfg.Seed))
	h.Write([]byte(w.db.Digest))

	for _, sh := range w.ships {
		putU64(uint64(uint32(sh.ID)))
		h.Write([]byte(sh.Name))
		p := sh.Points
		for i := 0; i < p.Count; i++ {
			putF64(p.PosX[i])
			putF64(p.PosY[i])
			putF64(p.VelX[i])
			putF64(p.VelY[i])
			putF64(p.Water[i])
		}
		s := sh.Springs
		for i := 0; i < s.Count; i++ {
			b := byte(0)
			if s.Broken[i] {
				b |= 1
			}
			if s.Restored[i] {
				b |= 2
			}
			h.Write([]byte{b})
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
