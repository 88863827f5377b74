package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"hullsim.ai/internal/sim/tuning"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures everything needed to resume a world: tuning, the
// terraformed floor, and the full particle/spring/triangle state of every
// ship. Material factors are not stored; they re-denormalize from the
// catalog on import, which also means a snapshot is only valid against the
// same materials digest.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed            int64         `json:"seed"`
	MaterialsDigest string        `json:"materials_digest"`
	Params          tuning.Params `json:"params"`

	FloorAdjusted []float64 `json:"floor_adjusted,omitempty"`

	Ships      []ShipV1 `json:"ships"`
	NextShipID int32    `json:"next_ship_id"`
}

type ShipV1 struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`

	Material []int32 `json:"material"`

	PosX []float64 `json:"pos_x"`
	PosY []float64 `json:"pos_y"`
	VelX []float64 `json:"vel_x"`
	VelY []float64 `json:"vel_y"`

	Water       []float64 `json:"water"`
	Leaking     []bool    `json:"leaking"`
	Temperature []float64 `json:"temperature"`
	Decay       []float64 `json:"decay"`
	Pinned      []bool    `json:"pinned"`

	SpringCap      int       `json:"spring_cap"`
	PointA         []int32   `json:"point_a"`
	PointB         []int32   `json:"point_b"`
	RestLength     []float64 `json:"rest_length"`
	StiffFactor    []float64 `json:"stiff_factor"`
	DampFactor     []float64 `json:"damp_factor"`
	BreakStrain    []float64 `json:"break_strain"`
	WaterDiffusion []float64 `json:"water_diffusion"`
	IsRope         []bool    `json:"is_rope"`
	Broken         []bool    `json:"broken"`
	Restored       []bool    `json:"restored"`

	TriA []int32 `json:"tri_a"`
	TriB []int32 `json:"tri_b"`
	TriC []int32 `json:"tri_c"`

	BombPoints []int32 `json:"bomb_points,omitempty"`
	BombFuses  []int   `json:"bomb_fuses,omitempty"`
}

// WriteSnapshot persists a snapshot as a JSON header line followed by a gob
// body, all zstd-compressed. The header line lets tooling identify a file
// without decoding the body.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; gob carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
