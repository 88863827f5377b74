package physics

import (
	"math"

	"hullsim.ai/internal/sim/tuning"
)

// Bomb is a timed charge attached to a particle. It rides along with the
// structure until the fuse runs out.
type Bomb struct {
	Point     int32
	FuseTicks int
}

// ToggleBombAt arms a bomb on the particle closest to (x, y), or disarms an
// already attached one. armed reports the resulting state; ok is false when
// no particle was in range.
func (sh *Ship) ToggleBombAt(x, y float64, params *tuning.Params) (armed, ok bool) {
	i := sh.PointAt(x, y, params.ToolSearchRadius)
	if i < 0 {
		return false, false
	}
	for bi, b := range sh.Bombs {
		if b.Point == i {
			sh.Bombs = append(sh.Bombs[:bi], sh.Bombs[bi+1:]...)
			return false, true
		}
	}
	sh.Bombs = append(sh.Bombs, Bomb{Point: i, FuseTicks: params.BombFuseTicks})
	return true, true
}

func (sh *Ship) updateBombs(env Env, params *tuning.Params, dt float64) {
	if len(sh.Bombs) == 0 {
		return
	}
	live := sh.Bombs[:0]
	for _, b := range sh.Bombs {
		b.FuseTicks--
		if b.FuseTicks > 0 && !sh.Points.Orphaned[b.Point] {
			live = append(live, b)
			continue
		}
		sh.detonate(sh.Points.PosX[b.Point], sh.Points.PosY[b.Point], params)
	}
	sh.Bombs = live
}

// detonate applies a radial impulse falling off linearly to the blast edge
// and severs everything in the inner half of the radius.
func (sh *Ship) detonate(x, y float64, params *tuning.Params) {
	p := sh.Points
	s := sh.Springs

	radius := params.BombBlastRadius
	force := params.BombBlastForce
	if params.UltraViolentMode {
		radius *= 2
		force *= 4
	}

	for i := 0; i < p.Count; i++ {
		dx := p.PosX[i] - x
		dy := p.PosY[i] - y
		d := math.Sqrt(dx*dx + dy*dy)
		if d >= radius || p.Pinned[i] {
			continue
		}
		falloff := 1 - d/radius
		impulse := force * falloff / (p.BaseMass[i] + p.Water[i])
		if d < 1e-6 {
			dx, dy, d = 0, 1, 1
		}
		p.VelX[i] += impulse * dx / d
		p.VelY[i] += impulse * dy / d
	}

	inner2 := (radius / 2) * (radius / 2)
	severed := 0
	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]
		mx := (p.PosX[a]+p.PosX[b])/2 - x
		my := (p.PosY[a]+p.PosY[b])/2 - y
		if mx*mx+my*my > inner2 {
			continue
		}
		sh.severSpring(si)
		severed++
		sh.Eph.Spawn(EphemeralDebris, x+mx, y+my, mx*8, 4+my*8, 5.0)
	}
	if severed > 0 {
		s.RebuildActive()
	}
}
