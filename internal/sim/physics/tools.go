package physics

import (
	"math"

	"hullsim.ai/internal/sim/tuning"
)

// Interaction tools. All take world coordinates; all are applied between
// ticks by the world loop, never concurrently with Update.

// PointAt returns the index of the closest live particle within radius of
// (x, y), or -1.
func (sh *Ship) PointAt(x, y, radius float64) int32 {
	p := sh.Points
	best := int32(-1)
	bestD2 := radius * radius
	for i := 0; i < p.Count; i++ {
		if p.Orphaned[i] {
			continue
		}
		dx := p.PosX[i] - x
		dy := p.PosY[i] - y
		if d2 := dx*dx + dy*dy; d2 <= bestD2 {
			bestD2 = d2
			best = int32(i)
		}
	}
	return best
}

// DestroyAt severs every spring with an endpoint inside the radius. The
// particles themselves survive: ones left without springs become orphaned
// free bodies.
func (sh *Ship) DestroyAt(x, y float64, params *tuning.Params) int {
	p := sh.Points
	s := sh.Springs

	radius := params.DestroyRadius
	if params.UltraViolentMode {
		radius *= 2
	}
	r2 := radius * radius

	severed := 0
	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]
		dax := p.PosX[a] - x
		day := p.PosY[a] - y
		dbx := p.PosX[b] - x
		dby := p.PosY[b] - y
		if dax*dax+day*day > r2 && dbx*dbx+dby*dby > r2 {
			continue
		}
		sh.severSpring(si)
		severed++
		sh.Eph.Spawn(EphemeralDebris,
			(p.PosX[a]+p.PosX[b])/2, (p.PosY[a]+p.PosY[b])/2,
			dax*3, 2+day*3, 4.0)
	}
	if severed > 0 {
		s.RebuildActive()
	}
	return severed
}

// RepairAt re-creates severed connections near (x, y). A broken record is
// only consumed once: the new spring occupies a spare slot and the old slot
// is marked restored, so breakage history stays intact.
func (sh *Ship) RepairAt(x, y float64, params *tuning.Params) int {
	p := sh.Points
	s := sh.Springs

	r2 := params.RepairRadius * params.RepairRadius
	repaired := 0

	for si := 0; si < s.Count; si++ {
		if !s.Broken[si] || s.Restored[si] {
			continue
		}
		a := s.PointA[si]
		b := s.PointB[si]

		mx := (p.PosX[a] + p.PosX[b]) / 2
		my := (p.PosY[a] + p.PosY[b]) / 2
		dx := mx - x
		dy := my - y
		if dx*dx+dy*dy > r2 {
			continue
		}

		// Only mend pieces that are roughly back in place, or the new
		// spring snaps again on the next strain pass.
		gx := p.PosX[a] - p.PosX[b]
		gy := p.PosY[a] - p.PosY[b]
		gap := math.Sqrt(gx*gx + gy*gy)
		if gap > s.RestLength[si]*(1+s.BreakStrain[si]) {
			continue
		}

		ni := s.Add(a, b, s.RestLength[si], s.StiffFactor[si], s.DampFactor[si],
			s.BreakStrain[si], s.WaterDiffusion[si], s.IsRope[si])
		if ni < 0 {
			break // spare capacity exhausted
		}
		s.Restored[si] = true
		p.Springs[a] = append(p.Springs[a], ni)
		p.Springs[b] = append(p.Springs[b], ni)
		p.Orphaned[a] = false
		p.Orphaned[b] = false
		sh.sealIfSound(a)
		sh.sealIfSound(b)
		repaired++
	}
	if repaired > 0 {
		s.RebuildActive()
		sh.connectivityDirty = true
		sh.topoVersion++
	}
	return repaired
}

// sealIfSound clears the leaking flag once every incident break has been
// restored.
func (sh *Ship) sealIfSound(pi int32) {
	s := sh.Springs
	for _, si := range sh.Points.Springs[pi] {
		if s.Broken[si] && !s.Restored[si] {
			return
		}
	}
	sh.Points.Leaking[pi] = false
}

// SawThrough severs every live spring crossing the segment (x1,y1)-(x2,y2)
// and throws sparkles at the cuts.
func (sh *Ship) SawThrough(x1, y1, x2, y2 float64) int {
	p := sh.Points
	s := sh.Springs

	severed := 0
	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]
		if !segmentsIntersect(x1, y1, x2, y2, p.PosX[a], p.PosY[a], p.PosX[b], p.PosY[b]) {
			continue
		}
		mx := (p.PosX[a] + p.PosX[b]) / 2
		my := (p.PosY[a] + p.PosY[b]) / 2
		sh.severSpring(si)
		severed++
		sh.Eph.Spawn(EphemeralSparkle, mx, my, 0, 3, 0.8)
	}
	if severed > 0 {
		s.RebuildActive()
	}
	return severed
}

// DrawTo pulls every particle toward (x, y) with a force that falls off with
// distance. Negative strength pushes away. The force lasts one tick.
func (sh *Ship) DrawTo(x, y, strength float64) {
	p := sh.Points
	for i := 0; i < p.Count; i++ {
		dx := x - p.PosX[i]
		dy := y - p.PosY[i]
		d := math.Sqrt(dx*dx + dy*dy)
		if d < 1e-6 {
			continue
		}
		f := strength / (1 + d)
		p.ToolForceX[i] += f * dx / d
		p.ToolForceY[i] += f * dy / d
	}
}

// SwirlAt applies a tangential force around (x, y), spinning nearby material
// counter-clockwise (clockwise for negative strength).
func (sh *Ship) SwirlAt(x, y, strength float64) {
	p := sh.Points
	for i := 0; i < p.Count; i++ {
		dx := p.PosX[i] - x
		dy := p.PosY[i] - y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < 1e-6 {
			continue
		}
		f := strength / (1 + d)
		p.ToolForceX[i] += -dy / d * f
		p.ToolForceY[i] += dx / d * f
	}
}

// TogglePinAt freezes or releases the particle closest to (x, y). A pinned
// particle ignores all forces and anchors whatever hangs from it.
func (sh *Ship) TogglePinAt(x, y float64, params *tuning.Params) bool {
	i := sh.PointAt(x, y, params.ToolSearchRadius)
	if i < 0 {
		return false
	}
	sh.Points.Pinned[i] = !sh.Points.Pinned[i]
	if sh.Points.Pinned[i] {
		sh.Points.VelX[i] = 0
		sh.Points.VelY[i] = 0
	}
	return true
}

// FloodAt adds (or, negative, removes) water at the single particle closest
// to (x, y). Quantity is clamped to the particle's capacity.
func (sh *Ship) FloodAt(x, y, quantity float64, params *tuning.Params) bool {
	p := sh.Points
	i := sh.PointAt(x, y, params.ToolSearchRadius)
	if i < 0 || p.WaterCapacity[i] <= 0 {
		return false
	}
	w := p.Water[i] + quantity
	if w < 0 {
		w = 0
	} else if w > p.WaterCapacity[i] {
		w = p.WaterCapacity[i]
	}
	p.Water[i] = w
	return true
}

// ScrubThrough wipes rust off particles near the stroked segment, restoring
// their structural integrity.
func (sh *Ship) ScrubThrough(x1, y1, x2, y2 float64, params *tuning.Params) int {
	p := sh.Points
	r := params.ToolSearchRadius
	scrubbed := 0
	for i := 0; i < p.Count; i++ {
		if p.Orphaned[i] {
			continue
		}
		if pointSegmentDistance(p.PosX[i], p.PosY[i], x1, y1, x2, y2) > r {
			continue
		}
		if p.Decay[i] < 1 {
			p.Decay[i] = 1
			scrubbed++
		}
	}
	return scrubbed
}

// InjectBubblesAt releases air bubbles at (x, y) when it is underwater.
func (sh *Ship) InjectBubblesAt(x, y float64, env Env) bool {
	if y >= env.Ocean.HeightAt(x) {
		return false
	}
	for k := 0; k < 6; k++ {
		jitter := float64(k-3) * 0.15
		sh.Eph.Spawn(EphemeralAirBubble, x+jitter, y, jitter, 1+float64(k%3)*0.5, 10.0)
	}
	return true
}

func pointSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	len2 := dx*dx + dy*dy
	t := 0.0
	if len2 > 0 {
		t = ((px-x1)*dx + (py-y1)*dy) / len2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx := x1 + t*dx
	cy := y1 + t*dy
	return math.Hypot(px-cx, py-cy)
}

func segmentsIntersect(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 float64) bool {
	d1 := cross(bx2-bx1, by2-by1, ax1-bx1, ay1-by1)
	d2 := cross(bx2-bx1, by2-by1, ax2-bx1, ay2-by1)
	d3 := cross(ax2-ax1, ay2-ay1, bx1-ax1, by1-ay1)
	d4 := cross(ax2-ax1, ay2-ay1, bx2-ax1, by2-ay1)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(ax, ay, bx, by float64) float64 { return ax*by - ay*bx }
