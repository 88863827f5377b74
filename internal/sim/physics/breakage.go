package physics

import (
	"math"
	"sort"

	"hullsim.ai/internal/sim/tuning"
)

// evaluateStrains measures spring strain once per tick (after the mechanical
// substeps, so it sees settled positions) and severs springs stretched or
// compressed past their material threshold. Breaking is one-way: a broken
// slot never comes back to life; repair creates a fresh slot instead.
func (sh *Ship) evaluateStrains(params *tuning.Params) {
	p := sh.Points
	s := sh.Springs

	adjust := params.StrengthAdjustment
	if params.UltraViolentMode {
		adjust /= 4
	}

	broke := false
	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]

		dx := p.PosX[b] - p.PosX[a]
		dy := p.PosY[b] - p.PosY[a]
		length := math.Sqrt(dx*dx + dy*dy)

		stretch := length - s.RestLength[si]
		if s.IsRope[si] && stretch < 0 {
			// A slack rope carries no load; it can only snap under tension.
			stretch = 0
		}
		strain := math.Abs(stretch) / s.RestLength[si]
		threshold := s.BreakStrain[si] * adjust

		s.Stress[si] = strain / threshold
		s.Stressed[si] = strain > threshold/2

		if strain > threshold {
			sh.severSpring(si)
			broke = true

			mx := (p.PosX[a] + p.PosX[b]) / 2
			my := (p.PosY[a] + p.PosY[b]) / 2
			sh.Eph.Spawn(EphemeralDebris, mx, my, dy*2, -dx*2, 3.0)
		}
	}
	if broke {
		s.RebuildActive()
	}
}

// severSpring marks a spring broken and its endpoints leaking, and orphans
// endpoints left with no live connection. Callers must RebuildActive after
// a batch of severs.
func (sh *Ship) severSpring(si int32) {
	p := sh.Points
	s := sh.Springs

	s.Broken[si] = true
	s.Stressed[si] = false
	sh.connectivityDirty = true
	sh.topoVersion++

	for _, pi := range [2]int32{s.PointA[si], s.PointB[si]} {
		p.Leaking[pi] = true
		alive := false
		for _, osi := range p.Springs[pi] {
			if !s.Broken[osi] {
				alive = true
				break
			}
		}
		if !alive {
			p.Orphaned[pi] = true
		}
	}
}

// recomputeConnectivity runs a breadth-first flood over live springs and
// relabels components by descending size, so component 0 is always the main
// body. Detached pieces lose electrical continuity with the main body, which
// is what turns their lights off.
func (sh *Ship) recomputeConnectivity() {
	p := sh.Points
	s := sh.Springs

	for i := 0; i < p.Count; i++ {
		p.Component[i] = -1
	}

	var sizes []int
	queue := make([]int32, 0, p.Count)
	next := int32(0)
	for start := int32(0); int(start) < p.Count; start++ {
		if p.Orphaned[start] || p.Component[start] >= 0 {
			continue
		}
		comp := next
		next++
		size := 0
		queue = queue[:0]
		queue = append(queue, start)
		p.Component[start] = comp
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			size++
			for _, si := range p.Springs[i] {
				if s.Broken[si] {
					continue
				}
				j := s.PointA[si]
				if j == i {
					j = s.PointB[si]
				}
				if p.Orphaned[j] || p.Component[j] >= 0 {
					continue
				}
				p.Component[j] = comp
				queue = append(queue, j)
			}
		}
		sizes = append(sizes, size)
	}

	// Relabel so the biggest component is 0. Ties break by discovery order,
	// which is deterministic.
	order := make([]int32, len(sizes))
	for i := range order {
		order[i] = int32(i)
	}
	sort.SliceStable(order, func(a, b int) bool { return sizes[order[a]] > sizes[order[b]] })
	relabel := make([]int32, len(sizes))
	for rank, old := range order {
		relabel[old] = int32(rank)
	}

	for i := 0; i < p.Count; i++ {
		if p.Component[i] >= 0 {
			p.Component[i] = relabel[p.Component[i]]
		}
		p.PlaneID[i] = p.Component[i]
		if p.Conductive[i] && p.Component[i] == 0 {
			p.Light[i] = 1
		} else {
			p.Light[i] = 0
		}
	}

	sh.componentCount = len(sizes)
	sh.Triangles.RebuildActive(p)
	sh.connectivityDirty = false
	sh.topoVersion++
}
