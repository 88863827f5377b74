package physics

import (
	"fmt"
	"math"
	"sort"

	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/tuning"
)

// ropeChain is a planned run of generated points between two rope endpoint
// cells. segments counts the springs along the run; segments-1 points are
// generated starting at index firstPoint.
type ropeChain struct {
	mat        int32
	a, b       [2]int
	segments   int
	firstPoint int32
}

// planRopeChains pairs rope endpoint cells of the same material in scan
// order and lays out chains for the pairs that grid adjacency does not
// already connect. nextPoint is the first free point index.
func planRopeChains(ropeEnds map[int32][][2]int, nextPoint int) []ropeChain {
	mats := make([]int32, 0, len(ropeEnds))
	for mi := range ropeEnds {
		mats = append(mats, mi)
	}
	sort.Slice(mats, func(i, j int) bool { return mats[i] < mats[j] })

	var chains []ropeChain
	for _, mi := range mats {
		ends := ropeEnds[mi]
		for k := 0; k+1 < len(ends); k += 2 {
			a, b := ends[k], ends[k+1]
			dr := b[0] - a[0]
			dc := b[1] - a[1]
			if dr >= -1 && dr <= 1 && dc >= -1 && dc <= 1 {
				continue // neighbours already share a spring
			}
			dist := math.Sqrt(float64(dr*dr + dc*dc))
			segments := int(dist + 0.5)
			if segments < 2 {
				segments = 2
			}
			chains = append(chains, ropeChain{
				mat:        mi,
				a:          a,
				b:          b,
				segments:   segments,
				firstPoint: int32(nextPoint),
			})
			nextPoint += segments - 1
		}
	}
	return chains
}

// EmptyCell marks an unoccupied grid cell in a build grid.
const EmptyCell int32 = -1

// Build converts a material grid into a connected point/spring/triangle
// network. grid[row][col] holds a material index into db, or EmptyCell.
// Row 0 is the top of the structure; cell (row, col) maps to world
// coordinates x = col - width/2, y = (height-1) - row, so the structure
// stands upright with its bottom row at y = 0 before any offset.
//
// Springs connect each occupied cell to its E, N, NE and NW neighbours,
// which covers the full 8-neighbourhood without duplicates. Two triangles
// per fully occupied unit cell give the structure its surface. Rope material
// cells pair up as chain endpoints and are strung together with generated
// points; see planRopeChains.
func Build(grid [][]int32, db *materials.Database, params *tuning.Params, offsetX, offsetY float64) (*Points, *Springs, *Triangles, error) {
	height := len(grid)
	if height == 0 {
		return nil, nil, nil, fmt.Errorf("build: empty structure")
	}
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	cell := func(r, c int) int32 {
		if r < 0 || r >= height || c < 0 || c >= len(grid[r]) {
			return EmptyCell
		}
		return grid[r][c]
	}

	// First pass: assign point indices, and note rope endpoint cells.
	index := make([][]int32, height)
	n := 0
	ropeEnds := make(map[int32][][2]int)
	for r := range grid {
		index[r] = make([]int32, width)
		for c := 0; c < width; c++ {
			index[r][c] = -1
			mi := cell(r, c)
			if mi == EmptyCell {
				continue
			}
			index[r][c] = int32(n)
			n++
			if db.Get(mi).IsRope() {
				ropeEnds[mi] = append(ropeEnds[mi], [2]int{r, c})
			}
		}
	}
	if n == 0 {
		return nil, nil, nil, fmt.Errorf("build: empty structure")
	}

	// Rope endpoints of the same material pair up in scan order; pairs that
	// are not already grid neighbours get a chain of generated points at
	// roughly unit spacing between them. An unpaired endpoint is just a
	// particle.
	chains := planRopeChains(ropeEnds, n)
	extra := 0
	for _, ch := range chains {
		extra += ch.segments - 1
	}

	p := NewPoints(n + extra)
	halfW := float64(width) / 2

	fill := func(i, mi int32, x, y float64) {
		def := db.Get(mi)
		p.PosX[i] = x
		p.PosY[i] = y
		p.BaseMass[i] = def.Mass()
		p.Material[i] = mi
		p.BuoyancyFill[i] = def.BuoyancyVolumeFill
		p.WaterIntakeFactor[i] = def.WaterIntake
		p.WaterDiffusion[i] = def.WaterDiffusionSpeed
		p.WaterRetention[i] = def.WaterRetention
		p.RustReceptivity[i] = def.RustReceptivity
		p.WindReceptivity[i] = def.WindReceptivity
		p.ThermalRate[i] = def.ThermalConductivity
		p.Hull[i] = def.IsHull
		p.Conductive[i] = def.ConductsElectricity
		p.WaterCapacity[i] = 4.0 * def.BuoyancyVolumeFill
		p.Temperature[i] = params.AmbientAirTemperature
		p.Decay[i] = 1
		p.Color[i] = def.RenderRGBA()
	}

	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			mi := cell(r, c)
			if mi == EmptyCell {
				continue
			}
			fill(index[r][c], mi, float64(c)-halfW+offsetX, float64(height-1-r)+offsetY)
		}
	}

	// Second pass: springs over E, N, NE, NW; triangles per unit cell.
	type edge struct{ a, b int32 }
	var edges []edge
	neighbours := [4][2]int{{0, 1}, {-1, 0}, {-1, 1}, {-1, -1}} // E, N, NE, NW
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if index[r][c] < 0 {
				continue
			}
			for _, d := range neighbours {
				nr, nc := r+d[0], c+d[1]
				if nr < 0 || nr >= height || nc < 0 || nc >= width || index[nr][nc] < 0 {
					continue
				}
				edges = append(edges, edge{index[r][c], index[nr][nc]})
			}
		}
	}

	// Generated chain points interpolate between their endpoints and link
	// up with rope springs.
	for _, ch := range chains {
		ea := index[ch.a[0]][ch.a[1]]
		eb := index[ch.b[0]][ch.b[1]]
		prev := ea
		for k := 1; k < ch.segments; k++ {
			i := ch.firstPoint + int32(k-1)
			t := float64(k) / float64(ch.segments)
			fill(i, ch.mat,
				p.PosX[ea]+(p.PosX[eb]-p.PosX[ea])*t,
				p.PosY[ea]+(p.PosY[eb]-p.PosY[ea])*t)
			edges = append(edges, edge{prev, i})
			prev = i
		}
		edges = append(edges, edge{prev, eb})
	}
	if len(edges) == 0 {
		return nil, nil, nil, fmt.Errorf("build: structure has no springs")
	}

	// Spare capacity lets destroyed springs be re-created during repair
	// without allocation inside the simulation loop.
	s := NewSprings(2 * len(edges))
	for _, e := range edges {
		a, b := e.a, e.b
		dx := p.PosX[a] - p.PosX[b]
		dy := p.PosY[a] - p.PosY[b]
		rest := math.Sqrt(dx*dx + dy*dy)

		ma := db.Get(p.Material[a])
		mb := db.Get(p.Material[b])
		matStiffness := (ma.Stiffness + mb.Stiffness) / 2
		breakStrain := math.Min(ma.StrainThresholdFraction, mb.StrainThresholdFraction)
		waterDiff := (ma.WaterDiffusionSpeed + mb.WaterDiffusionSpeed) / 2
		isRope := ma.IsRope() || mb.IsRope()

		reducedMass := p.BaseMass[a] * p.BaseMass[b] / (p.BaseMass[a] + p.BaseMass[b])
		stiffFactor := matStiffness * reducedMass
		dampFactor := reducedMass

		si := s.Add(a, b, rest, stiffFactor, dampFactor, breakStrain, waterDiff, isRope)
		p.Springs[a] = append(p.Springs[a], si)
		p.Springs[b] = append(p.Springs[b], si)
	}
	s.RebuildActive()

	t := NewTriangles(2 * (height - 1) * (width - 1))
	for r := 0; r < height-1; r++ {
		for c := 0; c < width-1; c++ {
			tl := index[r][c]
			tr := index[r][c+1]
			bl := index[r+1][c]
			br := index[r+1][c+1]
			if tl >= 0 && tr >= 0 && bl >= 0 {
				t.Add(tl, tr, bl)
			}
			if tr >= 0 && bl >= 0 && br >= 0 {
				t.Add(tr, br, bl)
			}
		}
	}
	t.RebuildActive(p)

	return p, s, t, nil
}
