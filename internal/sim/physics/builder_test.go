package physics

import (
	"math"
	"testing"

	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/tuning"
)

const testCatalog = `[
  {"name": "Test Iron", "color_key": "#404050", "strength": 50000, "nominal_mass": 7950,
   "density": 0.15, "buoyancy_volume_fill": 1.0, "stiffness": 1.0,
   "strain_threshold_fraction": 0.5, "water_intake": 0.0, "water_diffusion_speed": 0.5,
   "water_retention": 0.05, "rust_receptivity": 1.0, "ignition_temperature": 2000,
   "melting_temperature": 1811, "thermal_conductivity": 0.5, "specific_heat": 449,
   "wind_receptivity": 0.0, "conducts_electricity": true, "is_hull": true},
  {"name": "Test Wood", "color_key": "#8b5a2b", "strength": 30000, "nominal_mass": 650,
   "density": 0.8, "buoyancy_volume_fill": 1.0, "stiffness": 1.0,
   "strain_threshold_fraction": 0.5, "water_intake": 1.0, "water_diffusion_speed": 0.5,
   "water_retention": 0.2, "rust_receptivity": 0.0, "ignition_temperature": 570,
   "melting_temperature": 1e9, "thermal_conductivity": 0.1, "specific_heat": 1700,
   "wind_receptivity": 0.2},
  {"name": "Test Rope", "color_key": "#000000", "strength": 40000, "nominal_mass": 140,
   "density": 1.0, "buoyancy_volume_fill": 0.1, "stiffness": 1.0,
   "strain_threshold_fraction": 0.6, "water_intake": 1.0, "water_diffusion_speed": 0.1,
   "water_retention": 0.1, "rust_receptivity": 0.2, "ignition_temperature": 500,
   "melting_temperature": 1e9, "thermal_conductivity": 0.05, "specific_heat": 1300,
   "wind_receptivity": 0.3, "unique_type": "ROPE"}
]`

func testDB(t *testing.T) *materials.Database {
	t.Helper()
	db, err := materials.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("parse test catalog: %v", err)
	}
	return db
}

func testParams() *tuning.Params {
	p := tuning.Defaults()
	return &p
}

// fullGrid builds an h x w grid filled with one material.
func fullGrid(h, w int, mat int32) [][]int32 {
	grid := make([][]int32, h)
	for r := range grid {
		grid[r] = make([]int32, w)
		for c := range grid[r] {
			grid[r][c] = mat
		}
	}
	return grid
}

func TestBuild_FullSquareTopology(t *testing.T) {
	db := testDB(t)
	params := testParams()
	iron := db.ByName["Test Iron"]

	p, s, tr, err := Build(fullGrid(3, 3, iron), db, params, 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Count != 9 {
		t.Fatalf("points=%d want 9", p.Count)
	}
	// 6 horizontal + 6 vertical + 4 NE diagonals + 4 NW diagonals.
	if s.Count != 20 {
		t.Fatalf("springs=%d want 20", s.Count)
	}
	if s.Cap != 40 {
		t.Fatalf("spring cap=%d want 40 (2x built)", s.Cap)
	}
	if tr.Count != 8 {
		t.Fatalf("triangles=%d want 8", tr.Count)
	}
	if len(tr.Active) != 8 {
		t.Fatalf("active triangles=%d want 8", len(tr.Active))
	}
}

func TestBuild_WorldCoordinates(t *testing.T) {
	db := testDB(t)
	iron := db.ByName["Test Iron"]

	// 2 rows x 3 cols: row 0 is the top.
	p, _, _, err := Build(fullGrid(2, 3, iron), db, testParams(), 0, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Point 0 is (row 0, col 0): x = 0 - 1.5, y = (2-1-0) + 10.
	if p.PosX[0] != -1.5 || p.PosY[0] != 11 {
		t.Fatalf("point 0 at (%v,%v) want (-1.5,11)", p.PosX[0], p.PosY[0])
	}
	// Last point is (row 1, col 2): x = 2 - 1.5, y = 0 + 10.
	last := int32(p.Count - 1)
	if p.PosX[last] != 0.5 || p.PosY[last] != 10 {
		t.Fatalf("last point at (%v,%v) want (0.5,10)", p.PosX[last], p.PosY[last])
	}
}

func TestBuild_Errors(t *testing.T) {
	db := testDB(t)
	params := testParams()
	iron := db.ByName["Test Iron"]

	if _, _, _, err := Build(nil, db, params, 0, 0); err == nil {
		t.Fatalf("empty grid should fail")
	}
	if _, _, _, err := Build([][]int32{{EmptyCell, EmptyCell}}, db, params, 0, 0); err == nil {
		t.Fatalf("all-empty grid should fail")
	}
	// A single occupied cell has no springs and cannot simulate.
	if _, _, _, err := Build([][]int32{{iron}}, db, params, 0, 0); err == nil {
		t.Fatalf("single isolated point should fail")
	}
}

func TestBuild_MaterialDenormalization(t *testing.T) {
	db := testDB(t)
	wood := db.ByName["Test Wood"]

	p, s, _, err := Build([][]int32{{wood, wood}}, db, testParams(), 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	def := db.Get(wood)
	if p.BaseMass[0] != def.Mass() {
		t.Fatalf("base mass=%v want %v", p.BaseMass[0], def.Mass())
	}
	if p.WaterCapacity[0] != 4*def.BuoyancyVolumeFill {
		t.Fatalf("capacity=%v want %v", p.WaterCapacity[0], 4*def.BuoyancyVolumeFill)
	}
	if p.Decay[0] != 1 {
		t.Fatalf("decay should start at 1, got %v", p.Decay[0])
	}
	if s.RestLength[0] != 1 {
		t.Fatalf("rest length=%v want 1", s.RestLength[0])
	}
	if s.IsRope[0] {
		t.Fatalf("wood-wood spring should not be rope")
	}
}

func TestBuild_RopeSprings(t *testing.T) {
	db := testDB(t)
	rope := db.ByName["Test Rope"]
	wood := db.ByName["Test Wood"]

	_, s, _, err := Build([][]int32{{wood, rope}}, db, testParams(), 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !s.IsRope[0] {
		t.Fatalf("spring touching rope material should be rope")
	}
}

func TestBuild_RopeChainBetweenEndpoints(t *testing.T) {
	db := testDB(t)
	rope := db.ByName["Test Rope"]
	wood := db.ByName["Test Wood"]
	e := EmptyCell

	// Two rope endpoints four cells apart: the builder strings generated
	// points between them at unit spacing.
	p, s, _, err := Build([][]int32{{wood, rope, e, e, e, rope, wood}}, db, testParams(), 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Count != 7 {
		t.Fatalf("points=%d want 4 grid + 3 generated", p.Count)
	}
	if s.Count != 6 {
		t.Fatalf("springs=%d want 2 grid + 4 chain", s.Count)
	}
	for i := 4; i < 7; i++ {
		if p.Material[i] != rope {
			t.Fatalf("generated point %d material=%d want rope", i, p.Material[i])
		}
		wantX := -2.5 + float64(i-3)
		if math.Abs(p.PosX[i]-wantX) > 1e-12 || p.PosY[i] != 0 {
			t.Fatalf("generated point %d at (%v,%v) want (%v,0)", i, p.PosX[i], p.PosY[i], wantX)
		}
	}
	for si := int32(2); si < 6; si++ {
		if !s.IsRope[si] {
			t.Fatalf("chain spring %d should be rope", si)
		}
		if math.Abs(s.RestLength[si]-1) > 1e-12 {
			t.Fatalf("chain spring %d rest=%v want 1", si, s.RestLength[si])
		}
	}

	// The chain is load-bearing connectivity: everything is one component.
	sh := &Ship{ID: 1, Points: p, Springs: s, Triangles: NewTriangles(0), Eph: NewEphemerals(8), db: db}
	sh.recomputeConnectivity()
	for i := 0; i < p.Count; i++ {
		if p.Component[i] != 0 {
			t.Fatalf("point %d in component %d, chain should connect all", i, p.Component[i])
		}
	}
}
