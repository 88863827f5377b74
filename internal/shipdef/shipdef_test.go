package shipdef

import (
	"path/filepath"
	"testing"

	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/physics"
)

func TestParse_Valid(t *testing.T) {
	d, err := Parse([]byte(`{
	  "name": "dinghy",
	  "offset": [10, -2],
	  "structure": [
	    ["#8b5a2b", "", "#8b5a2b"],
	    ["#8b5a2b", "#8b5a2b", "#8b5a2b"]
	  ]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Name != "dinghy" {
		t.Fatalf("name=%q", d.Name)
	}
	x, y := d.OffsetXY()
	if x != 10 || y != -2 {
		t.Fatalf("offset=(%v,%v)", x, y)
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	bad := map[string]string{
		"missing name":      `{"structure":[["#8b5a2b"]]}`,
		"missing structure": `{"name":"x"}`,
		"empty structure":   `{"name":"x","structure":[]}`,
		"bad color key":     `{"name":"x","structure":[["not-a-color"]]}`,
		"extra field":       `{"name":"x","structure":[["#8b5a2b"]],"wat":1}`,
		"bad offset":        `{"name":"x","offset":[1],"structure":[["#8b5a2b"]]}`,
	}
	for label, raw := range bad {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", label)
		}
	}
}

func TestToGrid_UnknownMaterialFailsLoad(t *testing.T) {
	db := testCatalog(t)
	d, err := Parse([]byte(`{"name":"x","structure":[["#123456","#8b5a2b"]]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := d.ToGrid(db); err == nil {
		t.Fatalf("unknown color key must fail the load")
	}
}

func TestLoad_SampleShips(t *testing.T) {
	db := testCatalog(t)
	paths, err := filepath.Glob(filepath.Join("..", "..", "configs", "ships", "*.json"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no sample ships found: %v", err)
	}
	for _, path := range paths {
		d, err := Load(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		grid, err := d.ToGrid(db)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		occupied := 0
		for _, row := range grid {
			for _, cell := range row {
				if cell != physics.EmptyCell {
					occupied++
				}
			}
		}
		if occupied == 0 {
			t.Fatalf("%s: empty structure", path)
		}
	}
}

func testCatalog(t *testing.T) *materials.Database {
	t.Helper()
	db, err := materials.Load(filepath.Join("..", "..", "configs", "materials.json"))
	if err != nil {
		t.Fatalf("load materials: %v", err)
	}
	return db
}
