package shipdef

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/physics"
)

// A ship definition file is a named grid of material color keys. Row 0 is the
// top of the structure; the empty string marks an empty cell. The schema is
// compiled in so a definition is always checked against the same contract the
// documentation states.
const schemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "structure"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 128},
    "offset": {
      "type": "array",
      "items": {"type": "number"},
      "minItems": 2,
      "maxItems": 2
    },
    "structure": {
      "type": "array",
      "minItems": 1,
      "maxItems": 2048,
      "items": {
        "type": "array",
        "minItems": 1,
        "maxItems": 2048,
        "items": {"type": "string", "pattern": "^(#[0-9a-fA-F]{6})?$"}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("shipdef.schema.json", schemaSource)

type Def struct {
	Name      string     `json:"name"`
	Offset    []float64  `json:"offset,omitempty"` // world x,y of the keel; default origin
	Structure [][]string `json:"structure"`
}

// Load reads and validates a ship definition file.
func Load(path string) (*Def, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse validates raw JSON against the definition schema and decodes it.
func Parse(raw []byte) (*Def, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ship definition: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("ship definition: %w", err)
	}
	var d Def
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("ship definition: %w", err)
	}
	return &d, nil
}

// OffsetXY returns the world offset, defaulting to the origin.
func (d *Def) OffsetXY() (float64, float64) {
	if len(d.Offset) == 2 {
		return d.Offset[0], d.Offset[1]
	}
	return 0, 0
}

// ToGrid resolves color keys against the material catalog. An unknown key is
// a hard error: a typo must fail the whole load, not silently drop plating.
func (d *Def) ToGrid(db *materials.Database) ([][]int32, error) {
	grid := make([][]int32, len(d.Structure))
	for r, row := range d.Structure {
		grid[r] = make([]int32, len(row))
		for c, key := range row {
			if key == "" {
				grid[r][c] = physics.EmptyCell
				continue
			}
			idx, ok := db.Index[key]
			if !ok {
				return nil, fmt.Errorf("ship %q: row %d col %d: unknown material %s", d.Name, r, c, key)
			}
			grid[r][c] = idx
		}
	}
	return grid, nil
}
