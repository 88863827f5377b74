package materials

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Database is the immutable material catalog. It is loaded once at startup
// and must be fully populated before any ship is constructed.
type Database struct {
	Defs []Def

	// Index maps a color key (e.g. "#404050") to a position in Defs.
	Index map[string]int32
	// ByName maps a material name to a position in Defs.
	ByName map[string]int32

	// Unique materials resolved at load time.
	RopeIndex int32

	Digest string
}

type Def struct {
	Name        string `json:"name"`
	ColorKey    string `json:"color_key"`
	RenderColor string `json:"render_color,omitempty"` // defaults to color_key

	Strength                float64 `json:"strength"`
	NominalMass             float64 `json:"nominal_mass"`
	Density                 float64 `json:"density"`
	BuoyancyVolumeFill      float64 `json:"buoyancy_volume_fill"`
	Stiffness               float64 `json:"stiffness"`
	StrainThresholdFraction float64 `json:"strain_threshold_fraction"`

	// Water behavior.
	IsHull              bool    `json:"is_hull,omitempty"`
	WaterIntake         float64 `json:"water_intake"`
	WaterDiffusionSpeed float64 `json:"water_diffusion_speed"`
	WaterRetention      float64 `json:"water_retention"`
	RustReceptivity     float64 `json:"rust_receptivity"`

	// Heat behavior.
	IgnitionTemperature float64 `json:"ignition_temperature"`
	MeltingTemperature  float64 `json:"melting_temperature"`
	ThermalConductivity float64 `json:"thermal_conductivity"`
	SpecificHeat        float64 `json:"specific_heat"`

	// Misc.
	WindReceptivity     float64 `json:"wind_receptivity"`
	ConductsElectricity bool    `json:"conducts_electricity,omitempty"`
	UniqueType          string  `json:"unique_type,omitempty"` // "", "ROPE"
}

// Mass returns the particle mass for this material: a cubic meter filled with
// a quantity of material equal to the density (a truss is lighter than a
// solid block of the same metal).
func (d *Def) Mass() float64 {
	return d.NominalMass * d.Density
}

// HeatCapacity returns the material heat capacity in J/K.
func (d *Def) HeatCapacity() float64 {
	return d.SpecificHeat * d.Mass()
}

func (d *Def) IsRope() bool { return d.UniqueType == "ROPE" }

// RenderRGBA parses the render color ("#rrggbb") into packed 0xRRGGBBAA
// with full alpha. Colors are validated at load, so this never fails.
func (d *Def) RenderRGBA() uint32 {
	var r, g, b uint32
	fmt.Sscanf(d.RenderColor, "#%02x%02x%02x", &r, &g, &b)
	return r<<24 | g<<16 | b<<8 | 0xff
}

func Load(path string) (*Database, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Database, error) {
	var defs []Def
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("materials.json: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("materials.json: empty catalog")
	}

	// Canonical order: by color key, so the digest does not depend on file order.
	sort.Slice(defs, func(i, j int) bool { return defs[i].ColorKey < defs[j].ColorKey })

	db := &Database{
		Defs:      defs,
		Index:     make(map[string]int32, len(defs)),
		ByName:    make(map[string]int32, len(defs)),
		RopeIndex: -1,
	}
	for i := range defs {
		d := &defs[i]
		if d.ColorKey == "" {
			return nil, fmt.Errorf("materials.json: material %q: empty color_key", d.Name)
		}
		if !colorRe.MatchString(d.ColorKey) {
			return nil, fmt.Errorf("materials.json: material %q: color_key %q is not #rrggbb", d.Name, d.ColorKey)
		}
		if d.RenderColor != "" && !colorRe.MatchString(d.RenderColor) {
			return nil, fmt.Errorf("materials.json: material %q: render_color %q is not #rrggbb", d.Name, d.RenderColor)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("materials.json: material %s: empty name", d.ColorKey)
		}
		if _, dup := db.Index[d.ColorKey]; dup {
			return nil, fmt.Errorf("materials.json: duplicate color_key %s", d.ColorKey)
		}
		if _, dup := db.ByName[d.Name]; dup {
			return nil, fmt.Errorf("materials.json: duplicate name %q", d.Name)
		}
		if d.NominalMass <= 0 || d.Density <= 0 {
			return nil, fmt.Errorf("materials.json: material %q: mass must be positive", d.Name)
		}
		if d.StrainThresholdFraction <= 0 {
			return nil, fmt.Errorf("materials.json: material %q: strain_threshold_fraction must be positive", d.Name)
		}
		if d.RenderColor == "" {
			d.RenderColor = d.ColorKey
		}
		db.Index[d.ColorKey] = int32(i)
		db.ByName[d.Name] = int32(i)
		if d.IsRope() && db.RopeIndex < 0 {
			db.RopeIndex = int32(i)
		}
	}

	canonical, _ := json.Marshal(defs)
	sum := sha256.Sum256(canonical)
	db.Digest = hex.EncodeToString(sum[:])
	return db, nil
}

// Get returns the material at a stable index. Indices come from Index/ByName
// and from ship construction; they are valid for the database lifetime.
func (db *Database) Get(idx int32) *Def {
	return &db.Defs[idx]
}

// Palette returns material names in canonical (color key) order, for catalog
// messages to clients.
func (db *Database) Palette() []string {
	out := make([]string, len(db.Defs))
	for i := range db.Defs {
		out[i] = db.Defs[i].Name
	}
	return out
}
