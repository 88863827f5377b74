package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params carries every tunable of the simulation. It is passed by pointer
// into physics calls and never read from global state; range enforcement is
// the responsibility of whoever edits it (a settings UI, a config file),
// not of the physics core.
type Params struct {
	TickRateHz         int `yaml:"tick_rate_hz"`
	FrameEveryTicks    int `yaml:"frame_every_ticks"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	// Mechanics.
	Gravity                   float64 `yaml:"gravity"`                   // m/s^2, applied downward
	MaxVelocity               float64 `yaml:"max_velocity"`              // m/s, hard clamp after integration
	NumMechanicalIterations   int     `yaml:"num_mechanical_iterations"` // quality: sub-steps per tick
	SpringStiffnessAdjustment float64 `yaml:"spring_stiffness_adjustment"`
	SpringDampingAdjustment   float64 `yaml:"spring_damping_adjustment"`
	StrengthAdjustment        float64 `yaml:"strength_adjustment"` // scales breakage thresholds
	UltraViolentMode          bool    `yaml:"ultra_violent_mode"`  // multiplies tool effects, lowers thresholds

	// Water.
	WaterDensity        float64 `yaml:"water_density"` // kg/m^3
	BuoyancyAdjustment  float64 `yaml:"buoyancy_adjustment"`
	WaterIntakeRate     float64 `yaml:"water_intake_rate"`
	WaterDiffusionSpeed float64 `yaml:"water_diffusion_speed"`
	WaterDrag           float64 `yaml:"water_drag"`

	// Environment.
	SeaDepth                      float64 `yaml:"sea_depth"`
	WaveHeight                    float64 `yaml:"wave_height"`
	OceanFloorBumpiness           float64 `yaml:"ocean_floor_bumpiness"`
	OceanFloorDetailAmplification float64 `yaml:"ocean_floor_detail_amplification"`
	WindBaseSpeed                 float64 `yaml:"wind_base_speed"`
	WindGustAmplitude             float64 `yaml:"wind_gust_amplitude"`
	AmbientAirTemperature         float64 `yaml:"ambient_air_temperature"`   // K
	AmbientWaterTemperature       float64 `yaml:"ambient_water_temperature"` // K

	// Decay.
	RotAcceler8r float64 `yaml:"rot_acceler8r"` // wet decay speed multiplier

	// Tools.
	DestroyRadius    float64 `yaml:"destroy_radius"`
	RepairRadius     float64 `yaml:"repair_radius"`
	ToolSearchRadius float64 `yaml:"tool_search_radius"`
	FloodQuantity    float64 `yaml:"flood_quantity"`
	DrawForce        float64 `yaml:"draw_force"`
	SwirlForce       float64 `yaml:"swirl_force"`
	BombBlastRadius  float64 `yaml:"bomb_blast_radius"`
	BombBlastForce   float64 `yaml:"bomb_blast_force"`
	BombFuseTicks    int     `yaml:"bomb_fuse_ticks"`

	// Scheduling.
	ParallelShips bool `yaml:"parallel_ships"` // step independent ships on separate goroutines
}

func Defaults() Params {
	return Params{
		TickRateHz:         64,
		FrameEveryTicks:    1,
		SnapshotEveryTicks: 3000,

		Gravity:                   9.80665,
		MaxVelocity:               30.0,
		NumMechanicalIterations:   8,
		SpringStiffnessAdjustment: 1.0,
		SpringDampingAdjustment:   1.0,
		StrengthAdjustment:        1.0,

		WaterDensity:        1000.0,
		BuoyancyAdjustment:  1.0,
		WaterIntakeRate:     1.0,
		WaterDiffusionSpeed: 0.5,
		WaterDrag:           0.8,

		SeaDepth:                      150.0,
		WaveHeight:                    1.25,
		OceanFloorBumpiness:           1.0,
		OceanFloorDetailAmplification: 10.0,
		WindBaseSpeed:                 10.0,
		WindGustAmplitude:             1.0,
		AmbientAirTemperature:         293.15,
		AmbientWaterTemperature:       285.15,

		RotAcceler8r: 1.0,

		DestroyRadius:    0.75,
		RepairRadius:     2.0,
		ToolSearchRadius: 2.0,
		FloodQuantity:    1.0,
		DrawForce:        40000.0,
		SwirlForce:       600.0,
		BombBlastRadius:  2.5,
		BombBlastForce:   30000.0,
		BombFuseTicks:    320,
	}
}

func Load(path string) (Params, error) {
	p := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("tuning.yaml: %w", err)
	}
	if p.TickRateHz <= 0 {
		return p, fmt.Errorf("tuning.yaml: tick_rate_hz must be positive")
	}
	if p.NumMechanicalIterations <= 0 {
		return p, fmt.Errorf("tuning.yaml: num_mechanical_iterations must be positive")
	}
	return p, nil
}

// Dt returns the outer timestep of one tick.
func (p *Params) Dt() float64 {
	return 1.0 / float64(p.TickRateHz)
}

// MechanicalDt returns the sub-step used by the spring/integration loops.
// Higher quality (more iterations) means a smaller effective dt, which is
// what keeps stiff springs stable.
func (p *Params) MechanicalDt() float64 {
	return p.Dt() / float64(p.NumMechanicalIterations)
}
