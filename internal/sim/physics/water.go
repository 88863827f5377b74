package physics

import (
	"math"

	"hullsim.ai/internal/sim/tuning"
)

// updateWater moves water in and out of the structure. Exchange with the sea
// happens only at boundary particles (permeable material, or hull breached
// by a broken spring); interior movement is pairwise diffusion along live
// springs, which moves water around without creating or destroying any.
func (sh *Ship) updateWater(env Env, params *tuning.Params, dt float64) {
	p := sh.Points

	for i := 0; i < p.Count; i++ {
		if p.WaterCapacity[i] <= 0 {
			continue
		}
		surface := env.Ocean.HeightAt(p.PosX[i])
		depth := surface - p.PosY[i]

		if depth > 0 {
			// Submerged. Hull plating keeps water out until it leaks.
			permeable := !p.Hull[i] && p.WaterIntakeFactor[i] > 0
			if permeable || p.Leaking[i] {
				intake := params.WaterIntakeRate * dt * math.Sqrt(depth)
				if p.Leaking[i] {
					intake *= 1 + p.WaterIntakeFactor[i]
				} else {
					intake *= p.WaterIntakeFactor[i]
				}
				p.Water[i] += intake
				if p.Water[i] > p.WaterCapacity[i] {
					p.Water[i] = p.WaterCapacity[i]
				}
			}
		} else if p.Water[i] > 0 {
			// Above the surface water drains out, slowed by retention.
			out := params.WaterIntakeRate * dt * p.Water[i] * (1 - p.WaterRetention[i])
			p.Water[i] -= out
			if p.Water[i] < 0 {
				p.Water[i] = 0
			}
		}
	}

	sh.diffuseWater(params, dt)
}

// diffuseWater equalizes water between connected particles. Potential is
// height plus held water, so water flows downhill and from full to empty.
// Each transfer adds to one side exactly what it removes from the other.
func (sh *Ship) diffuseWater(params *tuning.Params, dt float64) {
	p := sh.Points
	s := sh.Springs

	rate := params.WaterDiffusionSpeed * dt
	if rate <= 0 {
		return
	}

	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]
		if p.WaterCapacity[a] <= 0 || p.WaterCapacity[b] <= 0 {
			continue
		}

		potA := p.PosY[a] + p.Water[a]
		potB := p.PosY[b] + p.Water[b]
		flow := (potA - potB) * rate * s.WaterDiffusion[si]

		// Donor can't give more than it has; receiver can't hold more than
		// its capacity. Clamping both ends symmetrically keeps the total
		// exact.
		if flow > 0 {
			if flow > p.Water[a] {
				flow = p.Water[a]
			}
			if free := p.WaterCapacity[b] - p.Water[b]; flow > free {
				flow = free
			}
		} else {
			if -flow > p.Water[b] {
				flow = -p.Water[b]
			}
			if free := p.WaterCapacity[a] - p.Water[a]; -flow > free {
				flow = -free
			}
		}
		p.Water[a] -= flow
		p.Water[b] += flow
	}
}

// updateSlowFields advances temperature and structural decay. It runs at a
// quarter of the tick rate with a scaled dt.
func (sh *Ship) updateSlowFields(env Env, params *tuning.Params, dt float64) {
	p := sh.Points
	s := sh.Springs

	// Conduction along live springs.
	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]
		k := (p.ThermalRate[a] + p.ThermalRate[b]) / 2
		if k <= 0 {
			continue
		}
		transfer := (p.Temperature[a] - p.Temperature[b]) * k * dt
		p.Temperature[a] -= transfer
		p.Temperature[b] += transfer
	}

	for i := 0; i < p.Count; i++ {
		surface := env.Ocean.HeightAt(p.PosX[i])
		submerged := p.PosY[i] < surface

		// Relax toward ambient air or water temperature.
		ambient := params.AmbientAirTemperature
		relax := 0.01
		if submerged {
			ambient = params.AmbientWaterTemperature
			relax = 0.05
		}
		p.Temperature[i] += (ambient - p.Temperature[i]) * relax * dt

		// Rust eats receptive material that is wet or submerged.
		if p.RustReceptivity[i] > 0 && (submerged || p.Water[i] > 0.01) {
			p.Decay[i] -= p.RustReceptivity[i] * params.RotAcceler8r * dt
			if p.Decay[i] < 0 {
				p.Decay[i] = 0
			}
		}
	}
}
