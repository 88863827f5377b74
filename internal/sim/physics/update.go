package physics

import (
	"math"

	"hullsim.ai/internal/sim/tuning"
)

// applyForces zeroes the substep accumulators and adds the per-point world
// forces: gravity, buoyancy, water drag and wind.
func (sh *Ship) applyForces(env Env, params *tuning.Params) {
	p := sh.Points
	g := params.Gravity

	for i := 0; i < p.Count; i++ {
		mass := p.BaseMass[i] + p.Water[i]

		fx := p.ToolForceX[i]
		fy := -g * mass // gravity pulls down, always

		surface := env.Ocean.HeightAt(p.PosX[i])

		// Submersion fraction: fully dry above surface+0.5, fully wet below
		// surface-0.5, linear in between. Gives a genuine floating
		// equilibrium instead of oscillating across a hard boundary.
		sub := surface - p.PosY[i] + 0.5
		if sub < 0 {
			sub = 0
		} else if sub > 1 {
			sub = 1
		}

		if sub > 0 {
			// Archimedes on the displaced water volume this particle's
			// material can exclude.
			fy += params.WaterDensity * params.BuoyancyAdjustment * p.BuoyancyFill[i] * sub * g

			drag := params.WaterDrag * sub
			fx -= drag * p.VelX[i]
			fy -= drag * p.VelY[i]
		}
		if sub < 1 {
			// Wind drags against relative velocity on the exposed part.
			wr := p.WindReceptivity[i] * (1 - sub)
			fx += wr * (env.WindX - p.VelX[i])
			fy += wr * (env.WindY - p.VelY[i])
		}

		p.ForceX[i] = fx
		p.ForceY[i] = fy + p.ToolForceY[i]
	}
}

// applySpringForces accumulates Hooke and damping forces over live springs.
// This is the hot loop of the whole simulator.
func (sh *Ship) applySpringForces(params *tuning.Params, dtMech float64) {
	p := sh.Points
	s := sh.Springs

	coefK := params.SpringStiffnessAdjustment * 0.5 / (dtMech * dtMech)
	coefD := params.SpringDampingAdjustment * 0.1 / dtMech

	for _, si := range s.Active {
		a := s.PointA[si]
		b := s.PointB[si]

		dx := p.PosX[b] - p.PosX[a]
		dy := p.PosY[b] - p.PosY[a]
		length := math.Sqrt(dx*dx + dy*dy)
		if length < 1e-12 {
			continue
		}
		ux := dx / length
		uy := dy / length

		displacement := length - s.RestLength[si]
		if s.IsRope[si] && displacement < 0 {
			// Ropes pull, never push.
			displacement = 0
		}

		fk := displacement * s.StiffFactor[si] * coefK

		// Damp the velocity component along the spring axis.
		rvx := p.VelX[b] - p.VelX[a]
		rvy := p.VelY[b] - p.VelY[a]
		fd := (rvx*ux + rvy*uy) * s.DampFactor[si] * coefD

		f := fk + fd
		p.ForceX[a] += f * ux
		p.ForceY[a] += f * uy
		p.ForceX[b] -= f * ux
		p.ForceY[b] -= f * uy
	}
}

// integrate advances velocities and positions by one mechanical substep and
// resolves sea floor contact. Semi-implicit Euler: velocity first, then
// position with the new velocity.
func (sh *Ship) integrate(env Env, params *tuning.Params, dtMech float64) {
	p := sh.Points
	maxV := params.MaxVelocity

	for i := 0; i < p.Count; i++ {
		if p.Pinned[i] {
			p.VelX[i] = 0
			p.VelY[i] = 0
			continue
		}
		invMass := 1.0 / (p.BaseMass[i] + p.Water[i])

		vx := p.VelX[i] + p.ForceX[i]*invMass*dtMech
		vy := p.VelY[i] + p.ForceY[i]*invMass*dtMech

		// A blown-up substep must not poison the whole network.
		if math.IsNaN(vx) || math.IsInf(vx, 0) {
			vx = 0
		}
		if math.IsNaN(vy) || math.IsInf(vy, 0) {
			vy = 0
		}
		speed2 := vx*vx + vy*vy
		if speed2 > maxV*maxV {
			scale := maxV / math.Sqrt(speed2)
			vx *= scale
			vy *= scale
		}

		x := p.PosX[i] + vx*dtMech
		y := p.PosY[i] + vy*dtMech

		if floorY := env.Floor.HeightAt(x); y < floorY {
			y = floorY
			if vy < 0 {
				vy = -vy * 0.3
			}
			vx *= 0.5 // ground friction
		}

		p.VelX[i] = vx
		p.VelY[i] = vy
		p.PosX[i] = x
		p.PosY[i] = y
	}
}
