package physics

import (
	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/tuning"
)

// Ocean supplies the water surface height at an x coordinate.
type Ocean interface {
	HeightAt(x float64) float64
}

// Floor supplies the sea floor height at an x coordinate.
type Floor interface {
	HeightAt(x float64) float64
}

// Env carries the environment inputs sampled once per tick by the world.
// Wind is a plain velocity: the field itself lives outside physics.
type Env struct {
	Ocean Ocean
	Floor Floor
	WindX float64
	WindY float64
}

// Ship is one simulated structure: its particle network, connections,
// faces, short-lived particles, and armed bombs.
type Ship struct {
	ID   int32
	Name string

	Points    *Points
	Springs   *Springs
	Triangles *Triangles
	Eph       *Ephemerals
	Bombs     []Bomb

	db *materials.Database

	// connectivityDirty forces a component recomputation; set by breakage,
	// repair and sawing, never by plain motion.
	connectivityDirty bool
	// topoVersion counts index-buffer changes. Frame consumers compare it
	// against the version of the buffers they last received; the ship never
	// tracks who has seen what.
	topoVersion uint64

	componentCount int
	tick           uint64
}

// NewShip builds a ship from a material grid at a world offset.
func NewShip(id int32, name string, grid [][]int32, db *materials.Database, params *tuning.Params, offsetX, offsetY float64) (*Ship, error) {
	p, s, t, err := Build(grid, db, params, offsetX, offsetY)
	if err != nil {
		return nil, err
	}
	sh := &Ship{
		ID:        id,
		Name:      name,
		Points:    p,
		Springs:   s,
		Triangles: t,
		Eph:       NewEphemerals(DefaultEphemeralCapacity),
		db:        db,
	}
	sh.recomputeConnectivity()
	return sh, nil
}

// RestoreShip assembles a ship from already-populated networks, as read back
// from a snapshot. Connectivity is recomputed from the spring state.
func RestoreShip(id int32, name string, p *Points, s *Springs, t *Triangles, db *materials.Database) *Ship {
	sh := &Ship{
		ID:        id,
		Name:      name,
		Points:    p,
		Springs:   s,
		Triangles: t,
		Eph:       NewEphemerals(DefaultEphemeralCapacity),
		db:        db,
	}
	sh.recomputeConnectivity()
	return sh
}

// TopologyVersion changes whenever the element index buffers change.
func (sh *Ship) TopologyVersion() uint64 { return sh.topoVersion }

// Update advances the ship by one tick. Phase order is fixed: tool forces,
// mechanical substeps, breakage evaluation, connectivity (only when dirty),
// water transport, slow fields, ephemerals, bombs. Reordering phases changes
// observable behavior, so don't.
func (sh *Ship) Update(tick uint64, t float64, env Env, params *tuning.Params) {
	sh.tick = tick

	dt := params.Dt()
	dtMech := params.MechanicalDt()

	for iter := 0; iter < params.NumMechanicalIterations; iter++ {
		sh.applyForces(env, params)
		sh.applySpringForces(params, dtMech)
		sh.integrate(env, params, dtMech)
	}

	// Tool forces last exactly one tick.
	for i := 0; i < sh.Points.Count; i++ {
		sh.Points.ToolForceX[i] = 0
		sh.Points.ToolForceY[i] = 0
	}

	sh.evaluateStrains(params)

	if sh.connectivityDirty {
		sh.recomputeConnectivity()
	}

	sh.updateWater(env, params, dt)

	// Temperature and decay evolve slowly; a quarter rate is plenty.
	if tick%4 == 0 {
		sh.updateSlowFields(env, params, dt*4)
	}

	sh.Eph.Update(dt, params.Gravity, env.Ocean)
	sh.updateBombs(env, params, dt)
}

// MainComponentSize returns the particle count of the largest connected
// component (the main body).
func (sh *Ship) MainComponentSize() int {
	n := 0
	for i := 0; i < sh.Points.Count; i++ {
		if !sh.Points.Orphaned[i] && sh.Points.Component[i] == 0 {
			n++
		}
	}
	return n
}

// ComponentCount returns the number of connected components after the last
// topology change.
func (sh *Ship) ComponentCount() int { return sh.componentCount }

// TotalWater sums absorbed water over all particles.
func (sh *Ship) TotalWater() float64 {
	total := 0.0
	for i := 0; i < sh.Points.Count; i++ {
		total += sh.Points.Water[i]
	}
	return total
}
