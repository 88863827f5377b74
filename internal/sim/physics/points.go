package physics

// Points holds every structural particle of one ship as structure-of-arrays.
// The layout is a hard requirement, not a style choice: the spring and
// integration loops iterate these slices linearly so the compiler can keep
// them in cache and vectorize, and iteration count scales with the
// mechanical-quality setting.
//
// The particle count is fixed at ship load. Particles are never destroyed;
// a particle whose springs have all broken is marked orphaned.
type Points struct {
	Count int

	PosX []float64
	PosY []float64
	VelX []float64
	VelY []float64

	// Per-substep force accumulators, zeroed at the start of each substep.
	ForceX []float64
	ForceY []float64

	// Interaction forces injected by tools, applied for one tick only.
	ToolForceX []float64
	ToolForceY []float64

	BaseMass []float64
	Material []int32

	// Hot per-point material factors, denormalized at build time so the
	// update loops never chase the material database.
	BuoyancyFill      []float64
	WaterIntakeFactor []float64
	WaterDiffusion    []float64
	WaterRetention    []float64
	RustReceptivity   []float64
	WindReceptivity   []float64
	ThermalRate       []float64
	Hull              []bool
	Conductive        []bool

	Water         []float64
	WaterCapacity []float64
	Leaking       []bool

	Temperature []float64
	Decay       []float64 // structural integrity 1..0
	Light       []float64

	Pinned   []bool
	Orphaned []bool

	PlaneID   []int32
	Component []int32

	Color []uint32 // RGBA, mostly static after build

	// Springs lists incident spring indices per point, including springs
	// re-created by the repair tool. Broken springs stay listed and are
	// skipped via their broken flag.
	Springs [][]int32
}

func NewPoints(n int) *Points {
	return &Points{
		Count:             n,
		PosX:              make([]float64, n),
		PosY:              make([]float64, n),
		VelX:              make([]float64, n),
		VelY:              make([]float64, n),
		ForceX:            make([]float64, n),
		ForceY:            make([]float64, n),
		ToolForceX:        make([]float64, n),
		ToolForceY:        make([]float64, n),
		BaseMass:          make([]float64, n),
		Material:          make([]int32, n),
		BuoyancyFill:      make([]float64, n),
		WaterIntakeFactor: make([]float64, n),
		WaterDiffusion:    make([]float64, n),
		WaterRetention:    make([]float64, n),
		RustReceptivity:   make([]float64, n),
		WindReceptivity:   make([]float64, n),
		ThermalRate:       make([]float64, n),
		Hull:              make([]bool, n),
		Conductive:        make([]bool, n),
		Water:             make([]float64, n),
		WaterCapacity:     make([]float64, n),
		Leaking:           make([]bool, n),
		Temperature:       make([]float64, n),
		Decay:             make([]float64, n),
		Light:             make([]float64, n),
		Pinned:            make([]bool, n),
		Orphaned:          make([]bool, n),
		PlaneID:           make([]int32, n),
		Component:         make([]int32, n),
		Color:             make([]uint32, n),
		Springs:           make([][]int32, n),
	}
}

// Mass returns the effective mass: base mass plus absorbed water. Water only
// ever adds, so mass stays strictly positive.
func (p *Points) Mass(i int32) float64 {
	return p.BaseMass[i] + p.Water[i]
}

// TotalMass sums base and water mass over all particles.
func (p *Points) TotalMass() float64 {
	total := 0.0
	for i := 0; i < p.Count; i++ {
		total += p.BaseMass[i] + p.Water[i]
	}
	return total
}
