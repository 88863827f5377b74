package physics

// Springs holds the elastic/damped connections of one ship, structure-of-
// arrays like Points. Slots are preallocated at load to twice the built
// count: the upper half is spare capacity for springs re-created by the
// repair tool, so no slice ever grows inside the simulation loop.
//
// A broken spring keeps its slot forever; its broken flag is monotonic.
// Repair re-creates a severed connection as a new slot (copying the broken
// record) and marks the old record restored so it is not re-created twice.
type Springs struct {
	Count int // used slots
	Cap   int

	PointA []int32
	PointB []int32

	RestLength []float64

	// StiffFactor is material stiffness times the reduced base mass of the
	// endpoints; DampFactor is the reduced base mass. The per-tick dt-derived
	// coefficients multiply these in the force loop.
	StiffFactor []float64
	DampFactor  []float64

	// BreakStrain is the weaker endpoint material's strain threshold
	// fraction; the global strength adjustment scales it at evaluation time.
	BreakStrain []float64

	WaterDiffusion []float64

	IsRope []bool

	Stress   []float64
	Stressed []bool
	Broken   []bool
	Restored []bool

	// Active lists non-broken slot indices; rebuilt only on ticks where
	// topology changed.
	Active []int32
}

func NewSprings(capacity int) *Springs {
	return &Springs{
		Cap:            capacity,
		PointA:         make([]int32, capacity),
		PointB:         make([]int32, capacity),
		RestLength:     make([]float64, capacity),
		StiffFactor:    make([]float64, capacity),
		DampFactor:     make([]float64, capacity),
		BreakStrain:    make([]float64, capacity),
		WaterDiffusion: make([]float64, capacity),
		IsRope:         make([]bool, capacity),
		Stress:         make([]float64, capacity),
		Stressed:       make([]bool, capacity),
		Broken:         make([]bool, capacity),
		Restored:       make([]bool, capacity),
		Active:         make([]int32, 0, capacity),
	}
}

// Add appends a spring slot. Returns -1 when spare capacity is exhausted
// (the repair tool then becomes a no-op rather than allocating).
func (s *Springs) Add(a, b int32, restLength, stiffFactor, dampFactor, breakStrain, waterDiffusion float64, isRope bool) int32 {
	if s.Count >= s.Cap {
		return -1
	}
	i := int32(s.Count)
	s.Count++
	s.PointA[i] = a
	s.PointB[i] = b
	s.RestLength[i] = restLength
	s.StiffFactor[i] = stiffFactor
	s.DampFactor[i] = dampFactor
	s.BreakStrain[i] = breakStrain
	s.WaterDiffusion[i] = waterDiffusion
	s.IsRope[i] = isRope
	return i
}

func (s *Springs) RebuildActive() {
	s.Active = s.Active[:0]
	for i := 0; i < s.Count; i++ {
		if !s.Broken[i] {
			s.Active = append(s.Active, int32(i))
		}
	}
}

// ActiveCount returns the number of live springs.
func (s *Springs) ActiveCount() int { return len(s.Active) }
