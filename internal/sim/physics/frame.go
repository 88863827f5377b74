package physics

// Frame is the render-boundary snapshot of one ship: flat float32 attribute
// buffers, laid out for direct upload. Per-vertex attributes are refreshed
// every frame; the element index buffers (springs, triangles) and the static
// color/plane attributes are refilled only when the ship's topology version
// has moved past TopologyVersion, and are retained between refills so any
// consumer that missed an update can still be served the current buffers.
type Frame struct {
	ShipID int32
	Tick   uint64

	// Per-point attributes, index-aligned with the ship's particle order.
	Positions    []float32 // x,y interleaved; len = 2*pointCount
	LightWater   []float32 // light,water interleaved; len = 2*pointCount
	Temperatures []float32

	// Refreshed only on topology change, retained otherwise.
	Colors   []uint32
	PlaneIDs []int32

	// Element index buffers over point indices.
	SpringElements   []int32 // a,b pairs of live springs
	TriangleElements []int32 // a,b,c triples of live faces

	StressedSprings []int32 // live spring slots currently past half strain

	// Ephemeral particles: type, then x,y interleaved position.
	EphemeralTypes     []uint8
	EphemeralPositions []float32

	// TopologyVersion identifies the ship topology the element buffers
	// above were filled from.
	TopologyVersion uint64
}

// EmitFrame fills f (allocating its buffers on first use) from the ship's
// current state. Topology buffers are refilled only when f lags the ship's
// topology version; the ship itself is not mutated. Velocity, force and
// other solver state never cross this boundary; float64 narrows to float32
// here and only here.
func (sh *Ship) EmitFrame(f *Frame) {
	p := sh.Points

	f.ShipID = sh.ID
	f.Tick = sh.tick

	f.Positions = grow32(f.Positions, 2*p.Count)
	f.LightWater = grow32(f.LightWater, 2*p.Count)
	f.Temperatures = grow32(f.Temperatures, p.Count)
	for i := 0; i < p.Count; i++ {
		f.Positions[2*i] = float32(p.PosX[i])
		f.Positions[2*i+1] = float32(p.PosY[i])
		f.LightWater[2*i] = float32(p.Light[i])
		f.LightWater[2*i+1] = float32(p.Water[i])
		f.Temperatures[i] = float32(p.Temperature[i])
	}

	f.StressedSprings = f.StressedSprings[:0]
	for _, si := range sh.Springs.Active {
		if sh.Springs.Stressed[si] {
			f.StressedSprings = append(f.StressedSprings, si)
		}
	}

	if f.TopologyVersion != sh.topoVersion {
		if f.Colors == nil {
			f.Colors = make([]uint32, p.Count)
			f.PlaneIDs = make([]int32, p.Count)
		}
		copy(f.Colors, p.Color)
		copy(f.PlaneIDs, p.PlaneID)

		f.SpringElements = f.SpringElements[:0]
		for _, si := range sh.Springs.Active {
			f.SpringElements = append(f.SpringElements, sh.Springs.PointA[si], sh.Springs.PointB[si])
		}
		f.TriangleElements = f.TriangleElements[:0]
		for _, ti := range sh.Triangles.Active {
			f.TriangleElements = append(f.TriangleElements, sh.Triangles.A[ti], sh.Triangles.B[ti], sh.Triangles.C[ti])
		}
		f.TopologyVersion = sh.topoVersion
	}

	f.EphemeralTypes = f.EphemeralTypes[:0]
	f.EphemeralPositions = f.EphemeralPositions[:0]
	e := sh.Eph
	for i := range e.Type {
		if e.Type[i] == EphemeralNone {
			continue
		}
		f.EphemeralTypes = append(f.EphemeralTypes, uint8(e.Type[i]))
		f.EphemeralPositions = append(f.EphemeralPositions, float32(e.PosX[i]), float32(e.PosY[i]))
	}
}

func grow32(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
