package environment

import (
	"math"

	"hullsim.ai/internal/sim/tuning"
)

// Sample layout shared by surface and floor: a power-of-two array of
// precomputed heights covering one period, indexed by fractional position
// with linear interpolation. Lookups are O(1) because they run at least once
// per point per frame.
const (
	samplesCount = 512
	period       = 2000.0 * math.Pi
	dx           = period / samplesCount
)

type sample struct {
	value     float64
	nextDelta float64 // samples[i+1].value - samples[i].value
}

func heightAt(samples []sample, x float64) float64 {
	idxF := x / dx
	idxI := int(math.Floor(idxF))
	frac := idxF - float64(idxI)

	i := idxI % samplesCount
	if i < 0 {
		i += samplesCount
	}
	return samples[i].value + samples[i].nextDelta*frac
}

func sealDeltas(samples []sample) {
	for i := 0; i < samplesCount; i++ {
		next := samples[(i+1)%samplesCount].value
		samples[i].nextDelta = next - samples[i].value
	}
}

// OceanSurface is the water line: a sum of three wave components whose
// phases advance with simulation time. Samples are recomputed once per
// Update, so HeightAt is a pure function of (x, accumulated time).
type OceanSurface struct {
	samples [samplesCount]sample
}

const (
	surfaceFrequency1 = 0.1
	surfaceFrequency2 = 0.3
	surfaceFrequency3 = 0.5
)

func NewOceanSurface(params *tuning.Params) *OceanSurface {
	s := &OceanSurface{}
	s.Update(0, params)
	return s
}

func (s *OceanSurface) Update(t float64, params *tuning.Params) {
	h := params.WaveHeight
	for i := 0; i < samplesCount; i++ {
		x := float64(i) * dx
		v := h * (0.55*math.Sin(surfaceFrequency1*(x+5.0*t)) +
			0.3*math.Sin(surfaceFrequency2*(x-3.2*t)) +
			0.15*math.Sin(surfaceFrequency3*(x+1.7*t)))
		s.samples[i].value = v
	}
	sealDeltas(s.samples[:])
}

func (s *OceanSurface) HeightAt(x float64) float64 {
	return heightAt(s.samples[:], x)
}

// OceanFloor is the seabed profile: three low-frequency components plus a
// seeded bump map. Samples recompute only when the relevant parameters
// change, never per frame.
type OceanFloor struct {
	samples  [samplesCount]sample
	bumpMap  [samplesCount]float64
	adjusted [samplesCount]float64 // terraforming offsets, survive parameter changes

	currentSeaDepth      float64
	currentBumpiness     float64
	currentDetailAmplify float64
}

const (
	floorFrequency1 = 0.005
	floorFrequency2 = 0.015
	floorFrequency3 = 0.001
)

func NewOceanFloor(seed int64, params *tuning.Params) *OceanFloor {
	f := &OceanFloor{
		currentSeaDepth:      math.NaN(),
		currentBumpiness:     math.NaN(),
		currentDetailAmplify: math.NaN(),
	}
	rng := newSplitMix(seed)
	for i := 0; i < samplesCount; i++ {
		f.bumpMap[i] = rng.float64()*2.0 - 1.0
	}
	f.Update(params)
	return f
}

func (f *OceanFloor) Update(params *tuning.Params) {
	if params.SeaDepth == f.currentSeaDepth &&
		params.OceanFloorBumpiness == f.currentBumpiness &&
		params.OceanFloorDetailAmplification == f.currentDetailAmplify {
		return
	}
	f.currentSeaDepth = params.SeaDepth
	f.currentBumpiness = params.OceanFloorBumpiness
	f.currentDetailAmplify = params.OceanFloorDetailAmplification

	for i := 0; i < samplesCount; i++ {
		x := float64(i) * dx
		base := 6.0*math.Sin(floorFrequency1*x) +
			14.0*math.Sin(floorFrequency2*x)*f.currentBumpiness +
			3.0*math.Sin(floorFrequency3*x)
		detail := f.bumpMap[i] * f.currentDetailAmplify * f.currentBumpiness
		f.samples[i].value = -f.currentSeaDepth + base + detail + f.adjusted[i]
	}
	sealDeltas(f.samples[:])
}

func (f *OceanFloor) HeightAt(x float64) float64 {
	return heightAt(f.samples[:], x)
}

// AdjustTo raises or lowers the floor along the segment [x1,x2] toward the
// given target heights (terraforming tool). Returns whether anything moved.
func (f *OceanFloor) AdjustTo(x1, targetY1, x2, targetY2 float64) bool {
	if x2 < x1 {
		x1, x2 = x2, x1
		targetY1, targetY2 = targetY2, targetY1
	}
	i1 := int(math.Floor(x1/dx)) % samplesCount
	i2 := int(math.Floor(x2/dx)) % samplesCount
	if i1 < 0 {
		i1 += samplesCount
	}
	if i2 < 0 {
		i2 += samplesCount
	}

	moved := false
	n := i2 - i1
	if n < 0 {
		n += samplesCount
	}
	for k := 0; k <= n; k++ {
		i := (i1 + k) % samplesCount
		var t float64
		if n > 0 {
			t = float64(k) / float64(n)
		}
		target := targetY1 + (targetY2-targetY1)*t
		delta := target - f.samples[i].value
		if delta == 0 {
			continue
		}
		f.adjusted[i] += delta
		f.samples[i].value = target
		moved = true
	}
	if moved {
		sealDeltas(f.samples[:])
	}
	return moved
}

// AdjustedSamples copies out the terraforming offsets, for snapshots.
func (f *OceanFloor) AdjustedSamples() []float64 {
	out := make([]float64, samplesCount)
	copy(out, f.adjusted[:])
	return out
}

// SetAdjustedSamples restores terraforming offsets from a snapshot and
// rebuilds the profile.
func (f *OceanFloor) SetAdjustedSamples(adjusted []float64) {
	for i := range f.adjusted {
		f.adjusted[i] = 0
	}
	copy(f.adjusted[:], adjusted)
	// Force the next Update to recompute with the restored offsets.
	f.currentSeaDepth = math.NaN()
}

// splitMix is a tiny deterministic generator for seeding sample noise,
// independent of math/rand so floor profiles are stable across Go versions.
type splitMix struct{ state uint64 }

func newSplitMix(seed int64) *splitMix { return &splitMix{state: uint64(seed)} }

func (s *splitMix) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (s *splitMix) float64() float64 {
	return float64(s.next()>>11) / float64(1<<53)
}
