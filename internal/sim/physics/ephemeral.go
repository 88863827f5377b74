package physics

// Ephemeral particles are short-lived visual entities (debris from breakage,
// air bubbles from flooding, sparkles from sawing). They live in a fixed-
// capacity ring buffer: spawning when full evicts the oldest, so the pool
// never allocates per frame and never grows.

type EphemeralType uint8

const (
	EphemeralNone EphemeralType = iota
	EphemeralDebris
	EphemeralAirBubble
	EphemeralSparkle
)

const DefaultEphemeralCapacity = 512

type Ephemerals struct {
	Type []EphemeralType
	PosX []float64
	PosY []float64
	VelX []float64
	VelY []float64
	TTL  []float64

	next int // ring cursor: next slot to reuse (oldest-eviction)
}

func NewEphemerals(capacity int) *Ephemerals {
	if capacity <= 0 {
		capacity = DefaultEphemeralCapacity
	}
	return &Ephemerals{
		Type: make([]EphemeralType, capacity),
		PosX: make([]float64, capacity),
		PosY: make([]float64, capacity),
		VelX: make([]float64, capacity),
		VelY: make([]float64, capacity),
		TTL:  make([]float64, capacity),
	}
}

func (e *Ephemerals) Spawn(t EphemeralType, x, y, vx, vy, ttl float64) {
	i := e.next
	e.next = (e.next + 1) % len(e.Type)
	e.Type[i] = t
	e.PosX[i] = x
	e.PosY[i] = y
	e.VelX[i] = vx
	e.VelY[i] = vy
	e.TTL[i] = ttl
}

// Update advances live particles: debris falls ballistically, bubbles rise
// toward the surface, sparkles just drift and fade.
func (e *Ephemerals) Update(dt, gravity float64, ocean Ocean) {
	for i := range e.Type {
		if e.Type[i] == EphemeralNone {
			continue
		}
		e.TTL[i] -= dt
		if e.TTL[i] <= 0 {
			e.Type[i] = EphemeralNone
			continue
		}
		switch e.Type[i] {
		case EphemeralDebris:
			e.VelY[i] -= gravity * dt
			if e.PosY[i] < ocean.HeightAt(e.PosX[i]) {
				e.VelX[i] *= 0.98
				e.VelY[i] *= 0.98
			}
		case EphemeralAirBubble:
			surface := ocean.HeightAt(e.PosX[i])
			if e.PosY[i] < surface {
				e.VelY[i] += gravity * 0.4 * dt
			} else {
				// Popped.
				e.Type[i] = EphemeralNone
				continue
			}
		case EphemeralSparkle:
			e.VelY[i] -= gravity * 0.2 * dt
		}
		e.PosX[i] += e.VelX[i] * dt
		e.PosY[i] += e.VelY[i] * dt
	}
}

// Alive counts live particles.
func (e *Ephemerals) Alive() int {
	n := 0
	for i := range e.Type {
		if e.Type[i] != EphemeralNone {
			n++
		}
	}
	return n
}
