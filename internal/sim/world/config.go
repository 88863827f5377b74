package world

type WorldConfig struct {
	ID   string
	Seed int64

	// ShipDir is where SPAWN_SHIP looks up definitions by base name.
	ShipDir string

	MaxShips   int
	MaxClients int

	// DigestEveryTicks controls how often a state digest is computed and
	// attached to the WORLD message and tick log. Digesting every tick is
	// wasteful at 64 Hz.
	DigestEveryTicks int

	// SurfaceWindow is the half-width of the ocean surface strip sampled
	// into WORLD messages.
	SurfaceWindow  float64
	SurfaceSamples int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "W1"
	}
	if c.MaxShips <= 0 {
		c.MaxShips = 8
	}
	if c.MaxClients <= 0 {
		c.MaxClients = 32
	}
	if c.DigestEveryTicks <= 0 {
		c.DigestEveryTicks = 64
	}
	if c.SurfaceWindow <= 0 {
		c.SurfaceWindow = 200
	}
	if c.SurfaceSamples <= 0 {
		c.SurfaceSamples = 256
	}
}
