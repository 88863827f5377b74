package environment

import "math"

// Clouds and Stars exist only for the render boundary; ships never read them.

type Cloud struct {
	X     float64
	Y     float64
	Scale float64
}

type Clouds struct {
	clouds []Cloud
	speeds []float64
}

func NewClouds(seed int64, count int) *Clouds {
	if count <= 0 {
		count = 24
	}
	rng := newSplitMix(seed ^ 0x636c6f7564) // "cloud"
	c := &Clouds{
		clouds: make([]Cloud, count),
		speeds: make([]float64, count),
	}
	for i := range c.clouds {
		c.clouds[i] = Cloud{
			X:     rng.float64()*2000.0 - 1000.0,
			Y:     60.0 + rng.float64()*80.0,
			Scale: 0.5 + rng.float64()*1.5,
		}
		c.speeds[i] = 0.5 + rng.float64()*1.5
	}
	return c
}

func (c *Clouds) Update(dt float64, windX float64) {
	for i := range c.clouds {
		x := c.clouds[i].X + windX*0.05*c.speeds[i]*dt
		// Wrap into the visible band.
		x = math.Mod(x+1000.0, 2000.0)
		if x < 0 {
			x += 2000.0
		}
		c.clouds[i].X = x - 1000.0
	}
}

func (c *Clouds) All() []Cloud { return c.clouds }

type Star struct {
	X          float64
	Y          float64
	Brightness float64
}

type Stars struct {
	stars []Star
}

func NewStars(seed int64, count int) *Stars {
	if count <= 0 {
		count = 256
	}
	rng := newSplitMix(seed ^ 0x73746172) // "star"
	s := &Stars{stars: make([]Star, count)}
	for i := range s.stars {
		s.stars[i] = Star{
			X:          rng.float64()*2.0 - 1.0,
			Y:          rng.float64(),
			Brightness: 0.25 + rng.float64()*0.75,
		}
	}
	return s
}

func (s *Stars) All() []Star { return s.stars }
