package environment

import (
	"math"

	"hullsim.ai/internal/sim/tuning"
)

// Wind blows along +x/-x only (the simulation plane). The current speed is
// the configured base speed modulated by slow deterministic gust noise, a
// pure function of accumulated time.
type Wind struct {
	seed         int64
	currentSpeed Vec2
}

type Vec2 struct {
	X float64
	Y float64
}

func NewWind(seed int64, params *tuning.Params) *Wind {
	w := &Wind{seed: seed}
	w.Update(0, params)
	return w
}

const (
	gustFrequency1 = 0.071
	gustFrequency2 = 0.229
)

func (w *Wind) Update(t float64, params *tuning.Params) {
	phase := float64(w.seed%977) * 0.013
	gust := math.Sin(gustFrequency1*t+phase) + 0.4*math.Sin(gustFrequency2*t+2.1*phase)
	speed := params.WindBaseSpeed + params.WindGustAmplitude*params.WindBaseSpeed*0.3*gust
	w.currentSpeed = Vec2{X: speed}
}

func (w *Wind) CurrentSpeed() Vec2 { return w.currentSpeed }
