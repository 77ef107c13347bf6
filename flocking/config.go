package flocking

import "errors"

// ErrInvalidRadii indicates the separation/alignment/cohesion radii did not
// satisfy the required ordering Rs < Ra < Rc.
var ErrInvalidRadii = errors.New("flocking: radii must satisfy Rs < Ra < Rc")

// ErrInvalidConfiguration indicates a weight, maxSpeed, or maxForce field
// was outside its documented range (flocking configuration constraints).
var ErrInvalidConfiguration = errors.New("flocking: configuration out of range")

// Config holds the three band radii, their weights, and the force/speed
// caps for one flocking producer instance. Separate Config
// values let a swarm run different presets (tight/loose/emergency) for
// different sub-groups simultaneously.
type Config struct {
	Rs, Ra, Rc float64 // separation, alignment, cohesion radii
	Ws, Wa, Wc float64 // corresponding weights

	MaxSpeed float64
	MaxForce float64
}

// Validate enforces flocking constraints: 0 < Rs < Ra < Rc <= 200;
// weights in [0,5]; maxSpeed in (0,200]; maxForce in (0,10].
func (c Config) Validate() error {
	if !(0 < c.Rs && c.Rs < c.Ra && c.Ra < c.Rc && c.Rc <= 200) {
		return ErrInvalidRadii
	}
	for _, w := range []float64{c.Ws, c.Wa, c.Wc} {
		if w < 0 || w > 5 {
			return ErrInvalidConfiguration
		}
	}
	if c.MaxSpeed <= 0 || c.MaxSpeed > 200 {
		return ErrInvalidConfiguration
	}
	if c.MaxForce <= 0 || c.MaxForce > 10 {
		return ErrInvalidConfiguration
	}
	return nil
}

// TightFormation is a preset favoring cohesive, close-packed flocking:
// stronger separation weight, a smaller separation radius.
func TightFormation() Config {
	return Config{Rs: 15, Ra: 40, Rc: 80, Ws: 2.0, Wa: 1.2, Wc: 1.0, MaxSpeed: 40, MaxForce: 3}
}

// LooseExploration is a preset favoring spread-out, exploratory flocking:
// weaker separation weight, a larger cohesion radius.
func LooseExploration() Config {
	return Config{Rs: 25, Ra: 60, Rc: 150, Ws: 0.6, Wa: 1.0, Wc: 1.5, MaxSpeed: 60, MaxForce: 3}
}

// EmergencyEvasion is a preset for maximal separation and raised top
// speed, used under the Evading behavior.
func EmergencyEvasion() Config {
	return Config{Rs: 20, Ra: 45, Rc: 90, Ws: 5.0, Wa: 0.8, Wc: 0.5, MaxSpeed: 120, MaxForce: 10}
}
