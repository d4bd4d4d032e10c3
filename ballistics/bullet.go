// Package ballistics provides the exterior-ballistics core: bullet and
// drag modelling, trajectory storage and lookup, and the flight
// simulator with iterative zeroing.
//
// World frame: X is crossrange (+right), Y is vertical (+up), and shots
// travel toward −Z, so the downrange distance of a point p is −p.Z.
package ballistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DragFunction selects the standard reference drag curve used to scale
// the bullet's drag from its ballistic coefficient. G1 suits flat-based
// bullets, G7 boat-tails; the two are the only curves used in small-arms
// work.
type DragFunction uint8

const (
	G1 DragFunction = iota
	G7
)

func (d DragFunction) String() string {
	switch d {
	case G1:
		return "G1"
	case G7:
		return "G7"
	default:
		return fmt.Sprintf("DragFunction(%d)", uint8(d))
	}
}

// ParseDragFunction converts a name ("G1", "G7") to a DragFunction.
func ParseDragFunction(s string) (DragFunction, error) {
	switch s {
	case "G1", "g1":
		return G1, nil
	case "G7", "g7":
		return G7, nil
	default:
		return 0, fmt.Errorf("ballistics: unknown drag function %q", s)
	}
}

// Bullet is an immutable bullet specification, optionally carrying a
// flight state (position, velocity, spin). A flying bullet is only ever
// produced by copying a specification together with new state via
// WithState; the specification itself is never mutated.
type Bullet struct {
	mass     float64 // kg
	diameter float64 // m
	length   float64 // m
	bc       float64
	dragFn   DragFunction

	pos      r3.Vec  // m
	vel      r3.Vec  // m/s
	spin     float64 // rad/s
	inFlight bool
}

// NewBullet builds a bullet specification. Mass, diameter, length, and
// ballistic coefficient must all be positive.
func NewBullet(mass, diameter, length, bc float64, dragFn DragFunction) (Bullet, error) {
	switch {
	case mass <= 0:
		return Bullet{}, fmt.Errorf("ballistics: bullet mass %v kg must be positive", mass)
	case diameter <= 0:
		return Bullet{}, fmt.Errorf("ballistics: bullet diameter %v m must be positive", diameter)
	case length <= 0:
		return Bullet{}, fmt.Errorf("ballistics: bullet length %v m must be positive", length)
	case bc <= 0:
		return Bullet{}, fmt.Errorf("ballistics: ballistic coefficient %v must be positive", bc)
	}
	return Bullet{mass: mass, diameter: diameter, length: length, bc: bc, dragFn: dragFn}, nil
}

// WithState returns a flying copy of b with the given position,
// velocity, and spin rate.
func (b Bullet) WithState(pos, vel r3.Vec, spin float64) Bullet {
	b.pos = pos
	b.vel = vel
	b.spin = spin
	b.inFlight = true
	return b
}

// Mass returns the bullet mass in kg.
func (b Bullet) Mass() float64 { return b.mass }

// Diameter returns the bullet diameter in m.
func (b Bullet) Diameter() float64 { return b.diameter }

// Length returns the bullet length in m.
func (b Bullet) Length() float64 { return b.length }

// BC returns the ballistic coefficient.
func (b Bullet) BC() float64 { return b.bc }

// DragFunction returns the selected reference drag curve.
func (b Bullet) DragFunction() DragFunction { return b.dragFn }

// SectionalDensity returns mass/diameter² in kg/m².
func (b Bullet) SectionalDensity() float64 {
	return b.mass / (b.diameter * b.diameter)
}

// InFlight reports whether b carries a flight state.
func (b Bullet) InFlight() bool { return b.inFlight }

// Position returns the bullet position in m.
func (b Bullet) Position() r3.Vec { return b.pos }

// Velocity returns the bullet velocity in m/s.
func (b Bullet) Velocity() r3.Vec { return b.vel }

// SpinRate returns the spin rate about the velocity axis in rad/s.
func (b Bullet) SpinRate() float64 { return b.spin }

// Speed returns the velocity magnitude in m/s.
func (b Bullet) Speed() float64 { return r3.Norm(b.vel) }

// KineticEnergy returns ½mv² in Joules.
func (b Bullet) KineticEnergy() float64 {
	v := b.Speed()
	return 0.5 * b.mass * v * v
}

// ElevationAngle returns the velocity pitch above the horizontal plane
// in radians.
func (b Bullet) ElevationAngle() float64 {
	horizontal := math.Hypot(b.vel.X, b.vel.Z)
	return math.Atan2(b.vel.Y, horizontal)
}

// AzimuthAngle returns the horizontal angle of the velocity from the
// downrange axis in radians, positive toward +X.
func (b Bullet) AzimuthAngle() float64 {
	return math.Atan2(b.vel.X, -b.vel.Z)
}

// SpinRateFromTwist converts a signed barrel twist pitch (meters per
// turn, right-hand positive) and muzzle speed to a spin rate in rad/s.
func SpinRateFromTwist(speed, twistPitch float64) float64 {
	if twistPitch == 0 {
		return 0
	}
	omega := 2 * math.Pi * speed / math.Abs(twistPitch)
	if twistPitch < 0 {
		return -omega
	}
	return omega
}
