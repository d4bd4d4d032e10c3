package ballistics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/physics"
)

// WindField supplies a wind velocity for a world position. Implementations
// must be safe for repeated sampling at the same position and time.
type WindField interface {
	Sample(pos r3.Vec) r3.Vec
}

// ErrZeroingDidNotConverge is returned by ComputeZero when the iterative
// angle search exhausts its iteration limit without meeting tolerance.
var ErrZeroingDidNotConverge = errors.New("ballistics: zeroing did not converge")

const (
	defaultMaxFlightTime = 60.0
	minSimSpeed          = 1.0
)

// Simulator integrates a bullet's flight through an atmosphere, recording
// the path into a Trajectory. A simulator is not safe for concurrent use.
type Simulator struct {
	initial    Bullet
	bullet     Bullet
	atmosphere physics.Atmosphere
	wind       WindField
	trajectory Trajectory

	maxFlightTime float64
	spinDecay     float64
	time          float64
}

// NewSimulator returns a simulator for the given bullet and atmosphere.
// The bullet describes the launch state used by each Simulate call.
func NewSimulator(b Bullet, atm physics.Atmosphere) *Simulator {
	return &Simulator{
		initial:       b,
		bullet:        b,
		atmosphere:    atm,
		maxFlightTime: defaultMaxFlightTime,
	}
}

// SetInitialBullet replaces the launch state used by Simulate and resets
// the current flight.
func (s *Simulator) SetInitialBullet(b Bullet) {
	s.initial = b
	s.ResetToInitial()
}

// SetAtmosphere replaces the atmosphere used for drag and speed of sound.
func (s *Simulator) SetAtmosphere(atm physics.Atmosphere) {
	s.atmosphere = atm
}

// SetWind installs a wind field sampled once per integration step. A nil
// field means still air.
func (s *Simulator) SetWind(w WindField) {
	s.wind = w
}

// SetMaxFlightTime bounds the simulated flight time. Non-positive values
// restore the default bound.
func (s *Simulator) SetMaxFlightTime(t float64) {
	if t <= 0 {
		t = defaultMaxFlightTime
	}
	s.maxFlightTime = t
}

// SetSpinDecay sets the exponential decay rate applied to the bullet's
// spin, in 1/s.
func (s *Simulator) SetSpinDecay(rate float64) {
	s.spinDecay = rate
}

// InitialBullet returns the launch state used by Simulate.
func (s *Simulator) InitialBullet() Bullet { return s.initial }

// Bullet returns the bullet's current in-flight state.
func (s *Simulator) Bullet() Bullet { return s.bullet }

// Atmosphere returns the atmosphere used for drag and speed of sound.
func (s *Simulator) Atmosphere() physics.Atmosphere { return s.atmosphere }

// Trajectory returns the samples recorded by the most recent flight.
func (s *Simulator) Trajectory() *Trajectory { return &s.trajectory }

// FlightTime returns the elapsed time of the current flight.
func (s *Simulator) FlightTime() float64 { return s.time }

// CurrentDistance returns the bullet's downrange distance so far.
func (s *Simulator) CurrentDistance() float64 { return -s.bullet.Position().Z }

// MaxFlightTime returns the simulated flight time bound.
func (s *Simulator) MaxFlightTime() float64 { return s.maxFlightTime }

// SpinDecay returns the spin decay rate in 1/s.
func (s *Simulator) SpinDecay() float64 { return s.spinDecay }

// ResetToInitial rewinds the bullet to the launch state and clears the
// recorded trajectory.
func (s *Simulator) ResetToInitial() {
	s.bullet = s.initial
	s.time = 0
	s.trajectory.Clear()
}

// TimeStep advances the bullet by dt using semi-implicit Euler: the
// velocity is updated from drag and gravity first, then the position is
// advanced with the updated velocity. It returns false once the bullet
// is no longer in flight.
func (s *Simulator) TimeStep(dt float64) bool {
	if !s.bullet.InFlight() || dt <= 0 {
		return false
	}

	vel := s.bullet.Velocity()
	rel := vel
	if s.wind != nil {
		rel = r3.Sub(vel, s.wind.Sample(s.bullet.Position()))
	}

	accel := r3.Vec{Y: -physics.Gravity}
	relSpeed := r3.Norm(rel)
	if relSpeed > 0 {
		mach := relSpeed / s.atmosphere.SpeedOfSound()
		cd := DragCoefficient(s.bullet.DragFunction(), mach)
		rho := s.atmosphere.AirDensity()
		decel := cd * rho * relSpeed * relSpeed /
			(2 * s.bullet.SectionalDensity() * s.bullet.BC())
		accel = r3.Sub(accel, r3.Scale(decel/relSpeed, rel))
	}

	vel = r3.Add(vel, r3.Scale(dt, accel))
	pos := r3.Add(s.bullet.Position(), r3.Scale(dt, vel))

	spin := s.bullet.SpinRate()
	if s.spinDecay > 0 {
		spin *= math.Exp(-s.spinDecay * dt)
	}

	s.bullet = s.bullet.WithState(pos, vel, spin)
	s.time += dt

	if s.time >= s.maxFlightTime || r3.Norm(vel) < minSimSpeed || vel.Z >= 0 {
		s.bullet.inFlight = false
		return false
	}
	return true
}

// Simulate integrates a full flight from the launch state until the
// bullet passes maxDistance downrange, slows to a stop, or exceeds the
// flight time bound. Each step is recorded into the trajectory.
func (s *Simulator) Simulate(maxDistance, dt float64) *Trajectory {
	s.ResetToInitial()
	s.bullet.inFlight = true
	s.record()
	for s.bullet.InFlight() {
		more := s.TimeStep(dt)
		s.record()
		if !more || -s.bullet.Position().Z >= maxDistance {
			break
		}
	}
	return &s.trajectory
}

// SimulateWind runs Simulate with the given wind field installed for the
// duration of the flight.
func (s *Simulator) SimulateWind(maxDistance, dt float64, w WindField) *Trajectory {
	prev := s.wind
	s.wind = w
	traj := s.Simulate(maxDistance, dt)
	s.wind = prev
	return traj
}

func (s *Simulator) record() {
	s.trajectory.Append(Point{
		Time:     s.time,
		Position: s.bullet.Position(),
		Velocity: s.bullet.Velocity(),
	})
}

// ComputeZero searches for the launch elevation and azimuth, in radians,
// that put the bullet on the target point at its downrange distance. The
// search fires trial shots and applies damped angular corrections until
// the miss at the target plane is under tolerance, or maxIterations
// trials have been spent.
func (s *Simulator) ComputeZero(muzzleVelocity float64, target r3.Vec, dt float64, maxIterations int, tolerance, spinRate float64) (elevation, azimuth float64, err error) {
	dist := -target.Z
	if dist <= 0 {
		return 0, 0, fmt.Errorf("ballistics: zero target must be downrange, got %.3f m", dist)
	}
	if muzzleVelocity <= 0 {
		return 0, 0, fmt.Errorf("ballistics: muzzle velocity must be positive, got %.3f", muzzleVelocity)
	}

	spec := s.initial
	defer func() {
		s.initial = spec
		s.ResetToInitial()
	}()

	for i := 0; i < maxIterations; i++ {
		vel := LaunchVelocity(muzzleVelocity, elevation, azimuth)
		s.initial = spec.WithState(r3.Vec{}, vel, spinRate)
		s.Simulate(dist*1.5, dt)

		p, ok := s.trajectory.AtDistance(dist)
		if !ok {
			return 0, 0, fmt.Errorf("ballistics: bullet cannot reach %.1f m at %.1f m/s: %w",
				dist, muzzleVelocity, ErrZeroingDidNotConverge)
		}

		missX := p.Position.X - target.X
		missY := p.Position.Y - target.Y
		if math.Hypot(missX, missY) < tolerance {
			return elevation, azimuth, nil
		}

		elevation -= math.Atan2(missY, dist) * 0.5
		azimuth -= math.Atan2(missX, dist) * 0.5
	}
	return 0, 0, ErrZeroingDidNotConverge
}

// LaunchVelocity converts a muzzle speed and barrel angles into a
// world-frame velocity vector. Zero angles point straight downrange.
func LaunchVelocity(speed, elevation, azimuth float64) r3.Vec {
	cosP := math.Cos(elevation)
	return r3.Vec{
		X: speed * cosP * math.Sin(azimuth),
		Y: speed * math.Sin(elevation),
		Z: -speed * cosP * math.Cos(azimuth),
	}
}
