package ballistics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/geom"
)

// Point is a single recorded sample along a bullet's flight path.
type Point struct {
	Time     float64
	Position r3.Vec
	Velocity r3.Vec
}

// Distance reports the sample's downrange distance from the origin.
func (p Point) Distance() float64 {
	return -p.Position.Z
}

// Speed reports the magnitude of the sample's velocity.
func (p Point) Speed() float64 {
	return r3.Norm(p.Velocity)
}

// KineticEnergy reports the sample's kinetic energy for a projectile of
// the given mass.
func (p Point) KineticEnergy(mass float64) float64 {
	v := p.Speed()
	return 0.5 * mass * v * v
}

func lerpPoint(a, b Point, t float64) Point {
	return Point{
		Time:     a.Time + t*(b.Time-a.Time),
		Position: geom.Lerp(a.Position, b.Position, t),
		Velocity: geom.Lerp(a.Velocity, b.Velocity, t),
	}
}

// Trajectory is an append-only sequence of flight samples ordered by
// time. Samples also advance monotonically downrange, which lets both
// time and distance lookups binary search.
type Trajectory struct {
	points []Point
}

// Append adds a sample to the end of the trajectory.
func (t *Trajectory) Append(p Point) {
	t.points = append(t.points, p)
}

// Clear discards all samples but keeps the backing storage.
func (t *Trajectory) Clear() {
	t.points = t.points[:0]
}

// IsEmpty reports whether the trajectory holds no samples.
func (t *Trajectory) IsEmpty() bool {
	return len(t.points) == 0
}

// Len reports the number of recorded samples.
func (t *Trajectory) Len() int {
	return len(t.points)
}

// Point returns the i-th recorded sample.
func (t *Trajectory) Point(i int) Point {
	return t.points[i]
}

// Points returns the recorded samples. The slice is shared with the
// trajectory and must not be mutated.
func (t *Trajectory) Points() []Point {
	return t.points
}

// AtTime returns the interpolated state at the given flight time. The
// second return is false when the time falls outside the recorded span.
func (t *Trajectory) AtTime(time float64) (Point, bool) {
	n := len(t.points)
	if n == 0 || time < t.points[0].Time || time > t.points[n-1].Time {
		return Point{}, false
	}
	i := sort.Search(n, func(i int) bool { return t.points[i].Time >= time })
	if t.points[i].Time == time {
		return t.points[i], true
	}
	a, b := t.points[i-1], t.points[i]
	f := (time - a.Time) / (b.Time - a.Time)
	return lerpPoint(a, b, f), true
}

// AtDistance returns the interpolated state at the given downrange
// distance. The second return is false when the distance falls outside
// the recorded span.
func (t *Trajectory) AtDistance(dist float64) (Point, bool) {
	n := len(t.points)
	if n == 0 || dist < t.points[0].Distance() || dist > t.points[n-1].Distance() {
		return Point{}, false
	}
	i := sort.Search(n, func(i int) bool { return t.points[i].Distance() >= dist })
	if t.points[i].Distance() == dist {
		return t.points[i], true
	}
	a, b := t.points[i-1], t.points[i]
	f := (dist - a.Distance()) / (b.Distance() - a.Distance())
	return lerpPoint(a, b, f), true
}

// TotalTime reports the flight time of the last recorded sample.
func (t *Trajectory) TotalTime() float64 {
	if len(t.points) == 0 {
		return 0
	}
	return t.points[len(t.points)-1].Time
}

// TotalDistance reports the downrange distance of the last recorded
// sample.
func (t *Trajectory) TotalDistance() float64 {
	if len(t.points) == 0 {
		return 0
	}
	return t.points[len(t.points)-1].Distance()
}

// MaxHeight reports the highest vertical position reached over the
// recorded samples.
func (t *Trajectory) MaxHeight() float64 {
	best := math.Inf(-1)
	for _, p := range t.points {
		if p.Position.Y > best {
			best = p.Position.Y
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

// ImpactVelocity reports the speed at the last recorded sample.
func (t *Trajectory) ImpactVelocity() float64 {
	if len(t.points) == 0 {
		return 0
	}
	return t.points[len(t.points)-1].Speed()
}

// ImpactAngle reports the descent angle at the last recorded sample, in
// radians below the horizontal. Positive values mean the bullet is
// falling.
func (t *Trajectory) ImpactAngle() float64 {
	if len(t.points) == 0 {
		return 0
	}
	v := t.points[len(t.points)-1].Velocity
	horiz := math.Hypot(v.X, v.Z)
	return math.Atan2(-v.Y, horiz)
}
