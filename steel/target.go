// Package steel models a hanging steel plate as a rigid body. The plate
// swings on tension-only chains, takes momentum from bullet strikes, and
// reports when it has settled back to rest.
package steel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rangeday/steelrange/ballistics"
	"github.com/rangeday/steelrange/geom"
	"github.com/rangeday/steelrange/physics"
)

// Shape selects the plate outline.
type Shape uint8

const (
	Rectangle Shape = iota
	Ellipse
)

func (s Shape) String() string {
	if s == Ellipse {
		return "ellipse"
	}
	return "rectangle"
}

// ParseShape recognizes "rectangle" and "ellipse" (or "oval").
func ParseShape(s string) (Shape, error) {
	switch s {
	case "rectangle", "rect":
		return Rectangle, nil
	case "ellipse", "oval":
		return Ellipse, nil
	}
	return Rectangle, fmt.Errorf("steel: unknown shape %q", s)
}

const (
	steelDensity = 7850.0 // kg/m^3

	defaultSpringConstant = 10000.0 // N/m
	chainDamping          = 200.0   // N*s/m
	minMass               = 2.0     // kg

	// Half the velocity remains after one second.
	linearDamping  = 0.5
	angularDamping = 0.5

	settleLinearThreshold  = 0.2 // m/s
	settleAngularThreshold = 0.2 // rad/s
	settleDuration         = 1.0 // s

	maxSubstep = 0.001 // s
)

// ChainAnchor links a point on the plate to a fixed point in the world.
// The chain is slack below RestLength and pulls with a linear spring
// beyond it.
type ChainAnchor struct {
	LocalAttachment r3.Vec
	WorldFixed      r3.Vec
	RestLength      float64
	Spring          float64
}

// Impact records a strike on the plate in the plate's local frame, so
// the mark stays with the plate as it swings.
type Impact struct {
	LocalPosition r3.Vec
	Diameter      float64
	Time          float64
}

// SegmentHit describes where a segment crossed the plate's mid-plane.
type SegmentHit struct {
	Point    r3.Vec
	Normal   r3.Vec
	Distance float64
}

// Target is a steel plate rigid body. The plate lies in the local XY
// plane with its face normal along local +Z, which points uprange toward
// the shooter for a freshly placed target.
type Target struct {
	shape     Shape
	width     float64
	height    float64
	thickness float64

	pose       geom.Pose
	velocity   r3.Vec
	angularVel r3.Vec

	mass    float64
	inertia r3.Vec

	linearDamping  float64
	angularDamping float64

	anchors []ChainAnchor
	impacts []Impact

	moving      bool
	settleTimer float64
}

// NewTarget builds a plate at the origin facing uprange.
func NewTarget(shape Shape, width, height, thickness float64) (*Target, error) {
	return NewTargetAt(shape, width, height, thickness, r3.Vec{}, r3.Vec{Z: 1})
}

// NewTargetAt builds a plate at a world position with its face turned
// toward the given normal.
func NewTargetAt(shape Shape, width, height, thickness float64, position, normal r3.Vec) (*Target, error) {
	switch {
	case width <= 0:
		return nil, fmt.Errorf("steel: width must be positive, got %v", width)
	case height <= 0:
		return nil, fmt.Errorf("steel: height must be positive, got %v", height)
	case thickness <= 0:
		return nil, fmt.Errorf("steel: thickness must be positive, got %v", thickness)
	case r3.Norm(normal) == 0:
		return nil, fmt.Errorf("steel: facing normal must be nonzero")
	}

	t := &Target{
		shape:          shape,
		width:          width,
		height:         height,
		thickness:      thickness,
		linearDamping:  linearDamping,
		angularDamping: angularDamping,
		moving:         true,
		pose: geom.Pose{
			Pos: position,
			Rot: geom.RotationBetween(r3.Vec{Z: 1}, normal),
		},
	}
	t.computeMassAndInertia()
	return t, nil
}

func (t *Target) computeMassAndInertia() {
	var area float64
	if t.shape == Ellipse {
		area = math.Pi * (t.width / 2) * (t.height / 2)
	} else {
		area = t.width * t.height
	}

	geometric := area * t.thickness * steelDensity
	t.mass = math.Max(geometric, minMass)

	// Thin-plate inertia about the local axes, scaled if the mass floor
	// kicked in.
	ratio := 1.0
	if geometric > 0 {
		ratio = t.mass / geometric
	}
	if t.shape == Ellipse {
		a, b := t.width/2, t.height/2
		t.inertia = r3.Scale(0.25*geometric*ratio, r3.Vec{X: b * b, Y: a * a, Z: a*a + b*b})
	} else {
		w2, h2 := t.width*t.width, t.height*t.height
		t.inertia = r3.Scale(geometric*ratio/12, r3.Vec{X: h2, Y: w2, Z: w2 + h2})
	}
}

// AddChainAnchor hangs the plate from a fixed world point with the
// default spring constant. The rest length is the current distance
// between the attachment and the fixed point.
func (t *Target) AddChainAnchor(localAttachment, worldFixed r3.Vec) {
	t.AddChainAnchorSpring(localAttachment, worldFixed, defaultSpringConstant)
}

// AddChainAnchorSpring is AddChainAnchor with a caller-chosen spring
// constant.
func (t *Target) AddChainAnchorSpring(localAttachment, worldFixed r3.Vec, spring float64) {
	attachment := t.pose.ToWorld(localAttachment)
	t.anchors = append(t.anchors, ChainAnchor{
		LocalAttachment: localAttachment,
		WorldFixed:      worldFixed,
		RestLength:      r3.Norm(r3.Sub(worldFixed, attachment)),
		Spring:          spring,
	})
}

// SetDamping overrides the per-second velocity retention factors.
func (t *Target) SetDamping(linear, angular float64) {
	t.linearDamping = linear
	t.angularDamping = angular
}

// Translate moves the plate and its motion state without touching the
// chains, for initial placement.
func (t *Target) Translate(offset r3.Vec) {
	t.pose.Pos = r3.Add(t.pose.Pos, offset)
}

// Normal returns the plate's face normal in world space.
func (t *Target) Normal() r3.Vec {
	return t.pose.DirToWorld(r3.Vec{Z: 1})
}

// TransferRatio maps the angle between an impact direction and the plate
// normal to the fraction of bullet momentum the plate absorbs. Square
// hits transfer everything; grazing hits keep a 10% floor.
func TransferRatio(angleToNormal float64) float64 {
	c := math.Cos(angleToNormal)
	return math.Max(0.1, c*c)
}

// Hit applies a bullet strike at the bullet's current position and
// records the impact mark.
func (t *Target) Hit(b ballistics.Bullet) {
	t.strike(b.Position(), b.Velocity(), b.Mass(), b.Diameter(), 0)
}

// HitTrajectory intersects a flight path with the plate and, on a hit,
// applies the strike using the interpolated state at the impact point.
// The returned point is the trajectory sample at the impact distance.
func (t *Target) HitTrajectory(spec ballistics.Bullet, traj *ballistics.Trajectory) (ballistics.Point, bool) {
	p, ok := t.IntersectTrajectory(traj, spec.Diameter()/2)
	if !ok {
		return ballistics.Point{}, false
	}
	t.strike(p.Position, p.Velocity, spec.Mass(), spec.Diameter(), p.Time)
	return p, true
}

func (t *Target) strike(point, velocity r3.Vec, mass, diameter, time float64) {
	speed := r3.Norm(velocity)
	if speed == 0 {
		return
	}

	cosAngle := r3.Dot(r3.Scale(1/speed, velocity), t.Normal())
	angle := math.Acos(math.Min(1, math.Abs(cosAngle)))
	impulse := r3.Scale(mass*TransferRatio(angle), velocity)

	t.moving = true
	t.settleTimer = 0
	t.applyImpulse(impulse, point)

	t.impacts = append(t.impacts, Impact{
		LocalPosition: t.pose.ToLocal(point),
		Diameter:      diameter,
		Time:          time,
	})
}

// applyImpulse adds linear momentum at the center of mass and angular
// momentum about it. The torque is resolved in the local frame, where
// the inertia tensor is diagonal, then rotated back.
func (t *Target) applyImpulse(impulse, worldPoint r3.Vec) {
	t.velocity = r3.Add(t.velocity, r3.Scale(1/t.mass, impulse))

	rLocal := t.pose.DirToLocal(r3.Sub(worldPoint, t.pose.Pos))
	fLocal := t.pose.DirToLocal(impulse)
	torque := r3.Cross(rLocal, fLocal)
	angAccel := r3.Vec{
		X: torque.X / t.inertia.X,
		Y: torque.Y / t.inertia.Y,
		Z: torque.Z / t.inertia.Z,
	}
	t.angularVel = r3.Add(t.angularVel, t.pose.DirToWorld(angAccel))
}

func (t *Target) applyForce(force, worldPoint r3.Vec, dt float64) {
	t.applyImpulse(r3.Scale(dt, force), worldPoint)
}

// IntersectSegment tests a world-space segment against the plate's
// mid-plane. The plate outline is expanded by bulletRadius, so a bullet
// whose center passes just outside the edge still clips it.
func (t *Target) IntersectSegment(start, end r3.Vec, bulletRadius float64) (SegmentHit, bool) {
	const eps = 1e-9

	startLocal := t.pose.ToLocal(start)
	endLocal := t.pose.ToLocal(end)
	dir := r3.Sub(endLocal, startLocal)

	if math.Abs(dir.Z) < eps {
		return SegmentHit{}, false
	}
	s := -startLocal.Z / dir.Z
	if s < 0 || s > 1 {
		return SegmentHit{}, false
	}

	hitLocal := r3.Add(startLocal, r3.Scale(s, dir))
	halfW := t.width/2 + bulletRadius
	halfH := t.height/2 + bulletRadius

	var inside bool
	if t.shape == Ellipse {
		nx := hitLocal.X / halfW
		ny := hitLocal.Y / halfH
		inside = nx*nx+ny*ny <= 1
	} else {
		inside = math.Abs(hitLocal.X) <= halfW && math.Abs(hitLocal.Y) <= halfH
	}
	if !inside {
		return SegmentHit{}, false
	}

	return SegmentHit{
		Point:    t.pose.ToWorld(hitLocal),
		Normal:   t.Normal(),
		Distance: s * r3.Norm(r3.Sub(end, start)),
	}, true
}

// IntersectTrajectory narrows a flight path to the segment spanning the
// plate's downrange extent, then runs the precise segment test. On a hit
// it returns the trajectory state at the impact distance.
func (t *Target) IntersectTrajectory(traj *ballistics.Trajectory, bulletRadius float64) (ballistics.Point, bool) {
	if traj.IsEmpty() {
		return ballistics.Point{}, false
	}

	halfW, halfH := t.width/2, t.height/2
	corners := []r3.Vec{
		{X: -halfW, Y: -halfH}, {X: halfW, Y: -halfH},
		{X: halfW, Y: halfH}, {X: -halfW, Y: halfH},
	}
	minDist := math.Inf(1)
	maxDist := math.Inf(-1)
	for _, c := range corners {
		d := -t.pose.ToWorld(c).Z
		minDist = math.Min(minDist, d)
		maxDist = math.Max(maxDist, d)
	}
	// A square-on plate has no corner extent; pad by the thickness so the
	// window is never degenerate.
	pad := t.thickness + bulletRadius
	minDist -= pad
	maxDist += pad

	start, ok := traj.AtDistance(minDist)
	if !ok {
		return ballistics.Point{}, false
	}
	end, ok := traj.AtDistance(maxDist)
	if !ok {
		return ballistics.Point{}, false
	}

	hit, ok := t.IntersectSegment(start.Position, end.Position, bulletRadius)
	if !ok {
		return ballistics.Point{}, false
	}
	return traj.AtDistance(-hit.Point.Z)
}

// TimeStep advances the plate by dt, split into substeps of at most one
// millisecond. Each substep applies gravity, chain tension, damping, and
// semi-implicit Euler integration of position and orientation.
func (t *Target) TimeStep(dt float64) {
	if dt <= 0 {
		return
	}
	dt = math.Min(dt, 1.0)

	n := int(math.Ceil(dt / maxSubstep))
	sub := dt / float64(n)

	linFactor := math.Pow(t.linearDamping, sub)
	angFactor := math.Pow(t.angularDamping, sub)

	for i := 0; i < n; i++ {
		t.applyForce(r3.Vec{Y: -physics.Gravity * t.mass}, t.pose.Pos, sub)
		t.applyChainForces(sub)

		t.velocity = r3.Scale(linFactor, t.velocity)
		t.angularVel = r3.Scale(angFactor, t.angularVel)

		t.pose.Pos = r3.Add(t.pose.Pos, r3.Scale(sub, t.velocity))

		if speed := r3.Norm(t.angularVel); speed > 1e-9 {
			rot := r3.NewRotation(speed*sub, t.angularVel)
			t.pose.Rot = geom.Compose(rot, t.pose.Rot)
			t.pose.Rot = geom.Normalize(t.pose.Rot)
		}
	}

	// Settle only after a sustained quiet interval, so the zero-velocity
	// apex of a swing does not count as rest.
	if r3.Norm(t.velocity) < settleLinearThreshold && r3.Norm(t.angularVel) < settleAngularThreshold {
		t.settleTimer += dt
		if t.settleTimer >= settleDuration {
			t.moving = false
		}
	} else {
		t.settleTimer = 0
		t.moving = true
	}
}

func (t *Target) applyChainForces(dt float64) {
	for _, a := range t.anchors {
		attachment := t.pose.ToWorld(a.LocalAttachment)
		span := r3.Sub(attachment, a.WorldFixed)
		distance := r3.Norm(span)
		if distance < 1e-9 {
			continue
		}

		extension := distance - a.RestLength
		if extension <= 0 {
			continue
		}

		// Unit vector pointing away from the fixed point.
		away := r3.Scale(1/distance, span)
		force := r3.Scale(-a.Spring*extension, away)

		// Damp only motion that extends the chain further; a slackening
		// chain offers no resistance.
		r := r3.Sub(attachment, t.pose.Pos)
		pointVel := r3.Add(t.velocity, r3.Cross(t.angularVel, r))
		if rate := r3.Dot(pointVel, away); rate > 0 {
			force = r3.Add(force, r3.Scale(-chainDamping*rate, away))
		}

		t.applyForce(force, attachment, dt)
	}
}

// Shape returns the plate outline.
func (t *Target) Shape() Shape { return t.shape }

// Width returns the plate width in meters.
func (t *Target) Width() float64 { return t.width }

// Height returns the plate height in meters.
func (t *Target) Height() float64 { return t.height }

// Thickness returns the plate thickness in meters.
func (t *Target) Thickness() float64 { return t.thickness }

// Mass returns the plate mass, floored for numerical stability.
func (t *Target) Mass() float64 { return t.mass }

// Inertia returns the diagonal of the local-frame inertia tensor.
func (t *Target) Inertia() r3.Vec { return t.inertia }

// Position returns the center of mass in world space.
func (t *Target) Position() r3.Vec { return t.pose.Pos }

// Pose returns the plate's world pose.
func (t *Target) Pose() geom.Pose { return t.pose }

// Velocity returns the center-of-mass velocity.
func (t *Target) Velocity() r3.Vec { return t.velocity }

// AngularVelocity returns the world-frame angular velocity.
func (t *Target) AngularVelocity() r3.Vec { return t.angularVel }

// IsMoving reports whether the plate is still swinging.
func (t *Target) IsMoving() bool { return t.moving }

// IsSettled reports whether the plate has come to sustained rest.
func (t *Target) IsSettled() bool { return !t.moving }

// Anchors returns the registered chain anchors.
func (t *Target) Anchors() []ChainAnchor { return t.anchors }

// Impacts returns the recorded strikes in plate-local coordinates.
func (t *Target) Impacts() []Impact { return t.impacts }
