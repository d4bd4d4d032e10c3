// Package geom provides the shared rigid-transform math used by rigid
// bodies and colliders: a pose (translation + unit-quaternion rotation)
// with local/world conversions for points and directions.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a rigid transform: rotation about the origin followed by a
// translation. The zero value is not valid; use Identity or NewPose.
type Pose struct {
	Pos r3.Vec
	Rot r3.Rotation
}

// Identity returns the identity pose at the origin.
func Identity() Pose {
	return Pose{Rot: IdentityRotation()}
}

// NewPose returns a pose with the given position and rotation.
func NewPose(pos r3.Vec, rot r3.Rotation) Pose {
	return Pose{Pos: pos, Rot: rot}
}

// ToWorld transforms a point from local to world coordinates.
func (p Pose) ToWorld(local r3.Vec) r3.Vec {
	return r3.Add(p.Rot.Rotate(local), p.Pos)
}

// ToLocal transforms a point from world to local coordinates.
func (p Pose) ToLocal(world r3.Vec) r3.Vec {
	return Conj(p.Rot).Rotate(r3.Sub(world, p.Pos))
}

// DirToWorld rotates a direction from local to world coordinates,
// ignoring translation.
func (p Pose) DirToWorld(local r3.Vec) r3.Vec {
	return p.Rot.Rotate(local)
}

// DirToLocal rotates a direction from world to local coordinates,
// ignoring translation.
func (p Pose) DirToLocal(world r3.Vec) r3.Vec {
	return Conj(p.Rot).Rotate(world)
}

// IdentityRotation returns the identity rotation.
func IdentityRotation() r3.Rotation {
	return r3.Rotation(quat.Number{Real: 1})
}

// Conj returns the conjugate rotation. For unit rotations this is the
// inverse.
func Conj(r r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Conj(quat.Number(r)))
}

// Compose returns the rotation equivalent to applying b first, then a.
func Compose(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

// Normalize rescales r to unit magnitude. Integration drift accumulates
// in the quaternion norm, so rigid bodies renormalize after each step.
func Normalize(r r3.Rotation) r3.Rotation {
	q := quat.Number(r)
	n := quat.Abs(q)
	if n == 0 {
		return IdentityRotation()
	}
	return r3.Rotation(quat.Scale(1/n, q))
}

// RotationBetween returns the rotation taking unit direction from onto
// unit direction to. Antiparallel inputs rotate half a turn about an
// arbitrary perpendicular axis.
func RotationBetween(from, to r3.Vec) r3.Rotation {
	f := r3.Unit(from)
	t := r3.Unit(to)
	d := r3.Dot(f, t)

	switch {
	case d > 1-1e-8:
		return IdentityRotation()
	case d < -1+1e-8:
		axis := r3.Cross(f, r3.Vec{X: 1})
		if r3.Norm(axis) < 1e-8 {
			axis = r3.Cross(f, r3.Vec{Y: 1})
		}
		return r3.NewRotation(math.Pi, r3.Unit(axis))
	default:
		axis := r3.Unit(r3.Cross(f, t))
		return r3.NewRotation(math.Acos(d), axis)
	}
}

// Lerp linearly interpolates between a and b at parameter t in [0, 1].
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}
