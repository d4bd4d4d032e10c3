package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func vecClose(t *testing.T, name string, got, want r3.Vec, eps float64) {
	t.Helper()
	if math.Abs(got.X-want.X) > eps || math.Abs(got.Y-want.Y) > eps || math.Abs(got.Z-want.Z) > eps {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestPoseRoundTrip(t *testing.T) {
	rot := r3.NewRotation(math.Pi/3, r3.Unit(r3.Vec{X: 1, Y: 2, Z: -0.5}))
	p := NewPose(r3.Vec{X: 4, Y: -2, Z: 7}, rot)

	points := []r3.Vec{
		{},
		{X: 1},
		{X: -3, Y: 0.5, Z: 12},
	}
	for _, pt := range points {
		world := p.ToWorld(pt)
		back := p.ToLocal(world)
		vecClose(t, "ToLocal(ToWorld(p))", back, pt, tol)
	}
}

func TestPoseDirIgnoresTranslation(t *testing.T) {
	rot := r3.NewRotation(math.Pi/2, r3.Vec{Y: 1})
	p := NewPose(r3.Vec{X: 100, Y: 100, Z: 100}, rot)

	// +90 degrees about Y maps +X onto -Z.
	got := p.DirToWorld(r3.Vec{X: 1})
	vecClose(t, "DirToWorld(+X)", got, r3.Vec{Z: -1}, 1e-12)

	back := p.DirToLocal(got)
	vecClose(t, "DirToLocal", back, r3.Vec{X: 1}, 1e-12)
}

func TestIdentityPose(t *testing.T) {
	p := Identity()
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	vecClose(t, "identity ToWorld", p.ToWorld(v), v, 0)
	vecClose(t, "identity ToLocal", p.ToLocal(v), v, 0)
}

func TestRotationBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to r3.Vec
	}{
		{"aligned", r3.Vec{Z: 1}, r3.Vec{Z: 1}},
		{"perpendicular", r3.Vec{Z: 1}, r3.Vec{X: 1}},
		{"antiparallel", r3.Vec{Z: 1}, r3.Vec{Z: -1}},
		{"oblique", r3.Vec{Z: 1}, r3.Unit(r3.Vec{X: 0.3, Y: -0.2, Z: 0.9})},
		{"antiparallel x", r3.Vec{X: 1}, r3.Vec{X: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RotationBetween(tt.from, tt.to)
			got := r.Rotate(r3.Unit(tt.from))
			vecClose(t, "rotated from", got, r3.Unit(tt.to), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	r := r3.NewRotation(1.0, r3.Vec{X: 1})
	// Scale the quaternion away from unit norm, then renormalize.
	scaled := Compose(r, IdentityRotation())
	n := Normalize(scaled)
	v := r3.Vec{X: 0, Y: 1, Z: 0}
	vecClose(t, "normalized rotate", n.Rotate(v), r.Rotate(v), 1e-12)
}

func TestLerp(t *testing.T) {
	a := r3.Vec{X: 0, Y: 0, Z: 0}
	b := r3.Vec{X: 2, Y: -4, Z: 6}
	vecClose(t, "t=0", Lerp(a, b, 0), a, 0)
	vecClose(t, "t=1", Lerp(a, b, 1), b, 0)
	vecClose(t, "t=0.5", Lerp(a, b, 0.5), r3.Vec{X: 1, Y: -2, Z: 3}, tol)
}
