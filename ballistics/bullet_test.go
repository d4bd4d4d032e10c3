package ballistics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewBulletValidation(t *testing.T) {
	tests := []struct {
		name     string
		mass     float64
		diameter float64
		length   float64
		bc       float64
		wantErr  bool
	}{
		{"valid", 0.0105, 0.0078, 0.031, 2.2, false},
		{"zero mass", 0, 0.0078, 0.031, 2.2, true},
		{"negative mass", -0.01, 0.0078, 0.031, 2.2, true},
		{"zero diameter", 0.0105, 0, 0.031, 2.2, true},
		{"zero length", 0.0105, 0.0078, 0, 2.2, true},
		{"negative bc", 0.0105, 0.0078, 0.031, -1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBullet(tc.mass, tc.diameter, tc.length, tc.bc, G7)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewBullet() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseDragFunction(t *testing.T) {
	for _, s := range []string{"G1", "g1"} {
		fn, err := ParseDragFunction(s)
		if err != nil || fn != G1 {
			t.Errorf("ParseDragFunction(%q) = %v, %v, want G1", s, fn, err)
		}
	}
	if _, err := ParseDragFunction("G8"); err == nil {
		t.Error("ParseDragFunction(G8) should fail")
	}
}

func TestBulletDerivedQuantities(t *testing.T) {
	b, err := NewBullet(0.0105, 0.0078, 0.031, 2.2, G7)
	if err != nil {
		t.Fatal(err)
	}

	wantSD := 0.0105 / (0.0078 * 0.0078)
	if math.Abs(b.SectionalDensity()-wantSD) > 1e-9 {
		t.Errorf("SectionalDensity() = %.4f, want %.4f", b.SectionalDensity(), wantSD)
	}

	b = b.WithState(r3.Vec{}, r3.Vec{Z: -800}, 0)
	if math.Abs(b.Speed()-800) > 1e-9 {
		t.Errorf("Speed() = %.3f, want 800", b.Speed())
	}
	wantKE := 0.5 * 0.0105 * 800 * 800
	if math.Abs(b.KineticEnergy()-wantKE) > 1e-6 {
		t.Errorf("KineticEnergy() = %.1f, want %.1f", b.KineticEnergy(), wantKE)
	}
	if !b.InFlight() {
		t.Error("bullet with state should be in flight")
	}
}

func TestBulletAngles(t *testing.T) {
	b, _ := NewBullet(0.0105, 0.0078, 0.031, 2.2, G7)

	// Level flight straight downrange.
	level := b.WithState(r3.Vec{}, r3.Vec{Z: -100}, 0)
	if math.Abs(level.ElevationAngle()) > 1e-12 {
		t.Errorf("level ElevationAngle() = %v, want 0", level.ElevationAngle())
	}
	if math.Abs(level.AzimuthAngle()) > 1e-12 {
		t.Errorf("level AzimuthAngle() = %v, want 0", level.AzimuthAngle())
	}

	// 45 degrees up, no crossrange.
	up := b.WithState(r3.Vec{}, r3.Vec{Y: 100, Z: -100}, 0)
	if math.Abs(up.ElevationAngle()-math.Pi/4) > 1e-9 {
		t.Errorf("ElevationAngle() = %v, want pi/4", up.ElevationAngle())
	}

	// Drifting right.
	right := b.WithState(r3.Vec{}, r3.Vec{X: 100, Z: -100}, 0)
	if math.Abs(right.AzimuthAngle()-math.Pi/4) > 1e-9 {
		t.Errorf("AzimuthAngle() = %v, want pi/4", right.AzimuthAngle())
	}
}

func TestSpinRateFromTwist(t *testing.T) {
	// 1:9" twist at 800 m/s.
	pitch := 9 * 0.0254
	want := 2 * math.Pi * 800 / pitch
	got := SpinRateFromTwist(800, pitch)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("SpinRateFromTwist() = %.1f, want %.1f", got, want)
	}
	if left := SpinRateFromTwist(800, -pitch); math.Abs(left+want) > 1e-6 {
		t.Errorf("left twist SpinRateFromTwist() = %.1f, want %.1f", left, -want)
	}
}

func TestDragCoefficientTableValues(t *testing.T) {
	tests := []struct {
		fn   DragFunction
		mach float64
		want float64
	}{
		{G1, 0.0, 0.2629},
		{G1, 1.0, 0.4805},
		{G1, 5.0, 0.4988},
		{G7, 0.0, 0.1198},
		{G7, 1.0, 0.3803},
		{G7, 5.0, 0.1618},
	}
	for _, tc := range tests {
		got := DragCoefficient(tc.fn, tc.mach)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("DragCoefficient(%v, %.2f) = %.4f, want %.4f", tc.fn, tc.mach, got, tc.want)
		}
	}
}

func TestDragCoefficientInterpolatesAndClamps(t *testing.T) {
	// Midway between the Mach 2.00 and 2.05 rows of the G7 table.
	want := (0.2980 + 0.2951) / 2
	got := DragCoefficient(G7, 2.025)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("DragCoefficient(G7, 2.025) = %.5f, want %.5f", got, want)
	}

	if got := DragCoefficient(G1, 7.0); got != DragCoefficient(G1, 5.0) {
		t.Errorf("above-table lookup = %.4f, want clamp to %.4f", got, DragCoefficient(G1, 5.0))
	}
	if got := DragCoefficient(G7, -1.0); got != DragCoefficient(G7, 0.0) {
		t.Errorf("below-table lookup = %.4f, want clamp to %.4f", got, DragCoefficient(G7, 0.0))
	}
}
