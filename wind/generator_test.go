package wind

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func testComponents() []Component {
	return []Component{
		{Strength: 3.0, DownrangeScale: 9000, CrossrangeScale: 9000, TemporalScale: 900, Exponent: 0.5},
		{Strength: 5.0, DownrangeScale: 900, CrossrangeScale: 900, TemporalScale: 180, Exponent: 0.5, SigmoidThreshold: 0.5},
	}
}

func TestSampleIsIdempotent(t *testing.T) {
	g := NewGenerator(42, testComponents())
	g.AdvanceTime(0.5)

	pos := r3.Vec{X: 1.5, Y: 1.0, Z: -350}
	first := g.Sample(pos)
	for i := 0; i < 5; i++ {
		if got := g.Sample(pos); got != first {
			t.Fatalf("repeated Sample() = %+v, want %+v", got, first)
		}
	}
}

func TestSameSeedSameField(t *testing.T) {
	a := NewGenerator(7, testComponents())
	b := NewGenerator(7, testComponents())
	for i := 0; i < 20; i++ {
		a.AdvanceTime(0.1)
		b.AdvanceTime(0.1)
	}

	pos := r3.Vec{X: -2, Y: 1.2, Z: -600}
	if va, vb := a.Sample(pos), b.Sample(pos); va != vb {
		t.Errorf("same seed diverged: %+v vs %+v", va, vb)
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := NewGenerator(1, testComponents())
	b := NewGenerator(2, testComponents())
	pos := r3.Vec{X: 0, Y: 1.0, Z: -400}
	if va, vb := a.Sample(pos), b.Sample(pos); va == vb {
		t.Errorf("different seeds produced identical wind %+v", va)
	}
}

func TestWindIsHorizontal(t *testing.T) {
	g := NewGenerator(3, testComponents())
	for _, z := range []float64{0, -200, -500, -900} {
		v := g.Sample(r3.Vec{Y: 1.5, Z: z})
		if v.Y != 0 {
			t.Errorf("wind at z=%v has vertical component %v", z, v.Y)
		}
	}
}

func TestComponentMagnitudeBound(t *testing.T) {
	g := NewGenerator(11, testComponents())
	for i := 0; i < g.NumComponents(); i++ {
		comp, err := g.Component(i)
		if err != nil {
			t.Fatal(err)
		}
		limit := 2 * comp.Strength
		for z := 0.0; z >= -1000; z -= 25 {
			v, err := g.SampleComponent(i, r3.Vec{Y: 1.0, Z: z})
			if err != nil {
				t.Fatal(err)
			}
			if speed := r3.Norm(v); speed > limit+1e-9 {
				t.Errorf("component %d speed %.3f exceeds cap %.3f at z=%v", i, speed, limit, z)
			}
		}
	}
}

func TestSampleComponentIndexErrors(t *testing.T) {
	g := NewGenerator(5, testComponents())
	for _, idx := range []int{-1, 2, 99} {
		if _, err := g.SampleComponent(idx, r3.Vec{}); !errors.Is(err, ErrComponentIndex) {
			t.Errorf("SampleComponent(%d) error = %v, want ErrComponentIndex", idx, err)
		}
		if _, err := g.Component(idx); !errors.Is(err, ErrComponentIndex) {
			t.Errorf("Component(%d) error = %v, want ErrComponentIndex", idx, err)
		}
		if _, err := g.ComponentRMS(idx); !errors.Is(err, ErrComponentIndex) {
			t.Errorf("ComponentRMS(%d) error = %v, want ErrComponentIndex", idx, err)
		}
	}
}

func TestComponentsSumToField(t *testing.T) {
	g := NewGenerator(9, testComponents())
	pos := r3.Vec{X: 3, Y: 1.0, Z: -520}

	var sum r3.Vec
	for i := 0; i < g.NumComponents(); i++ {
		v, err := g.SampleComponent(i, pos)
		if err != nil {
			t.Fatal(err)
		}
		sum = r3.Add(sum, v)
	}
	total := g.Sample(pos)
	if math.Abs(sum.X-total.X) > 1e-12 || math.Abs(sum.Z-total.Z) > 1e-12 {
		t.Errorf("component sum %+v != composite %+v", sum, total)
	}
}

func TestAdvanceTimeMovesClockAndPattern(t *testing.T) {
	g := NewGenerator(21, testComponents())
	g.SetAdvectionGain(5.0)

	for i := 0; i < 100; i++ {
		g.AdvanceTime(0.1)
	}
	if got := g.CurrentTime(); math.Abs(got-10.0) > 1e-9 {
		t.Errorf("CurrentTime() = %v, want 10.0", got)
	}
	if g.AdvectionOffset() == (r3.Vec{}) {
		t.Error("advection offset never moved")
	}

	// Oversized steps clamp to one second.
	before := g.CurrentTime()
	g.AdvanceTime(30)
	if got := g.CurrentTime() - before; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("clamped step advanced %v, want 1.0", got)
	}
	g.AdvanceTime(-5)
	if g.CurrentTime() < before+1.0-1e-9 {
		t.Error("negative step moved the clock backward")
	}
}

func TestRMSInitialized(t *testing.T) {
	g := NewGenerator(13, testComponents())
	for i := 0; i < g.NumComponents(); i++ {
		rms, err := g.ComponentRMS(i)
		if err != nil {
			t.Fatal(err)
		}
		if rms <= 0 {
			t.Errorf("component %d RMS = %v, want positive", i, rms)
		}
	}
}

func TestAdvectionSettersClamp(t *testing.T) {
	g := NewGenerator(1, nil)
	g.SetAdvectionGain(-3)
	if g.AdvectionGain() != 0 {
		t.Errorf("negative gain not clamped: %v", g.AdvectionGain())
	}
	g.SetAdvectionAlpha(2)
	g.SetAdvectionGain(5)
	g.AdvanceTime(0.5)
	if g.AdvectionVelocity() != (r3.Vec{}) {
		t.Error("generator with no components should not advect")
	}
}

func TestFromPreset(t *testing.T) {
	for _, name := range []string{"dead", "Calm", "MODERATE", "strong", "Extra Strong", "extra-strong"} {
		g, err := FromPreset(name, 99)
		if err != nil {
			t.Errorf("FromPreset(%q) error: %v", name, err)
			continue
		}
		if g.NumComponents() != 2 {
			t.Errorf("FromPreset(%q) components = %d, want 2", name, g.NumComponents())
		}
		if g.AdvectionGain() != presetAdvectionGain {
			t.Errorf("FromPreset(%q) gain = %v, want %v", name, g.AdvectionGain(), presetAdvectionGain)
		}
	}

	if _, err := FromPreset("hurricane", 1); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("FromPreset(hurricane) error = %v, want ErrUnknownPreset", err)
	}
	if HasPreset("typhoon") {
		t.Error("HasPreset(typhoon) = true")
	}
	if len(PresetNames()) != 5 {
		t.Errorf("PresetNames() = %v, want 5 names", PresetNames())
	}
}
