// Package wind generates a procedural wind field over a shooting range.
// The field sums curl-noise components with separate spatial and temporal
// scales, so it has gust and swirl structure without solving any fluid
// equations. Sampling is deterministic for a given seed and clock value.
package wind

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// ErrComponentIndex is returned when a component lookup is out of range.
var ErrComponentIndex = errors.New("wind: component index out of range")

// Component parameterizes one gust layer of the field. Strength is the
// target RMS wind speed in m/s, the scales are in meters and seconds, and
// larger scales vary more slowly. Exponent reshapes the normalized
// magnitude (below 1 is gustier, above 1 steadier). SigmoidThreshold, as
// a fraction of Strength, gates weak gusts off entirely; zero disables
// the gate.
type Component struct {
	Strength         float64
	DownrangeScale   float64
	CrossrangeScale  float64
	TemporalScale    float64
	Exponent         float64
	SigmoidThreshold float64
}

type layer struct {
	Component
	noise opensimplex.Noise
	rms   float64
}

// Generator produces wind vectors for world positions at its current
// clock value. It is not safe for concurrent use with AdvanceTime.
type Generator struct {
	layers []layer
	rng    *rand.Rand
	time   float64

	advectionGain  float64
	advectionAlpha float64
	offset         r3.Vec
	velocity       r3.Vec

	cornerMin r3.Vec
	cornerMax r3.Vec
}

const (
	curlEpsilon = 0.01
	rmsSamples  = 1000
	rmsFloor    = 1e-6
	gateSlope   = 4.0

	advectSamples = 10
	defaultAlpha  = 0.01
)

// NewGenerator builds a field from the given components. The seed fixes
// both the noise layers and the advection sampling, so two generators
// with the same seed and components produce identical fields.
func NewGenerator(seed int64, comps []Component) *Generator {
	g := &Generator{
		rng:            rand.New(rand.NewSource(seed)),
		advectionGain:  1.0,
		advectionAlpha: defaultAlpha,
		cornerMin:      r3.Vec{X: -100, Y: 0, Z: -1000},
		cornerMax:      r3.Vec{X: 100, Y: 100, Z: 0},
	}
	for i, c := range comps {
		g.layers = append(g.layers, layer{
			Component: c,
			noise:     opensimplex.New(seed + int64(i)),
		})
	}
	g.initRMS()
	return g
}

// curl evaluates one layer's raw curl vector in range coordinates. The
// potential is a simplex field sampled in scaled space; central
// differences there convert to world-space derivatives by the chain
// rule. Returns the downrange and crossrange velocity components.
func (g *Generator) curl(l *layer, down, cross, time float64) (float64, float64) {
	sd := down / l.DownrangeScale
	sc := cross / l.CrossrangeScale
	st := time / l.TemporalScale

	dPsiDown := (l.noise.Eval3(sd+curlEpsilon, sc, st) - l.noise.Eval3(sd-curlEpsilon, sc, st)) /
		(2 * curlEpsilon) / l.DownrangeScale
	dPsiCross := (l.noise.Eval3(sd, sc+curlEpsilon, st) - l.noise.Eval3(sd, sc-curlEpsilon, st)) /
		(2 * curlEpsilon) / l.CrossrangeScale

	return dPsiCross, -dPsiDown
}

func (g *Generator) initRMS() {
	squares := make([]float64, rmsSamples)
	for i := range g.layers {
		l := &g.layers[i]
		for j := range squares {
			down := (g.rng.Float64()*2 - 1) * 1000 * l.DownrangeScale
			cross := (g.rng.Float64()*2 - 1) * 1000 * l.CrossrangeScale
			t := (g.rng.Float64()*2 - 1) * 1000 * l.TemporalScale
			d, c := g.curl(l, down, cross, t)
			squares[j] = d*d + c*c
		}
		l.rms = math.Sqrt(stat.Mean(squares, nil))
	}
}

// sampleLayer shapes one layer's curl vector into a world-frame wind
// velocity at the generator's current time.
func (g *Generator) sampleLayer(l *layer, pos r3.Vec) r3.Vec {
	// Range coordinates relative to the advected pattern: downrange grows
	// toward -Z, crossrange is +X.
	down := g.offset.Z - pos.Z
	cross := pos.X - g.offset.X

	d, c := g.curl(l, down, cross, g.time)
	magnitude := math.Hypot(d, c)
	angle := math.Atan2(c, d)

	normalized := magnitude / (l.rms + rmsFloor)
	if l.Exponent != 1.0 {
		normalized = math.Pow(normalized, l.Exponent)
	}
	final := normalized * l.Strength

	if l.SigmoidThreshold > 0 {
		// The magnitude gates itself through a logistic centered on the
		// threshold, so weak gusts die off instead of lingering.
		threshold := l.SigmoidThreshold * l.Strength
		final = final / (1 + math.Exp(-gateSlope*(final-threshold)))
	}

	final = math.Min(final, 2*l.Strength)

	down = final * math.Cos(angle)
	cross = final * math.Sin(angle)
	return r3.Vec{X: cross, Z: -down}
}

// Sample returns the composite wind velocity at a world position. The
// field is continuous, so positions outside the range bounds are valid.
// Sampling never advances the clock; repeated calls at the same time
// return the same vector.
func (g *Generator) Sample(pos r3.Vec) r3.Vec {
	var v r3.Vec
	for i := range g.layers {
		v = r3.Add(v, g.sampleLayer(&g.layers[i], pos))
	}
	return v
}

// SampleComponent returns a single component's contribution in isolation,
// for diagnostics and visualization.
func (g *Generator) SampleComponent(index int, pos r3.Vec) (r3.Vec, error) {
	if index < 0 || index >= len(g.layers) {
		return r3.Vec{}, fmt.Errorf("%w: %d of %d", ErrComponentIndex, index, len(g.layers))
	}
	return g.sampleLayer(&g.layers[index], pos), nil
}

// AdvanceTime moves the field's clock forward by dt seconds and updates
// the advection state. The step is clamped to [0, 1] seconds. The mean
// wind over random points in the sample box feeds an exponential moving
// average that becomes the pattern's drift velocity.
func (g *Generator) AdvanceTime(dt float64) {
	dt = math.Max(0, math.Min(dt, 1))
	g.time += dt

	if len(g.layers) == 0 {
		return
	}

	var avg r3.Vec
	for i := 0; i < advectSamples; i++ {
		p := r3.Vec{
			X: g.cornerMin.X + g.rng.Float64()*(g.cornerMax.X-g.cornerMin.X),
			Y: g.cornerMin.Y + g.rng.Float64()*(g.cornerMax.Y-g.cornerMin.Y),
			Z: g.cornerMin.Z + g.rng.Float64()*(g.cornerMax.Z-g.cornerMin.Z),
		}
		avg = r3.Add(avg, g.Sample(p))
	}
	avg = r3.Scale(1.0/advectSamples, avg)

	g.velocity = r3.Add(r3.Scale(1-g.advectionAlpha, g.velocity),
		r3.Scale(g.advectionGain*g.advectionAlpha, avg))
	g.offset = r3.Add(g.offset, r3.Scale(dt, g.velocity))
}

// SetSampleCorners sets the box the advection update averages wind over.
func (g *Generator) SetSampleCorners(min, max r3.Vec) {
	g.cornerMin = min
	g.cornerMax = max
}

// SetAdvectionGain sets the multiplier applied to the averaged wind when
// updating the drift velocity. Negative gains are clamped to zero.
func (g *Generator) SetAdvectionGain(gain float64) {
	g.advectionGain = math.Max(0, gain)
}

// SetAdvectionAlpha sets the EMA smoothing factor, clamped to [0, 1].
func (g *Generator) SetAdvectionAlpha(alpha float64) {
	g.advectionAlpha = math.Max(0, math.Min(alpha, 1))
}

// AdvectionGain returns the drift velocity multiplier.
func (g *Generator) AdvectionGain() float64 { return g.advectionGain }

// AdvectionOffset returns the accumulated drift of the gust pattern.
func (g *Generator) AdvectionOffset() r3.Vec { return g.offset }

// AdvectionVelocity returns the smoothed drift velocity.
func (g *Generator) AdvectionVelocity() r3.Vec { return g.velocity }

// CurrentTime returns the field's clock in seconds.
func (g *Generator) CurrentTime() float64 { return g.time }

// NumComponents returns the number of gust layers.
func (g *Generator) NumComponents() int { return len(g.layers) }

// Component returns the parameters of the i-th gust layer.
func (g *Generator) Component(index int) (Component, error) {
	if index < 0 || index >= len(g.layers) {
		return Component{}, fmt.Errorf("%w: %d of %d", ErrComponentIndex, index, len(g.layers))
	}
	return g.layers[index].Component, nil
}

// ComponentRMS returns the normalization RMS measured for the i-th layer.
func (g *Generator) ComponentRMS(index int) (float64, error) {
	if index < 0 || index >= len(g.layers) {
		return 0, fmt.Errorf("%w: %d of %d", ErrComponentIndex, index, len(g.layers))
	}
	return g.layers[index].rms, nil
}
