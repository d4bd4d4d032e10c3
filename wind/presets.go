package wind

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPreset is returned when a preset name is not recognized.
var ErrUnknownPreset = errors.New("wind: unknown preset")

// Unit helpers for the preset tables, which are written in the units
// shooters quote conditions in.
const (
	mph    = 0.44704 // m/s
	yard   = 0.9144  // m
	minute = 60.0    // s
)

const presetAdvectionGain = 5.0

// Each preset pairs a broad steady base layer with a tighter gated gust
// layer. Strengths are target RMS speeds.
var presets = map[string][]Component{
	"dead": {
		{Strength: 0.5 * mph, DownrangeScale: 10000 * yard, CrossrangeScale: 10000 * yard, TemporalScale: 15 * minute, Exponent: 0.5},
		{Strength: 0.25 * mph, DownrangeScale: 1000 * yard, CrossrangeScale: 1000 * yard, TemporalScale: 3 * minute, Exponent: 0.5, SigmoidThreshold: 0.25 * mph},
	},
	"calm": {
		{Strength: 1.0 * mph, DownrangeScale: 10000 * yard, CrossrangeScale: 10000 * yard, TemporalScale: 15 * minute, Exponent: 0.5},
		{Strength: 0.5 * mph, DownrangeScale: 1000 * yard, CrossrangeScale: 1000 * yard, TemporalScale: 3 * minute, Exponent: 0.5, SigmoidThreshold: 0.5 * mph},
	},
	"moderate": {
		{Strength: 3.0 * mph, DownrangeScale: 10000 * yard, CrossrangeScale: 10000 * yard, TemporalScale: 15 * minute, Exponent: 0.5},
		{Strength: 6.0 * mph, DownrangeScale: 1000 * yard, CrossrangeScale: 1000 * yard, TemporalScale: 3 * minute, Exponent: 0.5, SigmoidThreshold: 3.0 * mph},
	},
	"strong": {
		{Strength: 7.0 * mph, DownrangeScale: 10000 * yard, CrossrangeScale: 10000 * yard, TemporalScale: 15 * minute, Exponent: 0.5},
		{Strength: 10.0 * mph, DownrangeScale: 1000 * yard, CrossrangeScale: 1000 * yard, TemporalScale: 3 * minute, Exponent: 0.5, SigmoidThreshold: 8.0 * mph},
	},
	"extra strong": {
		{Strength: 12.0 * mph, DownrangeScale: 10000 * yard, CrossrangeScale: 10000 * yard, TemporalScale: 15 * minute, Exponent: 0.5},
		{Strength: 15.0 * mph, DownrangeScale: 1000 * yard, CrossrangeScale: 1000 * yard, TemporalScale: 3 * minute, Exponent: 0.5, SigmoidThreshold: 10.0 * mph},
	},
}

func normalizePreset(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", " ")
}

// FromPreset builds a generator from a named condition preset. Names are
// case-insensitive; hyphens and spaces are interchangeable.
func FromPreset(name string, seed int64) (*Generator, error) {
	comps, ok := presets[normalizePreset(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	g := NewGenerator(seed, comps)
	g.SetAdvectionGain(presetAdvectionGain)
	return g, nil
}

// HasPreset reports whether a preset name is recognized.
func HasPreset(name string) bool {
	_, ok := presets[normalizePreset(name)]
	return ok
}

// PresetNames returns the recognized preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
