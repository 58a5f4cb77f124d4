// Package snap holds the snap policies that decide how a dragged timeline
// item aligns to neighbouring items, original times or the axis grid.
package snap

import (
	"fmt"
	"iter"
	"strings"
)

// Rule is one snap algorithm's toggle and pixel-distance threshold.
type Rule struct {
	Active   bool `toml:"active"`
	Distance int  `toml:"distance"`
}

// Algorithm names one of the five snap algorithms.
type Algorithm int

const (
	Sequence Algorithm = iota
	InnerItem
	OriginalTimeNear
	OriginalTimeLong
	GridTick
)

var algorithmNames = []string{"sequence", "inner_item", "original_time_near", "original_time_long", "grid_tick"}

// Algorithms returns all algorithms in persisted order.
func Algorithms() []Algorithm {
	return []Algorithm{Sequence, InnerItem, OriginalTimeNear, OriginalTimeLong, GridTick}
}

func (a Algorithm) String() string {
	if a >= 0 && int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm accepts the persisted name or its dashed form.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range algorithmNames {
		if n == name {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("unknown snap algorithm %q", name)
}

// Profile is the snap policy for one modifier combination. Key records the
// combination the thresholds were validated for.
type Profile struct {
	Key              Combination `toml:"key"`
	Sequence         Rule        `toml:"sequence"`
	InnerItem        Rule        `toml:"inner_item"`
	OriginalTimeNear Rule        `toml:"original_time_near"`
	OriginalTimeLong Rule        `toml:"original_time_long"`
	GridTick         Rule        `toml:"grid_tick"`
}

func rules(sequence, inner, near, long, grid Rule) Profile {
	return Profile{
		Sequence:         sequence,
		InnerItem:        inner,
		OriginalTimeNear: near,
		OriginalTimeLong: long,
		GridTick:         grid,
	}
}

func on(d int) Rule  { return Rule{Active: true, Distance: d} }
func off(d int) Rule { return Rule{Active: false, Distance: d} }

// Defaults returns the built-in profile for c. Unknown combinations get the
// None table.
//
// Unmodified drags snap moderately, Ctrl widens the distances and turns on
// grid ticks, Shift disables snapping, Ctrl+Shift behaves like no modifier.
func Defaults(c Combination) Profile {
	var p Profile
	switch c {
	case Ctrl:
		p = rules(on(20), on(20), on(20), on(30), on(7))
	case Shift:
		p = rules(off(10), off(10), off(10), off(10), off(10))
	case CtrlShift:
		p = rules(on(5), on(5), on(5), on(10), off(3))
	default:
		c = None
		p = rules(on(5), on(5), on(5), on(10), off(3))
	}
	p.Key = c
	return p
}

// Validate returns p unchanged if it was validated for c, otherwise the
// built-in defaults for c.
func Validate(p Profile, c Combination) Profile {
	if !c.Known() {
		c = None
	}
	if p.Key == c {
		return p
	}
	return Defaults(c)
}

// Rule returns a pointer to the rule for algorithm a, or nil.
func (p *Profile) Rule(a Algorithm) *Rule {
	switch a {
	case Sequence:
		return &p.Sequence
	case InnerItem:
		return &p.InnerItem
	case OriginalTimeNear:
		return &p.OriginalTimeNear
	case OriginalTimeLong:
		return &p.OriginalTimeLong
	case GridTick:
		return &p.GridTick
	}
	return nil
}

// Rules yields every algorithm with its rule in persisted order.
func (p Profile) Rules() iter.Seq2[Algorithm, Rule] {
	return func(yield func(Algorithm, Rule) bool) {
		for _, a := range Algorithms() {
			if !yield(a, *p.Rule(a)) {
				return
			}
		}
	}
}

// Clamped returns p with negative distances raised to zero.
func (p Profile) Clamped() Profile {
	for _, a := range Algorithms() {
		r := p.Rule(a)
		if r.Distance < 0 {
			r.Distance = 0
		}
	}
	return p
}
