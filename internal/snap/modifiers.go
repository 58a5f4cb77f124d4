package snap

import (
	"fmt"
	"strings"
)

// Modifiers is the set of keyboard modifier keys held during a drag.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
	ModMeta
)

// Combination identifies which snap profile a modifier set selects.
type Combination uint8

const (
	// Unset tags a profile that has never been validated.
	Unset Combination = iota
	None
	Ctrl
	Shift
	CtrlShift
)

var combinationNames = map[Combination]string{
	Unset:     "",
	None:      "none",
	Ctrl:      "ctrl",
	Shift:     "shift",
	CtrlShift: "ctrl_shift",
}

// Combinations returns the four selectable combinations in display order.
func Combinations() []Combination {
	return []Combination{None, Ctrl, Shift, CtrlShift}
}

func (c Combination) String() string {
	if name, ok := combinationNames[c]; ok && name != "" {
		return name
	}
	if c == Unset {
		return "unset"
	}
	return fmt.Sprintf("combination(%d)", uint8(c))
}

// Known reports whether c is one of the four selectable combinations.
func (c Combination) Known() bool {
	return c >= None && c <= CtrlShift
}

// MarshalText encodes the combination by name.
func (c Combination) MarshalText() ([]byte, error) {
	return []byte(combinationNames[c]), nil
}

// UnmarshalText decodes a combination name. Unknown names decode to Unset
// so the owning profile is reset on validation instead of failing the load.
func (c *Combination) UnmarshalText(text []byte) error {
	*c = ParseCombination(string(text))
	return nil
}

// ParseCombination returns the combination with the given name, or Unset.
func ParseCombination(name string) Combination {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range combinationNames {
		if n != "" && n == name {
			return c
		}
	}
	return Unset
}

// CombinationOf maps a modifier set to its profile. Anything other than an
// exact match on none, Ctrl, Shift or Ctrl+Shift falls back to None so every
// drag receives a policy.
func CombinationOf(m Modifiers) Combination {
	switch m {
	case ModCtrl:
		return Ctrl
	case ModShift:
		return Shift
	case ModCtrl | ModShift:
		return CtrlShift
	default:
		return None
	}
}

// ParseModifiers parses a "+"-separated modifier list such as "ctrl+shift".
// The empty string and "none" mean no modifiers.
func ParseModifiers(s string) (Modifiers, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return 0, nil
	}

	var m Modifiers
	for _, part := range strings.Split(s, "+") {
		switch strings.TrimSpace(part) {
		case "ctrl", "control":
			m |= ModCtrl
		case "shift":
			m |= ModShift
		case "alt", "option":
			m |= ModAlt
		case "meta", "cmd", "super":
			m |= ModMeta
		default:
			return 0, fmt.Errorf("unknown modifier %q", part)
		}
	}
	return m, nil
}

func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModMeta != 0 {
		parts = append(parts, "meta")
	}
	return strings.Join(parts, "+")
}
