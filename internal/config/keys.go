package config

import (
	"fmt"
	"sort"
	"strconv"
)

// Setting is one dotted key of the command-line surface.
type Setting struct {
	Key         string
	Description string

	get func(s *Store) string
	set func(s *Store, raw string) error
}

// Get returns the current value formatted for display.
func (st Setting) Get(s *Store) string {
	return st.get(s)
}

// Set parses raw and stores it. Parse failures wrap ErrInvalidValue;
// in-range clamping still applies after parsing.
func (st Setting) Set(s *Store, raw string) error {
	return st.set(s, raw)
}

var settingTable = map[string]Setting{
	"zoom": {
		Description: "default time-axis zoom (hour, shift, day, week, month, quarter)",
		get:         func(s *Store) string { return s.Zoom().String() },
		set: func(s *Store, raw string) error {
			z, err := ParseZoom(raw)
			if err != nil {
				return err
			}
			s.SetZoom(z)
			return nil
		},
	},
	"links.curves": boolSetting("draw links as curves",
		(*Store).ShowLinksAsCurves, (*Store).SetShowLinksAsCurves),
	"links.hover_whole_chain": boolSetting("highlight the whole link chain on hover",
		(*Store).ShowLinksOnHoverWholeChain, (*Store).SetShowLinksOnHoverWholeChain),
	"links.select_whole_chain": boolSetting("highlight the whole link chain on select",
		(*Store).ShowLinksOnSelectWholeChain, (*Store).SetShowLinksOnSelectWholeChain),
	"move_item.min_size": {
		Description: "minimum item width in pixels for side detection (0-50)",
		get:         func(s *Store) string { return strconv.Itoa(s.MoveItemSideDetectMinSize()) },
		set: func(s *Store, raw string) error {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, raw)
			}
			s.SetMoveItemSideDetectMinSize(n)
			return nil
		},
	},
	"move_item.ratio": {
		Description: "share of the item width treated as a side (0.0-1.0)",
		get: func(s *Store) string {
			return strconv.FormatFloat(s.MoveItemSideDetectRatio(), 'f', -1, 64)
		},
		set: func(s *Store, raw string) error {
			r, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
			}
			s.SetMoveItemSideDetectRatio(r)
			return nil
		},
	},
}

func boolSetting(desc string, get func(*Store) bool, set func(*Store, bool)) Setting {
	return Setting{
		Description: desc,
		get:         func(s *Store) string { return strconv.FormatBool(get(s)) },
		set: func(s *Store, raw string) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
			}
			set(s, b)
			return nil
		},
	}
}

// Keys returns every setting key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settingTable))
	for k := range settingTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the setting for key.
func Lookup(key string) (Setting, error) {
	st, ok := settingTable[key]
	if !ok {
		return Setting{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	st.Key = key
	return st, nil
}
