package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/standardbeagle/schedprefs/internal/snap"
)

// Zoom is a time-axis bitmask. Only the bits in ZoomMask are valid as a
// zoom default; the remaining bits describe axis decorations.
type Zoom uint32

const (
	ZoomHour Zoom = 1 << iota
	ZoomShift
	ZoomDay
	ZoomWeek
	ZoomMonth
	ZoomQuarter
)

const (
	AxisShowWeekends Zoom = 1 << (iota + 8)
	AxisShowNowLine
	AxisShowCalendarWeek
)

const ZoomMask = ZoomHour | ZoomShift | ZoomDay | ZoomWeek | ZoomMonth | ZoomQuarter

var zoomNames = []struct {
	bit  Zoom
	name string
}{
	{ZoomHour, "hour"},
	{ZoomShift, "shift"},
	{ZoomDay, "day"},
	{ZoomWeek, "week"},
	{ZoomMonth, "month"},
	{ZoomQuarter, "quarter"},
}

// Masked drops non-zoom bits. An empty result falls back to the default.
func (z Zoom) Masked() Zoom {
	z &= ZoomMask
	if z == 0 {
		return DefaultZoom
	}
	return z
}

func (z Zoom) String() string {
	var parts []string
	for _, zn := range zoomNames {
		if z&zn.bit != 0 {
			parts = append(parts, zn.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("zoom(%#x)", uint32(z))
	}
	return strings.Join(parts, "|")
}

// ParseZoom accepts "|"-separated zoom names such as "day" or "day|week".
func ParseZoom(s string) (Zoom, error) {
	var z Zoom
	for _, part := range strings.Split(strings.ToLower(s), "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, zn := range zoomNames {
			if zn.name == part {
				z |= zn.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown zoom %q", ErrInvalidValue, part)
		}
	}
	return z, nil
}

const (
	DefaultZoom                     = ZoomDay
	DefaultMoveItemSideDetectMin    = 10
	DefaultMoveItemSideDetectRatio  = 0.25
	MaxMoveItemSideDetectMinSize    = 50
	defaultShowLinksAsCurves        = true
	defaultShowLinksOnHoverChain    = false
	defaultShowLinksOnSelectedChain = true
)

// SnapProfiles holds one profile per modifier combination.
type SnapProfiles struct {
	None      snap.Profile
	Ctrl      snap.Profile
	Shift     snap.Profile
	CtrlShift snap.Profile
}

// Get returns the slot for c. Unknown combinations map to None.
func (sp *SnapProfiles) Get(c snap.Combination) *snap.Profile {
	switch c {
	case snap.Ctrl:
		return &sp.Ctrl
	case snap.Shift:
		return &sp.Shift
	case snap.CtrlShift:
		return &sp.CtrlShift
	default:
		return &sp.None
	}
}

// Value is a complete configuration snapshot.
type Value struct {
	TimeAxisZoomDefault         Zoom
	ShowLinksAsCurves           bool
	ShowLinksOnHoverWholeChain  bool
	ShowLinksOnSelectWholeChain bool
	MoveItemSideDetectMinSize   int
	MoveItemSideDetectRatio     float64
	Snap                        SnapProfiles
	UserExtensions              []any
}

// DefaultValue returns the built-in configuration. Snap profiles start
// unset and take their defaults on first resolution.
func DefaultValue() Value {
	return Value{
		TimeAxisZoomDefault:         DefaultZoom,
		ShowLinksAsCurves:           defaultShowLinksAsCurves,
		ShowLinksOnHoverWholeChain:  defaultShowLinksOnHoverChain,
		ShowLinksOnSelectWholeChain: defaultShowLinksOnSelectedChain,
		MoveItemSideDetectMinSize:   DefaultMoveItemSideDetectMin,
		MoveItemSideDetectRatio:     DefaultMoveItemSideDetectRatio,
	}
}

// clone copies v so the extension slice is not shared.
func (v Value) clone() Value {
	if v.UserExtensions != nil {
		v.UserExtensions = append([]any(nil), v.UserExtensions...)
	}
	return v
}

func clampMinSize(n int) int {
	switch {
	case n < 0:
		return 0
	case n > MaxMoveItemSideDetectMinSize:
		return MaxMoveItemSideDetectMinSize
	}
	return n
}

func clampRatio(r float64) float64 {
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
