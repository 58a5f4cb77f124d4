package config

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/standardbeagle/schedprefs/internal/snap"
)

// settings is the persisted shape shared by the load and save documents.
type settings struct {
	TimeAxisZoomDefault uint32                  `toml:"time_axis_zoom_default"`
	Links               linksSection            `toml:"links"`
	MoveItem            moveItemSection         `toml:"move_item"`
	Snap                map[string]snap.Profile `toml:"snap,omitempty"`
}

type linksSection struct {
	Curves           bool `toml:"curves"`
	HoverWholeChain  bool `toml:"hover_whole_chain"`
	SelectWholeChain bool `toml:"select_whole_chain"`
}

type moveItemSection struct {
	SideDetectMinSize int     `toml:"side_detect_min_size"`
	SideDetectRatio   float64 `toml:"side_detect_ratio"`
}

// document is the staging value a file is decoded into. Extension payloads
// stay undecoded until finalize knows their registered type.
type document struct {
	settings
	Extensions []extensionEntry `toml:"extensions"`
}

// Data is nil when the entry has no payload.
type extensionEntry struct {
	Kind string          `toml:"kind"`
	Data *toml.Primitive `toml:"data"`
}

type savedDocument struct {
	settings
	Extensions []extensionRecord `toml:"extensions,omitempty"`
}

type extensionRecord struct {
	Kind string `toml:"kind"`
	Data any    `toml:"data"`
}

func settingsFrom(v Value) settings {
	s := settings{
		TimeAxisZoomDefault: uint32(v.TimeAxisZoomDefault.Masked()),
		Links: linksSection{
			Curves:           v.ShowLinksAsCurves,
			HoverWholeChain:  v.ShowLinksOnHoverWholeChain,
			SelectWholeChain: v.ShowLinksOnSelectWholeChain,
		},
		MoveItem: moveItemSection{
			SideDetectMinSize: clampMinSize(v.MoveItemSideDetectMinSize),
			SideDetectRatio:   clampRatio(v.MoveItemSideDetectRatio),
		},
	}

	// Unset profiles are not persisted; they take defaults on first use
	for _, c := range snap.Combinations() {
		p := *v.Snap.Get(c)
		if p.Key != c {
			continue
		}
		if s.Snap == nil {
			s.Snap = make(map[string]snap.Profile)
		}
		s.Snap[c.String()] = p
	}
	return s
}

// encode serializes v as a TOML document.
func encode(v Value, reg *ExtensionRegistry) ([]byte, error) {
	doc := savedDocument{settings: settingsFrom(v)}
	for _, ext := range v.UserExtensions {
		kind, err := reg.KindOf(ext)
		if err != nil {
			return nil, err
		}
		data := ext
		if raw, ok := ext.(RawExtension); ok {
			data = raw.Data
		}
		doc.Extensions = append(doc.Extensions, extensionRecord{Kind: kind, Data: data})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// decode parses data into a staging document pre-filled with defaults, so
// keys absent from the file keep their built-in values.
func decode(data []byte) (document, toml.MetaData, error) {
	doc := document{settings: settingsFrom(DefaultValue())}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return document{}, md, fmt.Errorf("%w: %w", ErrCorruptConfig, err)
	}
	return doc, md, nil
}

// finalize turns a decoded document into a Value: masking and clamping
// fields, validating each persisted profile against its slot and decoding
// extension payloads. It is the only step between parsing and exposure.
func (d document) finalize(md toml.MetaData, reg *ExtensionRegistry) (Value, error) {
	v := DefaultValue()
	v.TimeAxisZoomDefault = Zoom(d.TimeAxisZoomDefault).Masked()
	v.ShowLinksAsCurves = d.Links.Curves
	v.ShowLinksOnHoverWholeChain = d.Links.HoverWholeChain
	v.ShowLinksOnSelectWholeChain = d.Links.SelectWholeChain
	v.MoveItemSideDetectMinSize = clampMinSize(d.MoveItem.SideDetectMinSize)
	v.MoveItemSideDetectRatio = clampRatio(d.MoveItem.SideDetectRatio)

	for _, c := range snap.Combinations() {
		p, ok := d.Snap[c.String()]
		if !ok {
			continue
		}
		*v.Snap.Get(c) = snap.Validate(p, c).Clamped()
	}

	for i, entry := range d.Extensions {
		target, result, known := reg.newValue(entry.Kind)
		if !known {
			raw := RawExtension{Kind: entry.Kind}
			if entry.Data != nil {
				data, err := decodeRaw(md, *entry.Data)
				if err != nil {
					return Value{}, fmt.Errorf("%w: extension %d (%s): %w", ErrCorruptConfig, i, entry.Kind, err)
				}
				raw.Data = data
			}
			v.UserExtensions = append(v.UserExtensions, raw)
			continue
		}
		if entry.Data != nil {
			if err := md.PrimitiveDecode(*entry.Data, target); err != nil {
				return Value{}, fmt.Errorf("%w: extension %d (%s): %w", ErrCorruptConfig, i, entry.Kind, err)
			}
		}
		v.UserExtensions = append(v.UserExtensions, result())
	}

	return v, nil
}

// decodeRaw decodes an unregistered payload. Tables go through a map so their
// keys count as decoded; arrays and scalars are kept as they are.
func decodeRaw(md toml.MetaData, p toml.Primitive) (any, error) {
	var table map[string]any
	if err := md.PrimitiveDecode(p, &table); err == nil && table != nil {
		return table, nil
	}
	var data any
	if err := md.PrimitiveDecode(p, &data); err != nil {
		return nil, err
	}
	return data, nil
}
