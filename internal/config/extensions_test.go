package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type columnLayout struct {
	Name   string   `toml:"name"`
	Widths []int    `toml:"widths"`
	Hidden []string `toml:"hidden"`
}

type shiftTag string

type colorTheme struct {
	Name   string `toml:"name"`
	Accent string `toml:"accent"`
}

func newRegistry(t *testing.T) *ExtensionRegistry {
	t.Helper()
	reg := NewExtensionRegistry()
	require.NoError(t, RegisterExtension[columnLayout](reg, "column_layout"))
	require.NoError(t, RegisterExtension[*colorTheme](reg, "color_theme"))
	return reg
}

func TestRegisterExtensionConflicts(t *testing.T) {
	reg := newRegistry(t)

	assert.NoError(t, RegisterExtension[columnLayout](reg, "column_layout"), "re-registering is a no-op")
	assert.Error(t, RegisterExtension[colorTheme](reg, "column_layout"))
	assert.Error(t, RegisterExtension[columnLayout](reg, "layout"))
	assert.Error(t, RegisterExtension[struct{}](reg, ""))
}

func TestKindOf(t *testing.T) {
	reg := newRegistry(t)

	kind, err := reg.KindOf(columnLayout{})
	require.NoError(t, err)
	assert.Equal(t, "column_layout", kind)

	kind, err = reg.KindOf(&colorTheme{})
	require.NoError(t, err)
	assert.Equal(t, "color_theme", kind)

	kind, err = reg.KindOf(RawExtension{Kind: "legacy"})
	require.NoError(t, err)
	assert.Equal(t, "legacy", kind)

	_, err = reg.KindOf(colorTheme{})
	assert.ErrorIs(t, err, ErrUnregisteredExtension)
	_, err = reg.KindOf(nil)
	assert.ErrorIs(t, err, ErrUnregisteredExtension)
}

func TestExtensionsRoundTrip(t *testing.T) {
	env := newTestEnv(t, WithExtensions(newRegistry(t)))
	s := env.store

	layout := columnLayout{Name: "compact", Widths: []int{120, 80}, Hidden: []string{"owner"}}
	theme := &colorTheme{Name: "dusk", Accent: "#ff8800"}
	raw := RawExtension{Kind: "legacy_filter", Data: map[string]any{"query": "late", "limit": int64(5)}}

	require.NoError(t, s.Edit(func(s *Store) error {
		if err := s.AddUserExtension(layout); err != nil {
			return err
		}
		if err := s.AddUserExtension(theme); err != nil {
			return err
		}
		return s.AddUserExtension(raw)
	}))

	loaded := env.reload(t, WithExtensions(newRegistry(t)))
	exts := loaded.UserExtensions()
	require.Len(t, exts, 3)
	assert.Equal(t, layout, exts[0])
	assert.Equal(t, theme, exts[1])
	assert.Equal(t, raw, exts[2])
}

func TestUnregisteredKindSurvivesReload(t *testing.T) {
	env := newTestEnv(t, WithExtensions(newRegistry(t)))
	require.NoError(t, env.store.AddUserExtension(columnLayout{Name: "wide", Widths: []int{300}}))
	require.NoError(t, env.store.Save())

	// Without the registration the payload loads as raw data
	loaded := env.reload(t)
	exts := loaded.UserExtensions()
	require.Len(t, exts, 1)
	raw, ok := exts[0].(RawExtension)
	require.True(t, ok)
	assert.Equal(t, "column_layout", raw.Kind)
	data, ok := raw.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "wide", data["name"])
	assert.Equal(t, []any{int64(300)}, data["widths"])

	// Saving again keeps it intact for a process that knows the kind
	require.NoError(t, loaded.Save())
	again := env.reload(t, WithExtensions(newRegistry(t)))
	assert.Equal(t, []any{columnLayout{Name: "wide", Widths: []int{300}}}, again.UserExtensions())
}

func TestUnregisteredScalarAndArrayPayloadsSurviveReload(t *testing.T) {
	withTags := func(t *testing.T) *ExtensionRegistry {
		reg := newRegistry(t)
		require.NoError(t, RegisterExtension[shiftTag](reg, "shift_tag"))
		require.NoError(t, RegisterExtension[[]int](reg, "pinned_rows"))
		return reg
	}

	env := newTestEnv(t, WithExtensions(withTags(t)))
	require.NoError(t, env.store.Edit(func(s *Store) error {
		if err := s.AddUserExtension(shiftTag("night")); err != nil {
			return err
		}
		return s.AddUserExtension([]int{3, 7})
	}))

	loaded := env.reload(t)
	assert.Equal(t, []any{
		RawExtension{Kind: "shift_tag", Data: "night"},
		RawExtension{Kind: "pinned_rows", Data: []any{int64(3), int64(7)}},
	}, loaded.UserExtensions())

	// Saving without the registrations must not replace the payloads
	require.NoError(t, loaded.Save())
	again := env.reload(t, WithExtensions(withTags(t)))
	assert.Equal(t, []any{shiftTag("night"), []int{3, 7}}, again.UserExtensions())
}

func TestRawExtensionWithoutDataSurvivesReload(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.AddUserExtension(RawExtension{Kind: "marker"}))
	require.NoError(t, env.store.Save())

	loaded := env.reload(t)
	assert.Equal(t, []any{RawExtension{Kind: "marker"}}, loaded.UserExtensions())
}

func TestAddNilPointerExtensionFails(t *testing.T) {
	env := newTestEnv(t, WithExtensions(newRegistry(t)))

	err := env.store.AddUserExtension((*colorTheme)(nil))
	assert.ErrorIs(t, err, ErrUnregisteredExtension)
	assert.Empty(t, env.store.UserExtensions())
}

func TestAddUnregisteredExtensionFails(t *testing.T) {
	env := newTestEnv(t)

	err := env.store.AddUserExtension(colorTheme{Name: "plain"})
	assert.ErrorIs(t, err, ErrUnregisteredExtension)
	assert.Empty(t, env.store.UserExtensions())
	assert.Zero(t, env.clock.Pending())
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, WithExtensions(newRegistry(t)))
	s := env.store
	require.NoError(t, s.AddUserExtension(columnLayout{Name: "a"}))
	require.NoError(t, s.AddUserExtension(&colorTheme{Name: "dark"}))
	require.NoError(t, s.AddUserExtension(columnLayout{Name: "b"}))
	require.NoError(t, s.AddUserExtension(columnLayout{Name: "c"}))

	names := func(seq func(func(columnLayout) bool)) []string {
		var out []string
		for l := range seq {
			out = append(out, l.Name)
		}
		return out
	}

	all := Search[columnLayout](s, nil)
	assert.Equal(t, []string{"a", "b", "c"}, names(all))
	assert.Equal(t, []string{"a", "b", "c"}, names(all), "sequence is restartable")

	notB := Search(s, func(l columnLayout) bool { return l.Name != "b" })
	assert.Equal(t, []string{"a", "c"}, names(notB))

	var themes []*colorTheme
	for th := range Search[*colorTheme](s, nil) {
		themes = append(themes, th)
	}
	require.Len(t, themes, 1)
	assert.Equal(t, "dark", themes[0].Name)

	// Early break stops the walk
	var first []string
	for l := range all {
		first = append(first, l.Name)
		break
	}
	assert.Equal(t, []string{"a"}, first)

	// A restarted sequence sees later additions
	require.NoError(t, s.AddUserExtension(columnLayout{Name: "d"}))
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(all))

	assert.Len(t, s.UserExtensions(), 5, "searching does not modify the store")
}

func TestRemoveUserExtensions(t *testing.T) {
	env := newTestEnv(t, WithExtensions(newRegistry(t)))
	s := env.store
	require.NoError(t, s.AddUserExtension(columnLayout{Name: "a"}))
	require.NoError(t, s.AddUserExtension(&colorTheme{Name: "dark"}))
	require.NoError(t, s.AddUserExtension(columnLayout{Name: "b"}))

	removed := s.RemoveUserExtensions(func(v any) bool {
		_, ok := v.(columnLayout)
		return ok
	})
	assert.Equal(t, 2, removed)
	assert.Len(t, s.UserExtensions(), 1)

	env.clock.Advance(DefaultSaveDelay)
	require.Equal(t, 1, env.writer.Count())

	assert.Zero(t, s.RemoveUserExtensions(func(any) bool { return false }))
}
