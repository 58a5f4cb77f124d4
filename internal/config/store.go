// Package config owns the timeline editor's persisted interaction
// settings: zoom default, link rendering, item-side detection, the four
// modifier-keyed snap profiles and opaque application extensions.
//
// Mutations request a delayed save; bursts of requests are coalesced into
// one write of the latest snapshot. An EditingScope suppresses writes for a
// batch of mutations and saves once on release.
package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/standardbeagle/schedprefs/internal/schedule"
	"github.com/standardbeagle/schedprefs/internal/snap"
	"github.com/standardbeagle/schedprefs/internal/storage"
	"github.com/standardbeagle/schedprefs/pkg/events"
)

const (
	// DefaultSaveDelay is how long setters wait before persisting.
	DefaultSaveDelay = time.Second
	// DefaultSaveFloor is the shortest delay that is still deferred.
	DefaultSaveFloor = 200 * time.Millisecond
)

// Store is the single in-memory configuration value with its load/save
// lifecycle. Field access is safe from any goroutine, but no atomicity is
// promised across several setters.
type Store struct {
	path       string
	writer     storage.Writer
	scheduler  schedule.Scheduler
	bus        *events.EventBus
	logger     *log.Logger
	extensions *ExtensionRegistry
	saveDelay  time.Duration
	saveFloor  time.Duration

	mu    sync.RWMutex
	value Value

	coalescer   *saveCoalescer
	lastWritten atomic.Pointer[[sha256.Size]byte]
}

// Option configures a Store.
type Option func(*Store)

// WithScheduler sets the timer and background capability.
func WithScheduler(s schedule.Scheduler) Option {
	return func(st *Store) {
		st.scheduler = s
	}
}

// WithWriter sets the file write capability.
func WithWriter(w storage.Writer) Option {
	return func(st *Store) {
		st.writer = w
	}
}

// WithEventBus publishes load, change and save events on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(st *Store) {
		st.bus = bus
	}
}

func WithLogger(l *log.Logger) Option {
	return func(st *Store) {
		st.logger = l
	}
}

// WithSaveDelay sets the delay setters use for their save request.
func WithSaveDelay(d time.Duration) Option {
	return func(st *Store) {
		st.saveDelay = d
	}
}

// WithSaveFloor sets the threshold below which SaveAfter saves immediately.
func WithSaveFloor(d time.Duration) Option {
	return func(st *Store) {
		st.saveFloor = d
	}
}

// WithExtensions sets the registry used to persist user extensions.
func WithExtensions(r *ExtensionRegistry) Option {
	return func(st *Store) {
		st.extensions = r
	}
}

func newStore(path string, opts []Option) *Store {
	s := &Store{
		path:       path,
		writer:     storage.NewFileStore(),
		scheduler:  schedule.NewReal(),
		logger:     log.Default(),
		extensions: NewExtensionRegistry(),
		saveDelay:  DefaultSaveDelay,
		saveFloor:  DefaultSaveFloor,
		value:      DefaultValue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.coalescer = newSaveCoalescer(s.scheduler, s.writeSnapshot)
	return s
}

// Load builds a store from path, or from DefaultPath when path is empty.
// A missing file yields the built-in defaults. A file that exists but
// cannot be read or parsed fails construction; no partially populated
// store is returned.
func Load(path string, opts ...Option) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := newStore(path, opts)

	data, exists, err := storage.NewFileStore().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if exists {
		doc, md, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		value, err := doc.finalize(md, s.extensions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			s.logger.Printf("Warning: ignoring unknown config key %q in %s", key.String(), path)
		}
		s.value = value
		s.rememberWrite(data)
	}

	s.publish(events.ConfigLoaded, map[string]interface{}{"exists": exists})
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.clone()
}

func (s *Store) Zoom() Zoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.TimeAxisZoomDefault.Masked()
}

// SetZoom stores z masked to the zoom bits.
func (s *Store) SetZoom(z Zoom) {
	z = z.Masked()
	s.update("zoom", func(v *Value) bool {
		if v.TimeAxisZoomDefault == z {
			return false
		}
		v.TimeAxisZoomDefault = z
		return true
	})
}

func (s *Store) ShowLinksAsCurves() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.ShowLinksAsCurves
}

func (s *Store) SetShowLinksAsCurves(on bool) {
	s.update("links.curves", setBool(func(v *Value) *bool { return &v.ShowLinksAsCurves }, on))
}

func (s *Store) ShowLinksOnHoverWholeChain() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.ShowLinksOnHoverWholeChain
}

func (s *Store) SetShowLinksOnHoverWholeChain(on bool) {
	s.update("links.hover_whole_chain", setBool(func(v *Value) *bool { return &v.ShowLinksOnHoverWholeChain }, on))
}

func (s *Store) ShowLinksOnSelectWholeChain() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.ShowLinksOnSelectWholeChain
}

func (s *Store) SetShowLinksOnSelectWholeChain(on bool) {
	s.update("links.select_whole_chain", setBool(func(v *Value) *bool { return &v.ShowLinksOnSelectWholeChain }, on))
}

func (s *Store) MoveItemSideDetectMinSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.MoveItemSideDetectMinSize
}

// SetMoveItemSideDetectMinSize stores n clamped to [0, 50].
func (s *Store) SetMoveItemSideDetectMinSize(n int) {
	n = clampMinSize(n)
	s.update("move_item.min_size", func(v *Value) bool {
		if v.MoveItemSideDetectMinSize == n {
			return false
		}
		v.MoveItemSideDetectMinSize = n
		return true
	})
}

func (s *Store) MoveItemSideDetectRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value.MoveItemSideDetectRatio
}

// SetMoveItemSideDetectRatio stores r clamped to [0, 1].
func (s *Store) SetMoveItemSideDetectRatio(r float64) {
	r = clampRatio(r)
	s.update("move_item.ratio", func(v *Value) bool {
		if v.MoveItemSideDetectRatio == r {
			return false
		}
		v.MoveItemSideDetectRatio = r
		return true
	})
}

// Reset restores the built-in defaults for every field except the user
// extensions.
func (s *Store) Reset() {
	s.update("reset", func(v *Value) bool {
		extensions := v.UserExtensions
		*v = DefaultValue()
		v.UserExtensions = extensions
		return true
	})
}

// ResolveSnap returns the validated profile for the combination mods
// selects. Lazily created defaults are kept in the store but do not request
// a save; they are persisted with the next one.
func (s *Store) ResolveSnap(mods snap.Modifiers) snap.Profile {
	return s.SnapProfile(snap.CombinationOf(mods))
}

// SnapProfile returns the validated profile for c.
func (s *Store) SnapProfile(c snap.Combination) snap.Profile {
	if !c.Known() {
		c = snap.None
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.value.Snap.Get(c)
	*slot = snap.Validate(*slot, c)
	return *slot
}

// SetSnapProfile stores p for c. p is validated against c first, so a
// profile tagged for another combination is replaced by c's defaults.
func (s *Store) SetSnapProfile(c snap.Combination, p snap.Profile) {
	if !c.Known() {
		c = snap.None
	}
	p = snap.Validate(p, c).Clamped()
	s.update("snap."+c.String(), func(v *Value) bool {
		slot := v.Snap.Get(c)
		if *slot == p {
			return false
		}
		*slot = p
		return true
	})
}

// UpdateSnapProfile edits the profile mods selects in place. fn receives
// the validated profile; changing its Key resets it to the defaults.
func (s *Store) UpdateSnapProfile(mods snap.Modifiers, fn func(p *snap.Profile)) snap.Profile {
	c := snap.CombinationOf(mods)
	p := s.SnapProfile(c)
	fn(&p)
	s.SetSnapProfile(c, p)
	return s.SnapProfile(c)
}

// UserExtensions returns a copy of the stored extension values in order.
func (s *Store) UserExtensions() []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]any(nil), s.value.UserExtensions...)
}

// AddUserExtension appends v. Its type must be registered (or v must be a
// RawExtension) and nil pointers are rejected, so that it can be persisted.
func (s *Store) AddUserExtension(v any) error {
	if _, err := s.extensions.KindOf(v); err != nil {
		return err
	}
	s.update("extensions", func(val *Value) bool {
		val.UserExtensions = append(val.UserExtensions, v)
		return true
	})
	return nil
}

// RemoveUserExtensions deletes every extension match accepts and returns
// how many were removed.
func (s *Store) RemoveUserExtensions(match func(v any) bool) int {
	removed := 0
	s.update("extensions", func(val *Value) bool {
		kept := val.UserExtensions[:0:0]
		for _, ext := range val.UserExtensions {
			if match(ext) {
				removed++
				continue
			}
			kept = append(kept, ext)
		}
		val.UserExtensions = kept
		return removed > 0
	})
	return removed
}

// Save writes the current snapshot now. Failures are returned and also
// reported through the logger and event bus. Inside an editing scope the
// request is recorded and written on release.
func (s *Store) Save() error {
	return s.coalescer.requestImmediate()
}

// SaveAfter requests a save after delay. Delays below the save floor save
// immediately; longer ones are coalesced with any pending request.
func (s *Store) SaveAfter(delay time.Duration) error {
	if delay < s.saveFloor {
		return s.Save()
	}
	s.coalescer.requestDelayed(delay)
	return nil
}

// SaveInBackground runs Save without blocking the caller.
func (s *Store) SaveInBackground() {
	s.scheduler.RunAsync(func() {
		_ = s.Save()
	})
}

// Close flushes an outstanding save request synchronously.
func (s *Store) Close() error {
	if s.coalescer.pending() {
		return s.Save()
	}
	return nil
}

// MatchesLastWrite reports whether data is byte-identical to the last
// snapshot this store loaded or wrote.
func (s *Store) MatchesLastWrite(data []byte) bool {
	last := s.lastWritten.Load()
	if last == nil {
		return false
	}
	sum := sha256.Sum256(data)
	return bytes.Equal(sum[:], last[:])
}

func (s *Store) rememberWrite(data []byte) {
	sum := sha256.Sum256(data)
	s.lastWritten.Store(&sum)
}

// update applies fn under the value lock and, if fn reports a change,
// requests a delayed save after the lock is released.
func (s *Store) update(field string, fn func(v *Value) bool) {
	s.mu.Lock()
	changed := fn(&s.value)
	s.mu.Unlock()

	if !changed {
		return
	}
	s.publish(events.ConfigChanged, map[string]interface{}{"field": field})
	_ = s.SaveAfter(s.saveDelay)
}

func setBool(field func(v *Value) *bool, on bool) func(v *Value) bool {
	return func(v *Value) bool {
		p := field(v)
		if *p == on {
			return false
		}
		*p = on
		return true
	}
}

// Marshal returns the document Save would write now.
func (s *Store) Marshal() ([]byte, error) {
	return encode(s.Snapshot(), s.extensions)
}

// MarshalDefaults returns the document for the built-in defaults.
func MarshalDefaults() ([]byte, error) {
	return encode(DefaultValue(), NewExtensionRegistry())
}

// writeSnapshot serializes the current value and hands it to the writer.
// The coalescer serializes calls.
func (s *Store) writeSnapshot() error {
	data, err := encode(s.Snapshot(), s.extensions)
	if err != nil {
		return s.saveFailed(SaveOpEncode, err)
	}
	if err := s.writer.WriteFile(s.path, data); err != nil {
		return s.saveFailed(SaveOpWrite, err)
	}

	s.rememberWrite(data)
	s.publish(events.ConfigSaved, map[string]interface{}{"bytes": len(data)})
	return nil
}

func (s *Store) saveFailed(op SaveOp, err error) error {
	saveErr := &SaveError{
		Path:       s.path,
		Op:         op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
	s.logger.Printf("Warning: %v", saveErr)
	s.publish(events.ConfigSaveFailed, map[string]interface{}{
		"op":    string(op),
		"error": err.Error(),
	})
	return saveErr
}

func (s *Store) publish(eventType events.EventType, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:   eventType,
		Source: s.path,
		Data:   data,
	})
}
