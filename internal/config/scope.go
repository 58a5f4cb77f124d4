package config

import (
	"sync"

	"github.com/google/uuid"

	"github.com/standardbeagle/schedprefs/pkg/events"
)

// EditingScope suppresses writes while a batch of mutations runs and saves
// once on Release.
//
// Scopes do not keep a nesting count. An inner scope restores the already
// suppressed state on release, so its save is only recorded and the
// outermost release performs the write. Overlapping scopes must be released
// in reverse order of creation, so they belong to one goroutine at a time.
type EditingScope struct {
	ID string

	store *Store
	prior bool
	once  sync.Once
	err   error
}

// CreateEditingScope starts a scope. Callers must Release it, usually with
// defer.
func (s *Store) CreateEditingScope() *EditingScope {
	prior := s.coalescer.setSuppressed(true)
	return &EditingScope{
		ID:    uuid.NewString(),
		store: s,
		prior: prior,
	}
}

// Release restores the suppression state captured at creation and then
// saves unconditionally. Later calls return the first call's result.
func (e *EditingScope) Release() error {
	e.once.Do(func() {
		e.store.coalescer.setSuppressed(e.prior)
		e.err = e.store.Save()
		e.store.publish(events.EditingScopeReleased, map[string]interface{}{
			"scope":  e.ID,
			"nested": e.prior,
		})
	})
	return e.err
}

// Edit runs fn inside an editing scope. The scope is released on every exit
// path; a panic in fn is re-raised after the release.
func (s *Store) Edit(fn func(s *Store) error) (err error) {
	scope := s.CreateEditingScope()
	defer func() {
		if r := recover(); r != nil {
			_ = scope.Release()
			panic(r)
		}
	}()

	err = fn(s)
	if releaseErr := scope.Release(); err == nil {
		err = releaseErr
	}
	return err
}

// Suppressed reports whether an editing scope is currently active.
func (s *Store) Suppressed() bool {
	return s.coalescer.isSuppressed()
}
