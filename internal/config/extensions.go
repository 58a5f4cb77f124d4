package config

import (
	"fmt"
	"iter"
	"reflect"
	"sync"
)

// RawExtension holds an extension whose kind is not registered, so it
// survives a load/save cycle untouched. Data is whatever the payload
// decoded to: a table, an array or a scalar, or nil when it was absent.
type RawExtension struct {
	Kind string
	Data any
}

// ExtensionRegistry maps persisted extension kinds to Go types.
type ExtensionRegistry struct {
	mu     sync.RWMutex
	byKind map[string]reflect.Type
	byType map[reflect.Type]string
}

func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{
		byKind: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// RegisterExtension associates kind with T. T may be any type the TOML
// encoder accepts, including a pointer; loaded values have exactly type T.
func RegisterExtension[T any](r *ExtensionRegistry, kind string) error {
	t := reflect.TypeFor[T]()
	if kind == "" {
		return fmt.Errorf("extension kind for %s is empty", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKind[kind]; ok && existing != t {
		return fmt.Errorf("extension kind %q already registered for %s", kind, existing)
	}
	if existing, ok := r.byType[t]; ok && existing != kind {
		return fmt.Errorf("extension type %s already registered as %q", t, existing)
	}
	r.byKind[kind] = t
	r.byType[t] = kind
	return nil
}

// KindOf returns the persisted kind for v.
func (r *ExtensionRegistry) KindOf(v any) (string, error) {
	if raw, ok := v.(RawExtension); ok {
		return raw.Kind, nil
	}
	if v == nil {
		return "", fmt.Errorf("%w: nil value", ErrUnregisteredExtension)
	}
	// A nil pointer has no payload and would reload as a zero value
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", fmt.Errorf("%w: nil %T", ErrUnregisteredExtension, v)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	kind, ok := r.byType[reflect.TypeOf(v)]
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnregisteredExtension, v)
	}
	return kind, nil
}

// newValue returns a decode target for kind and a function producing the
// final value once decoded. ok is false for unknown kinds.
func (r *ExtensionRegistry) newValue(kind string) (target any, result func() any, ok bool) {
	r.mu.RLock()
	t, ok := r.byKind[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}

	if t.Kind() == reflect.Pointer {
		ptr := reflect.New(t.Elem())
		return ptr.Interface(), ptr.Interface, true
	}
	ptr := reflect.New(t)
	return ptr.Interface(), func() any { return ptr.Elem().Interface() }, true
}

// Search yields the stored extensions whose dynamic type is T and that
// satisfy pred (nil accepts all). Every range re-reads the current list,
// and ranging never modifies the store.
func Search[T any](s *Store, pred func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s.UserExtensions() {
			t, ok := v.(T)
			if !ok {
				continue
			}
			if pred != nil && !pred(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}
