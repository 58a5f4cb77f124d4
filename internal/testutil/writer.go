package testutil

import (
	"sync"
)

// WriteOp is the operation name RecordingWriter checks on its injector.
const WriteOp = "write"

// Write is one recorded WriteFile call.
type Write struct {
	Path string
	Data []byte
	Err  error
}

// RecordingWriter records every WriteFile call. Failures come from the
// optional Injector; successful writes are forwarded to Next when set.
type RecordingWriter struct {
	Injector *ErrorInjector
	Next     interface {
		WriteFile(path string, data []byte) error
	}
	// BeforeWrite runs at the start of every call, outside the recorder lock.
	BeforeWrite func(data []byte)

	mu     sync.Mutex
	writes []Write
}

func (w *RecordingWriter) WriteFile(path string, data []byte) error {
	if w.BeforeWrite != nil {
		w.BeforeWrite(data)
	}

	var err error
	if w.Injector != nil {
		err = w.Injector.ShouldFail(WriteOp)
	}
	if err == nil && w.Next != nil {
		err = w.Next.WriteFile(path, data)
	}

	copied := append([]byte(nil), data...)
	w.mu.Lock()
	w.writes = append(w.writes, Write{Path: path, Data: copied, Err: err})
	w.mu.Unlock()
	return err
}

// Count returns how many writes were attempted.
func (w *RecordingWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

// Writes returns a copy of all recorded writes.
func (w *RecordingWriter) Writes() []Write {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Write(nil), w.writes...)
}

// Last returns the most recent write and whether there was one.
func (w *RecordingWriter) Last() (Write, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.writes) == 0 {
		return Write{}, false
	}
	return w.writes[len(w.writes)-1], true
}
