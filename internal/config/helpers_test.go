package config

import (
	"bytes"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/schedprefs/internal/schedule"
	"github.com/standardbeagle/schedprefs/internal/storage"
	"github.com/standardbeagle/schedprefs/internal/testutil"
)

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	store    *Store
	clock    *schedule.Fake
	writer   *testutil.RecordingWriter
	injector *testutil.ErrorInjector
	logs     *syncBuffer
	path     string
}

// newTestEnv loads a store from a fresh temp path with a fake clock and a
// recording writer that also writes to disk.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{
		clock:    schedule.NewFake(),
		injector: testutil.NewErrorInjector(),
		logs:     &syncBuffer{},
		path:     filepath.Join(t.TempDir(), DefaultFileName),
	}
	env.writer = &testutil.RecordingWriter{
		Injector: env.injector,
		Next:     storage.NewFileStore(),
	}

	base := []Option{
		WithScheduler(env.clock),
		WithWriter(env.writer),
		WithLogger(log.New(env.logs, "", 0)),
	}
	store, err := Load(env.path, append(base, opts...)...)
	require.NoError(t, err)
	env.store = store
	return env
}

// reload loads the env's file into a new store with the given options.
func (env *testEnv) reload(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := Load(env.path, append([]Option{WithScheduler(schedule.NewFake())}, opts...)...)
	require.NoError(t, err)
	return store
}

const tick = 5 * time.Millisecond
