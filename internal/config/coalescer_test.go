package config

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/schedprefs/internal/schedule"
	"github.com/standardbeagle/schedprefs/internal/storage"
	"github.com/standardbeagle/schedprefs/internal/testutil"
)

func TestRapidDelayedRequestsWriteOnce(t *testing.T) {
	env := newTestEnv(t, WithSaveDelay(500*time.Millisecond))

	var firedAt []time.Duration
	env.writer.BeforeWrite = func([]byte) {
		firedAt = append(firedAt, env.clock.Elapsed())
	}

	// 10 requests within 50ms, each after a mutation
	for i := 0; i < 10; i++ {
		env.store.SetMoveItemSideDetectMinSize(i + 1)
		require.NoError(t, env.store.SaveAfter(500*time.Millisecond))
		env.clock.Advance(tick)
	}
	assert.Zero(t, env.writer.Count())

	env.clock.Advance(500*time.Millisecond - 10*tick - time.Millisecond)
	assert.Zero(t, env.writer.Count(), "timer must not be re-armed by later calls")

	env.clock.Advance(time.Millisecond)
	require.Equal(t, 1, env.writer.Count())
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, firedAt)

	env.clock.Advance(5 * time.Second)
	assert.Equal(t, 1, env.writer.Count())

	// The written snapshot is the last mutation
	loaded := env.reload(t)
	assert.Equal(t, 10, loaded.MoveItemSideDetectMinSize())
}

func TestSetterBurstCoalescesIntoOneWrite(t *testing.T) {
	env := newTestEnv(t, WithSaveDelay(time.Second))

	env.store.SetZoom(ZoomWeek)
	env.store.SetShowLinksAsCurves(false)
	env.store.SetMoveItemSideDetectRatio(0.5)
	env.clock.Advance(999 * time.Millisecond)
	env.store.SetZoom(ZoomMonth)

	env.clock.Advance(time.Millisecond)
	require.Equal(t, 1, env.writer.Count())

	loaded := env.reload(t)
	assert.Equal(t, ZoomMonth, loaded.Zoom())
	assert.False(t, loaded.ShowLinksAsCurves())
	assert.Equal(t, 0.5, loaded.MoveItemSideDetectRatio())
}

func TestImmediateSaveCoversArmedTimer(t *testing.T) {
	env := newTestEnv(t)

	env.store.SetZoom(ZoomHour)
	require.Equal(t, 1, env.clock.Pending())

	require.NoError(t, env.store.Save())
	assert.Equal(t, 1, env.writer.Count())

	// The timer still fires but finds nothing outstanding
	env.clock.Advance(DefaultSaveDelay)
	assert.Equal(t, 1, env.writer.Count())
}

func TestRequestAfterImmediateSaveIsNotLost(t *testing.T) {
	env := newTestEnv(t)

	env.store.SetZoom(ZoomHour)
	require.NoError(t, env.store.Save())
	env.store.SetZoom(ZoomWeek) // timer already armed, request must still count

	env.clock.Advance(DefaultSaveDelay)
	require.Equal(t, 2, env.writer.Count())
	assert.Equal(t, ZoomWeek, env.reload(t).Zoom())
}

func TestRequestDuringWriteSchedulesAnotherWrite(t *testing.T) {
	env := newTestEnv(t)

	mutated := false
	env.writer.BeforeWrite = func([]byte) {
		if !mutated {
			mutated = true
			env.store.SetZoom(ZoomQuarter)
		}
	}

	env.store.SetZoom(ZoomHour)
	env.clock.Advance(DefaultSaveDelay)
	require.Equal(t, 1, env.writer.Count())
	assert.Equal(t, ZoomHour, env.reload(t).Zoom())

	env.clock.Advance(DefaultSaveDelay)
	require.Equal(t, 2, env.writer.Count())
	assert.Equal(t, ZoomQuarter, env.reload(t).Zoom())
}

func TestSaveBelowFloorIsImmediate(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.store.SaveAfter(100*time.Millisecond))
	assert.Equal(t, 1, env.writer.Count())
	assert.Zero(t, env.clock.Pending())

	require.NoError(t, env.store.SaveAfter(DefaultSaveFloor))
	assert.Equal(t, 1, env.writer.Count())
	assert.Equal(t, 1, env.clock.Pending())
}

func TestZeroSaveDelaySavesOnEverySetter(t *testing.T) {
	env := newTestEnv(t, WithSaveDelay(0))

	env.store.SetZoom(ZoomWeek)
	env.store.SetZoom(ZoomMonth)
	assert.Equal(t, 2, env.writer.Count())
}

func TestUnchangedValueRequestsNoSave(t *testing.T) {
	env := newTestEnv(t)

	env.store.SetZoom(DefaultZoom)
	env.store.SetShowLinksAsCurves(true)
	env.store.SetMoveItemSideDetectMinSize(DefaultMoveItemSideDetectMin)

	assert.Zero(t, env.clock.Pending())
	assert.False(t, env.store.coalescer.pending())
}

func TestSaveInBackground(t *testing.T) {
	env := newTestEnv(t)

	env.store.SaveInBackground()
	assert.Equal(t, 1, env.clock.AsyncCalls())
	assert.Equal(t, 1, env.writer.Count())
}

func TestCloseFlushesPendingRequest(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.store.Close())
	assert.Zero(t, env.writer.Count())

	env.store.SetShowLinksOnHoverWholeChain(true)
	require.NoError(t, env.store.Close())
	assert.Equal(t, 1, env.writer.Count())
	assert.True(t, env.reload(t).ShowLinksOnHoverWholeChain())
}

func TestConcurrentMutatorsLatestSnapshotLands(t *testing.T) {
	writer := &testutil.RecordingWriter{Next: storage.NewFileStore()}
	env := newTestEnv(t)
	store, err := Load(env.path,
		WithScheduler(schedule.NewReal()),
		WithWriter(writer),
		WithSaveDelay(DefaultSaveFloor),
	)
	require.NoError(t, err)

	const workers = 20
	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				store.SetMoveItemSideDetectMinSize((w*perWorker + i) % 51)
				store.SetMoveItemSideDetectRatio(float64(i) / perWorker)
				if i%10 == 0 {
					assert.NoError(t, store.Save())
				}
			}
		}(w)
	}
	wg.Wait()

	// Final state must eventually be on disk, whatever the interleaving
	store.SetZoom(ZoomQuarter)
	final := store.Snapshot()
	expected, err := encode(final, store.extensions)
	require.NoError(t, err)

	testutil.RequireEventually(t, 5*time.Second, func() bool {
		last, ok := writer.Last()
		return ok && bytes.Equal(expected, last.Data)
	}, "latest snapshot written")

	loaded := env.reload(t)
	assert.Equal(t, final.MoveItemSideDetectMinSize, loaded.MoveItemSideDetectMinSize())
	assert.Equal(t, final.MoveItemSideDetectRatio, loaded.MoveItemSideDetectRatio())
	assert.Equal(t, ZoomQuarter, loaded.Zoom())

	assert.Less(t, writer.Count(), workers*perWorker*2, "requests were coalesced")
}

func TestCoalescerFlags(t *testing.T) {
	clock := schedule.NewFake()
	writes := 0
	c := newSaveCoalescer(clock, func() error {
		writes++
		return nil
	})

	c.requestDelayed(time.Second)
	c.requestDelayed(time.Second)
	assert.True(t, c.pending())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, writes)
	assert.False(t, c.pending())

	// Timer firing with nothing requested does not write
	c.requestDelayed(time.Second)
	require.NoError(t, c.requestImmediate())
	assert.Equal(t, 2, writes)
	clock.Advance(time.Second)
	assert.Equal(t, 2, writes)
}
