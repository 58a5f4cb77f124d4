package events

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/standardbeagle/schedprefs/internal/testutil"
)

func TestEventBusStressTest(t *testing.T) {
	eb := NewEventBus()
	defer eb.Shutdown()

	const (
		numPublishers      = 50
		eventsPerPublisher = 100
		totalEvents        = numPublishers * eventsPerPublisher
	)

	var handlerExecutions int64
	eb.Subscribe(ConfigChanged, func(event Event) {
		atomic.AddInt64(&handlerExecutions, 1)
	})
	eb.Subscribe(ConfigSaved, func(event Event) {
		atomic.AddInt64(&handlerExecutions, 1)
	})

	var wg sync.WaitGroup
	for i := 0; i < numPublishers; i++ {
		wg.Add(1)
		go func(publisherID int) {
			defer wg.Done()
			for j := 0; j < eventsPerPublisher; j++ {
				eventType := ConfigChanged
				if j%2 == 0 {
					eventType = ConfigSaved
				}
				eb.Publish(Event{
					Type: eventType,
					Data: map[string]interface{}{
						"publisher": publisherID,
						"sequence":  j,
					},
				})
			}
		}(i)
	}
	wg.Wait()

	// Each event matches exactly one handler
	testutil.WaitForCount(t, 5*time.Second, func() int {
		return int(atomic.LoadInt64(&handlerExecutions))
	}, totalEvents)
}

func TestEventBusGoroutineCount(t *testing.T) {
	initialGoroutines := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		eb := NewEventBus()
		for j := 0; j < 50; j++ {
			eb.Publish(Event{
				Type: ConfigChanged,
				Data: map[string]interface{}{"iteration": i, "event": j},
			})
		}
		eb.Shutdown()
	}

	runtime.GC()
	time.Sleep(10 * time.Millisecond)

	finalGoroutines := runtime.NumGoroutine()
	t.Logf("Goroutines before: %d, after: %d", initialGoroutines, finalGoroutines)

	if finalGoroutines > initialGoroutines+5 {
		t.Errorf("Goroutine leak detected: %d -> %d", initialGoroutines, finalGoroutines)
	}
}
