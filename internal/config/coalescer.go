package config

import (
	"sync"
	"time"

	"github.com/standardbeagle/schedprefs/internal/schedule"
)

// saveCoalescer turns bursts of save requests into at most one pending
// write. mu guards only the bookkeeping flags and is never held across
// encoding or I/O; writeMu serializes the writes themselves so an older
// snapshot can never land after a newer one.
type saveCoalescer struct {
	scheduler schedule.Scheduler
	save      func() error

	mu            sync.Mutex
	timerArmed    bool
	saveRequested bool
	suppressed    bool

	writeMu sync.Mutex
}

func newSaveCoalescer(scheduler schedule.Scheduler, save func() error) *saveCoalescer {
	return &saveCoalescer{
		scheduler: scheduler,
		save:      save,
	}
}

// requestImmediate writes now. While suppressed it only records intent.
func (c *saveCoalescer) requestImmediate() error {
	c.mu.Lock()
	if c.suppressed {
		c.saveRequested = true
		c.mu.Unlock()
		return nil
	}
	c.saveRequested = false
	c.mu.Unlock()

	return c.write()
}

// requestDelayed marks a save as outstanding and arms the timer unless one
// is already armed; the armed timer covers this request too.
func (c *saveCoalescer) requestDelayed(delay time.Duration) {
	c.mu.Lock()
	c.saveRequested = true
	if c.suppressed || c.timerArmed {
		c.mu.Unlock()
		return
	}
	c.timerArmed = true
	c.mu.Unlock()

	c.scheduler.After(delay, c.onTimerFired)
}

func (c *saveCoalescer) onTimerFired() {
	c.mu.Lock()
	c.timerArmed = false
	if c.suppressed {
		// Left outstanding for the editing scope release
		c.mu.Unlock()
		return
	}
	requested := c.saveRequested
	// Cleared before writing so a request that arrives mid-write arms a
	// new timer instead of being absorbed by this one.
	c.saveRequested = false
	c.mu.Unlock()

	if requested {
		_ = c.write()
	}
}

func (c *saveCoalescer) write() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.save()
}

// setSuppressed sets the suppression flag and returns its previous value.
func (c *saveCoalescer) setSuppressed(on bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prior := c.suppressed
	c.suppressed = on
	return prior
}

func (c *saveCoalescer) isSuppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed
}

// pending reports whether a save was requested and has not been written.
func (c *saveCoalescer) pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveRequested
}
