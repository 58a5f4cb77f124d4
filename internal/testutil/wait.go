package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// WaitForCondition waits for a condition to be true, checking every 5ms.
// Returns true if condition met, false if timeout
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		<-ticker.C
	}
}

// RequireEventually asserts that a condition becomes true within timeout and fails the test if not
func RequireEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	require.True(t, WaitForCondition(t, timeout, condition), "Condition not met within %v: %s", timeout, msg)
}

// WaitForCount waits for a count function to return the expected number
func WaitForCount(t *testing.T, timeout time.Duration, counter func() int, expected int) {
	t.Helper()
	RequireEventually(t, timeout, func() bool {
		return counter() == expected
	}, fmt.Sprintf("Expected count %d", expected))
}

// TimedWaitGroup is a WaitGroup with timeout support
type TimedWaitGroup struct {
	wg sync.WaitGroup
}

// Add wraps sync.WaitGroup.Add
func (twg *TimedWaitGroup) Add(delta int) {
	twg.wg.Add(delta)
}

// Done wraps sync.WaitGroup.Done
func (twg *TimedWaitGroup) Done() {
	twg.wg.Done()
}

// WaitWithTimeout waits for the WaitGroup with a timeout
func (twg *TimedWaitGroup) WaitWithTimeout(timeout time.Duration) bool {
	c := make(chan struct{})
	go func() {
		defer close(c)
		twg.wg.Wait()
	}()

	select {
	case <-c:
		return true
	case <-time.After(timeout):
		return false
	}
}

// RequireWaitWithTimeout requires the WaitGroup to complete within timeout
func (twg *TimedWaitGroup) RequireWaitWithTimeout(t *testing.T, timeout time.Duration, msg string) {
	t.Helper()
	require.True(t, twg.WaitWithTimeout(timeout), "WaitGroup did not complete within %v: %s", timeout, msg)
}
