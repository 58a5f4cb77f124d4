package testutil

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorInjector provides systematic error injection capabilities for testing
type ErrorInjector struct {
	mu       sync.RWMutex
	failures map[string]*InjectionRule
}

// InjectionRule defines when and how to inject errors
type InjectionRule struct {
	FailCount    int32         // Number of times to fail (-1 for unlimited)
	FailureType  string        // "disk_full", "permission", "io" or custom
	ErrorMessage string        // Custom error message
	Delay        time.Duration // Delay before failure
}

// NewErrorInjector creates a new error injection system
func NewErrorInjector() *ErrorInjector {
	return &ErrorInjector{
		failures: make(map[string]*InjectionRule),
	}
}

// InjectFailure configures an error injection rule
func (ei *ErrorInjector) InjectFailure(operation string, rule *InjectionRule) {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	ei.failures[operation] = rule
}

// ShouldFail checks if an operation should fail and returns appropriate error
func (ei *ErrorInjector) ShouldFail(operation string) error {
	ei.mu.RLock()
	rule, exists := ei.failures[operation]
	ei.mu.RUnlock()

	if !exists {
		return nil
	}

	for {
		remaining := atomic.LoadInt32(&rule.FailCount)
		if remaining == 0 {
			return nil
		}
		if remaining < 0 || atomic.CompareAndSwapInt32(&rule.FailCount, remaining, remaining-1) {
			break
		}
	}

	if rule.Delay > 0 {
		time.Sleep(rule.Delay)
	}

	switch rule.FailureType {
	case "disk_full":
		return errors.New("no space left on device: " + rule.ErrorMessage)
	case "permission":
		return errors.New("permission denied: " + rule.ErrorMessage)
	case "io":
		return io.ErrShortWrite
	default:
		return errors.New(rule.ErrorMessage)
	}
}

// Reset clears all injection rules
func (ei *ErrorInjector) Reset() {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	ei.failures = make(map[string]*InjectionRule)
}
