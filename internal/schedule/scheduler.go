// Package schedule provides the deferred and background execution
// capability the configuration store consumes.
package schedule

import (
	"log"
	"time"
)

// Scheduler runs callbacks later or off the calling goroutine.
type Scheduler interface {
	// After runs fn once after d elapses.
	After(d time.Duration, fn func())
	// RunAsync runs fn without blocking the caller.
	RunAsync(fn func())
}

// Real is a Scheduler backed by the runtime timer and goroutines.
type Real struct{}

// NewReal returns the wall-clock scheduler.
func NewReal() Real {
	return Real{}
}

func (Real) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { run(fn) })
}

func (Real) RunAsync(fn func()) {
	go run(fn)
}

// run executes fn with panic recovery so a failing callback cannot take
// the process down from a timer goroutine.
func run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("schedule: callback panic: %v", r)
		}
	}()
	fn()
}
