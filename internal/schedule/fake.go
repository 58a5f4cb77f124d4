package schedule

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Scheduler for tests. Timers fire only from
// Advance, in due order, on the goroutine calling Advance. RunAsync runs
// the callback inline.
type Fake struct {
	mu      sync.Mutex
	elapsed time.Duration
	seq     int
	timers  []fakeTimer
	async   int
}

type fakeTimer struct {
	at  time.Duration
	seq int
	fn  func()
}

// NewFake returns a scheduler whose clock starts at zero.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) After(d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	f.timers = append(f.timers, fakeTimer{at: f.elapsed + d, seq: f.seq, fn: fn})
}

func (f *Fake) RunAsync(fn func()) {
	f.mu.Lock()
	f.async++
	f.mu.Unlock()

	run(fn)
}

// Advance moves the clock forward by d, firing every timer that becomes
// due. Timers scheduled by fired callbacks fire too if they fall inside
// the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.elapsed + d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		sort.Slice(f.timers, func(i, j int) bool {
			if f.timers[i].at == f.timers[j].at {
				return f.timers[i].seq < f.timers[j].seq
			}
			return f.timers[i].at < f.timers[j].at
		})
		if len(f.timers) == 0 || f.timers[0].at > target {
			f.elapsed = target
			f.mu.Unlock()
			return
		}
		next := f.timers[0]
		f.timers = f.timers[1:]
		f.elapsed = next.at
		f.mu.Unlock()

		run(next.fn)
	}
}

// Elapsed returns the fake time since construction.
func (f *Fake) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed
}

// Pending returns the number of timers that have not fired.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// AsyncCalls returns how many callbacks went through RunAsync.
func (f *Fake) AsyncCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.async
}
