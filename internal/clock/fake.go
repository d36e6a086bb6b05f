package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Ticks are delivered on
// buffered channels of size one, dropping ticks nobody read, like time.Ticker.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

// NewFake creates a Fake clock that starts at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{clock: f, period: d, next: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *Fake) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, deadline: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every ticker and timer whose
// deadline falls inside the window in chronological order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.now.Add(d)
	for {
		var (
			when  time.Time
			fire  func(time.Time)
			found bool
		)
		for _, t := range f.tickers {
			if t.stopped || t.next.After(target) {
				continue
			}
			if !found || t.next.Before(when) {
				when, fire, found = t.next, t.fire, true
			}
		}
		for _, t := range f.timers {
			if t.done || t.deadline.After(target) {
				continue
			}
			if !found || t.deadline.Before(when) {
				when, fire, found = t.deadline, t.fire, true
			}
		}
		if !found {
			break
		}
		f.now = when
		fire(when)
	}
	f.now = target
}

// LiveTickers returns the periods of tickers that have not been stopped.
func (f *Fake) LiveTickers() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var periods []time.Duration
	for _, t := range f.tickers {
		if !t.stopped {
			periods = append(periods, t.period)
		}
	}
	return periods
}

// PendingTimers returns how many one-shot timers are still armed.
func (f *Fake) PendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	clock   *Fake
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
	select {
	case <-t.ch:
	default:
	}
}

// fire runs with the clock lock held.
func (t *fakeTicker) fire(now time.Time) {
	select {
	case t.ch <- now:
	default:
	}
	t.next = t.next.Add(t.period)
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	ch       chan time.Time
	done     bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasArmed := !t.done
	t.done = true
	return wasArmed
}

func (t *fakeTimer) fire(now time.Time) {
	t.done = true
	select {
	case t.ch <- now:
	default:
	}
}
