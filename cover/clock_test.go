package cover

import (
	"sync"
	"time"
)

type fakeClock struct {
	lock   sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (t *fakeTimer) Stop() bool {
	t.clock.lock.Lock()
	defer t.clock.lock.Unlock()

	active := !t.stopped && !t.fired
	t.stopped = true

	return active
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.lock.Lock()
	defer c.lock.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves time forward, running every timer that falls due in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	target := c.now.Add(d)
	c.lock.Unlock()

	for {
		c.lock.Lock()

		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}

			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}

		if next == nil {
			c.now = target
			c.lock.Unlock()
			return
		}

		next.fired = true
		c.now = next.at
		c.lock.Unlock()

		next.f()
	}
}

func (c *fakeClock) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	count := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			count++
		}
	}

	return count
}
