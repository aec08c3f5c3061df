package ris

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// serverDirected is a backoff.BackOff that waits exactly as long as the last
// 429 response asked for. It never gives up.
type serverDirected struct {
	next time.Duration
}

func (s *serverDirected) NextBackOff() time.Duration { return s.next }

func (s *serverDirected) Reset() { s.next = defaultRetryAfter }

// clockTimer adapts a clockwork.Clock to backoff.Timer so waits can be
// driven by a fake clock in tests.
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func newClockTimer(clock clockwork.Clock) *clockTimer {
	return &clockTimer{clock: clock}
}

func (t *clockTimer) Start(d time.Duration) {
	t.Stop()
	t.timer = t.clock.NewTimer(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.Chan()
}
