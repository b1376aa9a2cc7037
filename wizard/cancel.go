package wizard

import (
	"sync/atomic"
	"time"
)

// Canceller implements cooperative cancellation through a monotonically
// increasing abort epoch. Bumping the epoch signals that anything still
// waiting on an older epoch must stop at its next check point. There is no
// forceful abort: in-flight collaborator calls may complete, but their
// results are discarded once the epoch has advanced.
type Canceller struct {
	epoch atomic.Int64
}

// Epoch returns the current abort epoch.
func (c *Canceller) Epoch() int64 {
	return c.epoch.Load()
}

// Abort bumps the epoch, invalidating every outstanding Token.
func (c *Canceller) Abort() int64 {
	return c.epoch.Add(1)
}

// Snapshot captures the current epoch as a Token to pass into suspension
// points.
func (c *Canceller) Snapshot() Token {
	return Token{c: c, epoch: c.epoch.Load()}
}

// Token is an epoch snapshot checked at every suspension point. The zero
// Token never aborts, which keeps handler unit tests free of ceremony.
type Token struct {
	c     *Canceller
	epoch int64
}

// Aborted reports whether the epoch has advanced past this snapshot.
func (t Token) Aborted() bool {
	return t.c != nil && t.c.Epoch() != t.epoch
}

// waitTicks is how many slices a Wait splits its duration into, so aborts
// are noticed at sub-second granularity even for long waits.
const waitTicks = 10

// Wait sleeps for roughly d, checking for abort between short ticks.
// Returns false immediately when the token is aborted, true once the full
// duration has elapsed.
func (t Token) Wait(d time.Duration) bool {
	if d <= 0 {
		return !t.Aborted()
	}

	tick := d / waitTicks
	if tick < time.Millisecond {
		tick = time.Millisecond
	}

	deadline := time.Now().Add(d)
	for {
		if t.Aborted() {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		if remaining < tick {
			time.Sleep(remaining)
		} else {
			time.Sleep(tick)
		}
	}
}
