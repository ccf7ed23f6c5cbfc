// Package clocksync estimates and maintains the signed millisecond offset
// between the local wall clock and the exchange's clock (spec §4.4). The
// offset starts at zero and is refreshed on demand; callers add it to
// local timestamps before bucketing or signing so that admission and
// signatures are computed against the exchange's notion of "now".
package clocksync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// TimeFetcher retrieves the exchange's current time in milliseconds since
// the epoch. It is the one piece of network I/O this package performs; in
// production it is backed by a GET to the exchange's time endpoint, and in
// tests by a fake.
type TimeFetcher interface {
	FetchServerTimeMillis(ctx context.Context) (int64, error)
}

// Clock maintains a signed offset between the local clock and the
// exchange's. It is safe for concurrent use.
type Clock struct {
	offset int64 // milliseconds, accessed atomically
	fetch  TimeFetcher
	log    logr.Logger
	nowFn  func() int64
}

// New returns a Clock with a zero offset.
func New(fetch TimeFetcher, log logr.Logger) *Clock {
	return &Clock{
		fetch: fetch,
		log:   log,
		nowFn: nowMillis,
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Offset returns the current signed offset in milliseconds.
func (c *Clock) Offset() int64 {
	return atomic.LoadInt64(&c.offset)
}

// Now returns the local wall clock corrected by the current offset — the
// gateway's best estimate of the exchange's current time.
func (c *Clock) Now() int64 {
	return c.nowFn() + c.Offset()
}

// Refresh issues a GET to the exchange's time endpoint and sets
// offset = serverMs - localMs, returning the new offset. Clock performs no
// admission control of its own — callers on a quota-adjacent path MUST
// gate calls to Refresh themselves against quota.Accountant.Saturated
// (spec §4.4: "this prevents a death spiral under load"); see
// quota.Accountant's housekeeping resync and panzer.Client.RefreshClock
// for the two call sites that do this.
func (c *Clock) Refresh(ctx context.Context) (int64, error) {
	localBefore := c.nowFn()
	serverMs, err := c.fetch.FetchServerTimeMillis(ctx)
	if err != nil {
		return c.Offset(), fmt.Errorf("clocksync: fetching server time: %w", err)
	}

	newOffset := serverMs - localBefore
	atomic.StoreInt64(&c.offset, newOffset)
	c.log.Info("refreshed server clock offset", "offsetMillis", newOffset)

	return newOffset, nil
}
