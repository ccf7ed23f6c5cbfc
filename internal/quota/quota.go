// Package quota tracks the exchange's rate-limit windows locally and
// decides whether a request may be sent before it is, so that the gateway
// backs off on its own rather than discovering it is banned from a 429
// (spec §4.5).
package quota

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/nand0san/panzer-go/internal/buckets"
	"github.com/nand0san/panzer-go/internal/clocksync"
	"github.com/nand0san/panzer-go/internal/panzererr"
)

// Metrics is the subset of observability hooks the accountant drives. A nil
// Metrics is valid — every method is called through a nil-safe helper — so
// callers that do not care about instrumentation may omit it entirely.
type Metrics interface {
	SetWindowUsage(window string, used, limit int)
	IncAdmission(window, outcome string)
	IncReconciliation(header string)
}

// allowed x-mbx-* headers, per spec §4.5. Headers outside this set trip
// UnknownRateHeaderError. The three reconciled headers double as map keys
// below; the rest are accepted but carry no local counterpart to
// reconcile against.
const (
	headerUsedWeight1m  = "x-mbx-used-weight-1m"
	headerOrderCount10s = "x-mbx-order-count-10s"
	headerOrderCount1d  = "x-mbx-order-count-1d"
	headerUsedWeight    = "x-mbx-used-weight"
	headerUUID          = "x-mbx-uuid"
	headerTraceID       = "x-mbx-traceid"
)

var allowedHeaders = map[string]bool{
	headerUsedWeight1m:  true,
	headerOrderCount10s: true,
	headerOrderCount1d:  true,
	headerUsedWeight:    true,
	headerUUID:          true,
	headerTraceID:       true,
}

// DefaultSleepCap and DefaultDriftWarnMillis are used when New is called
// with a zero-value sleepCap/driftWarnMillis, so existing callers that
// construct an Accountant without reading a config.Config keep working.
const (
	DefaultSleepCap        = 60 * time.Second
	DefaultDriftWarnMillis = 1000
)

// Accountant is the single point of admission control for outbound
// requests. It is safe for concurrent use; a single mutex serializes all
// state transitions, matching the single-writer discipline spec §5 asks
// for across the gateway's shared state.
type Accountant struct {
	mu sync.Mutex

	limits Limits

	minuteWeight map[buckets.Index]int
	fiveMinRaw   map[buckets.Index]int
	tenSecOrders map[buckets.Index]int
	dayOrders    map[buckets.Index]int

	nextMinuteClean buckets.Index
	nextHourClean   buckets.Index
	housekeepingSet bool

	clock       *clocksync.Clock
	log         logr.Logger
	metrics     Metrics
	sleepCap    time.Duration
	driftWarnMs int

	nowFn func() int64
}

// New returns an Accountant enforcing limits, using clock to translate
// wall-clock time into the exchange's corrected "now". metrics may be nil.
// sleepCap bounds a single WaitUntilAdmissible sleep (config.Config's
// HousekeepingSleepCap; zero defaults to DefaultSleepCap). driftWarnMs is
// the reconciliation delta past which a drift is logged at a higher
// severity (config.Config's ClockDriftWarnMillis; zero defaults to
// DefaultDriftWarnMillis).
func New(limits Limits, clock *clocksync.Clock, log logr.Logger, metrics Metrics, sleepCap time.Duration, driftWarnMs int) *Accountant {
	if sleepCap <= 0 {
		sleepCap = DefaultSleepCap
	}
	if driftWarnMs <= 0 {
		driftWarnMs = DefaultDriftWarnMillis
	}
	return &Accountant{
		limits:       limits,
		minuteWeight: make(map[buckets.Index]int),
		fiveMinRaw:   make(map[buckets.Index]int),
		tenSecOrders: make(map[buckets.Index]int),
		dayOrders:    make(map[buckets.Index]int),
		clock:        clock,
		log:          log,
		metrics:      metrics,
		sleepCap:     sleepCap,
		driftWarnMs:  driftWarnMs,
		nowFn:        clock.Now,
	}
}

// SetLimits replaces the enforced limits, e.g. after an exchangeInfo
// refresh supersedes the built-in or config-supplied defaults. It does
// not touch any window counter.
func (a *Accountant) SetLimits(limits Limits) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limits = limits
}

// CanMake is the admission operation. It evaluates, and where the window
// permits it commits against, the four windows in the fixed order spec
// §4.5 mandates. A false early-out still leaves every window checked
// before it committed — this is the "partial commit on rejection" the
// design notes call out explicitly: admission bookkeeping is
// conservative, never symmetric.
func (a *Accountant) CanMake(weight int, isOrder bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFn()
	minuteIdx := buckets.Minute(now)
	fiveMinIdx := buckets.FiveMinutes(now)
	tenSecIdx := buckets.TenSeconds(now)
	dayIdx := buckets.Day(now)

	if a.minuteWeight[minuteIdx]+weight > a.limits.WeightPerMinute {
		a.recordAdmission("weight", false)
		return false
	}
	a.minuteWeight[minuteIdx] += weight
	a.recordAdmission("weight", true)

	if a.fiveMinRaw[fiveMinIdx]+1 > a.limits.RawPerFiveMinutes {
		a.recordAdmission("raw", false)
		return false
	}
	a.fiveMinRaw[fiveMinIdx]++
	a.recordAdmission("raw", true)

	if isOrder {
		if a.tenSecOrders[tenSecIdx]+1 > a.limits.OrdersPerTenSeconds {
			a.recordAdmission("orders10s", false)
			return false
		}
		a.tenSecOrders[tenSecIdx]++
		a.recordAdmission("orders10s", true)

		if a.dayOrders[dayIdx]+1 > a.limits.OrdersPerDay {
			a.recordAdmission("ordersDay", false)
			return false
		}
		a.dayOrders[dayIdx]++
		a.recordAdmission("ordersDay", true)
	}

	a.houseKeepLocked(minuteIdx, tenSecIdx, fiveMinIdx, dayIdx, buckets.Hour(now))

	a.publishUsageLocked(minuteIdx, fiveMinIdx, tenSecIdx, dayIdx)

	return true
}

func (a *Accountant) recordAdmission(window string, ok bool) {
	outcome := "rejected"
	if ok {
		outcome = "admitted"
	}
	if a.metrics != nil {
		a.metrics.IncAdmission(window, outcome)
	}
}

func (a *Accountant) publishUsageLocked(minuteIdx, fiveMinIdx, tenSecIdx, dayIdx buckets.Index) {
	if a.metrics == nil {
		return
	}
	a.metrics.SetWindowUsage("weightPerMinute", a.minuteWeight[minuteIdx], a.limits.WeightPerMinute)
	a.metrics.SetWindowUsage("rawPerFiveMinutes", a.fiveMinRaw[fiveMinIdx], a.limits.RawPerFiveMinutes)
	a.metrics.SetWindowUsage("ordersPerTenSeconds", a.tenSecOrders[tenSecIdx], a.limits.OrdersPerTenSeconds)
	a.metrics.SetWindowUsage("ordersPerDay", a.dayOrders[dayIdx], a.limits.OrdersPerDay)
}

// houseKeepLocked prunes counter entries for buckets that have rolled off
// and, if either watermark was crossed, triggers a clock resync. Pruning
// retains the current and immediately preceding index of each window —
// a request admitted right at turnover must still see both the old and
// new bucket (spec scenario S4) — and discards anything older. Callers
// must hold a.mu.
func (a *Accountant) houseKeepLocked(minuteIdx, tenSecIdx, fiveMinIdx, dayIdx, hourIdx buckets.Index) {
	if !a.housekeepingSet {
		a.nextMinuteClean = minuteIdx
		a.nextHourClean = hourIdx
		a.housekeepingSet = true
		return
	}

	crossedMinute := minuteIdx > a.nextMinuteClean
	crossedHour := hourIdx > a.nextHourClean

	if !crossedMinute && !crossedHour {
		return
	}

	if crossedMinute {
		pruneOlderThan(a.minuteWeight, minuteIdx-1)
		pruneOlderThan(a.tenSecOrders, tenSecIdx-1)
		a.nextMinuteClean = minuteIdx
	}

	if crossedHour {
		pruneOlderThan(a.fiveMinRaw, fiveMinIdx-1)
		pruneOlderThan(a.dayOrders, dayIdx-1)
		a.nextHourClean = hourIdx
	}

	a.triggerResyncLocked()
}

func pruneOlderThan(window map[buckets.Index]int, keepFrom buckets.Index) {
	for idx := range window {
		if idx < keepFrom {
			delete(window, idx)
		}
	}
}

// triggerResyncLocked asks the clock to resync without releasing a.mu, so
// the resync can never race a concurrent CanMake against the same
// counters it is about to prune — scenario S6 depends on this: a resync
// triggered from here touches only the clock offset, never the window
// maps. The refresh itself counts against the weight-per-minute and
// raw-per-5-minutes windows, so it is skipped (and a warning logged)
// whenever the accountant is already saturated — otherwise housekeeping
// would keep trying to resync under load, the exact death spiral spec
// §4.4 calls out.
func (a *Accountant) triggerResyncLocked() {
	if a.saturatedLocked() {
		a.log.Info("skipping clock resync: accountant saturated, bypassing to avoid a death spiral under load")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := a.clock.Refresh(ctx); err != nil {
		a.log.Error(err, "housekeeping clock resync failed")
	}
}

// Saturated reports whether either window a clock refresh consumes
// (weight-per-minute, raw-per-5-minutes) is already at its limit. Callers
// that trigger Clock.Refresh outside of housekeeping — e.g. an explicit
// RefreshClock — MUST check this first and skip the refresh, logging a
// bypass instead, per spec §4.4.
func (a *Accountant) Saturated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saturatedLocked()
}

// saturatedLocked is Saturated's body for callers that already hold a.mu.
func (a *Accountant) saturatedLocked() bool {
	now := a.nowFn()
	minuteIdx := buckets.Minute(now)
	fiveMinIdx := buckets.FiveMinutes(now)
	return a.minuteWeight[minuteIdx] >= a.limits.WeightPerMinute || a.fiveMinRaw[fiveMinIdx] >= a.limits.RawPerFiveMinutes
}

// UpdateFromHeaders reconciles local counters against the exchange's own
// bookkeeping, making the server authoritative whenever it speaks (spec
// §4.5). Header names are matched case-insensitively. A malformed value on
// a recognized header is logged and skipped; any x-mbx-* header outside
// the allowlist is reported via UnknownRateHeaderError after every
// recognized header in the batch has still been reconciled.
func (a *Accountant) UpdateFromHeaders(headers map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFn()
	var unknown *panzererr.UnknownRateHeaderError

	for name, value := range headers {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "x-mbx-") {
			continue
		}
		if !allowedHeaders[lower] {
			if unknown == nil {
				unknown = &panzererr.UnknownRateHeaderError{Header: name}
			}
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			a.log.V(1).Info("ignoring unparseable rate-limit header", "header", name, "value", value)
			continue
		}

		switch lower {
		case headerUsedWeight1m:
			a.reconcileLocked("weightPerMinute", a.minuteWeight, buckets.Minute(now), n)
		case headerOrderCount10s:
			a.reconcileLocked("ordersPerTenSeconds", a.tenSecOrders, buckets.TenSeconds(now), n)
		case headerOrderCount1d:
			a.reconcileLocked("ordersPerDay", a.dayOrders, buckets.Day(now), n)
		}
	}

	if unknown != nil {
		return unknown
	}
	return nil
}

func (a *Accountant) reconcileLocked(label string, window map[buckets.Index]int, idx buckets.Index, serverValue int) {
	prior := window[idx]
	if prior == serverValue {
		return
	}
	delta := serverValue - prior
	window[idx] = serverValue

	if abs(delta) >= a.driftWarnMs {
		a.log.Info("reconciled rate-limit window from server headers: drift exceeds warn threshold", "window", label, "bucket", int64(idx), "prior", prior, "server", serverValue, "delta", delta, "warnThresholdMs", a.driftWarnMs)
	} else {
		a.log.V(1).Info("reconciled rate-limit window from server headers", "window", label, "bucket", int64(idx), "prior", prior, "server", serverValue, "delta", delta)
	}

	if a.metrics != nil {
		a.metrics.IncReconciliation(label)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// WaitUntilAdmissible blocks until CanMake(weight, isOrder) would likely
// succeed, or ctx is done. Each sleep lasts until the first saturated
// window's next bucket boundary, capped at a.sleepCap, after which the
// windows are checked again — on return the caller still must call
// CanMake to actually admit the request, since state may have changed.
func (a *Accountant) WaitUntilAdmissible(ctx context.Context, weight int, isOrder bool) error {
	for {
		wait, ok := a.nextAdmissibleWait(weight, isOrder)
		if !ok {
			return nil
		}
		if wait > a.sleepCap {
			wait = a.sleepCap
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextAdmissibleWait reports whether any tracked window is currently
// saturated for the given request shape, and if so how long until the
// first saturated window's bucket boundary.
func (a *Accountant) nextAdmissibleWait(weight int, isOrder bool) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFn()

	if a.minuteWeight[buckets.Minute(now)]+weight > a.limits.WeightPerMinute {
		return untilNextBoundary(now, 60000), true
	}
	if a.fiveMinRaw[buckets.FiveMinutes(now)]+1 > a.limits.RawPerFiveMinutes {
		return untilNextBoundary(now, 5*60000), true
	}
	if isOrder {
		if a.tenSecOrders[buckets.TenSeconds(now)]+1 > a.limits.OrdersPerTenSeconds {
			return untilNextBoundary(now, 10000), true
		}
		if a.dayOrders[buckets.Day(now)]+1 > a.limits.OrdersPerDay {
			return untilNextBoundary(now, 24*3600000), true
		}
	}
	return 0, false
}

func untilNextBoundary(nowMs int64, windowMs int64) time.Duration {
	rem := windowMs - (nowMs % windowMs)
	return time.Duration(rem) * time.Millisecond
}
