package gatekeeper

import "sync"

// BreakerAction selects what happens once a breaker trips.
type BreakerAction string

const (
	// ActionWarn logs the trip but keeps evaluating calls normally.
	ActionWarn BreakerAction = "warn"
	// ActionSuspend blocks every subsequent call for the life of the
	// Gatekeeper instance, regardless of its rule set.
	ActionSuspend BreakerAction = "suspend"
)

// BreakerConfig configures the sliding-window circuit breaker that watches
// how often a session's tool calls get blocked.
type BreakerConfig struct {
	// MaxBlocked is how many blocked calls within Window trip the breaker.
	// Zero or negative disables the breaker entirely.
	MaxBlocked int
	// WindowMillis is the sliding window width, in milliseconds.
	WindowMillis int64
	Action       BreakerAction
}

// breaker is a sliding-window counter of blocked-call timestamps, built the
// same way the teacher's rate limiter tracks per-account request
// timestamps: prune anything older than the window, then check, then
// record. Here it tracks one session-wide key rather than a map of
// per-account windows, since a Gatekeeper instance is already scoped to a
// single session per the immutable-per-session lifecycle. There is no
// sticky "tripped" flag: whether the breaker is open is recomputed from
// the pruned timestamp count on every call, so a suspend-action breaker
// returns to normal on its own once the blocked calls that tripped it age
// out of the window, exactly like the rate limiter it is grounded on.
type breaker struct {
	mu         sync.Mutex
	timestamps []int64
	cfg        BreakerConfig
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{cfg: cfg}
}

// enabled reports whether the breaker does anything at all.
func (b *breaker) enabled() bool {
	return b.cfg.MaxBlocked > 0
}

// prune drops timestamps older than the sliding window as of nowMillis.
// Caller must hold b.mu.
func (b *breaker) prune(nowMillis int64) {
	cutoff := nowMillis - b.cfg.WindowMillis
	pruned := b.timestamps[:0]
	for _, ts := range b.timestamps {
		if ts > cutoff {
			pruned = append(pruned, ts)
		}
	}
	b.timestamps = pruned
}

// isTripped prunes stale timestamps as of nowMillis and reports whether
// the breaker is currently open (only meaningful for ActionSuspend; a
// warn-action breaker never blocks calls on its own).
func (b *breaker) isTripped(nowMillis int64) bool {
	if !b.enabled() || b.cfg.Action != ActionSuspend {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(nowMillis)
	return len(b.timestamps) >= b.cfg.MaxBlocked
}

// recordBlock records a blocked call at time nowMillis and reports whether
// the breaker is open (tripped) as of this call, after recording it.
func (b *breaker) recordBlock(nowMillis int64) bool {
	if !b.enabled() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune(nowMillis)
	b.timestamps = append(b.timestamps, nowMillis)

	return len(b.timestamps) >= b.cfg.MaxBlocked
}
