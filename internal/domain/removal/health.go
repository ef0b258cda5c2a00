package removal

import (
	"sync"
	"time"

	"photopipe-server-go/internal/domain/removal/inter"
	"photopipe-server-go/internal/platform/config"
)

// HealthTracker maintains the health state of one backend.
//
// Transitions:
//
//	unknown     -> healthy      first recorded success
//	healthy     -> degraded     DegradedAfter consecutive failures
//	degraded    -> unavailable  failure rate over the rolling window
//	                            reaches FailureRateThreshold
//	unavailable -> healthy      a probe succeeds after the cooldown
//
// An unavailable backend is skipped until its cooldown elapses; then
// exactly one probe invocation is admitted. A failed probe restarts
// the cooldown.
type HealthTracker struct {
	mu sync.Mutex

	cfg config.HealthConfig
	now func() time.Time

	state       inter.HealthState
	consecutive int

	window    []bool
	windowIdx int
	windowLen int

	coolingSince  time.Time
	probeInFlight bool
}

func NewHealthTracker(cfg config.HealthConfig) *HealthTracker {
	return newHealthTracker(cfg, time.Now)
}

func newHealthTracker(cfg config.HealthConfig, now func() time.Time) *HealthTracker {
	if cfg.WindowSize < 1 {
		cfg.WindowSize = 1
	}
	return &HealthTracker{
		cfg:    cfg,
		now:    now,
		state:  inter.StateUnknown,
		window: make([]bool, cfg.WindowSize),
	}
}

// State returns the current health state.
func (h *HealthTracker) State() inter.HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Eligible reports whether the backend may be invoked now. For an
// unavailable backend it admits a single probe once the cooldown has
// elapsed and reserves it, so concurrent callers cannot double-probe.
func (h *HealthTracker) Eligible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != inter.StateUnavailable {
		return true
	}
	if h.probeInFlight {
		return false
	}
	if h.now().Sub(h.coolingSince) < h.cfg.CoolDown {
		return false
	}
	h.probeInFlight = true
	return true
}

// RecordSuccess records a successful invocation.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.push(true)
	h.consecutive = 0
	h.probeInFlight = false
	h.state = inter.StateHealthy
}

// RecordFailure records a failed invocation and advances the state
// machine.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.push(false)
	h.consecutive++
	h.probeInFlight = false

	switch h.state {
	case inter.StateUnavailable:
		// failed probe: restart the cooldown
		h.coolingSince = h.now()
	case inter.StateDegraded:
		if h.failureRate() >= h.cfg.FailureRateThreshold {
			h.state = inter.StateUnavailable
			h.coolingSince = h.now()
		}
	default:
		if h.consecutive >= h.cfg.DegradedAfter {
			h.state = inter.StateDegraded
		}
	}
}

// FailureRate returns the failure fraction over the rolling window.
func (h *HealthTracker) FailureRate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failureRate()
}

func (h *HealthTracker) push(success bool) {
	h.window[h.windowIdx] = success
	h.windowIdx = (h.windowIdx + 1) % len(h.window)
	if h.windowLen < len(h.window) {
		h.windowLen++
	}
}

func (h *HealthTracker) failureRate() float64 {
	if h.windowLen == 0 {
		return 0
	}
	failures := 0
	for i := 0; i < h.windowLen; i++ {
		if !h.window[i] {
			failures++
		}
	}
	return float64(failures) / float64(h.windowLen)
}
