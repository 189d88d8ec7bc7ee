package firewallcfg

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ThrottledLogger wraps a *zap.SugaredLogger so repeated warnings with the
// same message key log at most once per interval (SPEC_FULL.md §3.1:
// "at most once per 10s per distinct message key"), using
// golang.org/x/time/rate.Sometimes — the teacher's dependency, repurposed
// here rather than dropped (see DESIGN.md). PolicyHolder is the sole
// production caller, via its warnLog field.
type ThrottledLogger struct {
	base     *zap.SugaredLogger
	interval time.Duration

	mu        sync.Mutex
	sometimes map[string]*rate.Sometimes
}

// NewThrottledLogger wraps base with the given per-key throttle interval.
// A nil base defaults to a no-op logger, matching Descriptor.logger.
func NewThrottledLogger(base *zap.SugaredLogger, interval time.Duration) *ThrottledLogger {
	if base == nil {
		base = zap.NewNop().Sugar()
	}
	return &ThrottledLogger{base: base, interval: interval, sometimes: make(map[string]*rate.Sometimes)}
}

// Warnw logs at Warn level, at most once per t.interval for a given key,
// regardless of how often Warnw(key, ...) is called in that window.
func (t *ThrottledLogger) Warnw(key, msg string, keysAndValues ...any) {
	t.gate(key).Do(func() {
		t.base.Warnw(msg, keysAndValues...)
	})
}

// gate returns the *rate.Sometimes throttle for key, creating it on first use.
func (t *ThrottledLogger) gate(key string) *rate.Sometimes {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sometimes[key]
	if !ok {
		s = &rate.Sometimes{Interval: t.interval}
		t.sometimes[key] = s
	}
	return s
}
