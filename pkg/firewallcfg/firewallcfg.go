// Package firewallcfg holds the firewall's single construction-time
// descriptor (spec.md §9 "Configuration passing"): every subsystem
// receives its dependencies through this struct rather than through
// global state, and policy hot-reload lives here because it is purely a
// configuration concern, not a pipeline one.
package firewallcfg

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/arangogutierrez/toolfirewall/pkg/pathguard"
	"github.com/arangogutierrez/toolfirewall/pkg/policy"
	"github.com/arangogutierrez/toolfirewall/pkg/ratelimit"
)

// warnThrottleInterval is SPEC_FULL.md §3.1's "at most once per 10s
// per distinct message key" window for repeated configuration warnings.
const warnThrottleInterval = 10 * time.Second

// Descriptor is the plugin-config surface consumed from the host
// (spec.md §6 "Plugin config fields") plus the injected capabilities
// spec.md §9 requires (path resolver, logger).
type Descriptor struct {
	Preset          string
	PolicyPath      string
	StateDir        string
	MaxResultChars  int
	MaxResultAction string // "truncate" | "block"
	AuditOnStart    bool
	RateLimits      []ratelimit.Rule
	PathResolver    pathguard.Resolver
	Logger          *zap.SugaredLogger
	// WatchPolicy enables fsnotify-based hot reload of PolicyPath
	// (SPEC_FULL.md §3.3/§5, item 1); false by default so callers that
	// only need a one-shot load don't pay for a watcher goroutine.
	WatchPolicy bool
}

// logger returns d.Logger, defaulting to a no-op sugared logger so the
// library never forces a logging backend on embedders (SPEC_FULL.md §3.1).
func (d *Descriptor) logger() *zap.SugaredLogger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop().Sugar()
}

// PolicyHolder serves the live *policy.Policy, updated in place by
// hot-reload when WatchPolicy is enabled, without ever serving a
// half-parsed policy on a failed reload.
type PolicyHolder struct {
	current atomic.Pointer[policy.Policy]
	desc    *Descriptor
	// warnLog throttles the repeated config/watch warnings below so a
	// flapping policy file or a stuck watcher doesn't spam the log once
	// per event; see ThrottledLogger.
	warnLog *ThrottledLogger
}

// NewPolicyHolder loads the policy once per Descriptor per spec.md §4.3,
// logging (and otherwise ignoring) any ConfigLoadError/PolicyValidationWarning
// per spec.md §7 — the returned holder always carries a usable policy.
func NewPolicyHolder(d *Descriptor) *PolicyHolder {
	h := &PolicyHolder{desc: d, warnLog: NewThrottledLogger(d.logger(), warnThrottleInterval)}
	h.load()
	if d.WatchPolicy && d.PolicyPath != "" {
		h.watch()
	}
	return h
}

// Policy returns the currently active policy.
func (h *PolicyHolder) Policy() *policy.Policy {
	return h.current.Load()
}

func (h *PolicyHolder) load() {
	res := policy.LoadFromFile(h.desc.Preset, h.desc.PolicyPath)
	for _, w := range res.Warnings {
		h.warnLog.Warnw("policy validation warning: "+w.Field, "policy validation warning", "field", w.Field, "message", w.Message)
	}
	if res.LoadErr != nil {
		h.warnLog.Warnw("policy config load error", "policy config load error, continuing with fallback", "error", res.LoadErr)
		// A failed reload never replaces an already-serving policy with a
		// bare preset/default fallback (SPEC_FULL.md §3.3: "a failed
		// reload is logged and the prior policy is kept"). Only the
		// initial load, where there is no prior policy to keep, falls
		// through to store the fallback.
		if h.current.Load() != nil {
			return
		}
	}
	h.current.Store(res.Policy)
	if h.desc.AuditOnStart {
		h.auditDump(res.Policy)
	}
}

// auditDump logs a one-shot structured summary of the loaded policy
// (SPEC_FULL.md §5 item 4): tool count, defaults, risk map.
func (h *PolicyHolder) auditDump(p *policy.Policy) {
	h.desc.logger().Infow("policy loaded",
		"mode", p.Mode,
		"toolCount", len(p.ToolNames()),
		"denyUnknownTools", p.Defaults.DenyUnknown(),
		"unknownToolAction", p.Defaults.UnknownToolAction,
		"redaction", p.Defaults.Redaction,
		"injectionMode", p.Defaults.Injection.Mode,
	)
}
