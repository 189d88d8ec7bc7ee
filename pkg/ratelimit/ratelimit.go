// Package ratelimit implements the firewall's per-(tool,scope) sliding
// window call limiter (C8 in spec.md §4.7). It deliberately does not use
// golang.org/x/time/rate.Limiter: that type is a token bucket with a
// continuous refill rate, while spec.md §4.7 pins an exact
// drop-expired/count/append sliding-window algorithm over a fixed
// window — a shape a token bucket cannot reproduce exactly (see
// DESIGN.md).
package ratelimit

import (
	"fmt"
	"sync"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

// Rule is one configured rate-limit entry (spec.md §4.7). ToolName "*" or
// "all" matches every tool.
type Rule struct {
	ToolName  string
	MaxCalls  int
	WindowSec int
	Action    policy.Decision // ASK or DENY
	Scope     Scope
}

// Scope selects how the sliding-window bucket key is derived.
type Scope string

const (
	ScopeSession Scope = "session"
	ScopeGlobal  Scope = "global"
)

// Valid reports whether a configured Rule satisfies spec.md §4.7's
// validity contract: non-empty name, positive counters, recognized
// action and scope. Invalid entries are silently dropped by NewLimiter.
func (r Rule) Valid() bool {
	if r.ToolName == "" || r.MaxCalls <= 0 || r.WindowSec <= 0 {
		return false
	}
	if r.Action != policy.Ask && r.Action != policy.Deny {
		return false
	}
	return r.Scope == ScopeSession || r.Scope == ScopeGlobal
}

func (r Rule) matches(toolName string) bool {
	return r.ToolName == "*" || r.ToolName == "all" || r.ToolName == toolName
}

// Result is the limiter's verdict across every matching rule.
type Result struct {
	Hit      bool
	Override policy.Decision
	Reason   string
}

// Limiter holds the sliding-window state for a fixed set of rules.
type Limiter struct {
	mu      sync.Mutex
	rules   []Rule
	buckets map[bucketKey][]int64 // ordered timestamps, milliseconds
}

type bucketKey struct {
	ruleIndex int
	scopeKey  string
}

// New constructs a Limiter, silently dropping invalid entries per
// spec.md §4.7.
func New(rules []Rule) *Limiter {
	l := &Limiter{buckets: make(map[bucketKey][]int64)}
	for _, r := range rules {
		if r.Valid() {
			l.rules = append(l.rules, r)
		}
	}
	return l
}

// Evaluate records a call to toolName at nowMillis and reports the most
// restrictive override among matching rules that were already at
// capacity before this call (spec.md §4.7). sessionKey is used for
// session-scoped rules; pass "" when there is no session.
func (l *Limiter) Evaluate(toolName, sessionKey string, nowMillis int64) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	var best Result
	for i, rule := range l.rules {
		if !rule.matches(toolName) {
			continue
		}
		scopeKey := scopeKeyFor(rule.Scope, sessionKey)
		key := bucketKey{ruleIndex: i, scopeKey: scopeKey}

		windowMillis := int64(rule.WindowSec) * 1000
		bucket := l.buckets[key]
		bucket = dropExpired(bucket, nowMillis-windowMillis)

		hit := len(bucket) >= rule.MaxCalls
		bucket = append(bucket, nowMillis)
		l.buckets[key] = bucket

		if hit {
			reason := fmt.Sprintf("Rate limit exceeded (%d calls / %ds).", rule.MaxCalls, rule.WindowSec)
			candidate := Result{Hit: true, Override: rule.Action, Reason: reason}
			best = mostRestrictive(best, candidate)
		}
	}
	return best
}

func scopeKeyFor(scope Scope, sessionKey string) string {
	if scope == ScopeGlobal {
		return "global"
	}
	if sessionKey == "" {
		return "no-session"
	}
	return sessionKey
}

// dropExpired removes timestamps strictly older than cutoff, preserving
// order (the slice is already ordered by append).
func dropExpired(bucket []int64, cutoff int64) []int64 {
	i := 0
	for i < len(bucket) && bucket[i] < cutoff {
		i++
	}
	if i == 0 {
		return bucket
	}
	out := make([]int64, len(bucket)-i)
	copy(out, bucket[i:])
	return out
}

// mostRestrictive picks the higher-ranked (DENY > ASK) of two hit
// results, keeping the first non-hit Result{} as the identity.
func mostRestrictive(a, b Result) Result {
	if !a.Hit {
		return b
	}
	if !b.Hit {
		return a
	}
	if b.Override.Rank() > a.Override.Rank() {
		return b
	}
	return a
}
