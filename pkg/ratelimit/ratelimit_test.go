package ratelimit

import (
	"testing"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

func TestInvalidRulesDropped(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"empty tool name", Rule{ToolName: "", MaxCalls: 1, WindowSec: 1, Action: policy.Deny, Scope: ScopeGlobal}},
		{"zero max calls", Rule{ToolName: "exec", MaxCalls: 0, WindowSec: 1, Action: policy.Deny, Scope: ScopeGlobal}},
		{"zero window", Rule{ToolName: "exec", MaxCalls: 1, WindowSec: 0, Action: policy.Deny, Scope: ScopeGlobal}},
		{"action must be ASK or DENY", Rule{ToolName: "exec", MaxCalls: 1, WindowSec: 1, Action: policy.Allow, Scope: ScopeGlobal}},
		{"unrecognized scope", Rule{ToolName: "exec", MaxCalls: 1, WindowSec: 1, Action: policy.Deny, Scope: "bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New([]Rule{tt.rule})
			if len(l.rules) != 0 {
				t.Fatalf("expected rule to be dropped as invalid, got %d survivors", len(l.rules))
			}
		})
	}
}

func TestSlidingWindowHitAfterMaxCalls(t *testing.T) {
	l := New([]Rule{{ToolName: "exec", MaxCalls: 2, WindowSec: 10, Action: policy.Deny, Scope: ScopeGlobal}})

	r1 := l.Evaluate("exec", "", 0)
	if r1.Hit {
		t.Fatalf("call 1 should not hit")
	}
	r2 := l.Evaluate("exec", "", 1000)
	if r2.Hit {
		t.Fatalf("call 2 should not hit (maxCalls=2, this is the 2nd call)")
	}
	r3 := l.Evaluate("exec", "", 2000)
	if !r3.Hit {
		t.Fatalf("call 3 should hit")
	}
	if r3.Reason != "Rate limit exceeded (2 calls / 10s)." {
		t.Fatalf("reason = %q", r3.Reason)
	}
	if r3.Override != policy.Deny {
		t.Fatalf("override = %s, want DENY", r3.Override)
	}
}

func TestSlidingWindowExpiry(t *testing.T) {
	l := New([]Rule{{ToolName: "exec", MaxCalls: 1, WindowSec: 10, Action: policy.Ask, Scope: ScopeGlobal}})

	l.Evaluate("exec", "", 0)
	r2 := l.Evaluate("exec", "", 5000)
	if !r2.Hit {
		t.Fatalf("second call within window should hit")
	}
	r3 := l.Evaluate("exec", "", 11000)
	if r3.Hit {
		t.Fatalf("call after window expiry should not hit")
	}
}

func TestSessionScopeIsolatesBuckets(t *testing.T) {
	l := New([]Rule{{ToolName: "exec", MaxCalls: 1, WindowSec: 10, Action: policy.Deny, Scope: ScopeSession}})

	l.Evaluate("exec", "session-a", 0)
	rA := l.Evaluate("exec", "session-a", 1000)
	if !rA.Hit {
		t.Fatalf("session-a should hit on its second call")
	}
	rB := l.Evaluate("exec", "session-b", 1000)
	if rB.Hit {
		t.Fatalf("session-b has its own bucket and should not hit")
	}
}

func TestWildcardMatchesAllTools(t *testing.T) {
	l := New([]Rule{{ToolName: "*", MaxCalls: 1, WindowSec: 10, Action: policy.Deny, Scope: ScopeGlobal}})
	l.Evaluate("read", "", 0)
	r := l.Evaluate("write", "", 100)
	if !r.Hit {
		t.Fatalf("wildcard rule should apply across distinct tool names")
	}
}

func TestMostRestrictiveAmongHits(t *testing.T) {
	l := New([]Rule{
		{ToolName: "exec", MaxCalls: 1, WindowSec: 10, Action: policy.Ask, Scope: ScopeGlobal},
		{ToolName: "*", MaxCalls: 1, WindowSec: 10, Action: policy.Deny, Scope: ScopeGlobal},
	})
	l.Evaluate("exec", "", 0)
	r := l.Evaluate("exec", "", 100)
	if r.Override != policy.Deny {
		t.Fatalf("override = %s, want DENY (most restrictive of ASK and DENY)", r.Override)
	}
}
