package decision

import (
	"testing"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

func loadTestPolicy(t *testing.T, yaml string) *policy.Policy {
	t.Helper()
	res := policy.Load("", []byte(yaml))
	if res.LoadErr != nil {
		t.Fatalf("unexpected load error: %v", res.LoadErr)
	}
	return res.Policy
}

func TestEvaluateKnownTool(t *testing.T) {
	p := loadTestPolicy(t, "")
	got := Evaluate(p, ToolCall{Name: "read"})
	if got.Decision != policy.Allow {
		t.Fatalf("decision = %s, want ALLOW", got.Decision)
	}
	want := `Tool "read" (read) resolved to ALLOW.`
	if got.Reason != want {
		t.Fatalf("reason = %q, want %q", got.Reason, want)
	}
}

func TestEvaluateUnknownToolDenied(t *testing.T) {
	p := loadTestPolicy(t, "")
	got := Evaluate(p, ToolCall{Name: "totally_unknown_tool"})
	if got.Decision != policy.Deny {
		t.Fatalf("decision = %s, want DENY", got.Decision)
	}
	want := `Unknown tool "totally_unknown_tool" denied by default policy.`
	if got.Reason != want {
		t.Fatalf("reason = %q, want %q", got.Reason, want)
	}
}

func TestEvaluateUnknownToolNonDenyDefaults(t *testing.T) {
	p := loadTestPolicy(t, `
defaults:
  denyUnknownTools: false
risk:
  unknown: ask
`)
	got := Evaluate(p, ToolCall{Name: "mystery"})
	want := `Unknown tool "mystery" resolved to ASK by default policy.`
	if got.Reason != want {
		t.Fatalf("reason = %q, want %q", got.Reason, want)
	}
}

func TestEvaluatePurity(t *testing.T) {
	p := loadTestPolicy(t, "")
	call := ToolCall{Name: "exec", Params: map[string]any{"cmd": "ls"}}
	a := Evaluate(p, call)
	b := Evaluate(p, call)
	if a != b {
		t.Fatalf("Evaluate not pure: %+v != %+v", a, b)
	}
}

func TestApplyExecDelegate(t *testing.T) {
	p := loadTestPolicy(t, `
risk:
  critical: ask
`)
	got := Evaluate(p, ToolCall{Name: "exec"})
	if got.Decision != policy.Ask {
		t.Fatalf("precondition: decision = %s, want ASK", got.Decision)
	}
	rewritten := ApplyExecDelegate(got, "exec")
	if rewritten.Decision != policy.Allow {
		t.Fatalf("decision = %s, want ALLOW", rewritten.Decision)
	}
	if rewritten.Reason != ExecDelegateReason {
		t.Fatalf("reason = %q, want %q", rewritten.Reason, ExecDelegateReason)
	}
}

func TestApplyExecDelegateNoOpWhenNotAsk(t *testing.T) {
	p := loadTestPolicy(t, `
risk:
  critical: deny
`)
	got := Evaluate(p, ToolCall{Name: "exec"})
	rewritten := ApplyExecDelegate(got, "exec")
	if rewritten != got {
		t.Fatalf("expected no-op rewrite, got %+v vs %+v", rewritten, got)
	}
}

func TestApplyExecDelegateNoOpForOtherTools(t *testing.T) {
	p := loadTestPolicy(t, `
tools:
  - name: browser
    risk: write
    useExecApprovals: true
risk:
  write: ask
`)
	got := Evaluate(p, ToolCall{Name: "browser"})
	if got.Decision != policy.Ask {
		t.Fatalf("precondition: decision = %s, want ASK", got.Decision)
	}
	rewritten := ApplyExecDelegate(got, "browser")
	if rewritten.Decision != policy.Ask {
		t.Fatalf("exec-delegate must not apply to non-exec tools, got %s", rewritten.Decision)
	}
}
