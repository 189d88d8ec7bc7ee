// Package decision implements the pure policy-to-outcome resolver (C6 in
// spec.md §4.4): given a Policy and a ToolCall, produce a FirewallDecision
// with an exact, byte-stable reason string. It holds no state and performs
// no I/O — callers (pkg/firewall) compose it with the path guard, rate
// limiter, and approval store per spec.md §4.5.
package decision

import (
	"fmt"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

// ToolCall is the minimal shape the engine needs: the as-invoked tool name
// and its parameters (used only by downstream guards, not by Evaluate
// itself — Evaluate never inspects Params).
type ToolCall struct {
	Name   string
	Params map[string]any
}

// FirewallDecision is the engine's pure output (spec.md §4.4): a Decision,
// the Risk and NormalizedToolRule it was resolved against (Found reports
// whether a rule existed), and the exact reason string.
type FirewallDecision struct {
	Decision policy.Decision
	Risk     policy.Risk
	Rule     policy.NormalizedToolRule
	Found    bool
	Reason   string
}

// Evaluate resolves toolCall against p per spec.md §4.4. Given equal
// inputs it returns byte-equal output (including Reason) across runs and
// processes — it touches no clock, no randomness, no filesystem.
func Evaluate(p *policy.Policy, call ToolCall) FirewallDecision {
	rule, found := p.Lookup(call.Name)
	if found {
		return FirewallDecision{
			Decision: rule.Action,
			Risk:     rule.Risk,
			Rule:     rule,
			Found:    true,
			Reason:   fmt.Sprintf("Tool %q (%s) resolved to %s.", call.Name, rule.Risk, rule.Action),
		}
	}

	var dec policy.Decision
	var reason string
	if p.Defaults.DenyUnknown() {
		dec = p.Defaults.UnknownToolAction
		if dec == policy.Deny {
			reason = fmt.Sprintf("Unknown tool %q denied by default policy.", call.Name)
		} else {
			reason = fmt.Sprintf("Unknown tool %q resolved to %s by default policy.", call.Name, dec)
		}
	} else {
		dec = p.Risk[policy.RiskUnknown]
		reason = fmt.Sprintf("Unknown tool %q resolved to %s by default policy.", call.Name, dec)
	}

	return FirewallDecision{
		Decision: dec,
		Risk:     policy.RiskUnknown,
		Found:    false,
		Reason:   reason,
	}
}

// ExecDelegateReason is the fixed reason string for the exec-delegate
// rewrite (spec.md §4.4).
const ExecDelegateReason = "Exec approval delegated to OpenClaw."

// ApplyExecDelegate implements the single permitted decision rewrite
// outside of monotonic composition (spec.md §4.4): when the resolved
// decision is ASK, the rule opted into useExecApprovals, and the
// normalized tool name is "exec", the pre-call pipeline (pkg/firewall)
// calls this to rewrite the outcome to ALLOW. It is a no-op otherwise.
func ApplyExecDelegate(d FirewallDecision, normalizedName string) FirewallDecision {
	if d.Decision == policy.Ask && d.Rule.UseExecApprovals && normalizedName == "exec" {
		d.Decision = policy.Allow
		d.Reason = ExecDelegateReason
	}
	return d
}
