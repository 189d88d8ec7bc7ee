package firewall

import (
	"fmt"

	"github.com/arangogutierrez/toolfirewall/pkg/approval"
	"github.com/arangogutierrez/toolfirewall/pkg/decision"
	"github.com/arangogutierrez/toolfirewall/pkg/pathguard"
	"github.com/arangogutierrez/toolfirewall/pkg/policy"
	"github.com/arangogutierrez/toolfirewall/pkg/redact"
	"github.com/arangogutierrez/toolfirewall/pkg/stableenc"
)

// CallContext is the per-invocation context the host supplies alongside
// a tool call (spec.md §6 "context: {agentId?, sessionKey?}").
type CallContext struct {
	AgentID    string `json:"agentId,omitempty"`
	SessionKey string `json:"sessionKey,omitempty"`
}

// PreCallInput is the pre-call hook's input (spec.md §6).
type PreCallInput struct {
	ToolName string         `json:"toolName"`
	Params   map[string]any `json:"params"`
	Context  CallContext    `json:"context,omitempty"`
}

// PreCallOutput is the pre-call hook's output (spec.md §6): either a
// passthrough Params or a Block with BlockReason.
type PreCallOutput struct {
	Block       bool           `json:"block,omitempty"`
	BlockReason string         `json:"blockReason,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

const previewLimit = 500

// PreCall runs the pre-call pipeline (C10, spec.md §4.5) in its fixed
// composition order: evaluate, exec-delegate rewrite, path guard, rate
// limiter, redact-for-preview/hash, approval resolution.
func (p *Pipeline) PreCall(in PreCallInput) PreCallOutput {
	pol := p.policyFn()
	normalized := policy.NormalizeName(in.ToolName)
	now := p.clock()

	d := decision.Evaluate(pol, decision.ToolCall{Name: in.ToolName, Params: in.Params})
	d = decision.ApplyExecDelegate(d, normalized)

	cur := d.Decision
	reason := d.Reason

	if cur != policy.Deny {
		pg := pathguard.Check(normalized, in.Params, d.Rule, p.resolver)
		if !pg.Allowed && pg.Override.Rank() > cur.Rank() {
			cur = pg.Override
			reason = pg.Reason
		}
	}

	if cur != policy.Deny {
		rl := p.limiter.Evaluate(normalized, in.Context.SessionKey, now)
		if rl.Hit && rl.Override.Rank() > cur.Rank() {
			cur = rl.Override
			reason = rl.Reason
		}
	}

	hashInput, preview, report := p.redactParamsForHashAndPreview(pol, d.Rule, in.Params)

	paramsHash, _ := stableenc.Hash(hashInput)
	id := approval.ComputeID(in.ToolName, in.Context.SessionKey, paramsHash, d.Risk)

	var rec Receipt
	if cur == policy.Ask {
		storedPreview := "[redacted]"
		if pol.Defaults.Log == "debug" {
			storedPreview = preview
		}
		outcome := p.approvals.Resolve(id, in.ToolName, paramsHash, d.Risk, in.Context.SessionKey, in.Context.AgentID, storedPreview, reason, now)
		p.persistApprovals()
		if outcome.Allow {
			cur = policy.Allow
			reason = "Tool call approved by firewall."
		}
	}

	rec = Receipt{
		ID:         newReceiptID(in.ToolName, now, paramsHash),
		Timestamp:  now,
		ToolName:   in.ToolName,
		Decision:   cur,
		Risk:       d.Risk,
		Reason:     reason,
		SessionKey: in.Context.SessionKey,
		AgentID:    in.Context.AgentID,
		Redaction:  report,
		Metadata: map[string]any{
			"policySource": pol.Mode,
			"paramsHash":   paramsHash,
			"ruleFound":    d.Found,
		},
	}
	if pol.Defaults.Log == "debug" {
		rec.Metadata["paramsPreview"] = preview
	}
	p.setLastReceipt(rec)
	p.appendReceipt(rec)

	switch cur {
	case policy.Allow:
		return PreCallOutput{Params: in.Params}
	case policy.Ask:
		return PreCallOutput{Block: true, BlockReason: fmt.Sprintf(
			"Firewall approval required for %s.\nReason: %s\nRequest ID: %s\nArgs (redacted): %s\nApprove: /firewall approve %s once|session\nDeny: /firewall deny %s",
			in.ToolName, reason, id, preview, id, id,
		)}
	default: // DENY
		return PreCallOutput{Block: true, BlockReason: fmt.Sprintf("Firewall denied %s. %s", in.ToolName, reason)}
	}
}

// redactParamsForHashAndPreview implements spec.md §4.5's "Parameter
// preview/hash" rule: when the rule says redact and redaction is
// enabled, hash the redacted params and preview them (stable-serialized,
// truncated to 500 chars with a trailing "..." marker); otherwise hash
// the raw params.
func (p *Pipeline) redactParamsForHashAndPreview(pol *policy.Policy, rule policy.NormalizedToolRule, params map[string]any) (hashInput any, preview string, report redact.Report) {
	if rule.RedactParams && pol.Defaults.Redaction != "off" {
		engine := redact.New(redactModeFromPolicy(pol))
		redacted, rep := engine.Deep(params)
		return redacted, truncatePreview(string(stableenc.Encode(redacted))), rep
	}
	return params, truncatePreview(string(stableenc.Encode(params))), redact.Report{}
}

// truncatePreview cuts s to the first previewLimit runes, not bytes, so a
// preview containing multi-byte characters never ends mid-rune.
func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit]) + "..."
	}
	return s
}

func redactModeFromPolicy(pol *policy.Policy) redact.Mode {
	switch pol.Defaults.Redaction {
	case "strict":
		return redact.ModeStrict
	case "off":
		return redact.ModeOff
	default:
		return redact.ModeStandard
	}
}
