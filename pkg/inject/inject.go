// Package inject implements the rule-based prompt-injection scanner (C4
// in spec.md §4.8). Each rule is a compiled, case-insensitive regex with
// a fixed id, severity, and message, evaluated purely over text — no
// state, no I/O, matching the detector-table idiom used throughout the
// retrieved corpus's security scanners (e.g. the STRIDE-coverage rule
// tables and the AI-box policy risk tables).
package inject

import "regexp"

// Severity is the risk band attached to a scanner finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rule is one fixed detection pattern.
type Rule struct {
	ID       string
	Severity Severity
	Message  string
	re       *regexp.Regexp
}

// Finding is a single rule's match outcome against a scanned text.
type Finding struct {
	ID         string   `json:"id"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	MatchCount int      `json:"matchCount"`
}

// Result is the outcome of scanning one piece of text.
type Result struct {
	Flagged  bool      `json:"flagged"`
	Findings []Finding `json:"findings,omitempty"`
}

// rules is the fixed rule set from spec.md §4.8. Order is preserved in
// scan output so Result.Findings is deterministic across runs.
var rules = []Rule{
	{ID: "ignore_instructions", Severity: SeverityHigh,
		Message: "text attempts to override prior instructions",
		re:      regexp.MustCompile(`(?i)ignore (all|previous|above) instructions`)},
	{ID: "system_prompt", Severity: SeverityHigh,
		Message: "text references the system prompt or claims an assistant identity",
		re:      regexp.MustCompile(`(?i)(system prompt|you are chatgpt)`)},
	{ID: "tool_call_coercion", Severity: SeverityHigh,
		Message: "text attempts to coerce a tool invocation",
		re:      regexp.MustCompile(`(?i)\b(call the tool|invoke tool|execute tool)\b`)},
	{ID: "credential_theft", Severity: SeverityMedium,
		Message: "text references credential material",
		re:      regexp.MustCompile(`(?i)\b(api key|password|seed phrase|private key)\b`)},
	{ID: "role_impersonation", Severity: SeverityMedium,
		Message: "text impersonates a privileged role",
		re:      regexp.MustCompile(`(?i)\b(system|developer):`)},
	{ID: "data_exfiltration", Severity: SeverityMedium,
		Message: "text requests exfiltration of data",
		re:      regexp.MustCompile(`(?i)\b(exfiltrate|upload to|send (all|everything))\b`)},
	{ID: "overrides", Severity: SeverityLow,
		Message: "text pressures the model to bypass refusals",
		re:      regexp.MustCompile(`(?i)\b(do not refuse|override|must comply)\b`)},
}

// Scan evaluates text against the fixed rule set and returns every rule
// that matched, in rule-table order, each annotated with its match count.
func Scan(text string) Result {
	var findings []Finding
	for _, r := range rules {
		matches := r.re.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		findings = append(findings, Finding{
			ID:         r.ID,
			Severity:   r.Severity,
			Message:    r.Message,
			MatchCount: len(matches),
		})
	}
	return Result{Flagged: len(findings) > 0, Findings: findings}
}

// Summary renders a short, deterministic human-readable line for the
// findings, used by the alert/block message transforms in pkg/firewall.
func Summary(findings []Finding) string {
	out := ""
	for i, f := range findings {
		if i > 0 {
			out += ", "
		}
		out += string(f.ID) + ":" + string(f.Severity)
	}
	return out
}
