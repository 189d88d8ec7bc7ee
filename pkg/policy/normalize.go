package policy

import "strings"

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName exposes the lowercase/trim normalization rule used
// throughout policy (spec.md §3 NormalizedToolRule) so other packages
// (pkg/decision, pkg/firewall) can key off the same normalized tool name.
func NormalizeName(s string) string {
	return normalizeName(s)
}

// setTool inserts or replaces a normalized rule by name, tracking fold
// order the first time a name is seen (spec.md §3 invariant iii: no
// duplicate normalized names survive folding).
func (p *Policy) setTool(rule NormalizedToolRule) {
	if p.Tools == nil {
		p.Tools = make(map[string]NormalizedToolRule)
	}
	if _, exists := p.Tools[rule.Name]; !exists {
		p.toolOrder = append(p.toolOrder, rule.Name)
	}
	p.Tools[rule.Name] = rule
}

// Warning describes a non-fatal normalization problem (spec.md §7
// PolicyValidationWarning): the offending field is reverted to a default
// and evaluation continues.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) Error() string { return w.Field + ": " + w.Message }

// NormalizeRule projects a raw ToolRule onto a NormalizedToolRule,
// resolving its Decision per spec.md §4.3. base supplies the fallback
// risk→Decision map and unknownToolAction for rules with no explicit
// signal. A rule missing a name returns ok=false and the caller skips
// it with a warning (spec.md §4.3 "a rule missing name is skipped").
func NormalizeRule(raw ToolRule, base *Policy) (rule NormalizedToolRule, warnings []Warning, ok bool) {
	name := normalizeName(raw.Name)
	if name == "" {
		return NormalizedToolRule{}, nil, false
	}

	risk := ParseRisk(raw.Risk)
	if raw.Risk != "" && risk == RiskUnknown && normalizeName(raw.Risk) != "unknown" {
		warnings = append(warnings, Warning{Field: "risk", Message: "unrecognized risk " + raw.Risk + ", defaulted to unknown"})
	}

	action, _ := resolveAction(raw, risk, base)

	pathAction := Ask
	if raw.PathAction != "" {
		if d, ok := ParseDecision(raw.PathAction); ok {
			pathAction = d
		} else {
			warnings = append(warnings, Warning{Field: "pathAction", Message: "unrecognized decision " + raw.PathAction + ", defaulted to ASK"})
		}
	}

	var allowPaths []string
	for _, p := range raw.AllowPaths {
		if strings.TrimSpace(p) != "" {
			allowPaths = append(allowPaths, p)
		}
	}

	redactParams, redactResult, scanInjection := baselineDefaultFlags()
	if raw.RedactParams != nil {
		redactParams = *raw.RedactParams
	}
	if raw.RedactResult != nil {
		redactResult = *raw.RedactResult
	}
	if raw.ScanInjection != nil {
		scanInjection = *raw.ScanInjection
	}

	return NormalizedToolRule{
		Name:             name,
		Risk:             risk,
		Action:           action,
		AllowPaths:       allowPaths,
		PathAction:       pathAction,
		RedactParams:     redactParams,
		RedactResult:     redactResult,
		ScanInjection:    scanInjection,
		UseExecApprovals: raw.UseExecApprovals,
	}, warnings, true
}

// resolveAction implements spec.md §4.3's decision-resolution order:
// explicit action first, then the legacy allow alias, then risk lookup,
// then the policy's unknownToolAction.
func resolveAction(raw ToolRule, risk Risk, base *Policy) (Decision, bool) {
	if raw.Action != "" {
		if d, ok := ParseDecision(raw.Action); ok {
			return d, true
		}
	}
	if d, ok := raw.Allow.Resolve(); ok {
		return d, true
	}
	if base != nil {
		if d, ok := base.Risk[risk]; ok && d.Valid() {
			return d, true
		}
		return base.Defaults.UnknownToolAction, true
	}
	return Deny, true
}
