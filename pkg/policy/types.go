// Package policy implements the firewall's declarative policy data model
// and loader/normalizer (C5 in spec.md §4.3). The naming lineage —
// Policy, ToolRule, and a yaml.v3-backed loader — descends directly from
// the teacher's AgentPolicy/Engine in
// _examples/ArangoGutierrez-agent-identity-protocol/proxy/pkg/policy,
// generalized from a single allow-list MVP into the full decision/risk/
// path/rate-limit/approval rule model spec.md §3–§4 require.
package policy

// ToolRule is the raw, as-authored policy input for one tool (spec.md §3).
// YAML tags match the file format in spec.md §6.
type ToolRule struct {
	Name   string `yaml:"name"`
	Risk   string `yaml:"risk,omitempty"`
	Action string `yaml:"action,omitempty"`
	// Allow is the legacy boolean/string alias: true|false|"ask"|"deny".
	Allow *AllowAlias `yaml:"allow,omitempty"`

	AllowPaths []string `yaml:"allowPaths,omitempty"`
	PathAction string   `yaml:"pathAction,omitempty"`

	RedactParams     *bool `yaml:"redactParams,omitempty"`
	RedactResult     *bool `yaml:"redactResult,omitempty"`
	ScanInjection    *bool `yaml:"scanInjection,omitempty"`
	UseExecApprovals bool  `yaml:"useExecApprovals,omitempty"`
}

// NormalizedToolRule is the deterministic projection of a ToolRule
// (spec.md §3): name lowercased/trimmed, risk defaulted, action
// resolved, flags defaulted, empty allowPaths omitted.
type NormalizedToolRule struct {
	Name             string
	Risk             Risk
	Action           Decision
	AllowPaths       []string
	PathAction       Decision
	RedactParams     bool
	RedactResult     bool
	ScanInjection    bool
	UseExecApprovals bool
}

// Defaults holds the policy-wide fallback behavior (spec.md §3).
type Defaults struct {
	// DenyUnknownTools is a *bool, like ToolRule.RedactParams/RedactResult/
	// ScanInjection, so an override YAML with no defaults.denyUnknownTools
	// key (or no defaults: block at all) decodes to nil and leaves the
	// hard default / preset value untouched in mergeDefaults, instead of
	// silently overwriting it with the zero value false.
	DenyUnknownTools     *bool            `yaml:"denyUnknownTools,omitempty"`
	UnknownToolAction    Decision         `yaml:"-"`
	UnknownToolActionRaw string           `yaml:"unknownToolAction,omitempty"`
	Log                  string           `yaml:"log,omitempty"`       // "safe" | "debug"
	Redaction            string           `yaml:"redaction,omitempty"` // "standard" | "strict" | "off"
	Injection            InjectionDefault `yaml:"injection,omitempty"`
}

// DenyUnknown reports the resolved deny-unknown-tools behavior. It
// must only be called on a Policy.Defaults that has gone through
// mergeDefaults against hardDefault(), which always sets a non-nil
// DenyUnknownTools, so a nil pointer here is treated as the hard
// default's true rather than the zero value false.
func (d Defaults) DenyUnknown() bool {
	if d.DenyUnknownTools == nil {
		return true
	}
	return *d.DenyUnknownTools
}

// InjectionDefault configures the post-result injection scanner's mode.
type InjectionDefault struct {
	Mode string `yaml:"mode,omitempty"` // "shadow" | "alert" | "block"
}

// Policy is the canonical, fully-normalized policy (spec.md §3). It is
// built once per firewall instance at load time and is immutable
// thereafter (spec.md §3 Lifecycles, §5 "Policy is read-only after load").
type Policy struct {
	Mode     string
	Defaults Defaults
	Risk     map[Risk]Decision
	Tools    map[string]NormalizedToolRule // key: normalized tool name
	// toolOrder preserves the order tools were folded in, for deterministic
	// iteration in audit-on-start dumps and tests.
	toolOrder []string
}

// RawPolicy is the YAML document shape (spec.md §6): top-level mode,
// defaults, risk, tools.
type RawPolicy struct {
	Mode     string            `yaml:"mode,omitempty"`
	Defaults Defaults          `yaml:"defaults,omitempty"`
	Risk     map[string]string `yaml:"risk,omitempty"`
	Tools    []ToolRule        `yaml:"tools,omitempty"`
}

// ToolNames returns the normalized tool names in fold order.
func (p *Policy) ToolNames() []string {
	out := make([]string, len(p.toolOrder))
	copy(out, p.toolOrder)
	return out
}

// Lookup returns the normalized rule for a tool name, if any.
func (p *Policy) Lookup(toolName string) (NormalizedToolRule, bool) {
	rule, ok := p.Tools[normalizeName(toolName)]
	return rule, ok
}
