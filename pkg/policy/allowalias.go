package policy

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// AllowAlias decodes the legacy "allow" field, which YAML may encode as
// a bool or the strings "ask"/"deny" (spec.md §3 ToolRule, §4.3 resolution
// rule). It normalizes to one of three states: Bool(true), Bool(false),
// or the literal "ask" string, all recoverable via Resolve.
type AllowAlias struct {
	boolVal *bool
	strVal  string
}

// UnmarshalYAML implements yaml.Unmarshaler so a single "allow" field
// can hold either a boolean or an "ask"/"deny" string in the policy file.
func (a *AllowAlias) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err == nil {
		a.boolVal = &b
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	a.strVal = strings.ToLower(strings.TrimSpace(s))
	return nil
}

// Resolve maps the alias to a Decision following spec.md §4.3:
// allow===true → ALLOW, false/"deny" → DENY, "ask" → ASK.
// ok is false for any other string, signalling the caller should fall
// through to the next resolution step.
func (a *AllowAlias) Resolve() (dec Decision, ok bool) {
	if a == nil {
		return "", false
	}
	if a.boolVal != nil {
		if *a.boolVal {
			return Allow, true
		}
		return Deny, true
	}
	switch a.strVal {
	case "deny":
		return Deny, true
	case "ask":
		return Ask, true
	default:
		return "", false
	}
}
