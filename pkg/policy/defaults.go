package policy

func boolPtr(b bool) *bool { return &b }

// hardDefault is the hard-coded DEFAULT policy spec.md §4.3 merges
// presets and overrides over. It corresponds to the "standard" preset
// verbatim, so loading with no preset and no override behaves exactly
// like preset="standard".
func hardDefault() *Policy {
	p := &Policy{
		Mode: "standard",
		Defaults: Defaults{
			DenyUnknownTools:  boolPtr(true),
			UnknownToolAction: Deny,
			Log:               "safe",
			Redaction:         "standard",
			Injection:         InjectionDefault{Mode: "alert"},
		},
		Risk: map[Risk]Decision{
			RiskRead:     Allow,
			RiskWrite:    Ask,
			RiskCritical: Ask,
			RiskUnknown:  Deny,
		},
		Tools: make(map[string]NormalizedToolRule),
	}
	return p
}

// presetOverlay describes how a named preset (spec.md §4.3, §6) adjusts
// the hard-coded default. Preset YAML files themselves are an external,
// out-of-scope input (spec.md §1); these three are the built-in
// equivalents so the loader is self-contained without requiring the
// host to supply preset files on disk (see DESIGN.md open-question log).
func presetOverlay(name string) (Defaults, map[Risk]Decision, bool) {
	switch name {
	case "strict":
		return Defaults{
				DenyUnknownTools:  boolPtr(true),
				UnknownToolAction: Deny,
				Log:               "safe",
				Redaction:         "strict",
				Injection:         InjectionDefault{Mode: "block"},
			}, map[Risk]Decision{
				RiskRead: Ask, RiskWrite: Deny, RiskCritical: Deny, RiskUnknown: Deny,
			}, true
	case "standard":
		d := hardDefault()
		return d.Defaults, d.Risk, true
	case "dev":
		return Defaults{
				DenyUnknownTools:  boolPtr(false),
				UnknownToolAction: Allow,
				Log:               "debug",
				Redaction:         "standard",
				Injection:         InjectionDefault{Mode: "shadow"},
			}, map[Risk]Decision{
				RiskRead: Allow, RiskWrite: Allow, RiskCritical: Ask, RiskUnknown: Allow,
			}, true
	default:
		return Defaults{}, nil, false
	}
}

// mergeDefaults field-wise overlays src onto dst, leaving zero-value
// src fields as a no-op (spec.md §3 invariant v: later entries override
// earlier entries field-wise).
func mergeDefaults(dst Defaults, src Defaults, srcSet bool) Defaults {
	if !srcSet {
		return dst
	}
	out := dst
	if src.DenyUnknownTools != nil {
		out.DenyUnknownTools = src.DenyUnknownTools
	}
	if src.UnknownToolAction.Valid() {
		out.UnknownToolAction = src.UnknownToolAction
	}
	if src.Log != "" {
		out.Log = src.Log
	}
	if src.Redaction != "" {
		out.Redaction = src.Redaction
	}
	if src.Injection.Mode != "" {
		out.Injection.Mode = src.Injection.Mode
	}
	return out
}

func mergeRisk(dst, src map[Risk]Decision) map[Risk]Decision {
	out := make(map[Risk]Decision, len(dst))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if v.Valid() {
			out[k] = v
		}
	}
	return out
}
