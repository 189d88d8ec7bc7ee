package policy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnreadablePolicy wraps a ConfigLoadError (spec.md §7): the preset
// name is unknown or the override file is unreadable/malformed. Per
// spec.md §7 this is never fatal — LoadPolicy logs and falls back.
var ErrUnreadablePolicy = errors.New("policy: config load error")

// LoadResult bundles the normalized Policy with any non-fatal warnings
// collected along the way (spec.md §7 ConfigLoadError/PolicyValidationWarning).
type LoadResult struct {
	Policy   *Policy
	Warnings []Warning
	// LoadErr is set when the override file could not be read/parsed;
	// Policy still holds a valid fallback (preset-over-default) per
	// spec.md §7's "fall back to built-in defaults and continue".
	LoadErr error
}

// Load builds the canonical Policy per spec.md §4.3: hard-coded DEFAULT,
// preset overlay, override overlay, baseline tool splice, user tools
// folded by normalized name. preset is one of "", "strict", "standard",
// "dev" — empty means no preset overlay. overrideYAML is the raw bytes
// of an optional policy file; nil/empty means no override.
func Load(preset string, overrideYAML []byte) LoadResult {
	result := LoadResult{Policy: hardDefault()}

	if preset != "" {
		defs, risk, ok := presetOverlay(preset)
		if !ok {
			result.Warnings = append(result.Warnings, Warning{
				Field: "preset", Message: fmt.Sprintf("unknown preset %q, using hard-coded default", preset),
			})
		} else {
			result.Policy.Defaults = mergeDefaults(result.Policy.Defaults, defs, true)
			result.Policy.Risk = mergeRisk(result.Policy.Risk, risk)
		}
	}

	var raw *RawPolicy
	if len(overrideYAML) > 0 {
		var parsed RawPolicy
		if err := yaml.Unmarshal(overrideYAML, &parsed); err != nil {
			result.LoadErr = fmt.Errorf("%w: %v", ErrUnreadablePolicy, err)
		} else {
			raw = &parsed
		}
	}

	if raw != nil {
		if raw.Mode != "" {
			result.Policy.Mode = raw.Mode
		}
		overlayDefaults, overlayRisk := rawDefaultsToOverlay(raw)
		result.Policy.Defaults = mergeDefaults(result.Policy.Defaults, overlayDefaults, true)
		result.Policy.Risk = mergeRisk(result.Policy.Risk, overlayRisk)
	}

	applyBaseline(result.Policy)

	if raw != nil {
		for _, rawRule := range raw.Tools {
			normalized, warnings, ok := NormalizeRule(rawRule, result.Policy)
			result.Warnings = append(result.Warnings, warnings...)
			if !ok {
				result.Warnings = append(result.Warnings, Warning{Field: "name", Message: "tool rule missing name, skipped"})
				continue
			}
			result.Policy.setTool(normalized)
		}
	}

	return result
}

// LoadFromFile reads an override policy file from disk and loads it
// per Load. A missing/unreadable file is a ConfigLoadError (spec.md §7):
// the function still returns a usable Policy (preset-over-default).
func LoadFromFile(preset string, path string) LoadResult {
	if path == "" {
		return Load(preset, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r := Load(preset, nil)
		r.LoadErr = fmt.Errorf("%w: %v", ErrUnreadablePolicy, err)
		return r
	}
	return Load(preset, data)
}

// rawDefaultsToOverlay resolves RawPolicy.Defaults and the risk map
// (string-keyed YAML) onto the typed Defaults/Risk overlay shapes,
// tracking unrecognized Decision strings as warnings handled by the
// caller (spec.md §4.3 "Unknown Decision strings fall back to the
// base-policy value").
func rawDefaultsToOverlay(raw *RawPolicy) (Defaults, map[Risk]Decision) {
	defs := raw.Defaults
	if raw.Defaults.UnknownToolActionRaw != "" {
		if d, ok := ParseDecision(raw.Defaults.UnknownToolActionRaw); ok {
			defs.UnknownToolAction = d
		}
	}

	risk := make(map[Risk]Decision, len(raw.Risk))
	for k, v := range raw.Risk {
		if d, ok := ParseDecision(v); ok {
			risk[ParseRisk(k)] = d
		}
	}
	return defs, risk
}
