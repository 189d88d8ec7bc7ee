// Package pathguard extracts candidate filesystem paths from a tool
// call's parameters and checks them against a rule's allowlist (C7 in
// spec.md §4.6). It never touches the filesystem itself — path
// resolution is delegated to an injected Resolver so callers can test
// against a fake filesystem or wire in the real one.
package pathguard

import (
	"strings"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

// Resolver absolutizes a path. A real implementation wraps filepath.Abs
// (and symlink resolution, if desired); tests can inject a pure function.
// A resolver error drops that candidate from consideration rather than
// failing the whole guard (spec.md §4.6's GuardResolutionError handling).
type Resolver func(path string) (string, error)

// Result is the path guard's verdict for one tool call.
type Result struct {
	// Allowed is true when every extracted candidate matched an allowed
	// prefix, or no allowlist applies, or no candidates were found and no
	// allowlist was configured.
	Allowed bool
	// Override is the decision to compose in when Allowed is false
	// (spec.md §4.5 monotonic composition). Empty when Allowed is true.
	Override policy.Decision
	// Reason is the exact spec.md §4.6 message when Allowed is false.
	Reason string
	// Candidates lists every path extracted from params, for receipts.
	Candidates []string
}

const (
	reasonNoPathFound = "No path argument found for path allowlist enforcement."
	reasonOutsideList = "Path guard: Path is outside the allowed path list."
)

// Check extracts candidate paths from params per tool, resolves them and
// the rule's allowPaths with resolve, and reports whether every candidate
// falls under an allowed prefix (spec.md §4.6).
func Check(toolName string, params map[string]any, rule policy.NormalizedToolRule, resolve Resolver) Result {
	if len(rule.AllowPaths) == 0 {
		return Result{Allowed: true}
	}

	candidates := ExtractCandidates(toolName, params)
	if len(candidates) == 0 {
		return Result{
			Allowed:  false,
			Override: pathAction(rule),
			Reason:   reasonNoPathFound,
		}
	}

	allowed := resolveAll(rule.AllowPaths, resolve)

	for _, c := range candidates {
		abs, err := resolve(c)
		if err != nil {
			continue
		}
		if !matchesAny(abs, allowed) {
			return Result{
				Allowed:    false,
				Override:   pathAction(rule),
				Reason:     reasonOutsideList,
				Candidates: candidates,
			}
		}
	}

	return Result{Allowed: true, Candidates: candidates}
}

func pathAction(rule policy.NormalizedToolRule) policy.Decision {
	if rule.PathAction.Valid() {
		return rule.PathAction
	}
	return policy.Ask
}

func resolveAll(paths []string, resolve Resolver) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := resolve(p)
		if err != nil {
			continue
		}
		out = append(out, abs)
	}
	return out
}

func matchesAny(candidate string, allowed []string) bool {
	for _, a := range allowed {
		if candidate == a {
			return true
		}
		if strings.HasPrefix(candidate, a+string(separator(a))) {
			return true
		}
	}
	return false
}

// separator picks the path separator implied by allowed, defaulting to
// '/' so this package stays platform-agnostic for the Resolver's output.
func separator(allowed string) byte {
	if strings.Contains(allowed, "\\") && !strings.Contains(allowed, "/") {
		return '\\'
	}
	return '/'
}

// pathFields are checked in order for read/write/edit (spec.md §4.6).
var pathFields = []string{"path", "file_path", "filePath"}

// pathArrayFields are merged in order after the scalar fields.
var pathArrayFields = []string{"paths", "file_paths", "filePaths"}

const (
	markerAdd    = "*** Add File: "
	markerUpdate = "*** Update File: "
	markerDelete = "*** Delete File: "
	markerMove   = "*** Move to: "
)

var patchMarkers = []string{markerAdd, markerUpdate, markerDelete, markerMove}

// ExtractCandidates pulls every candidate path out of params for the
// given tool, per spec.md §4.6. Order is preserved, duplicates dropped.
func ExtractCandidates(toolName string, params map[string]any) []string {
	switch toolName {
	case "apply_patch":
		return extractPatchPaths(params)
	default:
		return extractFieldPaths(params)
	}
}

func extractFieldPaths(params map[string]any) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, field := range pathFields {
		if v, ok := params[field]; ok {
			if s, ok := v.(string); ok {
				add(s)
				break
			}
		}
	}
	for _, field := range pathArrayFields {
		v, ok := params[field]
		if !ok {
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range arr {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return out
}

func extractPatchPaths(params map[string]any) []string {
	raw, ok := params["input"]
	if !ok {
		return nil
	}
	input, ok := raw.(string)
	if !ok {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(input, "\n") {
		for _, marker := range patchMarkers {
			if strings.HasPrefix(line, marker) {
				p := strings.TrimSpace(strings.TrimPrefix(line, marker))
				if p != "" && !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
				break
			}
		}
	}
	return out
}
