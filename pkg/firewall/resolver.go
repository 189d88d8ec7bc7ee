package firewall

import "path/filepath"

// absPath is the default pathguard.Resolver (spec.md §9 "The path
// resolver is an injected capability so tests can stub filesystem
// behavior"): a plain absolutization with no symlink evaluation, which
// keeps it a pure function of its input rather than a filesystem call.
func absPath(path string) (string, error) {
	return filepath.Abs(path)
}
