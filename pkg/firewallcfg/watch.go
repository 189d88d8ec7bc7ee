package firewallcfg

import (
	"github.com/fsnotify/fsnotify"
)

// watch starts a background fsnotify watcher on d.desc.PolicyPath
// (SPEC_FULL.md §3.3, grounded on the pack's config-watching modules,
// e.g. vibeauracle/internal/doctor and sys). On a write or create event
// it reloads the policy via load(), which only swaps the atomic pointer
// once the new policy parses — a failed reload keeps the prior policy
// in place and is logged, never served half-parsed.
func (h *PolicyHolder) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		h.warnLog.Warnw("watch start failed", "policy watch disabled: could not start fsnotify watcher", "error", err)
		return
	}
	if err := watcher.Add(h.desc.PolicyPath); err != nil {
		h.warnLog.Warnw("watch add failed", "policy watch disabled: could not watch policy path", "path", h.desc.PolicyPath, "error", err)
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					h.load()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				h.warnLog.Warnw("watcher error", "policy watcher error", "error", err)
			}
		}
	}()
}
