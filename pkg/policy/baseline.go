package policy

// baselineEntry is one preloaded tool's name and risk (spec.md §6 "Baseline
// tools"). useExecApprovals marks the single tool (exec) eligible for the
// ASK→ALLOW exec-delegate rewrite in spec.md §4.4.
type baselineEntry struct {
	name             string
	risk             Risk
	useExecApprovals bool
}

// baselineTools is the fixed preloaded tool set from spec.md §6. Order
// matters only for deterministic iteration (toolOrder); matching is by
// normalized name.
var baselineTools = []baselineEntry{
	{name: "read", risk: RiskRead},
	{name: "write", risk: RiskWrite},
	{name: "edit", risk: RiskWrite},
	{name: "apply_patch", risk: RiskWrite},
	{name: "exec", risk: RiskCritical, useExecApprovals: true},
	{name: "process", risk: RiskCritical},
	{name: "agents_list", risk: RiskRead},
	{name: "browser", risk: RiskWrite},
	{name: "canvas", risk: RiskRead},
	{name: "cron", risk: RiskWrite},
	{name: "gateway", risk: RiskCritical},
	{name: "image", risk: RiskRead},
	{name: "message", risk: RiskWrite},
	{name: "nodes", risk: RiskCritical},
	{name: "session_status", risk: RiskRead},
	{name: "sessions_history", risk: RiskRead},
	{name: "sessions_list", risk: RiskRead},
	{name: "sessions_send", risk: RiskWrite},
	{name: "sessions_spawn", risk: RiskCritical},
	{name: "tts", risk: RiskRead},
	{name: "web_fetch", risk: RiskRead},
	{name: "web_search", risk: RiskRead},
	{name: "memory_search", risk: RiskRead},
	{name: "memory_get", risk: RiskRead},
}

// baselineDefaultFlags are the flag defaults baseline tools start with
// (spec.md §6: "Defaults: redactParams=true, redactResult=true, scanInjection=true").
func baselineDefaultFlags() (redactParams, redactResult, scanInjection bool) {
	return true, true, true
}

// applyBaseline seeds dst with the baseline tool set, each resolved per
// spec.md §4.3's decision-resolution rule (no explicit action/allow for
// baseline entries, so they resolve via the risk→Decision map), flags
// defaulted per baselineDefaultFlags. User tools fold over this
// afterward by normalized name (spec.md §3 invariant iv and v).
func applyBaseline(dst *Policy) {
	redactParams, redactResult, scanInjection := baselineDefaultFlags()
	for _, b := range baselineTools {
		name := normalizeName(b.name)
		action := dst.Risk[b.risk]
		if !action.Valid() {
			action = dst.Risk[RiskUnknown]
		}
		dst.setTool(NormalizedToolRule{
			Name:             name,
			Risk:             b.risk,
			Action:           action,
			RedactParams:     redactParams,
			RedactResult:     redactResult,
			ScanInjection:    scanInjection,
			UseExecApprovals: b.useExecApprovals,
			PathAction:       Ask,
		})
	}
}
