// Package approval implements the firewall's approval lifecycle (spec.md
// §3, §4.5, §5): deterministic approval IDs, a single-mutex in-memory
// store backed by write-then-rename JSON persistence, append-only
// history/receipts, and a rebuildable rollup. Grounded on the
// ApprovalStore/ApprovalRequest shape in
// 76dfab15_haasonsaas-nexus__internal-agent-approval.go.go and the
// bounded append-only audit log in
// da04d61b_brennhill-gasoline-mcp-ai-devtools__internal-audit-audit_trail.go.go
// (see DESIGN.md).
package approval

import "github.com/arangogutierrez/toolfirewall/pkg/policy"

// Status is an ApprovalRecord's lifecycle state (spec.md §3).
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Scope controls how far an approved request's effect reaches (spec.md §3).
type Scope string

const (
	ScopeOnce    Scope = "once"
	ScopeSession Scope = "session"
)

// Record is one ApprovalRecord (spec.md §3). CreatedAt/UpdatedAt are
// Unix-millisecond timestamps supplied by the caller (this package never
// calls time.Now so its pure operations stay deterministic and testable).
type Record struct {
	ID            string      `json:"id"`
	ToolName      string      `json:"toolName"`
	ParamsHash    string      `json:"paramsHash"`
	ParamsPreview string      `json:"paramsPreview"`
	Risk          policy.Risk `json:"risk"`
	Status        Status      `json:"status"`
	Scope         Scope       `json:"scope,omitempty"`
	CreatedAt     int64       `json:"createdAt"`
	UpdatedAt     int64       `json:"updatedAt,omitempty"`
	Used          bool        `json:"used,omitempty"`
	Reason        string      `json:"reason"`
	SessionKey    string      `json:"sessionKey,omitempty"`
	AgentID       string      `json:"agentId,omitempty"`
}

// SessionApproval is a membership-only record (spec.md §3): one entry per
// (ID, ToolName, ParamsHash, SessionKey).
type SessionApproval struct {
	ID         string `json:"id"`
	ToolName   string `json:"toolName"`
	ParamsHash string `json:"paramsHash"`
	SessionKey string `json:"sessionKey,omitempty"`
	ApprovedAt int64  `json:"approvedAt"`
}

func sessionApprovalKey(id, toolName, paramsHash, sessionKey string) string {
	return id + "|" + toolName + "|" + paramsHash + "|" + sessionKey
}

// HistoryEvent is one append-only record of a pending→approved transition
// (spec.md §3: "append-only log record for approved events only").
type HistoryEvent struct {
	ID         string      `json:"id"`
	ToolName   string      `json:"toolName"`
	Risk       policy.Risk `json:"risk"`
	Scope      Scope       `json:"scope"`
	ApprovedAt int64       `json:"approvedAt"`
	SessionKey string      `json:"sessionKey,omitempty"`
	AgentID    string      `json:"agentId,omitempty"`
}

// Rollup maps "<toolName>:<risk>" to an approval count (spec.md §3).
type Rollup struct {
	Counts    map[string]int `json:"counts"`
	UpdatedAt int64          `json:"updatedAt"`
}

func rollupKey(toolName string, risk policy.Risk) string {
	return toolName + ":" + string(risk)
}

// RebuildRollup recomputes a Rollup from scratch by replaying history, per
// spec.md §8's "rebuildRollup(history) = rollup" invariant. updatedAt
// should be the timestamp of the last event (0 for an empty history).
func RebuildRollup(history []HistoryEvent) Rollup {
	counts := make(map[string]int)
	var updatedAt int64
	for _, ev := range history {
		counts[rollupKey(ev.ToolName, ev.Risk)]++
		if ev.ApprovedAt > updatedAt {
			updatedAt = ev.ApprovedAt
		}
	}
	return Rollup{Counts: counts, UpdatedAt: updatedAt}
}
