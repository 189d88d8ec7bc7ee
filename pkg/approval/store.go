package approval

import (
	"sync"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

// Store is the in-memory ApprovalStore (spec.md §3, §5): one mutex
// guards every read-decide-write sequence so a single approval id is
// never raced within a process (spec.md §5 "Ordering guarantees").
// Persistence to disk is a separate concern (persist.go); Store itself
// never touches the filesystem, which keeps its transitions pure and
// unit-testable without a state directory.
type Store struct {
	mu               sync.Mutex
	Version          int                        `json:"version"`
	Requests         []Record                   `json:"requests"`
	SessionApprovals map[string]SessionApproval `json:"sessionApprovals"`
	History          []HistoryEvent             `json:"-"`
	Rollup           Rollup                     `json:"-"`
}

// New returns an empty Store (spec.md §5 "readers tolerate absent or
// partially-written files by returning the empty store").
func New() *Store {
	return &Store{
		Version:          1,
		SessionApprovals: make(map[string]SessionApproval),
	}
}

// Outcome is the result of resolving an ASK decision against the store
// (spec.md §4.5 "Approval resolution logic").
type Outcome struct {
	Allow  bool
	Record Record
}

// Resolve implements spec.md §4.5's three-step approval resolution. id,
// toolName, paramsHash, and risk together identify the request; nowMillis
// is supplied by the caller so Resolve stays deterministic and testable.
func (s *Store) Resolve(id, toolName, paramsHash string, risk policy.Risk, sessionKey, agentID, paramsPreview, reason string, nowMillis int64) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionKey != "" {
		if _, ok := s.SessionApprovals[sessionApprovalKey(id, toolName, paramsHash, sessionKey)]; ok {
			return Outcome{Allow: true}
		}
	}

	for i := range s.Requests {
		r := &s.Requests[i]
		if r.ID != id || r.ToolName != toolName || r.ParamsHash != paramsHash {
			continue
		}
		switch {
		case r.Status == StatusApproved && r.Scope == ScopeOnce && r.Used:
			return Outcome{Allow: false, Record: *r}
		case r.Status == StatusApproved && r.Scope == ScopeOnce && !r.Used:
			r.Used = true
			r.UpdatedAt = nowMillis
			return Outcome{Allow: true, Record: *r}
		case r.Status == StatusApproved && r.Scope == ScopeSession:
			key := sessionApprovalKey(id, toolName, paramsHash, sessionKey)
			if _, ok := s.SessionApprovals[key]; !ok {
				s.SessionApprovals[key] = SessionApproval{
					ID: id, ToolName: toolName, ParamsHash: paramsHash,
					SessionKey: sessionKey, ApprovedAt: nowMillis,
				}
			}
			return Outcome{Allow: true, Record: *r}
		default:
			return Outcome{Allow: false, Record: *r}
		}
	}

	rec := Record{
		ID: id, ToolName: toolName, ParamsHash: paramsHash,
		ParamsPreview: paramsPreview, Risk: risk, Status: StatusPending,
		CreatedAt: nowMillis, Reason: reason, SessionKey: sessionKey, AgentID: agentID,
	}
	s.Requests = append(s.Requests, rec)
	return Outcome{Allow: false, Record: rec}
}

// Approve flips the request matching id to approved with the given
// scope (spec.md §6 "approve <id> [once|session]"). On a transition
// from a non-approved status, it appends a history event and rebuilds
// the rollup (spec.md §3 Lifecycles).
func (s *Store) Approve(id string, scope Scope, nowMillis int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Requests {
		r := &s.Requests[i]
		if r.ID != id {
			continue
		}
		transitioned := r.Status != StatusApproved
		r.Status = StatusApproved
		r.Scope = scope
		r.UpdatedAt = nowMillis
		if transitioned {
			s.History = append(s.History, HistoryEvent{
				ID: r.ID, ToolName: r.ToolName, Risk: r.Risk, Scope: r.Scope,
				ApprovedAt: nowMillis, SessionKey: r.SessionKey, AgentID: r.AgentID,
			})
			s.Rollup = RebuildRollup(s.History)
		}
		return *r, true
	}
	return Record{}, false
}

// Deny flips the request matching id to denied (spec.md §6 "deny <id>").
func (s *Store) Deny(id string, nowMillis int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Requests {
		r := &s.Requests[i]
		if r.ID != id {
			continue
		}
		r.Status = StatusDenied
		r.UpdatedAt = nowMillis
		return *r, true
	}
	return Record{}, false
}

// Pending returns every request currently pending, in creation order
// (spec.md §6 "status — lists pending requests").
func (s *Store) Pending() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.Requests {
		if r.Status == StatusPending {
			out = append(out, r)
		}
	}
	return out
}

// Snapshot returns a deep-enough copy for persistence (persist.go) or
// inspection, taken under the store's lock.
func (s *Store) Snapshot() (requests []Record, sessionApprovals map[string]SessionApproval, history []HistoryEvent, rollup Rollup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests = append([]Record(nil), s.Requests...)
	sessionApprovals = make(map[string]SessionApproval, len(s.SessionApprovals))
	for k, v := range s.SessionApprovals {
		sessionApprovals[k] = v
	}
	history = append([]HistoryEvent(nil), s.History...)
	rollup = s.Rollup
	return
}
