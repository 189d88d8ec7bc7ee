package approval

import (
	"testing"

	"github.com/arangogutierrez/toolfirewall/pkg/policy"
)

func TestComputeIDDeterministic(t *testing.T) {
	a := ComputeID("write", "s1", "abc123", policy.RiskWrite)
	b := ComputeID("write", "s1", "abc123", policy.RiskWrite)
	if a != b {
		t.Fatalf("ComputeID not deterministic: %s != %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("ComputeID length = %d, want 16", len(a))
	}
}

func TestComputeIDDependsOnlyOnInputs(t *testing.T) {
	base := ComputeID("write", "s1", "hash1", policy.RiskWrite)
	if ComputeID("read", "s1", "hash1", policy.RiskWrite) == base {
		t.Fatalf("changing toolName should change the id")
	}
	if ComputeID("write", "s2", "hash1", policy.RiskWrite) == base {
		t.Fatalf("changing sessionKey should change the id")
	}
	if ComputeID("write", "s1", "hash2", policy.RiskWrite) == base {
		t.Fatalf("changing paramsHash should change the id")
	}
	if ComputeID("write", "s1", "hash1", policy.RiskCritical) == base {
		t.Fatalf("changing risk should change the id")
	}
}

func TestResolveCreatesPendingThenApprovedOnceIsConsumed(t *testing.T) {
	s := New()
	id := ComputeID("write", "s1", "hash1", policy.RiskWrite)

	out := s.Resolve(id, "write", "hash1", policy.RiskWrite, "s1", "", "[redacted]", "asked", 1000)
	if out.Allow {
		t.Fatalf("first resolve should create a pending request, not allow")
	}
	if out.Record.Status != StatusPending {
		t.Fatalf("status = %s, want pending", out.Record.Status)
	}

	rec, ok := s.Approve(id, ScopeOnce, 2000)
	if !ok || rec.Status != StatusApproved {
		t.Fatalf("approve failed: ok=%v rec=%+v", ok, rec)
	}

	out2 := s.Resolve(id, "write", "hash1", policy.RiskWrite, "s1", "", "[redacted]", "asked", 3000)
	if !out2.Allow {
		t.Fatalf("second resolve after approval should allow")
	}
	if !out2.Record.Used {
		t.Fatalf("once-scope record should be marked used after consumption")
	}

	out3 := s.Resolve(id, "write", "hash1", policy.RiskWrite, "s1", "", "[redacted]", "asked", 4000)
	if out3.Allow {
		t.Fatalf("third resolve must be blocked: once-scope approval already used")
	}
}

func TestResolveSessionScopeGrantsSessionApproval(t *testing.T) {
	s := New()
	id := ComputeID("web_fetch", "s1", "hash1", policy.RiskRead)

	s.Resolve(id, "web_fetch", "hash1", policy.RiskRead, "s1", "", "[redacted]", "asked", 1000)
	s.Approve(id, ScopeSession, 2000)

	out := s.Resolve(id, "web_fetch", "hash1", policy.RiskRead, "s1", "", "[redacted]", "asked", 3000)
	if !out.Allow {
		t.Fatalf("session-scope approval should allow")
	}

	out2 := s.Resolve(id, "web_fetch", "hash1", policy.RiskRead, "s1", "", "[redacted]", "asked", 4000)
	if !out2.Allow {
		t.Fatalf("session-scope approval should keep allowing without consuming")
	}
}

func TestDenyBlocksFutureResolves(t *testing.T) {
	s := New()
	id := ComputeID("exec", "s1", "hash1", policy.RiskCritical)

	s.Resolve(id, "exec", "hash1", policy.RiskCritical, "s1", "", "[redacted]", "asked", 1000)
	s.Deny(id, 2000)

	out := s.Resolve(id, "exec", "hash1", policy.RiskCritical, "s1", "", "[redacted]", "asked", 3000)
	if out.Allow {
		t.Fatalf("denied request must not allow")
	}
	if out.Record.Status != StatusDenied {
		t.Fatalf("status = %s, want denied", out.Record.Status)
	}
}

func TestApproveTransitionAppendsHistoryOnce(t *testing.T) {
	s := New()
	id := ComputeID("write", "s1", "hash1", policy.RiskWrite)
	s.Resolve(id, "write", "hash1", policy.RiskWrite, "s1", "", "[redacted]", "asked", 1000)

	s.Approve(id, ScopeOnce, 2000)
	s.Approve(id, ScopeOnce, 3000) // re-approving an already-approved id: no new history event

	_, _, history, _ := s.Snapshot()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1 (only the first approved transition)", len(history))
	}
}

func TestRebuildRollupMatchesIncrementalUpdates(t *testing.T) {
	s := New()
	id1 := ComputeID("write", "s1", "hash1", policy.RiskWrite)
	id2 := ComputeID("read", "s1", "hash2", policy.RiskRead)

	s.Resolve(id1, "write", "hash1", policy.RiskWrite, "s1", "", "[redacted]", "asked", 1000)
	s.Resolve(id2, "read", "hash2", policy.RiskRead, "s1", "", "[redacted]", "asked", 1000)
	s.Approve(id1, ScopeOnce, 2000)
	s.Approve(id2, ScopeOnce, 3000)

	_, _, history, rollup := s.Snapshot()
	rebuilt := RebuildRollup(history)
	if rebuilt.Counts["write:write"] != rollup.Counts["write:write"] {
		t.Fatalf("rebuilt rollup does not match incrementally-maintained rollup")
	}
	if rebuilt.Counts["read:read"] != 1 {
		t.Fatalf("expected one read:read approval, got %d", rebuilt.Counts["read:read"])
	}
}

func TestPendingListsOnlyPending(t *testing.T) {
	s := New()
	id1 := ComputeID("write", "s1", "hash1", policy.RiskWrite)
	id2 := ComputeID("read", "s1", "hash2", policy.RiskRead)
	s.Resolve(id1, "write", "hash1", policy.RiskWrite, "s1", "", "[redacted]", "asked", 1000)
	s.Resolve(id2, "read", "hash2", policy.RiskRead, "s1", "", "[redacted]", "asked", 1000)
	s.Approve(id1, ScopeOnce, 2000)

	pending := s.Pending()
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Fatalf("pending = %+v, want only id2", pending)
	}
}
