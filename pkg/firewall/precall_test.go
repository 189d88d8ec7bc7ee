package firewall

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/arangogutierrez/toolfirewall/pkg/approval"
	"github.com/arangogutierrez/toolfirewall/pkg/policy"
	"github.com/arangogutierrez/toolfirewall/pkg/ratelimit"
)

func TestTruncatePreviewCountsRunesNotBytes(t *testing.T) {
	// 600 two-byte runes: a byte-based cut at previewLimit (500) would
	// land mid-rune and produce invalid UTF-8.
	s := strings.Repeat("é", 600)
	got := truncatePreview(s)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated preview is not valid UTF-8: %q", got)
	}
	wantPrefix := strings.Repeat("é", previewLimit) + "..."
	if got != wantPrefix {
		t.Fatalf("truncatePreview kept the wrong runes, got %q", got)
	}
}

func TestTruncatePreviewUnderLimitIsUnchanged(t *testing.T) {
	s := "short preview"
	if got := truncatePreview(s); got != s {
		t.Fatalf("truncatePreview(%q) = %q, want unchanged", s, got)
	}
}

func TestPreCallUnknownToolDenied(t *testing.T) {
	p := newTestPipeline(t, "", nil)
	out := p.PreCall(PreCallInput{ToolName: "totally_unknown_tool"})
	if !out.Block {
		t.Fatalf("expected block for unknown tool")
	}
	want := `Firewall denied totally_unknown_tool. Unknown tool "totally_unknown_tool" denied by default policy.`
	if out.BlockReason != want {
		t.Fatalf("reason = %q, want %q", out.BlockReason, want)
	}
}

func TestPreCallAskApproveOnceThenReblocked(t *testing.T) {
	p := newTestPipeline(t, "", nil)
	in := PreCallInput{
		ToolName: "write",
		Params:   map[string]any{"path": "/tmp/a.txt", "content": "hello"},
		Context:  CallContext{SessionKey: "sess-1"},
	}

	first := p.PreCall(in)
	if !first.Block {
		t.Fatalf("expected first call to be blocked pending approval")
	}
	if !strings.Contains(first.BlockReason, "Firewall approval required for write.") {
		t.Fatalf("unexpected block reason: %q", first.BlockReason)
	}

	pending := p.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	id := pending[0].ID

	if _, ok := p.Approve(id, approval.ScopeOnce); !ok {
		t.Fatalf("approve failed for id %q", id)
	}

	second := p.PreCall(in)
	if second.Block {
		t.Fatalf("expected second (post-approval) call to pass through, got block: %q", second.BlockReason)
	}

	third := p.PreCall(in)
	if !third.Block {
		t.Fatalf("expected third call to be blocked again (once-scope consumed)")
	}
	if !strings.Contains(third.BlockReason, "Firewall approval required for write.") {
		t.Fatalf("unexpected third block reason: %q", third.BlockReason)
	}
}

func TestPreCallRedactsPreviewWhenDebugLogging(t *testing.T) {
	p := newTestPipeline(t, `
defaults:
  log: debug
`, nil)
	in := PreCallInput{
		ToolName: "write",
		Params:   map[string]any{"path": "/tmp/a.txt", "apiKey": "sk-abcdefghijklmnopqrstuvwx"},
	}
	out := p.PreCall(in)
	if !out.Block {
		t.Fatalf("expected write to be blocked pending approval")
	}
	if strings.Contains(out.BlockReason, "sk-abcdefghijklmnopqrstuvwx") {
		t.Fatalf("raw secret leaked into block reason: %q", out.BlockReason)
	}

	pending := p.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].ParamsPreview == "[redacted]" {
		t.Fatalf("expected debug-mode preview to carry the redacted-token preview, got literal placeholder")
	}
	if strings.Contains(pending[0].ParamsPreview, "sk-abcdefghijklmnopqrstuvwx") {
		t.Fatalf("raw secret leaked into stored preview: %q", pending[0].ParamsPreview)
	}
}

func TestPreCallPathGuardDowngradesAllowToDeny(t *testing.T) {
	p := newTestPipeline(t, `
tools:
  - name: read
    risk: read
    pathAction: deny
    allowPaths:
      - /allowed/dir
`, nil)
	out := p.PreCall(PreCallInput{
		ToolName: "read",
		Params:   map[string]any{"path": "/other/secret.txt"},
	})
	if !out.Block {
		t.Fatalf("expected path guard to deny, got passthrough")
	}
	if !strings.Contains(out.BlockReason, "outside the allowed path list") {
		t.Fatalf("unexpected block reason: %q", out.BlockReason)
	}
}

func TestPreCallPathGuardAllowsListedPath(t *testing.T) {
	p := newTestPipeline(t, `
tools:
  - name: read
    risk: read
    pathAction: deny
    allowPaths:
      - /allowed/dir
`, nil)
	out := p.PreCall(PreCallInput{
		ToolName: "read",
		Params:   map[string]any{"path": "/allowed/dir/file.txt"},
	})
	if out.Block {
		t.Fatalf("expected path inside allowlist to pass through, got block: %q", out.BlockReason)
	}
}

func TestPreCallRateLimitEscalatesAllowToAsk(t *testing.T) {
	rules := []ratelimit.Rule{
		{ToolName: "read", MaxCalls: 2, WindowSec: 60, Action: policy.Ask, Scope: ratelimit.ScopeGlobal},
	}
	p := newTestPipeline(t, "", rules)
	in := PreCallInput{ToolName: "read", Params: map[string]any{"path": "/tmp/a.txt"}}

	for i := 0; i < 2; i++ {
		out := p.PreCall(in)
		if out.Block {
			t.Fatalf("call %d: expected passthrough under the limit, got block: %q", i, out.BlockReason)
		}
	}

	third := p.PreCall(in)
	if !third.Block {
		t.Fatalf("expected third call to be rate-limited into ASK")
	}
	if !strings.Contains(third.BlockReason, "Rate limit exceeded (2 calls / 60s).") {
		t.Fatalf("unexpected block reason: %q", third.BlockReason)
	}
}

func TestPreCallEvaluationIsDeterministicAcrossCalls(t *testing.T) {
	p := newTestPipeline(t, "", nil)
	in := PreCallInput{ToolName: "read", Params: map[string]any{"path": "/tmp/a.txt"}}
	a := p.PreCall(in)
	b := p.PreCall(in)
	if a.Block != b.Block || a.BlockReason != b.BlockReason {
		t.Fatalf("PreCall not deterministic for identical input: %+v != %+v", a, b)
	}
}
