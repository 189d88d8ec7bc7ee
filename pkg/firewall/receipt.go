package firewall

import (
	"github.com/arangogutierrez/toolfirewall/pkg/inject"
	"github.com/arangogutierrez/toolfirewall/pkg/policy"
	"github.com/arangogutierrez/toolfirewall/pkg/redact"
	"github.com/arangogutierrez/toolfirewall/pkg/stableenc"
)

// InjectionInfo records the scanner outcome and the mode it was applied
// under (spec.md §3 Receipt "injection {mode, findings}?").
type InjectionInfo struct {
	Mode     string           `json:"mode"`
	Findings []inject.Finding `json:"findings,omitempty"`
}

// Receipt is one audit record per spec.md §3: "(id, timestamp, toolName,
// decision?, risk?, reason?, sessionKey?, agentId?, redaction report,
// injection {mode, findings}?, metadata: free-form mapping)".
type Receipt struct {
	ID         string          `json:"id"`
	Timestamp  int64           `json:"timestamp"`
	ToolName   string          `json:"toolName"`
	Decision   policy.Decision `json:"decision,omitempty"`
	Risk       policy.Risk     `json:"risk,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	SessionKey string          `json:"sessionKey,omitempty"`
	AgentID    string          `json:"agentId,omitempty"`
	Redaction  redact.Report   `json:"redaction"`
	Injection  *InjectionInfo  `json:"injection,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// newReceiptID derives a stable-enough receipt identifier from its
// content and timestamp. Unlike approval IDs, receipts are not required
// to be restart-stable across identical calls (spec.md §8 only pins
// approvalId and evaluate() determinism) — including the timestamp here
// just keeps one receipt's id from colliding with another's.
func newReceiptID(toolName string, timestamp int64, paramsHash string) string {
	return stableenc.HashPrefix(map[string]any{
		"tool": toolName, "ts": timestamp, "paramsHash": paramsHash,
	}, 16)
}
