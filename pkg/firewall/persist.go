package firewall

import (
	"encoding/json"

	"github.com/arangogutierrez/toolfirewall/pkg/approval"
)

const (
	fileReceipts     = "receipts.jsonl"
	fileLastDecision = "last-decision.json"
)

// appendReceipt writes one line to receipts.jsonl and overwrites
// last-decision.json (spec.md §6 "Persisted state layout"), reusing the
// same write-then-rename/append-only primitives pkg/approval already
// exports for its own files.
func (p *Pipeline) appendReceipt(r Receipt) {
	line, err := json.Marshal(r)
	if err != nil {
		p.logger.Errorw("failed to marshal receipt", "error", err)
		return
	}
	if err := approval.AppendLine(p.persister.StateDir, fileReceipts, line); err != nil {
		p.logger.Errorw("failed to append receipt", "error", err)
	}
	if err := approval.WriteThenRename(p.persister.StateDir, fileLastDecision, line); err != nil {
		p.logger.Errorw("failed to persist last-decision snapshot", "error", err)
	}
}
