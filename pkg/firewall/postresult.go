package firewall

import (
	"fmt"

	"github.com/arangogutierrez/toolfirewall/pkg/inject"
	"github.com/arangogutierrez/toolfirewall/pkg/redact"
)

// PostResultInput is the post-result hook's input (spec.md §6).
type PostResultInput struct {
	Message ResultMessage `json:"message"`
	Context CallContext   `json:"context,omitempty"`
}

// PostResultOutput is the post-result hook's output. Changed is false
// when the pipeline made no modification, mirroring the host contract's
// "{message} or undefined" (spec.md §6) — callers only need to replace
// the persisted message when Changed is true.
type PostResultOutput struct {
	Message ResultMessage `json:"message"`
	Changed bool          `json:"changed"`
}

// PostResult runs the post-result pipeline (C11, spec.md §4.9): deep
// redaction, size guard, injection scan, in that fixed order.
func (p *Pipeline) PostResult(in PostResultInput) PostResultOutput {
	pol := p.policyFn()
	rule, found := pol.Lookup(in.Message.ToolName)
	now := p.clock()

	msg := in.Message
	changed := false

	var report redact.Report
	if found && rule.RedactResult && pol.Defaults.Redaction != "off" {
		engine := redact.New(redactModeFromPolicy(pol))
		redactedContent, rep := engine.Deep(msg.Content)
		msg.Content = redactedContent
		report = rep
		changed = changed || rep.Redacted
	}

	blocked := false
	var sizeMeta map[string]any
	if p.maxResultChars > 0 {
		if text, ok := extractText(msg.Content); ok {
			// Count and cut by rune, not byte, so a limit of N chars means
			// N characters even when the text holds multi-byte UTF-8.
			runes := []rune(text)
			if len(runes) > p.maxResultChars {
				sizeMeta = map[string]any{
					"originalLength": len(runes),
					"limit":          p.maxResultChars,
					"action":         p.maxResultAction,
				}
				switch p.maxResultAction {
				case "block":
					msg.Content = singleTextBlock(sizeBlockedText(p.maxResultChars, len(runes)))
					msg.IsError = true
					blocked = true
				default: // "truncate"
					msg.Content = singleTextBlock(sizeTruncatedText(string(runes[:p.maxResultChars]), p.maxResultChars))
				}
				changed = true
			}
		}
	}

	var injInfo *InjectionInfo
	if found && rule.ScanInjection && !blocked {
		if text, ok := extractText(msg.Content); ok {
			result := inject.Scan(text)
			if result.Flagged {
				injInfo = &InjectionInfo{Mode: pol.Defaults.Injection.Mode, Findings: result.Findings}
				switch pol.Defaults.Injection.Mode {
				case "shadow":
					// attach to receipt only; message unchanged.
				case "block":
					msg.Content = singleTextBlock(fmt.Sprintf(
						"[firewall] Tool output blocked due to potential prompt injection. %s", inject.Summary(result.Findings)))
					msg.IsError = true
					changed = true
				default: // "alert"
					msg.Content = appendTextBlock(msg.Content, fmt.Sprintf(
						"[firewall] Potential prompt injection detected: %s", inject.Summary(result.Findings)))
					changed = true
				}
			}
		}
	}

	metadata := map[string]any{"toolCallId": msg.ToolCallID}
	if sizeMeta != nil {
		metadata["sizeGuard"] = sizeMeta
	}

	rec := Receipt{
		ID:         newReceiptID(in.Message.ToolName, now, msg.ToolCallID),
		Timestamp:  now,
		ToolName:   in.Message.ToolName,
		Risk:       rule.Risk,
		SessionKey: in.Context.SessionKey,
		AgentID:    in.Context.AgentID,
		Redaction:  report,
		Injection:  injInfo,
		Metadata:   metadata,
	}
	p.setLastReceipt(rec)
	p.appendReceipt(rec)

	return PostResultOutput{Message: msg, Changed: changed}
}
