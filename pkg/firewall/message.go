package firewall

import "fmt"

// ResultMessage is the post-result pipeline's input/output shape
// (spec.md §6 "Host hook contract (post-result)"). Content follows the
// same loosely-typed JSON convention as tool-call params elsewhere in
// this module: either a plain string, or a slice of text blocks shaped
// like map[string]any{"type": "text", "text": "..."}.
type ResultMessage struct {
	ToolCallID  string `json:"toolCallId,omitempty"`
	ToolName    string `json:"toolName,omitempty"`
	IsSynthetic bool   `json:"isSynthetic,omitempty"`
	Content     any    `json:"content"`
	IsError     bool   `json:"isError,omitempty"`
}

// extractText pulls the plain text out of Content per spec.md §4.9 step 2
// ("string or content field of string/array-of-text-blocks"). ok is false
// when Content has no recognizable textual form, in which case the size
// guard and injection scan are skipped for this message.
func extractText(content any) (string, bool) {
	switch c := content.(type) {
	case string:
		return c, true
	case []any:
		found := false
		text := ""
		for _, item := range c {
			block, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := block["type"].(string); t != "text" {
				continue
			}
			if s, ok := block["text"].(string); ok {
				text += s
				found = true
			}
		}
		return text, found
	default:
		return "", false
	}
}

// singleTextBlock builds the replacement content shape spec.md §4.9 calls
// a "structured toolResult": a single text block.
func singleTextBlock(text string) []any {
	return []any{map[string]any{"type": "text", "text": text}}
}

// appendTextBlock adds a trailing text block/line to content, preserving
// its existing shape (spec.md §4.9 step 3 "alert" mode: "append a warning
// block/line").
func appendTextBlock(content any, text string) any {
	switch c := content.(type) {
	case string:
		return c + "\n" + text
	case []any:
		return append(append([]any{}, c...), map[string]any{"type": "text", "text": text})
	default:
		return content
	}
}

func sizeBlockedText(limit, got int) string {
	return fmt.Sprintf("[firewall] Tool output blocked because it exceeded %d characters (got %d).", limit, got)
}

func sizeTruncatedText(truncated string, limit int) string {
	return fmt.Sprintf("%s\n[firewall] Output truncated to %d characters.", truncated, limit)
}
