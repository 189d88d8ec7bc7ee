// Package chatcmd dispatches the four chat commands spec.md §6 names
// (approve/deny/status/explain) onto pkg/firewall.Pipeline. It owns no
// state of its own — every command is forwarded straight to the
// pipeline's approval store or last-decision cache, matching spec.md
// §1's "chat-command dispatch ... beyond the state transitions they
// trigger" being out of scope for the firewall core itself.
package chatcmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arangogutierrez/toolfirewall/pkg/approval"
	"github.com/arangogutierrez/toolfirewall/pkg/firewall"
)

// Dispatcher routes chat-command text to a Pipeline.
type Dispatcher struct {
	pipeline *firewall.Pipeline
}

// New returns a Dispatcher bound to pipeline.
func New(pipeline *firewall.Pipeline) *Dispatcher {
	return &Dispatcher{pipeline: pipeline}
}

// Dispatch parses and executes one chat command (the text following the
// host's namespace prefix, e.g. "approve a1b2c3d4e5f6a7b8 session") and
// returns the reply text to show the user.
func (d *Dispatcher) Dispatch(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", fmt.Errorf("chatcmd: empty command")
	}

	switch fields[0] {
	case "approve":
		return d.approve(fields[1:])
	case "deny":
		return d.deny(fields[1:])
	case "status":
		return d.status(), nil
	case "explain":
		return d.explain(), nil
	default:
		return "", fmt.Errorf("chatcmd: unknown command %q", fields[0])
	}
}

func (d *Dispatcher) approve(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("chatcmd: approve requires an id")
	}
	id := args[0]
	scope := approval.ScopeOnce
	if len(args) > 1 {
		switch args[1] {
		case "once":
			scope = approval.ScopeOnce
		case "session":
			scope = approval.ScopeSession
		default:
			return "", fmt.Errorf("chatcmd: unknown scope %q (want once|session)", args[1])
		}
	}
	rec, ok := d.pipeline.Approve(id, scope)
	if !ok {
		return "", fmt.Errorf("chatcmd: no pending or known request with id %q", id)
	}
	return fmt.Sprintf("Approved %s (%s, scope=%s).", rec.ToolName, rec.ID, rec.Scope), nil
}

func (d *Dispatcher) deny(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("chatcmd: deny requires an id")
	}
	id := args[0]
	rec, ok := d.pipeline.Deny(id)
	if !ok {
		return "", fmt.Errorf("chatcmd: no known request with id %q", id)
	}
	return fmt.Sprintf("Denied %s (%s).", rec.ToolName, rec.ID), nil
}

func (d *Dispatcher) status() string {
	pending := d.pipeline.Pending()
	if len(pending) == 0 {
		return "No pending approval requests."
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(pending)))
	b.WriteString(" pending request(s):\n")
	for _, rec := range pending {
		fmt.Fprintf(&b, "- %s: %s (%s) — %s\n", rec.ID, rec.ToolName, rec.Risk, rec.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) explain() string {
	rec, ok := d.pipeline.LastDecision()
	if !ok {
		return "No decision has been recorded yet."
	}
	return fmt.Sprintf("Last decision: %s %s (%s) — %s", rec.ToolName, rec.Decision, rec.Risk, rec.Reason)
}
