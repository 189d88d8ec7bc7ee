// Command toolfirewalld is a CLI-free process harness for the firewall
// pipelines (SPEC_FULL.md §5 item 5): it is explicitly NOT the
// host-plugin binding spec.md §1 scopes out, just a standalone driver a
// developer can pipe line-delimited JSON fixtures into. Flag parsing
// and the testable Run(args, stdout, stderr) entrypoint follow the
// teacher-pack's cmd/helm/main.go shape
// (Mindburn-Labs-helm/core/cmd/helm/main.go).
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/arangogutierrez/toolfirewall/internal/chatcmd"
	"github.com/arangogutierrez/toolfirewall/pkg/firewall"
	"github.com/arangogutierrez/toolfirewall/pkg/firewallcfg"
)

func main() {
	os.Exit(Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// Run parses flags, wires the descriptor and pipeline, and drives the
// stdio loop. It is factored out of main so it can be exercised with
// in-memory readers/writers.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	preset := fs.String("preset", "", "built-in policy preset (strict|standard|dev)")
	policyPath := fs.String("policy", "", "path to a policy YAML file")
	stateDir := fs.String("state-dir", ".", "directory for approvals/receipts state")
	maxResultChars := fs.Int("max-result-chars", 0, "0 disables the result size guard")
	maxResultAction := fs.String("max-result-action", "truncate", "truncate|block")
	auditOnStart := fs.Bool("audit-on-start", false, "log the normalized policy once at startup")
	watchPolicy := fs.Bool("watch-policy", false, "hot-reload the policy file on change")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(stderr, "toolfirewalld: logger init failed: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	desc := &firewallcfg.Descriptor{
		Preset:          *preset,
		PolicyPath:      *policyPath,
		StateDir:        *stateDir,
		MaxResultChars:  *maxResultChars,
		MaxResultAction: *maxResultAction,
		AuditOnStart:    *auditOnStart,
		WatchPolicy:     *watchPolicy,
		Logger:          logger.Sugar(),
	}
	holder := firewallcfg.NewPolicyHolder(desc)
	pipeline := firewall.New(desc, holder.Policy)
	dispatcher := chatcmd.New(pipeline)

	return runLoop(stdin, stdout, stderr, pipeline, dispatcher)
}

// request is the line-delimited envelope the harness reads from stdin:
// exactly one of Op's three shapes is populated per op value.
type request struct {
	Op      string                    `json:"op"` // "precall" | "postresult" | "chat"
	PreCall *firewall.PreCallInput    `json:"preCall,omitempty"`
	Post    *firewall.PostResultInput `json:"postResult,omitempty"`
	Chat    string                    `json:"chat,omitempty"`
}

type response struct {
	PreCall *firewall.PreCallOutput    `json:"preCall,omitempty"`
	Post    *firewall.PostResultOutput `json:"postResult,omitempty"`
	Reply   string                     `json:"reply,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

func runLoop(stdin io.Reader, stdout, stderr io.Writer, pipeline *firewall.Pipeline, dispatcher *chatcmd.Dispatcher) int {
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			enc.Encode(response{Error: fmt.Sprintf("malformed request: %v", err)}) //nolint:errcheck
			continue
		}
		enc.Encode(handle(req, pipeline, dispatcher)) //nolint:errcheck
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "toolfirewalld: stdin read error: %v\n", err)
		return 1
	}
	return 0
}

func handle(req request, pipeline *firewall.Pipeline, dispatcher *chatcmd.Dispatcher) response {
	switch req.Op {
	case "precall":
		if req.PreCall == nil {
			return response{Error: "precall op requires a preCall payload"}
		}
		out := pipeline.PreCall(*req.PreCall)
		return response{PreCall: &out}
	case "postresult":
		if req.Post == nil {
			return response{Error: "postresult op requires a postResult payload"}
		}
		out := pipeline.PostResult(*req.Post)
		return response{Post: &out}
	case "chat":
		reply, err := dispatcher.Dispatch(req.Chat)
		if err != nil {
			return response{Error: err.Error()}
		}
		return response{Reply: reply}
	default:
		return response{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}
