// Package firewall composes the pre-call and post-result pipelines (C10,
// C11 in spec.md §4.5, §4.9) out of pkg/decision, pkg/pathguard,
// pkg/ratelimit, pkg/approval, pkg/redact, and pkg/inject. It is the one
// package in this module that performs I/O (approval store, receipts)
// and holds mutable state, per spec.md §5's concurrency model.
package firewall

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arangogutierrez/toolfirewall/pkg/approval"
	"github.com/arangogutierrez/toolfirewall/pkg/firewallcfg"
	"github.com/arangogutierrez/toolfirewall/pkg/pathguard"
	"github.com/arangogutierrez/toolfirewall/pkg/policy"
	"github.com/arangogutierrez/toolfirewall/pkg/ratelimit"
)

// Pipeline holds everything the pre-call/post-result entry points need:
// the live policy, the approval store and its persister, the rate
// limiter, and the injected path resolver and logger (spec.md §9
// "Configuration passing").
type Pipeline struct {
	policyFn func() *policy.Policy

	approvals *approval.Store
	persister *approval.Persister

	limiter  *ratelimit.Limiter
	resolver pathguard.Resolver

	maxResultChars  int
	maxResultAction string

	logger *zap.SugaredLogger
	clock  func() int64

	mu          sync.Mutex
	lastReceipt *Receipt
}

// New builds a Pipeline from a Descriptor and a policy accessor (typically
// (*firewallcfg.PolicyHolder).Policy, so the pipeline always evaluates
// against the current hot-reloaded policy). It loads the approval store
// from desc.StateDir once; subsequent mutations go through the in-memory
// Store and are persisted per-call.
func New(desc *firewallcfg.Descriptor, policyFn func() *policy.Policy) *Pipeline {
	persister := &approval.Persister{StateDir: desc.StateDir}
	store := persister.LoadApprovals()
	store.History = persister.LoadHistory()
	store.Rollup = approval.RebuildRollup(store.History)

	resolver := desc.PathResolver
	if resolver == nil {
		resolver = defaultResolver
	}

	logger := desc.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Pipeline{
		policyFn:        policyFn,
		approvals:       store,
		persister:       persister,
		limiter:         ratelimit.New(desc.RateLimits),
		resolver:        resolver,
		maxResultChars:  desc.MaxResultChars,
		maxResultAction: desc.MaxResultAction,
		logger:          logger,
		clock:           func() int64 { return time.Now().UnixMilli() },
	}
}

// LastDecision returns the most recently emitted receipt, backing the
// `explain` chat command (spec.md §6, SPEC_FULL.md §5 item 2).
func (p *Pipeline) LastDecision() (Receipt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastReceipt == nil {
		return Receipt{}, false
	}
	return *p.lastReceipt, true
}

// Pending lists every pending approval request (spec.md §6 "status").
func (p *Pipeline) Pending() []approval.Record {
	return p.approvals.Pending()
}

// Approve flips a pending request to approved (spec.md §6 "approve <id>
// [once|session]"), persisting the store and, on a genuine pending→approved
// transition, appending the new history event and rebuilding the rollup
// (spec.md §3 Lifecycles: "Rollup is updated on each approval transition
// from pending→approved").
func (p *Pipeline) Approve(id string, scope approval.Scope) (approval.Record, bool) {
	_, _, before, _ := p.approvals.Snapshot()
	rec, ok := p.approvals.Approve(id, scope, p.clock())
	if !ok {
		return rec, false
	}
	p.persistApprovals()

	_, _, after, rollup := p.approvals.Snapshot()
	if len(after) > len(before) {
		if err := p.persister.AppendHistory(after[len(after)-1]); err != nil {
			p.logger.Errorw("failed to append approval history", "error", err)
		}
		if err := p.persister.SaveRollup(rollup); err != nil {
			p.logger.Errorw("failed to persist approval rollup", "error", err)
		}
	}
	return rec, true
}

// Deny flips a pending request to denied (spec.md §6 "deny <id>").
func (p *Pipeline) Deny(id string) (approval.Record, bool) {
	rec, ok := p.approvals.Deny(id, p.clock())
	if ok {
		p.persistApprovals()
	}
	return rec, ok
}

func (p *Pipeline) persistApprovals() {
	if err := p.persister.SaveApprovals(p.approvals); err != nil {
		p.logger.Errorw("failed to persist approval store", "error", err)
	}
}

func (p *Pipeline) setLastReceipt(r Receipt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := r
	p.lastReceipt = &cp
}

func defaultResolver(path string) (string, error) {
	return absPath(path)
}
