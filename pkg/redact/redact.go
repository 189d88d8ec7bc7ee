// Package redact implements the deep, cycle-safe redaction engine (C3 in
// spec.md §4.2) that applies pkg/detect detectors over arbitrary
// structured values. The traversal style — walk maps by key, slices by
// index, everything else passed through — mirrors the teacher pack's
// anonymizer.walkValue (laplaque-ai-anonymizing-proxy), generalized from
// JSON-request PII scrubbing to tool-call parameter/result redaction.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/arangogutierrez/toolfirewall/pkg/detect"
)

// Mode selects the detector set applied by Engine.Redact.
type Mode string

const (
	ModeOff      Mode = "off"
	ModeStandard Mode = "standard"
	ModeStrict   Mode = "strict"
)

// Report is the structural summary of what got redacted: per-type match
// counts plus the hash digests of the matched values (spec.md §3 RedactionReport).
type Report struct {
	Redacted bool
	Matches  []TypeMatch
}

// TypeMatch aggregates all hits of a single detector type.
type TypeMatch struct {
	Type   detect.Type
	Count  int
	Hashes []string
}

// Merge combines two reports. Merge is commutative and associative over
// type, matching spec.md §4.2's merge contract for recursive redaction.
func Merge(a, b Report) Report {
	if len(a.Matches) == 0 {
		return b
	}
	if len(b.Matches) == 0 {
		return a
	}
	byType := make(map[detect.Type]*TypeMatch, len(a.Matches)+len(b.Matches))
	order := make([]detect.Type, 0, len(a.Matches)+len(b.Matches))
	add := func(tms []TypeMatch) {
		for _, tm := range tms {
			existing, ok := byType[tm.Type]
			if !ok {
				cp := tm
				cp.Hashes = append([]string(nil), tm.Hashes...)
				byType[tm.Type] = &cp
				order = append(order, tm.Type)
				continue
			}
			existing.Count += tm.Count
			existing.Hashes = append(existing.Hashes, tm.Hashes...)
		}
	}
	add(a.Matches)
	add(b.Matches)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	merged := Report{Redacted: a.Redacted || b.Redacted}
	for _, t := range order {
		merged.Matches = append(merged.Matches, *byType[t])
	}
	return merged
}

// Engine applies a fixed detector set over structured values.
type Engine struct {
	mode      Mode
	detectors []detect.Detector
}

// New builds an Engine for the given mode. An unrecognized mode behaves
// like ModeOff (no detectors, always a no-op report) — normalization of
// the mode string itself is the policy loader's job (pkg/policy).
func New(mode Mode) *Engine {
	return &Engine{mode: mode, detectors: detect.ForMode(string(mode))}
}

// Mode returns the engine's configured mode.
func (e *Engine) Mode() Mode { return e.mode }

// RedactString applies every detector to s once, left to right, and
// returns the rewritten string plus the per-type hit report.
func (e *Engine) RedactString(s string) (string, Report) {
	if e.mode == ModeOff || s == "" {
		return s, Report{}
	}

	type hit struct {
		start, end int
		token      string
		typ        detect.Type
		hash       string
	}
	var hits []hit
	for _, d := range e.detectors {
		for _, m := range d.FindAll(s) {
			h := sha256.Sum256([]byte(m.Value))
			hashHex := hex.EncodeToString(h[:])
			hits = append(hits, hit{
				start: m.Start, end: m.End, typ: m.Type,
				hash:  hashHex,
				token: fmt.Sprintf("[REDACTED:%s:%s]", m.Type, hashHex[:8]),
			})
		}
	}
	if len(hits) == 0 {
		return s, Report{}
	}

	// Resolve overlaps deterministically: sort by start, then by longest
	// match first, then drop any hit that overlaps an already-accepted one.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return (hits[i].end - hits[i].start) > (hits[j].end - hits[j].start)
	})
	var accepted []hit
	lastEnd := -1
	for _, h := range hits {
		if h.start < lastEnd {
			continue
		}
		accepted = append(accepted, h)
		lastEnd = h.end
	}

	var b strings.Builder
	counts := make(map[detect.Type]*TypeMatch)
	order := make([]detect.Type, 0, len(accepted))
	cursor := 0
	for _, h := range accepted {
		b.WriteString(s[cursor:h.start])
		b.WriteString(h.token)
		cursor = h.end

		tm, ok := counts[h.typ]
		if !ok {
			tm = &TypeMatch{Type: h.typ}
			counts[h.typ] = tm
			order = append(order, h.typ)
		}
		tm.Count++
		tm.Hashes = append(tm.Hashes, h.hash)
	}
	b.WriteString(s[cursor:])

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	report := Report{Redacted: true}
	for _, t := range order {
		report.Matches = append(report.Matches, *counts[t])
	}
	return b.String(), report
}

// visitTable tracks containers already rewritten during one Deep call so
// cycles terminate: re-encountering the same map/slice returns the same
// output container and contributes an empty sub-report (spec.md §4.2 and
// the cycle-safety property in spec.md §8).
type visitTable struct {
	maps   map[uintptr]map[string]any
	slices map[uintptr][]any
}

func newVisitTable() *visitTable {
	return &visitTable{maps: make(map[uintptr]map[string]any), slices: make(map[uintptr][]any)}
}

// Deep walks v, redacting every string leaf, recursing through
// map[string]any by key and []any by index, and returning every other
// scalar unchanged. It is cycle-safe per visitTable above.
func (e *Engine) Deep(v any) (any, Report) {
	return e.deep(v, newVisitTable())
}

func (e *Engine) deep(v any, vt *visitTable) (any, Report) {
	switch val := v.(type) {
	case string:
		redacted, report := e.RedactString(val)
		return redacted, report
	case map[string]any:
		return e.deepMap(val, vt)
	case []any:
		return e.deepSlice(val, vt)
	default:
		return v, Report{}
	}
}

func (e *Engine) deepMap(m map[string]any, vt *visitTable) (any, Report) {
	ptr := reflect.ValueOf(m).Pointer()
	if out, ok := vt.maps[ptr]; ok {
		return out, Report{}
	}
	out := make(map[string]any, len(m))
	vt.maps[ptr] = out

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var report Report
	for _, k := range keys {
		redactedVal, sub := e.deep(m[k], vt)
		out[k] = redactedVal
		report = Merge(report, sub)
	}
	return out, report
}

func (e *Engine) deepSlice(s []any, vt *visitTable) (any, Report) {
	if len(s) == 0 {
		return []any{}, Report{}
	}
	ptr := reflect.ValueOf(s).Pointer()
	if out, ok := vt.slices[ptr]; ok {
		return out, Report{}
	}
	out := make([]any, len(s))
	vt.slices[ptr] = out

	var report Report
	for i, item := range s {
		redactedVal, sub := e.deep(item, vt)
		out[i] = redactedVal
		report = Merge(report, sub)
	}
	return out, report
}
