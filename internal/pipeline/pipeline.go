// Package pipeline orchestrates the analysis run: concurrent scanner
// fan-out with per-scanner failure isolation, selective external
// validation, deterministic merge and dedup, provenance-based severity
// escalation, and aggregation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mergeguard/mergeguard/internal/scanner"
	"github.com/mergeguard/mergeguard/internal/types"
)

// Input is one source file to analyze.
type Input struct {
	Source   string
	Filename string
	Language string

	// Generated flags machine-authored code; it triggers the severity
	// escalation step and is carried into the result for the policy
	// engine's strict-mode derivation.
	Generated bool

	// Validation enables the external validation pass over findings
	// from deterministic scanners.
	Validation bool
}

// Result is the aggregate output of one pipeline run. Field order and
// counts are deterministic for identical inputs and scanner outputs.
type Result struct {
	Filename   string                 `json:"filename"`
	Language   string                 `json:"language"`
	Generated  bool                   `json:"generated"`
	Findings   []types.Finding        `json:"findings"`
	Total      int                    `json:"total"`
	BySeverity map[types.Severity]int `json:"by_severity"`
	BySource   map[string]int         `json:"by_source"`
	ByKind     map[string]int         `json:"by_kind"`
	PerScanner map[string]int         `json:"per_scanner"` // raw counts before validation/dedup
	Failed     []string               `json:"failed_scanners,omitempty"`
	Duration   time.Duration          `json:"duration"`
}

// EscalationRules maps a finding severity to the severity it is raised
// to when the input is machine-generated. The mapping is explicit and
// configurable rather than hard-coded into the escalation step.
type EscalationRules map[types.Severity]types.Severity

// DefaultEscalation raises medium to high and leaves every other level
// untouched.
func DefaultEscalation() EscalationRules {
	return EscalationRules{types.SevMedium: types.SevHigh}
}

// WidenedEscalation additionally raises low to medium, for scanner
// sets that explicitly opt into the wider range.
func WidenedEscalation() EscalationRules {
	return EscalationRules{types.SevMedium: types.SevHigh, types.SevLow: types.SevMedium}
}

// escalationNote is appended to the message of every escalated finding.
const escalationNote = " [severity raised: machine-generated code]"

// Pipeline fans a source file out to its registered scanners and
// reduces their output to a single deterministic result. Construct it
// once at startup and share it; Run is safe for concurrent use.
type Pipeline struct {
	scanners   []scanner.Scanner // fixed producer order; merge follows this order
	validator  scanner.Validator
	escalation EscalationRules
	log        *zap.SugaredLogger
}

// Options carries the optional pipeline collaborators.
type Options struct {
	Validator  scanner.Validator
	Escalation EscalationRules
	Logger     *zap.SugaredLogger
}

// New builds a pipeline over the given scanners. Slice order is the
// producer order used for merging, so callers fix it once at
// construction; it never depends on scan completion timing.
func New(scanners []scanner.Scanner, opts Options) *Pipeline {
	esc := opts.Escalation
	if esc == nil {
		esc = DefaultEscalation()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		scanners:   scanners,
		validator:  opts.Validator,
		escalation: esc,
		log:        log,
	}
}

// Scanners returns the producer order.
func (p *Pipeline) Scanners() []scanner.Scanner { return p.scanners }

type scanOutcome struct {
	findings []types.Finding
	err      error
}

// Run executes the full pipeline for one input. Scanner failures and
// timeouts are absorbed as zero findings; the returned error is
// reserved for pipeline-level defects and is always accompanied by a
// structurally valid (empty) result.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{
			Filename:   in.Filename,
			Language:   in.Language,
			Generated:  in.Generated,
			Findings:   []types.Finding{},
			BySeverity: map[types.Severity]int{},
			BySource:   map[string]int{},
			ByKind:     map[string]int{},
			PerScanner: map[string]int{},
		}, fmt.Errorf("analysis aborted: %w", err)
	}

	res := Result{
		Filename:   in.Filename,
		Language:   in.Language,
		Generated:  in.Generated,
		Findings:   []types.Finding{},
		BySeverity: map[types.Severity]int{},
		BySource:   map[string]int{},
		ByKind:     map[string]int{},
		PerScanner: map[string]int{},
	}

	applicable := make([]scanner.Scanner, 0, len(p.scanners))
	for _, s := range p.scanners {
		if scanner.AppliesTo(s, in.Language) {
			applicable = append(applicable, s)
		}
	}

	// Fan-out: one goroutine per applicable scanner. Each outcome
	// channel is buffered so a scanner finishing after the deadline
	// never leaks its goroutine.
	outcomes := make([]chan scanOutcome, len(applicable))
	for i, s := range applicable {
		ch := make(chan scanOutcome, 1)
		outcomes[i] = ch
		go func(s scanner.Scanner, ch chan<- scanOutcome) {
			defer func() {
				if r := recover(); r != nil {
					ch <- scanOutcome{err: fmt.Errorf("scanner panic: %v", r)}
				}
			}()
			fs, err := s.Scan(ctx, in.Source, in.Filename, in.Language)
			ch <- scanOutcome{findings: fs, err: err}
		}(s, ch)
	}

	// Bounded join in producer order. A scanner that misses the caller
	// deadline counts as failed; siblings that already delivered keep
	// their results.
	lists := make([][]types.Finding, len(applicable))
	for i, s := range applicable {
		var out scanOutcome
		select {
		case out = <-outcomes[i]:
		case <-ctx.Done():
			select {
			case out = <-outcomes[i]:
			default:
				out = scanOutcome{err: ctx.Err()}
			}
		}
		if out.err != nil {
			p.log.Warnw("scanner failed", "scanner", s.Name(), "file", in.Filename, "err", out.err)
			res.Failed = append(res.Failed, s.Name())
			continue
		}
		lists[i] = out.findings
		res.PerScanner[s.Name()] = len(out.findings)
	}

	// Selective validation: deterministic producers only. The AI
	// analyzer and rule-pack engines are not re-validated.
	if p.validator != nil && in.Validation {
		p.validate(ctx, in, applicable, lists)
	}

	// Merge in producer order, then first-survives dedup.
	var merged []types.Finding
	for _, l := range lists {
		merged = append(merged, l...)
	}
	merged = types.Dedupe(merged)

	if in.Generated {
		merged = p.escalate(merged)
	}

	res.Findings = merged
	res.Total = len(merged)
	for _, sev := range types.Severities {
		res.BySeverity[sev] = 0
	}
	for _, f := range merged {
		res.BySeverity[f.Severity]++
		res.BySource[f.Source]++
		res.ByKind[f.Kind]++
	}
	res.Duration = time.Since(started)

	p.log.Debugw("analysis complete",
		"file", in.Filename, "language", in.Language,
		"findings", res.Total, "failed", len(res.Failed),
		"duration", res.Duration)
	return res, nil
}

// validate sends the deterministic scanners' findings through the
// validator and replaces those lists with the confirmed subset. On any
// error it fails open: the original lists stay untouched so a flaky
// validator never hides violations.
func (p *Pipeline) validate(ctx context.Context, in Input, applicable []scanner.Scanner, lists [][]types.Finding) {
	var candidates []types.Finding
	for i, s := range applicable {
		if scanner.IsDeterministic(s) {
			candidates = append(candidates, lists[i]...)
		}
	}
	if len(candidates) == 0 {
		return
	}

	confirmed, err := p.validator.Validate(ctx, candidates, in.Source, in.Language)
	if err != nil {
		p.log.Warnw("validation failed open", "file", in.Filename, "err", err)
		return
	}

	// Enforce output ⊆ input by dedup identity, then keep only the
	// confirmed findings in each deterministic list.
	allowed := make(map[string]struct{}, len(confirmed))
	inputKeys := make(map[string]struct{}, len(candidates))
	for _, f := range candidates {
		inputKeys[f.DedupKey()] = struct{}{}
	}
	for _, f := range confirmed {
		k := f.DedupKey()
		if _, ok := inputKeys[k]; ok {
			allowed[k] = struct{}{}
		}
	}
	for i, s := range applicable {
		if !scanner.IsDeterministic(s) {
			continue
		}
		kept := lists[i][:0]
		for _, f := range lists[i] {
			if _, ok := allowed[f.DedupKey()]; ok {
				kept = append(kept, f)
			}
		}
		lists[i] = kept
	}
}

// escalate applies the configured severity mapping to every surviving
// finding. A finding is escalated at most once.
func (p *Pipeline) escalate(findings []types.Finding) []types.Finding {
	out := make([]types.Finding, len(findings))
	for i, f := range findings {
		if raised, ok := p.escalation[f.Severity]; ok && !f.Escalated {
			f.Severity = raised
			f.Escalated = true
			f.Message += escalationNote
		}
		out[i] = f
	}
	return out
}
