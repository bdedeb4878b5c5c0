package policy

import (
	"fmt"
	"strings"

	"github.com/mergeguard/mergeguard/internal/types"
)

// Status is the gate-facing outcome of a decision.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Decision is the bounded output of the policy engine.
type Decision struct {
	Mode        Mode                   `json:"mode"`
	ShouldBlock bool                   `json:"should_block"`
	Status      Status                 `json:"status"`
	BySeverity  map[types.Severity]int `json:"by_severity"`
	Total       int                    `json:"total"`
	Rationale   string                 `json:"rationale"`

	// Override eligibility is surfaced separately; approving an
	// override never flips ShouldBlock retroactively.
	OverrideAllowed   bool     `json:"override_allowed"`
	OverrideApprovers []string `json:"override_approvers,omitempty"`

	// StrictApplied records that the effective policy was the strict
	// derivation, for auditability of the decision.
	StrictApplied bool `json:"strict_applied,omitempty"`
}

// noBlockRationale is the rationale when no condition is satisfied.
const noBlockRationale = "No blocking violations"

// Decide evaluates cfg against the findings. generated selects the
// strict effective policy when the config opts in; cfg itself is never
// mutated. The engine holds no state between calls.
func Decide(cfg Config, findings []types.Finding, generated bool) Decision {
	effective := cfg
	strict := false
	if generated && cfg.StrictGeneratedCode {
		effective = cfg.Strict()
		strict = true
	}

	counts := CountBySeverity(findings)
	block, rationale := blockPredicate(effective, counts)

	d := Decision{
		Mode:              effective.Mode,
		ShouldBlock:       block,
		BySeverity:        counts,
		Total:             len(findings),
		Rationale:         rationale,
		OverrideAllowed:   block && effective.AllowOverride,
		OverrideApprovers: effective.OverrideApprovers,
		StrictApplied:     strict,
	}
	d.Status = statusFor(effective.Mode, block)
	return d
}

// blockPredicate evaluates every condition independently and collects
// each satisfied one into the rationale, so the caller sees the full
// picture rather than just the first trigger.
func blockPredicate(cfg Config, counts map[types.Severity]int) (bool, string) {
	var reasons []string
	if cfg.BlockOnCritical && counts[types.SevCritical] > 0 {
		reasons = append(reasons, fmt.Sprintf("%d critical violation(s)", counts[types.SevCritical]))
	}
	if cfg.BlockOnHigh && counts[types.SevHigh] > 0 {
		reasons = append(reasons, fmt.Sprintf("%d high severity violation(s)", counts[types.SevHigh]))
	}
	if counts[types.SevMedium] > cfg.MaxMedium {
		reasons = append(reasons, fmt.Sprintf("%d medium violations (max: %d)", counts[types.SevMedium], cfg.MaxMedium))
	}
	if counts[types.SevLow] > cfg.MaxLow {
		reasons = append(reasons, fmt.Sprintf("%d low violations (max: %d)", counts[types.SevLow], cfg.MaxLow))
	}
	if len(reasons) == 0 {
		return false, noBlockRationale
	}
	return true, strings.Join(reasons, "; ")
}

// statusFor maps mode and predicate to the three-valued gate status.
// Advisory never blocks; warning degrades pass to warn but never fails
// the gate; only blocking mode can fail.
func statusFor(mode Mode, block bool) Status {
	switch mode {
	case ModeAdvisory:
		return StatusPass
	case ModeWarning:
		if block {
			return StatusWarn
		}
		return StatusPass
	case ModeBlocking:
		if block {
			return StatusFail
		}
		return StatusPass
	}
	return StatusPass
}

// CountBySeverity tallies findings per level with every known level
// present in the result, so consumers can index without nil checks.
func CountBySeverity(findings []types.Finding) map[types.Severity]int {
	counts := make(map[types.Severity]int, len(types.Severities))
	for _, sev := range types.Severities {
		counts[sev] = 0
	}
	for _, f := range findings {
		if f.Severity.Valid() {
			counts[f.Severity]++
		} else {
			counts[types.SevMedium]++
		}
	}
	return counts
}

// Summary renders a short human-readable account of the decision for
// CLI and review-comment output.
func (d Decision) Summary() string {
	var b strings.Builder
	state := "PASSING"
	switch d.Status {
	case StatusFail:
		state = "BLOCKING"
	case StatusWarn:
		state = "WARNING"
	}
	fmt.Fprintf(&b, "Mode: %s  Status: %s\n", strings.ToUpper(string(d.Mode)), state)
	fmt.Fprintf(&b, "Violations: %d (critical: %d, high: %d, medium: %d, low: %d, info: %d)\n",
		d.Total,
		d.BySeverity[types.SevCritical], d.BySeverity[types.SevHigh],
		d.BySeverity[types.SevMedium], d.BySeverity[types.SevLow],
		d.BySeverity[types.SevInfo])
	fmt.Fprintf(&b, "Reason: %s\n", d.Rationale)
	if d.OverrideAllowed && len(d.OverrideApprovers) > 0 {
		fmt.Fprintf(&b, "Override available: %s\n", strings.Join(d.OverrideApprovers, ", "))
	}
	return b.String()
}
