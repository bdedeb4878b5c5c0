package types

import (
	"fmt"
	"strings"
)

// Severity is the risk level of a finding, totally ordered for
// threshold comparisons (critical > high > medium > low > info).
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevLow      Severity = "low"
	SevInfo     Severity = "info"
)

// Severities lists all levels from most to least severe.
var Severities = []Severity{SevCritical, SevHigh, SevMedium, SevLow, SevInfo}

// Rank maps a severity to a comparable weight. Unknown severities rank
// below info so malformed scanner output never trips a threshold.
func (s Severity) Rank() int {
	switch s {
	case SevCritical:
		return 5
	case SevHigh:
		return 4
	case SevMedium:
		return 3
	case SevLow:
		return 2
	case SevInfo:
		return 1
	}
	return 0
}

// Valid reports whether s is one of the five known levels.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// ParseSeverity normalizes a scanner-supplied severity string. Unknown
// values fall back to medium, matching how upstream tools are treated.
func ParseSeverity(s string) Severity {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return SevMedium
	}
	return sev
}

// Confidence is advisory only. It is never consulted by the policy
// engine when deciding whether to block.
type Confidence string

const (
	ConfLow      Confidence = "low"
	ConfMedium   Confidence = "medium"
	ConfHigh     Confidence = "high"
	ConfVeryHigh Confidence = "very-high"
)

// Finding is the normalized violation record every scanner produces.
// A finding is immutable once emitted; only the pipeline's escalation
// step may raise Severity and set Escalated.
type Finding struct {
	Kind       string            `json:"kind"`
	Severity   Severity          `json:"severity"`
	Line       int               `json:"line,omitempty"` // 1-based, 0 = not line-scoped
	Message    string            `json:"message,omitempty"`
	Source     string            `json:"source"`
	Confidence Confidence        `json:"confidence,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Escalated  bool              `json:"escalated,omitempty"`
}

// dedupPrefixLen bounds the message portion of the identity key so
// wording drift past the prefix does not split duplicates.
const dedupPrefixLen = 50

// DedupKey is the identity under which duplicate findings collapse:
// (kind, line, message prefix). Source is not part of the identity: two
// scanners reporting the same violation are the same finding.
func (f Finding) DedupKey() string {
	msg := f.Message
	if len(msg) > dedupPrefixLen {
		msg = msg[:dedupPrefixLen]
	}
	return fmt.Sprintf("%s|%d|%s", f.Kind, f.Line, msg)
}

// WithMeta returns a copy of f with key set in its metadata map. The
// original finding's map is never mutated.
func (f Finding) WithMeta(key, value string) Finding {
	meta := make(map[string]string, len(f.Metadata)+1)
	for k, v := range f.Metadata {
		meta[k] = v
	}
	meta[key] = value
	f.Metadata = meta
	return f
}

// Dedupe collapses findings by identity, first occurrence surviving,
// preserving insertion order. Running it on an already-deduplicated
// list is a no-op.
func Dedupe(findings []Finding) []Finding {
	seen := make(map[string]struct{}, len(findings))
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		k := f.DedupKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}
