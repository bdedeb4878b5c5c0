package scanner

import (
	"context"

	"github.com/mergeguard/mergeguard/internal/types"
)

// Scanner is the port every detector implements to plug into the
// pipeline. Implementations own their timeouts and must honor ctx;
// the pipeline treats any error as "zero findings" and never lets one
// scanner's failure abort its siblings.
type Scanner interface {
	// Name identifies the producer and becomes Finding.Source.
	Name() string

	// Languages returns the languages this scanner applies to.
	// An empty slice means language-agnostic.
	Languages() []string

	// Scan analyzes one source file and returns normalized findings.
	Scan(ctx context.Context, source, filename, language string) ([]types.Finding, error)
}

// Validator is the port for the optional external refinement step.
// Given findings from deterministic scanners it returns the subset
// confirmed as true positives (a subset by dedup identity). Callers
// fail open on error: the unfiltered input is used instead.
type Validator interface {
	Validate(ctx context.Context, findings []types.Finding, source, language string) ([]types.Finding, error)
}

// Deterministic marks pattern-based scanners whose findings go through
// the Validator. Producers that do not implement it (the AI analyzer,
// rule-pack engines) bypass validation and merge unchanged.
type Deterministic interface {
	Deterministic() bool
}

// IsDeterministic reports whether s's findings are eligible for
// external validation.
func IsDeterministic(s Scanner) bool {
	d, ok := s.(Deterministic)
	return ok && d.Deterministic()
}

// AppliesTo reports whether s should run for the given language.
func AppliesTo(s Scanner, language string) bool {
	langs := s.Languages()
	if len(langs) == 0 {
		return true
	}
	for _, l := range langs {
		if l == language {
			return true
		}
	}
	return false
}

// Func adapts a plain function into a language-agnostic Scanner.
// Used in tests and for one-off producers.
type Func struct {
	ID       string
	Langs    []string
	Det      bool
	ScanFunc func(ctx context.Context, source, filename, language string) ([]types.Finding, error)
}

func (f Func) Name() string        { return f.ID }
func (f Func) Languages() []string { return f.Langs }
func (f Func) Deterministic() bool { return f.Det }

func (f Func) Scan(ctx context.Context, source, filename, language string) ([]types.Finding, error) {
	return f.ScanFunc(ctx, source, filename, language)
}
