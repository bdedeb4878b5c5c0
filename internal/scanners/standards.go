package scanners

import (
	"context"
	"regexp"

	"github.com/mergeguard/mergeguard/internal/types"
)

// StandardsSource is the producer name coding-standards findings carry.
const StandardsSource = "coding-standards"

// Standards enforces house style rules that sit outside security:
// naming conventions, logging discipline, and error-handling hygiene.
type Standards struct{}

func NewStandards() Standards { return Standards{} }

func (Standards) Name() string        { return StandardsSource }
func (Standards) Languages() []string { return []string{"python", "javascript", "typescript"} }
func (Standards) Deterministic() bool { return true }

var pythonStandards = []rule{
	{
		kind: "naming-convention-violation", re: regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z]*\s*=[^=]`),
		severity: types.SevLow, confidence: types.ConfHigh,
		message: "Variable uses camelCase instead of snake_case",
		fix:     "Rename per PEP 8",
	},
	{
		kind: "logging-standard-violation", re: regexp.MustCompile(`^\s*print\s*\(`),
		severity: types.SevMedium, confidence: types.ConfHigh,
		message: "print() used instead of the logging module",
		fix:     "Replace with logger.info() or logger.debug()",
	},
	{
		kind: "bare-except", re: regexp.MustCompile(`^\s*except\s*:`),
		severity: types.SevMedium, confidence: types.ConfHigh,
		message: "Bare except swallows all errors including KeyboardInterrupt",
		cwe:     "CWE-396", fix: "Catch a specific exception type",
	},
	{
		kind: "silent-exception", re: regexp.MustCompile(`^\s*except\s+\w+.*:\s*pass\s*$`),
		severity: types.SevHigh, confidence: types.ConfMedium,
		message: "Exception caught and silently discarded",
		cwe:     "CWE-390", fix: "Log the failure or re-raise",
	},
}

var javascriptStandards = []rule{
	{
		kind: "logging-standard-violation", re: regexp.MustCompile(`console\.(log|debug)\s*\(`),
		severity: types.SevLow, confidence: types.ConfHigh,
		message: "console.log left in committed code",
		fix:     "Use the project logger or remove the statement",
	},
	{
		kind: "var-declaration", re: regexp.MustCompile(`^\s*var\s+\w`),
		severity: types.SevLow, confidence: types.ConfHigh,
		message: "var declaration; function scoping invites shadowing bugs",
		fix:     "Use const or let",
	},
	{
		kind: "loose-equality", re: regexp.MustCompile(`[^=!]==[^=]|[^=]!=[^=]`),
		severity: types.SevLow, confidence: types.ConfMedium,
		message: "Loose equality performs implicit type coercion",
		fix:     "Use === or !==",
	},
}

func (Standards) Scan(_ context.Context, source, _, language string) ([]types.Finding, error) {
	switch language {
	case "python":
		return scanLines(source, StandardsSource, pythonStandards), nil
	case "javascript", "typescript":
		return scanLines(source, StandardsSource, javascriptStandards), nil
	}
	return nil, nil
}
