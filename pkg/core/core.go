package core

import (
	"context"

	"github.com/mergeguard/mergeguard/internal/pipeline"
	"github.com/mergeguard/mergeguard/internal/policy"
	"github.com/mergeguard/mergeguard/internal/scanner"
	"github.com/mergeguard/mergeguard/internal/scanners"
	"github.com/mergeguard/mergeguard/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type (
	Input    = pipeline.Input
	Result   = pipeline.Result
	Finding  = types.Finding
	Severity = types.Severity
	Policy   = policy.Config
	Decision = policy.Decision
)

// Analyze runs the built-in deterministic scanner set over one input.
// Integrations that need rule packs or the model service should build
// a pipeline from the internal packages via their own binary instead.
func Analyze(ctx context.Context, in Input) (Result, error) {
	p := pipeline.New(defaultScanners(), pipeline.Options{})
	return p.Run(ctx, in)
}

// Decide evaluates a policy against findings. generated selects the
// strict derivation when the policy opts in.
func Decide(cfg Policy, findings []Finding, generated bool) Decision {
	return policy.Decide(cfg, findings, generated)
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy { return policy.Default() }

// ScannerNames returns the names of the built-in scanner set.
// This is exposed for convenience to avoid importing internals directly.
func ScannerNames() []string {
	set := defaultScanners()
	names := make([]string, len(set))
	for i, s := range set {
		names[i] = s.Name()
	}
	return names
}

func defaultScanners() []scanner.Scanner {
	return []scanner.Scanner{
		scanners.NewStatic(),
		scanners.NewSecrets(),
		scanners.NewLicense(),
		scanners.NewDuplication(),
		scanners.NewStandards(),
	}
}
