package policy

import (
	"strings"
	"testing"

	"github.com/mergeguard/mergeguard/internal/types"
)

func findingsOf(sevs ...types.Severity) []types.Finding {
	out := make([]types.Finding, len(sevs))
	for i, s := range sevs {
		out[i] = types.Finding{Kind: "k", Severity: s, Line: i + 1, Message: "m"}
	}
	return out
}

func repeat(sev types.Severity, n int) []types.Finding {
	sevs := make([]types.Severity, n)
	for i := range sevs {
		sevs[i] = sev
	}
	return findingsOf(sevs...)
}

func TestDecide_CriticalBlocksInBlockingMode(t *testing.T) {
	cfg := Config{Mode: ModeBlocking, BlockOnCritical: true, MaxMedium: 10, MaxLow: 50}
	fs := []types.Finding{{Kind: "hardcoded-secret", Severity: types.SevCritical, Line: 1, Message: "m"}}

	d := Decide(cfg, fs, false)
	if !d.ShouldBlock || d.Status != StatusFail {
		t.Fatalf("decision: %+v", d)
	}
	if !strings.Contains(d.Rationale, "1 critical") {
		t.Fatalf("rationale %q should mention the critical count", d.Rationale)
	}
}

func TestDecide_MediumThreshold(t *testing.T) {
	cfg := Config{Mode: ModeBlocking, BlockOnCritical: true, MaxMedium: 10, MaxLow: 50}

	d := Decide(cfg, repeat(types.SevMedium, 11), false)
	if !d.ShouldBlock {
		t.Fatal("11 medium findings over a ceiling of 10 must block")
	}
	if !strings.Contains(d.Rationale, "11 medium violations (max: 10)") {
		t.Fatalf("rationale: %q", d.Rationale)
	}

	cfg.MaxMedium = 15
	d = Decide(cfg, repeat(types.SevMedium, 11), false)
	if d.ShouldBlock || d.Status != StatusPass {
		t.Fatalf("11 medium under a ceiling of 15 must pass: %+v", d)
	}
	if d.Rationale != "No blocking violations" {
		t.Fatalf("rationale: %q", d.Rationale)
	}
}

func TestDecide_AtThresholdPasses(t *testing.T) {
	cfg := Config{Mode: ModeBlocking, MaxMedium: 10, MaxLow: 50}
	d := Decide(cfg, repeat(types.SevMedium, 10), false)
	if d.ShouldBlock {
		t.Fatal("exactly max_medium findings must not block; the ceiling is inclusive")
	}
}

func TestDecide_RationaleCollectsAllReasons(t *testing.T) {
	cfg := Config{Mode: ModeBlocking, BlockOnCritical: true, BlockOnHigh: true, MaxMedium: 1, MaxLow: 50}
	fs := append(findingsOf(types.SevCritical, types.SevHigh), repeat(types.SevMedium, 3)...)

	d := Decide(cfg, fs, false)
	for _, want := range []string{"1 critical violation(s)", "1 high severity violation(s)", "3 medium violations (max: 1)"} {
		if !strings.Contains(d.Rationale, want) {
			t.Errorf("rationale %q missing %q", d.Rationale, want)
		}
	}
	if !strings.Contains(d.Rationale, "; ") {
		t.Fatalf("reasons not joined: %q", d.Rationale)
	}
}

func TestDecide_AdvisoryNeverFails(t *testing.T) {
	cfg := Config{Mode: ModeAdvisory, BlockOnCritical: true, MaxMedium: 0, MaxLow: 0}
	fs := append(repeat(types.SevCritical, 5), repeat(types.SevMedium, 50)...)

	d := Decide(cfg, fs, false)
	if d.Status != StatusPass {
		t.Fatalf("advisory mode produced status %s", d.Status)
	}
	// The predicate result is still reported for visibility.
	if !d.ShouldBlock {
		t.Fatal("predicate evaluation should still fire")
	}
}

func TestDecide_WarningNeverFailsTheGate(t *testing.T) {
	cfg := Config{Mode: ModeWarning, BlockOnCritical: true, MaxMedium: 10, MaxLow: 50}

	d := Decide(cfg, repeat(types.SevCritical, 2), false)
	if d.Status != StatusWarn {
		t.Fatalf("violations in warning mode should warn, got %s", d.Status)
	}

	d = Decide(cfg, nil, false)
	if d.Status != StatusPass {
		t.Fatalf("clean run in warning mode should pass, got %s", d.Status)
	}
}

func TestDecide_StrictDerivationForGeneratedCode(t *testing.T) {
	// Scenario: warning-mode policy, machine-generated input.
	cfg := Config{Mode: ModeWarning, StrictGeneratedCode: true, MaxMedium: 10, MaxLow: 50}

	d := Decide(cfg, repeat(types.SevHigh, 1), true)
	if d.Mode != ModeBlocking {
		t.Fatalf("effective mode = %s, want blocking", d.Mode)
	}
	if !d.StrictApplied {
		t.Fatal("strict application not recorded")
	}
	if !d.ShouldBlock || d.Status != StatusFail {
		t.Fatalf("high finding under strict policy must fail: %+v", d)
	}
	if cfg.Mode != ModeWarning {
		t.Fatal("caller's config mutated")
	}
}

func TestDecide_StrictOptOut(t *testing.T) {
	cfg := Config{Mode: ModeWarning, StrictGeneratedCode: false, MaxMedium: 10, MaxLow: 50}
	d := Decide(cfg, repeat(types.SevHigh, 1), true)
	if d.Mode != ModeWarning || d.StrictApplied {
		t.Fatalf("strict applied despite opt-out: %+v", d)
	}
}

// Strictness is monotone: for any finding set, the strict derivation
// never turns a blocking decision into a pass.
func TestDecide_StrictIsMonotone(t *testing.T) {
	cfgs := []Config{
		{Mode: ModeAdvisory, MaxMedium: 10, MaxLow: 50},
		{Mode: ModeWarning, BlockOnCritical: true, MaxMedium: 4, MaxLow: 10},
		{Mode: ModeBlocking, BlockOnCritical: true, BlockOnHigh: true, MaxMedium: 20, MaxLow: 50},
	}
	sets := [][]types.Finding{
		nil,
		repeat(types.SevCritical, 1),
		repeat(types.SevHigh, 3),
		repeat(types.SevMedium, 8),
		repeat(types.SevMedium, 25),
		append(repeat(types.SevLow, 60), repeat(types.SevMedium, 6)...),
	}
	rank := map[Status]int{StatusPass: 0, StatusWarn: 1, StatusFail: 2}
	for _, cfg := range cfgs {
		cfg.StrictGeneratedCode = true
		for _, fs := range sets {
			base := Decide(cfg, fs, false)
			strict := Decide(cfg, fs, true)
			if rank[strict.Status] < rank[base.Status] {
				t.Fatalf("strict weakened the outcome: base=%s strict=%s cfg=%+v n=%d",
					base.Status, strict.Status, cfg, len(fs))
			}
			if base.ShouldBlock && !strict.ShouldBlock {
				t.Fatalf("strict cleared should_block: cfg=%+v n=%d", cfg, len(fs))
			}
		}
	}
}

func TestDecide_OverrideEligibility(t *testing.T) {
	cfg := Config{
		Mode: ModeBlocking, BlockOnCritical: true, MaxMedium: 10, MaxLow: 50,
		AllowOverride: true, OverrideApprovers: []string{"lead", "secops"},
	}

	d := Decide(cfg, repeat(types.SevCritical, 1), false)
	if !d.ShouldBlock || !d.OverrideAllowed {
		t.Fatalf("blocking decision should surface override eligibility: %+v", d)
	}

	// No block, no override to offer.
	d = Decide(cfg, nil, false)
	if d.OverrideAllowed {
		t.Fatal("override offered without a block")
	}
}

func TestCountBySeverity_InvalidCountsAsMedium(t *testing.T) {
	fs := []types.Finding{
		{Kind: "a", Severity: types.SevHigh},
		{Kind: "b", Severity: types.Severity("bogus")},
	}
	counts := CountBySeverity(fs)
	if counts[types.SevMedium] != 1 || counts[types.SevHigh] != 1 {
		t.Fatalf("counts: %v", counts)
	}
	for _, sev := range types.Severities {
		if _, ok := counts[sev]; !ok {
			t.Fatalf("severity %s missing", sev)
		}
	}
}

func TestDecide_Deterministic(t *testing.T) {
	cfg := Default()
	fs := append(repeat(types.SevMedium, 12), repeat(types.SevLow, 3)...)
	first := Decide(cfg, fs, true)
	for i := 0; i < 10; i++ {
		if again := Decide(cfg, fs, true); again.Rationale != first.Rationale || again.Status != first.Status {
			t.Fatalf("decision drifted on run %d", i)
		}
	}
}

func TestSummary_MentionsReason(t *testing.T) {
	d := Decide(Config{Mode: ModeBlocking, BlockOnCritical: true, MaxMedium: 10, MaxLow: 50},
		repeat(types.SevCritical, 2), false)
	s := d.Summary()
	if !strings.Contains(s, "BLOCKING") || !strings.Contains(s, "2 critical") {
		t.Fatalf("summary: %q", s)
	}
}
