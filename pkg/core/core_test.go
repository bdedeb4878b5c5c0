package core

import (
	"context"
	"testing"
)

func TestAnalyze_Smoke(t *testing.T) {
	res, err := Analyze(context.Background(), Input{
		Source:   "password = \"hunter2-secret-value\"\n",
		Filename: "settings.py",
		Language: "python",
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if res.Total != len(res.Findings) {
		t.Fatalf("total %d does not match findings %d", res.Total, len(res.Findings))
	}
	names := ScannerNames()
	if len(names) == 0 {
		t.Fatal("expected non-empty scanner names")
	}
}

func TestDecide_DefaultPolicyPassesCleanRun(t *testing.T) {
	d := Decide(DefaultPolicy(), nil, false)
	if d.ShouldBlock {
		t.Fatalf("clean run should not block: %+v", d)
	}
}
