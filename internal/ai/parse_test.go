package ai

import (
	"testing"

	"github.com/mergeguard/mergeguard/internal/types"
)

func TestParseFindings_BareArray(t *testing.T) {
	raw := `[{"kind": "race-condition", "severity": "high", "line": 14, "message": "check-then-act on shared map"}]`
	fs, err := ParseFindings([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 {
		t.Fatalf("findings: %v", fs)
	}
	f := fs[0]
	if f.Kind != "race-condition" || f.Severity != types.SevHigh || f.Line != 14 {
		t.Fatalf("finding: %+v", f)
	}
}

func TestParseFindings_Envelope(t *testing.T) {
	raw := `{"findings": [{"kind": "logic-error", "severity": "medium"}], "model": "whatever"}`
	fs, err := ParseFindings([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 || fs[0].Kind != "logic-error" {
		t.Fatalf("findings: %v", fs)
	}
}

func TestParseFindings_FencedJSON(t *testing.T) {
	raw := "Here is my analysis of the file.\n```json\n[{\"kind\": \"n-plus-one\", \"severity\": \"medium\", \"line\": 3}]\n```\nLet me know if you need more detail."
	fs, err := ParseFindings([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 || fs[0].Kind != "n-plus-one" {
		t.Fatalf("findings: %v", fs)
	}
}

func TestParseFindings_InvalidItemsDropped(t *testing.T) {
	raw := `[
		{"kind": "ok-item", "severity": "low"},
		{"kind": "bad-severity", "severity": "catastrophic"},
		{"severity": "high"},
		{"kind": "", "severity": "high"}
	]`
	fs, err := ParseFindings([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 || fs[0].Kind != "ok-item" {
		t.Fatalf("schema should drop malformed items, got %v", fs)
	}
}

func TestParseFindings_NoJSON(t *testing.T) {
	if _, err := ParseFindings([]byte("I could not analyze this file.")); err == nil {
		t.Fatal("prose without JSON should error")
	}
}

func TestParseFindings_EmptyArray(t *testing.T) {
	fs, err := ParseFindings([]byte("[]"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 0 {
		t.Fatalf("findings: %v", fs)
	}
}

func TestEnrich(t *testing.T) {
	fs := enrich([]types.Finding{{Kind: "k"}}, "python")
	if fs[0].Source != Source {
		t.Fatalf("source: %q", fs[0].Source)
	}
	if fs[0].Severity != types.SevMedium || fs[0].Confidence != types.ConfMedium {
		t.Fatalf("defaults not applied: %+v", fs[0])
	}
	if fs[0].Metadata["language"] != "python" {
		t.Fatalf("metadata: %v", fs[0].Metadata)
	}
}
