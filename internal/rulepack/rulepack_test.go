package rulepack

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const pciPack = `name: banking-pci-dss
rules:
  pan-in-source:
    name: Primary account number in source
    description: Card number literal committed to source
    severity: critical
    patterns:
      - '\b4[0-9]{12}(?:[0-9]{3})?\b'
    cwe: CWE-312
    pci_dss: ["3.4"]
  debug-cardholder-log:
    name: Cardholder data logged
    description: Logging call that includes cardholder fields
    severity: high
    patterns:
      - '(?i)log.*(card_number|cvv|pan)'
    languages: [python]
    pci_dss: ["10.3"]
`

func writePack(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEngine_LoadAndScan(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "pci.yaml", pciPack)

	e, err := NewEngine(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Packs(); len(got) != 1 || got[0] != "banking-pci-dss" {
		t.Fatalf("packs: %v", got)
	}

	src := "card = \"4111111111111111\"\nlogger.info(card_number)\n"
	fs, err := e.Scan(context.Background(), src, "pay.py", "python")
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 2 {
		t.Fatalf("expected 2 findings, got %d: %v", len(fs), fs)
	}
	for _, f := range fs {
		if f.Source != "rule-packs:banking-pci-dss" {
			t.Fatalf("source: %q", f.Source)
		}
		if f.Metadata["rule_pack"] != "banking-pci-dss" {
			t.Fatalf("metadata: %v", f.Metadata)
		}
	}
}

func TestEngine_ComplianceMetadata(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "pci.yaml", pciPack)
	e, err := NewEngine(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := e.Scan(context.Background(), "card = \"4111111111111111\"\n", "pay.py", "python")
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 {
		t.Fatalf("findings: %v", fs)
	}
	if fs[0].Metadata["compliance"] != "PCI-DSS 3.4" {
		t.Fatalf("compliance: %q", fs[0].Metadata["compliance"])
	}
}

func TestEngine_LanguageFilter(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "pci.yaml", pciPack)
	e, err := NewEngine(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	// logging rule is python-only; the PAN rule is language-agnostic
	fs, err := e.Scan(context.Background(), "logger.info(card_number)\n", "pay.js", "javascript")
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 0 {
		t.Fatalf("python-only rule fired for javascript: %v", fs)
	}
}

func TestEngine_SetEnabled(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "pci.yaml", pciPack)
	writePack(t, dir, "other.yaml", "name: other\nrules:\n  marker:\n    name: marker\n    severity: low\n    patterns: ['OTHER_MARKER']\n")

	e, err := NewEngine(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.SetEnabled([]string{"other"})

	fs, err := e.Scan(context.Background(), "card = \"4111111111111111\"\nOTHER_MARKER\n", "pay.py", "python")
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 || fs[0].Kind != "marker" {
		t.Fatalf("enabled filter not applied: %v", fs)
	}
}

func TestEngine_BadPackSkipped(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "good.yaml", pciPack)
	writePack(t, dir, "broken.yaml", "rules: [not, a, map\n")

	e, err := NewEngine(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Packs(); len(got) != 1 {
		t.Fatalf("broken pack should be skipped, packs: %v", got)
	}
}

func TestEngine_MissingDirIsEmpty(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Packs()) != 0 {
		t.Fatalf("packs: %v", e.Packs())
	}
	fs, err := e.Scan(context.Background(), "anything", "a.py", "python")
	if err != nil || len(fs) != 0 {
		t.Fatalf("fs=%v err=%v", fs, err)
	}
}

func TestEngine_Reload(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEngine(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Packs()) != 0 {
		t.Fatal("expected no packs")
	}

	writePack(t, dir, "pci.yaml", pciPack)
	if err := e.Reload(); err != nil {
		t.Fatal(err)
	}
	if len(e.Packs()) != 1 {
		t.Fatalf("reload did not pick up the new pack: %v", e.Packs())
	}
}
