package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mergeguard/mergeguard/internal/policy"
)

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	body := `include: "**/*.py"
max_bytes: 2048
validation: false
ai:
  endpoint: "https://models.internal/v1"
policy:
  mode: blocking
  block_on_critical: true
`
	if err := os.WriteFile(filepath.Join(dir, ".mergeguard.yml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Include == nil || *cfg.Include != "**/*.py" {
		t.Fatalf("include: %v", cfg.Include)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 2048 {
		t.Fatalf("max_bytes: %v", cfg.MaxBytes)
	}
	if cfg.Validation == nil || *cfg.Validation {
		t.Fatal("validation=false should decode as a set pointer")
	}
	if cfg.GetAIEndpoint() != "https://models.internal/v1" {
		t.Fatalf("endpoint: %q", cfg.GetAIEndpoint())
	}
	if cfg.GetPolicy().Mode != policy.ModeBlocking {
		t.Fatalf("policy: %+v", cfg.GetPolicy())
	}
	// unset fields stay nil so precedence can distinguish them
	if cfg.Exclude != nil || cfg.PacksDir != nil {
		t.Fatal("unset fields should remain nil")
	}
}

func TestLoadLocal_Missing(t *testing.T) {
	if _, err := LoadLocal(t.TempDir()); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestGetAIKey_EnvWins(t *testing.T) {
	key := "file-key"
	cfg := FileConfig{AI: &AIConfig{APIKey: &key}}

	t.Setenv("MERGEGUARD_AI_KEY", "env-key")
	if got := cfg.GetAIKey(); got != "env-key" {
		t.Fatalf("env should win: %q", got)
	}

	t.Setenv("MERGEGUARD_AI_KEY", "")
	if got := cfg.GetAIKey(); got != "file-key" {
		t.Fatalf("file fallback: %q", got)
	}
}

func TestGetPolicy_Default(t *testing.T) {
	var cfg FileConfig
	if cfg.GetPolicy().Mode != policy.Default().Mode {
		t.Fatal("nil policy should fall back to the package default")
	}
}
