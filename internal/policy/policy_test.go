package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default ok", Default(), false},
		{"blocking ok", Config{Mode: ModeBlocking}, false},
		{"unknown mode", Config{Mode: "panic"}, true},
		{"empty mode", Config{}, true},
		{"negative medium", Config{Mode: ModeWarning, MaxMedium: -1}, true},
		{"negative low", Config{Mode: ModeWarning, MaxLow: -3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStrict_Derivation(t *testing.T) {
	cfg := Config{Mode: ModeWarning, MaxMedium: 20, MaxLow: 50}
	s := cfg.Strict()

	if s.Mode != ModeBlocking {
		t.Fatalf("warning should tighten to blocking, got %s", s.Mode)
	}
	if !s.BlockOnCritical || !s.BlockOnHigh {
		t.Fatal("strict must force critical and high blocking")
	}
	if s.MaxMedium != 10 {
		t.Fatalf("medium ceiling should halve: got %d", s.MaxMedium)
	}
	if cfg.BlockOnHigh {
		t.Fatal("receiver mutated")
	}
}

func TestStrict_MediumFloor(t *testing.T) {
	s := Config{Mode: ModeBlocking, MaxMedium: 6, MaxLow: 50}.Strict()
	if s.MaxMedium != 5 {
		t.Fatalf("halved ceiling below the floor should clamp to 5, got %d", s.MaxMedium)
	}
	s = Config{Mode: ModeBlocking, MaxMedium: 0, MaxLow: 0}.Strict()
	if s.MaxMedium != 5 {
		t.Fatalf("zero ceiling should clamp to the floor, got %d", s.MaxMedium)
	}
}

func TestStrict_ModeSteps(t *testing.T) {
	if got := (Config{Mode: ModeAdvisory}).Strict().Mode; got != ModeWarning {
		t.Fatalf("advisory tightens to warning, got %s", got)
	}
	if got := (Config{Mode: ModeBlocking}).Strict().Mode; got != ModeBlocking {
		t.Fatalf("blocking stays blocking, got %s", got)
	}
}

func TestCanApproveOverride(t *testing.T) {
	cfg := Config{AllowOverride: true, OverrideApprovers: []string{"lead", "secops"}}
	if !cfg.CanApproveOverride("lead") {
		t.Fatal("listed approver rejected")
	}
	if cfg.CanApproveOverride("intern") {
		t.Fatal("unlisted identity approved")
	}
	cfg.AllowOverride = false
	if cfg.CanApproveOverride("lead") {
		t.Fatal("override approved while disallowed")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yml")
	body := "mode: blocking\nblock_on_critical: true\nmax_medium: 3\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeBlocking || cfg.MaxMedium != 3 {
		t.Fatalf("cfg: %+v", cfg)
	}
	// unset fields keep the defaults
	if cfg.MaxLow != Default().MaxLow {
		t.Fatalf("max_low = %d, want default %d", cfg.MaxLow, Default().MaxLow)
	}
}

func TestLoadFile_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yml")
	if err := os.WriteFile(path, []byte("mode: yolo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("invalid mode accepted")
	}
}
