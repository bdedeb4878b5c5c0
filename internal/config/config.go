package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mergeguard/mergeguard/internal/policy"
)

// FileConfig is the on-disk YAML configuration shape for mergeguard.
// Fields are pointers so the CLI > local > global precedence can tell
// "unset" apart from a zero value.
type FileConfig struct {
	Include       *string `yaml:"include"`
	Exclude       *string `yaml:"exclude"`
	MaxBytes      *int64  `yaml:"max_bytes"`
	PacksDir      *string `yaml:"packs_dir"`
	EnabledPacks  *string `yaml:"enabled_packs"` // comma-separated pack names
	Validation    *bool   `yaml:"validation"`
	WidenEscalate *bool   `yaml:"widen_escalation"`
	Timeout       *string `yaml:"timeout"` // whole fan-out deadline, e.g. "30s"

	// Model service integration.
	AI *AIConfig `yaml:"ai"`

	// Inline default policy; scoped policies are set administratively.
	Policy *policy.Config `yaml:"policy"`
}

// AIConfig configures the external model service client.
type AIConfig struct {
	Endpoint *string `yaml:"endpoint"`
	APIKey   *string `yaml:"api_key"` // prefer MERGEGUARD_AI_KEY over the file
	Timeout  *string `yaml:"timeout"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .mergeguard.yml/.yaml and mergeguard.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".mergeguard.yml", ".mergeguard.yaml", "mergeguard.yml", "mergeguard.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or
// ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "mergeguard", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// GetAIEndpoint returns the configured model endpoint or empty string.
func (fc FileConfig) GetAIEndpoint() string {
	if fc.AI == nil || fc.AI.Endpoint == nil {
		return ""
	}
	return *fc.AI.Endpoint
}

// GetAIKey resolves the model API key, env var first.
func (fc FileConfig) GetAIKey() string {
	if k := os.Getenv("MERGEGUARD_AI_KEY"); k != "" {
		return k
	}
	if fc.AI == nil || fc.AI.APIKey == nil {
		return ""
	}
	return *fc.AI.APIKey
}

// GetPolicy returns the inline policy or the package default.
func (fc FileConfig) GetPolicy() policy.Config {
	if fc.Policy == nil {
		return policy.Default()
	}
	return *fc.Policy
}
