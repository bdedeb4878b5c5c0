// Package policy turns an aggregated finding set into an enforcement
// decision for the review gate. Decisions are pure functions of the
// (validated) configuration and the severity counts, so identical
// inputs always reproduce the same decision and rationale.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode is the enforcement level a policy operates in.
type Mode string

const (
	ModeAdvisory Mode = "advisory" // report only, never blocks
	ModeWarning  Mode = "warning"  // surfaces a warn status, never fails the gate
	ModeBlocking Mode = "blocking" // fails the gate when the block predicate fires
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAdvisory, ModeWarning, ModeBlocking:
		return true
	}
	return false
}

// Config is the declarative policy. It is read-only during a decision;
// strict-mode derivation produces a new value and never mutates the
// caller's config.
type Config struct {
	Mode              Mode     `yaml:"mode" json:"mode"`
	AllowOverride     bool     `yaml:"allow_override" json:"allow_override"`
	OverrideApprovers []string `yaml:"override_approvers,omitempty" json:"override_approvers,omitempty"`

	BlockOnCritical bool `yaml:"block_on_critical" json:"block_on_critical"`
	BlockOnHigh     bool `yaml:"block_on_high" json:"block_on_high"`
	MaxMedium       int  `yaml:"max_medium" json:"max_medium"`
	MaxLow          int  `yaml:"max_low" json:"max_low"`

	// StrictGeneratedCode derives a stricter effective policy when the
	// scanned input was machine-generated.
	StrictGeneratedCode bool `yaml:"strict_generated_code" json:"strict_generated_code"`
}

// Default is the process-wide fallback policy.
func Default() Config {
	return Config{
		Mode:                ModeWarning,
		BlockOnCritical:     true,
		BlockOnHigh:         false,
		MaxMedium:           10,
		MaxLow:              50,
		StrictGeneratedCode: true,
	}
}

// Validate rejects malformed configs at set time so decisions always
// operate on previously-validated values.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("mode must be one of advisory|warning|blocking, got %q", c.Mode)
	}
	if c.MaxMedium < 0 {
		return fmt.Errorf("max_medium must be >= 0, got %d", c.MaxMedium)
	}
	if c.MaxLow < 0 {
		return fmt.Errorf("max_low must be >= 0, got %d", c.MaxLow)
	}
	return nil
}

// strictMinMedium is the floor for the halved medium ceiling under
// strict mode.
const strictMinMedium = 5

// Strict derives the stricter variant applied to machine-generated
// code: the mode tightens one step, critical and high findings always
// block, and the medium ceiling halves (floored at strictMinMedium).
// The receiver is returned unchanged by value semantics.
func (c Config) Strict() Config {
	out := c
	switch c.Mode {
	case ModeAdvisory:
		out.Mode = ModeWarning
	case ModeWarning:
		out.Mode = ModeBlocking
	}
	out.BlockOnCritical = true
	out.BlockOnHigh = true
	if half := c.MaxMedium / 2; half > strictMinMedium {
		out.MaxMedium = half
	} else {
		out.MaxMedium = strictMinMedium
	}
	return out
}

// CanApproveOverride reports whether identity may approve an override
// under this policy. Approval is an eligibility fact; it never rewrites
// a decision's should_block.
func (c Config) CanApproveOverride(identity string) bool {
	if !c.AllowOverride {
		return false
	}
	for _, a := range c.OverrideApprovers {
		if a == identity {
			return true
		}
	}
	return false
}

// LoadFile reads a policy config from a YAML file and validates it.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return cfg, nil
}
