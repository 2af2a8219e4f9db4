// Package config loads the scan policy consumed by the engine: attack
// strength, alert threshold, declared technologies, per-rule enablement and
// the diagnostic collector settings. The policy is read once at engine
// construction and never mutated by rules.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rulehound/rulehound/pkg/rule"
)

// Policy is the root configuration document.
type Policy struct {
	// AttackStrength gates how exhaustive active probing is:
	// low, medium, high or insane. Default medium.
	AttackStrength string `yaml:"attack_strength"`

	// AlertThreshold gates how much evidence is required before alerting:
	// off, low, medium or high. Default medium.
	AlertThreshold string `yaml:"alert_threshold"`

	// Technologies declares the target's technology set. Empty means
	// unknown, which runs every rule.
	Technologies []string `yaml:"technologies"`

	// Rules holds per-rule overrides keyed by rule id.
	Rules map[int]RulePolicy `yaml:"rules"`

	// Diagnostics configures the authentication traffic collector.
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// RulePolicy is a per-rule override.
type RulePolicy struct {
	Enabled *bool `yaml:"enabled"`
}

// Diagnostics configures the diagnostic traffic collector.
type Diagnostics struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the policy used when no file is given.
func Default() *Policy {
	return &Policy{
		AttackStrength: rule.StrengthMedium.String(),
		AlertThreshold: rule.ThresholdMedium.String(),
	}
}

// Load reads and parses a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	return Parse(data)
}

// Parse decodes a policy document. Unknown fields are rejected so typos in
// policy files fail loudly instead of silently disabling nothing.
func Parse(data []byte) (*Policy, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if _, err := p.Strength(); err != nil {
		return nil, err
	}
	if _, err := p.Threshold(); err != nil {
		return nil, err
	}
	return p, nil
}

// Strength returns the configured attack strength.
func (p *Policy) Strength() (rule.Strength, error) {
	return rule.ParseStrength(p.AttackStrength)
}

// Threshold returns the configured alert threshold.
func (p *Policy) Threshold() (rule.Threshold, error) {
	return rule.ParseThreshold(p.AlertThreshold)
}

// TechSet returns the declared technologies as a set.
func (p *Policy) TechSet() rule.TechSet {
	return rule.NewTechSet(p.Technologies...)
}

// RuleEnabled reports whether the rule is enabled; rules default to on.
func (p *Policy) RuleEnabled(id int) bool {
	rp, ok := p.Rules[id]
	if !ok || rp.Enabled == nil {
		return true
	}
	return *rp.Enabled
}
