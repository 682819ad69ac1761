package profile

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"
)

// Weights is one named blend-weight allocation. Offense, defense and SOS
// must sum to ~1.0; form is the centered recent-form term and sits outside
// that sum.
type Weights struct {
	Offense float64 `yaml:"offense"`
	Defense float64 `yaml:"defense"`
	SOS     float64 `yaml:"sos"`
	Form    float64 `yaml:"form"`
}

// ProfilesConfig is the on-disk blend profile file.
type ProfilesConfig struct {
	Profiles   map[string]Weights `yaml:"profiles"`
	Validation ValidationConfig   `yaml:"validation"`
}

// ValidationConfig bounds what a profile file may declare.
type ValidationConfig struct {
	WeightSumTolerance float64 `yaml:"weight_sum_tolerance"`
	MaxFormWeight      float64 `yaml:"max_form_weight"`
}

// Loader loads and validates named blend-weight profiles.
type Loader struct {
	config *ProfilesConfig
}

// NewLoader creates an empty profile loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile loads blend profiles from a YAML file.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var cfg ProfilesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse YAML profiles: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return fmt.Errorf("profile validation failed: %w", err)
	}

	l.config = &cfg
	return nil
}

// LoadDefault installs the built-in profiles.
func (l *Loader) LoadDefault() error {
	cfg := &ProfilesConfig{
		Profiles: map[string]Weights{
			// Schedule strength dominant: the correction this engine exists for.
			"default": {
				Offense: 0.25,
				Defense: 0.25,
				SOS:     0.50,
				Form:    0.15,
			},
			// Even split for small regional cohorts where schedules overlap
			// heavily and SOS separates teams poorly.
			"balanced": {
				Offense: 0.34,
				Defense: 0.33,
				SOS:     0.33,
				Form:    0.15,
			},
			// Scouting view: raw output over schedule context.
			"attack_heavy": {
				Offense: 0.45,
				Defense: 0.20,
				SOS:     0.35,
				Form:    0.10,
			},
		},
		Validation: ValidationConfig{
			WeightSumTolerance: 0.01,
			MaxFormWeight:      0.25,
		},
	}

	if err := validate(cfg); err != nil {
		return fmt.Errorf("default profile validation failed: %w", err)
	}

	l.config = cfg
	return nil
}

// Get returns the weights for a named profile.
func (l *Loader) Get(name string) (Weights, error) {
	if l.config == nil {
		return Weights{}, fmt.Errorf("profiles not loaded - call LoadFromFile or LoadDefault first")
	}
	w, ok := l.config.Profiles[name]
	if !ok {
		return Weights{}, fmt.Errorf("unknown blend profile: %s", name)
	}
	return w, nil
}

// Names lists the available profile names.
func (l *Loader) Names() []string {
	if l.config == nil {
		return nil
	}
	names := make([]string, 0, len(l.config.Profiles))
	for name := range l.config.Profiles {
		names = append(names, name)
	}
	return names
}

func validate(cfg *ProfilesConfig) error {
	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	tol := cfg.Validation.WeightSumTolerance
	if tol <= 0 {
		tol = 0.01
	}
	maxForm := cfg.Validation.MaxFormWeight
	if maxForm <= 0 {
		maxForm = 0.25
	}

	for name, w := range cfg.Profiles {
		for field, v := range map[string]float64{"offense": w.Offense, "defense": w.Defense, "sos": w.SOS, "form": w.Form} {
			if v < 0 {
				return fmt.Errorf("profile %s: negative weight %s=%f", name, field, v)
			}
		}
		if sum := w.Offense + w.Defense + w.SOS; math.Abs(sum-1.0) > tol {
			return fmt.Errorf("profile %s: offense+defense+sos sum to %f, expected ~1.0", name, sum)
		}
		if w.Form > maxForm {
			return fmt.Errorf("profile %s: form weight %f exceeds maximum %f", name, w.Form, maxForm)
		}
	}

	return nil
}
