package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if DISPATCH_CONFIG is set
//  3. env (prefix DISPATCH_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("DISPATCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DISPATCH_ADDR, DISPATCH_QUEUE_SIZE, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("DISPATCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "dispatch_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies struct-tag constraints plus the semantic checks tags
// cannot express. Off-total weight sums pass here; they are normalized at
// scoring time and flagged by Warnings.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !cfg.Assignment.DefaultStrategy.Valid() {
		return fmt.Errorf("%w: unknown default strategy %q", ErrInvalidConfig, cfg.Assignment.DefaultStrategy)
	}
	for i := range cfg.Rules {
		if !cfg.Rules[i].Strategy.Valid() {
			return fmt.Errorf("%w: rule %q: unknown strategy %q", ErrInvalidConfig, cfg.Rules[i].Name, cfg.Rules[i].Strategy)
		}
	}
	return nil
}

// Warnings reports lenient-but-suspect settings worth surfacing to the
// administrator at startup.
func Warnings(cfg *Config) []string {
	var out []string
	if total := cfg.Assignment.Weights.Total(); total != 100 {
		out = append(out, fmt.Sprintf("scoring weights sum to %d, not 100; scores will be normalized", total))
	}
	if !cfg.Assignment.Enabled {
		out = append(out, "auto-assignment is disabled; every ticket will escalate to the manager")
	}
	return out
}
