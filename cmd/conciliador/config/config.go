// Package config builds the runtime pieces of the CLI: the ledger store, the
// matching configuration and the logger, from flags and environment values.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"conciliador/internal/matcher"
	"conciliador/internal/store"
	"conciliador/pkg/logger"
)

// MatchingOverrides carries the CLI flag values that override the default
// matching configuration. Zero values leave the default untouched.
type MatchingOverrides struct {
	Perfil                 string
	JanelaDias             int
	ToleranciaValorPercent float64
	ScoreMinimo            float64
	ScoreAutoAceite        float64
	Epsilon                float64
}

// CreateMatchingConfig builds the matching configuration for a named profile
// with flag overrides applied.
func CreateMatchingConfig(o MatchingOverrides) (*matcher.MatchingConfig, error) {
	var config *matcher.MatchingConfig
	switch o.Perfil {
	case "", "default":
		config = matcher.DefaultMatchingConfig()
	case "strict":
		config = matcher.StrictMatchingConfig()
	case "relaxed":
		config = matcher.RelaxedMatchingConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile: %s (default, strict, relaxed)", o.Perfil)
	}

	if o.JanelaDias > 0 {
		config.JanelaDias = o.JanelaDias
	}
	if o.ToleranciaValorPercent > 0 {
		config.ToleranciaValorPercent = o.ToleranciaValorPercent
	}
	if o.ScoreMinimo > 0 {
		config.ScoreMinimo = o.ScoreMinimo
	}
	if o.ScoreAutoAceite > 0 {
		config.ScoreAutoAceite = o.ScoreAutoAceite
	}
	if o.Epsilon > 0 {
		config.Epsilon = decimal.NewFromFloat(o.Epsilon)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// OpenStore opens the ledger store. An empty path yields an in-memory store;
// anything else opens (creating if needed) a SQLite database file.
func OpenStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemory(), nil
	}
	return store.NewSQLite(path)
}

// SetupLogger configures the global logger from CLI options.
func SetupLogger(verbose bool, format string) error {
	config := logger.DefaultConfig()
	if verbose {
		config.Level = logger.DebugLevel
	}
	switch format {
	case "", "text":
		config.Format = logger.TextFormat
	case "json":
		config.Format = logger.JSONFormat
	default:
		return fmt.Errorf("invalid log format: %s (text, json)", format)
	}

	l, err := logger.New(config)
	if err != nil {
		return err
	}
	logger.SetGlobal(l)
	return nil
}
