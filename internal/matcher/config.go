// Package matcher implements the matching engine: given one statement line
// and a set of unlinked ledger entries in the same tenant/account scope, it
// produces ranked, confidence-scored suggestions.
//
// The score is a sum of four factors on a 0..100 point scale: amount
// (dominant), date proximity, direction/kind consistency and description
// similarity. Every contributing factor appends a human-readable reason to
// the suggestion; the textual trail is part of the engine's contract so that
// scores stay auditable.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultMatchingConfig())
//	sugestoes := engine.Sugerir(item, lancamentos)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchingConfig holds the scoring weights and tolerance thresholds of the
// matching engine. The weights are configurable defaults, not frozen
// constants; they must sum to 100 so scores stay on a 0..100 scale.
type MatchingConfig struct {
	// PesoValor is the maximum contribution of the amount factor.
	PesoValor float64 `json:"peso_valor"`
	// PesoData is the maximum contribution of the date-proximity factor.
	PesoData float64 `json:"peso_data"`
	// PesoTipo is the maximum contribution of the direction/kind factor.
	PesoTipo float64 `json:"peso_tipo"`
	// PesoDescricao is the maximum contribution of the description factor.
	PesoDescricao float64 `json:"peso_descricao"`

	// ToleranciaValorPercent is the relative amount difference (in percent)
	// at which the amount factor reaches zero. Differences beyond it score
	// zero on the amount factor but do not exclude the candidate.
	ToleranciaValorPercent float64 `json:"tolerancia_valor_percent"`

	// JanelaDias is the maximum day distance for a candidate. Entries
	// outside the window are excluded entirely, not merely low-scored.
	JanelaDias int `json:"janela_dias"`

	// ScoreMinimo is the suggestion floor: candidates scoring below it are
	// omitted from results.
	ScoreMinimo float64 `json:"score_minimo"`

	// ScoreAutoAceite is the stricter threshold the auto-match scheduler
	// requires before committing a link without review.
	ScoreAutoAceite float64 `json:"score_auto_aceite"`

	// Epsilon is the absolute amount tolerance used when a link is created:
	// |diferenca| <= Epsilon yields conciliado, anything above yields
	// divergente. Default is exact equality.
	Epsilon decimal.Decimal `json:"epsilon"`

	// MaxSugestoes limits the number of suggestions returned per item.
	MaxSugestoes int `json:"max_sugestoes"`
}

// DefaultMatchingConfig returns the configuration with documented defaults.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		PesoValor:              50,
		PesoData:               20,
		PesoTipo:               15,
		PesoDescricao:          15,
		ToleranciaValorPercent: 5.0,
		JanelaDias:             5,
		ScoreMinimo:            30,
		ScoreAutoAceite:        70,
		Epsilon:                decimal.Zero,
		MaxSugestoes:           10,
	}
}

// StrictMatchingConfig returns a configuration for strict matching: exact
// amounts only, narrow window, high thresholds.
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		PesoValor:              50,
		PesoData:               20,
		PesoTipo:               15,
		PesoDescricao:          15,
		ToleranciaValorPercent: 0.5,
		JanelaDias:             1,
		ScoreMinimo:            60,
		ScoreAutoAceite:        90,
		Epsilon:                decimal.Zero,
		MaxSugestoes:           5,
	}
}

// RelaxedMatchingConfig returns a configuration for exploratory matching.
func RelaxedMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		PesoValor:              50,
		PesoData:               20,
		PesoTipo:               15,
		PesoDescricao:          15,
		ToleranciaValorPercent: 10.0,
		JanelaDias:             10,
		ScoreMinimo:            20,
		ScoreAutoAceite:        60,
		Epsilon:                decimal.NewFromFloat(0.01),
		MaxSugestoes:           20,
	}
}

// Validate checks the configuration for out-of-range values.
func (mc *MatchingConfig) Validate() error {
	pesos := map[string]float64{
		"peso_valor":     mc.PesoValor,
		"peso_data":      mc.PesoData,
		"peso_tipo":      mc.PesoTipo,
		"peso_descricao": mc.PesoDescricao,
	}
	for name, p := range pesos {
		if p < 0 || p > 100 {
			return fmt.Errorf("%s must be between 0 and 100: %f", name, p)
		}
	}

	total := mc.PesoValor + mc.PesoData + mc.PesoTipo + mc.PesoDescricao
	if total < 99.9 || total > 100.1 {
		return fmt.Errorf("weights must sum to 100, got %f", total)
	}

	if mc.ToleranciaValorPercent < 0 || mc.ToleranciaValorPercent > 100 {
		return fmt.Errorf("amount tolerance percent must be between 0 and 100: %f", mc.ToleranciaValorPercent)
	}
	if mc.JanelaDias < 0 {
		return fmt.Errorf("date window cannot be negative: %d", mc.JanelaDias)
	}
	if mc.ScoreMinimo < 0 || mc.ScoreMinimo > 100 {
		return fmt.Errorf("minimum score must be between 0 and 100: %f", mc.ScoreMinimo)
	}
	if mc.ScoreAutoAceite < mc.ScoreMinimo || mc.ScoreAutoAceite > 100 {
		return fmt.Errorf("auto-accept score must be between the minimum score and 100: %f", mc.ScoreAutoAceite)
	}
	if mc.Epsilon.IsNegative() {
		return fmt.Errorf("epsilon cannot be negative: %s", mc.Epsilon)
	}
	if mc.MaxSugestoes <= 0 {
		return fmt.Errorf("max suggestions must be positive: %d", mc.MaxSugestoes)
	}
	return nil
}

// Clone creates a copy of the configuration.
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}
	c := *mc
	return &c
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{Pesos: %g/%g/%g/%g, ToleranciaValor: %.1f%%, Janela: %dd, ScoreMinimo: %g, AutoAceite: %g}",
		mc.PesoValor, mc.PesoData, mc.PesoTipo, mc.PesoDescricao,
		mc.ToleranciaValorPercent, mc.JanelaDias, mc.ScoreMinimo, mc.ScoreAutoAceite)
}
