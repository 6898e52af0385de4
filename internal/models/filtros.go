package models

import (
	"fmt"
	"time"
)

// ConciliacaoFiltros narrows the record population for listing, matching and
// aggregation. The zero value means "no restriction" for every optional
// field; CartorioID is the only required field since every operation runs
// inside one tenant scope.
type ConciliacaoFiltros struct {
	// CartorioID scopes the query to one tenant. Required.
	CartorioID string `json:"cartorio_id"`
	// ContaID restricts to one bank account. Optional.
	ContaID string `json:"conta_id,omitempty"`
	// ExtratoID restricts statement lines to one imported statement. Optional.
	ExtratoID string `json:"extrato_id,omitempty"`
	// DataInicio and DataFim bound the covered period, inclusive on both
	// ends. Either may be zero.
	DataInicio time.Time `json:"data_inicio,omitempty"`
	DataFim    time.Time `json:"data_fim,omitempty"`
	// Status restricts to one reconciliation status. Optional.
	Status StatusConciliacao `json:"status,omitempty"`
	// Direcao restricts statement lines by direction. Optional, ignored for
	// lançamentos.
	Direcao DirecaoExtrato `json:"direcao,omitempty"`
}

// Validate checks the filter for malformed ranges and unknown enum values.
func (f *ConciliacaoFiltros) Validate() error {
	if f.CartorioID == "" {
		return fmt.Errorf("filter cartorio ID cannot be empty")
	}
	if !f.DataInicio.IsZero() && !f.DataFim.IsZero() && f.DataFim.Before(f.DataInicio) {
		return fmt.Errorf("filter end date %s is before start date %s",
			f.DataFim.Format("2006-01-02"), f.DataInicio.Format("2006-01-02"))
	}
	if f.Status != "" && !f.Status.IsValid() {
		return fmt.Errorf("invalid filter status: %s", f.Status)
	}
	if f.Direcao != "" && !f.Direcao.IsValid() {
		return fmt.Errorf("invalid filter direction: %s", f.Direcao)
	}
	return nil
}

// MatchExtratoItem reports whether the statement line falls inside the
// filter.
func (f *ConciliacaoFiltros) MatchExtratoItem(ei *ExtratoItem) bool {
	if ei.CartorioID != f.CartorioID {
		return false
	}
	if f.ContaID != "" && ei.ContaID != f.ContaID {
		return false
	}
	if f.ExtratoID != "" && ei.ExtratoID != f.ExtratoID {
		return false
	}
	if f.Status != "" && ei.StatusConciliacao != f.Status {
		return false
	}
	if f.Direcao != "" && ei.Direcao != f.Direcao {
		return false
	}
	return f.matchPeriodo(ei.Data)
}

// MatchLancamento reports whether the ledger entry falls inside the filter.
func (f *ConciliacaoFiltros) MatchLancamento(l *Lancamento) bool {
	if l.CartorioID != f.CartorioID {
		return false
	}
	if f.ContaID != "" && l.ContaID != f.ContaID {
		return false
	}
	if f.Status != "" && l.StatusConciliacao != f.Status {
		return false
	}
	return f.matchPeriodo(l.Data)
}

func (f *ConciliacaoFiltros) matchPeriodo(data time.Time) bool {
	if !f.DataInicio.IsZero() && data.Before(truncaDia(f.DataInicio)) {
		return false
	}
	if !f.DataFim.IsZero() && data.After(fimDoDia(f.DataFim)) {
		return false
	}
	return true
}

func truncaDia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func fimDoDia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
