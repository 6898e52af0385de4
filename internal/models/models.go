// Package models defines the data model of the reconciliation core: bank
// accounts, imported statements and their lines, ledger entries, the link
// record tying a statement line to a ledger entry, and the derived
// suggestion/statistics shapes.
//
// Monetary values use decimal.Decimal throughout; float arithmetic is never
// applied to amounts. Status fields are closed enumerations governed by the
// transition rules in status.go.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContaBancaria is a bank account owned by a cartório. Identity is
// immutable; the balance is mutated externally by statement ingestion.
type ContaBancaria struct {
	ID         string          `json:"id"`
	CartorioID string          `json:"cartorio_id"`
	Banco      string          `json:"banco"`
	Agencia    string          `json:"agencia"`
	Numero     string          `json:"numero"`
	Tipo       TipoConta       `json:"tipo"`
	Saldo      decimal.Decimal `json:"saldo"`
	Ativa      bool            `json:"ativa"`
}

// Extrato is one imported bank statement. It is created by ingestion and
// read-only to this core.
type Extrato struct {
	ID            string    `json:"id"`
	CartorioID    string    `json:"cartorio_id"`
	ContaID       string    `json:"conta_id"`
	Arquivo       string    `json:"arquivo"`
	PeriodoInicio time.Time `json:"periodo_inicio"`
	PeriodoFim    time.Time `json:"periodo_fim"`
	TotalItens    int       `json:"total_itens"`
	Status        string    `json:"status"`
}

// ExtratoItem is one transaction line within a statement.
//
// Invariant: LancamentoVinculadoID is non-nil iff StatusConciliacao is
// conciliado or divergente. The Linker is the sole writer of the status and
// linkage fields.
type ExtratoItem struct {
	ID                    string            `json:"id"`
	ExtratoID             string            `json:"extrato_id"`
	CartorioID            string            `json:"cartorio_id"`
	ContaID               string            `json:"conta_id"`
	Data                  time.Time         `json:"data"`
	Descricao             string            `json:"descricao"`
	Valor                 decimal.Decimal   `json:"valor"`
	Direcao               DirecaoExtrato    `json:"direcao"`
	Saldo                 *decimal.Decimal  `json:"saldo,omitempty"`
	StatusConciliacao     StatusConciliacao `json:"status_conciliacao"`
	LancamentoVinculadoID *string           `json:"lancamento_vinculado_id,omitempty"`
}

// Validate performs basic validation on the ExtratoItem, including the
// linkage invariant.
func (ei *ExtratoItem) Validate() error {
	if strings.TrimSpace(ei.ID) == "" {
		return fmt.Errorf("extrato item ID cannot be empty")
	}
	if strings.TrimSpace(ei.CartorioID) == "" {
		return fmt.Errorf("extrato item cartorio ID cannot be empty")
	}
	if ei.Data.IsZero() {
		return fmt.Errorf("extrato item date cannot be zero")
	}
	if !ei.Direcao.IsValid() {
		return fmt.Errorf("invalid extrato item direction: %s", ei.Direcao)
	}
	if !ei.StatusConciliacao.IsValid() {
		return fmt.Errorf("invalid extrato item status: %s", ei.StatusConciliacao)
	}
	if ei.StatusConciliacao.IsVinculado() != (ei.LancamentoVinculadoID != nil) {
		return fmt.Errorf("extrato item %s: linkage field inconsistent with status %s",
			ei.ID, ei.StatusConciliacao)
	}
	return nil
}

// ValorAbsoluto returns the magnitude of the line amount. Statement lines
// carry signed amounts (debits negative); matching and difference
// computations work on magnitudes.
func (ei *ExtratoItem) ValorAbsoluto() decimal.Decimal {
	return ei.Valor.Abs()
}

// String returns a string representation of the ExtratoItem
func (ei *ExtratoItem) String() string {
	return fmt.Sprintf("ExtratoItem{ID: %s, Valor: %s, Direcao: %s, Data: %s, Status: %s}",
		ei.ID, ei.Valor.String(), ei.Direcao, ei.Data.Format("2006-01-02"), ei.StatusConciliacao)
}

// Lancamento is one internal ledger entry.
//
// Same linkage invariant as ExtratoItem, mirrored: ExtratoItemVinculadoID is
// non-nil iff the status implies a link.
type Lancamento struct {
	ID                     string            `json:"id"`
	CartorioID             string            `json:"cartorio_id"`
	ContaID                string            `json:"conta_id"`
	Data                   time.Time         `json:"data"`
	Descricao              string            `json:"descricao"`
	Tipo                   TipoLancamento    `json:"tipo"`
	Categoria              string            `json:"categoria"`
	Valor                  decimal.Decimal   `json:"valor"`
	StatusPagamento        StatusPagamento   `json:"status_pagamento"`
	StatusConciliacao      StatusConciliacao `json:"status_conciliacao"`
	ExtratoItemVinculadoID *string           `json:"extrato_item_vinculado_id,omitempty"`
	Responsavel            string            `json:"responsavel,omitempty"`
	Observacoes            string            `json:"observacoes,omitempty"`
}

// Validate performs basic validation on the Lancamento.
func (l *Lancamento) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("lancamento ID cannot be empty")
	}
	if strings.TrimSpace(l.CartorioID) == "" {
		return fmt.Errorf("lancamento cartorio ID cannot be empty")
	}
	if l.Data.IsZero() {
		return fmt.Errorf("lancamento date cannot be zero")
	}
	if !l.Tipo.IsValid() {
		return fmt.Errorf("invalid lancamento kind: %s", l.Tipo)
	}
	if l.Valor.IsNegative() {
		return fmt.Errorf("lancamento amount cannot be negative: %s", l.Valor)
	}
	if !l.StatusPagamento.IsValid() {
		return fmt.Errorf("invalid lancamento payment status: %s", l.StatusPagamento)
	}
	if !l.StatusConciliacao.IsValid() {
		return fmt.Errorf("invalid lancamento status: %s", l.StatusConciliacao)
	}
	if l.StatusConciliacao.IsVinculado() != (l.ExtratoItemVinculadoID != nil) {
		return fmt.Errorf("lancamento %s: linkage field inconsistent with status %s",
			l.ID, l.StatusConciliacao)
	}
	return nil
}

// String returns a string representation of the Lancamento
func (l *Lancamento) String() string {
	return fmt.Sprintf("Lancamento{ID: %s, Valor: %s, Tipo: %s, Data: %s, Status: %s}",
		l.ID, l.Valor.String(), l.Tipo, l.Data.Format("2006-01-02"), l.StatusConciliacao)
}

// Conciliacao is the link record tying exactly one ExtratoItem to exactly
// one Lancamento. It is created and deleted, never updated in place;
// re-linking deletes and recreates.
//
// Invariant: across all committed Conciliacao records, extrato item ids are
// unique and lançamento ids are unique (strict one-to-one).
type Conciliacao struct {
	ID            string          `json:"id"`
	CartorioID    string          `json:"cartorio_id"`
	ExtratoItemID string          `json:"extrato_item_id"`
	LancamentoID  string          `json:"lancamento_id"`
	Diferenca     decimal.Decimal `json:"diferenca"`
	Nota          string          `json:"nota,omitempty"`
	VinculadaEm   time.Time       `json:"vinculada_em"`
}

// Validate performs basic validation on the Conciliacao.
func (c *Conciliacao) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("conciliacao ID cannot be empty")
	}
	if strings.TrimSpace(c.ExtratoItemID) == "" {
		return fmt.Errorf("conciliacao extrato item ID cannot be empty")
	}
	if strings.TrimSpace(c.LancamentoID) == "" {
		return fmt.Errorf("conciliacao lancamento ID cannot be empty")
	}
	if c.VinculadaEm.IsZero() {
		return fmt.Errorf("conciliacao link time cannot be zero")
	}
	return nil
}

// SugestaoConciliacao is an ephemeral, non-persisted recommendation of a
// candidate ledger entry for a statement line. Produced fresh on each query.
type SugestaoConciliacao struct {
	Lancamento *Lancamento `json:"lancamento"`
	// Score is the confidence in [0, 100].
	Score float64 `json:"score"`
	// Motivos lists the human-readable reasons that contributed to the
	// score. The textual trail is part of the contract, not logging.
	Motivos []string `json:"motivos"`
}

// ConciliacaoStats holds derived counts and value totals over a filtered
// record population. Recomputed on demand, never persisted.
type ConciliacaoStats struct {
	Conciliados int `json:"conciliados"`
	Pendentes   int `json:"pendentes"`
	Divergentes int `json:"divergentes"`
	Total       int `json:"total"`
	// TaxaConciliacao is conciliados / total, zero when there are no items.
	TaxaConciliacao  float64         `json:"taxa_conciliacao"`
	ValorExtrato     decimal.Decimal `json:"valor_extrato"`
	ValorLancamentos decimal.Decimal `json:"valor_lancamentos"`
	// DiferencaValores is the delta between the statement and ledger value
	// totals (magnitudes).
	DiferencaValores decimal.Decimal `json:"diferenca_valores"`
}

// FechamentoDiario is the daily closing aggregate for one calendar date.
type FechamentoDiario struct {
	Data                 time.Time       `json:"data"`
	Conciliados          int             `json:"conciliados"`
	Pendentes            int             `json:"pendentes"`
	Divergentes          int             `json:"divergentes"`
	Total                int             `json:"total"`
	ValorConciliado      decimal.Decimal `json:"valor_conciliado"`
	ValorPendente        decimal.Decimal `json:"valor_pendente"`
	ValorDivergente      decimal.Decimal `json:"valor_divergente"`
	DiferencaTotal       decimal.Decimal `json:"diferenca_total"`
	PercentualConciliado float64         `json:"percentual_conciliado"`
}

// ParseValor parses a monetary amount from its string form, tolerating
// currency symbols and thousand separators.
func ParseValor(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// MesmoDia reports whether two timestamps fall on the same UTC calendar day.
func MesmoDia(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// DiasEntre returns the absolute whole-day distance between two UTC dates,
// ignoring the time-of-day component.
func DiasEntre(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := ad.Sub(bd)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
