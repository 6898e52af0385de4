// Package aggregator derives reconciliation statistics and daily closing
// summaries from record populations. Everything here is a pure computation
// over slices the caller already fetched; nothing is persisted.
package aggregator

import (
	"time"

	"github.com/shopspring/decimal"

	"conciliador/internal/models"
)

// CalcularStats computes counts and value totals over a filtered population.
// Statement line amounts enter as magnitudes so credit and debit lines
// aggregate on the same scale as the unsigned ledger amounts.
func CalcularStats(itens []*models.ExtratoItem, lancamentos []*models.Lancamento) *models.ConciliacaoStats {
	stats := &models.ConciliacaoStats{
		ValorExtrato:     decimal.Zero,
		ValorLancamentos: decimal.Zero,
		DiferencaValores: decimal.Zero,
	}

	for _, item := range itens {
		stats.Total++
		switch item.StatusConciliacao {
		case models.StatusConciliado:
			stats.Conciliados++
		case models.StatusDivergente:
			stats.Divergentes++
		default:
			stats.Pendentes++
		}
		stats.ValorExtrato = stats.ValorExtrato.Add(item.ValorAbsoluto())
	}

	for _, l := range lancamentos {
		stats.ValorLancamentos = stats.ValorLancamentos.Add(l.Valor)
	}

	stats.DiferencaValores = stats.ValorExtrato.Sub(stats.ValorLancamentos)
	if stats.Total > 0 {
		stats.TaxaConciliacao = float64(stats.Conciliados) / float64(stats.Total)
	}
	return stats
}

// CalcularFechamentoDiario computes the closing summary for one calendar
// date: the day's statement lines bucketed by status, their value totals and
// the accumulated link differences of the day's linked lines.
func CalcularFechamentoDiario(data time.Time, itens []*models.ExtratoItem, conciliacoes []*models.Conciliacao) *models.FechamentoDiario {
	fechamento := &models.FechamentoDiario{
		Data:            data,
		ValorConciliado: decimal.Zero,
		ValorPendente:   decimal.Zero,
		ValorDivergente: decimal.Zero,
		DiferencaTotal:  decimal.Zero,
	}

	diferencas := make(map[string]decimal.Decimal, len(conciliacoes))
	for _, c := range conciliacoes {
		diferencas[c.ExtratoItemID] = c.Diferenca
	}

	for _, item := range itens {
		if !models.MesmoDia(item.Data, data) {
			continue
		}
		fechamento.Total++
		valor := item.ValorAbsoluto()
		switch item.StatusConciliacao {
		case models.StatusConciliado:
			fechamento.Conciliados++
			fechamento.ValorConciliado = fechamento.ValorConciliado.Add(valor)
		case models.StatusDivergente:
			fechamento.Divergentes++
			fechamento.ValorDivergente = fechamento.ValorDivergente.Add(valor)
		default:
			fechamento.Pendentes++
			fechamento.ValorPendente = fechamento.ValorPendente.Add(valor)
		}
		if diferenca, ok := diferencas[item.ID]; ok {
			fechamento.DiferencaTotal = fechamento.DiferencaTotal.Add(diferenca)
		}
	}

	if fechamento.Total > 0 {
		fechamento.PercentualConciliado = float64(fechamento.Conciliados) / float64(fechamento.Total) * 100
	}
	return fechamento
}
