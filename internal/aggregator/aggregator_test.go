package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conciliador/internal/models"
)

func itemComStatus(id string, valor float64, dia int, status models.StatusConciliacao) *models.ExtratoItem {
	it := &models.ExtratoItem{
		ID:                id,
		ExtratoID:         "EX-1",
		CartorioID:        "CART-1",
		ContaID:           "CONTA-1",
		Data:              time.Date(2024, 3, dia, 0, 0, 0, 0, time.UTC),
		Descricao:         "movimento",
		Valor:             decimal.NewFromFloat(valor),
		Direcao:           models.DirecaoCredito,
		StatusConciliacao: status,
	}
	if status.IsVinculado() {
		lancID := "L-" + id
		it.LancamentoVinculadoID = &lancID
	}
	return it
}

func TestCalcularStats(t *testing.T) {
	itens := []*models.ExtratoItem{
		itemComStatus("EI-1", 150.00, 10, models.StatusConciliado),
		itemComStatus("EI-2", -89.90, 10, models.StatusPendente),
		itemComStatus("EI-3", 320.50, 11, models.StatusDivergente),
		itemComStatus("EI-4", 40.00, 12, models.StatusConciliado),
	}
	lancamentos := []*models.Lancamento{
		{ID: "L-1", Valor: decimal.NewFromFloat(150.00)},
		{ID: "L-2", Valor: decimal.NewFromFloat(315.50)},
	}

	stats := CalcularStats(itens, lancamentos)

	if stats.Total != 4 || stats.Conciliados != 2 || stats.Pendentes != 1 || stats.Divergentes != 1 {
		t.Errorf("counts = %+v, want 4/2/1/1", stats)
	}
	if stats.TaxaConciliacao != 0.5 {
		t.Errorf("taxa = %f, want 0.5", stats.TaxaConciliacao)
	}
	// Debit magnitude counts positively: 150 + 89.90 + 320.50 + 40.
	if !stats.ValorExtrato.Equal(decimal.NewFromFloat(600.40)) {
		t.Errorf("valor extrato = %s, want 600.40", stats.ValorExtrato)
	}
	if !stats.ValorLancamentos.Equal(decimal.NewFromFloat(465.50)) {
		t.Errorf("valor lancamentos = %s, want 465.50", stats.ValorLancamentos)
	}
	if !stats.DiferencaValores.Equal(decimal.NewFromFloat(134.90)) {
		t.Errorf("diferenca = %s, want 134.90", stats.DiferencaValores)
	}
}

func TestCalcularStatsEmpty(t *testing.T) {
	stats := CalcularStats(nil, nil)
	if stats.Total != 0 || stats.TaxaConciliacao != 0 {
		t.Errorf("empty population must yield zero stats, got %+v", stats)
	}
	if !stats.ValorExtrato.IsZero() || !stats.DiferencaValores.IsZero() {
		t.Error("empty population must yield zero totals")
	}
}

func TestCalcularFechamentoDiario(t *testing.T) {
	dia := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	itens := []*models.ExtratoItem{
		itemComStatus("EI-1", 150.00, 10, models.StatusConciliado),
		itemComStatus("EI-2", 89.90, 10, models.StatusPendente),
		itemComStatus("EI-3", 320.50, 10, models.StatusDivergente),
		itemComStatus("EI-4", 999.00, 11, models.StatusConciliado), // other day
	}
	conciliacoes := []*models.Conciliacao{
		{ID: "C-1", ExtratoItemID: "EI-1", Diferenca: decimal.Zero},
		{ID: "C-2", ExtratoItemID: "EI-3", Diferenca: decimal.NewFromFloat(5.00)},
		{ID: "C-3", ExtratoItemID: "EI-4", Diferenca: decimal.NewFromFloat(1.00)},
	}

	f := CalcularFechamentoDiario(dia, itens, conciliacoes)

	if f.Total != 3 || f.Conciliados != 1 || f.Pendentes != 1 || f.Divergentes != 1 {
		t.Errorf("counts = %+v, want 3/1/1/1", f)
	}
	if !f.ValorConciliado.Equal(decimal.NewFromFloat(150.00)) {
		t.Errorf("valor conciliado = %s, want 150", f.ValorConciliado)
	}
	if !f.ValorPendente.Equal(decimal.NewFromFloat(89.90)) {
		t.Errorf("valor pendente = %s, want 89.90", f.ValorPendente)
	}
	if !f.ValorDivergente.Equal(decimal.NewFromFloat(320.50)) {
		t.Errorf("valor divergente = %s, want 320.50", f.ValorDivergente)
	}
	// Only the day's links contribute to the accumulated difference.
	if !f.DiferencaTotal.Equal(decimal.NewFromFloat(5.00)) {
		t.Errorf("diferenca total = %s, want 5", f.DiferencaTotal)
	}
	if f.PercentualConciliado < 33.3 || f.PercentualConciliado > 33.4 {
		t.Errorf("percentual = %f, want ~33.33", f.PercentualConciliado)
	}
}

func TestCalcularFechamentoDiarioEmptyDay(t *testing.T) {
	dia := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	itens := []*models.ExtratoItem{
		itemComStatus("EI-1", 150.00, 10, models.StatusConciliado),
	}

	f := CalcularFechamentoDiario(dia, itens, nil)
	if f.Total != 0 || f.PercentualConciliado != 0 {
		t.Errorf("day without movement must yield zero closing, got %+v", f)
	}
}
