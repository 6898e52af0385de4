package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conciliador/internal/matcher"
	"conciliador/internal/models"
	"conciliador/internal/store"
	apperrors "conciliador/pkg/errors"
)

func item(id string, valor float64, dia int, descricao string) *models.ExtratoItem {
	return &models.ExtratoItem{
		ID:                id,
		ExtratoID:         "EX-1",
		CartorioID:        "CART-1",
		ContaID:           "CONTA-1",
		Data:              time.Date(2024, 3, dia, 0, 0, 0, 0, time.UTC),
		Descricao:         descricao,
		Valor:             decimal.NewFromFloat(valor),
		Direcao:           models.DirecaoCredito,
		StatusConciliacao: models.StatusPendente,
	}
}

func lancamento(id string, valor float64, dia int, descricao string) *models.Lancamento {
	return &models.Lancamento{
		ID:                id,
		CartorioID:        "CART-1",
		ContaID:           "CONTA-1",
		Data:              time.Date(2024, 3, dia, 0, 0, 0, 0, time.UTC),
		Descricao:         descricao,
		Tipo:              models.TipoReceita,
		Categoria:         "Emolumentos",
		Valor:             decimal.NewFromFloat(valor),
		StatusPagamento:   models.PagamentoPago,
		StatusConciliacao: models.StatusPendente,
	}
}

func novoServico(t *testing.T, itens []*models.ExtratoItem, lancamentos []*models.Lancamento) *Conciliador {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	for _, it := range itens {
		if err := m.PutExtratoItem(ctx, it); err != nil {
			t.Fatalf("put item: %v", err)
		}
	}
	for _, l := range lancamentos {
		if err := m.PutLancamento(ctx, l); err != nil {
			t.Fatalf("put lancamento: %v", err)
		}
	}
	svc, err := New(m, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := matcher.DefaultMatchingConfig()
	config.PesoValor = 90
	if _, err := New(store.NewMemory(), config); err == nil {
		t.Error("invalid matching config must be rejected")
	}
}

func TestSugerirRanksCandidates(t *testing.T) {
	ctx := context.Background()
	svc := novoServico(t,
		[]*models.ExtratoItem{item("EI-1", 150.00, 10, "PIX JOAO SILVA")},
		[]*models.Lancamento{
			lancamento("L-1", 150.00, 10, "Recebimento João Silva"),
			lancamento("L-2", 145.00, 14, ""),
			lancamento("L-3", 150.00, 25, "Recebimento João Silva"), // outside window
		})

	sugestoes, err := svc.Sugerir(ctx, "CART-1", "EI-1")
	if err != nil {
		t.Fatalf("sugerir: %v", err)
	}

	if len(sugestoes) != 2 {
		t.Fatalf("suggestions = %d, want 2 (window excludes L-3)", len(sugestoes))
	}
	if sugestoes[0].Lancamento.ID != "L-1" {
		t.Errorf("best suggestion = %s, want L-1", sugestoes[0].Lancamento.ID)
	}
	if sugestoes[0].Score <= sugestoes[1].Score {
		t.Error("suggestions must be ordered by score descending")
	}
	if len(sugestoes[0].Motivos) == 0 {
		t.Error("suggestions must carry their contributing reasons")
	}
}

func TestSugerirUnknownItem(t *testing.T) {
	ctx := context.Background()
	svc := novoServico(t, nil, nil)

	if _, err := svc.Sugerir(ctx, "CART-1", "EI-404"); !apperrors.IsNotFound(err) {
		t.Errorf("unknown item must be not found, got %v", err)
	}
}

func TestSugerirLoteCoversAllPending(t *testing.T) {
	ctx := context.Background()
	svc := novoServico(t,
		[]*models.ExtratoItem{
			item("EI-1", 150.00, 10, "PIX JOAO SILVA"),
			item("EI-2", 7777.00, 15, "SAQUE CAIXA"),
		},
		[]*models.Lancamento{lancamento("L-1", 150.00, 10, "Recebimento João Silva")})

	lote, err := svc.SugerirLote(ctx, models.ConciliacaoFiltros{CartorioID: "CART-1"})
	if err != nil {
		t.Fatalf("sugerir lote: %v", err)
	}

	if len(lote) != 2 {
		t.Fatalf("batch entries = %d, want one per pending line", len(lote))
	}
	if len(lote[0].Sugestoes) == 0 {
		t.Error("matching line must carry suggestions")
	}
	if len(lote[1].Sugestoes) != 0 {
		t.Error("line without viable candidates must carry an empty list")
	}
}

func TestVincularEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := novoServico(t,
		[]*models.ExtratoItem{item("EI-1", 150.00, 10, "PIX JOAO SILVA")},
		[]*models.Lancamento{lancamento("L-1", 150.00, 10, "Recebimento João Silva")})

	conciliacao, err := svc.Vincular(ctx, "CART-1", "EI-1", "L-1", "manual")
	if err != nil {
		t.Fatalf("vincular: %v", err)
	}

	// Linked entries disappear from fresh suggestion queries.
	sugestoes, err := svc.Sugerir(ctx, "CART-1", "EI-1")
	if err != nil {
		t.Fatalf("sugerir: %v", err)
	}
	if len(sugestoes) != 0 {
		t.Errorf("linked entries must not be suggested, got %d", len(sugestoes))
	}

	if err := svc.Desvincular(ctx, "CART-1", conciliacao.ID); err != nil {
		t.Fatalf("desvincular: %v", err)
	}

	sugestoes, err = svc.Sugerir(ctx, "CART-1", "EI-1")
	if err != nil {
		t.Fatalf("sugerir after unlink: %v", err)
	}
	if len(sugestoes) != 1 {
		t.Errorf("unlinked entry must be suggestible again, got %d", len(sugestoes))
	}
}

func TestAutoConciliarAndStats(t *testing.T) {
	ctx := context.Background()
	svc := novoServico(t,
		[]*models.ExtratoItem{
			item("EI-1", 150.00, 10, "PIX JOAO SILVA"),
			item("EI-2", 999.99, 10, "DEPOSITO AVULSO"),
		},
		[]*models.Lancamento{lancamento("L-1", 150.00, 10, "Recebimento João Silva")})

	resultado, err := svc.AutoConciliar(ctx, models.ConciliacaoFiltros{CartorioID: "CART-1"})
	if err != nil {
		t.Fatalf("auto conciliar: %v", err)
	}
	if len(resultado.Vinculadas) != 1 {
		t.Fatalf("auto links = %d, want 1", len(resultado.Vinculadas))
	}

	stats, err := svc.Stats(ctx, models.ConciliacaoFiltros{CartorioID: "CART-1"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Conciliados != 1 || stats.Pendentes != 1 {
		t.Errorf("stats = %+v, want 2 total, 1 conciliado, 1 pendente", stats)
	}
	if stats.TaxaConciliacao != 0.5 {
		t.Errorf("taxa = %f, want 0.5", stats.TaxaConciliacao)
	}
}

func TestFechamentoDiario(t *testing.T) {
	ctx := context.Background()
	svc := novoServico(t,
		[]*models.ExtratoItem{
			item("EI-1", 150.00, 10, "PIX JOAO SILVA"),
			item("EI-2", 89.90, 11, "TARIFA"),
		},
		[]*models.Lancamento{lancamento("L-1", 145.00, 10, "Recebimento João Silva")})

	if _, err := svc.Vincular(ctx, "CART-1", "EI-1", "L-1", ""); err != nil {
		t.Fatalf("vincular: %v", err)
	}

	dia := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f, err := svc.FechamentoDiario(ctx, models.ConciliacaoFiltros{CartorioID: "CART-1"}, dia)
	if err != nil {
		t.Fatalf("fechamento: %v", err)
	}

	if f.Total != 1 || f.Divergentes != 1 {
		t.Errorf("closing = %+v, want 1 divergente line on the day", f)
	}
	if !f.DiferencaTotal.Equal(decimal.NewFromFloat(5.00)) {
		t.Errorf("diferenca total = %s, want 5", f.DiferencaTotal)
	}
	if f.PercentualConciliado != 0 {
		t.Errorf("percentual conciliado = %f, want 0 (link is divergente)", f.PercentualConciliado)
	}
}

func TestFechamentoDiarioFiltraPorConta(t *testing.T) {
	ctx := context.Background()
	outraConta := item("EI-2", 89.90, 10, "TARIFA")
	outraConta.ContaID = "CONTA-2"
	svc := novoServico(t,
		[]*models.ExtratoItem{
			item("EI-1", 150.00, 10, "PIX JOAO SILVA"),
			outraConta,
		},
		[]*models.Lancamento{lancamento("L-1", 150.00, 10, "Recebimento João Silva")})

	if _, err := svc.Vincular(ctx, "CART-1", "EI-1", "L-1", ""); err != nil {
		t.Fatalf("vincular: %v", err)
	}

	dia := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f, err := svc.FechamentoDiario(ctx, models.ConciliacaoFiltros{CartorioID: "CART-1", ContaID: "CONTA-2"}, dia)
	if err != nil {
		t.Fatalf("fechamento: %v", err)
	}

	if f.Total != 1 || f.Pendentes != 1 || f.Conciliados != 0 {
		t.Errorf("closing = %+v, want only CONTA-2's pending line", f)
	}
	if !f.ValorPendente.Equal(decimal.NewFromFloat(89.90)) {
		t.Errorf("valor pendente = %s, want 89.90", f.ValorPendente)
	}
}
