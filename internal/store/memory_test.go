package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conciliador/internal/models"
	apperrors "conciliador/pkg/errors"
)

func itemTeste(id string, dia int) *models.ExtratoItem {
	return &models.ExtratoItem{
		ID:                id,
		ExtratoID:         "EX-1",
		CartorioID:        "CART-1",
		ContaID:           "CONTA-1",
		Data:              time.Date(2024, 3, dia, 0, 0, 0, 0, time.UTC),
		Descricao:         "PIX JOAO SILVA",
		Valor:             decimal.NewFromFloat(150.00),
		Direcao:           models.DirecaoCredito,
		StatusConciliacao: models.StatusPendente,
	}
}

func lancamentoTeste(id string, dia int) *models.Lancamento {
	return &models.Lancamento{
		ID:                id,
		CartorioID:        "CART-1",
		ContaID:           "CONTA-1",
		Data:              time.Date(2024, 3, dia, 0, 0, 0, 0, time.UTC),
		Descricao:         "Recebimento João Silva",
		Tipo:              models.TipoReceita,
		Categoria:         "Emolumentos",
		Valor:             decimal.NewFromFloat(150.00),
		StatusPagamento:   models.PagamentoPago,
		StatusConciliacao: models.StatusPendente,
	}
}

func TestMemoryGetScopedByCartorio(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.PutExtratoItem(ctx, itemTeste("EI-1", 10)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := m.GetExtratoItem(ctx, "CART-1", "EI-1"); err != nil {
		t.Errorf("get within scope: %v", err)
	}

	_, err := m.GetExtratoItem(ctx, "CART-2", "EI-1")
	if !apperrors.IsNotFound(err) {
		t.Errorf("cross-tenant read must resolve as not found, got %v", err)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.PutExtratoItem(ctx, itemTeste("EI-1", 10)); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, _ := m.GetExtratoItem(ctx, "CART-1", "EI-1")
	first.Descricao = "mutated by caller"

	second, _ := m.GetExtratoItem(ctx, "CART-1", "EI-1")
	if second.Descricao != "PIX JOAO SILVA" {
		t.Error("mutating a returned record must not affect stored state")
	}
}

func TestMemoryPutRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	broken := itemTeste("EI-1", 10)
	id := "L-1"
	broken.LancamentoVinculadoID = &id // status still pendente

	if err := m.PutExtratoItem(ctx, broken); err == nil {
		t.Error("linkage field without linked status must be rejected")
	}
}

func TestMemoryListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, item := range []*models.ExtratoItem{
		itemTeste("EI-2", 12),
		itemTeste("EI-1", 10),
		itemTeste("EI-3", 20),
	} {
		if err := m.PutExtratoItem(ctx, item); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	outro := itemTeste("EI-9", 11)
	outro.CartorioID = "CART-2"
	if err := m.PutExtratoItem(ctx, outro); err != nil {
		t.Fatalf("put: %v", err)
	}

	itens, err := m.ListExtratoItens(ctx, models.ConciliacaoFiltros{
		CartorioID: "CART-1",
		DataInicio: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		DataFim:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(itens) != 2 {
		t.Fatalf("expected 2 items inside the period, got %d", len(itens))
	}
	if itens[0].ID != "EI-1" || itens[1].ID != "EI-2" {
		t.Errorf("list order = [%s %s], want [EI-1 EI-2]", itens[0].ID, itens[1].ID)
	}
}

func TestMemoryListRejectsInvalidFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.ListExtratoItens(ctx, models.ConciliacaoFiltros{
		CartorioID: "CART-1",
		DataInicio: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		DataFim:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if !apperrors.IsInvalidFilter(err) {
		t.Errorf("inverted period must be rejected as invalid filter, got %v", err)
	}
}

func TestMemoryInTxCommits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.PutExtratoItem(ctx, itemTeste("EI-1", 10)); err != nil {
		t.Fatalf("put item: %v", err)
	}
	if err := m.PutLancamento(ctx, lancamentoTeste("L-1", 10)); err != nil {
		t.Fatalf("put lancamento: %v", err)
	}

	err := m.InTx(ctx, func(tx Tx) error {
		item, err := tx.GetExtratoItem("CART-1", "EI-1")
		if err != nil {
			return err
		}
		lancID := "L-1"
		item.StatusConciliacao = models.StatusConciliado
		item.LancamentoVinculadoID = &lancID
		if err := tx.UpdateExtratoItem(item); err != nil {
			return err
		}
		return tx.InsertConciliacao(&models.Conciliacao{
			ID:            "C-1",
			CartorioID:    "CART-1",
			ExtratoItemID: "EI-1",
			LancamentoID:  "L-1",
			Diferenca:     decimal.Zero,
			VinculadaEm:   time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	item, err := m.GetExtratoItem(ctx, "CART-1", "EI-1")
	if err != nil {
		t.Fatalf("get after commit: %v", err)
	}
	if item.StatusConciliacao != models.StatusConciliado {
		t.Errorf("status after commit = %s, want conciliado", item.StatusConciliacao)
	}
	if _, err := m.GetConciliacao(ctx, "CART-1", "C-1"); err != nil {
		t.Errorf("conciliacao after commit: %v", err)
	}
}

func TestMemoryInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.PutExtratoItem(ctx, itemTeste("EI-1", 10)); err != nil {
		t.Fatalf("put: %v", err)
	}

	boom := errors.New("boom")
	err := m.InTx(ctx, func(tx Tx) error {
		item, err := tx.GetExtratoItem("CART-1", "EI-1")
		if err != nil {
			return err
		}
		lancID := "L-1"
		item.StatusConciliacao = models.StatusConciliado
		item.LancamentoVinculadoID = &lancID
		if err := tx.UpdateExtratoItem(item); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("tx error = %v, want boom", err)
	}

	item, _ := m.GetExtratoItem(ctx, "CART-1", "EI-1")
	if item.StatusConciliacao != models.StatusPendente {
		t.Errorf("status after rollback = %s, want pendente", item.StatusConciliacao)
	}
}

func TestMemoryInTxRollsBackOnCancel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.PutExtratoItem(ctx, itemTeste("EI-1", 10)); err != nil {
		t.Fatalf("put: %v", err)
	}

	cancelable, cancel := context.WithCancel(ctx)
	err := m.InTx(cancelable, func(tx Tx) error {
		item, err := tx.GetExtratoItem("CART-1", "EI-1")
		if err != nil {
			return err
		}
		lancID := "L-1"
		item.StatusConciliacao = models.StatusConciliado
		item.LancamentoVinculadoID = &lancID
		if err := tx.UpdateExtratoItem(item); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("tx error = %v, want context.Canceled", err)
	}

	item, _ := m.GetExtratoItem(ctx, "CART-1", "EI-1")
	if item.StatusConciliacao != models.StatusPendente {
		t.Errorf("status after cancellation = %s, want pendente", item.StatusConciliacao)
	}
}

func TestMemoryTxReadsSeeOwnWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.PutLancamento(ctx, lancamentoTeste("L-1", 10)); err != nil {
		t.Fatalf("put: %v", err)
	}

	err := m.InTx(ctx, func(tx Tx) error {
		l, err := tx.GetLancamento("CART-1", "L-1")
		if err != nil {
			return err
		}
		itemID := "EI-1"
		l.StatusConciliacao = models.StatusConciliado
		l.ExtratoItemVinculadoID = &itemID
		if err := tx.UpdateLancamento(l); err != nil {
			return err
		}

		again, err := tx.GetLancamento("CART-1", "L-1")
		if err != nil {
			return err
		}
		if again.StatusConciliacao != models.StatusConciliado {
			t.Error("tx read must see the tx's own staged write")
		}
		return errors.New("abort") // never commit test state
	})
	if err == nil {
		t.Fatal("expected abort error")
	}
}

func TestMemoryTxDeleteConciliacao(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.InTx(ctx, func(tx Tx) error {
		return tx.InsertConciliacao(&models.Conciliacao{
			ID:            "C-1",
			CartorioID:    "CART-1",
			ExtratoItemID: "EI-1",
			LancamentoID:  "L-1",
			Diferenca:     decimal.Zero,
			VinculadaEm:   time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("insert tx: %v", err)
	}

	err = m.InTx(ctx, func(tx Tx) error {
		if err := tx.DeleteConciliacao("CART-1", "C-1"); err != nil {
			return err
		}
		_, err := tx.GetConciliacao("CART-1", "C-1")
		if !apperrors.IsNotFound(err) {
			t.Errorf("deleted conciliacao must be gone within the tx, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("delete tx: %v", err)
	}

	_, err = m.GetConciliacao(ctx, "CART-1", "C-1")
	if !apperrors.IsNotFound(err) {
		t.Errorf("deleted conciliacao must be gone after commit, got %v", err)
	}

	err = m.InTx(ctx, func(tx Tx) error {
		return tx.DeleteConciliacao("CART-1", "C-1")
	})
	if !apperrors.IsNotFound(err) {
		t.Errorf("deleting a missing conciliacao must be not found, got %v", err)
	}
}
