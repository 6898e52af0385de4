package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conciliador/internal/models"
	apperrors "conciliador/pkg/errors"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	saldo := decimal.NewFromFloat(1234.56)
	item := itemTeste("EI-1", 10)
	item.Saldo = &saldo
	if err := s.PutExtratoItem(ctx, item); err != nil {
		t.Fatalf("put item: %v", err)
	}
	if err := s.PutLancamento(ctx, lancamentoTeste("L-1", 10)); err != nil {
		t.Fatalf("put lancamento: %v", err)
	}

	got, err := s.GetExtratoItem(ctx, "CART-1", "EI-1")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if !got.Valor.Equal(item.Valor) {
		t.Errorf("valor = %s, want %s", got.Valor, item.Valor)
	}
	if got.Saldo == nil || !got.Saldo.Equal(saldo) {
		t.Errorf("saldo = %v, want %s", got.Saldo, saldo)
	}
	if !got.Data.Equal(item.Data) {
		t.Errorf("data = %s, want %s", got.Data, item.Data)
	}
	if got.Direcao != models.DirecaoCredito {
		t.Errorf("direcao = %s, want credito", got.Direcao)
	}

	_, err = s.GetExtratoItem(ctx, "CART-2", "EI-1")
	if !apperrors.IsNotFound(err) {
		t.Errorf("cross-tenant read must resolve as not found, got %v", err)
	}
}

func TestSQLiteListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	for _, l := range []*models.Lancamento{
		lancamentoTeste("L-2", 12),
		lancamentoTeste("L-1", 10),
		lancamentoTeste("L-3", 25),
	} {
		if err := s.PutLancamento(ctx, l); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	lancamentos, err := s.ListLancamentos(ctx, models.ConciliacaoFiltros{
		CartorioID: "CART-1",
		DataInicio: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		DataFim:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lancamentos) != 2 {
		t.Fatalf("expected 2 lancamentos inside the period, got %d", len(lancamentos))
	}
	if lancamentos[0].ID != "L-1" || lancamentos[1].ID != "L-2" {
		t.Errorf("order = [%s %s], want [L-1 L-2]", lancamentos[0].ID, lancamentos[1].ID)
	}
}

func TestSQLiteInTxCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	if err := s.PutExtratoItem(ctx, itemTeste("EI-1", 10)); err != nil {
		t.Fatalf("put: %v", err)
	}

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx Tx) error {
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

	item, err := s.GetExtratoItem(ctx, "CART-1", "EI-1")
	if err != nil {
		t.Fatalf("get after rollback: %v", err)
	}
	if item.StatusConciliacao != models.StatusPendente {
		t.Errorf("status after rollback = %s, want pendente", item.StatusConciliacao)
	}

	err = s.InTx(ctx, func(tx Tx) error {
		return tx.InsertConciliacao(&models.Conciliacao{
			ID:            "C-1",
			CartorioID:    "CART-1",
			ExtratoItemID: "EI-1",
			LancamentoID:  "L-1",
			Diferenca:     decimal.NewFromFloat(5.00),
			Nota:          "ajuste manual",
			VinculadaEm:   time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("commit tx: %v", err)
	}

	c, err := s.GetConciliacao(ctx, "CART-1", "C-1")
	if err != nil {
		t.Fatalf("get conciliacao: %v", err)
	}
	if !c.Diferenca.Equal(decimal.NewFromFloat(5.00)) {
		t.Errorf("diferenca = %s, want 5", c.Diferenca)
	}
}

func TestSQLiteConciliacaoUniqueEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	insert := func(id, itemID, lancID string) error {
		return s.InTx(ctx, func(tx Tx) error {
			return tx.InsertConciliacao(&models.Conciliacao{
				ID:            id,
				CartorioID:    "CART-1",
				ExtratoItemID: itemID,
				LancamentoID:  lancID,
				Diferenca:     decimal.Zero,
				VinculadaEm:   time.Now().UTC(),
			})
		})
	}

	if err := insert("C-1", "EI-1", "L-1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := insert("C-2", "EI-1", "L-2"); err == nil {
		t.Error("reusing an extrato item across links must violate the unique constraint")
	}
	if err := insert("C-3", "EI-2", "L-1"); err == nil {
		t.Error("reusing a lancamento across links must violate the unique constraint")
	}
}
