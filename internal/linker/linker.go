// Package linker owns link state: it is the sole writer of StatusConciliacao
// and the linkage fields on statement lines and ledger entries. Every link or
// unlink writes its three records (the two endpoints and the Conciliacao) in
// a single store transaction.
package linker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"conciliador/internal/models"
	"conciliador/internal/store"
	apperrors "conciliador/pkg/errors"
	"conciliador/pkg/logger"
)

// Linker creates and removes Conciliacao links.
type Linker struct {
	store store.Store
	// epsilon is the absolute amount tolerance: |diferenca| <= epsilon links
	// as conciliado, anything above as divergente.
	epsilon decimal.Decimal
	now     func() time.Time
	log     logger.Logger
}

// New creates a Linker over the given store.
func New(st store.Store, epsilon decimal.Decimal) *Linker {
	return &Linker{
		store:   st,
		epsilon: epsilon,
		now:     time.Now,
		log:     logger.WithComponent("linker"),
	}
}

// Vincular links one statement line to one ledger entry. Both endpoints must
// be pendente and belong to the cartório and to the same account; their
// statuses are re-checked inside the transaction, so a concurrent claim of
// either endpoint surfaces as AlreadyLinked instead of a corrupt link.
//
// The stored difference is the statement line's magnitude minus the ledger
// amount. A difference within epsilon yields conciliado on both endpoints,
// anything above yields divergente; the link is created either way.
func (lk *Linker) Vincular(ctx context.Context, cartorioID, itemID, lancamentoID, nota string) (*models.Conciliacao, error) {
	var conciliacao *models.Conciliacao

	err := lk.store.InTx(ctx, func(tx store.Tx) error {
		item, err := tx.GetExtratoItem(cartorioID, itemID)
		if err != nil {
			return err
		}
		lanc, err := tx.GetLancamento(cartorioID, lancamentoID)
		if err != nil {
			return err
		}

		if item.ContaID != lanc.ContaID {
			return apperrors.InvalidScope("lancamento", lancamentoID, "conta "+item.ContaID)
		}
		if item.StatusConciliacao != models.StatusPendente {
			return apperrors.AlreadyLinked("extrato item", itemID)
		}
		if lanc.StatusConciliacao != models.StatusPendente {
			return apperrors.AlreadyLinked("lancamento", lancamentoID)
		}

		diferenca := item.ValorAbsoluto().Sub(lanc.Valor)
		status := models.StatusConciliado
		if diferenca.Abs().GreaterThan(lk.epsilon) {
			status = models.StatusDivergente
		}

		if item.StatusConciliacao, err = item.StatusConciliacao.Transition(status); err != nil {
			return apperrors.InvalidTransition("extrato item", itemID, err)
		}
		if lanc.StatusConciliacao, err = lanc.StatusConciliacao.Transition(status); err != nil {
			return apperrors.InvalidTransition("lancamento", lancamentoID, err)
		}
		item.LancamentoVinculadoID = &lanc.ID
		lanc.ExtratoItemVinculadoID = &item.ID

		conciliacao = &models.Conciliacao{
			ID:            uuid.New().String(),
			CartorioID:    cartorioID,
			ExtratoItemID: item.ID,
			LancamentoID:  lanc.ID,
			Diferenca:     diferenca,
			Nota:          nota,
			VinculadaEm:   lk.now().UTC(),
		}

		if err := tx.UpdateExtratoItem(item); err != nil {
			return err
		}
		if err := tx.UpdateLancamento(lanc); err != nil {
			return err
		}
		return tx.InsertConciliacao(conciliacao)
	})
	if err != nil {
		return nil, err
	}

	lk.log.WithFields(logger.Fields{
		"cartorio_id":     cartorioID,
		"extrato_item_id": itemID,
		"lancamento_id":   lancamentoID,
		"diferenca":       conciliacao.Diferenca.String(),
	}).Info("link created")
	return conciliacao, nil
}

// Desvincular removes an existing link and returns both endpoints to
// pendente, clearing their linkage fields. This is the only path out of the
// conciliado and divergente states.
func (lk *Linker) Desvincular(ctx context.Context, cartorioID, conciliacaoID string) error {
	err := lk.store.InTx(ctx, func(tx store.Tx) error {
		conciliacao, err := tx.GetConciliacao(cartorioID, conciliacaoID)
		if err != nil {
			return err
		}
		item, err := tx.GetExtratoItem(cartorioID, conciliacao.ExtratoItemID)
		if err != nil {
			return err
		}
		lanc, err := tx.GetLancamento(cartorioID, conciliacao.LancamentoID)
		if err != nil {
			return err
		}

		if item.StatusConciliacao, err = item.StatusConciliacao.Transition(models.StatusPendente); err != nil {
			return apperrors.InvalidTransition("extrato item", item.ID, err)
		}
		if lanc.StatusConciliacao, err = lanc.StatusConciliacao.Transition(models.StatusPendente); err != nil {
			return apperrors.InvalidTransition("lancamento", lanc.ID, err)
		}
		item.LancamentoVinculadoID = nil
		lanc.ExtratoItemVinculadoID = nil

		if err := tx.UpdateExtratoItem(item); err != nil {
			return err
		}
		if err := tx.UpdateLancamento(lanc); err != nil {
			return err
		}
		return tx.DeleteConciliacao(cartorioID, conciliacaoID)
	})
	if err != nil {
		return err
	}

	lk.log.WithFields(logger.Fields{
		"cartorio_id":    cartorioID,
		"conciliacao_id": conciliacaoID,
	}).Info("link removed")
	return nil
}
