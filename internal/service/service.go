// Package service exposes the reconciliation operations as one facade over
// the store, the matching engine, the linker and the auto-match scheduler.
// The HTTP server and the CLI both drive this type and add nothing on top of
// it beyond transport concerns.
package service

import (
	"context"
	"time"

	"conciliador/internal/aggregator"
	"conciliador/internal/linker"
	"conciliador/internal/matcher"
	"conciliador/internal/models"
	"conciliador/internal/scheduler"
	"conciliador/internal/store"
	apperrors "conciliador/pkg/errors"
	"conciliador/pkg/logger"
)

// Conciliador is the reconciliation service.
type Conciliador struct {
	store       store.Store
	engine      *matcher.Engine
	linker      *linker.Linker
	autoMatcher *scheduler.AutoMatcher
	log         logger.Logger
}

// New creates the service over the given store. A nil config falls back to
// the default matching configuration.
func New(st store.Store, config *matcher.MatchingConfig) (*Conciliador, error) {
	if config == nil {
		config = matcher.DefaultMatchingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.Config("matching", err)
	}

	engine := matcher.NewEngine(config)
	lk := linker.New(st, config.Epsilon)
	return &Conciliador{
		store:       st,
		engine:      engine,
		linker:      lk,
		autoMatcher: scheduler.New(st, engine, lk),
		log:         logger.WithComponent("service"),
	}, nil
}

// Config returns the matching configuration in effect.
func (c *Conciliador) Config() *matcher.MatchingConfig {
	return c.engine.Config
}

// Sugerir computes ranked suggestions for one statement line against the
// pending ledger entries of the same account.
func (c *Conciliador) Sugerir(ctx context.Context, cartorioID, itemID string) ([]*models.SugestaoConciliacao, error) {
	item, err := c.store.GetExtratoItem(ctx, cartorioID, itemID)
	if err != nil {
		return nil, err
	}

	lancamentos, err := c.store.ListLancamentos(ctx, models.ConciliacaoFiltros{
		CartorioID: cartorioID,
		ContaID:    item.ContaID,
		Status:     models.StatusPendente,
	})
	if err != nil {
		return nil, err
	}

	idx := matcher.NewLancamentoIndex(lancamentos)
	candidatos := idx.Candidatos(item.Data, c.engine.Config.JanelaDias)
	return c.engine.Sugerir(item, candidatos), nil
}

// SugestoesItem pairs a statement line with its suggestion list.
type SugestoesItem struct {
	ExtratoItem *models.ExtratoItem           `json:"extrato_item"`
	Sugestoes   []*models.SugestaoConciliacao `json:"sugestoes"`
}

// SugerirLote computes suggestions for every pending statement line selected
// by the filter, sharing one candidate index across the batch. Lines without
// any suggestion are included with an empty list so callers see the full
// pending population.
func (c *Conciliador) SugerirLote(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*SugestoesItem, error) {
	filtros.Status = models.StatusPendente

	itens, err := c.store.ListExtratoItens(ctx, filtros)
	if err != nil {
		return nil, err
	}
	lancamentos, err := c.store.ListLancamentos(ctx, filtros)
	if err != nil {
		return nil, err
	}

	idx := matcher.NewLancamentoIndex(lancamentos)
	lote := make([]*SugestoesItem, 0, len(itens))
	for _, item := range itens {
		candidatos := idx.Candidatos(item.Data, c.engine.Config.JanelaDias)
		lote = append(lote, &SugestoesItem{
			ExtratoItem: item,
			Sugestoes:   c.engine.Sugerir(item, candidatos),
		})
	}
	return lote, nil
}

// Vincular links one statement line to one ledger entry.
func (c *Conciliador) Vincular(ctx context.Context, cartorioID, itemID, lancamentoID, nota string) (*models.Conciliacao, error) {
	return c.linker.Vincular(ctx, cartorioID, itemID, lancamentoID, nota)
}

// Desvincular removes an existing link, returning both endpoints to pendente.
func (c *Conciliador) Desvincular(ctx context.Context, cartorioID, conciliacaoID string) error {
	return c.linker.Desvincular(ctx, cartorioID, conciliacaoID)
}

// AutoConciliar runs one auto-match pass over the filtered pending records.
func (c *Conciliador) AutoConciliar(ctx context.Context, filtros models.ConciliacaoFiltros) (*scheduler.AutoMatchResult, error) {
	return c.autoMatcher.Executar(ctx, filtros)
}

// Stats computes reconciliation statistics over the filtered population.
func (c *Conciliador) Stats(ctx context.Context, filtros models.ConciliacaoFiltros) (*models.ConciliacaoStats, error) {
	itens, err := c.store.ListExtratoItens(ctx, filtros)
	if err != nil {
		return nil, err
	}
	lancamentos, err := c.store.ListLancamentos(ctx, filtros)
	if err != nil {
		return nil, err
	}
	return aggregator.CalcularStats(itens, lancamentos), nil
}

// FechamentoDiario computes the closing summary for one calendar date. The
// filter narrows the population, so a closing can be restricted to one
// account or statement; its date range is overridden by the closing date.
func (c *Conciliador) FechamentoDiario(ctx context.Context, filtros models.ConciliacaoFiltros, data time.Time) (*models.FechamentoDiario, error) {
	filtros.DataInicio = data
	filtros.DataFim = data
	itens, err := c.store.ListExtratoItens(ctx, filtros)
	if err != nil {
		return nil, err
	}
	conciliacoes, err := c.store.ListConciliacoes(ctx, filtros.CartorioID)
	if err != nil {
		return nil, err
	}
	return aggregator.CalcularFechamentoDiario(data, itens, conciliacoes), nil
}

// ListExtratoItens lists statement lines under the filter.
func (c *Conciliador) ListExtratoItens(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*models.ExtratoItem, error) {
	return c.store.ListExtratoItens(ctx, filtros)
}

// ListLancamentos lists ledger entries under the filter.
func (c *Conciliador) ListLancamentos(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*models.Lancamento, error) {
	return c.store.ListLancamentos(ctx, filtros)
}

// ListConciliacoes lists the cartório's committed links.
func (c *Conciliador) ListConciliacoes(ctx context.Context, cartorioID string) ([]*models.Conciliacao, error) {
	return c.store.ListConciliacoes(ctx, cartorioID)
}

// GetConciliacao fetches one link record.
func (c *Conciliador) GetConciliacao(ctx context.Context, cartorioID, id string) (*models.Conciliacao, error) {
	return c.store.GetConciliacao(ctx, cartorioID, id)
}
