// Package scheduler implements batch auto-matching: it scores every pending
// statement line against the pending ledger entries of the same scope and
// greedily commits the highest-confidence links.
package scheduler

import (
	"context"
	"sort"

	"conciliador/internal/linker"
	"conciliador/internal/matcher"
	"conciliador/internal/models"
	"conciliador/internal/store"
	apperrors "conciliador/pkg/errors"
	"conciliador/pkg/logger"
)

// AutoMatcher runs the auto-match pass. Each pass is a fresh computation over
// the current pending population; nothing is remembered between runs.
type AutoMatcher struct {
	store  store.Store
	engine *matcher.Engine
	linker *linker.Linker
	log    logger.Logger
}

// New creates an AutoMatcher.
func New(st store.Store, engine *matcher.Engine, lk *linker.Linker) *AutoMatcher {
	return &AutoMatcher{
		store:  st,
		engine: engine,
		linker: lk,
		log:    logger.WithComponent("scheduler"),
	}
}

// AutoMatchResult summarizes one auto-match pass.
type AutoMatchResult struct {
	// Vinculadas holds the links committed by this pass, in commit order.
	Vinculadas []*models.Conciliacao `json:"vinculadas"`
	// Ignoradas lists every pending line the pass left unlinked, each with
	// the reason it was skipped.
	Ignoradas []ItemIgnorado `json:"ignoradas"`
	// Avaliados is the number of pending statement lines considered.
	Avaliados int `json:"avaliados"`
}

// Skip reasons carried by ItemIgnorado.
const (
	// MotivoSemCandidata marks lines with no candidate at or above the
	// auto-accept threshold.
	MotivoSemCandidata = "sem_candidata"
	// MotivoCandidataDisputada marks lines whose eligible entries were all
	// claimed by higher-scored pairs in the same pass.
	MotivoCandidataDisputada = "candidata_disputada"
	// MotivoConflitoConcorrente marks lines whose entry was claimed by a
	// concurrent caller between listing and linking.
	MotivoConflitoConcorrente = "conflito_concorrente"
)

// ItemIgnorado is one pending statement line the pass did not link.
type ItemIgnorado struct {
	ExtratoItemID string `json:"extrato_item_id"`
	Motivo        string `json:"motivo"`
}

// candidatura is one (line, entry) pair eligible for auto-acceptance.
type candidatura struct {
	item  *models.ExtratoItem
	lanc  *models.Lancamento
	score float64
	dias  int
}

// Executar runs one auto-match pass over the pending records selected by the
// filter. Pairs at or above the auto-accept threshold are ordered by score
// descending and linked greedily: once an endpoint is claimed, lower-scored
// pairs touching it are skipped. A conflict on a single pair does not stop
// the pass; any other error aborts it, returning the links committed so far
// alongside the error.
func (am *AutoMatcher) Executar(ctx context.Context, filtros models.ConciliacaoFiltros) (*AutoMatchResult, error) {
	filtros.Status = models.StatusPendente

	itens, err := am.store.ListExtratoItens(ctx, filtros)
	if err != nil {
		return nil, err
	}
	lancamentos, err := am.store.ListLancamentos(ctx, filtros)
	if err != nil {
		return nil, err
	}

	idx := matcher.NewLancamentoIndex(lancamentos)
	resultado := &AutoMatchResult{
		Vinculadas: make([]*models.Conciliacao, 0),
		Ignoradas:  make([]ItemIgnorado, 0),
		Avaliados:  len(itens),
	}

	candidaturas := make([]candidatura, 0)
	comCandidata := make(map[string]bool)
	for _, item := range itens {
		candidatos := idx.Candidatos(item.Data, am.engine.Config.JanelaDias)
		for _, s := range am.engine.Sugerir(item, candidatos) {
			if s.Score < am.engine.Config.ScoreAutoAceite {
				continue
			}
			candidaturas = append(candidaturas, candidatura{
				item:  item,
				lanc:  s.Lancamento,
				score: s.Score,
				dias:  models.DiasEntre(item.Data, s.Lancamento.Data),
			})
			comCandidata[item.ID] = true
		}
	}

	sort.SliceStable(candidaturas, func(i, j int) bool {
		a, b := candidaturas[i], candidaturas[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.dias != b.dias {
			return a.dias < b.dias
		}
		if a.item.ID != b.item.ID {
			return a.item.ID < b.item.ID
		}
		return a.lanc.ID < b.lanc.ID
	})

	itensUsados := make(map[string]bool)
	lancamentosUsados := make(map[string]bool)
	conflitos := make(map[string]bool)
	for _, c := range candidaturas {
		if itensUsados[c.item.ID] || lancamentosUsados[c.lanc.ID] {
			continue
		}

		conciliacao, err := am.linker.Vincular(ctx, filtros.CartorioID, c.item.ID, c.lanc.ID, "")
		if apperrors.IsAlreadyLinked(err) {
			conflitos[c.item.ID] = true
			continue
		}
		if err != nil {
			am.log.WithError(err).WithFields(logger.Fields{
				"extrato_item_id": c.item.ID,
				"lancamento_id":   c.lanc.ID,
			}).Error("auto-match pass aborted")
			return resultado, err
		}

		itensUsados[c.item.ID] = true
		lancamentosUsados[c.lanc.ID] = true
		resultado.Vinculadas = append(resultado.Vinculadas, conciliacao)
	}

	// Every line the loop left unlinked is reported with why. A line that
	// hit a concurrent claim but linked through another candidate later is
	// not ignored.
	for _, item := range itens {
		if itensUsados[item.ID] {
			continue
		}
		motivo := MotivoSemCandidata
		switch {
		case conflitos[item.ID]:
			motivo = MotivoConflitoConcorrente
		case comCandidata[item.ID]:
			motivo = MotivoCandidataDisputada
		}
		resultado.Ignoradas = append(resultado.Ignoradas, ItemIgnorado{
			ExtratoItemID: item.ID,
			Motivo:        motivo,
		})
	}

	am.log.WithFields(logger.Fields{
		"cartorio_id": filtros.CartorioID,
		"avaliados":   resultado.Avaliados,
		"vinculadas":  len(resultado.Vinculadas),
		"ignoradas":   len(resultado.Ignoradas),
	}).Info("auto-match pass finished")
	return resultado, nil
}
