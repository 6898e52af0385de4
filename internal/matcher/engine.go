package matcher

import (
	"fmt"
	"sort"

	"conciliador/internal/models"
	"conciliador/pkg/logger"
)

// Engine computes confidence-scored match suggestions between statement
// lines and ledger entries. It is a pure read computation: independent
// scoring calls may run fully in parallel.
type Engine struct {
	Config *MatchingConfig
	log    logger.Logger
}

// NewEngine creates a matching engine. A nil config falls back to the
// defaults.
func NewEngine(config *MatchingConfig) *Engine {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &Engine{
		Config: config,
		log:    logger.WithComponent("matcher"),
	}
}

// minimal factor contribution (in points) below which no reason is appended
const limiarMotivo = 1.0

// Avaliar scores a single candidate pair. ok is false when the candidate is
// excluded outright: already linked, outside the item's tenant/account
// scope, or outside the date window.
func (e *Engine) Avaliar(item *models.ExtratoItem, lanc *models.Lancamento) (float64, []string, bool) {
	if lanc.StatusConciliacao != models.StatusPendente {
		return 0, nil, false
	}
	if lanc.CartorioID != item.CartorioID || lanc.ContaID != item.ContaID {
		return 0, nil, false
	}

	dias := models.DiasEntre(item.Data, lanc.Data)
	if dias > e.Config.JanelaDias {
		return 0, nil, false
	}

	var motivos []string
	score := 0.0

	valor, motivoValor := e.pontuaValor(item, lanc)
	score += valor
	if motivoValor != "" {
		motivos = append(motivos, motivoValor)
	}

	data, motivoData := e.pontuaData(dias)
	score += data
	if motivoData != "" {
		motivos = append(motivos, motivoData)
	}

	tipo, motivoTipo := e.pontuaTipo(item, lanc)
	score += tipo
	if motivoTipo != "" {
		motivos = append(motivos, motivoTipo)
	}

	descricao, motivoDescricao := e.pontuaDescricao(item, lanc)
	score += descricao
	if motivoDescricao != "" {
		motivos = append(motivos, motivoDescricao)
	}

	return score, motivos, true
}

// Sugerir produces the ranked suggestion list for one statement line against
// a candidate set. Candidates below the suggestion floor are omitted. The
// order is deterministic: score descending, then closest date, then
// lançamento id.
func (e *Engine) Sugerir(item *models.ExtratoItem, candidatos []*models.Lancamento) []*models.SugestaoConciliacao {
	sugestoes := make([]*models.SugestaoConciliacao, 0, len(candidatos))

	for _, lanc := range candidatos {
		score, motivos, ok := e.Avaliar(item, lanc)
		if !ok || score < e.Config.ScoreMinimo {
			continue
		}
		sugestoes = append(sugestoes, &models.SugestaoConciliacao{
			Lancamento: lanc,
			Score:      score,
			Motivos:    motivos,
		})
	}

	e.ordena(item, sugestoes)

	if len(sugestoes) > e.Config.MaxSugestoes {
		sugestoes = sugestoes[:e.Config.MaxSugestoes]
	}

	e.log.WithFields(logger.Fields{
		"extrato_item": item.ID,
		"candidatos":   len(candidatos),
		"sugestoes":    len(sugestoes),
	}).Debug("suggestions computed")

	return sugestoes
}

func (e *Engine) ordena(item *models.ExtratoItem, sugestoes []*models.SugestaoConciliacao) {
	sort.SliceStable(sugestoes, func(i, j int) bool {
		a, b := sugestoes[i], sugestoes[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		da := models.DiasEntre(item.Data, a.Lancamento.Data)
		db := models.DiasEntre(item.Data, b.Lancamento.Data)
		if da != db {
			return da < db
		}
		return a.Lancamento.ID < b.Lancamento.ID
	})
}

// pontuaValor scores the amount factor: full points for an exact
// absolute-value match, linear decay to zero at the relative tolerance.
func (e *Engine) pontuaValor(item *models.ExtratoItem, lanc *models.Lancamento) (float64, string) {
	valorItem := item.ValorAbsoluto()
	valorLanc := lanc.Valor

	if valorItem.Equal(valorLanc) {
		return e.Config.PesoValor, "Valor idêntico"
	}

	if e.Config.ToleranciaValorPercent == 0 || valorItem.IsZero() {
		return 0, ""
	}

	diff := valorItem.Sub(valorLanc).Abs()
	relativa, _ := diff.Div(valorItem).Float64()
	tolerancia := e.Config.ToleranciaValorPercent / 100.0
	if relativa >= tolerancia {
		return 0, ""
	}

	pontos := e.Config.PesoValor * (1.0 - relativa/tolerancia)
	if pontos < limiarMotivo {
		return pontos, ""
	}
	return pontos, fmt.Sprintf("Valor aproximado (diferença de %.1f%%)", relativa*100)
}

// pontuaData scores date proximity: full points same-day, linear decay to
// zero at the window edge. Callers exclude candidates outside the window
// before reaching here.
func (e *Engine) pontuaData(dias int) (float64, string) {
	if dias == 0 {
		return e.Config.PesoData, "Mesmo dia"
	}
	if e.Config.JanelaDias == 0 {
		return 0, ""
	}

	pontos := e.Config.PesoData * (1.0 - float64(dias)/float64(e.Config.JanelaDias))
	if pontos < limiarMotivo {
		return pontos, ""
	}
	if dias == 1 {
		return pontos, "Data próxima (1 dia)"
	}
	return pontos, fmt.Sprintf("Data próxima (%d dias)", dias)
}

// pontuaTipo scores direction/kind consistency: a credit line should pair
// with a receita and a debit with a despesa. A mismatch contributes zero
// but does not exclude the candidate, since data entry mistakes happen.
func (e *Engine) pontuaTipo(item *models.ExtratoItem, lanc *models.Lancamento) (float64, string) {
	if item.Direcao.TipoEsperado() == lanc.Tipo {
		return e.Config.PesoTipo, "Tipo compatível"
	}
	return 0, ""
}

// pontuaDescricao scores description similarity between the statement line
// and the ledger entry's description or category.
func (e *Engine) pontuaDescricao(item *models.ExtratoItem, lanc *models.Lancamento) (float64, string) {
	sim := similaridadeDescricao(item.Descricao, lanc.Descricao)
	if catSim := similaridadeDescricao(item.Descricao, lanc.Categoria); catSim > sim {
		sim = catSim
	}

	pontos := e.Config.PesoDescricao * sim
	if pontos < limiarMotivo {
		return pontos, ""
	}
	if sim == 1.0 {
		return pontos, "Descrição equivalente"
	}
	return pontos, "Descrição semelhante"
}
