package matcher

import (
	"sort"
	"time"

	"conciliador/internal/models"
)

// LancamentoIndex buckets unlinked ledger entries by calendar day so batch
// scoring can collect candidates inside the date window without rescanning
// the full ledger per statement line.
type LancamentoIndex struct {
	porDia map[string][]*models.Lancamento
	todos  []*models.Lancamento
}

// NewLancamentoIndex builds an index over the given entries. Entries whose
// status is not pendente are never candidates and are skipped at build time.
func NewLancamentoIndex(lancamentos []*models.Lancamento) *LancamentoIndex {
	idx := &LancamentoIndex{
		porDia: make(map[string][]*models.Lancamento),
	}
	for _, l := range lancamentos {
		if l.StatusConciliacao != models.StatusPendente {
			continue
		}
		dia := l.Data.Format("2006-01-02")
		idx.porDia[dia] = append(idx.porDia[dia], l)
		idx.todos = append(idx.todos, l)
	}
	return idx
}

// Candidatos returns the entries within janelaDias of the given date, in a
// deterministic order (date, then id).
func (idx *LancamentoIndex) Candidatos(data time.Time, janelaDias int) []*models.Lancamento {
	var out []*models.Lancamento
	for d := -janelaDias; d <= janelaDias; d++ {
		dia := data.AddDate(0, 0, d).Format("2006-01-02")
		out = append(out, idx.porDia[dia]...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Data.Equal(out[j].Data) {
			return out[i].Data.Before(out[j].Data)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of indexed entries.
func (idx *LancamentoIndex) Len() int {
	return len(idx.todos)
}

// Todos returns every indexed entry.
func (idx *LancamentoIndex) Todos() []*models.Lancamento {
	return idx.todos
}
