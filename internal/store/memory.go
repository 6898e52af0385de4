package store

import (
	"context"
	"sort"
	"sync"

	"conciliador/internal/models"
	apperrors "conciliador/pkg/errors"
)

// Memory is an in-memory Store implementation. Reads hand out copies so
// callers can never mutate stored state behind the store's back; writes go
// through staged transactions that apply atomically on commit.
type Memory struct {
	mu           sync.RWMutex
	contas       map[string]*models.ContaBancaria
	extratos     map[string]*models.Extrato
	itens        map[string]*models.ExtratoItem
	lancamentos  map[string]*models.Lancamento
	conciliacoes map[string]*models.Conciliacao
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		contas:       make(map[string]*models.ContaBancaria),
		extratos:     make(map[string]*models.Extrato),
		itens:        make(map[string]*models.ExtratoItem),
		lancamentos:  make(map[string]*models.Lancamento),
		conciliacoes: make(map[string]*models.Conciliacao),
	}
}

// Close implements Store. A memory store has nothing to release.
func (m *Memory) Close() error { return nil }

func (m *Memory) GetContaBancaria(_ context.Context, cartorioID, id string) (*models.ContaBancaria, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contas[id]
	if !ok || c.CartorioID != cartorioID {
		return nil, apperrors.NotFound("conta bancaria", id)
	}
	clone := *c
	return &clone, nil
}

func (m *Memory) GetExtrato(_ context.Context, cartorioID, id string) (*models.Extrato, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.extratos[id]
	if !ok || e.CartorioID != cartorioID {
		return nil, apperrors.NotFound("extrato", id)
	}
	clone := *e
	return &clone, nil
}

func (m *Memory) GetExtratoItem(_ context.Context, cartorioID, id string) (*models.ExtratoItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getItemLocked(cartorioID, id)
}

func (m *Memory) getItemLocked(cartorioID, id string) (*models.ExtratoItem, error) {
	item, ok := m.itens[id]
	if !ok || item.CartorioID != cartorioID {
		return nil, apperrors.NotFound("extrato item", id)
	}
	return cloneItem(item), nil
}

func (m *Memory) GetLancamento(_ context.Context, cartorioID, id string) (*models.Lancamento, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLancamentoLocked(cartorioID, id)
}

func (m *Memory) getLancamentoLocked(cartorioID, id string) (*models.Lancamento, error) {
	l, ok := m.lancamentos[id]
	if !ok || l.CartorioID != cartorioID {
		return nil, apperrors.NotFound("lancamento", id)
	}
	return cloneLancamento(l), nil
}

func (m *Memory) GetConciliacao(_ context.Context, cartorioID, id string) (*models.Conciliacao, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getConciliacaoLocked(cartorioID, id)
}

func (m *Memory) getConciliacaoLocked(cartorioID, id string) (*models.Conciliacao, error) {
	c, ok := m.conciliacoes[id]
	if !ok || c.CartorioID != cartorioID {
		return nil, apperrors.NotFound("conciliacao", id)
	}
	clone := *c
	return &clone, nil
}

func (m *Memory) ListExtratoItens(_ context.Context, filtros models.ConciliacaoFiltros) ([]*models.ExtratoItem, error) {
	if err := filtros.Validate(); err != nil {
		return nil, apperrors.InvalidFilter(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.ExtratoItem, 0)
	for _, item := range m.itens {
		if filtros.MatchExtratoItem(item) {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Data.Equal(out[j].Data) {
			return out[i].Data.Before(out[j].Data)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListLancamentos(_ context.Context, filtros models.ConciliacaoFiltros) ([]*models.Lancamento, error) {
	if err := filtros.Validate(); err != nil {
		return nil, apperrors.InvalidFilter(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Lancamento, 0)
	for _, l := range m.lancamentos {
		if filtros.MatchLancamento(l) {
			out = append(out, cloneLancamento(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Data.Equal(out[j].Data) {
			return out[i].Data.Before(out[j].Data)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListConciliacoes(_ context.Context, cartorioID string) ([]*models.Conciliacao, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Conciliacao, 0)
	for _, c := range m.conciliacoes {
		if c.CartorioID == cartorioID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) PutContaBancaria(_ context.Context, conta *models.ContaBancaria) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *conta
	m.contas[conta.ID] = &clone
	return nil
}

func (m *Memory) PutExtrato(_ context.Context, extrato *models.Extrato) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *extrato
	m.extratos[extrato.ID] = &clone
	return nil
}

func (m *Memory) PutExtratoItem(_ context.Context, item *models.ExtratoItem) error {
	if err := item.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeInvalidFilter, "invalid extrato item")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itens[item.ID] = cloneItem(item)
	return nil
}

func (m *Memory) PutLancamento(_ context.Context, lancamento *models.Lancamento) error {
	if err := lancamento.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeInvalidFilter, "invalid lancamento")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lancamentos[lancamento.ID] = cloneLancamento(lancamento)
	return nil
}

// InTx runs fn under the store's write lock with staged writes. Staged
// mutations apply only when fn succeeds and the context is still alive, so
// a cancellation mid-transaction never commits a partial write.
func (m *Memory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: m, staged: newStagedWrites()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.staged.applyLocked(m)
	return nil
}

type stagedWrites struct {
	itens              map[string]*models.ExtratoItem
	lancamentos        map[string]*models.Lancamento
	conciliacoesNovas  map[string]*models.Conciliacao
	conciliacoesExclui map[string]struct{}
}

func newStagedWrites() *stagedWrites {
	return &stagedWrites{
		itens:              make(map[string]*models.ExtratoItem),
		lancamentos:        make(map[string]*models.Lancamento),
		conciliacoesNovas:  make(map[string]*models.Conciliacao),
		conciliacoesExclui: make(map[string]struct{}),
	}
}

func (s *stagedWrites) applyLocked(m *Memory) {
	for id, item := range s.itens {
		m.itens[id] = item
	}
	for id, l := range s.lancamentos {
		m.lancamentos[id] = l
	}
	for id, c := range s.conciliacoesNovas {
		m.conciliacoes[id] = c
	}
	for id := range s.conciliacoesExclui {
		delete(m.conciliacoes, id)
	}
}

type memoryTx struct {
	store  *Memory
	staged *stagedWrites
}

func (t *memoryTx) GetExtratoItem(cartorioID, id string) (*models.ExtratoItem, error) {
	if item, ok := t.staged.itens[id]; ok && item.CartorioID == cartorioID {
		return cloneItem(item), nil
	}
	return t.store.getItemLocked(cartorioID, id)
}

func (t *memoryTx) GetLancamento(cartorioID, id string) (*models.Lancamento, error) {
	if l, ok := t.staged.lancamentos[id]; ok && l.CartorioID == cartorioID {
		return cloneLancamento(l), nil
	}
	return t.store.getLancamentoLocked(cartorioID, id)
}

func (t *memoryTx) GetConciliacao(cartorioID, id string) (*models.Conciliacao, error) {
	if _, gone := t.staged.conciliacoesExclui[id]; gone {
		return nil, apperrors.NotFound("conciliacao", id)
	}
	if c, ok := t.staged.conciliacoesNovas[id]; ok && c.CartorioID == cartorioID {
		clone := *c
		return &clone, nil
	}
	return t.store.getConciliacaoLocked(cartorioID, id)
}

func (t *memoryTx) UpdateExtratoItem(item *models.ExtratoItem) error {
	if _, ok := t.store.itens[item.ID]; !ok {
		return apperrors.NotFound("extrato item", item.ID)
	}
	t.staged.itens[item.ID] = cloneItem(item)
	return nil
}

func (t *memoryTx) UpdateLancamento(lancamento *models.Lancamento) error {
	if _, ok := t.store.lancamentos[lancamento.ID]; !ok {
		return apperrors.NotFound("lancamento", lancamento.ID)
	}
	t.staged.lancamentos[lancamento.ID] = cloneLancamento(lancamento)
	return nil
}

func (t *memoryTx) InsertConciliacao(conciliacao *models.Conciliacao) error {
	clone := *conciliacao
	t.staged.conciliacoesNovas[conciliacao.ID] = &clone
	return nil
}

func (t *memoryTx) DeleteConciliacao(cartorioID, id string) error {
	if _, err := t.GetConciliacao(cartorioID, id); err != nil {
		return err
	}
	t.staged.conciliacoesExclui[id] = struct{}{}
	return nil
}

func cloneItem(item *models.ExtratoItem) *models.ExtratoItem {
	clone := *item
	if item.Saldo != nil {
		saldo := *item.Saldo
		clone.Saldo = &saldo
	}
	if item.LancamentoVinculadoID != nil {
		id := *item.LancamentoVinculadoID
		clone.LancamentoVinculadoID = &id
	}
	return &clone
}

func cloneLancamento(l *models.Lancamento) *models.Lancamento {
	clone := *l
	if l.ExtratoItemVinculadoID != nil {
		id := *l.ExtratoItemVinculadoID
		clone.ExtratoItemVinculadoID = &id
	}
	return &clone
}
