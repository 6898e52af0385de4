package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"conciliador/internal/models"
	apperrors "conciliador/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS contas_bancarias (
	id          TEXT PRIMARY KEY,
	cartorio_id TEXT NOT NULL,
	banco       TEXT NOT NULL,
	agencia     TEXT NOT NULL,
	numero      TEXT NOT NULL,
	tipo        TEXT NOT NULL,
	saldo       TEXT NOT NULL,
	ativa       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS extratos (
	id             TEXT PRIMARY KEY,
	cartorio_id    TEXT NOT NULL,
	conta_id       TEXT NOT NULL,
	arquivo        TEXT NOT NULL,
	periodo_inicio TEXT NOT NULL,
	periodo_fim    TEXT NOT NULL,
	total_itens    INTEGER NOT NULL,
	status         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS extrato_itens (
	id                      TEXT PRIMARY KEY,
	extrato_id              TEXT NOT NULL,
	cartorio_id             TEXT NOT NULL,
	conta_id                TEXT NOT NULL,
	data                    TEXT NOT NULL,
	descricao               TEXT NOT NULL,
	valor                   TEXT NOT NULL,
	direcao                 TEXT NOT NULL,
	saldo                   TEXT,
	status_conciliacao      TEXT NOT NULL,
	lancamento_vinculado_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_extrato_itens_cartorio ON extrato_itens(cartorio_id);
CREATE INDEX IF NOT EXISTS idx_extrato_itens_status ON extrato_itens(cartorio_id, status_conciliacao);

CREATE TABLE IF NOT EXISTS lancamentos (
	id                        TEXT PRIMARY KEY,
	cartorio_id               TEXT NOT NULL,
	conta_id                  TEXT NOT NULL,
	data                      TEXT NOT NULL,
	descricao                 TEXT NOT NULL,
	tipo                      TEXT NOT NULL,
	categoria                 TEXT NOT NULL,
	valor                     TEXT NOT NULL,
	status_pagamento          TEXT NOT NULL,
	status_conciliacao        TEXT NOT NULL,
	extrato_item_vinculado_id TEXT,
	responsavel               TEXT NOT NULL DEFAULT '',
	observacoes               TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_lancamentos_cartorio ON lancamentos(cartorio_id);
CREATE INDEX IF NOT EXISTS idx_lancamentos_status ON lancamentos(cartorio_id, status_conciliacao);

CREATE TABLE IF NOT EXISTS conciliacoes (
	id              TEXT PRIMARY KEY,
	cartorio_id     TEXT NOT NULL,
	extrato_item_id TEXT NOT NULL UNIQUE,
	lancamento_id   TEXT NOT NULL UNIQUE,
	diferenca       TEXT NOT NULL,
	nota            TEXT NOT NULL DEFAULT '',
	vinculada_em    TEXT NOT NULL
);
`

// SQLite is the Store implementation backed by a SQLite database file. The
// schema is created on open. The one-to-one link invariant is enforced twice:
// optimistically by the linker's status re-check and structurally by the
// UNIQUE constraints on conciliacoes.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Storage("open database", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, apperrors.Storage("apply schema", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) GetContaBancaria(ctx context.Context, cartorioID, id string) (*models.ContaBancaria, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, cartorio_id, banco, agencia, numero, tipo, saldo, ativa
		 FROM contas_bancarias WHERE id = ? AND cartorio_id = ?`, id, cartorioID)

	var c models.ContaBancaria
	var saldo string
	var ativa int
	err := row.Scan(&c.ID, &c.CartorioID, &c.Banco, &c.Agencia, &c.Numero, &c.Tipo, &saldo, &ativa)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("conta bancaria", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get conta bancaria", err)
	}
	if c.Saldo, err = decimal.NewFromString(saldo); err != nil {
		return nil, apperrors.Storage("decode saldo", err)
	}
	c.Ativa = ativa != 0
	return &c, nil
}

func (s *SQLite) GetExtrato(ctx context.Context, cartorioID, id string) (*models.Extrato, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, cartorio_id, conta_id, arquivo, periodo_inicio, periodo_fim, total_itens, status
		 FROM extratos WHERE id = ? AND cartorio_id = ?`, id, cartorioID)

	var e models.Extrato
	var inicio, fim string
	err := row.Scan(&e.ID, &e.CartorioID, &e.ContaID, &e.Arquivo, &inicio, &fim, &e.TotalItens, &e.Status)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("extrato", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get extrato", err)
	}
	if e.PeriodoInicio, err = parseDBTime(inicio); err != nil {
		return nil, apperrors.Storage("decode periodo inicio", err)
	}
	if e.PeriodoFim, err = parseDBTime(fim); err != nil {
		return nil, apperrors.Storage("decode periodo fim", err)
	}
	return &e, nil
}

const extratoItemColumns = `id, extrato_id, cartorio_id, conta_id, data, descricao,
	valor, direcao, saldo, status_conciliacao, lancamento_vinculado_id`

func (s *SQLite) GetExtratoItem(ctx context.Context, cartorioID, id string) (*models.ExtratoItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+extratoItemColumns+` FROM extrato_itens WHERE id = ? AND cartorio_id = ?`,
		id, cartorioID)
	item, err := scanExtratoItem(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("extrato item", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get extrato item", err)
	}
	return item, nil
}

const lancamentoColumns = `id, cartorio_id, conta_id, data, descricao, tipo, categoria,
	valor, status_pagamento, status_conciliacao, extrato_item_vinculado_id, responsavel, observacoes`

func (s *SQLite) GetLancamento(ctx context.Context, cartorioID, id string) (*models.Lancamento, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lancamentoColumns+` FROM lancamentos WHERE id = ? AND cartorio_id = ?`,
		id, cartorioID)
	l, err := scanLancamento(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("lancamento", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get lancamento", err)
	}
	return l, nil
}

func (s *SQLite) GetConciliacao(ctx context.Context, cartorioID, id string) (*models.Conciliacao, error) {
	return getConciliacao(ctx, s.db, cartorioID, id)
}

func (s *SQLite) ListExtratoItens(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*models.ExtratoItem, error) {
	if err := filtros.Validate(); err != nil {
		return nil, apperrors.InvalidFilter(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+extratoItemColumns+` FROM extrato_itens WHERE cartorio_id = ? ORDER BY data, id`,
		filtros.CartorioID)
	if err != nil {
		return nil, apperrors.Storage("list extrato itens", err)
	}
	defer rows.Close()

	out := make([]*models.ExtratoItem, 0)
	for rows.Next() {
		item, err := scanExtratoItem(rows)
		if err != nil {
			return nil, apperrors.Storage("scan extrato item", err)
		}
		if filtros.MatchExtratoItem(item) {
			out = append(out, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list extrato itens", err)
	}
	return out, nil
}

func (s *SQLite) ListLancamentos(ctx context.Context, filtros models.ConciliacaoFiltros) ([]*models.Lancamento, error) {
	if err := filtros.Validate(); err != nil {
		return nil, apperrors.InvalidFilter(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lancamentoColumns+` FROM lancamentos WHERE cartorio_id = ? ORDER BY data, id`,
		filtros.CartorioID)
	if err != nil {
		return nil, apperrors.Storage("list lancamentos", err)
	}
	defer rows.Close()

	out := make([]*models.Lancamento, 0)
	for rows.Next() {
		l, err := scanLancamento(rows)
		if err != nil {
			return nil, apperrors.Storage("scan lancamento", err)
		}
		if filtros.MatchLancamento(l) {
			out = append(out, l)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list lancamentos", err)
	}
	return out, nil
}

func (s *SQLite) ListConciliacoes(ctx context.Context, cartorioID string) ([]*models.Conciliacao, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cartorio_id, extrato_item_id, lancamento_id, diferenca, nota, vinculada_em
		 FROM conciliacoes WHERE cartorio_id = ? ORDER BY id`, cartorioID)
	if err != nil {
		return nil, apperrors.Storage("list conciliacoes", err)
	}
	defer rows.Close()

	out := make([]*models.Conciliacao, 0)
	for rows.Next() {
		c, err := scanConciliacao(rows)
		if err != nil {
			return nil, apperrors.Storage("scan conciliacao", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list conciliacoes", err)
	}
	return out, nil
}

func (s *SQLite) PutContaBancaria(ctx context.Context, conta *models.ContaBancaria) error {
	ativa := 0
	if conta.Ativa {
		ativa = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO contas_bancarias
		 (id, cartorio_id, banco, agencia, numero, tipo, saldo, ativa)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		conta.ID, conta.CartorioID, conta.Banco, conta.Agencia, conta.Numero,
		string(conta.Tipo), conta.Saldo.String(), ativa)
	if err != nil {
		return apperrors.Storage("put conta bancaria", err)
	}
	return nil
}

func (s *SQLite) PutExtrato(ctx context.Context, extrato *models.Extrato) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO extratos
		 (id, cartorio_id, conta_id, arquivo, periodo_inicio, periodo_fim, total_itens, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		extrato.ID, extrato.CartorioID, extrato.ContaID, extrato.Arquivo,
		formatDBTime(extrato.PeriodoInicio), formatDBTime(extrato.PeriodoFim),
		extrato.TotalItens, extrato.Status)
	if err != nil {
		return apperrors.Storage("put extrato", err)
	}
	return nil
}

func (s *SQLite) PutExtratoItem(ctx context.Context, item *models.ExtratoItem) error {
	if err := item.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeInvalidFilter, "invalid extrato item")
	}
	return execExtratoItemUpsert(ctx, s.db, item)
}

func (s *SQLite) PutLancamento(ctx context.Context, lancamento *models.Lancamento) error {
	if err := lancamento.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeInvalidFilter, "invalid lancamento")
	}
	return execLancamentoUpsert(ctx, s.db, lancamento)
}

// InTx wraps fn in a database transaction. Any error from fn, the commit or
// the context rolls back every write.
func (s *SQLite) InTx(ctx context.Context, fn func(tx Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage("begin transaction", err)
	}

	if err := fn(&sqliteTx{ctx: ctx, tx: dbTx}); err != nil {
		dbTx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return apperrors.Storage("commit transaction", err)
	}
	return nil
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *sqliteTx) GetExtratoItem(cartorioID, id string) (*models.ExtratoItem, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+extratoItemColumns+` FROM extrato_itens WHERE id = ? AND cartorio_id = ?`,
		id, cartorioID)
	item, err := scanExtratoItem(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("extrato item", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get extrato item", err)
	}
	return item, nil
}

func (t *sqliteTx) GetLancamento(cartorioID, id string) (*models.Lancamento, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+lancamentoColumns+` FROM lancamentos WHERE id = ? AND cartorio_id = ?`,
		id, cartorioID)
	l, err := scanLancamento(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("lancamento", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get lancamento", err)
	}
	return l, nil
}

func (t *sqliteTx) GetConciliacao(cartorioID, id string) (*models.Conciliacao, error) {
	return getConciliacao(t.ctx, t.tx, cartorioID, id)
}

func (t *sqliteTx) UpdateExtratoItem(item *models.ExtratoItem) error {
	return execExtratoItemUpsert(t.ctx, t.tx, item)
}

func (t *sqliteTx) UpdateLancamento(lancamento *models.Lancamento) error {
	return execLancamentoUpsert(t.ctx, t.tx, lancamento)
}

func (t *sqliteTx) InsertConciliacao(conciliacao *models.Conciliacao) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO conciliacoes
		 (id, cartorio_id, extrato_item_id, lancamento_id, diferenca, nota, vinculada_em)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conciliacao.ID, conciliacao.CartorioID, conciliacao.ExtratoItemID,
		conciliacao.LancamentoID, conciliacao.Diferenca.String(), conciliacao.Nota,
		formatDBTime(conciliacao.VinculadaEm))
	if err != nil {
		return apperrors.Storage("insert conciliacao", err)
	}
	return nil
}

func (t *sqliteTx) DeleteConciliacao(cartorioID, id string) error {
	res, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM conciliacoes WHERE id = ? AND cartorio_id = ?`, id, cartorioID)
	if err != nil {
		return apperrors.Storage("delete conciliacao", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("delete conciliacao", err)
	}
	if n == 0 {
		return apperrors.NotFound("conciliacao", id)
	}
	return nil
}

// querier abstracts *sql.DB and *sql.Tx for shared statement helpers.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func getConciliacao(ctx context.Context, q querier, cartorioID, id string) (*models.Conciliacao, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, cartorio_id, extrato_item_id, lancamento_id, diferenca, nota, vinculada_em
		 FROM conciliacoes WHERE id = ? AND cartorio_id = ?`, id, cartorioID)
	c, err := scanConciliacao(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("conciliacao", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get conciliacao", err)
	}
	return c, nil
}

func execExtratoItemUpsert(ctx context.Context, q querier, item *models.ExtratoItem) error {
	var saldo sql.NullString
	if item.Saldo != nil {
		saldo = sql.NullString{String: item.Saldo.String(), Valid: true}
	}
	var vinculado sql.NullString
	if item.LancamentoVinculadoID != nil {
		vinculado = sql.NullString{String: *item.LancamentoVinculadoID, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT OR REPLACE INTO extrato_itens
		 (id, extrato_id, cartorio_id, conta_id, data, descricao, valor, direcao,
		  saldo, status_conciliacao, lancamento_vinculado_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ExtratoID, item.CartorioID, item.ContaID,
		formatDBTime(item.Data), item.Descricao, item.Valor.String(),
		string(item.Direcao), saldo, string(item.StatusConciliacao), vinculado)
	if err != nil {
		return apperrors.Storage("put extrato item", err)
	}
	return nil
}

func execLancamentoUpsert(ctx context.Context, q querier, l *models.Lancamento) error {
	var vinculado sql.NullString
	if l.ExtratoItemVinculadoID != nil {
		vinculado = sql.NullString{String: *l.ExtratoItemVinculadoID, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT OR REPLACE INTO lancamentos
		 (id, cartorio_id, conta_id, data, descricao, tipo, categoria, valor,
		  status_pagamento, status_conciliacao, extrato_item_vinculado_id, responsavel, observacoes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CartorioID, l.ContaID, formatDBTime(l.Data), l.Descricao,
		string(l.Tipo), l.Categoria, l.Valor.String(), string(l.StatusPagamento),
		string(l.StatusConciliacao), vinculado, l.Responsavel, l.Observacoes)
	if err != nil {
		return apperrors.Storage("put lancamento", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExtratoItem(row rowScanner) (*models.ExtratoItem, error) {
	var item models.ExtratoItem
	var data, valor string
	var saldo, vinculado sql.NullString
	err := row.Scan(&item.ID, &item.ExtratoID, &item.CartorioID, &item.ContaID,
		&data, &item.Descricao, &valor, &item.Direcao, &saldo,
		&item.StatusConciliacao, &vinculado)
	if err != nil {
		return nil, err
	}
	if item.Data, err = parseDBTime(data); err != nil {
		return nil, err
	}
	if item.Valor, err = decimal.NewFromString(valor); err != nil {
		return nil, err
	}
	if saldo.Valid {
		d, err := decimal.NewFromString(saldo.String)
		if err != nil {
			return nil, err
		}
		item.Saldo = &d
	}
	if vinculado.Valid {
		id := vinculado.String
		item.LancamentoVinculadoID = &id
	}
	return &item, nil
}

func scanLancamento(row rowScanner) (*models.Lancamento, error) {
	var l models.Lancamento
	var data, valor string
	var vinculado sql.NullString
	err := row.Scan(&l.ID, &l.CartorioID, &l.ContaID, &data, &l.Descricao,
		&l.Tipo, &l.Categoria, &valor, &l.StatusPagamento, &l.StatusConciliacao,
		&vinculado, &l.Responsavel, &l.Observacoes)
	if err != nil {
		return nil, err
	}
	if l.Data, err = parseDBTime(data); err != nil {
		return nil, err
	}
	if l.Valor, err = decimal.NewFromString(valor); err != nil {
		return nil, err
	}
	if vinculado.Valid {
		id := vinculado.String
		l.ExtratoItemVinculadoID = &id
	}
	return &l, nil
}

func scanConciliacao(row rowScanner) (*models.Conciliacao, error) {
	var c models.Conciliacao
	var diferenca, vinculadaEm string
	err := row.Scan(&c.ID, &c.CartorioID, &c.ExtratoItemID, &c.LancamentoID,
		&diferenca, &c.Nota, &vinculadaEm)
	if err != nil {
		return nil, err
	}
	if c.Diferenca, err = decimal.NewFromString(diferenca); err != nil {
		return nil, err
	}
	if c.VinculadaEm, err = parseDBTime(vinculadaEm); err != nil {
		return nil, err
	}
	return &c, nil
}

func formatDBTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseDBTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
