// Package parsers reads bank statement lines and ledger entries from CSV
// files into the data model, tolerating the column-name and format variations
// found in real bank exports: header aliases, different date formats and
// amounts with currency symbols.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"conciliador/internal/models"
	apperrors "conciliador/pkg/errors"
	"conciliador/pkg/logger"
)

// ParseError reports a malformed field with its position in the file.
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s=%q): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s=%q): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseStats summarizes one parsing run.
type ParseStats struct {
	TotalLines   int
	ParsedCount  int
	SkippedCount int
	Errors       []error
}

// Config controls how a CSV file is read. Column lookups go through the
// alias table first, so exports that say "valor" or "amount" both resolve.
type Config struct {
	Delimiter  rune
	HasHeader  bool
	DateFormats []string
	// ColumnAliases maps alternative header names onto the canonical
	// column names the parser expects.
	ColumnAliases map[string]string
}

// DefaultExtratoConfig returns the parser configuration for statement files.
// Canonical columns: id, data, descricao, valor, direcao, saldo.
func DefaultExtratoConfig() *Config {
	return &Config{
		Delimiter:   ',',
		HasHeader:   true,
		DateFormats: []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"},
		ColumnAliases: map[string]string{
			"identificador": "id",
			"ref":           "id",
			"date":          "data",
			"data_mov":      "data",
			"historico":     "descricao",
			"memo":          "descricao",
			"description":   "descricao",
			"amount":        "valor",
			"montante":      "valor",
			"tipo_mov":      "direcao",
			"dc":            "direcao",
			"balance":       "saldo",
		},
	}
}

// DefaultLancamentoConfig returns the parser configuration for ledger files.
// Canonical columns: id, data, descricao, tipo, categoria, valor,
// status_pagamento, responsavel, observacoes.
func DefaultLancamentoConfig() *Config {
	return &Config{
		Delimiter:   ',',
		HasHeader:   true,
		DateFormats: []string{"2006-01-02", "02/01/2006"},
		ColumnAliases: map[string]string{
			"date":        "data",
			"description": "descricao",
			"historico":   "descricao",
			"kind":        "tipo",
			"category":    "categoria",
			"amount":      "valor",
			"montante":    "valor",
			"status":      "status_pagamento",
		},
	}
}

// header maps canonical column names onto record indexes.
type header map[string]int

func (c *Config) buildHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := c.ColumnAliases[name]; ok {
			name = canonical
		}
		h[name] = i
	}
	return h
}

func (h header) get(record []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c *Config) parseData(value string) (time.Time, error) {
	for _, format := range c.DateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// ExtratoParser reads statement line CSV files.
type ExtratoParser struct {
	config *Config
	log    logger.Logger
}

// NewExtratoParser creates a statement parser. A nil config uses the default.
func NewExtratoParser(config *Config) *ExtratoParser {
	if config == nil {
		config = DefaultExtratoConfig()
	}
	return &ExtratoParser{config: config, log: logger.WithComponent("parsers")}
}

// ParseFile reads every statement line from path, stamping each with the
// given scope. Malformed lines are collected into the stats and skipped; the
// file only fails as a whole when it cannot be opened or read.
func (p *ExtratoParser) ParseFile(path, cartorioID, contaID, extratoID string) ([]*models.ExtratoItem, *ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.Storage("open statement file", err)
	}
	defer f.Close()
	return p.Parse(f, cartorioID, contaID, extratoID)
}

// Parse reads statement lines from r.
func (p *ExtratoParser) Parse(r io.Reader, cartorioID, contaID, extratoID string) ([]*models.ExtratoItem, *ParseStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true

	stats := &ParseStats{}
	var h header
	itens := make([]*models.ExtratoItem, 0)

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.Storage("read statement file", err)
		}

		if line == 1 && p.config.HasHeader {
			h = p.config.buildHeader(record)
			continue
		}
		if h == nil {
			h = p.config.buildHeader([]string{"id", "data", "descricao", "valor", "direcao", "saldo"})
		}

		stats.TotalLines++
		item, err := p.parseItem(h, record, line, cartorioID, contaID, extratoID)
		if err != nil {
			stats.SkippedCount++
			stats.Errors = append(stats.Errors, err)
			p.log.WithError(err).Warnf("skipping statement line %d", line)
			continue
		}
		stats.ParsedCount++
		itens = append(itens, item)
	}
	return itens, stats, nil
}

func (p *ExtratoParser) parseItem(h header, record []string, line int, cartorioID, contaID, extratoID string) (*models.ExtratoItem, error) {
	data, err := p.config.parseData(h.get(record, "data"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "data", Value: h.get(record, "data"), Message: "invalid date", Err: err}
	}

	valor, err := models.ParseValor(h.get(record, "valor"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "valor", Value: h.get(record, "valor"), Message: "invalid amount", Err: err}
	}

	direcao := models.DirecaoExtrato(strings.ToLower(h.get(record, "direcao")))
	switch direcao {
	case "c", "credit":
		direcao = models.DirecaoCredito
	case "d", "debit":
		direcao = models.DirecaoDebito
	case "":
		// Derive from the amount's sign when the column is absent.
		direcao = models.DirecaoCredito
		if valor.IsNegative() {
			direcao = models.DirecaoDebito
		}
	}
	if !direcao.IsValid() {
		return nil, &ParseError{Line: line, Field: "direcao", Value: h.get(record, "direcao"), Message: "invalid direction"}
	}

	item := &models.ExtratoItem{
		ID:                h.get(record, "id"),
		ExtratoID:         extratoID,
		CartorioID:        cartorioID,
		ContaID:           contaID,
		Data:              data,
		Descricao:         h.get(record, "descricao"),
		Valor:             valor,
		Direcao:           direcao,
		StatusConciliacao: models.StatusPendente,
	}
	if s := h.get(record, "saldo"); s != "" {
		saldo, err := models.ParseValor(s)
		if err != nil {
			return nil, &ParseError{Line: line, Field: "saldo", Value: s, Message: "invalid balance", Err: err}
		}
		item.Saldo = &saldo
	}
	if item.ID == "" {
		item.ID = fmt.Sprintf("%s-%d", extratoID, line)
	}

	if err := item.Validate(); err != nil {
		return nil, &ParseError{Line: line, Field: "record", Value: item.ID, Message: "invalid statement line", Err: err}
	}
	return item, nil
}

// LancamentoParser reads ledger entry CSV files.
type LancamentoParser struct {
	config *Config
	log    logger.Logger
}

// NewLancamentoParser creates a ledger parser. A nil config uses the default.
func NewLancamentoParser(config *Config) *LancamentoParser {
	if config == nil {
		config = DefaultLancamentoConfig()
	}
	return &LancamentoParser{config: config, log: logger.WithComponent("parsers")}
}

// ParseFile reads every ledger entry from path, stamping each with the scope.
func (p *LancamentoParser) ParseFile(path, cartorioID, contaID string) ([]*models.Lancamento, *ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.Storage("open ledger file", err)
	}
	defer f.Close()
	return p.Parse(f, cartorioID, contaID)
}

// Parse reads ledger entries from r.
func (p *LancamentoParser) Parse(r io.Reader, cartorioID, contaID string) ([]*models.Lancamento, *ParseStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true

	stats := &ParseStats{}
	var h header
	lancamentos := make([]*models.Lancamento, 0)

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperrors.Storage("read ledger file", err)
		}

		if line == 1 && p.config.HasHeader {
			h = p.config.buildHeader(record)
			continue
		}
		if h == nil {
			h = p.config.buildHeader([]string{"id", "data", "descricao", "tipo", "categoria", "valor", "status_pagamento"})
		}

		stats.TotalLines++
		lanc, err := p.parseLancamento(h, record, line, cartorioID, contaID)
		if err != nil {
			stats.SkippedCount++
			stats.Errors = append(stats.Errors, err)
			p.log.WithError(err).Warnf("skipping ledger line %d", line)
			continue
		}
		stats.ParsedCount++
		lancamentos = append(lancamentos, lanc)
	}
	return lancamentos, stats, nil
}

func (p *LancamentoParser) parseLancamento(h header, record []string, line int, cartorioID, contaID string) (*models.Lancamento, error) {
	data, err := p.config.parseData(h.get(record, "data"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "data", Value: h.get(record, "data"), Message: "invalid date", Err: err}
	}

	valor, err := models.ParseValor(h.get(record, "valor"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "valor", Value: h.get(record, "valor"), Message: "invalid amount", Err: err}
	}

	tipo := models.TipoLancamento(strings.ToLower(h.get(record, "tipo")))
	switch tipo {
	case "income", "credit":
		tipo = models.TipoReceita
	case "expense", "debit":
		tipo = models.TipoDespesa
	}

	status := models.StatusPagamento(strings.ToLower(h.get(record, "status_pagamento")))
	if status == "" {
		status = models.PagamentoPago
	}

	lanc := &models.Lancamento{
		ID:                h.get(record, "id"),
		CartorioID:        cartorioID,
		ContaID:           contaID,
		Data:              data,
		Descricao:         h.get(record, "descricao"),
		Tipo:              tipo,
		Categoria:         h.get(record, "categoria"),
		Valor:             valor.Abs(),
		StatusPagamento:   status,
		StatusConciliacao: models.StatusPendente,
		Responsavel:       h.get(record, "responsavel"),
		Observacoes:       h.get(record, "observacoes"),
	}
	if lanc.ID == "" {
		lanc.ID = fmt.Sprintf("%s-L%d", contaID, line)
	}

	if err := lanc.Validate(); err != nil {
		return nil, &ParseError{Line: line, Field: "record", Value: lanc.ID, Message: "invalid ledger entry", Err: err}
	}
	return lanc, nil
}
