package parsers

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"conciliador/internal/models"
)

func TestExtratoParserParse(t *testing.T) {
	csv := `id,data,descricao,valor,direcao,saldo
B001,2024-03-10,PIX JOAO SILVA,150.00,credito,1200.50
B002,2024-03-10,TARIFA MANUTENCAO,-89.90,debito,
B003,2024-03-11,TED MARIA SANTOS,"R$ 320.50",credito,1431.10
`
	parser := NewExtratoParser(nil)
	itens, stats, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1", "EX-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if stats.ParsedCount != 3 || stats.SkippedCount != 0 {
		t.Fatalf("stats = %+v, want 3 parsed", stats)
	}

	first := itens[0]
	if first.ID != "B001" || first.CartorioID != "CART-1" || first.ExtratoID != "EX-1" {
		t.Errorf("scope stamping failed: %+v", first)
	}
	if !first.Valor.Equal(decimal.NewFromFloat(150.00)) {
		t.Errorf("valor = %s, want 150", first.Valor)
	}
	if first.Saldo == nil || !first.Saldo.Equal(decimal.NewFromFloat(1200.50)) {
		t.Errorf("saldo = %v, want 1200.50", first.Saldo)
	}
	if itens[1].Saldo != nil {
		t.Error("empty balance column must stay nil")
	}
	// Currency symbol tolerated.
	if !itens[2].Valor.Equal(decimal.NewFromFloat(320.50)) {
		t.Errorf("valor = %s, want 320.50", itens[2].Valor)
	}
	if itens[0].StatusConciliacao != models.StatusPendente {
		t.Error("parsed lines start pendente")
	}
}

func TestExtratoParserHeaderAliases(t *testing.T) {
	csv := `ref,date,historico,amount,dc
B001,2024-03-10,PIX RECEBIDO,150.00,C
`
	parser := NewExtratoParser(nil)
	itens, _, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1", "EX-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(itens) != 1 {
		t.Fatalf("itens = %d, want 1", len(itens))
	}
	if itens[0].Direcao != models.DirecaoCredito {
		t.Errorf("direcao = %s, want credito (alias C)", itens[0].Direcao)
	}
	if itens[0].Descricao != "PIX RECEBIDO" {
		t.Errorf("descricao = %q", itens[0].Descricao)
	}
}

func TestExtratoParserDerivesDirectionFromSign(t *testing.T) {
	csv := `id,data,descricao,valor
B001,2024-03-10,TARIFA,-89.90
B002,2024-03-10,PIX,150.00
`
	parser := NewExtratoParser(nil)
	itens, _, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1", "EX-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if itens[0].Direcao != models.DirecaoDebito || itens[1].Direcao != models.DirecaoCredito {
		t.Errorf("derived directions = %s/%s, want debito/credito", itens[0].Direcao, itens[1].Direcao)
	}
}

func TestExtratoParserSkipsMalformedLines(t *testing.T) {
	csv := `id,data,descricao,valor,direcao
B001,2024-03-10,OK,150.00,credito
B002,not-a-date,BROKEN,150.00,credito
B003,2024-03-11,BAD AMOUNT,abc,credito
`
	parser := NewExtratoParser(nil)
	itens, stats, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1", "EX-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(itens) != 1 || stats.SkippedCount != 2 {
		t.Fatalf("parsed = %d, skipped = %d; want 1 and 2", len(itens), stats.SkippedCount)
	}
	if len(stats.Errors) != 2 {
		t.Fatalf("collected errors = %d, want 2", len(stats.Errors))
	}
	var parseErr *ParseError
	if pe, ok := stats.Errors[0].(*ParseError); !ok {
		t.Errorf("error type = %T, want *ParseError", stats.Errors[0])
	} else {
		parseErr = pe
	}
	if parseErr != nil && parseErr.Line != 3 {
		t.Errorf("error line = %d, want 3", parseErr.Line)
	}
}

func TestExtratoParserDateFormats(t *testing.T) {
	csv := `id,data,descricao,valor,direcao
B001,10/03/2024,BR FORMAT,150.00,credito
`
	parser := NewExtratoParser(nil)
	itens, _, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1", "EX-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if !itens[0].Data.Equal(want) {
		t.Errorf("data = %s, want %s", itens[0].Data, want)
	}
}

func TestLancamentoParserParse(t *testing.T) {
	csv := `id,data,descricao,tipo,categoria,valor,status_pagamento
L001,2024-03-10,Recebimento João Silva,receita,Emolumentos,150.00,pago
L002,2024-03-10,Tarifa de manutenção,despesa,Tarifas bancárias,89.90,
`
	parser := NewLancamentoParser(nil)
	lancamentos, stats, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if stats.ParsedCount != 2 {
		t.Fatalf("parsed = %d, want 2", stats.ParsedCount)
	}
	if lancamentos[0].Tipo != models.TipoReceita || lancamentos[1].Tipo != models.TipoDespesa {
		t.Error("kinds must parse")
	}
	// Empty payment status defaults to pago.
	if lancamentos[1].StatusPagamento != models.PagamentoPago {
		t.Errorf("status = %s, want pago", lancamentos[1].StatusPagamento)
	}
	if lancamentos[0].Categoria != "Emolumentos" {
		t.Errorf("categoria = %q", lancamentos[0].Categoria)
	}
}

func TestLancamentoParserAbsAmount(t *testing.T) {
	csv := `id,data,descricao,tipo,categoria,valor
L001,2024-03-10,Folha,despesa,Pessoal,-1200.00
`
	parser := NewLancamentoParser(nil)
	lancamentos, _, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !lancamentos[0].Valor.Equal(decimal.NewFromFloat(1200.00)) {
		t.Errorf("valor = %s, want unsigned 1200", lancamentos[0].Valor)
	}
}

func TestLancamentoParserGeneratedIDs(t *testing.T) {
	csv := `data,descricao,tipo,categoria,valor
2024-03-10,Sem id,receita,Emolumentos,10.00
`
	parser := NewLancamentoParser(nil)
	lancamentos, _, err := parser.Parse(strings.NewReader(csv), "CART-1", "CONTA-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lancamentos[0].ID == "" {
		t.Error("missing id column must yield a generated id")
	}
}
