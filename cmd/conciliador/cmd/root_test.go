package cmd

import (
	"testing"
	"time"
)

func TestParseFiltros(t *testing.T) {
	filtros, err := parseFiltros("CART-1", "CONTA-1", "", "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if filtros.CartorioID != "CART-1" || filtros.ContaID != "CONTA-1" {
		t.Errorf("scope = %s/%s", filtros.CartorioID, filtros.ContaID)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !filtros.DataInicio.Equal(want) {
		t.Errorf("start = %s, want %s", filtros.DataInicio, want)
	}
}

func TestParseFiltrosErrors(t *testing.T) {
	if _, err := parseFiltros("", "", "", "", ""); err == nil {
		t.Error("empty cartório must be rejected")
	}
	if _, err := parseFiltros("CART-1", "", "", "03/01/2024", ""); err == nil {
		t.Error("malformed start date must be rejected")
	}
	if _, err := parseFiltros("CART-1", "", "", "2024-03-31", "2024-03-01"); err == nil {
		t.Error("inverted period must be rejected")
	}
}
