package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("lancamento", "L-42")

	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}
	if IsAlreadyLinked(err) {
		t.Error("expected IsAlreadyLinked to be false")
	}
	if err.Category != CategoryStorage {
		t.Errorf("category = %s, want %s", err.Category, CategoryStorage)
	}
	if err.Context["id"] != "L-42" {
		t.Errorf("context id = %v, want L-42", err.Context["id"])
	}
}

func TestAlreadyLinked(t *testing.T) {
	err := AlreadyLinked("extrato item", "EI-1")
	if !IsAlreadyLinked(err) {
		t.Error("expected IsAlreadyLinked to be true")
	}
	if err.Code != CodeAlreadyLinked {
		t.Errorf("code = %s, want %s", err.Code, CodeAlreadyLinked)
	}
}

func TestInvalidScope(t *testing.T) {
	err := InvalidScope("extrato item", "EI-1", "CART-2")
	if !IsInvalidScope(err) {
		t.Error("expected IsInvalidScope to be true")
	}
	if err.Context["scope"] != "CART-2" {
		t.Errorf("context scope = %v, want CART-2", err.Context["scope"])
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Storage("create link", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped error must unwrap to its cause")
	}
	if err.Code != CodeStorageFailure {
		t.Errorf("code = %s, want %s", err.Code, CodeStorageFailure)
	}
}

func TestPredicatesThroughWrapping(t *testing.T) {
	inner := NotFound("conciliacao", "C-1")
	outer := fmt.Errorf("auto-match batch: %w", inner)

	if !IsNotFound(outer) {
		t.Error("IsNotFound must see through fmt.Errorf wrapping")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryInternal, CodeUnexpected, "x") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestInvalidFilter(t *testing.T) {
	err := InvalidFilter(fmt.Errorf("end date before start date"))
	if !IsInvalidFilter(err) {
		t.Error("expected IsInvalidFilter to be true")
	}
}
