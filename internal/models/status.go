package models

import "fmt"

// StatusConciliacao represents the reconciliation state of a linkable record
// (an ExtratoItem or a Lancamento).
type StatusConciliacao string

const (
	// StatusPendente is the initial state: the record is not linked.
	StatusPendente StatusConciliacao = "pendente"
	// StatusConciliado means the record is linked and the amounts match
	// within the configured tolerance.
	StatusConciliado StatusConciliacao = "conciliado"
	// StatusDivergente means the record is linked but the amounts differ
	// beyond the tolerance. Divergent links stay queryable and can be
	// corrected by unlink-then-relink.
	StatusDivergente StatusConciliacao = "divergente"
)

// String returns the string representation of StatusConciliacao
func (s StatusConciliacao) String() string {
	return string(s)
}

// IsValid checks if the status value is one of the known states
func (s StatusConciliacao) IsValid() bool {
	return s == StatusPendente || s == StatusConciliado || s == StatusDivergente
}

// IsVinculado reports whether the status implies an existing link.
func (s StatusConciliacao) IsVinculado() bool {
	return s == StatusConciliado || s == StatusDivergente
}

// CanTransition reports whether the transition from s to the target state is
// legal. The only legal moves are pendente -> conciliado|divergente (link)
// and conciliado|divergente -> pendente (unlink).
func (s StatusConciliacao) CanTransition(to StatusConciliacao) bool {
	switch s {
	case StatusPendente:
		return to == StatusConciliado || to == StatusDivergente
	case StatusConciliado, StatusDivergente:
		return to == StatusPendente
	default:
		return false
	}
}

// Transition validates the move from s to the target state and returns the
// target on success. Callers other than the Linker must not mutate statuses.
func (s StatusConciliacao) Transition(to StatusConciliacao) (StatusConciliacao, error) {
	if !to.IsValid() {
		return s, fmt.Errorf("invalid target status: %s", to)
	}
	if !s.CanTransition(to) {
		return s, fmt.Errorf("illegal status transition: %s -> %s", s, to)
	}
	return to, nil
}

// ParseStatusConciliacao parses a status from its string form.
func ParseStatusConciliacao(v string) (StatusConciliacao, error) {
	s := StatusConciliacao(v)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid reconciliation status: %q", v)
	}
	return s, nil
}

// DirecaoExtrato is the direction of a bank statement line.
type DirecaoExtrato string

const (
	DirecaoCredito DirecaoExtrato = "credito"
	DirecaoDebito  DirecaoExtrato = "debito"
)

// IsValid checks if the direction is valid
func (d DirecaoExtrato) IsValid() bool {
	return d == DirecaoCredito || d == DirecaoDebito
}

// TipoEsperado returns the ledger entry kind that normally corresponds to
// this statement direction: credits map to receitas, debits to despesas.
func (d DirecaoExtrato) TipoEsperado() TipoLancamento {
	if d == DirecaoCredito {
		return TipoReceita
	}
	return TipoDespesa
}

// TipoLancamento is the kind of a ledger entry.
type TipoLancamento string

const (
	TipoReceita TipoLancamento = "receita"
	TipoDespesa TipoLancamento = "despesa"
)

// IsValid checks if the ledger entry kind is valid
func (t TipoLancamento) IsValid() bool {
	return t == TipoReceita || t == TipoDespesa
}

// StatusPagamento is the payment state of a ledger entry, maintained by the
// ledger itself and read-only to the matching core.
type StatusPagamento string

const (
	PagamentoPago      StatusPagamento = "pago"
	PagamentoPendente  StatusPagamento = "pendente"
	PagamentoAgendado  StatusPagamento = "agendado"
	PagamentoCancelado StatusPagamento = "cancelado"
)

// IsValid checks if the payment status is valid
func (s StatusPagamento) IsValid() bool {
	switch s {
	case PagamentoPago, PagamentoPendente, PagamentoAgendado, PagamentoCancelado:
		return true
	}
	return false
}

// TipoConta is the kind of a bank account.
type TipoConta string

const (
	ContaCorrente     TipoConta = "corrente"
	ContaPoupanca     TipoConta = "poupanca"
	ContaInvestimento TipoConta = "investimento"
)

// IsValid checks if the account type is valid
func (t TipoConta) IsValid() bool {
	return t == ContaCorrente || t == ContaPoupanca || t == ContaInvestimento
}
