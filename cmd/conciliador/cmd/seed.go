package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"conciliador/internal/models"
	"conciliador/internal/store"
)

var (
	seedCartorio string
	seedDias     int
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demonstration data",
	Long: `Seed writes a small demonstration dataset: one bank account, one
imported statement and a handful of statement lines and ledger entries,
including exact matches, near matches and unmatched movements.

Examples:
  conciliador seed --db conciliador.db
  conciliador seed --db conciliador.db --cartorio CART-DEMO`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedCartorio, "cartorio", "CART-1", "cartório id for the seeded records")
	seedCmd.Flags().IntVar(&seedDias, "dias", 5, "number of days of movement to generate")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if dbPath == "" {
		return fmt.Errorf("seed requires --db: an in-memory store would be discarded on exit")
	}

	st, err := store.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	base := time.Now().UTC().AddDate(0, 0, -seedDias)
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)

	conta := &models.ContaBancaria{
		ID:         "CONTA-1",
		CartorioID: seedCartorio,
		Banco:      "Banco do Brasil",
		Agencia:    "1234-5",
		Numero:     "67890-1",
		Tipo:       models.ContaCorrente,
		Saldo:      decimal.NewFromFloat(15430.77),
		Ativa:      true,
	}
	if err := st.PutContaBancaria(ctx, conta); err != nil {
		return err
	}

	extrato := &models.Extrato{
		ID:            "EX-1",
		CartorioID:    seedCartorio,
		ContaID:       conta.ID,
		Arquivo:       "extrato-demo.ofx",
		PeriodoInicio: base,
		PeriodoFim:    base.AddDate(0, 0, seedDias),
		Status:        "importado",
	}

	type movimento struct {
		dia       int
		valor     float64
		descItem  string
		descLanc  string
		categoria string
		direcao   models.DirecaoExtrato
		valorLanc float64
	}
	movimentos := []movimento{
		{0, 150.00, "PIX JOAO SILVA", "Recebimento João Silva", "Emolumentos", models.DirecaoCredito, 150.00},
		{0, -89.90, "TARIFA MANUTENCAO CONTA", "Tarifa de manutenção de conta", "Tarifas bancárias", models.DirecaoDebito, 89.90},
		{1, 320.50, "TED MARIA SANTOS", "Recebimento Maria Santos", "Emolumentos", models.DirecaoCredito, 320.50},
		{2, 145.00, "DEPOSITO DINHEIRO", "Recebimento balcão", "Emolumentos", models.DirecaoCredito, 150.00},
		{3, -1200.00, "PAGTO FOLHA", "Folha de pagamento", "Pessoal", models.DirecaoDebito, 1200.00},
		{4, 78.30, "PIX RECEBIDO", "", "", models.DirecaoCredito, 0},
	}

	seq := 0
	for _, mv := range movimentos {
		if mv.dia >= seedDias {
			continue
		}
		seq++
		data := base.AddDate(0, 0, mv.dia)

		item := &models.ExtratoItem{
			ID:                fmt.Sprintf("EI-%d", seq),
			ExtratoID:         extrato.ID,
			CartorioID:        seedCartorio,
			ContaID:           conta.ID,
			Data:              data,
			Descricao:         mv.descItem,
			Valor:             decimal.NewFromFloat(mv.valor),
			Direcao:           mv.direcao,
			StatusConciliacao: models.StatusPendente,
		}
		if err := st.PutExtratoItem(ctx, item); err != nil {
			return err
		}
		extrato.TotalItens++

		if mv.valorLanc == 0 {
			continue
		}
		tipo := models.TipoReceita
		if mv.direcao == models.DirecaoDebito {
			tipo = models.TipoDespesa
		}
		lanc := &models.Lancamento{
			ID:                fmt.Sprintf("L-%d", seq),
			CartorioID:        seedCartorio,
			ContaID:           conta.ID,
			Data:              data,
			Descricao:         mv.descLanc,
			Tipo:              tipo,
			Categoria:         mv.categoria,
			Valor:             decimal.NewFromFloat(mv.valorLanc),
			StatusPagamento:   models.PagamentoPago,
			StatusConciliacao: models.StatusPendente,
		}
		if err := st.PutLancamento(ctx, lanc); err != nil {
			return err
		}
	}

	if err := st.PutExtrato(ctx, extrato); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d statement lines for %s into %s\n",
		extrato.TotalItens, seedCartorio, dbPath)
	return nil
}
