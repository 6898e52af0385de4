package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"conciliador/internal/reporter"
)

var fechamentoData string

// fechamentoCmd represents the fechamento command
var fechamentoCmd = &cobra.Command{
	Use:   "fechamento",
	Short: "Show the daily closing summary for one date",
	Long: `Fechamento computes the closing summary for one calendar date: the
day's statement lines bucketed by status, their value totals and the
accumulated link differences.

Examples:
  conciliador fechamento --cartorio CART-1 --data 2024-03-10 --db conciliador.db
  conciliador fechamento --cartorio CART-1 --conta CONTA-1 --data 2024-03-10`,
	RunE: runFechamento,
}

func init() {
	rootCmd.AddCommand(fechamentoCmd)
	fechamentoCmd.Flags().StringVar(&cartorioID, "cartorio", "", "cartório id (required)")
	fechamentoCmd.Flags().StringVar(&contaID, "conta", "", "restrict to one bank account")
	fechamentoCmd.Flags().StringVar(&extratoID, "extrato", "", "restrict to one imported statement")
	fechamentoCmd.Flags().StringVar(&fechamentoData, "data", "", "closing date (YYYY-MM-DD, required)")
	fechamentoCmd.MarkFlagRequired("cartorio")
	fechamentoCmd.MarkFlagRequired("data")
	addOutputFlags(fechamentoCmd)
}

func runFechamento(cmd *cobra.Command, args []string) error {
	data, err := time.Parse("2006-01-02", fechamentoData)
	if err != nil {
		return fmt.Errorf("invalid date %q: use YYYY-MM-DD", fechamentoData)
	}
	filtros, err := parseFiltros(cartorioID, contaID, extratoID, "", "")
	if err != nil {
		return err
	}

	svc, st, err := abrirServico(matchingOverrides())
	if err != nil {
		return err
	}
	defer st.Close()

	fechamento, err := svc.FechamentoDiario(cmd.Context(), filtros, data)
	if err != nil {
		return err
	}

	out, fechar, err := abrirSaida()
	if err != nil {
		return err
	}
	defer fechar()

	rep, err := reporter.New(out, reporter.OutputFormat(outputFormat))
	if err != nil {
		return err
	}
	return rep.Fechamento(fechamento)
}
