package cmd

import (
	"github.com/spf13/cobra"

	"conciliador/internal/reporter"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reconciliation statistics",
	Long: `Stats computes counts, the reconciliation rate and value totals over
the statement lines and ledger entries in the selected scope.

Examples:
  conciliador stats --cartorio CART-1 --db conciliador.db
  conciliador stats --cartorio CART-1 --start-date 2024-03-01 --end-date 2024-03-31`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addScopeFlags(statsCmd)
	addOutputFlags(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	filtros, err := parseFiltros(cartorioID, contaID, extratoID, startDate, endDate)
	if err != nil {
		return err
	}

	svc, st, err := abrirServico(matchingOverrides())
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := svc.Stats(cmd.Context(), filtros)
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
	return rep.Stats(stats)
}
