package cmd

import (
	"github.com/spf13/cobra"

	"conciliador/internal/reporter"
)

// sugestoesCmd represents the sugestoes command
var sugestoesCmd = &cobra.Command{
	Use:   "sugestoes",
	Short: "List match suggestions for pending statement lines",
	Long: `Sugestoes computes ranked, confidence-scored pairing suggestions for
every pending statement line in the selected scope, without linking anything.

Examples:
  conciliador sugestoes --cartorio CART-1 --db conciliador.db
  conciliador sugestoes --cartorio CART-1 --conta CONTA-1 --output-format csv`,
	RunE: runSugestoes,
}

func init() {
	rootCmd.AddCommand(sugestoesCmd)
	addScopeFlags(sugestoesCmd)
	addMatchingFlags(sugestoesCmd)
	addOutputFlags(sugestoesCmd)
}

func runSugestoes(cmd *cobra.Command, args []string) error {
	filtros, err := parseFiltros(cartorioID, contaID, extratoID, startDate, endDate)
	if err != nil {
		return err
	}

	svc, st, err := abrirServico(matchingOverrides())
	if err != nil {
		return err
	}
	defer st.Close()

	lote, err := svc.SugerirLote(cmd.Context(), filtros)
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
	return rep.Sugestoes(lote)
}
