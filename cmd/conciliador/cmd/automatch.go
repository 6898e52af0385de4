package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"conciliador/cmd/conciliador/config"
	"conciliador/internal/reporter"
)

// Flags shared by the matching commands
var (
	cartorioID string
	contaID    string
	extratoID  string
	startDate  string
	endDate    string

	perfil          string
	janelaDias      int
	toleranciaValor float64
	scoreMinimo     float64
	scoreAutoAceite float64
	epsilon         float64

	outputFormat string
	outputFile   string
)

// autoMatchCmd represents the auto-match command
var autoMatchCmd = &cobra.Command{
	Use:   "auto-match",
	Short: "Link high-confidence pairs automatically",
	Long: `Auto-match scores every pending statement line against the pending
ledger entries of the same scope and links the highest-confidence pairs,
strictly one-to-one. Only pairs at or above the auto-accept score are linked;
everything else stays pending for manual review.

Examples:
  conciliador auto-match --cartorio CART-1 --db conciliador.db
  conciliador auto-match --cartorio CART-1 --conta CONTA-1 \
    --start-date 2024-03-01 --end-date 2024-03-31
  conciliador auto-match --cartorio CART-1 --perfil strict --output-format json`,
	RunE: runAutoMatch,
}

func init() {
	rootCmd.AddCommand(autoMatchCmd)
	addScopeFlags(autoMatchCmd)
	addMatchingFlags(autoMatchCmd)
	addOutputFlags(autoMatchCmd)
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cartorioID, "cartorio", "", "cartório id (required)")
	cmd.Flags().StringVar(&contaID, "conta", "", "restrict to one bank account")
	cmd.Flags().StringVar(&extratoID, "extrato", "", "restrict to one imported statement")
	cmd.Flags().StringVar(&startDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "filter end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("cartorio")
}

func addMatchingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&perfil, "perfil", "default", "matching profile: default, strict, relaxed")
	cmd.Flags().IntVarP(&janelaDias, "janela-dias", "d", 0, "date window in days (overrides profile)")
	cmd.Flags().Float64VarP(&toleranciaValor, "tolerancia-valor", "a", 0, "amount tolerance percentage (overrides profile)")
	cmd.Flags().Float64Var(&scoreMinimo, "score-minimo", 0, "suggestion floor (overrides profile)")
	cmd.Flags().Float64Var(&scoreAutoAceite, "score-auto-aceite", 0, "auto-accept threshold (overrides profile)")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0, "absolute amount tolerance for conciliado links")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
}

func matchingOverrides() config.MatchingOverrides {
	return config.MatchingOverrides{
		Perfil:                 perfil,
		JanelaDias:             janelaDias,
		ToleranciaValorPercent: toleranciaValor,
		ScoreMinimo:            scoreMinimo,
		ScoreAutoAceite:        scoreAutoAceite,
		Epsilon:                epsilon,
	}
}

// abrirSaida opens the output destination for the report.
func abrirSaida() (io.Writer, func() error, error) {
	if outputFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runAutoMatch(cmd *cobra.Command, args []string) error {
	filtros, err := parseFiltros(cartorioID, contaID, extratoID, startDate, endDate)
	if err != nil {
		return err
	}

	svc, st, err := abrirServico(matchingOverrides())
	if err != nil {
		return err
	}
	defer st.Close()

	resultado, err := svc.AutoConciliar(cmd.Context(), filtros)
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
	return rep.AutoMatch(resultado)
}
