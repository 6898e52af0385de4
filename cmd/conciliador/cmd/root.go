package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"conciliador/cmd/conciliador/config"
	"conciliador/internal/models"
	"conciliador/internal/service"
	"conciliador/internal/store"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	dbPath    string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conciliador",
	Short: "Bank reconciliation tool for cartório ledgers",
	Long: `Conciliador matches bank statement lines against internal ledger
entries, suggests pairings with confidence scores, links them one-to-one and
reports reconciliation statistics and daily closings.

Examples:
  conciliador serve --db conciliador.db --addr :8080
  conciliador auto-match --cartorio CART-1 --db conciliador.db
  conciliador sugestoes --cartorio CART-1 --db conciliador.db
  conciliador stats --cartorio CART-1 --db conciliador.db
  conciliador fechamento --cartorio CART-1 --data 2024-03-10 --db conciliador.db`,
	Version: getVersionString(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.SetupLogger(verbose, logFormat)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (default: in-memory)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("CONCILIADOR")
	viper.AutomaticEnv()
}

// abrirServico opens the store and builds the service with the matching
// overrides from the current command's flags.
func abrirServico(overrides config.MatchingOverrides) (*service.Conciliador, store.Store, error) {
	path := dbPath
	if path == "" {
		path = viper.GetString("db")
	}

	st, err := config.OpenStore(path)
	if err != nil {
		return nil, nil, err
	}

	matching, err := config.CreateMatchingConfig(overrides)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	svc, err := service.New(st, matching)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return svc, st, nil
}

// parseFiltros builds the record filter shared by the reporting commands.
func parseFiltros(cartorioID, contaID, extratoID, startDate, endDate string) (models.ConciliacaoFiltros, error) {
	filtros := models.ConciliacaoFiltros{
		CartorioID: cartorioID,
		ContaID:    contaID,
		ExtratoID:  extratoID,
	}

	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return filtros, fmt.Errorf("invalid start date %q: use YYYY-MM-DD", startDate)
		}
		filtros.DataInicio = t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return filtros, fmt.Errorf("invalid end date %q: use YYYY-MM-DD", endDate)
		}
		filtros.DataFim = t
	}

	if err := filtros.Validate(); err != nil {
		return filtros, err
	}
	return filtros, nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}
