package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"conciliador/internal/api"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation HTTP server",
	Long: `Serve exposes the reconciliation operations over HTTP. Every request
is scoped to one cartório through the X-Cartorio-ID header.

Examples:
  conciliador serve --db conciliador.db
  conciliador serve --db conciliador.db --addr :9090
  CONCILIADOR_ADDR=:9090 conciliador serve --db conciliador.db`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	addMatchingFlags(serveCmd)
	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, st, err := abrirServico(matchingOverrides())
	if err != nil {
		return err
	}
	defer st.Close()

	addr := serveAddr
	if env := viper.GetString("addr"); env != "" && !cmd.Flags().Changed("addr") {
		addr = env
	}
	return api.NewServer(svc).Run(addr)
}
