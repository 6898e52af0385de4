package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"conciliador/internal/models"
	"conciliador/internal/parsers"
	"conciliador/internal/store"
)

var (
	importExtratoFile    string
	importLancamentoFile string
	importContaID        string
)

// importarCmd represents the importar command
var importarCmd = &cobra.Command{
	Use:   "importar",
	Short: "Import statement and ledger CSV files",
	Long: `Importar reads a bank statement CSV and/or a ledger CSV into the
database. Malformed lines are reported and skipped; everything imported
starts pendente.

Examples:
  conciliador importar --cartorio CART-1 --conta CONTA-1 \
    --extrato-file extrato.csv --db conciliador.db
  conciliador importar --cartorio CART-1 --conta CONTA-1 \
    --extrato-file extrato.csv --lancamentos-file lancamentos.csv --db conciliador.db`,
	RunE: runImportar,
}

func init() {
	rootCmd.AddCommand(importarCmd)
	importarCmd.Flags().StringVar(&cartorioID, "cartorio", "", "cartório id (required)")
	importarCmd.Flags().StringVar(&importContaID, "conta", "", "bank account id (required)")
	importarCmd.Flags().StringVar(&importExtratoFile, "extrato-file", "", "path to the statement CSV")
	importarCmd.Flags().StringVar(&importLancamentoFile, "lancamentos-file", "", "path to the ledger CSV")
	importarCmd.MarkFlagRequired("cartorio")
	importarCmd.MarkFlagRequired("conta")
}

func runImportar(cmd *cobra.Command, args []string) error {
	if importExtratoFile == "" && importLancamentoFile == "" {
		return fmt.Errorf("nothing to import: pass --extrato-file and/or --lancamentos-file")
	}
	if dbPath == "" {
		return fmt.Errorf("importar requires --db: an in-memory store would be discarded on exit")
	}

	st, err := store.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	if importExtratoFile != "" {
		extratoID := uuid.New().String()
		parser := parsers.NewExtratoParser(nil)
		itens, stats, err := parser.ParseFile(importExtratoFile, cartorioID, importContaID, extratoID)
		if err != nil {
			return err
		}

		extrato := &models.Extrato{
			ID:         extratoID,
			CartorioID: cartorioID,
			ContaID:    importContaID,
			Arquivo:    filepath.Base(importExtratoFile),
			TotalItens: len(itens),
			Status:     "importado",
		}
		for _, item := range itens {
			if extrato.PeriodoInicio.IsZero() || item.Data.Before(extrato.PeriodoInicio) {
				extrato.PeriodoInicio = item.Data
			}
			if item.Data.After(extrato.PeriodoFim) {
				extrato.PeriodoFim = item.Data
			}
			if err := st.PutExtratoItem(ctx, item); err != nil {
				return err
			}
		}
		if extrato.PeriodoInicio.IsZero() {
			extrato.PeriodoInicio = time.Now().UTC()
			extrato.PeriodoFim = extrato.PeriodoInicio
		}
		if err := st.PutExtrato(ctx, extrato); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Extrato %s: %d lines imported, %d skipped\n",
			extrato.Arquivo, stats.ParsedCount, stats.SkippedCount)
		for _, e := range stats.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", e)
		}
	}

	if importLancamentoFile != "" {
		parser := parsers.NewLancamentoParser(nil)
		lancamentos, stats, err := parser.ParseFile(importLancamentoFile, cartorioID, importContaID)
		if err != nil {
			return err
		}
		for _, l := range lancamentos {
			if err := st.PutLancamento(ctx, l); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Lançamentos %s: %d entries imported, %d skipped\n",
			filepath.Base(importLancamentoFile), stats.ParsedCount, stats.SkippedCount)
		for _, e := range stats.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", e)
		}
	}
	return nil
}
