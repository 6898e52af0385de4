// Package reporter renders reconciliation results for the CLI.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: flat output for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"conciliador/internal/models"
	"conciliador/internal/scheduler"
	"conciliador/internal/service"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// Reporter writes rendered results to an output stream.
type Reporter struct {
	out    io.Writer
	format OutputFormat
}

// New creates a reporter for the given format.
func New(out io.Writer, format OutputFormat) (*Reporter, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("invalid output format: %s", format)
	}
	return &Reporter{out: out, format: format}, nil
}

// AutoMatch renders the result of an auto-match pass.
func (r *Reporter) AutoMatch(resultado *scheduler.AutoMatchResult) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(resultado)
	case FormatCSV:
		records := [][]string{{"conciliacao_id", "extrato_item_id", "lancamento_id", "diferenca", "vinculada_em", "motivo_ignorado"}}
		for _, c := range resultado.Vinculadas {
			records = append(records, []string{
				c.ID, c.ExtratoItemID, c.LancamentoID,
				c.Diferenca.String(), c.VinculadaEm.Format("2006-01-02 15:04:05"), "",
			})
		}
		for _, ig := range resultado.Ignoradas {
			records = append(records, []string{"", ig.ExtratoItemID, "", "", "", ig.Motivo})
		}
		return csv.NewWriter(r.out).WriteAll(records)
	default:
		fmt.Fprintln(r.out, "=== Conciliação Automática ===")
		fmt.Fprintf(r.out, "Itens avaliados:    %d\n", resultado.Avaliados)
		fmt.Fprintf(r.out, "Vínculos criados:   %d\n", len(resultado.Vinculadas))
		fmt.Fprintf(r.out, "Itens ignorados:    %d\n", len(resultado.Ignoradas))
		if len(resultado.Vinculadas) > 0 {
			fmt.Fprintln(r.out)
			fmt.Fprintf(r.out, "%-38s %-12s %-12s %12s\n", "CONCILIACAO", "ITEM", "LANCAMENTO", "DIFERENCA")
			fmt.Fprintln(r.out, strings.Repeat("-", 78))
			for _, c := range resultado.Vinculadas {
				fmt.Fprintf(r.out, "%-38s %-12s %-12s %12s\n",
					c.ID, c.ExtratoItemID, c.LancamentoID, c.Diferenca.String())
			}
		}
		if len(resultado.Ignoradas) > 0 {
			fmt.Fprintln(r.out)
			fmt.Fprintf(r.out, "%-12s %s\n", "ITEM", "MOTIVO")
			fmt.Fprintln(r.out, strings.Repeat("-", 40))
			for _, ig := range resultado.Ignoradas {
				fmt.Fprintf(r.out, "%-12s %s\n", ig.ExtratoItemID, ig.Motivo)
			}
		}
		return nil
	}
}

// Stats renders reconciliation statistics.
func (r *Reporter) Stats(stats *models.ConciliacaoStats) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(stats)
	case FormatCSV:
		records := [][]string{
			{"conciliados", "pendentes", "divergentes", "total", "taxa_conciliacao",
				"valor_extrato", "valor_lancamentos", "diferenca_valores"},
			{
				strconv.Itoa(stats.Conciliados), strconv.Itoa(stats.Pendentes),
				strconv.Itoa(stats.Divergentes), strconv.Itoa(stats.Total),
				fmt.Sprintf("%.4f", stats.TaxaConciliacao),
				stats.ValorExtrato.String(), stats.ValorLancamentos.String(),
				stats.DiferencaValores.String(),
			},
		}
		return csv.NewWriter(r.out).WriteAll(records)
	default:
		fmt.Fprintln(r.out, "=== Estatísticas de Conciliação ===")
		fmt.Fprintf(r.out, "Conciliados:        %d\n", stats.Conciliados)
		fmt.Fprintf(r.out, "Pendentes:          %d\n", stats.Pendentes)
		fmt.Fprintf(r.out, "Divergentes:        %d\n", stats.Divergentes)
		fmt.Fprintf(r.out, "Total:              %d\n", stats.Total)
		fmt.Fprintf(r.out, "Taxa:               %.1f%%\n", stats.TaxaConciliacao*100)
		fmt.Fprintf(r.out, "Valor extrato:      %s\n", stats.ValorExtrato.StringFixed(2))
		fmt.Fprintf(r.out, "Valor lançamentos:  %s\n", stats.ValorLancamentos.StringFixed(2))
		fmt.Fprintf(r.out, "Diferença:          %s\n", stats.DiferencaValores.StringFixed(2))
		return nil
	}
}

// Fechamento renders a daily closing summary.
func (r *Reporter) Fechamento(f *models.FechamentoDiario) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(f)
	case FormatCSV:
		records := [][]string{
			{"data", "conciliados", "pendentes", "divergentes", "total",
				"valor_conciliado", "valor_pendente", "valor_divergente",
				"diferenca_total", "percentual_conciliado"},
			{
				f.Data.Format("2006-01-02"),
				strconv.Itoa(f.Conciliados), strconv.Itoa(f.Pendentes),
				strconv.Itoa(f.Divergentes), strconv.Itoa(f.Total),
				f.ValorConciliado.String(), f.ValorPendente.String(),
				f.ValorDivergente.String(), f.DiferencaTotal.String(),
				fmt.Sprintf("%.2f", f.PercentualConciliado),
			},
		}
		return csv.NewWriter(r.out).WriteAll(records)
	default:
		fmt.Fprintf(r.out, "=== Fechamento Diário %s ===\n", f.Data.Format("2006-01-02"))
		fmt.Fprintf(r.out, "Conciliados:        %d (%s)\n", f.Conciliados, f.ValorConciliado.StringFixed(2))
		fmt.Fprintf(r.out, "Pendentes:          %d (%s)\n", f.Pendentes, f.ValorPendente.StringFixed(2))
		fmt.Fprintf(r.out, "Divergentes:        %d (%s)\n", f.Divergentes, f.ValorDivergente.StringFixed(2))
		fmt.Fprintf(r.out, "Total:              %d\n", f.Total)
		fmt.Fprintf(r.out, "Diferença total:    %s\n", f.DiferencaTotal.StringFixed(2))
		fmt.Fprintf(r.out, "Percentual:         %.1f%%\n", f.PercentualConciliado)
		return nil
	}
}

// Sugestoes renders a suggestion batch.
func (r *Reporter) Sugestoes(lote []*service.SugestoesItem) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(lote)
	case FormatCSV:
		records := [][]string{{"extrato_item_id", "lancamento_id", "score", "motivos"}}
		for _, entry := range lote {
			for _, s := range entry.Sugestoes {
				records = append(records, []string{
					entry.ExtratoItem.ID, s.Lancamento.ID,
					fmt.Sprintf("%.1f", s.Score), strings.Join(s.Motivos, "; "),
				})
			}
		}
		return csv.NewWriter(r.out).WriteAll(records)
	default:
		for _, entry := range lote {
			item := entry.ExtratoItem
			fmt.Fprintf(r.out, "%s  %s  %s  %s\n",
				item.ID, item.Data.Format("2006-01-02"), item.Valor.StringFixed(2), item.Descricao)
			if len(entry.Sugestoes) == 0 {
				fmt.Fprintln(r.out, "  (sem sugestões)")
				continue
			}
			for _, s := range entry.Sugestoes {
				fmt.Fprintf(r.out, "  %5.1f  %-12s %s\n", s.Score, s.Lancamento.ID,
					strings.Join(s.Motivos, ", "))
			}
		}
		return nil
	}
}

func (r *Reporter) renderJSON(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
