package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/seqforge/internal/config"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted formats.
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}

// ErrUnknownFormat is returned by Render for an unsupported Format.
var ErrUnknownFormat = errors.New("unknown output format")

// Row is one variable in the report.
type Row struct {
	Variable string `json:"variable" yaml:"variable"`
	Value    string `json:"value" yaml:"value"`
}

// Collect returns every variable of environ (KEY=VALUE entries) named
// <prefix>_..., sorted by name.
func Collect(environ []string, prefix string) []Row {
	vars := config.Prefixed(environ, prefix)
	rows := make([]Row, 0, len(vars))
	for name, value := range vars {
		rows = append(rows, Row{Variable: name, Value: value})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Variable < rows[j].Variable })
	return rows
}

// FromSnapshot returns the resolved variables of snap, sorted by name.
func FromSnapshot(snap *config.Snapshot) []Row {
	vars := snap.Vars()
	rows := make([]Row, 0, len(vars))
	for _, v := range vars {
		rows = append(rows, Row{Variable: v.Name, Value: v.Value})
	}
	return rows
}

// Table renders rows as a left-aligned two-column text table.
func Table(rows []Row) string {
	tw := table.NewWriter()

	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	tw.AppendHeader(table.Row{"Variable", "Value"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.Variable, r.Value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// Render writes rows to w in the requested format.
func Render(w io.Writer, rows []Row, format Format) error {
	switch format {
	case FormatTable, "":
		_, err := fmt.Fprintln(w, Table(rows))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
