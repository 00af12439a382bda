package dns

import (
	"io"

	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/services"
)

// MultiResult holds DNS lookup results for multiple inputs.
type MultiResult struct {
	services.MultiResultBase[Result, *Result]
}

// Defanged returns a copy with every result defanged.
func (m *MultiResult) Defanged() *MultiResult {
	out := &MultiResult{}
	for _, r := range m.Results {
		out.Results = append(out.Results, r.Defanged())
	}
	return out
}

func (m *MultiResult) rows() [][]string {
	var rows [][]string
	for _, r := range m.Results {
		for _, row := range r.rows() {
			rows = append(rows, append([]string{r.Input}, row...))
		}
	}
	return rows
}

// WriteCSV writes one "Domain,Type,Value" row per record.
func (m *MultiResult) WriteCSV(w io.Writer) error {
	return output.WriteCSV(w, []string{"Domain", "Type", "Value"}, m.rows())
}

// WriteTable renders all results in a single table grouped by domain.
func (m *MultiResult) WriteTable(w io.Writer) error {
	rows := m.rows()
	table := output.NewGroupedWrappingTable(w, 20, 30)
	table.Header([]string{"Domain", "Type", "Value"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
