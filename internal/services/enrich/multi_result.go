package enrich

import (
	"encoding/json"
	"io"

	"github.com/tbckr/nsolver/internal/output"
	"github.com/tbckr/nsolver/internal/services"
)

// MultiResult holds the records of a batch in input order.
type MultiResult struct {
	services.MultiResultBase[Record, *Record]

	// IPv6Owners adds the IPv6 Owner column.
	IPv6Owners bool `json:"-"`
	// Defang rewrites domains and addresses on output.
	Defang bool `json:"-"`
}

func (m *MultiResult) records() []*Record {
	if !m.Defang {
		return m.Results
	}
	out := make([]*Record, len(m.Results))
	for i, r := range m.Results {
		out[i] = r.Defanged()
	}
	return out
}

// Header returns the column names for the configured output.
func (m *MultiResult) Header() []string {
	header := append([]string(nil), Header...)
	if m.IPv6Owners {
		header = append(header, IPv6OwnerColumn)
	}
	return header
}

// Rows returns one row per record, in order.
func (m *MultiResult) Rows() [][]string {
	records := m.records()
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row(m.IPv6Owners)
	}
	return rows
}

// Canceled counts the records that were not enriched.
func (m *MultiResult) Canceled() int {
	n := 0
	for _, r := range m.Results {
		if r.Canceled {
			n++
		}
	}
	return n
}

// WriteCSV writes the header and one row per record.
func (m *MultiResult) WriteCSV(w io.Writer) error {
	return output.WriteCSV(w, m.Header(), m.Rows())
}

// WriteTable renders all records in a single terminal table.
func (m *MultiResult) WriteTable(w io.Writer) error {
	table := output.NewWrappingTable(w, 16, 40)
	table.Header(m.Header())
	if err := table.Bulk(m.Rows()); err != nil {
		return err
	}
	return table.Render()
}

// WriteText writes one " | "-separated line per record.
func (m *MultiResult) WriteText(w io.Writer) error {
	for _, r := range m.records() {
		if err := r.writeLine(w, m.IPv6Owners); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON serializes the records as a JSON array.
func (m *MultiResult) MarshalJSON() ([]byte, error) {
	records := m.records()
	if records == nil {
		records = []*Record{}
	}
	return json.Marshal(records)
}
