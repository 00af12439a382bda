package dns

import (
	"fmt"
	"io"

	"github.com/tbckr/nsolver/internal/output"
)

// Result holds the address resolution results for a single domain.
type Result struct {
	Input string   `json:"input"`
	A     []string `json:"a,omitempty"`
	AAAA  []string `json:"aaaa,omitempty"`
	CNAME []string `json:"cname,omitempty"`
}

func (r *Result) set(rtype RecordType, values []string) {
	switch rtype {
	case TypeA:
		r.A = values
	case TypeAAAA:
		r.AAAA = values
	case TypeCNAME:
		r.CNAME = values
	}
}

// IsEmpty reports whether the result contains no DNS records.
func (r *Result) IsEmpty() bool {
	return len(r.A) == 0 && len(r.AAAA) == 0 && len(r.CNAME) == 0
}

// Defanged returns a copy with the domain, CNAME targets and addresses
// defanged.
func (r *Result) Defanged() *Result {
	return &Result{
		Input: output.DefangDomain(r.Input),
		A:     output.DefangList(r.A, output.DefangIP),
		AAAA:  output.DefangList(r.AAAA, output.DefangIP),
		CNAME: output.DefangList(r.CNAME, output.DefangDomain),
	}
}

// rows returns one [type, value] pair per record.
func (r *Result) rows() [][]string {
	var rows [][]string
	for _, v := range r.CNAME {
		rows = append(rows, []string{"CNAME", v})
	}
	for _, v := range r.A {
		rows = append(rows, []string{"A", v})
	}
	for _, v := range r.AAAA {
		rows = append(rows, []string{"AAAA", v})
	}
	return rows
}

// WriteText renders the result as "domain TYPE value" lines.
func (r *Result) WriteText(w io.Writer) error {
	for _, row := range r.rows() {
		if _, err := fmt.Fprintf(w, "%s %s %s\n", r.Input, row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable renders the result as an ASCII table grouped by record type.
func (r *Result) WriteTable(w io.Writer) error {
	table := output.NewGroupedWrappingTable(w, 20, 20)
	table.Header([]string{"Type", "Value"})
	if err := table.Bulk(r.rows()); err != nil {
		return err
	}
	return table.Render()
}
