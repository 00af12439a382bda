package enrich

import (
	"fmt"
	"io"
	"strings"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/output"
)

// NA marks a field that is empty or whose probe failed.
const NA = "N/A"

const (
	listSep       = ","
	ownerSepSubst = ";"
)

// Header is the CSV header of the batch output.
var Header = []string{"Domain", "A Record", "AAAA Record", "CNAME Record", "IP Owner", "SSL CN"}

// IPv6OwnerColumn is appended to Header when IPv6 ownership is enabled.
const IPv6OwnerColumn = "IPv6 Owner"

// Failure is the diagnostic for one failed sub-probe.
type Failure struct {
	Probe  apperr.Probe `json:"probe"`
	Target string       `json:"target"`
	Kind   apperr.Kind  `json:"kind"`
	Error  string       `json:"error"`
}

// Record is the enrichment outcome for one domain. Owners is aligned with A
// and IPv6Owners with AAAA; failed owner lookups hold NA.
type Record struct {
	Domain     string    `json:"domain"`
	A          []string  `json:"a"`
	AAAA       []string  `json:"aaaa"`
	CNAME      []string  `json:"cname"`
	Owners     []string  `json:"owners"`
	IPv6Owners []string  `json:"ipv6_owners,omitempty"`
	CommonName string    `json:"common_name"`
	Failures   []Failure `json:"failures,omitempty"`
	Canceled   bool      `json:"canceled,omitempty"`
}

// canceledRecord is the wholesale-N/A record for a domain whose enrichment
// did not finish.
func canceledRecord(domain string) *Record {
	return &Record{Domain: domain, Canceled: true}
}

// IsEmpty reports whether no probe produced any data.
func (r *Record) IsEmpty() bool {
	return len(r.A) == 0 && len(r.AAAA) == 0 && len(r.CNAME) == 0 && r.CommonName == ""
}

// Row renders the record as output columns. A canceled record renders every
// column except Domain as NA. Escape sequences in the domain are stripped.
func (r *Record) Row(withIPv6Owners bool) []string {
	row := []string{output.StripANSI(r.Domain), NA, NA, NA, NA, NA}
	if withIPv6Owners {
		row = append(row, NA)
	}
	if r.Canceled {
		return row
	}
	row[1] = join(r.A)
	row[2] = join(r.AAAA)
	row[3] = join(r.CNAME)
	row[4] = joinOwners(r.Owners)
	if r.CommonName != "" {
		row[5] = r.CommonName
	}
	if withIPv6Owners {
		row[6] = joinOwners(r.IPv6Owners)
	}
	return row
}

// Defanged returns a copy with domains and addresses defanged.
func (r *Record) Defanged() *Record {
	c := *r
	c.Domain = output.DefangDomain(output.StripANSI(r.Domain))
	c.A = output.DefangList(r.A, output.DefangIP)
	c.AAAA = output.DefangList(r.AAAA, output.DefangIP)
	c.CNAME = output.DefangList(r.CNAME, output.DefangDomain)
	if r.CommonName != "" {
		c.CommonName = output.DefangDomain(r.CommonName)
	}
	return &c
}

// WriteText renders the record as a single " | "-separated line.
func (r *Record) WriteText(w io.Writer) error {
	return r.writeLine(w, r.IPv6Owners != nil)
}

func (r *Record) writeLine(w io.Writer, withIPv6Owners bool) error {
	_, err := fmt.Fprintln(w, strings.Join(r.Row(withIPv6Owners), " | "))
	return err
}

func join(values []string) string {
	if len(values) == 0 {
		return NA
	}
	return strings.Join(values, listSep)
}

// joinOwners joins owner names so that splitting on listSep yields one entry
// per address; a separator inside a name is replaced with ownerSepSubst.
func joinOwners(owners []string) string {
	safe := make([]string, len(owners))
	for i, o := range owners {
		safe[i] = strings.ReplaceAll(o, listSep, ownerSepSubst)
	}
	return join(safe)
}
