// Package output renders probe results as CSV, JSON, terminal tables or plain text.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// Format is the output format requested by the user.
type Format string

// Output format constants supported by the --format flag.
const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatText  Format = "text"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatTable, FormatText}

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q: must be \"csv\", \"json\", \"table\", or \"text\"", s)
}

// CSVFormattable results know how to render themselves as CSV with a header row.
type CSVFormattable interface {
	WriteCSV(w io.Writer) error
}

// TableFormattable results know how to render themselves as an ASCII table.
type TableFormattable interface {
	WriteTable(w io.Writer) error
}

// TextFormattable results know how to render themselves as plain text (one record per line).
// Used for piping output to other tools.
type TextFormattable interface {
	WriteText(w io.Writer) error
}

// Write dispatches a result to the appropriate formatter.
// JSON uses json.Encoder with indentation; the other formats require the
// result to implement the matching interface.
func Write(w io.Writer, format Format, result any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatCSV:
		cf, ok := result.(CSVFormattable)
		if !ok {
			return fmt.Errorf("result type %T does not support csv output", result)
		}
		return cf.WriteCSV(w)
	case FormatTable:
		tf, ok := result.(TableFormattable)
		if !ok {
			return fmt.Errorf("result type %T does not support table output", result)
		}
		return tf.WriteTable(w)
	case FormatText:
		pf, ok := result.(TextFormattable)
		if !ok {
			return fmt.Errorf("result type %T does not support text output", result)
		}
		return pf.WriteText(w)
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

// WriteCSV writes header followed by rows and flushes. Fields containing the
// delimiter are quoted.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
