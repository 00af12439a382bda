package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

const defaultTermWidth = 80

type fder interface{ Fd() uintptr }

// IsTerminal reports whether v is a file descriptor attached to a terminal.
// Readers and writers without a descriptor, such as buffers, are not.
func IsTerminal(v any) bool {
	f, ok := v.(fder)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// TerminalWidth returns the width of the terminal behind w, or
// defaultTermWidth when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	if f, ok := w.(fder); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 { //nolint:gosec // file descriptors fit in int
			return width
		}
	}
	return defaultTermWidth
}

// rowConfig caps every column at the terminal width minus overhead, never
// below minWidth, and wraps longer cells.
func rowConfig(w io.Writer, minWidth, overhead int, merge int) tablewriter.Config {
	return tablewriter.Config{
		Row: tw.CellConfig{
			Formatting:   tw.CellFormatting{MergeMode: merge, AutoWrap: tw.WrapNormal},
			ColMaxWidths: tw.CellWidth{Global: max(minWidth, TerminalWidth(w)-overhead)},
		},
	}
}

// NewGroupedWrappingTable returns a wrapping table that merges repeated
// values in the first column and draws a line between groups. The DNS
// lookup output groups record values under their type this way.
func NewGroupedWrappingTable(w io.Writer, minWidth, overhead int) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(rowConfig(w, minWidth, overhead, tw.MergeHierarchical)),
	)
}

// NewWrappingTable returns a table whose cells wrap to fit the terminal.
// overhead is the width consumed by borders, padding and fixed columns.
func NewWrappingTable(w io.Writer, minWidth, overhead int) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(rowConfig(w, minWidth, overhead, tw.MergeNone)),
	)
}
