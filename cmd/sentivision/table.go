package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/okian/sentivision/internal/domain/scoring"
)

// column describes one table column. A zero maxWidth leaves the column
// unbounded; wider cells are trimmed to it.
type column struct {
	title    string
	align    text.Align
	maxWidth int
}

// renderTable draws rows under cols in the rounded style. Cells may hold
// any value go-pretty can print; missing trailing cells render blank.
func renderTable(cols []column, rows []table.Row) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            c.align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         c.maxWidth,
			WidthMaxEnforcer: text.Trim,
		}
	}
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiGray   = "\033[90m"
)

func colorCode(c scoring.Color) string {
	switch c {
	case scoring.ColorGreen:
		return ansiGreen
	case scoring.ColorYellow:
		return ansiYellow
	case scoring.ColorRed:
		return ansiRed
	default:
		return ansiGray
	}
}

// paint wraps s in the terminal color of c when colorize is set.
func paint(s string, c scoring.Color, colorize bool) string {
	if !colorize {
		return s
	}
	return colorCode(c) + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
