package main

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fieldsync/internal/queue"
)

var titleCaser = cases.Title(language.English)

// typeLabel renders an upload type for humans: "result_photo_insert"
// becomes "Result Photo Insert".
func typeLabel(typ queue.Type) string {
	return titleCaser.String(strings.ReplaceAll(string(typ), "_", " "))
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// renderRows produces either a rounded table (terminals) or plain
// tab-separated lines (pipes), with the listed columns right-aligned.
func renderRows(headers []string, rows [][]string, rightAligned ...int) string {
	if !stdoutIsTerminal() {
		var sb strings.Builder
		sb.WriteString(strings.Join(headers, "\t"))
		sb.WriteByte('\n')
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	right := make(map[int]struct{}, len(rightAligned))
	for _, col := range rightAligned {
		right[col] = struct{}{}
	}
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if _, ok := right[i]; ok {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
