package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"

	"github.com/sqlvibe/upsertc/internal/QP"
	"github.com/sqlvibe/upsertc/pkg/sqlvibe"
)

// Output formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// Formatter writes row sets in one of the output formats.
type Formatter struct {
	w         io.Writer
	mode      string
	nullValue string
}

func NewFormatter(w io.Writer, mode string) *Formatter {
	return &Formatter{w: w, mode: mode, nullValue: "NULL"}
}

// Format writes rows under an optional title.
func (f *Formatter) Format(title string, rows *sqlvibe.Rows) error {
	if rows == nil || len(rows.Columns) == 0 {
		return nil
	}
	switch f.mode {
	case FormatYAML:
		return f.formatYAML(title, rows)
	case FormatJSON:
		return f.formatJSON(title, rows)
	default:
		return f.formatTable(title, rows)
	}
}

func (f *Formatter) formatTable(title string, rows *sqlvibe.Rows) error {
	if title != "" {
		fmt.Fprintf(f.w, "%s\n", title)
	}
	var table = tablewriter.NewWriter(f.w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(rows.Columns)

	for _, row := range rows.Data {
		var cells = make([]string, len(row))
		for i, v := range row {
			cells[i] = f.formatValue(v)
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

// formatYAML writes one document per row set: the title and a sequence of
// rows, each a mapping in column order.
func (f *Formatter) formatYAML(title string, rows *sqlvibe.Rows) error {
	var doc yaml.MapSlice
	if title != "" {
		doc = append(doc, yaml.MapItem{Key: "title", Value: title})
	}
	var out = make([]yaml.MapSlice, 0, len(rows.Data))
	for _, row := range rows.Data {
		var m = make(yaml.MapSlice, len(rows.Columns))
		for i, col := range rows.Columns {
			m[i] = yaml.MapItem{Key: col, Value: plainValue(row[i])}
		}
		out = append(out, m)
	}
	doc = append(doc, yaml.MapItem{Key: "rows", Value: out})

	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err = io.WriteString(f.w, "---\n"); err == nil {
		_, err = f.w.Write(b)
	}
	return err
}

// formatJSON writes one object per line.
func (f *Formatter) formatJSON(title string, rows *sqlvibe.Rows) error {
	var enc = json.NewEncoder(f.w)
	for _, row := range rows.Data {
		var m = make(map[string]interface{}, len(rows.Columns)+1)
		if title != "" {
			m["_source"] = title
		}
		for i, col := range rows.Columns {
			m[col] = plainValue(row[i])
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return f.nullValue
	case string:
		return v
	}
	return QP.FormatLiteral(v)
}

// plainValue renders blobs as X'..' literals; every other value encodes as
// is.
func plainValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return QP.FormatLiteral(b)
	}
	return v
}
