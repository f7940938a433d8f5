package rows

import (
	"github.com/navikt/nada-seatable/pkg/seatable"
)

// Column types SeaTable computes itself; values sent for them are ignored
// or rejected by the server.
var readOnlyColumnTypes = map[string]bool{
	"creator":       true,
	"ctime":         true,
	"last-modifier": true,
	"mtime":         true,
	"auto-number":   true,
	"formula":       true,
	"link-formula":  true,
	"button":        true,
}

// UpdatableColumns returns the columns of the table that accept values.
func UpdatableColumns(table seatable.Table) []seatable.Column {
	out := []seatable.Column{}
	for _, c := range table.Columns {
		if readOnlyColumnTypes[c.Type] || seatable.IsInternal(c.Name) {
			continue
		}

		out = append(out, c)
	}

	return out
}

// RowForWrite picks the values of item that can be written to the table,
// keyed by column name. Names in ignore are skipped.
func RowForWrite(item map[string]any, table seatable.Table, ignore []string) seatable.Row {
	skip := map[string]bool{}
	for _, name := range ignore {
		skip[name] = true
	}

	row := seatable.Row{}
	for _, c := range UpdatableColumns(table) {
		if skip[c.Name] {
			continue
		}

		if value, ok := item[c.Name]; ok {
			row[c.Name] = value
		}
	}

	return row
}
