package rows

import (
	"github.com/goccy/go-json"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

// FormatColumn coerces a value to null, a boolean, a number, a string or an
// array of strings. Anything else, objects and mixed arrays included,
// becomes null.
func FormatColumn(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case bool, string,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return v
	case []string:
		return v
	case []any:
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return nil
			}
		}

		return v
	default:
		return nil
	}
}

// FormatColumns returns a row holding exactly the given columns, in order,
// with every value passed through FormatColumn. Missing columns are null.
func FormatColumns(row seatable.Row, columnNames []string) seatable.OrderedRow {
	out := seatable.OrderedRow{
		Keys:   make([]string, 0, len(columnNames)),
		Values: make(seatable.Row, len(columnNames)),
	}

	for _, name := range columnNames {
		if _, ok := out.Values[name]; ok {
			continue
		}

		out.Keys = append(out.Keys, name)
		out.Values[name] = FormatColumn(row[name])
	}

	return out
}

// FormatRows applies FormatColumns to every row.
func FormatRows(rows seatable.Rows, columnNames []string) seatable.OrderedRows {
	out := make(seatable.OrderedRows, 0, len(rows))
	for _, row := range rows {
		out = append(out, FormatColumns(row, columnNames))
	}

	return out
}

// MapColumnsFromKeysToNames translates a row keyed by column keys, as
// returned when a row is inserted, into a row keyed by column names.
// Reserved row fields are copied as they are; keys without a column are
// dropped.
func MapColumnsFromKeysToNames(row seatable.Row, columns []seatable.Column) seatable.Row {
	mapped := seatable.Row{}
	pending := make(seatable.Row, len(row))

	for key, value := range row {
		pending[key] = value
	}

	for _, name := range seatable.InternalNames {
		value, ok := pending[name]
		if !ok {
			continue
		}

		delete(pending, name)
		mapped[name] = value
	}

	for _, column := range columns {
		if value, ok := pending[column.Key]; ok {
			mapped[column.Name] = value
		}
	}

	return mapped
}

// DeleteInternalColumns removes the reserved row fields from row, in place.
func DeleteInternalColumns(row seatable.Row) seatable.Row {
	for _, name := range seatable.InternalNames {
		delete(row, name)
	}

	return row
}

// DeleteInternalColumnsFromRows removes the reserved row fields from every
// row, in place.
func DeleteInternalColumnsFromRows(rows seatable.Rows) seatable.Rows {
	for _, row := range rows {
		DeleteInternalColumns(row)
	}

	return rows
}

// InternalColumnsOf returns the reserved fields present in row, in their
// fixed order.
func InternalColumnsOf(row seatable.Row) []string {
	names := []string{}
	for _, name := range seatable.InternalNames {
		if _, ok := row[name]; ok {
			names = append(names, name)
		}
	}

	return names
}
