// Package rows shapes SeaTable rows for the nodes: it parses the free text
// column lists users type in, picks the output columns of a table, coerces
// values to plain JSON and orders rows for the polling trigger.
package rows

import (
	"strings"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

// Glob stands for all columns of a table in a column list.
const Glob = "*"

// Split splits a comma separated list. A backslash escapes the character
// following it, so `A\,B` is the single name "A,B". Names are trimmed and
// empty names are dropped.
func Split(subject string) []string {
	var (
		names   []string
		current strings.Builder
		escaped bool
		// trailing tracks the length of current without unescaped
		// trailing whitespace, escaped whitespace is kept.
		trailing int
	)

	flush := func() {
		name := current.String()[:trailing]
		if name != "" {
			names = append(names, name)
		}

		current.Reset()
		trailing = 0
	}

	for _, r := range subject {
		switch {
		case escaped:
			current.WriteRune(r)
			trailing = current.Len()
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			flush()
		default:
			if current.Len() == 0 && isSpace(r) {
				continue
			}

			current.WriteRune(r)
			if !isSpace(r) {
				trailing = current.Len()
			}
		}
	}

	if escaped {
		current.WriteRune('\\')
		trailing = current.Len()
	}

	flush()

	return names
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// ColumnNamesToArray parses a user supplied column list into unique column
// names, in the order given. Reserved row fields are dropped.
func ColumnNamesToArray(columnNames string) []string {
	if columnNames == "" {
		return []string{}
	}

	names := []string{}
	for _, name := range Split(columnNames) {
		if seatable.IsInternal(name) {
			continue
		}

		names = appendUnique(names, name)
	}

	return names
}

// ColumnNamesGlob replaces every Glob in names with the names of all
// columns of the table.
func ColumnNamesGlob(names []string, columns []seatable.Column) []string {
	out := []string{}

	for _, name := range names {
		if name != Glob {
			out = appendUnique(out, name)
			continue
		}

		for _, c := range columns {
			if seatable.IsInternal(c.Name) {
				continue
			}

			out = appendUnique(out, c.Name)
		}
	}

	return out
}

// SelectColumns returns the output columns for a table: the primary column
// first, then the requested names that exist in the table. Unknown names
// are dropped.
func SelectColumns(table seatable.Table, requested []string) []string {
	selected := []string{}

	if primary, ok := table.Primary(); ok {
		selected = append(selected, primary.Name)
	}

	for _, name := range ColumnNamesGlob(requested, table.Columns) {
		if _, ok := table.ColumnByName(name); !ok {
			continue
		}

		selected = appendUnique(selected, name)
	}

	return selected
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}

	return append(names, name)
}
