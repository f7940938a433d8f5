package seatable

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// OrderedRow is a row that keeps the order of its keys, also when it is
// written as JSON. Keys without a value are written as null.
type OrderedRow struct {
	Keys   []string
	Values Row
}

type OrderedRows []OrderedRow

// NewOrderedRow orders the keys of row: first the given keys that row
// holds, then the remaining keys alphabetically.
func NewOrderedRow(row Row, first ...string) OrderedRow {
	keys := make([]string, 0, len(row))
	seen := make(map[string]struct{}, len(row))

	for _, key := range first {
		if _, ok := row[key]; !ok {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	rest := []string{}
	for key := range row {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}

	sort.Strings(rest)

	return OrderedRow{
		Keys:   append(keys, rest...),
		Values: row,
	}
}

// Get returns the value stored under key.
func (r OrderedRow) Get(key string) any {
	return r.Values[key]
}

func (r OrderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(r.Values[key])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (r *OrderedRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return err
	}

	if d, ok := t.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a row object, got %v", t)
	}

	keys := []string{}
	values := Row{}

	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("expected a column name, got %v", t)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("column %s: %w", key, err)
		}

		if _, ok := values[key]; !ok {
			keys = append(keys, key)
		}

		values[key] = value
	}

	r.Keys = keys
	r.Values = values

	return nil
}

// Values drops the key order.
func (r OrderedRows) Values() Rows {
	out := make(Rows, 0, len(r))
	for _, row := range r {
		out = append(out, row.Values)
	}

	return out
}
