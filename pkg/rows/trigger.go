package rows

import (
	"sort"
	"time"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

// TimestampLayout is the layout of _ctime and _mtime, which sorts
// lexically in time order as long as the offset is the same.
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// Cursor formats t as a trigger cursor comparable with row timestamps.
func Cursor(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Sequence numbers the rows 1..n in their current order, so the order the
// server returned them in survives later sorting. Rows are left untouched
// when the first one already has a sequence number.
func Sequence(rows seatable.Rows) {
	if len(rows) == 0 {
		return
	}

	if _, ok := rows[0][seatable.ColumnSequence]; ok {
		return
	}

	for i, row := range rows {
		row[seatable.ColumnSequence] = i + 1
	}
}

// TimeFilter keeps the rows whose timestamp column is after start.
func TimeFilter(rows seatable.Rows, column, start string) seatable.Rows {
	out := seatable.Rows{}
	for _, row := range rows {
		if ts, ok := row[column].(string); ok && ts > start {
			out = append(out, row)
		}
	}

	return out
}

// TimeSort sorts rows in place by the timestamp column, oldest first, and
// by sequence number for equal timestamps.
func TimeSort(rows seatable.Rows, column string) seatable.Rows {
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i][column].(string)
		b, _ := rows[j][column].(string)

		if a == b {
			return sequenceOf(rows[i]) < sequenceOf(rows[j])
		}

		return a < b
	})

	return rows
}

func sequenceOf(row seatable.Row) float64 {
	switch v := row[seatable.ColumnSequence].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}
