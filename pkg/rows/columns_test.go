package rows_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/navikt/nada-seatable/pkg/rows"
	"github.com/navikt/nada-seatable/pkg/seatable"
)

var people = seatable.Table{
	ID:   "0000",
	Name: "People",
	Columns: []seatable.Column{
		{Key: "0000", Name: "Title", Type: "text"},
		{Key: "aB3x", Name: "Surname", Type: "text"},
		{Key: "Zq9k", Name: "Created", Type: "ctime"},
	},
}

func TestColumnNamesToArray(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "simple list",
			input:  "Title,Surname",
			expect: []string{"Title", "Surname"},
		},
		{
			name:   "escaped comma",
			input:  `A\,B,C`,
			expect: []string{"A,B", "C"},
		},
		{
			name:   "reserved names are dropped",
			input:  "_id,Title",
			expect: []string{"Title"},
		},
		{
			name:   "duplicates keep the first occurrence",
			input:  "Surname,Title,Surname",
			expect: []string{"Surname", "Title"},
		},
		{
			name:   "empty string",
			input:  "",
			expect: []string{},
		},
		{
			name:   "whitespace and empty entries",
			input:  "  Title , , Surname ,",
			expect: []string{"Title", "Surname"},
		},
		{
			name:   "escaped backslash and other characters",
			input:  `A\\B,\Cool`,
			expect: []string{`A\B`, "Cool"},
		},
		{
			name:   "escaped whitespace is kept",
			input:  `Name\ , x`,
			expect: []string{"Name ", "x"},
		},
		{
			name:   "all reserved",
			input:  "_ctime,_mtime,_seq",
			expect: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := rows.ColumnNamesToArray(tc.input)
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectColumns(t *testing.T) {
	table := seatable.Table{
		Name: "People",
		Columns: []seatable.Column{
			{Key: "0000", Name: "Title", Type: "text"},
			{Key: "aB3x", Name: "Surname", Type: "text"},
		},
	}

	testCases := []struct {
		name      string
		requested []string
		expect    []string
	}{
		{
			name:      "unknown names are dropped and the primary column is prepended",
			requested: []string{"Surname", "Ghost"},
			expect:    []string{"Title", "Surname"},
		},
		{
			name:      "nothing requested",
			requested: []string{},
			expect:    []string{"Title"},
		},
		{
			name:      "primary column requested again",
			requested: []string{"Surname", "Title"},
			expect:    []string{"Title", "Surname"},
		},
		{
			name:      "glob",
			requested: []string{rows.Glob},
			expect:    []string{"Title", "Surname"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := rows.SelectColumns(table, tc.requested)
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColumnNamesGlob(t *testing.T) {
	got := rows.ColumnNamesGlob([]string{"Ghost", rows.Glob, "Title"}, people.Columns)

	if diff := cmp.Diff([]string{"Ghost", "Title", "Surname", "Created"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRowForWrite(t *testing.T) {
	item := map[string]any{
		"Title":   "Dr",
		"Surname": "Who",
		"Created": "2024-01-01T00:00:00.000+00:00",
		"Other":   true,
	}

	got := rows.RowForWrite(item, people, []string{"Surname"})

	if diff := cmp.Diff(seatable.Row{"Title": "Dr"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
