package core_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/nada-seatable/pkg/errs"
	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/service"
	"github.com/navikt/nada-seatable/pkg/service/core"
)

func people(n int) []seatable.Row {
	out := make([]seatable.Row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, seatable.Row{
			"Title":   fmt.Sprintf("person-%d", i),
			"Surname": fmt.Sprintf("surname-%d", i),
		})
	}

	return out
}

func TestRowService_Create(t *testing.T) {
	e := setup(t)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation":      "create",
		"tableName":      "People",
		"inputsToIgnore": "Surname",
	}, []service.Item{
		{"Title": "Ada", "Surname": "Lovelace", "Counter": 7, "Unknown": "x"},
		{"Title": "Grace"},
	})
	require.NoError(t, err)

	assert.Equal(t, seatable.Rows{
		{"Title": "Ada"},
		{"Title": "Grace"},
	}, got.Values())

	stored := e.em.Rows("People")
	require.Len(t, stored, 2)
	assert.Equal(t, "Ada", stored[0]["Title"])
	assert.NotContains(t, stored[0], "Surname")
	assert.NotContains(t, stored[0], "Counter")
}

func TestRowService_Append(t *testing.T) {
	e := setup(t)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "append",
		"tableName": "People",
	}, []service.Item{{"Title": "Ada", "Surname": "Lovelace"}})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Ada", got[0].Get("Title"))
	assert.Equal(t, "Lovelace", got[0].Get("Surname"))
	assert.Equal(t, e.em.Rows("People")[0]["_id"], got[0].Get("_id"))
	assert.Contains(t, got[0].Values, "_ctime")
	assert.Equal(t, []string{"Title", "Surname"}, got[0].Keys[:2])
	assert.Equal(t, "_id", got[0].Keys[2])
}

func TestRowService_Get(t *testing.T) {
	e := setup(t, people(3)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	id := e.em.Rows("People")[1]["_id"].(string)

	testCases := []struct {
		name   string
		params service.Parameters
		items  []service.Item
		expect seatable.OrderedRows
	}{
		{
			name:   "by row id parameter",
			params: service.Parameters{"operation": "get", "tableName": "People", "rowId": id},
			expect: seatable.OrderedRows{{
				Keys:   []string{"Title", "Surname", "Tags", "Counter"},
				Values: seatable.Row{"Title": "person-1", "Surname": "surname-1", "Tags": nil, "Counter": nil},
			}},
		},
		{
			name:   "by item id with selected columns",
			params: service.Parameters{"operation": "get", "tableName": "People", "columns": "Surname, Ghost"},
			items:  []service.Item{{"_id": id}},
			expect: seatable.OrderedRows{{
				Keys:   []string{"Title", "Surname"},
				Values: seatable.Row{"Title": "person-1", "Surname": "surname-1"},
			}},
		},
		{
			name:   "primary column first whatever the requested order",
			params: service.Parameters{"operation": "get", "tableName": "People", "columns": "Counter, Surname"},
			items:  []service.Item{{"_id": id}},
			expect: seatable.OrderedRows{{
				Keys:   []string{"Title", "Counter", "Surname"},
				Values: seatable.Row{"Title": "person-1", "Counter": nil, "Surname": "surname-1"},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Execute(context.Background(), e.creds, tc.params, tc.items)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestRowService_GetNotSimple(t *testing.T) {
	e := setup(t, people(1)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	stored := e.em.Rows("People")[0]

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "get",
		"tableName": "People",
		"rowId":     stored["_id"],
		"columns":   "Title",
		"simple":    false,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, seatable.OrderedRows{{
		Keys: []string{"Title", "_id", "_creator", "_ctime", "_last_modifier", "_mtime"},
		Values: seatable.Row{
			"Title":          "person-0",
			"_id":            stored["_id"],
			"_creator":       stored["_creator"],
			"_ctime":         stored["_ctime"],
			"_last_modifier": stored["_last_modifier"],
			"_mtime":         stored["_mtime"],
		},
	}}, got)
}

func TestRowService_GetAll(t *testing.T) {
	testCases := []struct {
		name         string
		rows         int
		params       service.Parameters
		expectRows   int
		expectLength int
		expectCalls  int
	}{
		{
			name:        "return all pages",
			rows:        2500,
			params:      service.Parameters{"operation": "getAll", "tableName": "People"},
			expectRows:  2500,
			expectCalls: 3,
		},
		{
			name:        "default limit",
			rows:        120,
			params:      service.Parameters{"operation": "getAll", "tableName": "People", "returnAll": false},
			expectRows:  50,
			expectCalls: 1,
		},
		{
			name:        "limit within a page",
			rows:        120,
			params:      service.Parameters{"operation": "getAll", "tableName": "People", "returnAll": false, "limit": 10},
			expectRows:  10,
			expectCalls: 1,
		},
		{
			name:        "limit spanning pages",
			rows:        1500,
			params:      service.Parameters{"operation": "getAll", "tableName": "People", "returnAll": false, "limit": 1200},
			expectRows:  1200,
			expectCalls: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := setup(t, people(tc.rows)...)
			s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

			got, err := s.Execute(context.Background(), e.creds, tc.params, nil)
			require.NoError(t, err)
			assert.Len(t, got, tc.expectRows)
			assert.Equal(t, tc.expectCalls, e.em.Requests(http.MethodGet+" "+e.em.RowsPath()))
			assert.Equal(t, "person-0", got[0].Get("Title"))
		})
	}
}

func TestRowService_List(t *testing.T) {
	e := setup(t, people(3)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	_, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "list",
		"tableName": "People",
	}, nil)
	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.Validation, err))

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "list",
		"tableName": "People",
		"viewName":  "Default View",
		"columns":   "Surname",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, seatable.Rows{
		{"Title": "person-0", "Surname": "surname-0"},
		{"Title": "person-1", "Surname": "surname-1"},
		{"Title": "person-2", "Surname": "surname-2"},
	}, got.Values())
}

func TestRowService_Update(t *testing.T) {
	e := setup(t, people(2)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	stored := e.em.Rows("People")

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "update",
		"tableName": "People",
	}, []service.Item{
		{"_id": stored[0]["_id"], "Surname": "changed-0"},
		{"_id": stored[1]["_id"], "Surname": "changed-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, seatable.Rows{
		{"success": true, "_id": stored[0]["_id"]},
		{"success": true, "_id": stored[1]["_id"]},
	}, got.Values())
	assert.Equal(t, []string{"_id", "success"}, got[0].Keys)

	after := e.em.Rows("People")
	assert.Equal(t, "changed-0", after[0]["Surname"])
	assert.Equal(t, "changed-1", after[1]["Surname"])
	assert.Equal(t, "person-0", after[0]["Title"])
}

func TestRowService_UpdateAbortsOnFailure(t *testing.T) {
	e := setup(t, people(2)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	stored := e.em.Rows("People")

	_, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "update",
		"tableName": "People",
	}, []service.Item{
		{"_id": "does-not-exist", "Surname": "changed-0"},
		{"_id": stored[1]["_id"], "Surname": "changed-1"},
	})
	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.IO, err))

	var apiErr *seatable.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	assert.Equal(t, "surname-1", e.em.Rows("People")[1]["Surname"])
	assert.Equal(t, 1.0, testutil.ToFloat64(e.errs.WithLabelValues("update")))
}

func TestRowService_Delete(t *testing.T) {
	e := setup(t, people(3)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	stored := e.em.Rows("People")

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "delete",
		"tableName": "People",
	}, []service.Item{{"_id": stored[0]["_id"]}, {"_id": stored[2]["_id"]}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	after := e.em.Rows("People")
	require.Len(t, after, 1)
	assert.Equal(t, "person-1", after[0]["Title"])
}

func TestRowService_Metadata(t *testing.T) {
	e := setup(t)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{"operation": "metadata"}, nil)
	require.NoError(t, err)

	assert.Equal(t, seatable.OrderedRows{{
		Keys: []string{"id", "name", "columns"},
		Values: seatable.Row{
			"id":      "0000",
			"name":    "People",
			"columns": []string{"Title", "Surname", "Tags", "Counter"},
		},
	}}, got)
}

func TestRowService_Search(t *testing.T) {
	e := setup(t,
		seatable.Row{"Title": "Ada", "Surname": "Lovelace", "Tags": []any{"math", "computing"}},
		seatable.Row{"Title": "Grace", "Surname": "Hopper", "Tags": []any{"navy", "computing"}},
		seatable.Row{"Title": "Alan", "Surname": "Turing", "Tags": []any{"math"}},
	)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	testCases := []struct {
		name   string
		params service.Parameters
		expect []string
	}{
		{
			name:   "exact",
			params: service.Parameters{"searchColumn": "Surname", "searchTerm": "Hopper"},
			expect: []string{"Grace"},
		},
		{
			name:   "exact is case sensitive",
			params: service.Parameters{"searchColumn": "Surname", "searchTerm": "hopper"},
			expect: []string{},
		},
		{
			name:   "wildcard",
			params: service.Parameters{"searchColumn": "Surname", "searchTerm": "ING", "wildcard": true},
			expect: []string{"Alan"},
		},
		{
			name:   "array column",
			params: service.Parameters{"searchColumn": "Tags", "searchTerm": "math"},
			expect: []string{"Ada", "Alan"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.params["operation"] = "search"
			tc.params["tableName"] = "People"

			got, err := s.Execute(context.Background(), e.creds, tc.params, nil)
			require.NoError(t, err)

			titles := []string{}
			for _, row := range got {
				titles = append(titles, row.Get("Title").(string))
			}

			assert.Equal(t, tc.expect, titles)
		})
	}
}

func TestRowService_LockAndUnlock(t *testing.T) {
	e := setup(t, people(2)...)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	id := e.em.Rows("People")[0]["_id"].(string)

	got, err := s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "lock",
		"tableName": "People",
		"rowId":     id,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, seatable.Rows{{"success": true, "row_ids": []string{id}}}, got.Values())
	assert.True(t, e.em.Locked("People", id))

	_, err = s.Execute(context.Background(), e.creds, service.Parameters{
		"operation": "unlock",
		"tableName": "People",
	}, []service.Item{{"_id": id}})
	require.NoError(t, err)
	assert.False(t, e.em.Locked("People", id))
}

func TestRowService_Errors(t *testing.T) {
	e := setup(t)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	testCases := []struct {
		name        string
		params      service.Parameters
		items       []service.Item
		expectKind  errs.Kind
		expectParam errs.Parameter
	}{
		{
			name:        "unknown operation",
			params:      service.Parameters{"operation": "truncate"},
			expectKind:  errs.Validation,
			expectParam: service.ParamOperation,
		},
		{
			name:        "unknown table",
			params:      service.Parameters{"operation": "getAll", "tableName": "Ghost"},
			expectKind:  errs.Validation,
			expectParam: "table_name",
		},
		{
			name:        "missing table",
			params:      service.Parameters{"operation": "getAll"},
			expectKind:  errs.Validation,
			expectParam: service.ParamTableName,
		},
		{
			name:        "missing row id",
			params:      service.Parameters{"operation": "delete", "tableName": "People"},
			items:       []service.Item{{"Title": "no id"}},
			expectKind:  errs.Validation,
			expectParam: service.ParamRowID,
		},
		{
			name:        "unknown search column",
			params:      service.Parameters{"operation": "search", "tableName": "People", "searchColumn": "Ghost"},
			expectKind:  errs.Validation,
			expectParam: service.ParamSearchColumn,
		},
		{
			name:        "bad limit",
			params:      service.Parameters{"operation": "getAll", "tableName": "People", "returnAll": false, "limit": 0},
			expectKind:  errs.Validation,
			expectParam: service.ParamLimit,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Execute(context.Background(), e.creds, tc.params, tc.items)
			require.Error(t, err)
			assert.True(t, errs.KindIs(tc.expectKind, err))
			assert.Equal(t, tc.expectParam, paramOf(err))
		})
	}
}

func TestRowService_Unauthenticated(t *testing.T) {
	e := setup(t)
	s := core.NewRowService(e.cl, e.errs, zerolog.Nop())

	creds := e.creds
	creds.APIToken = ""

	_, err := s.Execute(context.Background(), creds, service.Parameters{"operation": "metadata"}, nil)
	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.Unauthenticated, err))
}

func paramOf(err error) errs.Parameter {
	var e *errs.Error
	for errors.As(err, &e) {
		if e.Param != "" {
			return e.Param
		}

		err = e.Err
	}

	return ""
}
