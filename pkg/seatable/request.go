package seatable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/navikt/nada-seatable/pkg/errs"
)

// PageSize is the number of rows requested per page when draining a row
// collection.
const PageSize = 1000

// APIError is attached to every failed call to SeaTable.
type APIError struct {
	Method     string
	URI        string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URI, e.Err)
	}

	return fmt.Sprintf("%s %s: non 2xx status code, got: %d: %s", e.Method, e.URI, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Request describes a single call to SeaTable. Endpoint may contain the
// variables understood by ExpandEndpoint; URI, when set, is used verbatim
// instead.
type Request struct {
	Method   string
	Endpoint string
	Body     any
	Query    url.Values
	URI      string
	Header   http.Header
}

// Session is the invocation scoped view of a base. It replaces its Context
// whenever a staging step fills in something new, so the access token and
// metadata are fetched at most once per session.
type Session struct {
	client *Client
	c      Context
}

func (s *Session) Context() Context {
	return s.c
}

// Metadata stages and returns the base metadata.
func (s *Session) Metadata(ctx context.Context) (Metadata, error) {
	const op errs.Op = "seatable.Session.Metadata"

	c, err := s.client.StageMetadata(ctx, s.c)
	if err != nil {
		return Metadata{}, errs.E(op, err)
	}

	s.c = c

	md, _ := c.Metadata()

	return md, nil
}

// Table returns the metadata of the named table.
func (s *Session) Table(ctx context.Context, name string) (Table, error) {
	const op errs.Op = "seatable.Session.Table"

	md, err := s.Metadata(ctx)
	if err != nil {
		return Table{}, errs.E(op, err)
	}

	table, ok := md.Table(name)
	if !ok {
		return Table{}, errs.E(errs.Validation, op, errs.Parameter("table_name"), fmt.Errorf("table %q does not exist in base", name))
	}

	return table, nil
}

// Request performs a single authenticated call and returns the decoded
// JSON response. It stages the app access token but not the metadata.
func (s *Session) Request(ctx context.Context, r Request) (any, error) {
	const op errs.Op = "seatable.Session.Request"

	c, err := s.client.StageBase(ctx, s.c)
	if err != nil {
		return nil, errs.E(op, err)
	}

	s.c = c

	uri := r.URI
	if uri == "" {
		uri = ExpandEndpoint(c, r.Endpoint)
	}

	if len(r.Query) > 0 {
		uri, err = withQuery(uri, r.Query)
		if err != nil {
			return nil, errs.E(errs.IO, op, &APIError{Method: r.Method, URI: uri, Err: err})
		}
	}

	raw, err := s.client.call(ctx, r.Method, uri, c.base.AccessToken, r.Body, r.Header)
	if err != nil {
		return nil, errs.E(op, err)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var v any

	err = json.Unmarshal(raw, &v)
	if err != nil {
		return nil, errs.E(errs.IO, op, errs.Parameter("response_body"), err)
	}

	return v, nil
}

// RequestAll drains a row collection page by page. The property names the
// array holding the rows in each page, usually "rows".
//
// Paging stops at the first page holding fewer than PageSize-1 rows. A
// server that always returns full pages is paged forever.
func (s *Session) RequestAll(ctx context.Context, r Request, property string) (Rows, error) {
	const op errs.Op = "seatable.Session.RequestAll"

	var all Rows

	for start := 0; ; start += PageSize {
		page := r
		page.Query = cloneQuery(r.Query)
		page.Query.Set("start", strconv.Itoa(start))
		page.Query.Set("limit", strconv.Itoa(PageSize))

		res, err := s.Request(ctx, page)
		if err != nil {
			return nil, errs.E(op, err)
		}

		rows, err := RowsFrom(res, property)
		if err != nil {
			return nil, errs.E(op, err)
		}

		all = append(all, rows...)

		if !(len(rows) > PageSize-1) {
			break
		}
	}

	return all, nil
}

// RowsFrom extracts the array of rows stored under property in a decoded
// response. A missing property yields no rows.
func RowsFrom(res any, property string) (Rows, error) {
	const op errs.Op = "seatable.RowsFrom"

	obj, ok := res.(map[string]any)
	if !ok {
		return nil, errs.E(errs.Validation, op, errs.Parameter("response_body"), fmt.Errorf("expected an object, got %T", res))
	}

	raw, ok := obj[property]
	if !ok || raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, errs.E(errs.Validation, op, errs.Parameter(property), fmt.Errorf("expected an array, got %T", raw))
	}

	rows := make(Rows, 0, len(items))
	for _, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, errs.E(errs.Validation, op, errs.Parameter(property), fmt.Errorf("expected row objects, got %T", item))
		}

		rows = append(rows, Row(row))
	}

	return rows, nil
}

// RowFrom converts a decoded object response into a Row.
func RowFrom(res any) (Row, error) {
	const op errs.Op = "seatable.RowFrom"

	obj, ok := res.(map[string]any)
	if !ok {
		return nil, errs.E(errs.Validation, op, errs.Parameter("response_body"), fmt.Errorf("expected an object, got %T", res))
	}

	return Row(obj), nil
}

func withQuery(uri string, query url.Values) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return uri, err
	}

	q := u.Query()
	for key, values := range query {
		q.Del(key)

		for _, value := range values {
			q.Add(key, value)
		}
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}

func cloneQuery(q url.Values) url.Values {
	clone := url.Values{}
	for key, values := range q {
		clone[key] = append([]string(nil), values...)
	}

	return clone
}
