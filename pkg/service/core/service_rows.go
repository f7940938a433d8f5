package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/navikt/nada-seatable/pkg/errs"
	"github.com/navikt/nada-seatable/pkg/rows"
	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/service"
)

const defaultLimit = 50

var _ service.RowService = &rowService{}

type rowService struct {
	client *seatable.Client
	errs   *prometheus.CounterVec
	log    zerolog.Logger
}

type rowOperation func(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error)

func (s *rowService) operations() map[string]rowOperation {
	return map[string]rowOperation{
		service.OperationCreate:   s.create,
		service.OperationAppend:   s.append,
		service.OperationGet:      s.get,
		service.OperationGetAll:   s.getAll,
		service.OperationList:     s.list,
		service.OperationUpdate:   s.update,
		service.OperationDelete:   s.delete,
		service.OperationMetadata: s.metadata,
		service.OperationSearch:   s.search,
		service.OperationLock:     s.lock(seatable.LockRowsEndpoint),
		service.OperationUnlock:   s.lock(seatable.UnlockRowsEndpoint),
	}
}

func (s *rowService) Execute(ctx context.Context, creds seatable.Credentials, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.Execute"

	operation := params.GetString(service.ParamOperation, "")

	fn, ok := s.operations()[operation]
	if !ok {
		s.errs.WithLabelValues("unknown_operation").Inc()
		return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamOperation), fmt.Errorf("unknown operation %q", operation))
	}

	session, err := s.client.NewSession(creds)
	if err != nil {
		s.errs.WithLabelValues(operation).Inc()
		return nil, errs.E(op, err)
	}

	out, err := fn(ctx, session, params, items)
	if err != nil {
		s.errs.WithLabelValues(operation).Inc()
		return nil, errs.E(op, err)
	}

	s.log.Debug().Fields(map[string]any{
		"operation": operation,
		"items":     len(items),
		"rows":      len(out),
	}).Msg("executed")

	return out, nil
}

func (s *rowService) create(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.create"

	table, inserted, err := s.insert(ctx, session, params, items)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return inTableOrder(rows.DeleteInternalColumnsFromRows(inserted), table), nil
}

func (s *rowService) append(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.append"

	table, inserted, err := s.insert(ctx, session, params, items)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return inTableOrder(inserted, table), nil
}

// insert appends one row per item, one request at a time. The first
// failing item aborts the rest.
func (s *rowService) insert(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.Table, seatable.Rows, error) {
	const op errs.Op = "rowService.insert"

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return table, nil, errs.E(op, err)
	}

	ignore := rows.ColumnNamesToArray(params.GetString(service.ParamInputsToIgnore, ""))

	out := seatable.Rows{}

	for i, item := range items {
		res, err := session.Request(ctx, seatable.Request{
			Method:   http.MethodPost,
			Endpoint: seatable.RowsEndpoint,
			Body: map[string]any{
				"table_name": table.Name,
				"row":        rows.RowForWrite(item, table, ignore),
			},
		})
		if err != nil {
			return table, nil, errs.E(op, errs.Parameter("items["+strconv.Itoa(i)+"]"), err)
		}

		row, err := seatable.RowFrom(res)
		if err != nil {
			return table, nil, errs.E(op, err)
		}

		out = append(out, rows.MapColumnsFromKeysToNames(row, table.Columns))
	}

	return table, out, nil
}

func (s *rowService) get(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.get"

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	ids, err := rowIDs(params, items)
	if err != nil {
		return nil, errs.E(op, err)
	}

	fetched := seatable.Rows{}

	for _, id := range ids {
		res, err := session.Request(ctx, seatable.Request{
			Method:   http.MethodGet,
			Endpoint: seatable.RowsEndpoint + url.PathEscape(id) + "/",
			Query: url.Values{
				"table_name": {table.Name},
				"convert":    {"true"},
			},
		})
		if err != nil {
			return nil, errs.E(op, errs.Parameter(service.ParamRowID), err)
		}

		row, err := seatable.RowFrom(res)
		if err != nil {
			return nil, errs.E(op, err)
		}

		fetched = append(fetched, row)
	}

	return shape(fetched, outputColumns(table, params), simple(params)), nil
}

func (s *rowService) getAll(ctx context.Context, session *seatable.Session, params service.ParameterSource, _ []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.getAll"

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	fetched, err := fetchRows(ctx, session, table, params, params.GetString(service.ParamViewName, ""))
	if err != nil {
		return nil, errs.E(op, err)
	}

	return shape(fetched, outputColumns(table, params), simple(params)), nil
}

// list returns the rows of a single view.
func (s *rowService) list(ctx context.Context, session *seatable.Session, params service.ParameterSource, _ []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.list"

	view := params.GetString(service.ParamViewName, "")
	if view == "" {
		return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamViewName), errs.Str("a view name is required"))
	}

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	fetched, err := fetchRows(ctx, session, table, params, view)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return shape(fetched, outputColumns(table, params), simple(params)), nil
}

func (s *rowService) update(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.update"

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	ignore := rows.ColumnNamesToArray(params.GetString(service.ParamInputsToIgnore, ""))
	fallback := params.GetString(service.ParamRowID, "")

	out := seatable.OrderedRows{}

	for i, item := range items {
		id, _ := item[seatable.ColumnID].(string)
		if id == "" {
			id = fallback
		}

		if id == "" {
			return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamRowID), fmt.Errorf("no row id for item %d", i))
		}

		res, err := session.Request(ctx, seatable.Request{
			Method:   http.MethodPut,
			Endpoint: seatable.RowsEndpoint,
			Body: map[string]any{
				"table_name": table.Name,
				"row_id":     id,
				"row":        rows.RowForWrite(item, table, ignore),
			},
		})
		if err != nil {
			return nil, errs.E(op, errs.Parameter("items["+strconv.Itoa(i)+"]"), err)
		}

		out = append(out, seatable.NewOrderedRow(withRowID(res, id), seatable.ColumnID))
	}

	return out, nil
}

func (s *rowService) delete(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.delete"

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	ids, err := rowIDs(params, items)
	if err != nil {
		return nil, errs.E(op, err)
	}

	out := seatable.OrderedRows{}

	for _, id := range ids {
		res, err := session.Request(ctx, seatable.Request{
			Method:   http.MethodDelete,
			Endpoint: seatable.RowsEndpoint,
			Body: map[string]any{
				"table_name": table.Name,
				"row_id":     id,
			},
		})
		if err != nil {
			return nil, errs.E(op, errs.Parameter(service.ParamRowID), err)
		}

		out = append(out, seatable.NewOrderedRow(withRowID(res, id), seatable.ColumnID))
	}

	return out, nil
}

func (s *rowService) metadata(ctx context.Context, session *seatable.Session, _ service.ParameterSource, _ []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.metadata"

	md, err := session.Metadata(ctx)
	if err != nil {
		return nil, errs.E(op, err)
	}

	out := seatable.OrderedRows{}

	for _, table := range md.Tables {
		names := make([]string, 0, len(table.Columns))
		for _, c := range table.Columns {
			names = append(names, c.Name)
		}

		out = append(out, seatable.NewOrderedRow(seatable.Row{
			"id":      table.ID,
			"name":    table.Name,
			"columns": names,
		}, "id", "name", "columns"))
	}

	return out, nil
}

func (s *rowService) search(ctx context.Context, session *seatable.Session, params service.ParameterSource, _ []service.Item) (seatable.OrderedRows, error) {
	const op errs.Op = "rowService.search"

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	column := params.GetString(service.ParamSearchColumn, "")
	if _, ok := table.ColumnByName(column); !ok {
		return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamSearchColumn), fmt.Errorf("column %q does not exist in table %q", column, table.Name))
	}

	term := params.GetString(service.ParamSearchTerm, "")
	wildcard := params.GetBool(service.ParamWildcard, false)

	all, err := session.RequestAll(ctx, rowsRequest(table, params.GetString(service.ParamViewName, ""), params), "rows")
	if err != nil {
		return nil, errs.E(op, err)
	}

	matched := seatable.Rows{}
	for _, row := range all {
		if matches(row[column], term, wildcard) {
			matched = append(matched, row)
		}
	}

	return shape(matched, outputColumns(table, params), simple(params)), nil
}

func (s *rowService) lock(endpoint string) rowOperation {
	return func(ctx context.Context, session *seatable.Session, params service.ParameterSource, items []service.Item) (seatable.OrderedRows, error) {
		const op errs.Op = "rowService.lock"

		table, err := tableFor(ctx, session, params)
		if err != nil {
			return nil, errs.E(op, err)
		}

		ids, err := rowIDs(params, items)
		if err != nil {
			return nil, errs.E(op, err)
		}

		res, err := session.Request(ctx, seatable.Request{
			Method:   http.MethodPut,
			Endpoint: endpoint,
			Body: map[string]any{
				"table_name": table.Name,
				"row_ids":    ids,
			},
		})
		if err != nil {
			return nil, errs.E(op, err)
		}

		row, err := seatable.RowFrom(res)
		if err != nil {
			return nil, errs.E(op, err)
		}

		row["row_ids"] = ids

		return seatable.OrderedRows{seatable.NewOrderedRow(row)}, nil
	}
}

func tableFor(ctx context.Context, session *seatable.Session, params service.ParameterSource) (seatable.Table, error) {
	const op errs.Op = "core.tableFor"

	name := params.GetString(service.ParamTableName, "")
	if name == "" {
		return seatable.Table{}, errs.E(errs.Validation, op, errs.Parameter(service.ParamTableName), errs.Str("a table name is required"))
	}

	table, err := session.Table(ctx, name)
	if err != nil {
		return seatable.Table{}, errs.E(op, err)
	}

	return table, nil
}

func rowsRequest(table seatable.Table, view string, params service.ParameterSource) seatable.Request {
	query := url.Values{
		"table_name": {table.Name},
	}

	if view != "" {
		query.Set("view_name", view)
	}

	if params.GetBool(service.ParamConvert, true) {
		query.Set("convert", "true")
	}

	return seatable.Request{
		Method:   http.MethodGet,
		Endpoint: seatable.RowsEndpoint,
		Query:    query,
	}
}

func fetchRows(ctx context.Context, session *seatable.Session, table seatable.Table, params service.ParameterSource, view string) (seatable.Rows, error) {
	const op errs.Op = "core.fetchRows"

	req := rowsRequest(table, view, params)

	if params.GetBool(service.ParamReturnAll, true) {
		all, err := session.RequestAll(ctx, req, "rows")
		if err != nil {
			return nil, errs.E(op, err)
		}

		return all, nil
	}

	limit, err := params.GetInt(service.ParamLimit, defaultLimit)
	if err != nil {
		return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamLimit), err)
	}

	if limit < 1 {
		return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamLimit), fmt.Errorf("limit must be positive, got %d", limit))
	}

	if limit > seatable.PageSize {
		all, err := session.RequestAll(ctx, req, "rows")
		if err != nil {
			return nil, errs.E(op, err)
		}

		if len(all) > limit {
			all = all[:limit]
		}

		return all, nil
	}

	req.Query.Set("start", "0")
	req.Query.Set("limit", strconv.Itoa(limit))

	res, err := session.Request(ctx, req)
	if err != nil {
		return nil, errs.E(op, err)
	}

	page, err := seatable.RowsFrom(res, "rows")
	if err != nil {
		return nil, errs.E(op, err)
	}

	return page, nil
}

// rowIDs takes the row id parameter when set, either a single id, a comma
// separated list or an array, and otherwise the _id of every input item.
func rowIDs(params service.ParameterSource, items []service.Item) ([]string, error) {
	const op errs.Op = "core.rowIDs"

	if ids := params.GetStrings(service.ParamRowID); len(ids) > 0 {
		return ids, nil
	}

	ids := []string{}
	for _, item := range items {
		if id, ok := item[seatable.ColumnID].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, errs.E(errs.Validation, op, errs.Parameter(service.ParamRowID), errs.Str("a row id is required"))
	}

	return ids, nil
}

func outputColumns(table seatable.Table, params service.ParameterSource) []string {
	return rows.SelectColumns(table, rows.ColumnNamesToArray(params.GetString(service.ParamColumns, rows.Glob)))
}

func simple(params service.ParameterSource) bool {
	return params.GetBool(service.ParamSimple, true)
}

// shape formats rows to the output columns. Unless simple, the reserved
// fields a row carries are kept after the columns; _seq is only used for
// ordering and never kept.
func shape(in seatable.Rows, columns []string, simple bool) seatable.OrderedRows {
	out := make(seatable.OrderedRows, 0, len(in))

	for _, row := range in {
		names := columns

		if !simple {
			names = append([]string{}, columns...)
			for _, name := range rows.InternalColumnsOf(row) {
				if name != seatable.ColumnSequence {
					names = append(names, name)
				}
			}
		}

		out = append(out, rows.FormatColumns(row, names))
	}

	return out
}

// inTableOrder orders inserted rows by the table's columns, followed by
// the reserved fields they still carry.
func inTableOrder(in seatable.Rows, table seatable.Table) seatable.OrderedRows {
	names := make([]string, 0, len(table.Columns)+len(seatable.InternalNames))
	for _, c := range table.Columns {
		names = append(names, c.Name)
	}

	names = append(names, seatable.InternalNames...)

	out := make(seatable.OrderedRows, 0, len(in))
	for _, row := range in {
		out = append(out, seatable.NewOrderedRow(row, names...))
	}

	return out
}

func withRowID(res any, id string) seatable.Row {
	row := seatable.Row{}
	if obj, ok := res.(map[string]any); ok {
		for k, v := range obj {
			row[k] = v
		}
	}

	row[seatable.ColumnID] = id

	return row
}

func matches(value any, term string, wildcard bool) bool {
	switch v := value.(type) {
	case nil:
		return term == ""
	case string:
		if wildcard {
			return strings.Contains(strings.ToLower(v), strings.ToLower(term))
		}

		return v == term
	case []any:
		for _, item := range v {
			if matches(item, term, wildcard) {
				return true
			}
		}

		return false
	default:
		return matches(fmt.Sprint(v), term, wildcard)
	}
}

func NewRowService(client *seatable.Client, errs *prometheus.CounterVec, log zerolog.Logger) *rowService {
	return &rowService{
		client: client,
		errs:   errs,
		log:    log,
	}
}
