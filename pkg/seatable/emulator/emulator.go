// Package emulator implements the parts of the SeaTable API used by the
// nodes, for tests and local development.
package emulator

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"

	"github.com/navikt/nada-seatable/pkg/seatable"
)

const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

type table struct {
	meta   seatable.Table
	rows   []seatable.Row
	locked map[string]bool
}

type Emulator struct {
	router *chi.Mux

	mu         sync.Mutex
	apiToken   string
	dtableUUID string
	dtableName string
	secret     []byte
	tables     []*table
	requests   map[string]int
	err        error
	now        func() time.Time

	log zerolog.Logger

	server *httptest.Server
}

func New(apiToken string, log zerolog.Logger) *Emulator {
	e := &Emulator{
		router:     chi.NewRouter(),
		apiToken:   apiToken,
		dtableUUID: uuid.New().String(),
		dtableName: "emulated-base",
		secret:     []byte(uuid.New().String()),
		requests:   map[string]int{},
		now:        time.Now,
		log:        log,
	}

	e.routes()

	return e
}

func (e *Emulator) routes() {
	e.router.Get(seatable.AppAccessTokenEndpoint, e.appAccessToken)

	e.router.Route("/dtable-server/api/v1/dtables/{uuid}", func(r chi.Router) {
		r.Use(e.requireAccessToken)
		r.Get("/metadata/", e.metadata)
		r.Get("/rows/", e.listRows)
		r.Post("/rows/", e.appendRow)
		r.Put("/rows/", e.updateRow)
		r.Delete("/rows/", e.deleteRow)
		r.Get("/rows/{rowID}/", e.getRow)
		r.Put("/lock-rows/", e.lockRows(true))
		r.Put("/unlock-rows/", e.lockRows(false))
	})

	e.router.NotFound(e.notFound)
}

func (e *Emulator) Run() string {
	e.log.Info().Msg("starting seatable emulator")

	e.server = httptest.NewServer(e)

	return e.server.URL
}

func (e *Emulator) Close() {
	if e.server != nil {
		e.server.Close()
	}
}

func (e *Emulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.requests[r.Method+" "+r.URL.Path]++
	e.mu.Unlock()

	e.router.ServeHTTP(w, r)
}

func (e *Emulator) DTableUUID() string {
	return e.dtableUUID
}

// Requests returns how many requests were made for "METHOD /path".
func (e *Emulator) Requests(methodAndPath string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.requests[methodAndPath]
}

// RowsPath returns the path of the rows endpoint of the emulated base.
func (e *Emulator) RowsPath() string {
	return fmt.Sprintf("/dtable-server/api/v1/dtables/%s/rows/", e.dtableUUID)
}

// SetError makes the next request fail with err.
func (e *Emulator) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.err = err
}

// SetClock replaces the clock used for _ctime and _mtime.
func (e *Emulator) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.now = now
}

// AddTable registers a table; rows may be given by column name.
func (e *Emulator) AddTable(meta seatable.Table, rows ...seatable.Row) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := &table{meta: meta, locked: map[string]bool{}}
	for _, row := range rows {
		t.rows = append(t.rows, e.newRow(row))
	}

	e.tables = append(e.tables, t)
}

// Rows returns a copy of the rows stored in the named table.
func (e *Emulator) Rows(tableName string) seatable.Rows {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.table(tableName)
	if t == nil {
		return nil
	}

	out := make(seatable.Rows, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, copyRow(row))
	}

	return out
}

// Locked reports whether a row has been locked.
func (e *Emulator) Locked(tableName, rowID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.table(tableName)

	return t != nil && t.locked[rowID]
}

func (e *Emulator) newRow(in seatable.Row) seatable.Row {
	row := copyRow(in)
	now := e.now().UTC().Format(TimestampLayout)

	if _, ok := row[seatable.ColumnID]; !ok {
		row[seatable.ColumnID] = shortuuid.New()
	}

	if _, ok := row[seatable.ColumnCreatedTime]; !ok {
		row[seatable.ColumnCreatedTime] = now
	}

	if _, ok := row[seatable.ColumnModifiedTime]; !ok {
		row[seatable.ColumnModifiedTime] = now
	}

	if _, ok := row[seatable.ColumnCreator]; !ok {
		row[seatable.ColumnCreator] = "emulator@auth.local"
	}

	if _, ok := row[seatable.ColumnLastModifier]; !ok {
		row[seatable.ColumnLastModifier] = "emulator@auth.local"
	}

	return row
}

func (e *Emulator) table(name string) *table {
	for _, t := range e.tables {
		if t.meta.Name == name {
			return t
		}
	}

	return nil
}

func (e *Emulator) failed(w http.ResponseWriter) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		http.Error(w, e.err.Error(), http.StatusInternalServerError)
		e.err = nil

		return true
	}

	return false
}

func (e *Emulator) appAccessToken(w http.ResponseWriter, r *http.Request) {
	if e.failed(w) {
		return
	}

	if r.Header.Get("Authorization") != "Token "+e.apiToken {
		http.Error(w, `{"detail": "Invalid token"}`, http.StatusForbidden)

		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(3 * 24 * time.Hour)),
		Subject:   e.dtableUUID,
	})

	signed, err := token.SignedString(e.secret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	e.writeJSON(w, seatable.AppAccessToken{
		AccessToken:  signed,
		DTableUUID:   e.dtableUUID,
		DTableServer: "http://" + r.Host + "/dtable-server/",
		DTableSocket: "http://" + r.Host + "/",
		WorkspaceID:  1,
		DTableName:   e.dtableName,
		AppName:      "nada-seatable",
	})
}

func (e *Emulator) requireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "uuid") != e.dtableUUID {
			http.Error(w, `{"error_msg": "dtable not found"}`, http.StatusNotFound)

			return
		}

		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")

		_, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			return e.secret, nil
		})
		if err != nil {
			http.Error(w, `{"error_msg": "Permission denied."}`, http.StatusForbidden)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (e *Emulator) metadata(w http.ResponseWriter, _ *http.Request) {
	if e.failed(w) {
		return
	}

	e.mu.Lock()
	md := seatable.Metadata{}
	for _, t := range e.tables {
		md.Tables = append(md.Tables, t.meta)
	}
	e.mu.Unlock()

	e.writeJSON(w, map[string]any{"metadata": md})
}

func (e *Emulator) listRows(w http.ResponseWriter, r *http.Request) {
	if e.failed(w) {
		return
	}

	q := r.URL.Query()

	start, _ := strconv.Atoi(q.Get("start"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = seatable.PageSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.table(q.Get("table_name"))
	if t == nil {
		http.Error(w, `{"error_msg": "table not found"}`, http.StatusNotFound)

		return
	}

	rows := []seatable.Row{}
	for i := start; i < len(t.rows) && i < start+limit; i++ {
		rows = append(rows, copyRow(t.rows[i]))
	}

	e.writeJSON(w, map[string]any{"rows": rows})
}

func (e *Emulator) getRow(w http.ResponseWriter, r *http.Request) {
	if e.failed(w) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.table(r.URL.Query().Get("table_name"))
	if t == nil {
		http.Error(w, `{"error_msg": "table not found"}`, http.StatusNotFound)

		return
	}

	id := chi.URLParam(r, "rowID")
	for _, row := range t.rows {
		if row[seatable.ColumnID] == id {
			e.writeJSON(w, copyRow(row))

			return
		}
	}

	http.Error(w, `{"error_msg": "row not found"}`, http.StatusNotFound)
}

type rowRequest struct {
	TableName string       `json:"table_name"`
	RowID     string       `json:"row_id"`
	RowIDs    []string     `json:"row_ids"`
	Row       seatable.Row `json:"row"`
}

func (e *Emulator) decode(w http.ResponseWriter, r *http.Request) (*rowRequest, *table, bool) {
	in := &rowRequest{}

	err := json.NewDecoder(r.Body).Decode(in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return nil, nil, false
	}

	t := e.table(in.TableName)
	if t == nil {
		http.Error(w, `{"error_msg": "table not found"}`, http.StatusNotFound)

		return nil, nil, false
	}

	return in, t, true
}

// appendRow stores the row by column name, but answers by column key like
// SeaTable does.
func (e *Emulator) appendRow(w http.ResponseWriter, r *http.Request) {
	if e.failed(w) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	in, t, ok := e.decode(w, r)
	if !ok {
		return
	}

	stored := seatable.Row{}
	for name, value := range in.Row {
		if _, ok := t.meta.ColumnByName(name); ok {
			stored[name] = value
		}
	}

	stored = e.newRow(stored)
	t.rows = append(t.rows, stored)

	out := seatable.Row{}
	for name, value := range stored {
		if seatable.IsInternal(name) {
			out[name] = value

			continue
		}

		col, _ := t.meta.ColumnByName(name)
		out[col.Key] = value
	}

	e.writeJSON(w, out)
}

func (e *Emulator) updateRow(w http.ResponseWriter, r *http.Request) {
	if e.failed(w) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	in, t, ok := e.decode(w, r)
	if !ok {
		return
	}

	for _, row := range t.rows {
		if row[seatable.ColumnID] != in.RowID {
			continue
		}

		for name, value := range in.Row {
			if _, ok := t.meta.ColumnByName(name); ok {
				row[name] = value
			}
		}

		row[seatable.ColumnModifiedTime] = e.now().UTC().Format(TimestampLayout)

		e.writeJSON(w, map[string]any{"success": true})

		return
	}

	http.Error(w, `{"error_msg": "row not found"}`, http.StatusNotFound)
}

func (e *Emulator) deleteRow(w http.ResponseWriter, r *http.Request) {
	if e.failed(w) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	in, t, ok := e.decode(w, r)
	if !ok {
		return
	}

	for i, row := range t.rows {
		if row[seatable.ColumnID] == in.RowID {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			e.writeJSON(w, map[string]any{"deleted_rows": 1})

			return
		}
	}

	e.writeJSON(w, map[string]any{"deleted_rows": 0})
}

func (e *Emulator) lockRows(lock bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if e.failed(w) {
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		in, t, ok := e.decode(w, r)
		if !ok {
			return
		}

		for _, id := range in.RowIDs {
			t.locked[id] = lock
		}

		e.writeJSON(w, map[string]any{"success": true})
	}
}

func (e *Emulator) notFound(w http.ResponseWriter, r *http.Request) {
	request, err := httputil.DumpRequest(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	e.log.Warn().Str("request", string(request)).Msg("not found")

	http.Error(w, "not found", http.StatusNotFound)
}

func (e *Emulator) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		e.log.Error().Err(err).Msg("encoding response")
	}
}

func copyRow(in seatable.Row) seatable.Row {
	out := make(seatable.Row, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
