package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/navikt/nada-seatable/pkg/errs"
)

type TestData struct {
	ID string `json:"id,omitempty"`
}

type validated struct {
	ID string `json:"id"`
}

func (v validated) Validate() error {
	if v.ID == "" {
		return errs.Str("id is required")
	}

	return nil
}

type accepted struct{}

func (a *accepted) StatusCode() int {
	return http.StatusAccepted
}

type plainText string

func (p plainText) Encode(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "text/plain")
	_, err := w.Write([]byte(p))

	return err
}

type testSimpleHandler struct {
	invocations int
}

func (h *testSimpleHandler) Reset() {
	h.invocations = 0
}

func (h *testSimpleHandler) Simple(_ context.Context, _ *http.Request, in TestData) (*TestData, error) {
	h.invocations++

	return &TestData{
		ID: in.ID,
	}, nil
}

func (h *testSimpleHandler) SimpleNoInput(_ context.Context, _ *http.Request, _ any) (*TestData, error) {
	h.invocations++

	return &TestData{
		ID: "static",
	}, nil
}

func (h *testSimpleHandler) ParamFromContext(ctx context.Context, _ *http.Request, _ any) (*TestData, error) {
	h.invocations++

	return &TestData{
		ID: chi.URLParamFromCtx(ctx, "id"),
	}, nil
}

func (h *testSimpleHandler) Validated(_ context.Context, _ *http.Request, in validated) (*TestData, error) {
	h.invocations++

	return &TestData{ID: in.ID}, nil
}

func (h *testSimpleHandler) Accepted(_ context.Context, _ *http.Request, _ any) (*accepted, error) {
	h.invocations++

	return &accepted{}, nil
}

func (h *testSimpleHandler) Encoder(_ context.Context, _ *http.Request, _ any) (plainText, error) {
	h.invocations++

	return "plain", nil
}

func (h *testSimpleHandler) Failing(_ context.Context, _ *http.Request, _ TestData) (*TestData, error) {
	h.invocations++

	return nil, errs.E(errs.Validation, errs.Op("test.Validate"), errs.Parameter("id"), errs.Str("id is required"))
}

func TestHandlerFor(t *testing.T) {
	simple := &testSimpleHandler{}
	logger := zerolog.Nop()

	testCases := []struct {
		name    string
		routes  map[string]http.HandlerFunc
		request *http.Request
		status  int
		count   int
		golden  bool
	}{
		{
			name: "handler-for-json-request-response",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.Simple).RequestFromJSON().Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"id": "test"}`)),
			status:  http.StatusOK,
			count:   1,
			golden:  true,
		},
		{
			name: "handler-for-json-response-no-input",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.SimpleNoInput).Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", nil),
			status:  http.StatusOK,
			count:   1,
			golden:  true,
		},
		{
			name: "handler-for-param-from-context",
			routes: map[string]http.HandlerFunc{
				"/test/{id}": For(simple.ParamFromContext).Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test/123", nil),
			status:  http.StatusOK,
			count:   1,
			golden:  true,
		},
		{
			name: "handler-for-status-coder",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.Accepted).Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", nil),
			status:  http.StatusAccepted,
			count:   1,
			golden:  true,
		},
		{
			name: "handler-for-encoder",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.Encoder).Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", nil),
			status:  http.StatusOK,
			count:   1,
			golden:  true,
		},
		{
			name: "handler-for-service-error",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.Failing).RequestFromJSON().Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`)),
			status:  http.StatusBadRequest,
			count:   1,
			golden:  true,
		},
		{
			name: "handler-for-validator",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.Validated).RequestFromJSON().Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`)),
			status:  http.StatusBadRequest,
			count:   0,
			golden:  true,
		},
		{
			name: "handler-for-malformed-json",
			routes: map[string]http.HandlerFunc{
				"/test": For(simple.Simple).RequestFromJSON().Build(logger),
			},
			request: httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"id": `)),
			status:  http.StatusBadRequest,
			count:   0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer simple.Reset()

			rr := httptest.NewRecorder()

			r := chi.NewRouter()
			for path, handler := range tc.routes {
				r.Post(path, handler)
			}

			r.ServeHTTP(rr, tc.request)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.count, simple.invocations)

			if tc.golden {
				g := goldie.New(t)
				g.Assert(t, tc.name, rr.Body.Bytes())
			}
		})
	}
}
