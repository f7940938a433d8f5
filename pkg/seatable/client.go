package seatable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/navikt/nada-seatable/pkg/errs"
)

const (
	AppAccessTokenEndpoint = "/api/v2.1/dtable/app-access-token/"
	MetadataEndpoint       = "/dtable-server/api/v1/dtables/{{dtable_uuid}}/metadata/"
	RowsEndpoint           = "/dtable-server/api/v1/dtables/{{dtable_uuid}}/rows/"
	LockRowsEndpoint       = "/dtable-server/api/v1/dtables/{{dtable_uuid}}/lock-rows/"
	UnlockRowsEndpoint     = "/dtable-server/api/v1/dtables/{{dtable_uuid}}/unlock-rows/"

	// SeaTable expects "Token" rather than "Bearer" as the scheme, both for
	// the API token and for the app access token.
	authScheme = "Token"
)

// Doer is the host provided capability of performing an HTTP request,
// satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	doer  Doer
	debug bool
	log   zerolog.Logger
}

// StageBase exchanges the API token for an app access token, unless c
// already has one.
func (cl *Client) StageBase(ctx context.Context, c Context) (Context, error) {
	const op errs.Op = "seatable.Client.StageBase"

	if c.base != nil {
		return c, nil
	}

	if c.credentials.APIToken == "" {
		return c, errs.E(errs.Unauthenticated, op, errs.Parameter("api_token"), errs.Str("missing api token"))
	}

	uri := BaseURI(c) + AppAccessTokenEndpoint

	raw, err := cl.call(ctx, http.MethodGet, uri, c.credentials.APIToken, nil, nil)
	if err != nil {
		return c, errs.E(op, err)
	}

	base := AppAccessToken{}

	err = json.Unmarshal(raw, &base)
	if err != nil {
		return c, errs.E(errs.IO, op, errs.Parameter("response_body"), err)
	}

	if base.AccessToken == "" {
		return c, errs.E(errs.Validation, op, errs.Parameter("access_token"), errs.Str("app access token response is missing access_token"))
	}

	if base.DTableUUID == "" {
		return c, errs.E(errs.Validation, op, errs.Parameter("dtable_uuid"), errs.Str("app access token response is missing dtable_uuid"))
	}

	if expiresAt, ok := base.ExpiresAt(); ok {
		cl.log.Debug().Str("dtable_name", base.DTableName).Time("expires_at", expiresAt).Msg("app_access_token")
	}

	return c.WithBase(base), nil
}

// StageMetadata fetches the metadata of the base, unless c already has it.
func (cl *Client) StageMetadata(ctx context.Context, c Context) (Context, error) {
	const op errs.Op = "seatable.Client.StageMetadata"

	if c.metadata != nil {
		return c, nil
	}

	c, err := cl.StageBase(ctx, c)
	if err != nil {
		return c, errs.E(op, err)
	}

	raw, err := cl.call(ctx, http.MethodGet, ExpandEndpoint(c, MetadataEndpoint), c.base.AccessToken, nil, nil)
	if err != nil {
		return c, errs.E(op, err)
	}

	v := struct {
		Metadata *Metadata `json:"metadata"`
	}{}

	err = json.Unmarshal(raw, &v)
	if err != nil {
		return c, errs.E(errs.IO, op, errs.Parameter("response_body"), err)
	}

	if v.Metadata == nil {
		return c, errs.E(errs.Validation, op, errs.Parameter("metadata"), errs.Str("metadata response is missing metadata"))
	}

	return c.WithMetadata(*v.Metadata), nil
}

// NewSession starts an invocation scoped session for the given credentials.
func (cl *Client) NewSession(creds Credentials) (*Session, error) {
	c, err := StageCredentials(creds)
	if err != nil {
		return nil, err
	}

	return &Session{
		client: cl,
		c:      c,
	}, nil
}

// SessionFor starts a session from an already staged Context.
func (cl *Client) SessionFor(c Context) *Session {
	return &Session{
		client: cl,
		c:      c,
	}
}

func (cl *Client) call(ctx context.Context, method, uri, token string, body any, header http.Header) ([]byte, error) {
	const op errs.Op = "seatable.Client.call"

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errs.E(errs.Internal, op, errs.Parameter("request_body"), err)
		}

		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, buf)
	if err != nil {
		return nil, errs.E(errs.IO, op, &APIError{Method: method, URI: uri, Err: fmt.Errorf("creating request: %w", err)})
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	(&oauth2.Token{AccessToken: token, TokenType: authScheme}).SetAuthHeader(req)

	if cl.debug {
		reqdump, _ := httputil.DumpRequestOut(req, false)
		cl.log.Debug().Msg(string(reqdump))
	}

	res, err := cl.doer.Do(req)
	if err != nil {
		return nil, errs.E(errs.IO, op, &APIError{Method: method, URI: redact(uri), Err: err})
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errs.E(errs.IO, op, &APIError{Method: method, URI: redact(uri), StatusCode: res.StatusCode, Err: err})
	}

	if res.StatusCode < http.StatusOK || res.StatusCode > 299 {
		cl.log.Error().Fields(map[string]any{
			"error_message": string(data),
			"method":        method,
			"uri":           redact(uri),
			"status":        res.StatusCode,
		}).Msg("seatable_request")

		return nil, errs.E(errs.IO, op, &APIError{
			Method:     method,
			URI:        redact(uri),
			StatusCode: res.StatusCode,
			Body:       string(data),
		})
	}

	return data, nil
}

// redact hides access tokens that were substituted into the query string.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}

	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "redacted")
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func New(doer Doer, debug bool, log zerolog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}

	return &Client{
		doer:  doer,
		debug: debug,
		log:   log,
	}
}
