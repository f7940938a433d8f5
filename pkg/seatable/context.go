package seatable

import (
	"github.com/navikt/nada-seatable/pkg/errs"
)

// Context carries everything a single node invocation knows about its base.
// It is immutable, the staging functions return a new Context with one more
// piece filled in.
type Context struct {
	credentials Credentials
	base        *AppAccessToken
	metadata    *Metadata
}

// StageCredentials starts a Context from stored credentials.
func StageCredentials(creds Credentials) (Context, error) {
	const op errs.Op = "seatable.StageCredentials"

	if creds.APIToken == "" {
		return Context{}, errs.E(errs.Unauthenticated, op, errs.Parameter("api_token"), errs.Str("missing api token"))
	}

	if creds.Environment != EnvironmentCloudHosted && creds.ServerURL == "" {
		return Context{}, errs.E(errs.Unauthenticated, op, errs.Parameter("server_url"), errs.Str("missing server url"))
	}

	return Context{credentials: creds}, nil
}

func (c Context) Credentials() Credentials {
	return c.credentials
}

// Base returns the exchanged app access token, if staged.
func (c Context) Base() (AppAccessToken, bool) {
	if c.base == nil {
		return AppAccessToken{}, false
	}

	return *c.base, true
}

// Metadata returns the base metadata, if staged.
func (c Context) Metadata() (Metadata, bool) {
	if c.metadata == nil {
		return Metadata{}, false
	}

	return *c.metadata, true
}

func (c Context) WithBase(base AppAccessToken) Context {
	c.base = &base

	return c
}

func (c Context) WithMetadata(md Metadata) Context {
	tables := make([]Table, len(md.Tables))
	copy(tables, md.Tables)
	c.metadata = &Metadata{Tables: tables}

	return c
}
