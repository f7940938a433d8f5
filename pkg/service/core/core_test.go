package core_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/seatable/emulator"
)

const apiToken = "5c8e3ad1f04b4f0e9a0c2bd7e61f9a77"

var peopleTable = seatable.Table{
	ID:   "0000",
	Name: "People",
	Columns: []seatable.Column{
		{Key: "0000", Name: "Title", Type: "text"},
		{Key: "aB3x", Name: "Surname", Type: "text"},
		{Key: "Qm9z", Name: "Tags", Type: "multiple-select"},
		{Key: "c0un", Name: "Counter", Type: "auto-number"},
	},
}

type env struct {
	em    *emulator.Emulator
	creds seatable.Credentials
	cl    *seatable.Client
	errs  *prometheus.CounterVec
}

func setup(t *testing.T, rows ...seatable.Row) *env {
	t.Helper()

	em := emulator.New(apiToken, zerolog.Nop())
	em.AddTable(peopleTable, rows...)
	url := em.Run()
	t.Cleanup(em.Close)

	return &env{
		em: em,
		creds: seatable.Credentials{
			Environment: seatable.EnvironmentSelfHosted,
			ServerURL:   url,
			APIToken:    apiToken,
		},
		cl:   seatable.New(&http.Client{Timeout: 5 * time.Second}, false, zerolog.Nop()),
		errs: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "errors"}, []string{"location"}),
	}
}
