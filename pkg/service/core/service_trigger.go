package core

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gosimple/slug"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/navikt/nada-seatable/pkg/errs"
	"github.com/navikt/nada-seatable/pkg/rows"
	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/service"
)

var _ service.TriggerService = &triggerService{}

type triggerService struct {
	client  *seatable.Client
	cursors service.CursorStorage
	now     func() time.Time
	errs    *prometheus.CounterVec
	log     zerolog.Logger
}

// CursorKey derives the storage key of a trigger's cursor from the
// workflow and node it belongs to. The slug is only there to make keys
// readable; the escaped ids make them unique per trigger.
func CursorKey(workflowID, nodeID string) string {
	return slug.Make("seatable "+workflowID+" "+nodeID) + "/" + url.PathEscape(workflowID) + "/" + url.PathEscape(nodeID)
}

func (s *triggerService) Poll(ctx context.Context, creds seatable.Credentials, params service.ParameterSource, opts service.PollOptions) (seatable.OrderedRows, error) {
	const op errs.Op = "triggerService.Poll"

	out, err := s.poll(ctx, creds, params, opts)
	if err != nil {
		s.errs.WithLabelValues("Poll").Inc()
		return nil, errs.E(op, err)
	}

	return out, nil
}

func (s *triggerService) poll(ctx context.Context, creds seatable.Credentials, params service.ParameterSource, opts service.PollOptions) (seatable.OrderedRows, error) {
	const op errs.Op = "triggerService.poll"

	column, err := timestampColumn(params.GetString(service.ParamEvent, service.EventRowCreated))
	if err != nil {
		return nil, errs.E(op, err)
	}

	if !opts.Manual && opts.CursorKey == "" {
		return nil, errs.E(errs.InvalidRequest, op, errs.Str("a scheduled poll needs a cursor key"))
	}

	now := rows.Cursor(s.now())
	start := now

	if !opts.Manual {
		stored, ok, err := s.cursors.GetCursor(ctx, opts.CursorKey)
		if err != nil {
			return nil, errs.E(op, err)
		}

		if ok {
			start = stored
		}
	}

	session, err := s.client.NewSession(creds)
	if err != nil {
		return nil, errs.E(op, err)
	}

	table, err := tableFor(ctx, session, params)
	if err != nil {
		return nil, errs.E(op, err)
	}

	all, err := session.RequestAll(ctx, rowsRequest(table, params.GetString(service.ParamViewName, ""), service.Parameters{}), "rows")
	if err != nil {
		return nil, errs.E(op, err)
	}

	rows.Sequence(all)

	var found seatable.Rows

	if opts.Manual {
		sorted := rows.TimeSort(all, column)
		if len(sorted) > 0 {
			found = sorted[len(sorted)-1:]
		}
	} else {
		found = rows.TimeSort(rows.TimeFilter(all, column, start), column)

		err = s.cursors.SetCursor(ctx, opts.CursorKey, now)
		if err != nil {
			return nil, errs.E(op, err)
		}
	}

	s.log.Debug().Fields(map[string]any{
		"cursor_key": opts.CursorKey,
		"manual":     opts.Manual,
		"start":      start,
		"fetched":    len(all),
		"found":      len(found),
	}).Msg("polled")

	return shape(found, outputColumns(table, params), simple(params)), nil
}

func timestampColumn(event string) (string, error) {
	const op errs.Op = "core.timestampColumn"

	switch event {
	case service.EventRowCreated:
		return seatable.ColumnCreatedTime, nil
	case service.EventRowUpdated:
		return seatable.ColumnModifiedTime, nil
	default:
		return "", errs.E(errs.Validation, op, errs.Parameter(service.ParamEvent), fmt.Errorf("unknown event %q", event))
	}
}

func NewTriggerService(client *seatable.Client, cursors service.CursorStorage, now func() time.Time, errs *prometheus.CounterVec, log zerolog.Logger) *triggerService {
	if now == nil {
		now = time.Now
	}

	return &triggerService{
		client:  client,
		cursors: cursors,
		now:     now,
		errs:    errs,
		log:     log,
	}
}
