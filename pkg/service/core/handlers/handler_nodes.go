package handlers

import (
	"context"
	"net/http"

	"github.com/navikt/nada-seatable/pkg/errs"
	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/service"
	"github.com/navikt/nada-seatable/pkg/service/core"
)

type nodeHandler struct {
	rowService     service.RowService
	triggerService service.TriggerService
	catalogService service.NodeCatalogService
	creds          seatable.Credentials
}

func (h *nodeHandler) Execute(ctx context.Context, _ *http.Request, in service.ExecuteRequest) (*service.NodeResult, error) {
	const op errs.Op = "nodeHandler.Execute"

	items := in.Items
	if items == nil {
		items = []service.Item{}
	}

	rows, err := h.rowService.Execute(ctx, h.creds, in.Parameters, items)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.NodeResult{Items: rows}, nil
}

func (h *nodeHandler) Poll(ctx context.Context, _ *http.Request, in service.PollRequest) (*service.NodeResult, error) {
	const op errs.Op = "nodeHandler.Poll"

	opts := service.PollOptions{
		Manual: in.Manual,
	}

	if in.WorkflowID != "" || in.NodeID != "" {
		opts.CursorKey = core.CursorKey(in.WorkflowID, in.NodeID)
	}

	rows, err := h.triggerService.Poll(ctx, h.creds, in.Parameters, opts)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.NodeResult{Items: rows}, nil
}

func (h *nodeHandler) Nodes(ctx context.Context, _ *http.Request, _ any) (*service.NodeCatalog, error) {
	const op errs.Op = "nodeHandler.Nodes"

	nodes, err := h.catalogService.Nodes(ctx)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return &service.NodeCatalog{Nodes: nodes}, nil
}

func NewNodeHandler(
	rowService service.RowService,
	triggerService service.TriggerService,
	catalogService service.NodeCatalogService,
	creds seatable.Credentials,
) *nodeHandler {
	return &nodeHandler{
		rowService:     rowService,
		triggerService: triggerService,
		catalogService: catalogService,
		creds:          creds,
	}
}
