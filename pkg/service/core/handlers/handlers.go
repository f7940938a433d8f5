package handlers

import (
	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/service/core"
)

type Handlers struct {
	NodeHandler *nodeHandler
}

func NewHandlers(s *core.Services, creds seatable.Credentials) *Handlers {
	return &Handlers{
		NodeHandler: NewNodeHandler(s.RowService, s.TriggerService, s.NodeCatalogService, creds),
	}
}
