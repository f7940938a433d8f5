package core

import "github.com/navikt/nada-seatable/pkg/service"

type Services struct {
	RowService         service.RowService
	TriggerService     service.TriggerService
	NodeCatalogService service.NodeCatalogService
}

func NewServices(
	rowService service.RowService,
	triggerService service.TriggerService,
	nodeCatalogService service.NodeCatalogService,
) *Services {
	return &Services{
		RowService:         rowService,
		TriggerService:     triggerService,
		NodeCatalogService: nodeCatalogService,
	}
}
