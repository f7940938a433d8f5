package core

import (
	"context"
	"sort"

	"github.com/navikt/nada-seatable/pkg/service"
)

const (
	NodeSeaTable        = "seatable"
	NodeSeaTableTrigger = "seatableTrigger"

	KindAction  = "action"
	KindTrigger = "trigger"
)

var _ service.NodeCatalogService = &nodeCatalogService{}

type nodeCatalogService struct {
	nodes map[string]service.NodeDefinition
}

func (s *nodeCatalogService) Nodes(_ context.Context) ([]service.NodeDefinition, error) {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	out := make([]service.NodeDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}

	return out, nil
}

func (s *nodeCatalogService) register(def service.NodeDefinition) {
	if def.ID == "" {
		return
	}

	s.nodes[def.ID] = def
}

func NewNodeCatalogService() *nodeCatalogService {
	s := &nodeCatalogService{
		nodes: map[string]service.NodeDefinition{},
	}

	s.register(service.NodeDefinition{
		ID:          NodeSeaTable,
		Kind:        KindAction,
		Description: "Read and write rows of a SeaTable base",
		Operations:  service.Operations,
	})

	s.register(service.NodeDefinition{
		ID:          NodeSeaTableTrigger,
		Kind:        KindTrigger,
		Description: "Starts a workflow when rows of a SeaTable table are created or updated",
		Events:      []string{service.EventRowCreated, service.EventRowUpdated},
	})

	return s
}
