package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"

	"github.com/navikt/nada-seatable/pkg/service/core/handlers"
	"github.com/navikt/nada-seatable/pkg/service/core/transport"
)

type NodeEndpoints struct {
	Execute  http.HandlerFunc
	Poll     http.HandlerFunc
	GetNodes http.HandlerFunc
}

func NewNodeEndpoints(log zerolog.Logger, h *handlers.Handlers) *NodeEndpoints {
	return &NodeEndpoints{
		Execute:  transport.For(h.NodeHandler.Execute).RequestFromJSON().Build(log),
		Poll:     transport.For(h.NodeHandler.Poll).RequestFromJSON().Build(log),
		GetNodes: transport.For(h.NodeHandler.Nodes).Build(log),
	}
}

func NewNodeRoutes(endpoints *NodeEndpoints) AddRoutesFn {
	return func(router chi.Router) {
		router.Route("/api/nodes", func(r chi.Router) {
			r.Get("/", endpoints.GetNodes)
			r.Post("/seatable/execute", endpoints.Execute)
			r.Post("/seatable/poll", endpoints.Poll)
		})
	}
}
