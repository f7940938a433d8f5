package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// Pinger is a backing store the health check must be able to reach.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type InternalEndpoints struct {
	GetMetrics http.Handler
	GetHealth  http.HandlerFunc
}

func NewInternalEndpoints(promReg *prometheus.Registry, log zerolog.Logger, pingers ...Pinger) *InternalEndpoints {
	return &InternalEndpoints{
		GetMetrics: promhttp.InstrumentMetricHandler(promReg, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{
			Registry:          promReg,
			EnableOpenMetrics: true,
		})),
		GetHealth: func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			for _, p := range pingers {
				if err := p.PingContext(ctx); err != nil {
					log.Warn().Err(err).Msg("health check")
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte("unavailable"))

					return
				}
			}

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	}
}

func NewInternalRoutes(endpoints *InternalEndpoints) AddRoutesFn {
	return func(router chi.Router) {
		router.Route("/internal", func(r chi.Router) {
			r.Method(http.MethodGet, "/metrics", endpoints.GetMetrics)
			r.Get("/health", endpoints.GetHealth)
		})
	}
}
