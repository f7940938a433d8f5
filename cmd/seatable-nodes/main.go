package main

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/navikt/nada-seatable/pkg/config/v2"
	"github.com/navikt/nada-seatable/pkg/database"
	"github.com/navikt/nada-seatable/pkg/requestlogger"
	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/service/core"
	"github.com/navikt/nada-seatable/pkg/service/core/handlers"
	"github.com/navikt/nada-seatable/pkg/service/core/routes"
	"github.com/navikt/nada-seatable/pkg/service/core/storage"
)

var (
	configFilePath = flag.String("config", "config.yaml", "path to config file")
	envFilePath    = flag.String("env-file", ".env", "path to an optional file with environment variables")
	printRoutes    = flag.Bool("print-routes", false, "print the routes and exit")
)

var promErrs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nada_seatable",
	Name:      "errors",
}, []string{"location"})

func main() {
	flag.Parse()

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	err := godotenv.Load(*envFilePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		zlog.Fatal().Err(err).Msg("loading env file")
	}

	fileParts, err := config.ProcessConfigPath(*configFilePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("processing config path")
	}

	cfg, err := config.NewFileSystemLoader().Load(fileParts.FileName, fileParts.Path, "SEATABLE", config.NewDefaultEnvBinder())
	if err != nil {
		zlog.Fatal().Err(err).Msg("loading config")
	}

	err = cfg.Validate()
	if err != nil {
		zlog.Fatal().Err(err).Msg("validating config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		zlog.Fatal().Err(err).Msg("parsing log level")
	}

	zlog = zlog.Level(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	var repo *database.Repo

	if cfg.Postgres.Enabled() {
		repo, err = database.New(
			cfg.Postgres.ConnectionString(),
			cfg.Postgres.Configuration.MaxIdleConnections,
			cfg.Postgres.Configuration.MaxOpenConnections,
			zlog.With().Str("subsystem", "repo").Logger(),
		)
		if err != nil {
			zlog.Fatal().Err(err).Msg("setting up database")
		}

		defer repo.Close()
	} else {
		zlog.Warn().Msg("no postgres configured, trigger cursors are kept in memory")
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}

	client := seatable.New(httpClient, cfg.Debug, zlog.With().Str("subsystem", "seatable").Logger())

	stores := storage.NewStores(repo)

	services := core.NewServices(
		core.NewRowService(client, promErrs, zlog.With().Str("subsystem", "rows").Logger()),
		core.NewTriggerService(client, stores.CursorStorage, time.Now, promErrs, zlog.With().Str("subsystem", "trigger").Logger()),
		core.NewNodeCatalogService(),
	)

	h := handlers.NewHandlers(services, cfg.SeaTable.Credentials())

	var pingers []routes.Pinger
	if repo != nil {
		pingers = append(pingers, repo.GetDB())
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestlogger.Middleware(zlog, "/internal/metrics", "/internal/health"))
	router.Use(routes.CORS(cfg.Server.AllowedOrigins...))

	routes.Add(router,
		routes.NewNodeRoutes(routes.NewNodeEndpoints(zlog, h)),
		routes.NewInternalRoutes(routes.NewInternalEndpoints(prom(), zlog, pingers...)),
	)

	if *printRoutes {
		err = routes.Print(router, os.Stdout)
		if err != nil {
			zlog.Fatal().Err(err).Msg("printing routes")
		}

		return
	}

	server := http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Address, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info().Msgf("Listening on %s:%s", cfg.Server.Address, cfg.Server.Port)

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("serving")
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("shutdown error")
	}
}

func prom() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(promErrs)
	r.MustRegister(collectors.NewGoCollector())

	return r
}
