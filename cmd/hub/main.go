package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/ogero/stremio-hub/internal"
	"github.com/ogero/stremio-hub/internal/catalog"
	"github.com/ogero/stremio-hub/internal/common"
	"github.com/ogero/stremio-hub/internal/config"
	"github.com/ogero/stremio-hub/internal/events"
	"github.com/ogero/stremio-hub/internal/registry"
	"github.com/ogero/stremio-hub/internal/store"
	"github.com/ogero/stremio-hub/internal/streams"
	"github.com/ogero/stremio-hub/pkg/fetch"
	slogchi "github.com/samber/slog-chi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	serviceName    = "stremio-hub"
	serviceVersion = "1.0.0"
)

func main() {

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		common.Log.Error("Failed to config.Load", "err", err)
		os.Exit(1)
	}

	if cfg.OTLPExporterEndpoint != "" {
		logShutdown, err := common.InitLogger(serviceName, serviceVersion, cfg.ServiceEnvironment, cfg.OTLPExporterEndpoint)
		if err != nil {
			common.Log.Error("Failed to common.InitLogger", "err", err)
			os.Exit(1)
		}
		defer func() {
			_ = logShutdown(context.Background())
		}()

		instrShutdown, err := common.InitInstrumentation(serviceName, serviceVersion, cfg.ServiceEnvironment, cfg.OTLPExporterEndpoint)
		if err != nil {
			common.Log.Error("Failed to common.InitInstrumentation", "err", err)
			os.Exit(1)
		}
		defer instrShutdown(context.Background())
	}

	addonStore, err := store.OpenBadger(cfg.DataDir)
	if err != nil {
		common.Log.Error("Failed to store.OpenBadger", "err", err)
		os.Exit(1)
	}

	hub, err := events.NewHub(cfg.EventsChannel)
	if err != nil {
		common.Log.Error("Failed to events.NewHub", "err", err)
		os.Exit(1)
	}

	client := fetch.NewClient()
	addonRegistry := registry.NewRegistry(addonStore, client)
	aggregator := catalog.NewAggregator(addonRegistry, client)
	resolver := streams.NewResolver(addonRegistry, client)

	app, err := internal.NewApp(addonRegistry, aggregator, resolver, hub)
	if err != nil {
		common.Log.Error("Failed to internal.NewApp", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(slogchi.New(common.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Requested-With",
			"Accept",
			"Accept-Language",
			"Accept-Encoding",
			"Content-Language",
			"Origin",
		},
		MaxAge: 300,
	}))
	r.Get("/api/addons", app.ListAddonsHandler)
	r.Post("/api/addons", app.InstallAddonHandler)
	r.Delete("/api/addons/{id}", app.UninstallAddonHandler)
	r.Get("/api/catalogs", app.ListCatalogsHandler)
	r.Get("/api/catalogs/{addonID}/{type}/{id}", app.CatalogContentHandler)
	r.Get("/api/streams/{type}/{id}", app.StreamsHandler)
	r.Get("/api/streams/{type}/{id}/best", app.BestStreamHandler)
	r.Get("/ws", app.WebsocketHandler)

	// Listen
	srv := &http.Server{
		Addr:    cfg.ServerListenAddr,
		Handler: otelhttp.NewHandler(r, serviceName),
	}
	go func() {
		common.Log.Info("Listening", "addr", cfg.ServerListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.Log.Error("Failed to http.Server.ListenAndServe", "err", err)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		common.Log.Error("Failed to http server shutdown", "err", err)
	}

	if err := addonStore.Close(); err != nil {
		common.Log.Error("Failed to store.Close", "err", err)
	}

	common.Log.Info("Bye!")
}
