package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inamate/canvasviewer/internal/asset"
	"github.com/inamate/canvasviewer/internal/config"
	"github.com/inamate/canvasviewer/internal/engine"
	"github.com/inamate/canvasviewer/internal/export"
	mw "github.com/inamate/canvasviewer/internal/middleware"
	"github.com/inamate/canvasviewer/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := asset.NewDiskStore(cfg.AssetDir)
	if err != nil {
		slog.Error("open asset store", "error", err)
		os.Exit(1)
	}

	for _, group := range [][]prometheus.Collector{mw.Collectors(), export.Collectors(), session.Collectors()} {
		prometheus.MustRegister(group...)
	}

	registry := session.NewRegistry(session.Options{
		Engine: engine.Options{
			Width:        cfg.CanvasWidth,
			Height:       cfg.CanvasHeight,
			Background:   cfg.CanvasBackground,
			HistoryLimit: cfg.HistoryLimit,
			Assets:       store,
		},
		FrameRate: cfg.FrameRate,
	})
	go registry.Cleanup(ctx)

	limiter := mw.NewRateLimiter(cfg.ExportRateLimit, cfg.ExportBurst)
	go limiter.Cleanup(ctx)

	assetHandler := asset.NewHandler(store)
	exportHandler := export.NewHandler(store, cfg.CanvasWidth, cfg.CanvasHeight, cfg.JPEGQuality)
	editorHandler := session.NewHandler(registry, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.Monitor)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, registry.Len())
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.HandleFunc("/assets/{id}", assetHandler.Serve).Methods("GET")
	r.HandleFunc("/assets/{id}", assetHandler.Delete).Methods("DELETE")

	exports := r.PathPrefix("/export").Subrouter()
	exports.Use(limiter.Middleware)
	exports.HandleFunc("/{format}", exportHandler.Export).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws/editor", editorHandler.ServeWS).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Origins()),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.ExposedHeaders([]string{"Content-Length", "Content-Disposition"}),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      cors(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		registry.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		cancel()
	}()

	slog.Info("server starting", "addr", addr, "assets", store.Dir())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
