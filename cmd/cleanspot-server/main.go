package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/YnTheNerd/cleanspot/internal/api"
	"github.com/YnTheNerd/cleanspot/internal/auth"
	"github.com/YnTheNerd/cleanspot/internal/config"
	"github.com/YnTheNerd/cleanspot/internal/geocode"
	"github.com/YnTheNerd/cleanspot/internal/logging"
	"github.com/YnTheNerd/cleanspot/internal/report"
	"github.com/YnTheNerd/cleanspot/internal/storage"
	"github.com/YnTheNerd/cleanspot/internal/track"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	store, err := storage.NewSQLiteStore(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	var blobs storage.BlobStore
	switch cfg.Blob.Strategy {
	case "file":
		blobs = &storage.FileStore{Root: cfg.Blob.Dir}
	default:
		blobs = &storage.InlineStore{MaxBytes: cfg.Blob.MaxEncodedBytes}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geocoder := geocode.NewClient(geocode.Config{
		BaseURL:      cfg.Geocoder.BaseURL,
		UserAgent:    cfg.Geocoder.UserAgent,
		CountryCodes: cfg.Geocoder.CountryCodes,
		MaxResults:   cfg.Geocoder.MaxResults,
		Timeout:      cfg.Geocoder.Timeout,
		MinInterval:  cfg.Geocoder.MinInterval,
	})

	session := auth.NewSession()
	defer session.Close()
	provider := auth.NewLocalProvider(store)

	reports := report.NewService(store, blobs, report.WithImageBudget(cfg.Blob.MaxEncodedBytes))
	reports.Start(ctx)

	// Watch the signed-in user's reports for admin status changes.
	watcher := track.NewWatcher(store, cfg.Watcher.PollInterval)
	watcher.Start(ctx)

	authStates, stopAuthWatch := session.OnAuthStateChange()
	go func() {
		var currentUID string
		for identity := range authStates {
			if currentUID != "" {
				watcher.Unwatch(currentUID)
				currentUID = ""
			}
			if identity != nil {
				currentUID = identity.UID
				watcher.Watch(currentUID)
			}
		}
	}()

	changes, stopChanges := watcher.Subscribe()
	go func() {
		for change := range changes {
			slog.Info("report status changed",
				"report_id", change.ReportID,
				"user_id", change.UserID,
				"from", change.From,
				"to", change.To)
		}
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	handler := api.NewHandler(reports, geocoder, session, provider)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	stopChanges()
	stopAuthWatch()
	watcher.Stop()
	reports.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
