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

	"github.com/google/uuid"

	"github.com/example/meeting-matcher/internal/calendar"
	"github.com/example/meeting-matcher/internal/config"
	httptransport "github.com/example/meeting-matcher/internal/http"
	"github.com/example/meeting-matcher/internal/matching"
	"github.com/example/meeting-matcher/internal/store/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	gateway, err := calendar.NewGoogleClient(calendar.GoogleClientConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Credentials:  storage,
		Now:          now,
		NewID:        idGenerator,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to configure calendar gateway", "error", err)
		os.Exit(1)
	}

	matchService := matching.NewService(storage, storage, storage, gateway, matching.ServiceConfig{
		GatewayTimeout:   cfg.GatewayTimeout,
		MaxInFlight:      cfg.MaxInFlightFetches,
		AlternativeCount: cfg.AlternativeCount,
		Now:              now,
		NewID:            idGenerator,
		Logger:           logger,
	})
	profileService := matching.NewProfileService(storage, storage, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(profileService, logger),
		Matches:      httptransport.NewMatchHandler(matchService, logger),
		AvailableNow: httptransport.NewAvailableNowHandler(matchService, logger),
		Bookings:     httptransport.NewBookingHandler(matchService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequirePrincipal(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("matcher API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
