// Package main initializes and starts the profile sync server, setting up
// configuration, logging, the database pool, repositories, services and
// handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/avolkov/profilekeeper/internal/config"
	"github.com/avolkov/profilekeeper/internal/db"
	"github.com/avolkov/profilekeeper/internal/logger"
	"github.com/avolkov/profilekeeper/internal/metrics"
	"github.com/avolkov/profilekeeper/internal/repository"
	"github.com/avolkov/profilekeeper/internal/server/handler/http"
	"github.com/avolkov/profilekeeper/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Load a local .env if present, then parse flags and environment.
	_ = godotenv.Load()
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	zapLogger, err := logger.New(options.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = zapLogger.Sync() }()

	// Initialize the bounded PostgreSQL pool.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN, options.MaxConns)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	sink := metrics.NewZapSink(zapLogger)
	gateway := db.NewGateway(postgresDB, zapLogger, sink)
	gateway.StartPoolGauges(context.Background(), 10*time.Second)

	// Periodically drop unsaved searches that fell out of use.
	db.StartStaleSearchCleaner(context.Background(), postgresDB,
		time.Hour,
		time.Duration(options.SearchRetentionDays)*24*time.Hour,
		zapLogger,
	)

	// Repository, services and handlers.
	repo := repository.NewPostgresProfileRepository()
	updateService := service.NewUpdateService(gateway, repo, zapLogger, sink)
	profileService := service.NewProfileService(gateway, repo)

	profileHandler := &http.ProfileHandler{ProfileService: profileService}
	updateHandler := &http.UpdateHandler{UpdateService: updateService}

	// Build the router with middleware and routes.
	router := http.NewRouter(profileHandler, updateHandler, options.APIKey, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
