package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"otadmin/config"
	"otadmin/database"
	"otadmin/handlers"
	"otadmin/middleware"
	"otadmin/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	middleware.SetJWTSecret(cfg.JWTSecret)

	db, err := database.Init(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	if err := database.SeedAdmin(db, cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
		logger.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	audit := services.NewAuditRecorder(db, logger)
	triple := services.NewTripleDayRegistry(db)
	overtime := services.NewOvertimeService(db, cfg.Rules, triple, audit, logger, cfg.FacilityLocation)
	stats := services.NewStatsService(db, cfg.FacilityLocation)

	router := handlers.NewRouter(handlers.RouterConfig{
		DB:          db,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        handlers.NewAuthHandler(db, services.NewUserDirectory(db), cfg.JWTExpiration, logger),
		Overtime:    handlers.NewOvertimeHandler(overtime, stats, logger),
		Admin: handlers.NewAdminHandler(
			triple,
			services.NewReasonCatalog(db),
			services.NewEmployeeDirectory(db),
			audit,
			logger,
		),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"port", cfg.ServerPort,
			"facility_tz", cfg.FacilityLocation.String(),
			"rules_file", cfg.RulesFile,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
