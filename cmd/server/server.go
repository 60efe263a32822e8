package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/campusfind/server/internal/config"
	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/logger"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// the facility store is small and read-only, so a modest pool is plenty
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// simple protocol keeps the pool compatible with transaction-mode
	// poolers, which do not support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	facilityRepo := facilities.NewRepository(db)

	services, index, err := InitializeServices(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	stats := index.Stats()
	if stats.Ready {
		logger.Info("vector index loaded from disk",
			"documents", stats.TotalDocuments,
			"generation", stats.Generation,
			"dimension", stats.Dimension,
		)
	} else {
		logger.Warn("vector index not built yet, /chat will return 503 until /load-facilities is called")
	}

	router := gin.Default()

	server := &Server{
		db:           db,
		config:       cfg,
		facilityRepo: facilityRepo,
		index:        index,
		services:     services,
		router:       router,
	}

	RegisterRoutes(router, server)

	return server, nil
}
