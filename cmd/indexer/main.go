// Command indexer rebuilds the on-disk facility vector index from the
// facility record store, without going through the HTTP API. Useful for
// provisioning a fresh deployment or re-embedding after a model change.
package main

import (
	"context"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/campusfind/server/internal/config"
	"codeberg.org/campusfind/server/internal/facilities"
	"codeberg.org/campusfind/server/internal/llm"
	"codeberg.org/campusfind/server/internal/logger"
	"codeberg.org/campusfind/server/internal/vectorindex"
)

const indexFileName = "facilities.db"

func main() {
	flags := config.ParseIndexerFlags()

	// load environment variables
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), flags.Timeout)
	defer cancel()

	// connect to database
	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("connected to database")

	llmClient, err := llm.NewLLM(ctx)
	if err != nil {
		logger.FatalErr(err, "failed to create LLM client")
	}

	index, err := vectorindex.Open(ctx, filepath.Join(cfg.VectorDataDir, indexFileName), llmClient)
	if err != nil {
		logger.FatalErr(err, "failed to open vector index")
	}

	defer index.Close() //nolint:errcheck,gosec // best-effort cleanup on exit

	if flags.Reset {
		if err := index.Reset(ctx); err != nil {
			logger.FatalErr(err, "failed to reset vector index")
		}

		logger.Info("vector index wiped")
	}

	facs, err := facilities.NewRepository(db).List(ctx)
	if err != nil {
		logger.FatalErr(err, "failed to load facility records")
	}

	logger.Info("rebuilding vector index", "facilities", len(facs))

	stats, err := index.Rebuild(ctx, facs)
	if err != nil {
		logger.FatalErr(err, "rebuild failed",
			"indexed", stats.Indexed,
			"failed", stats.Failed,
		)
	}

	logger.Info("vector index rebuilt",
		"facilities", stats.Indexed,
		"generation", stats.Generation,
		"dimension", stats.Dimension,
	)
}
