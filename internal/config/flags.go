package config

import (
	"flag"
	"os"
	"time"
)

// parses CLI flags for the indexer command
func ParseIndexerFlags() IndexerFlags {
	args := os.Args[1:]

	fs := flag.NewFlagSet("indexer", flag.ExitOnError)
	reset := fs.Bool("reset", false, "wipe the on-disk vector index before rebuilding")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall timeout for the rebuild")
	fs.Parse(args) //nolint:errcheck,gosec // G104: ExitOnError flag set handles errors

	return IndexerFlags{Reset: *reset, Timeout: *timeout}
}

// returns default flags for the indexer command
func DefaultIndexerFlags() IndexerFlags {
	return IndexerFlags{Reset: false, Timeout: 5 * time.Minute}
}
