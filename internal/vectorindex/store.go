package vectorindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver for the embedded store

	"codeberg.org/campusfind/server/internal/facilities"
)

// store is the durable layer under the index: a single SQLite file holding
// embedding rows per generation plus a one-row meta table naming the active
// generation. Everything in memory can be reconstructed from it on restart.
type store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	generation  INTEGER NOT NULL,
	facility_id INTEGER NOT NULL,
	vector      BLOB NOT NULL,
	metadata    TEXT NOT NULL,
	PRIMARY KEY (generation, facility_id)
);

CREATE TABLE IF NOT EXISTS index_meta (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	generation     INTEGER NOT NULL,
	dimension      INTEGER NOT NULL,
	built_at       TEXT NOT NULL,
	facility_count INTEGER NOT NULL
);
`

func openStore(path string) (*store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	// modernc sqlite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// writes a complete generation plus its meta row in one transaction; commit
// is the durability point for the old-to-new switch
func (s *store) writeGeneration(ctx context.Context, generation int64, dimension int, builtAt time.Time, facs []facilities.Facility, vectors [][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO embeddings (generation, facility_id, vector, metadata) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	defer stmt.Close() //nolint:errcheck

	for i, f := range facs {
		metadata, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for facility %d: %w", f.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, generation, f.ID, encodeVector(vectors[i]), string(metadata)); err != nil {
			return fmt.Errorf("failed to insert embedding for facility %d: %w", f.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO index_meta (id, generation, dimension, built_at, facility_count) VALUES (1, ?, ?, ?, ?)`,
		generation, dimension, builtAt.Format(time.RFC3339Nano), len(facs)); err != nil {
		return fmt.Errorf("failed to update index meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index generation: %w", err)
	}

	return nil
}

// replaces a single record within the active generation and refreshes the
// meta row's count
func (s *store) upsertRecord(ctx context.Context, generation int64, dimension int, builtAt time.Time, f facilities.Facility, vector []float32) error {
	metadata, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for facility %d: %w", f.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (generation, facility_id, vector, metadata) VALUES (?, ?, ?, ?)`,
		generation, f.ID, encodeVector(vector), string(metadata)); err != nil {
		return fmt.Errorf("failed to upsert embedding for facility %d: %w", f.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO index_meta (id, generation, dimension, built_at, facility_count)
		 VALUES (1, ?, ?, ?, (SELECT COUNT(*) FROM embeddings WHERE generation = ?))`,
		generation, dimension, builtAt.Format(time.RFC3339Nano), generation); err != nil {
		return fmt.Errorf("failed to update index meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	return nil
}

// loads the active generation from disk; returns nil when the index was
// never built
func (s *store) loadActive(ctx context.Context) (*snapshot, error) {
	var (
		generation int64
		dimension  int
		builtAtStr string
		count      int
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT generation, dimension, built_at, facility_count FROM index_meta WHERE id = 1`).
		Scan(&generation, &dimension, &builtAtStr, &count)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read index meta: %w", err)
	}

	builtAt, err := time.Parse(time.RFC3339Nano, builtAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index built_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT facility_id, vector, metadata FROM embeddings WHERE generation = ? ORDER BY facility_id`, generation)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	defer rows.Close() //nolint:errcheck

	records := make([]record, 0, count)

	for rows.Next() {
		var (
			facilityID int64
			blob       []byte
			metadata   string
		)

		if err := rows.Scan(&facilityID, &blob, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}

		vector, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode vector for facility %d: %w", facilityID, err)
		}

		var f facilities.Facility
		if err := json.Unmarshal([]byte(metadata), &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for facility %d: %w", facilityID, err)
		}

		records = append(records, record{
			facilityID: facilityID,
			vector:     vector,
			norm:       vectorNorm(vector),
			facility:   f,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedding rows: %w", err)
	}

	return &snapshot{
		generation: generation,
		dimension:  dimension,
		builtAt:    builtAt,
		records:    records,
	}, nil
}

// removes rows from superseded generations; safe to call any time after the
// active snapshot has been swapped
func (s *store) dropGenerationsBefore(ctx context.Context, generation int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE generation < ?`, generation); err != nil {
		return fmt.Errorf("failed to drop old generations: %w", err)
	}

	return nil
}

// wipes the store entirely (indexer --reset)
func (s *store) reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("failed to clear index meta: %w", err)
	}

	return nil
}

// vectors are stored as little-endian float32 blobs

func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}

	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}

	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}

	return vector, nil
}
