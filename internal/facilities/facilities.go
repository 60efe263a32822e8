package facilities

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFacilityNotFound = errors.New("facility not found")

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// returns every facility in the record store, ordered by id
func (r *Repository) List(ctx context.Context) ([]Facility, error) {
	rows, err := r.db.Query(ctx, queryList)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}

	defer rows.Close()

	var facilities []Facility

	for rows.Next() {
		var f Facility
		err := rows.Scan(
			&f.ID,
			&f.Name,
			&f.Type,
			&f.Building,
			&f.Floor,
			&f.UnitNumber,
			&f.Attrs,
			&f.OpenDays,
			&f.OpenTime,
			&f.CloseTime,
			&f.MapURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility row: %w", err)
		}

		facilities = append(facilities, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facility rows: %w", err)
	}

	return facilities, nil
}

// returns a single facility by id
func (r *Repository) Get(ctx context.Context, id int64) (*Facility, error) {
	var f Facility

	err := r.db.QueryRow(ctx, queryGet, id).Scan(
		&f.ID,
		&f.Name,
		&f.Type,
		&f.Building,
		&f.Floor,
		&f.UnitNumber,
		&f.Attrs,
		&f.OpenDays,
		&f.OpenTime,
		&f.CloseTime,
		&f.MapURL,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFacilityNotFound
		}

		return nil, fmt.Errorf("failed to get facility %d: %w", id, err)
	}

	return &f, nil
}
