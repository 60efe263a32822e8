package facilities

import (
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

// Facility is a single campus facility row from the record store. The record
// store is the source of truth; the retrieval core only reads snapshots.
type Facility struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Building   string          `json:"building"`
	Floor      string          `json:"floor,omitempty"`
	UnitNumber string          `json:"unit_number,omitempty"`
	Attrs      map[string]bool `json:"attrs"`
	OpenDays   []string        `json:"open_days"`
	OpenTime   string          `json:"open_time,omitempty"`
	CloseTime  string          `json:"close_time,omitempty"`
	MapURL     string          `json:"map_url,omitempty"`
}

// renders the canonical facility type for API responses
// (the record store uses snake_case tags, clients expect spaces)
func DisplayType(facilityType string) string {
	return strings.ReplaceAll(facilityType, "_", " ")
}
