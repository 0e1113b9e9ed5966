// Package store persists the stations table and its supporting tables. Two
// backends implement the same interface: SQLite for the single-file daily
// pipeline and Postgres for shared deployments.
package store

import (
	"context"

	"github.com/dialscan/stationdb/internal/model"
)

// ServiceCount breaks down station counts for one service type.
type ServiceCount struct {
	Total     int `json:"total"`
	WithGenre int `json:"with_genre"`
}

// StateCount is one entry in the top-states breakdown.
type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// Stats summarizes the stations table.
type Stats struct {
	Total     int                                `json:"total"`
	ByService map[model.ServiceType]ServiceCount `json:"by_service"`
	ByStatus  map[string]int                     `json:"by_status"`
	TopStates []StateCount                       `json:"top_states"`
}

// NearbyStation is a station annotated with its great-circle distance from
// a query point.
type NearbyStation struct {
	model.Station
	DistanceKM float64 `json:"distance_km"`
}

// Store is the persistence interface for the station pipeline.
type Store interface {
	// UpsertStation inserts a new row or merges the draft into the existing
	// row with the same call sign, atomically. Returns the row id and
	// whether a new row was created. A facility id claimed by a different
	// call sign yields a *dedup.ConflictError and writes nothing.
	UpsertStation(ctx context.Context, draft model.StationDraft) (id int64, inserted bool, err error)

	// GetByCallSign returns the station, or nil when absent.
	GetByCallSign(ctx context.Context, callSign string) (*model.Station, error)

	// Search matches call_sign or city, ordered by call sign.
	Search(ctx context.Context, query string, limit int) ([]model.Station, error)

	// Stats computes counts by service type, genre coverage, status, and
	// the top states by station count.
	Stats(ctx context.Context) (*Stats, error)

	// MissingGenre returns up to limit stations without a genre, ordered by
	// id ascending. The ordering makes repeated enrichment runs resumable
	// without a checkpoint.
	MissingGenre(ctx context.Context, limit int) ([]model.Station, error)

	// UpdateGenre sets the genre for one station.
	UpdateGenre(ctx context.Context, id int64, genre string) error

	// Nearest returns the limit closest stations with known coordinates.
	Nearest(ctx context.Context, lat, lon float64, limit int) ([]NearbyStation, error)

	// QuotaUsed returns the number of discovery calls recorded for the day.
	QuotaUsed(ctx context.Context, day string) (int, error)

	// AddQuotaUsed increments the day's discovery-call counter.
	AddQuotaUsed(ctx context.Context, day string, n int) error

	// RecordIngestRun appends one batch audit row.
	RecordIngestRun(ctx context.Context, run model.IngestRun) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
