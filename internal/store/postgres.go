package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dialscan/stationdb/internal/db"
	"github.com/dialscan/stationdb/internal/dedup"
	"github.com/dialscan/stationdb/internal/geo"
	"github.com/dialscan/stationdb/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stations (
	id                 BIGSERIAL PRIMARY KEY,
	call_sign          TEXT NOT NULL UNIQUE,
	facility_id        BIGINT UNIQUE,
	service_type       TEXT NOT NULL CHECK (service_type IN ('FM', 'AM')),
	frequency          DOUBLE PRECISION NOT NULL,
	station_name       TEXT,
	city               TEXT NOT NULL,
	state              TEXT NOT NULL,
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
	power_watts        DOUBLE PRECISION,
	coverage_radius_km DOUBLE PRECISION,
	genre              TEXT,
	status             TEXT NOT NULL DEFAULT 'ACTIVE',
	data_source        TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stations_call_sign ON stations(call_sign);
CREATE INDEX IF NOT EXISTS idx_stations_frequency ON stations(frequency);
CREATE INDEX IF NOT EXISTS idx_stations_location  ON stations(latitude, longitude);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id          TEXT PRIMARY KEY,
	service     TEXT NOT NULL,
	source      TEXT NOT NULL,
	lines       INTEGER NOT NULL,
	parsed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	inserted    INTEGER NOT NULL,
	updated     INTEGER NOT NULL,
	conflicts   INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment_quota (
	day  TEXT PRIMARY KEY,
	used INTEGER NOT NULL DEFAULT 0
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertStation(ctx context.Context, draft model.StationDraft) (int64, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, false, eris.Wrap(err, "postgres: begin upsert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if draft.FacilityID != nil {
		var owner string
		err := tx.QueryRow(ctx,
			`SELECT call_sign FROM stations WHERE facility_id = $1 AND call_sign != $2`,
			*draft.FacilityID, draft.CallSign,
		).Scan(&owner)
		switch {
		case err == nil:
			return 0, false, &dedup.ConflictError{
				CallSign:   draft.CallSign,
				FacilityID: *draft.FacilityID,
				ClaimedBy:  owner,
			}
		case !errors.Is(err, pgx.ErrNoRows):
			return 0, false, eris.Wrap(err, "postgres: facility conflict check")
		}
	}

	row := tx.QueryRow(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE call_sign = $1`, draft.CallSign)
	existing, err := scanPgStation(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, eris.Wrap(err, "postgres: load existing station")
	}

	var id int64
	inserted := existing == nil
	if inserted {
		err = tx.QueryRow(ctx,
			`INSERT INTO stations (call_sign, facility_id, service_type, frequency, station_name,
				city, state, latitude, longitude, power_watts, coverage_radius_km,
				status, data_source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 RETURNING id`,
			draft.CallSign, draft.FacilityID, string(draft.ServiceType), draft.Frequency,
			draft.StationName, draft.City, draft.State, draft.Latitude, draft.Longitude,
			draft.PowerWatts, draft.CoverageRadiusKM, draft.Status, draft.DataSource,
		).Scan(&id)
		if err != nil {
			return 0, false, eris.Wrapf(err, "postgres: insert station %s", draft.CallSign)
		}
	} else {
		merged := dedup.Merge(*existing, draft)
		_, err := tx.Exec(ctx,
			`UPDATE stations SET facility_id = $1, service_type = $2, frequency = $3,
				station_name = $4, city = $5, state = $6, latitude = $7, longitude = $8,
				power_watts = $9, coverage_radius_km = $10, status = $11, data_source = $12
			 WHERE id = $13`,
			merged.FacilityID, string(merged.ServiceType), merged.Frequency,
			merged.StationName, merged.City, merged.State, merged.Latitude, merged.Longitude,
			merged.PowerWatts, merged.CoverageRadiusKM, merged.Status, merged.DataSource,
			existing.ID,
		)
		if err != nil {
			return 0, false, eris.Wrapf(err, "postgres: update station %s", draft.CallSign)
		}
		id = existing.ID
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, eris.Wrap(err, "postgres: commit upsert")
	}
	return id, inserted, nil
}

func (s *PostgresStore) GetByCallSign(ctx context.Context, callSign string) (*model.Station, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE call_sign = $1`, callSign)
	st, err := scanPgStation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get station %s", callSign)
	}
	return st, nil
}

func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]model.Station, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT `+stationColumns+` FROM stations
		 WHERE call_sign ILIKE $1 OR city ILIKE $2
		 ORDER BY call_sign LIMIT $3`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search")
	}
	defer rows.Close()
	return collectPgStations(rows)
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByService: make(map[model.ServiceType]ServiceCount),
		ByStatus:  make(map[string]int),
	}

	rows, err := s.pool.Query(ctx,
		`SELECT service_type, COUNT(*), COUNT(genre) FROM stations GROUP BY service_type`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by service")
	}
	defer rows.Close()
	for rows.Next() {
		var svc string
		var sc ServiceCount
		if err := rows.Scan(&svc, &sc.Total, &sc.WithGenre); err != nil {
			return nil, eris.Wrap(err, "postgres: scan service count")
		}
		stats.ByService[model.ServiceType(svc)] = sc
		stats.Total += sc.Total
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by service iterate")
	}

	statusRows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM stations GROUP BY status ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status")
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var n int
		if err := statusRows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		stats.ByStatus[status] = n
	}
	if err := statusRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status iterate")
	}

	stateRows, err := s.pool.Query(ctx,
		`SELECT state, COUNT(*) FROM stations GROUP BY state ORDER BY COUNT(*) DESC LIMIT 10`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by state")
	}
	defer stateRows.Close()
	for stateRows.Next() {
		var sc StateCount
		if err := stateRows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan state count")
		}
		stats.TopStates = append(stats.TopStates, sc)
	}
	if err := stateRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by state iterate")
	}

	return stats, nil
}

func (s *PostgresStore) MissingGenre(ctx context.Context, limit int) ([]model.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE genre IS NULL ORDER BY id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: missing genre")
	}
	defer rows.Close()
	return collectPgStations(rows)
}

func (s *PostgresStore) UpdateGenre(ctx context.Context, id int64, genre string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE stations SET genre = $1 WHERE id = $2`, genre, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update genre for %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("station not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) Nearest(ctx context.Context, lat, lon float64, limit int) ([]NearbyStation, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+stationColumns+` FROM stations
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: nearest")
	}
	defer rows.Close()

	stations, err := collectPgStations(rows)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyStation, 0, len(stations))
	for _, st := range stations {
		nearby = append(nearby, NearbyStation{
			Station:    st,
			DistanceKM: geo.DistanceKM(lat, lon, *st.Latitude, *st.Longitude),
		})
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKM < nearby[j].DistanceKM })
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

func (s *PostgresStore) QuotaUsed(ctx context.Context, day string) (int, error) {
	var used int
	err := s.pool.QueryRow(ctx,
		`SELECT used FROM enrichment_quota WHERE day = $1`, day).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: quota used for %s", day)
	}
	return used, nil
}

func (s *PostgresStore) AddQuotaUsed(ctx context.Context, day string, n int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_quota (day, used) VALUES ($1, $2)
		 ON CONFLICT (day) DO UPDATE SET used = enrichment_quota.used + EXCLUDED.used`,
		day, n,
	)
	return eris.Wrapf(err, "postgres: add quota used for %s", day)
}

func (s *PostgresStore) RecordIngestRun(ctx context.Context, run model.IngestRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, service, source, lines, parsed, skipped,
			inserted, updated, conflicts, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, string(run.Service), run.Source, run.Lines, run.Parsed, run.Skipped,
		run.Inserted, run.Updated, run.Conflicts, run.StartedAt, run.FinishedAt,
	)
	return eris.Wrap(err, "postgres: record ingest run")
}

// helpers

func scanPgStation(row pgx.Row) (*model.Station, error) {
	var st model.Station
	err := row.Scan(&st.ID, &st.CallSign, &st.FacilityID, &st.ServiceType, &st.Frequency,
		&st.StationName, &st.City, &st.State, &st.Latitude, &st.Longitude,
		&st.PowerWatts, &st.CoverageRadiusKM, &st.Genre, &st.Status, &st.DataSource,
		&st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func collectPgStations(rows pgx.Rows) ([]model.Station, error) {
	var out []model.Station
	for rows.Next() {
		st, err := scanPgStation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan station")
		}
		out = append(out, *st)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate stations")
}
