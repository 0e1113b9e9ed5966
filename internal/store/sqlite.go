package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dialscan/stationdb/internal/dedup"
	"github.com/dialscan/stationdb/internal/geo"
	"github.com/dialscan/stationdb/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stations (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	call_sign          TEXT NOT NULL UNIQUE,
	facility_id        INTEGER UNIQUE,
	service_type       TEXT NOT NULL CHECK (service_type IN ('FM', 'AM')),
	frequency          REAL NOT NULL,
	station_name       TEXT,
	city               TEXT NOT NULL,
	state              TEXT NOT NULL,
	latitude           REAL,
	longitude          REAL,
	power_watts        REAL,
	coverage_radius_km REAL,
	genre              TEXT,
	status             TEXT NOT NULL DEFAULT 'ACTIVE',
	data_source        TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
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
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment_quota (
	day  TEXT PRIMARY KEY,
	used INTEGER NOT NULL DEFAULT 0
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const stationColumns = `id, call_sign, facility_id, service_type, frequency, station_name,
	city, state, latitude, longitude, power_watts, coverage_radius_km,
	genre, status, data_source, created_at`

// UpsertStation inserts or merges a draft keyed by call sign. The whole
// decision runs in one transaction so a failed write leaves no partial row.
func (s *SQLiteStore) UpsertStation(ctx context.Context, draft model.StationDraft) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	// Secondary identity check: a facility id already claimed by a
	// different call sign is a data-quality conflict, not an update.
	if draft.FacilityID != nil {
		var owner string
		err := tx.QueryRowContext(ctx,
			`SELECT call_sign FROM stations WHERE facility_id = ? AND call_sign != ?`,
			*draft.FacilityID, draft.CallSign,
		).Scan(&owner)
		switch {
		case err == nil:
			return 0, false, &dedup.ConflictError{
				CallSign:   draft.CallSign,
				FacilityID: *draft.FacilityID,
				ClaimedBy:  owner,
			}
		case err != sql.ErrNoRows:
			return 0, false, eris.Wrap(err, "sqlite: facility conflict check")
		}
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE call_sign = ?`, draft.CallSign)
	existing, err := scanStation(row)
	if err != nil && err != sql.ErrNoRows {
		return 0, false, eris.Wrap(err, "sqlite: load existing station")
	}

	var id int64
	inserted := existing == nil
	if inserted {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO stations (call_sign, facility_id, service_type, frequency, station_name,
				city, state, latitude, longitude, power_watts, coverage_radius_km,
				status, data_source, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			draft.CallSign, draft.FacilityID, string(draft.ServiceType), draft.Frequency,
			draft.StationName, draft.City, draft.State, draft.Latitude, draft.Longitude,
			draft.PowerWatts, draft.CoverageRadiusKM, draft.Status, draft.DataSource,
			time.Now().UTC(),
		)
		if err != nil {
			return 0, false, eris.Wrapf(err, "sqlite: insert station %s", draft.CallSign)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, eris.Wrap(err, "sqlite: last insert id")
		}
	} else {
		merged := dedup.Merge(*existing, draft)
		// created_at and genre are deliberately absent from the SET list.
		_, err := tx.ExecContext(ctx,
			`UPDATE stations SET facility_id = ?, service_type = ?, frequency = ?,
				station_name = ?, city = ?, state = ?, latitude = ?, longitude = ?,
				power_watts = ?, coverage_radius_km = ?, status = ?, data_source = ?
			 WHERE id = ?`,
			merged.FacilityID, string(merged.ServiceType), merged.Frequency,
			merged.StationName, merged.City, merged.State, merged.Latitude, merged.Longitude,
			merged.PowerWatts, merged.CoverageRadiusKM, merged.Status, merged.DataSource,
			existing.ID,
		)
		if err != nil {
			return 0, false, eris.Wrapf(err, "sqlite: update station %s", draft.CallSign)
		}
		id = existing.ID
	}

	if err := tx.Commit(); err != nil {
		return 0, false, eris.Wrap(err, "sqlite: commit upsert")
	}
	return id, inserted, nil
}

func (s *SQLiteStore) GetByCallSign(ctx context.Context, callSign string) (*model.Station, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE call_sign = ?`, callSign)
	st, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get station %s", callSign)
	}
	return st, nil
}

func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]model.Station, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stationColumns+` FROM stations
		 WHERE call_sign LIKE ? OR city LIKE ?
		 ORDER BY call_sign LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search")
	}
	defer rows.Close()
	return collectStations(rows)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByService: make(map[model.ServiceType]ServiceCount),
		ByStatus:  make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT service_type, COUNT(*), COUNT(genre) FROM stations GROUP BY service_type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by service")
	}
	defer rows.Close()
	for rows.Next() {
		var svc string
		var sc ServiceCount
		if err := rows.Scan(&svc, &sc.Total, &sc.WithGenre); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan service count")
		}
		stats.ByService[model.ServiceType(svc)] = sc
		stats.Total += sc.Total
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by service iterate")
	}

	statusRows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM stations GROUP BY status ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by status")
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var n int
		if err := statusRows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		stats.ByStatus[status] = n
	}
	if err := statusRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by status iterate")
	}

	stateRows, err := s.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM stations GROUP BY state ORDER BY COUNT(*) DESC LIMIT 10`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by state")
	}
	defer stateRows.Close()
	for stateRows.Next() {
		var sc StateCount
		if err := stateRows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan state count")
		}
		stats.TopStates = append(stats.TopStates, sc)
	}
	if err := stateRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by state iterate")
	}

	return stats, nil
}

func (s *SQLiteStore) MissingGenre(ctx context.Context, limit int) ([]model.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE genre IS NULL ORDER BY id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: missing genre")
	}
	defer rows.Close()
	return collectStations(rows)
}

func (s *SQLiteStore) UpdateGenre(ctx context.Context, id int64, genre string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stations SET genre = ? WHERE id = ?`, genre, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update genre for %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("station not found: %d", id)
	}
	return nil
}

func (s *SQLiteStore) Nearest(ctx context.Context, lat, lon float64, limit int) ([]NearbyStation, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stationColumns+` FROM stations
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: nearest")
	}
	defer rows.Close()

	stations, err := collectStations(rows)
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

func (s *SQLiteStore) QuotaUsed(ctx context.Context, day string) (int, error) {
	var used int
	err := s.db.QueryRowContext(ctx,
		`SELECT used FROM enrichment_quota WHERE day = ?`, day).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: quota used for %s", day)
	}
	return used, nil
}

func (s *SQLiteStore) AddQuotaUsed(ctx context.Context, day string, n int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_quota (day, used) VALUES (?, ?)
		 ON CONFLICT(day) DO UPDATE SET used = used + excluded.used`,
		day, n,
	)
	return eris.Wrapf(err, "sqlite: add quota used for %s", day)
}

func (s *SQLiteStore) RecordIngestRun(ctx context.Context, run model.IngestRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, service, source, lines, parsed, skipped,
			inserted, updated, conflicts, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Service), run.Source, run.Lines, run.Parsed, run.Skipped,
		run.Inserted, run.Updated, run.Conflicts, run.StartedAt, run.FinishedAt,
	)
	return eris.Wrap(err, "sqlite: record ingest run")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanStation(row scannable) (*model.Station, error) {
	var st model.Station
	var facilityID sql.NullInt64
	var stationName, genre sql.NullString
	var lat, lon, power, radius sql.NullFloat64

	err := row.Scan(&st.ID, &st.CallSign, &facilityID, &st.ServiceType, &st.Frequency,
		&stationName, &st.City, &st.State, &lat, &lon, &power, &radius,
		&genre, &st.Status, &st.DataSource, &st.CreatedAt)
	if err != nil {
		return nil, err
	}

	if facilityID.Valid {
		st.FacilityID = &facilityID.Int64
	}
	if stationName.Valid {
		st.StationName = &stationName.String
	}
	if lat.Valid {
		st.Latitude = &lat.Float64
	}
	if lon.Valid {
		st.Longitude = &lon.Float64
	}
	if power.Valid {
		st.PowerWatts = &power.Float64
	}
	if radius.Valid {
		st.CoverageRadiusKM = &radius.Float64
	}
	if genre.Valid {
		st.Genre = &genre.String
	}
	return &st, nil
}

func collectStations(rows *sql.Rows) ([]model.Station, error) {
	var out []model.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan station")
		}
		out = append(out, *st)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate stations")
}
