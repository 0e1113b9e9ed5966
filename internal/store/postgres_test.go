package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialscan/stationdb/internal/dedup"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var pgStationCols = []string{
	"id", "call_sign", "facility_id", "service_type", "frequency", "station_name",
	"city", "state", "latitude", "longitude", "power_watts", "coverage_radius_km",
	"genre", "status", "data_source", "created_at",
}

func TestPostgresStore_GetByCallSign_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM stations WHERE call_sign = \$1`).
		WithArgs("WXYZ").
		WillReturnError(pgx.ErrNoRows)

	st, err := s.GetByCallSign(context.Background(), "WXYZ")
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByCallSign_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM stations WHERE call_sign = \$1`).
		WithArgs("KQED-FM").
		WillReturnRows(pgxmock.NewRows(pgStationCols).AddRow(
			int64(1), "KQED-FM", i64Ptr(35500), "FM", 88.5, strPtr("KQED PUBLIC MEDIA"),
			"SAN FRANCISCO", "CA", f64Ptr(37.7553), f64Ptr(-122.4367), f64Ptr(110000), nil,
			nil, "LIC", "FCC_FM", created,
		))

	st, err := s.GetByCallSign(context.Background(), "KQED-FM")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, int64(1), st.ID)
	assert.Equal(t, int64(35500), *st.FacilityID)
	assert.Nil(t, st.Genre)
	assert.Equal(t, created, st.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upsert_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT call_sign FROM stations WHERE facility_id = \$1`).
		WithArgs(int64(35500), "KQED-FM").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM stations WHERE call_sign = \$1`).
		WithArgs("KQED-FM").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO stations`).
		WithArgs("KQED-FM", i64Ptr(35500), "FM", 88.5, strPtr("KQED PUBLIC MEDIA"),
			"SAN FRANCISCO", "CA", f64Ptr(37.7553), f64Ptr(-122.4367), f64Ptr(110000),
			pgxmock.AnyArg(), "LIC", "FCC_FM").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	id, inserted, err := s.UpsertStation(context.Background(), draftKQED())
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upsert_FacilityConflict(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT call_sign FROM stations WHERE facility_id = \$1`).
		WithArgs(int64(35500), "KNEW").
		WillReturnRows(pgxmock.NewRows([]string{"call_sign"}).AddRow("KQED-FM"))
	mock.ExpectRollback()

	draft := draftKQED()
	draft.CallSign = "KNEW"
	_, _, err := s.UpsertStation(context.Background(), draft)

	var conflict *dedup.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "KQED-FM", conflict.ClaimedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateGenre(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE stations SET genre = \$1 WHERE id = \$2`).
		WithArgs("Jazz", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateGenre(context.Background(), 3, "Jazz"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateGenre_Missing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE stations SET genre = \$1 WHERE id = \$2`).
		WithArgs("Jazz", int64(999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateGenre(context.Background(), 999, "Jazz")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QuotaUsed_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT used FROM enrichment_quota WHERE day = \$1`).
		WithArgs("2026-08-31").
		WillReturnError(pgx.ErrNoRows)

	used, err := s.QuotaUsed(context.Background(), "2026-08-31")
	require.NoError(t, err)
	assert.Zero(t, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddQuotaUsed_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(day\)`).
		WithArgs("2026-08-31", 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AddQuotaUsed(context.Background(), "2026-08-31", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MissingGenre(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM stations WHERE genre IS NULL ORDER BY id ASC LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows(pgStationCols).
			AddRow(int64(1), "KQED-FM", i64Ptr(35500), "FM", 88.5, nil,
				"SAN FRANCISCO", "CA", nil, nil, nil, nil, nil, "LIC", "FCC_FM", created).
			AddRow(int64(2), "KGO", i64Ptr(1250), "AM", 810.0, nil,
				"SAN FRANCISCO", "CA", nil, nil, nil, nil, nil, "LIC", "FCC_AM", created))

	stations, err := s.MissingGenre(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "KQED-FM", stations[0].CallSign)
	assert.Equal(t, "KGO", stations[1].CallSign)
	assert.NoError(t, mock.ExpectationsWereMet())
}
