package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialscan/stationdb/internal/dedup"
	"github.com/dialscan/stationdb/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func i64Ptr(i int64) *int64     { return &i }
func f64Ptr(f float64) *float64 { return &f }
func strPtr(s string) *string   { return &s }

func draftKQED() model.StationDraft {
	return model.StationDraft{
		CallSign:    "KQED-FM",
		FacilityID:  i64Ptr(35500),
		ServiceType: model.ServiceFM,
		Frequency:   88.5,
		StationName: strPtr("KQED PUBLIC MEDIA"),
		City:        "SAN FRANCISCO",
		State:       "CA",
		Latitude:    f64Ptr(37.7553),
		Longitude:   f64Ptr(-122.4367),
		PowerWatts:  f64Ptr(110000),
		Status:      "LIC",
		DataSource:  "FCC_FM",
	}
}

// --- Upsert ---

func TestSQLite_Upsert_Insert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, inserted, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, id)

	got, err := st.GetByCallSign(ctx, "KQED-FM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SAN FRANCISCO", got.City)
	assert.Equal(t, int64(35500), *got.FacilityID)
	assert.InDelta(t, 88.5, got.Frequency, 0.001)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_Upsert_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id1, inserted, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)
	assert.True(t, inserted)

	id2, inserted, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id1, id2)

	stations, err := st.Search(ctx, "KQED", 10)
	require.NoError(t, err)
	assert.Len(t, stations, 1)
}

func TestSQLite_Upsert_UpdateWins(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, _, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)

	moved := draftKQED()
	moved.City = "OAKLAND"
	_, inserted, err := st.UpsertStation(ctx, moved)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := st.GetByCallSign(ctx, "KQED-FM")
	require.NoError(t, err)
	assert.Equal(t, "OAKLAND", got.City)
}

func TestSQLite_Upsert_NullNeverOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, _, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)

	sparse := draftKQED()
	sparse.Latitude = nil
	sparse.Longitude = nil
	sparse.StationName = nil
	_, _, err = st.UpsertStation(ctx, sparse)
	require.NoError(t, err)

	got, err := st.GetByCallSign(ctx, "KQED-FM")
	require.NoError(t, err)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 37.7553, *got.Latitude, 0.0001)
	assert.Equal(t, "KQED PUBLIC MEDIA", *got.StationName)
}

func TestSQLite_Upsert_PreservesGenreAndCreatedAt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, _, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)
	require.NoError(t, st.UpdateGenre(ctx, id, "Public Radio"))

	before, err := st.GetByCallSign(ctx, "KQED-FM")
	require.NoError(t, err)

	_, _, err = st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)

	after, err := st.GetByCallSign(ctx, "KQED-FM")
	require.NoError(t, err)
	require.NotNil(t, after.Genre)
	assert.Equal(t, "Public Radio", *after.Genre)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestSQLite_Upsert_FacilityConflict(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, _, err := st.UpsertStation(ctx, draftKQED())
	require.NoError(t, err)

	imposter := draftKQED()
	imposter.CallSign = "KNEW"
	_, _, err = st.UpsertStation(ctx, imposter)

	var conflict *dedup.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "KNEW", conflict.CallSign)
	assert.Equal(t, int64(35500), conflict.FacilityID)
	assert.Equal(t, "KQED-FM", conflict.ClaimedBy)

	// Nothing written.
	got, err := st.GetByCallSign(ctx, "KNEW")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_GetByCallSign_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetByCallSign(context.Background(), "WXYZ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// --- Queries ---

func seedStations(t *testing.T, st *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	drafts := []model.StationDraft{
		draftKQED(),
		{
			CallSign: "KGO", FacilityID: i64Ptr(1250), ServiceType: model.ServiceAM,
			Frequency: 810, City: "SAN FRANCISCO", State: "CA",
			Latitude: f64Ptr(37.53), Longitude: f64Ptr(-122.1),
			Status: "LIC", DataSource: "FCC_AM",
		},
		{
			CallSign: "WNYC-FM", FacilityID: i64Ptr(68902), ServiceType: model.ServiceFM,
			Frequency: 93.9, City: "NEW YORK", State: "NY",
			Latitude: f64Ptr(40.748), Longitude: f64Ptr(-73.985),
			Status: "LIC", DataSource: "FCC_FM",
		},
	}
	for _, d := range drafts {
		_, _, err := st.UpsertStation(ctx, d)
		require.NoError(t, err)
	}
}

func TestSQLite_Search(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedStations(t, st)
	ctx := context.Background()

	byCall, err := st.Search(ctx, "KQED", 10)
	require.NoError(t, err)
	require.Len(t, byCall, 1)
	assert.Equal(t, "KQED-FM", byCall[0].CallSign)

	byCity, err := st.Search(ctx, "SAN FRAN", 10)
	require.NoError(t, err)
	assert.Len(t, byCity, 2)

	none, err := st.Search(ctx, "ZZZZ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedStations(t, st)
	ctx := context.Background()

	first, err := st.GetByCallSign(ctx, "KQED-FM")
	require.NoError(t, err)
	require.NoError(t, st.UpdateGenre(ctx, first.ID, "Public Radio"))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, ServiceCount{Total: 2, WithGenre: 1}, stats.ByService[model.ServiceFM])
	assert.Equal(t, ServiceCount{Total: 1, WithGenre: 0}, stats.ByService[model.ServiceAM])
	assert.Equal(t, 3, stats.ByStatus["LIC"])
	require.NotEmpty(t, stats.TopStates)
	assert.Equal(t, StateCount{State: "CA", Count: 2}, stats.TopStates[0])
}

func TestSQLite_MissingGenre_OrderAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedStations(t, st)
	ctx := context.Background()

	all, err := st.MissingGenre(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].ID, all[i-1].ID)
	}

	require.NoError(t, st.UpdateGenre(ctx, all[0].ID, "Public Radio"))

	rest, err := st.MissingGenre(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, all[1].ID, rest[0].ID)
}

func TestSQLite_UpdateGenre_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.UpdateGenre(context.Background(), 999, "Jazz")
	assert.Error(t, err)
}

func TestSQLite_Nearest(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedStations(t, st)
	ctx := context.Background()

	// Query from downtown San Francisco.
	nearby, err := st.Nearest(ctx, 37.77, -122.42, 2)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "KQED-FM", nearby[0].CallSign)
	assert.Less(t, nearby[0].DistanceKM, nearby[1].DistanceKM)
	assert.NotEqual(t, "WNYC-FM", nearby[0].CallSign)
	assert.NotEqual(t, "WNYC-FM", nearby[1].CallSign)
}

// --- Quota ---

func TestSQLite_Quota_Accumulates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	used, err := st.QuotaUsed(ctx, "2026-08-31")
	require.NoError(t, err)
	assert.Zero(t, used)

	require.NoError(t, st.AddQuotaUsed(ctx, "2026-08-31", 1))
	require.NoError(t, st.AddQuotaUsed(ctx, "2026-08-31", 3))

	used, err = st.QuotaUsed(ctx, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, 4, used)

	// Other days are untouched.
	other, err := st.QuotaUsed(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Zero(t, other)
}

// --- Ingest runs ---

func TestSQLite_RecordIngestRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	err := st.RecordIngestRun(ctx, model.IngestRun{
		ID:         "run-1",
		Service:    model.ServiceFM,
		Source:     "https://example.com/fmq",
		Lines:      100,
		Parsed:     95,
		Skipped:    5,
		Inserted:   90,
		Updated:    5,
		Conflicts:  0,
		StartedAt:  now,
		FinishedAt: now.Add(2 * time.Second),
	})
	require.NoError(t, err)
}
