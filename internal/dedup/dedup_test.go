package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dialscan/stationdb/internal/model"
)

func strPtr(s string) *string   { return &s }
func i64Ptr(i int64) *int64     { return &i }
func f64Ptr(f float64) *float64 { return &f }

func baseStation() model.Station {
	return model.Station{
		ID:          1,
		CallSign:    "KQED-FM",
		FacilityID:  i64Ptr(35500),
		ServiceType: model.ServiceFM,
		Frequency:   88.5,
		City:        "SAN FRANCISCO",
		State:       "CA",
		Latitude:    f64Ptr(37.7553),
		Longitude:   f64Ptr(-122.4367),
		Genre:       strPtr("Public Radio"),
		Status:      "LIC",
		DataSource:  "FCC_FM",
		CreatedAt:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestMerge_RequiredFieldsLastWriteWins(t *testing.T) {
	incoming := model.StationDraft{
		CallSign:    "KQED-FM",
		ServiceType: model.ServiceFM,
		Frequency:   88.5,
		City:        "OAKLAND",
		State:       "CA",
		Status:      "ACTIVE",
		DataSource:  "FCC_FM",
	}

	merged := Merge(baseStation(), incoming)
	assert.Equal(t, "OAKLAND", merged.City)
	assert.Equal(t, "ACTIVE", merged.Status)
	assert.Equal(t, int64(1), merged.ID)
}

func TestMerge_IncomingNullKeepsExisting(t *testing.T) {
	incoming := model.StationDraft{
		CallSign:    "KQED-FM",
		ServiceType: model.ServiceFM,
		Frequency:   88.5,
		City:        "SAN FRANCISCO",
		State:       "CA",
		Status:      "LIC",
		DataSource:  "FCC_FM",
		// no facility id, coordinates, name, or power
	}

	merged := Merge(baseStation(), incoming)
	assert.Equal(t, int64(35500), *merged.FacilityID)
	assert.InDelta(t, 37.7553, *merged.Latitude, 0.0001)
	assert.InDelta(t, -122.4367, *merged.Longitude, 0.0001)
}

func TestMerge_IncomingValueWins(t *testing.T) {
	incoming := model.StationDraft{
		CallSign:    "KQED-FM",
		ServiceType: model.ServiceFM,
		Frequency:   88.5,
		City:        "SAN FRANCISCO",
		State:       "CA",
		PowerWatts:  f64Ptr(110000),
		StationName: strPtr("KQED PUBLIC MEDIA"),
		Status:      "LIC",
		DataSource:  "FCC_FM",
	}

	merged := Merge(baseStation(), incoming)
	assert.Equal(t, float64(110000), *merged.PowerWatts)
	assert.Equal(t, "KQED PUBLIC MEDIA", *merged.StationName)
}

func TestMerge_GenreAndCreatedAtUntouched(t *testing.T) {
	existing := baseStation()
	incoming := model.StationDraft{
		CallSign:    "KQED-FM",
		ServiceType: model.ServiceFM,
		Frequency:   88.5,
		City:        "SAN FRANCISCO",
		State:       "CA",
		Status:      "LIC",
		DataSource:  "FCC_FM",
	}

	merged := Merge(existing, incoming)
	assert.Equal(t, "Public Radio", *merged.Genre)
	assert.Equal(t, existing.CreatedAt, merged.CreatedAt)
}

func TestConflictError_Message(t *testing.T) {
	err := &ConflictError{CallSign: "KNEW", FacilityID: 1234, ClaimedBy: "KGO"}
	assert.Equal(t, "facility 1234 claimed by both KGO and KNEW", err.Error())
}
