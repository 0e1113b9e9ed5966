package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/dialscan/stationdb/internal/model"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestWriteXLSX(t *testing.T) {
	stations := []model.Station{
		{
			ID: 1, CallSign: "KQED-FM", ServiceType: model.ServiceFM, Frequency: 88.5,
			StationName: strPtr("KQED PUBLIC MEDIA"), City: "SAN FRANCISCO", State: "CA",
			Latitude: f64Ptr(37.7553), Longitude: f64Ptr(-122.4367),
			PowerWatts: f64Ptr(110000), Genre: strPtr("Public Radio"),
			Status: "LIC", DataSource: "FCC_FM", CreatedAt: time.Now(),
		},
		{
			ID: 2, CallSign: "KGO", ServiceType: model.ServiceAM, Frequency: 810,
			City: "SAN FRANCISCO", State: "CA",
			Status: "LIC", DataSource: "FCC_AM", CreatedAt: time.Now(),
		},
	}

	path := filepath.Join(t.TempDir(), "stations.xlsx")
	require.NoError(t, WriteXLSX(path, stations))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Stations", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Call Sign", sheet.Rows[0].Cells[0].String())

	first := sheet.Rows[1]
	assert.Equal(t, "KQED-FM", first.Cells[0].String())
	assert.Equal(t, "FM", first.Cells[1].String())
	assert.Equal(t, "88.5 MHz", first.Cells[2].String())
	assert.Equal(t, "KQED PUBLIC MEDIA", first.Cells[3].String())
	assert.Equal(t, "37.755300", first.Cells[6].String())
	assert.Equal(t, "110000", first.Cells[8].String())
	assert.Equal(t, "Public Radio", first.Cells[9].String())

	// Null optional fields come through blank.
	second := sheet.Rows[2]
	assert.Equal(t, "810 kHz", second.Cells[2].String())
	assert.Empty(t, second.Cells[3].String())
	assert.Empty(t, second.Cells[6].String())
	assert.Empty(t, second.Cells[9].String())
}
