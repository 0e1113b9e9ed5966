package fcc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialscan/stationdb/internal/model"
)

// feedLine builds a pipe-delimited line with n columns, filling the given
// indices and leaving the rest blank.
func feedLine(n int, vals map[int]string) string {
	fields := make([]string, n)
	for i, v := range vals {
		fields[i] = v
	}
	return strings.Join(fields, "|")
}

// fmLine builds a plausible FM feed line in the real dump layout.
func fmLine(overrides map[int]string) string {
	vals := map[int]string{
		1:  "KQED-FM ",
		2:  "88.5  MHz",
		3:  "FM",
		9:  "LIC",
		10: "SAN FRANCISCO",
		11: "CA",
		12: "US",
		13: "35500",
		14: "110.    kW",
		19: "N",
		20: "37",
		21: "45",
		22: "19.0",
		23: "W",
		24: "122",
		25: "26",
		26: "12.0",
		30: "KQED PUBLIC MEDIA",
	}
	for i, v := range overrides {
		vals[i] = v
	}
	return feedLine(36, vals)
}

func TestParse_MappedFields(t *testing.T) {
	p, err := NewParser(model.ServiceFM)
	require.NoError(t, err)

	rec, err := p.Parse(fmLine(nil), 1)
	require.NoError(t, err)

	assert.Equal(t, "KQED-FM", rec.Field("call_sign"))
	assert.Equal(t, "88.5  MHz", rec.Field("frequency"))
	assert.Equal(t, "SAN FRANCISCO", rec.Field("city"))
	assert.Equal(t, "CA", rec.Field("state"))
	assert.Equal(t, "35500", rec.Field("facility_id"))
	assert.Equal(t, model.ServiceFM, rec.Service)
	assert.Equal(t, 1, rec.Line)
}

func TestParse_TooFewFields(t *testing.T) {
	p, err := NewParser(model.ServiceFM)
	require.NoError(t, err)

	_, err = p.Parse("KQED|88.5", 7)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 7, perr.Line)
	assert.Equal(t, "too few fields", perr.Reason)
}

func TestParse_EmptyCallSign(t *testing.T) {
	p, err := NewParser(model.ServiceFM)
	require.NoError(t, err)

	_, err = p.Parse(fmLine(map[int]string{1: "   "}), 3)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "empty call sign", perr.Reason)
}

func TestField_UnmappedName(t *testing.T) {
	p, err := NewParser(model.ServiceAM)
	require.NoError(t, err)

	rec, err := p.Parse(fmLine(map[int]string{2: "810   kHz"}), 1)
	require.NoError(t, err)
	assert.Empty(t, rec.Field("no_such_field"))
}

func TestTrailing_ClipsToRecordLength(t *testing.T) {
	p, err := NewParser(model.ServiceFM)
	require.NoError(t, err)

	rec, err := p.Parse(fmLine(nil), 1)
	require.NoError(t, err)

	cols := rec.Trailing(30, 100)
	require.Len(t, cols, 6)
	assert.Equal(t, "KQED PUBLIC MEDIA", cols[0])

	assert.Nil(t, rec.Trailing(40, 50))
	assert.Nil(t, rec.Trailing(10, 10))
}

func TestFormatFor_MinFields(t *testing.T) {
	f, err := FormatFor(model.ServiceFM)
	require.NoError(t, err)
	assert.Equal(t, 27, f.Fields.MinFields())

	_, err = FormatFor(model.ServiceType("TV"))
	assert.Error(t, err)
}
