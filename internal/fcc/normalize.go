package fcc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dialscan/stationdb/internal/model"
)

// Trailing column range scanned for the licensee name, which the feeds place
// in an unstable position after the coordinate block.
const (
	licenseeScanFrom = 25
	licenseeScanTo   = 35
	licenseeMinLen   = 11
)

var numberRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// Normalize coerces a parsed record into a canonical StationDraft, stamped
// with the caller-supplied data source. Returns a *ValidationError when a
// value falls outside the schema's domain constraints.
func Normalize(rec *Record, dataSource string) (*model.StationDraft, error) {
	callSign := strings.ToUpper(rec.Field("call_sign"))

	freq, ok := parseNumber(rec.Field("frequency"))
	if !ok {
		return nil, &ValidationError{CallSign: callSign, Field: "frequency", Reason: "not numeric: " + rec.Field("frequency")}
	}
	// Out-of-band frequencies are flagged, never clamped.
	if !rec.Service.InBand(freq) {
		min, max := rec.Service.Band()
		return nil, &ValidationError{
			CallSign: callSign,
			Field:    "frequency",
			Reason:   rec.Field("frequency") + " outside " + formatBand(min, max, rec.Service.Unit()),
		}
	}

	city := rec.Field("city")
	if city == "" {
		return nil, &ValidationError{CallSign: callSign, Field: "city", Reason: "missing"}
	}
	state := rec.Field("state")
	if state == "" {
		return nil, &ValidationError{CallSign: callSign, Field: "state", Reason: "missing"}
	}

	draft := &model.StationDraft{
		CallSign:    callSign,
		ServiceType: rec.Service,
		Frequency:   freq,
		City:        city,
		State:       state,
		Status:      model.StatusActive,
		DataSource:  dataSource,
	}

	if status := rec.Field("status"); status != "" {
		draft.Status = status
	}

	if id, err := strconv.ParseInt(rec.Field("facility_id"), 10, 64); err == nil {
		draft.FacilityID = &id
	}

	if watts, ok := parsePowerWatts(rec.Field("power")); ok {
		draft.PowerWatts = &watts
	}

	if lat, lon, ok := parseCoordinates(rec); ok {
		draft.Latitude = &lat
		draft.Longitude = &lon
	}

	if name := findLicensee(rec); name != "" {
		draft.StationName = &name
	}

	return draft, nil
}

// parseNumber extracts the first numeric token from strings like
// "88.1  MHz" or "540   kHz".
func parseNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parsePowerWatts converts a feed power field like "2.5    kW" to watts.
// "-" marks stations with no reported power.
func parsePowerWatts(s string) (float64, bool) {
	if s == "" || s == "-" {
		return 0, false
	}
	kw, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return kw * 1000, true
}

// parseCoordinates converts the feed's degrees-minutes-seconds columns to
// signed decimal degrees. Unparseable or implausible coordinates yield
// ok=false so the draft carries null, never a 0,0 sentinel.
func parseCoordinates(rec *Record) (lat, lon float64, ok bool) {
	latDeg, okD := atoiField(rec, "lat_degrees")
	lonDeg, okL := atoiField(rec, "lon_degrees")
	if !okD || !okL {
		return 0, 0, false
	}

	latMin, _ := atoiField(rec, "lat_minutes")
	latSec, _ := atofField(rec, "lat_seconds")
	lonMin, _ := atoiField(rec, "lon_minutes")
	lonSec, _ := atofField(rec, "lon_seconds")

	lat = float64(latDeg) + float64(latMin)/60 + latSec/3600
	lon = float64(lonDeg) + float64(lonMin)/60 + lonSec/3600

	if strings.EqualFold(rec.Field("lat_direction"), "S") {
		lat = -lat
	}
	// The feeds report western hemisphere longitudes as positive numbers.
	if !strings.EqualFold(rec.Field("lon_direction"), "E") {
		lon = -lon
	}

	// Plausibility bounds for FCC-licensed territory.
	if lat < 18 || lat > 72 || lon < -180 || lon > -60 {
		return 0, 0, false
	}
	return lat, lon, true
}

// findLicensee scans the trailing columns for the licensee name, the one
// long free-text field after the coordinate block.
func findLicensee(rec *Record) string {
	for _, f := range rec.Trailing(licenseeScanFrom, licenseeScanTo) {
		if len(f) >= licenseeMinLen {
			return f
		}
	}
	return ""
}

func atoiField(rec *Record, name string) (int, bool) {
	v, err := strconv.Atoi(rec.Field(name))
	if err != nil {
		return 0, false
	}
	return v, true
}

func atofField(rec *Record, name string) (float64, bool) {
	v, err := strconv.ParseFloat(rec.Field(name), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatBand(min, max float64, unit string) string {
	return strconv.FormatFloat(min, 'f', -1, 64) + "-" + strconv.FormatFloat(max, 'f', -1, 64) + " " + unit
}
