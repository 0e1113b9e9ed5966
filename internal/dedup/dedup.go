// Package dedup implements the identity and merge policy for stations that
// arrive repeatedly across fetch runs. Call sign is the primary identity
// key; facility id is a secondary uniqueness check used to surface
// cross-source conflicts.
package dedup

import (
	"fmt"

	"github.com/dialscan/stationdb/internal/model"
)

// ConflictError reports a facility id already claimed by a different call
// sign. The incoming row is not written; the caller surfaces the conflict
// as a data-quality report.
type ConflictError struct {
	CallSign   string
	FacilityID int64
	ClaimedBy  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("facility %d claimed by both %s and %s", e.FacilityID, e.ClaimedBy, e.CallSign)
}

// Merge folds an incoming draft into the existing row for the same call
// sign. Policy: incoming wins when the existing value is null; when both
// are set and differ, the most recently supplied value wins. Two fields are
// exempt: created_at is never overwritten, and genre is never touched by
// ingestion (only the enrichment driver writes it).
func Merge(existing model.Station, incoming model.StationDraft) model.Station {
	merged := existing

	// Required fields are always present on the draft: last write wins.
	merged.ServiceType = incoming.ServiceType
	merged.Frequency = incoming.Frequency
	merged.City = incoming.City
	merged.State = incoming.State
	merged.Status = incoming.Status
	merged.DataSource = incoming.DataSource

	merged.FacilityID = mergeInt64(existing.FacilityID, incoming.FacilityID)
	merged.StationName = mergeString(existing.StationName, incoming.StationName)
	merged.Latitude = mergeFloat(existing.Latitude, incoming.Latitude)
	merged.Longitude = mergeFloat(existing.Longitude, incoming.Longitude)
	merged.PowerWatts = mergeFloat(existing.PowerWatts, incoming.PowerWatts)
	merged.CoverageRadiusKM = mergeFloat(existing.CoverageRadiusKM, incoming.CoverageRadiusKM)

	return merged
}

func mergeInt64(existing, incoming *int64) *int64 {
	if incoming != nil {
		return incoming
	}
	return existing
}

func mergeString(existing, incoming *string) *string {
	if incoming != nil {
		return incoming
	}
	return existing
}

func mergeFloat(existing, incoming *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return existing
}
