package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ServiceType identifies the broadcast service of a station.
type ServiceType string

const (
	ServiceFM ServiceType = "FM"
	ServiceAM ServiceType = "AM"
)

// ParseServiceType converts a string like "fm" or "AM" into a ServiceType.
func ParseServiceType(s string) (ServiceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FM":
		return ServiceFM, nil
	case "AM":
		return ServiceAM, nil
	default:
		return "", eris.Errorf("unknown service type: %q (valid: FM, AM)", s)
	}
}

// Unit returns the native frequency unit for the service.
func (s ServiceType) Unit() string {
	if s == ServiceAM {
		return "kHz"
	}
	return "MHz"
}

// Band returns the valid frequency range for the service in its native unit.
// FM stations broadcast 88.1–107.9 MHz; AM stations 530–1700 kHz.
func (s ServiceType) Band() (min, max float64) {
	if s == ServiceAM {
		return 530, 1700
	}
	return 88.1, 107.9
}

// InBand reports whether freq (in the service's native unit) is broadcastable.
func (s ServiceType) InBand(freq float64) bool {
	min, max := s.Band()
	return freq >= min && freq <= max
}

// StatusActive is the default license status for stations that do not
// report one.
const StatusActive = "ACTIVE"

// Station is a persisted radio station row.
type Station struct {
	ID               int64       `json:"id"`
	CallSign         string      `json:"call_sign"`
	FacilityID       *int64      `json:"facility_id,omitempty"`
	ServiceType      ServiceType `json:"service_type"`
	Frequency        float64     `json:"frequency"`
	StationName      *string     `json:"station_name,omitempty"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	Latitude         *float64    `json:"latitude,omitempty"`
	Longitude        *float64    `json:"longitude,omitempty"`
	PowerWatts       *float64    `json:"power_watts,omitempty"`
	CoverageRadiusKM *float64    `json:"coverage_radius_km,omitempty"`
	Genre            *string     `json:"genre,omitempty"`
	Status           string      `json:"status"`
	DataSource       string      `json:"data_source"`
	CreatedAt        time.Time   `json:"created_at"`
}

// StationDraft is a normalized station candidate produced by ingestion,
// before the store has assigned an id. Genre is deliberately absent:
// ingestion never writes genre.
type StationDraft struct {
	CallSign         string      `json:"call_sign"`
	FacilityID       *int64      `json:"facility_id,omitempty"`
	ServiceType      ServiceType `json:"service_type"`
	Frequency        float64     `json:"frequency"`
	StationName      *string     `json:"station_name,omitempty"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	Latitude         *float64    `json:"latitude,omitempty"`
	Longitude        *float64    `json:"longitude,omitempty"`
	PowerWatts       *float64    `json:"power_watts,omitempty"`
	CoverageRadiusKM *float64    `json:"coverage_radius_km,omitempty"`
	Status           string      `json:"status"`
	DataSource       string      `json:"data_source"`
}

// FrequencyLabel formats the frequency with its native unit, e.g. "88.5 MHz"
// or "810 kHz".
func (s *Station) FrequencyLabel() string {
	if s.ServiceType == ServiceAM {
		return fmt.Sprintf("%.0f kHz", s.Frequency)
	}
	return fmt.Sprintf("%.1f MHz", s.Frequency)
}

// IngestRun is the audit record of one fetch+ingest batch.
type IngestRun struct {
	ID         string      `json:"id"`
	Service    ServiceType `json:"service"`
	Source     string      `json:"source"`
	Lines      int         `json:"lines"`
	Parsed     int         `json:"parsed"`
	Skipped    int         `json:"skipped"`
	Inserted   int         `json:"inserted"`
	Updated    int         `json:"updated"`
	Conflicts  int         `json:"conflicts"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}
