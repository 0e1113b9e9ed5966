// Package genre infers a station's programming format from external web
// evidence through an LLM provider. The provider sits behind the narrow
// Detector interface so the enrichment driver (and its tests) never see
// provider details.
package genre

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/dialscan/stationdb/internal/model"
)

// GenreUnknown is the persisted label for stations whose format the
// provider searched for but could not determine. It is a complete result:
// the station is not retried.
const GenreUnknown = "Unknown"

var (
	// ErrNotFound marks a discovery attempt that produced no usable
	// answer. The station keeps a null genre and is retried on the next
	// scheduled run.
	ErrNotFound = eris.New("genre: no grounded result")

	// ErrQuotaExceeded marks the provider's daily quota being exhausted.
	// The driver stops the run cleanly; this is not a failure.
	ErrQuotaExceeded = eris.New("genre: provider quota exceeded")
)

// StationInfo is the station identity and location a provider needs to
// search with.
type StationInfo struct {
	CallSign    string
	Frequency   float64
	ServiceType model.ServiceType
	City        string
	State       string
}

// FromStation extracts the discovery identity from a stored station.
func FromStation(st model.Station) StationInfo {
	return StationInfo{
		CallSign:    st.CallSign,
		Frequency:   st.Frequency,
		ServiceType: st.ServiceType,
		City:        st.City,
		State:       st.State,
	}
}

// Detector discovers the programming genre of a radio station.
type Detector interface {
	// DiscoverGenre returns a short genre label such as "Classic Rock" or
	// "News/Talk", the GenreUnknown label when the search was conclusive
	// but uninformative, ErrNotFound when no usable answer was produced,
	// or ErrQuotaExceeded when the provider's daily budget is spent.
	DiscoverGenre(ctx context.Context, station StationInfo) (string, error)
}

// buildQuery forms the web-search prompt for a station.
func buildQuery(st StationInfo) string {
	freq := fmt.Sprintf("%.1f MHz", st.Frequency)
	if st.ServiceType == model.ServiceAM {
		freq = fmt.Sprintf("%.0f kHz", st.Frequency)
	}

	return fmt.Sprintf(`What is the music genre or format of radio station %s %s in %s, %s?

Please search for current information about this radio station and determine its primary music genre or format.
Common radio formats include: Top 40/Pop, Rock, Country, Hip-Hop/R&B, Adult Contemporary, Classical, Jazz, News/Talk, Sports, Alternative Rock, Oldies, etc.

Respond with just the primary genre/format in a few words (e.g., "Classic Rock", "Country", "News/Talk", "Top 40").
If you cannot determine the genre, respond with "Unknown".`,
		st.CallSign, freq, st.City, st.State)
}
