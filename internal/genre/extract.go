package genre

import "strings"

const maxGenreLen = 50

// Prefixes models habitually prepend despite instructions.
var genrePrefixes = []string{
	"The genre is",
	"The format is",
	"This station plays",
	"Primary genre:",
	"Format:",
	"Genre:",
}

var unknownMarkers = []string{"unknown", "unclear", "cannot determine", "not found"}

// ExtractGenre cleans a model response down to a short genre label.
// Returns "" when the response carried nothing usable, and GenreUnknown
// when the model answered but could not determine the format.
func ExtractGenre(response string) string {
	genre := strings.TrimSpace(response)
	if genre == "" {
		return ""
	}

	for _, prefix := range genrePrefixes {
		if len(genre) >= len(prefix) && strings.EqualFold(genre[:len(prefix)], prefix) {
			genre = strings.TrimSpace(genre[len(prefix):])
		}
	}

	genre = strings.Trim(genre, ".\"'")

	lower := strings.ToLower(genre)
	for _, marker := range unknownMarkers {
		if strings.Contains(lower, marker) {
			return GenreUnknown
		}
	}

	if len(genre) > maxGenreLen {
		genre = strings.TrimSpace(genre[:maxGenreLen])
	}

	return genre
}
