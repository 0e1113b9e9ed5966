package genre

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractGenre(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"plain label", "Classic Rock", "Classic Rock"},
		{"trailing period", "Country.", "Country"},
		{"quoted", `"News/Talk"`, "News/Talk"},
		{"prefix genre", "The genre is Jazz", "Jazz"},
		{"prefix format", "Format: Adult Contemporary", "Adult Contemporary"},
		{"prefix case insensitive", "the format is Top 40", "Top 40"},
		{"unknown marker", "Unknown", GenreUnknown},
		{"unknown in sentence", "I cannot determine the format of this station", GenreUnknown},
		{"unclear", "The format is unclear.", GenreUnknown},
		{"empty", "", ""},
		{"whitespace only", "   \n  ", ""},
		{"surrounding whitespace", "  Oldies \n", "Oldies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractGenre(tt.response))
		})
	}
}

func TestExtractGenre_CapsLength(t *testing.T) {
	long := strings.Repeat("Progressive ", 20)
	got := ExtractGenre(long)
	assert.LessOrEqual(t, len(got), maxGenreLen)
	assert.NotEmpty(t, got)
}
