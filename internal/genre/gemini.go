package genre

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dialscan/stationdb/pkg/gemini"
)

// GeminiDetector discovers genres through Gemini with Google Search
// grounding. An ungrounded answer is retried a few times before giving up:
// without grounding metadata the model is guessing, not searching.
type GeminiDetector struct {
	client     gemini.Client
	model      string
	maxRetries int
}

// GeminiOptions configures the Gemini detector.
type GeminiOptions struct {
	Model      string
	MaxRetries int
}

// NewGeminiDetector creates a detector backed by the given Gemini client.
func NewGeminiDetector(client gemini.Client, opts GeminiOptions) *GeminiDetector {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &GeminiDetector{
		client:     client,
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
	}
}

func (d *GeminiDetector) DiscoverGenre(ctx context.Context, station StationInfo) (string, error) {
	temperature := 0.3
	req := gemini.GenerateContentRequest{
		Model: d.model,
		Contents: []gemini.Content{
			{Parts: []gemini.Part{{Text: buildQuery(station)}}},
		},
		Tools:            []gemini.Tool{{GoogleSearch: &gemini.GoogleSearch{}}},
		GenerationConfig: &gemini.GenerationConfig{Temperature: &temperature},
	}

	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		resp, err := d.client.GenerateContent(ctx, req)
		if err != nil {
			if errors.Is(err, gemini.ErrQuotaExceeded) {
				return "", eris.Wrap(ErrQuotaExceeded, "gemini grounding")
			}
			return "", eris.Wrapf(err, "discover genre for %s", station.CallSign)
		}

		if !resp.Grounded() {
			zap.L().Debug("ungrounded response, retrying",
				zap.String("call_sign", station.CallSign),
				zap.Int("attempt", attempt),
			)
			continue
		}

		genre := ExtractGenre(resp.Text())
		if genre == "" {
			return "", eris.Wrapf(ErrNotFound, "empty response for %s", station.CallSign)
		}
		return genre, nil
	}

	return "", eris.Wrapf(ErrNotFound, "no grounded response for %s after %d attempts", station.CallSign, d.maxRetries)
}
