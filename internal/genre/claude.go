package genre

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultClaudeModel = "claude-haiku-4-5-20251001"

// ClaudeDetector discovers genres through Claude with the web search tool.
type ClaudeDetector struct {
	client sdk.Client
	model  string
}

// ClaudeOptions configures the Claude detector.
type ClaudeOptions struct {
	Model string
}

// NewClaudeDetector creates a detector backed by the Anthropic API.
func NewClaudeDetector(apiKey string, opts ClaudeOptions) *ClaudeDetector {
	if opts.Model == "" {
		opts.Model = defaultClaudeModel
	}
	return &ClaudeDetector{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  opts.Model,
	}
}

func (d *ClaudeDetector) DiscoverGenre(ctx context.Context, station StationInfo) (string, error) {
	msg, err := d.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(d.model),
		MaxTokens:   256,
		Temperature: sdk.Float(0.3),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildQuery(station))),
		},
		Tools: []sdk.ToolUnionParam{{
			OfWebSearchTool20250305: &sdk.WebSearchTool20250305Param{
				MaxUses: sdk.Int(3),
			},
		}},
	})
	if err != nil {
		var apierr *sdk.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
			return "", eris.Wrap(ErrQuotaExceeded, "anthropic rate limit")
		}
		return "", eris.Wrapf(err, "discover genre for %s", station.CallSign)
	}

	// Require at least one executed search; without it the model answered
	// from priors rather than current evidence.
	var sb strings.Builder
	searched := false
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			sb.WriteString(block.Text)
		case "server_tool_use":
			searched = true
		}
	}
	if !searched {
		return "", eris.Wrapf(ErrNotFound, "no web search performed for %s", station.CallSign)
	}

	genre := ExtractGenre(sb.String())
	if genre == "" {
		return "", eris.Wrapf(ErrNotFound, "empty response for %s", station.CallSign)
	}
	return genre, nil
}
