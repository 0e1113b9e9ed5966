package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dialscan/stationdb/internal/enrich"
	"github.com/dialscan/stationdb/internal/genre"
	"github.com/dialscan/stationdb/pkg/gemini"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill in genres for stations that lack one",
	Long:  "Visits stations without a genre in id order and asks the configured discovery provider, stopping when the batch limit or the daily call quota is reached. Interrupted runs pick up where they left off.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		detector, err := initDetector()
		if err != nil {
			return err
		}

		loc, err := time.LoadLocation(cfg.Enrich.QuotaTimezone)
		if err != nil {
			return eris.Wrapf(err, "load quota timezone %q", cfg.Enrich.QuotaTimezone)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		quota, _ := cmd.Flags().GetInt("daily-quota")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if limit == 0 {
			limit = cfg.Enrich.Limit
		}
		if quota == 0 {
			quota = cfg.Enrich.DailyQuota
		}
		if concurrency == 0 {
			concurrency = cfg.Enrich.Concurrency
		}

		driver := enrich.New(st, detector, enrich.Options{
			DailyQuota:  quota,
			Limit:       limit,
			Concurrency: concurrency,
			Location:    loc,
		})

		summary, err := driver.Run(ctx)
		if err != nil {
			return err
		}

		formatEnrichSummary(os.Stdout, summary)
		return nil
	},
}

func init() {
	enrichCmd.Flags().Int("limit", 0, "max stations to visit this run (0 = config default)")
	enrichCmd.Flags().Int("daily-quota", 0, "max discovery calls per day (0 = config default)")
	enrichCmd.Flags().Int("concurrency", 0, "discovery worker count (0 = config default)")
	rootCmd.AddCommand(enrichCmd)
}

func initDetector() (genre.Detector, error) {
	switch cfg.Genre.Provider {
	case "gemini":
		if cfg.Genre.GeminiKey == "" {
			return nil, eris.New("gemini API key is required (STATIONDB_GENRE_GEMINI_API_KEY)")
		}
		client := gemini.NewClient(cfg.Genre.GeminiKey, gemini.WithModel(cfg.Genre.GeminiModel))
		return genre.NewGeminiDetector(client, genre.GeminiOptions{
			Model:      cfg.Genre.GeminiModel,
			MaxRetries: cfg.Genre.MaxRetries,
		}), nil
	case "claude":
		if cfg.Genre.AnthropicKey == "" {
			return nil, eris.New("anthropic API key is required (STATIONDB_GENRE_ANTHROPIC_API_KEY)")
		}
		return genre.NewClaudeDetector(cfg.Genre.AnthropicKey, genre.ClaudeOptions{
			Model: cfg.Genre.AnthropicModel,
		}), nil
	default:
		return nil, eris.Errorf("unsupported genre provider: %s", cfg.Genre.Provider)
	}
}

func formatEnrichSummary(out io.Writer, s *enrich.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Visited:\t%d\n", s.Visited)
	_, _ = fmt.Fprintf(w, "Enriched:\t%d\n", s.Enriched)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Quota used today:\t%d\n", s.QuotaUsedToday)
	_ = w.Flush()
	if s.QuotaExhausted {
		fmt.Fprintln(out, "Daily quota exhausted; run again tomorrow to continue.")
	}
}
