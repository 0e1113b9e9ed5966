package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dialscan/stationdb/internal/model"
	"github.com/dialscan/stationdb/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show station counts and genre coverage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		formatStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(statsCmd)
}

func formatStats(out io.Writer, s *store.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total stations:\t%d\n", s.Total)

	for _, svc := range []model.ServiceType{model.ServiceFM, model.ServiceAM} {
		sc, ok := s.ByService[svc]
		if !ok {
			continue
		}
		pct := 0.0
		if sc.Total > 0 {
			pct = float64(sc.WithGenre) / float64(sc.Total) * 100
		}
		_, _ = fmt.Fprintf(w, "%s:\t%d\t(%d with genre, %.1f%%)\n", svc, sc.Total, sc.WithGenre, pct)
	}

	for status, n := range s.ByStatus {
		_, _ = fmt.Fprintf(w, "Status %s:\t%d\n", status, n)
	}

	if len(s.TopStates) > 0 {
		_, _ = fmt.Fprintln(w, "Top states:")
		for _, sc := range s.TopStates {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", sc.State, sc.Count)
		}
	}
	_ = w.Flush()
}
