package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dialscan/stationdb/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stations by call sign or city",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		stations, err := st.Search(ctx, args[0], limit)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		if len(stations) == 0 {
			fmt.Fprintln(os.Stderr, "No stations found.")
			return nil
		}

		formatStations(os.Stdout, stations)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "max number of stations to display")
	rootCmd.AddCommand(searchCmd)
}

// formatStations writes a tabular station list to w.
func formatStations(out io.Writer, stations []model.Station) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CALL\tFREQ\tCITY\tSTATE\tGENRE\tSTATUS")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t-----\t-----\t------")

	for _, st := range stations {
		genre := ""
		if st.Genre != nil {
			genre = *st.Genre
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			st.CallSign, st.FrequencyLabel(), st.City, st.State, genre, st.Status)
	}
	_ = w.Flush()
}
