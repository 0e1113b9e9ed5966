package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest <lat> <lon>",
	Short: "List stations closest to a coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "parse latitude %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "parse longitude %q", args[1])
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
		nearby, err := st.Nearest(ctx, lat, lon, limit)
		if err != nil {
			return eris.Wrap(err, "nearest")
		}

		if len(nearby) == 0 {
			fmt.Fprintln(os.Stderr, "No stations with known coordinates.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CALL\tFREQ\tCITY\tSTATE\tDISTANCE")
		_, _ = fmt.Fprintln(w, "----\t----\t----\t-----\t--------")
		for _, n := range nearby {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f km\n",
				n.CallSign, n.FrequencyLabel(), n.City, n.State, n.DistanceKM)
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	nearestCmd.Flags().Int("limit", 10, "max number of stations to display")
	rootCmd.AddCommand(nearestCmd)
}
