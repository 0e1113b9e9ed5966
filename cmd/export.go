package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dialscan/stationdb/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <path.xlsx>",
	Short: "Export stations to an XLSX workbook",
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

		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		stations, err := st.Search(ctx, query, limit)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if len(stations) == 0 {
			fmt.Fprintln(os.Stderr, "No stations to export.")
			return nil
		}

		if err := export.WriteXLSX(args[0], stations); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Wrote %d stations to %s\n", len(stations), args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().String("query", "", "only export stations matching call sign or city")
	exportCmd.Flags().Int("limit", 100000, "max number of stations to export")
	rootCmd.AddCommand(exportCmd)
}
