/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/calrefine/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the refinement run history",
	Long:  `List, inspect, and clear the SQLite history of refinement runs and timezone detections.`,
}

// historyStore opens the database even when --no-history is set, since
// managing history is the point of these commands.
func historyStore() (*store.Store, error) {
	return newStore(cfg.DBPath)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List refinement runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := historyStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tSOURCE\tTARGET\tROWS IN\tROWS OUT\tERRORS\tINPUT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Status,
				r.SourceTZ, r.TargetTZ, r.RowsIn, r.RowsOut, r.ConvertErrors, r.InputFile)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := historyStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total runs:        %d\n", stats.TotalRuns)
		fmt.Printf("Completed:         %d\n", stats.Completed)
		fmt.Printf("Failed:            %d\n", stats.Failed)
		fmt.Printf("Rows refined:      %d\n", stats.RowsRefined)
		fmt.Printf("Conversion errors: %d\n", stats.ConvertErrors)
		fmt.Printf("Detections:        %d\n", stats.Detections)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := historyStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Printf("Deleted run: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all runs and detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := historyStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Cleared %d runs from history.\n", n)
		return nil
	},
}

var historyDetectionsCmd = &cobra.Command{
	Use:   "detections",
	Short: "List recorded timezone detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := historyStore()
		if err != nil {
			return err
		}
		defer db.Close()

		detections, err := db.ListDetections(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list detections: %w", err)
		}

		if len(detections) == 0 {
			fmt.Println("No detections recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DETECTED\tZONE\tPROVIDER\tFALLBACK\tSYSTEM")
		for _, d := range detections {
			provider := d.Provider
			if provider == "" {
				provider = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
				d.DetectedAt.Format("2006-01-02 15:04"), d.Zone, provider, d.Fallback, d.SystemZone)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 0, "Maximum entries to show (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyDetectionsCmd)
}
