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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/valpere/calrefine/internal"
	"github.com/valpere/calrefine/internal/cleaner"
	"github.com/valpere/calrefine/internal/convert"
	"github.com/valpere/calrefine/internal/prompt"
	"github.com/valpere/calrefine/internal/refiner"
	"github.com/valpere/calrefine/internal/resolver"
	"github.com/valpere/calrefine/internal/store"
	"github.com/valpere/calrefine/internal/table"
	"github.com/valpere/calrefine/internal/validator"
	"github.com/valpere/calrefine/internal/zones"
)

var (
	inputFile   string
	outputFile  string
	interactive bool
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine a scraped economic calendar CSV",
	Long: `Parse the year, date and time columns of a scraped calendar, convert
every event from the source timezone to the target timezone, and fill gaps
left by grouped or unparseable rows.

The input must have the columns:
  year, date, time, currency, impact, event, actual, forecast, previous

When --source is omitted the source timezone is detected from your IP
address, falling back to the system timezone.

Interactive mode asks for the scrape window and both timezones, and derives
the file names when --input/--output are omitted:
  raw_scraped_data_from_<Y>_<M>_to_<Y>_<M>.csv
  refined_scraped_data_from_<Y>_<M>_to_<Y>_<M>.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg := zones.Default()
		locator := zones.NewLocator(reg)

		res, err := newResolver(reg)
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		source, target := cfg.SourceTZ, cfg.TargetTZ
		if interactive {
			source, target, err = collectInteractive(ctx, reg, res, db)
			if err != nil {
				return err
			}
		} else if source == "" {
			d := res.Resolve(ctx)
			recordDetection(ctx, db, d, resolver.SystemTimezone())
			source = d.Zone
			logger.WithFields(logrus.Fields{"timezone": source, "fallback": d.Fallback}).
				Info("Using detected timezone as source")
		}

		if inputFile == "" || outputFile == "" {
			return fmt.Errorf("--input and --output are required (or use --interactive)")
		}
		if filepath.Clean(inputFile) == filepath.Clean(outputFile) {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if target == "" {
			return fmt.Errorf("--target timezone is required")
		}

		raw, err := table.ReadFile(inputFile)
		if err != nil {
			return err
		}

		cleaned := cleaner.Clean(raw, logger)
		if cleaned.Empty() {
			logger.Warn("Data cleaning resulted in an empty table. Exiting.")
			return nil
		}

		ref, err := refiner.New(cleaned, convert.NewComposer(locator), reg, refiner.Config{
			SourceTZ: source,
			TargetTZ: target,
			Workers:  cfg.Workers,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		runID := startRun(ctx, db, source, target)

		report, err := ref.Refine(ctx)
		if err == nil {
			err = ref.Save(outputFile)
		}
		if err != nil {
			failRun(db, runID, err)
			return err
		}
		completeRun(ctx, db, runID, report)

		fmt.Printf("Refined %s (%s) to %s (%s)\n", inputFile, source, outputFile, target)
		fmt.Printf("Rows: %d in, %d out (%d dropped)\n", report.RowsIn, report.RowsOut, report.Fill.Dropped)
		fmt.Printf("Invalid dates: %d, conversion errors: %d\n", report.InvalidDates, report.ConvertErrors)
		fmt.Printf("Filled: %d years, %d dates, %d times\n", report.Fill.YearsFilled, report.Fill.DatesFilled, report.Fill.TimesFilled)
		if runID != "" {
			fmt.Printf("Run ID: %s\n", runID)
		}
		return nil
	},
}

// collectInteractive asks for the scrape window when file names are missing
// and then for both timezones. Configured zones are offered as defaults,
// otherwise the detected zone is the source default.
func collectInteractive(ctx context.Context, reg *zones.Registry, res *resolver.Resolver, db *store.Store) (string, string, error) {
	p := prompt.New(os.Stdin, os.Stdout, validator.New(reg, nil), logger)

	if inputFile == "" || outputFile == "" {
		period, err := p.Period()
		if err != nil {
			return "", "", fmt.Errorf("failed to read scrape window: %w", err)
		}
		raw, refined := prompt.Filenames(period)
		if inputFile == "" {
			inputFile = raw
		}
		if outputFile == "" {
			outputFile = refined
		}
	}

	d := res.Resolve(ctx)
	system := resolver.SystemTimezone()
	recordDetection(ctx, db, d, system)
	logger.Infof("Your IP-based timezone is: %s", d.Zone)
	logger.Infof("Your system timezone is: %s", system)
	fmt.Println("Run \"calrefine timezone list\" to see all available timezones.")

	source, target, err := p.Timezones(prompt.ZoneDefaults{
		Detected: d.Zone,
		System:   system,
		Source:   cfg.SourceTZ,
		Target:   cfg.TargetTZ,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to read timezones: %w", err)
	}
	return source, target, nil
}

func startRun(ctx context.Context, db *store.Store, source, target string) string {
	if db == nil {
		return ""
	}
	id := uuid.New().String()
	err := db.CreateRun(ctx, internal.RefineRun{
		ID:         id,
		InputFile:  inputFile,
		OutputFile: outputFile,
		SourceTZ:   source,
		TargetTZ:   target,
		StartedAt:  time.Now(),
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to record run")
		return ""
	}
	return id
}

func completeRun(ctx context.Context, db *store.Store, id string, report *refiner.Report) {
	if db == nil || id == "" {
		return
	}
	if err := db.CompleteRun(ctx, id, report.RowsIn, report.RowsOut, report.InvalidDates, report.ConvertErrors); err != nil {
		logger.WithError(err).Warn("Failed to record run result")
	}
}

// failRun uses a fresh context so an interrupted run is still recorded.
func failRun(db *store.Store, id string, cause error) {
	if db == nil || id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.FailRun(ctx, id, cause.Error()); err != nil {
		logger.WithError(err).Warn("Failed to record run failure")
	}
}

func init() {
	rootCmd.AddCommand(refineCmd)

	refineCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Raw calendar CSV to refine")
	refineCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the refined CSV")
	refineCmd.Flags().StringP("source", "s", "", "Source timezone (default: detected from IP)")
	refineCmd.Flags().StringP("target", "t", "", "Target timezone (required unless --interactive)")
	refineCmd.Flags().Int("workers", 1, "Parallel workers for row conversion")
	refineCmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for the scrape window and timezones")

	mustBind("source_tz", refineCmd.Flags().Lookup("source"))
	mustBind("target_tz", refineCmd.Flags().Lookup("target"))
	mustBind("workers", refineCmd.Flags().Lookup("workers"))
}
