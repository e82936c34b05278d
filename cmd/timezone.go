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
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/calrefine/internal/resolver"
	"github.com/valpere/calrefine/internal/zones"
)

var timezoneCmd = &cobra.Command{
	Use:   "timezone",
	Short: "Detect and list timezones",
	Long: `Detect your timezone from public IP geolocation services, or list the
timezones known to this system grouped by region.`,
}

var timezoneDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the local timezone from your IP address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg := zones.Default()
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

		d := res.Resolve(ctx)
		system := resolver.SystemTimezone()
		recordDetection(ctx, db, d, system)

		if d.Fallback {
			fmt.Printf("IP-based timezone: unavailable (using %s)\n", d.Zone)
		} else {
			fmt.Printf("IP-based timezone: %s (via %s)\n", d.Zone, d.Provider)
		}
		fmt.Printf("System timezone:   %s\n", system)
		fmt.Println("If you are not sure, check https://ipapi.co/json/")
		return nil
	},
}

var timezoneListRegion string

var timezoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available timezones grouped by region",
	Long: `List every known timezone grouped by region, with its current GMT
offset and city name.

Example:
  calrefine timezone list --region Asia`,
	RunE: func(cmd *cobra.Command, args []string) error {
		locator := zones.NewLocator(zones.Default())
		regions := locator.Group(time.Now())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		shown := 0
		for _, r := range regions {
			if timezoneListRegion != "" && !strings.EqualFold(r.Name, timezoneListRegion) {
				continue
			}
			fmt.Fprintf(w, "\n%s:\n", r.Name)
			for _, e := range r.Entries {
				fmt.Fprintf(w, "  %s\t%s\n", e.Label, e.Name)
			}
			shown++
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if shown == 0 {
			fmt.Printf("No timezones found for region %q.\n", timezoneListRegion)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timezoneCmd)

	timezoneListCmd.Flags().StringVar(&timezoneListRegion, "region", "", "Only list this region (e.g. Asia, Europe)")

	timezoneCmd.AddCommand(timezoneDetectCmd)
	timezoneCmd.AddCommand(timezoneListCmd)
}
