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
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/calrefine/internal/config"
	"github.com/valpere/calrefine/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string

	v      = viper.New()
	cfg    *config.Config
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "calrefine",
	Short: "Economic calendar date/time refinery",
	Long: `A CLI application that turns scraped economic-calendar tables with
fragmented date and time columns into timezone-correct, gap-free tables.

It can also detect your timezone from public IP geolocation services
(GeoJS, ipapi.co) and falls back to the system timezone.

Use "calrefine refine --help" for refinement options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("db", "./data/calrefine.db", "Database path for run history")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record runs or detections")

	mustBind("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	mustBind("db", rootCmd.PersistentFlags().Lookup("db"))
	mustBind("no_history", rootCmd.PersistentFlags().Lookup("no-history"))
}
