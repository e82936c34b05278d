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

	"github.com/spf13/pflag"

	"github.com/valpere/calrefine/internal"
	"github.com/valpere/calrefine/internal/config"
	"github.com/valpere/calrefine/internal/geoloc"
	"github.com/valpere/calrefine/internal/resolver"
	"github.com/valpere/calrefine/internal/store"
	"github.com/valpere/calrefine/internal/zones"
)

// mustBind ties a flag to a viper key. It only fails on a nil flag, which is
// a programming error.
func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// buildProviders constructs the geolocation providers named in the config,
// in the configured order.
func buildProviders(rc config.ResolverConfig) ([]geoloc.Provider, error) {
	client := geoloc.NewHTTPClient(rc.Timeout)

	var list []geoloc.Provider
	for _, name := range rc.Providers {
		switch name {
		case config.ProviderGeoJS:
			list = append(list, geoloc.NewGeoJSService(rc.GeoJSURL, client))
		case config.ProviderIPAPI:
			list = append(list, geoloc.NewIPAPIService(rc.IPAPIURL, client))
		default:
			fmt.Fprintf(os.Stderr, "Unknown timezone provider: %s, skipping\n", name)
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid timezone providers configured")
	}
	return list, nil
}

// newResolver builds the process resolver from the loaded config.
func newResolver(reg *zones.Registry) (*resolver.Resolver, error) {
	providers, err := buildProviders(cfg.Resolver)
	if err != nil {
		return nil, err
	}
	return resolver.New(providers, reg, resolver.Config{
		MaxRetries: cfg.Resolver.MaxRetries,
		Timeout:    cfg.Resolver.Timeout,
		RetryDelay: cfg.Resolver.RetryDelay,
	}, resolver.WithLogger(logger)), nil
}

// openStore opens the history database, or returns nil when history is
// disabled.
func openStore() (*store.Store, error) {
	if cfg.NoHistory || cfg.DBPath == "" {
		return nil, nil
	}
	return newStore(cfg.DBPath)
}

// newStore opens the database at path, creating its directory first.
func newStore(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// recordDetection stores a resolver outcome; failures are only logged.
func recordDetection(ctx context.Context, db *store.Store, d resolver.Detection, system string) {
	if db == nil {
		return
	}
	err := db.SaveDetection(ctx, internal.TimezoneDetection{
		Zone:       d.Zone,
		Provider:   d.Provider,
		Fallback:   d.Fallback,
		SystemZone: system,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to record timezone detection")
	}
}
