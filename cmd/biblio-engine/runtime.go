// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biblio-engine/internal/cache"
	"github.com/pdiddy/biblio-engine/internal/config"
	"github.com/pdiddy/biblio-engine/internal/engine"
	"github.com/pdiddy/biblio-engine/internal/fetch"
	"github.com/pdiddy/biblio-engine/internal/journal"
	"github.com/pdiddy/biblio-engine/internal/logging"
	"github.com/pdiddy/biblio-engine/internal/secrets"
	"github.com/pdiddy/biblio-engine/internal/throttle"
	"github.com/pdiddy/biblio-engine/pkg/types"
)

// loadConfig assembles the effective configuration: the config file and
// environment via viper, credentials from .secrets/ when the file has
// none, and the --log-level override. It also installs the logger.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return types.Config{}, err
	}

	if len(cfg.Auth.APIKeys) == 0 {
		cfg.Auth.APIKeys = secrets.APIKeys(loadedSecrets)
	}
	if cfg.Auth.InstToken == "" {
		cfg.Auth.InstToken = secrets.InstToken(loadedSecrets)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// newEngine wires the transport, cache and journal into an engine. The
// caller owns the returned journal and must Close it; it is nil when
// journaling is disabled.
func newEngine(cfg types.Config) (*engine.Engine, *journal.Journal, error) {
	if len(cfg.Auth.APIKeys) == 0 {
		return nil, nil, fmt.Errorf("no API keys configured: run 'biblio-engine init-config' or set authentication.api_keys")
	}

	jrnl, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, nil, err
	}

	gate := throttle.NewGate(cfg.Requests.Throttle)
	client := fetch.NewClient(cfg.Requests, cfg.Auth, gate)
	locator := cache.NewLocator(cfg.Cache)
	return engine.New(client, locator, jrnl, cfg.Requests), jrnl, nil
}

// refreshFromFlag parses the --refresh flag: "true"/"false" or a number
// of days. An empty flag keeps the default of serving any cached file.
func refreshFromFlag(cmd *cobra.Command) (types.RefreshPolicy, error) {
	s, _ := cmd.Flags().GetString("refresh")
	if s == "" {
		return types.RefreshNever(), nil
	}
	return types.ParseRefreshPolicy(s)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML writes v to stdout as YAML.
func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(v)
}

// truncate shortens s for table cells.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
