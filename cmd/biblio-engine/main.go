// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the biblio-engine CLI.
// Implements: prd001-cache-engine, prd002-transport, prd003-configuration,
//             prd004-domain-wrappers, prd005-quota-journal (CLI surface).
// See docs/ARCHITECTURE § Command Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/biblio-engine/internal/config"
	"github.com/pdiddy/biblio-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the biblio-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "biblio-engine",
	Short: "Cached access to the Scopus and SciVal APIs",
	Long: `biblio-engine fetches bibliometric data from the Scopus and SciVal APIs
and caches every response on disk, so repeated queries cost no quota.
Searches are downloaded page by page; retrievals and lookups resolve one
entity at a time.

Each API family is a subcommand: search, retrieve, and lookup. quota
inspects the spend recorded in the request journal, and init-config
writes a starter configuration file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./biblio-engine.yaml or the XDG config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.FileName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.DefaultConfigDir())
	}

	viper.SetEnvPrefix("BIBLIO_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
