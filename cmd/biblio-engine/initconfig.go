// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biblio-engine/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Create the configuration file",
	Long: `Init-config writes a starter configuration file with default cache,
request, and logging settings. Without flags it prompts for API keys
interactively; with --key it runs unattended. An existing file is never
overwritten.`,
	RunE: runInitConfig,
}

func init() {
	initConfigCmd.Flags().String("path", "", "where to write the file (default: the XDG config dir)")
	initConfigCmd.Flags().String("key", "", "API key(s), comma-separated; skips the prompt")
	initConfigCmd.Flags().String("inst-token", "", "institutional token sent alongside the key")

	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	keyList, _ := cmd.Flags().GetString("key")
	instToken, _ := cmd.Flags().GetString("inst-token")

	_, err := config.Init(path, config.SplitKeys(keyList), instToken, os.Stdin, os.Stdout)
	return err
}
