// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the genescout CLI.
// Implements: prd001-tools, prd004-orchestration, prd006-history,
//             prd009-reporting (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genescout/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the genescout CLI.
var rootCmd = &cobra.Command{
	Use:   "genescout",
	Short: "LLM-planned gene-trait evidence aggregation",
	Long: `genescout answers gene-trait research questions by planning a batch of
bioinformatics tool calls, running them concurrently against public APIs
(PubMed, Ensembl, Gramene, GWAS Catalog, QuickGO, KEGG), normalizing the
heterogeneous results into typed evidence with provenance, and synthesizing
an explanation grounded in that evidence.

The search subcommand runs the full pipeline for one question; history
inspects cost and latency across past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./genescout.yaml or ~/.config/genescout/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("genescout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "genescout"))
		}
	}

	viper.SetEnvPrefix("GENESCOUT")
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
