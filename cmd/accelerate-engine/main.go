// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the accelerate-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/accelerate-engine/internal/secrets"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the accelerate-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "accelerate-engine",
	Short: "Content ingestion pipeline for the ACCELERATE program",
	Long: `accelerate-engine discovers early-stage startup projects, funding events,
and builder resources from public sources, validates them against the
ACCELERATE eligibility criteria, deduplicates them against the staging
store, scores them, and stages them for review.

Run the full pipeline with "run"; inspect the staging store with "store".`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./accelerate-engine.yaml or ~/.config/accelerate-engine/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "staging database path (overrides config)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("accelerate-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "accelerate-engine"))
		}
	}

	viper.SetEnvPrefix("ACCELERATE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig builds the effective configuration: defaults, then config
// file and environment overrides, then secrets for API credentials.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if viper.IsSet("sources.enable_producthunt") {
		cfg.Sources.EnableProductHunt = viper.GetBool("sources.enable_producthunt")
	}
	if viper.IsSet("sources.enable_github") {
		cfg.Sources.EnableGitHub = viper.GetBool("sources.enable_github")
	}
	if viper.IsSet("sources.enable_defillama") {
		cfg.Sources.EnableDefiLlama = viper.GetBool("sources.enable_defillama")
	}
	if viper.IsSet("sources.enable_devto") {
		cfg.Sources.EnableDevTo = viper.GetBool("sources.enable_devto")
	}
	if v := viper.GetStringSlice("sources.github_topics"); len(v) > 0 {
		cfg.Sources.GitHubTopics = v
	}
	if v := viper.GetStringSlice("sources.devto_tags"); len(v) > 0 {
		cfg.Sources.DevToTags = v
	}
	if v := viper.GetInt("sources.max_per_source"); v > 0 {
		cfg.Sources.MaxPerSource = v
	}
	if v := viper.GetDuration("sources.timeout"); v > 0 {
		cfg.Sources.Timeout = v
	}

	if v := viper.GetInt("criteria.min_launch_year"); v > 0 {
		cfg.Criteria.MinLaunchYear = v
	}
	if v := viper.GetInt("criteria.max_team_size"); v > 0 {
		cfg.Criteria.MaxTeamSize = v
	}
	if v := viper.GetFloat64("criteria.max_funding_usd"); v > 0 {
		cfg.Criteria.MaxFundingUSD = v
	}

	if v := viper.GetInt("scoring.fit_threshold"); v > 0 {
		cfg.Scoring.FitThreshold = v
	}
	if v := viper.GetDuration("scoring.item_timeout"); v > 0 {
		cfg.Scoring.ItemTimeout = v
	}

	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}

	cfg.Sources.ProductHuntToken = secretDefault("producthunt-api-key", viper.GetString("sources.producthunt_token"))
	cfg.Sources.GitHubToken = secretDefault("github-token", viper.GetString("sources.github_token"))
	cfg.Scoring.APIKey = secretDefault("scoring-api-key", viper.GetString("scoring.api_key"))

	return cfg
}

// sourceTimeout returns the per-request timeout for the shared HTTP client.
func sourceTimeout(cfg types.PipelineConfig) time.Duration {
	if cfg.Sources.Timeout > 0 {
		return cfg.Sources.Timeout
	}
	return 10 * time.Second
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
