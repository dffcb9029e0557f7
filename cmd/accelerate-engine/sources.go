// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured content sources and their enablement",
	RunE:  runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)

	rows := []struct {
		name    string
		enabled bool
		auth    string
	}{
		{"producthunt", cfg.Sources.EnableProductHunt, authState(cfg.Sources.ProductHuntToken, true)},
		{"github", cfg.Sources.EnableGitHub, authState(cfg.Sources.GitHubToken, false)},
		{"defillama", cfg.Sources.EnableDefiLlama, "none needed"},
		{"devto", cfg.Sources.EnableDevTo, "none needed"},
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-8s  %s\n", "Source", "Enabled", "Credentials")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 40))
	for _, row := range rows {
		enabled := "no"
		if row.enabled {
			enabled = "yes"
		}
		fmt.Fprintf(os.Stdout, "%-12s  %-8s  %s\n", row.name, enabled, row.auth)
	}
	return nil
}

// authState describes whether a credential is present. Sources that work
// without one report "optional" when it is missing but required is false.
func authState(token string, required bool) string {
	if token != "" {
		return "configured"
	}
	if required {
		return "missing (source will fail)"
	}
	return "optional, not set"
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
