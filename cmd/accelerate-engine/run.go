// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/accelerate-engine/internal/pipeline"
	"github.com/pdiddy/accelerate-engine/internal/source"
	"github.com/pdiddy/accelerate-engine/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ingestion pipeline once (or on a schedule)",
	Long: `Run executes one pipeline pass: fetch from all enabled sources, validate
against the ACCELERATE criteria, deduplicate against the staging store,
score, and stage. Degraded outcomes (a failed source, nothing new) do not
fail the run; only a staging-store fault does.

With --every, the pipeline runs on a cron schedule until interrupted.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	every, _ := cmd.Flags().GetString("every")

	st, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening staging store: %w", err)
	}
	defer st.Close()

	client := &http.Client{Timeout: sourceTimeout(cfg)}
	sources := source.Enabled(cfg.Sources, client)

	progress := cmd.OutOrStdout()
	if jsonOutput {
		// Keep stdout clean for the JSON result.
		progress = os.Stderr
	}
	orchestrator := pipeline.New(sources, st, nil, cfg, progress)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() error {
		result := orchestrator.Run(ctx)
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		}
		if !result.Success {
			return fmt.Errorf("pipeline run failed: %v", result.Errors)
		}
		return nil
	}

	if every == "" {
		return runOnce()
	}

	c := cron.New()
	if _, err := c.AddFunc(every, func() {
		if err := runOnce(); err != nil {
			fmt.Fprintf(os.Stderr, "scheduled run: %v\n", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid --every schedule %q: %w", every, err)
	}

	// First pass immediately, then on the schedule.
	if err := runOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "initial run: %v\n", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	fmt.Fprintln(os.Stderr, "scheduler stopped")
	return nil
}

func init() {
	runCmd.Flags().String("every", "", `cron schedule for repeated runs (e.g. "0 */6 * * *")`)
	runCmd.Flags().Bool("json", false, "print the run result as JSON")

	rootCmd.AddCommand(runCmd)
}
