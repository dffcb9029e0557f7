// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/accelerate-engine/internal/store"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and manage the staging store",
	Long: `Store inspects the SQLite staging database: per-bucket statistics,
ranked listings, YAML export, and review approval.`,
}

// openStore opens the staging database configured via config file or --db.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := pipelineConfig(cmd)
	return store.New(cfg.Store)
}

// bucketArg parses a content-type argument into a staging bucket.
func bucketArg(arg string) (types.ContentType, error) {
	t := types.ContentType(strings.ToLower(arg))
	if !t.Valid() {
		return "", fmt.Errorf("unknown bucket %q: use project, funding, or resource", arg)
	}
	return t, nil
}

// --- stats subcommand ---

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-bucket record counts and score averages",
	RunE:  runStoreStats,
}

func runStoreStats(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-10s  %8s  %8s  %8s  %10s\n", "Bucket", "Records", "Fit", "Approved", "Avg score")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 52))
	total := 0
	for _, bucket := range types.ContentTypes {
		s := stats[bucket]
		fmt.Fprintf(os.Stdout, "%-10s  %8d  %8d  %8d  %10.1f\n", bucket, s.Total, s.Fit, s.Approved, s.AvgScore)
		total += s.Total
	}
	fmt.Fprintf(os.Stdout, "\n%d records staged\n", total)
	return nil
}

// --- list subcommand ---

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staged records ranked by score",
	RunE:  runStoreList,
}

func runStoreList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	buckets, filter, err := listArgs(cmd)
	if err != nil {
		return err
	}

	printed := 0
	for _, bucket := range buckets {
		records, err := st.Query(context.Background(), bucket, filter)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		if printed == 0 {
			fmt.Fprintf(os.Stdout, "%-5s  %-10s  %-40s  %-12s  %4s  %4s\n",
				"Score", "Bucket", "Title", "Source", "Seen", "Fit")
			fmt.Fprintln(os.Stdout, strings.Repeat("-", 86))
		}
		for _, rec := range records {
			title := rec.Item.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fit := ""
			if rec.Item.AccelerateFit {
				fit = "yes"
			}
			fmt.Fprintf(os.Stdout, "%-5d  %-10s  %-40s  %-12s  %4d  %4s\n",
				rec.Item.AccelerateScore, bucket, title, rec.Item.Source, rec.SeenCount, fit)
			printed++
		}
	}

	if printed == 0 {
		fmt.Println("No staged records match.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "\n%d records\n", printed)
	return nil
}

func listArgs(cmd *cobra.Command) ([]types.ContentType, store.Filter, error) {
	typeArg, _ := cmd.Flags().GetString("type")
	minScore, _ := cmd.Flags().GetInt("min-score")
	srcFilter, _ := cmd.Flags().GetString("source")
	fitOnly, _ := cmd.Flags().GetBool("fit")
	limit, _ := cmd.Flags().GetInt("limit")

	buckets := types.ContentTypes
	if typeArg != "" {
		bucket, err := bucketArg(typeArg)
		if err != nil {
			return nil, store.Filter{}, err
		}
		buckets = []types.ContentType{bucket}
	}

	return buckets, store.Filter{
		MinScore: minScore,
		Source:   srcFilter,
		FitOnly:  fitOnly,
		Limit:    limit,
	}, nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export staged records as YAML to stdout",
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	buckets, filter, err := listArgs(cmd)
	if err != nil {
		return err
	}

	export := make(map[string][]types.StagedRecord, len(buckets))
	for _, bucket := range buckets {
		records, err := st.Query(context.Background(), bucket, filter)
		if err != nil {
			return err
		}
		export[string(bucket)] = records
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(export)
}

// --- approve subcommand ---

var storeApproveCmd = &cobra.Command{
	Use:   "approve <bucket> <id>",
	Short: "Mark a staged record approved for promotion",
	Args:  cobra.ExactArgs(2),
	RunE:  runStoreApprove,
}

func runStoreApprove(cmd *cobra.Command, args []string) error {
	bucket, err := bucketArg(args[0])
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Approve(context.Background(), bucket, args[1]); err != nil {
		return err
	}
	fmt.Printf("approved: %s %s\n", bucket, args[1])
	return nil
}

func init() {
	for _, c := range []*cobra.Command{storeListCmd, storeExportCmd} {
		c.Flags().String("type", "", "bucket filter: project, funding, or resource")
		c.Flags().Int("min-score", 0, "minimum score")
		c.Flags().String("source", "", "source filter (matches merged source lists)")
		c.Flags().Bool("fit", false, "only records marked ACCELERATE-fit")
		c.Flags().Int("limit", 0, "maximum records per bucket (0 = all)")
	}

	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeApproveCmd)

	rootCmd.AddCommand(storeCmd)
}
