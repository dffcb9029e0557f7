// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup partitions candidate items into unique entries and
// duplicates of already-staged records. Matching tries, in priority
// order: exact normalized-URL key, name similarity, then description
// similarity as a high-confidence fallback. High-confidence matches are
// merged into the existing record instead of reported.
package dedup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// Index is the read/merge view of the staging store the detector needs.
type Index interface {
	Records(ctx context.Context, bucket types.ContentType) ([]types.StagedRecord, error)
	Update(ctx context.Context, bucket types.ContentType, rec types.StagedRecord) error
}

// Duplicate describes a candidate that matched a staged record.
type Duplicate struct {
	Item       types.ContentItem
	MatchID    string
	Similarity int
	Merged     bool
}

// Output holds the partition result.
type Output struct {
	Unique     []types.ContentItem
	Duplicates []Duplicate
	Merged     int
}

// Detector checks candidates against the staging store.
type Detector struct {
	index Index
	cfg   types.DedupConfig
}

// NewDetector creates a detector over the given staging index.
func NewDetector(index Index, cfg types.DedupConfig) *Detector {
	return &Detector{index: index, cfg: cfg}
}

// Partition splits items into unique entries and duplicates. Every input
// item has already passed eligibility validation. Duplicates at or above
// the merge threshold are merged into the staged record and written back;
// lower-confidence matches are reported but left alone. Items that repeat
// within the same batch collapse to their first occurrence.
func (d *Detector) Partition(ctx context.Context, items []types.ContentItem, w io.Writer) (Output, error) {
	var out Output

	// One store read per bucket actually present in the batch.
	staged := make(map[types.ContentType][]types.StagedRecord)
	for _, item := range items {
		if _, loaded := staged[item.Type]; loaded {
			continue
		}
		records, err := d.index.Records(ctx, item.Type)
		if err != nil {
			return Output{}, fmt.Errorf("loading staged %s records: %w", item.Type, err)
		}
		staged[item.Type] = records
	}

	seenInBatch := make(map[string]bool)

	for _, item := range items {
		key := item.Key()
		if key != "" && seenInBatch[key] {
			out.Duplicates = append(out.Duplicates, Duplicate{Item: item, Similarity: 100})
			continue
		}
		seenInBatch[key] = true

		match, similarity := d.bestMatch(item, staged[item.Type])
		if match == nil {
			out.Unique = append(out.Unique, item)
			continue
		}

		dup := Duplicate{Item: item, MatchID: match.ID, Similarity: similarity}
		if similarity >= d.cfg.MergeThreshold {
			merged := mergeRecord(*match, item)
			if err := d.index.Update(ctx, item.Type, merged); err != nil {
				return Output{}, fmt.Errorf("merging into %s: %w", match.ID, err)
			}
			*match = merged
			dup.Merged = true
			out.Merged++
			fmt.Fprintf(w, "merged:    %q into %s (similarity %d)\n", item.Title, match.ID, similarity)
		} else {
			fmt.Fprintf(w, "duplicate: %q of %s (similarity %d)\n", item.Title, match.ID, similarity)
		}
		out.Duplicates = append(out.Duplicates, dup)
	}

	return out, nil
}

// bestMatch returns the staged record the item duplicates, or nil. The
// returned similarity is the weighted composite used for ranking and the
// merge decision; an exact URL match pins it to 100.
func (d *Detector) bestMatch(item types.ContentItem, staged []types.StagedRecord) (*types.StagedRecord, int) {
	itemURL := types.NormalizeURL(item.URL)

	// 1. Exact key match against every stored URL field.
	if itemURL != "" {
		for i := range staged {
			stored := &staged[i]
			for _, candidate := range []string{stored.Item.URL, stored.Item.Meta.Website, stored.Item.Meta.RepoURL} {
				if candidate != "" && types.NormalizeURL(candidate) == itemURL {
					return stored, 100
				}
			}
		}
	}

	// 2. Name similarity, best scorer wins.
	var best *types.StagedRecord
	bestSim := 0.0
	for i := range staged {
		if sim := nameSimilarity(item.Title, staged[i].Item.Title); sim >= d.cfg.NameThreshold && sim > bestSim {
			best = &staged[i]
			bestSim = sim
		}
	}
	if best != nil {
		return best, compositeScore(item, best.Item, d.cfg)
	}

	// 3. Description similarity fallback.
	for i := range staged {
		if descSimilarity(item.Description, staged[i].Item.Description) >= d.cfg.DescThreshold {
			return &staged[i], compositeScore(item, staged[i].Item, d.cfg)
		}
	}

	return nil, 0
}

// mergeRecord unions a new near-duplicate into the staged record: the
// longer description wins, tag and source sets union, the score keeps its
// max, and the seen counter increments.
func mergeRecord(stored types.StagedRecord, item types.ContentItem) types.StagedRecord {
	if len(item.Description) > len(stored.Item.Description) {
		stored.Item.Description = item.Description
	}
	stored.Item.Tags = unionStrings(stored.Item.Tags, item.Tags)
	stored.Item.Source = unionSources(stored.Item.Source, item.Source)
	if item.AccelerateScore > stored.Item.AccelerateScore {
		stored.Item.AccelerateScore = item.AccelerateScore
	}

	// Fill identity gaps from the newcomer.
	if stored.Item.URL == "" {
		stored.Item.URL = item.URL
	}
	if stored.Item.Meta.Website == "" {
		stored.Item.Meta.Website = item.Meta.Website
	}
	if stored.Item.Meta.RepoURL == "" {
		stored.Item.Meta.RepoURL = item.Meta.RepoURL
	}

	stored.SeenCount++
	return stored
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// unionSources joins source names the way merged search results do:
// comma-separated, each source listed once.
func unionSources(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a == b {
		return a
	}
	for _, existing := range strings.Split(a, ",") {
		if existing == b {
			return a
		}
	}
	return a + "," + b
}
