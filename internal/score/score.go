// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score assigns each item a 0-100 fitness score and a fit flag,
// from weighted rule-based signals and, when a scoring backend is
// configured, per-item assessments with reasoning and confidence. Backend
// unavailability never fails a run: errors degrade to the neutral default
// and timeouts keep the rule-based score.
package score

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// Assessment is one backend verdict for an item.
type Assessment struct {
	Score      int     `json:"score"`
	Fit        bool    `json:"fit"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Backend abstracts the optional scoring service so tests can supply a
// mock. The returned map is keyed by ContentItem.Key(); missing keys fall
// back to the rule-based score.
type Backend interface {
	Name() string
	ScoreBatch(ctx context.Context, items []types.ContentItem) (map[string]Assessment, error)
}

// Rule computes the rule-based score for one item: social proof,
// credibility indicators, funding/TVL boosts, and red/green flags with
// fixed point deltas around the neutral baseline.
func Rule(item types.ContentItem, cfg types.ScoringConfig) (int, []string) {
	score := cfg.NeutralScore
	var notes []string

	add := func(delta int, note string) {
		score += delta
		notes = append(notes, fmt.Sprintf("%+d %s", delta, note))
	}

	// Social proof.
	switch stars := item.Meta.Stars; {
	case stars >= 500:
		add(15, "strong star count")
	case stars >= 100:
		add(10, "good star count")
	case stars >= 20:
		add(5, "some stars")
	}
	switch votes := item.Meta.Votes; {
	case votes >= 300:
		add(15, "strong vote count")
	case votes >= 100:
		add(10, "good vote count")
	case votes >= 20:
		add(5, "some votes")
	}
	if item.Meta.Comments >= 10 {
		add(5, "active discussion")
	}

	// Credibility indicators.
	if c := credibility(item); c > 0 {
		add(c, "credibility signals")
	}

	// Funding and TVL boosts.
	if item.Meta.FundingRaisedUSD > 0 {
		add(5, "funding disclosed")
	}
	switch tvl := item.Meta.TVLUSD; {
	case tvl >= 1_000_000:
		add(10, "TVL above $1M")
	case tvl >= 100_000:
		add(5, "TVL above $100k")
	}

	// Green and red flags.
	if !item.Meta.LaunchDate.IsZero() {
		switch m := item.Meta.MonthsSinceLaunch; {
		case m <= 6:
			add(10, "launched within 6 months")
		case m <= 12:
			add(5, "launched within a year")
		case m > 24:
			add(-10, "launched over 2 years ago")
		}
	}
	if item.URL == "" && item.Meta.Website == "" {
		add(-15, "no URL")
	}
	if item.Description == "" {
		add(-5, "no description")
	}

	return types.ClampScore(score), notes
}

// credibility sums the item's credibility sub-signals: a reachable URL,
// a public repository, and a substantive description.
func credibility(item types.ContentItem) int {
	c := 0
	if item.Meta.Website != "" || item.URL != "" {
		c += 5
	}
	if item.Meta.RepoURL != "" {
		c += 5
	}
	if len(item.Description) >= 80 {
		c += 5
	}
	return c
}

// Apply writes the rule-based score onto the item.
func Apply(item types.ContentItem, cfg types.ScoringConfig) types.ContentItem {
	score, notes := Rule(item, cfg)
	item.AccelerateScore = score
	item.AccelerateFit = score >= cfg.FitThreshold
	item.CredibilityScore = types.ClampScore(credibility(item) * 100 / 15)
	item.Confidence = 0.5
	item.ScoreReasoning = strings.Join(notes, "; ")
	return item
}

// ScoreAll scores every item. Rule-based scores are computed first; when a
// backend is configured each item is then assessed concurrently in chunks,
// with a per-item timeout. A timed-out assessment keeps the rule-based
// score; a failed one degrades to the neutral default. The result is
// ranked by descending score.
func ScoreAll(ctx context.Context, items []types.ContentItem, backend Backend, cfg types.ScoringConfig, w io.Writer) []types.ContentItem {
	scored := make([]types.ContentItem, len(items))
	for i, item := range items {
		scored[i] = Apply(item, cfg)
	}

	if backend != nil {
		chunk := cfg.ChunkSize
		if chunk <= 0 {
			chunk = 5
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(chunk)
		for i := range scored {
			i := i
			g.Go(func() error {
				scored[i] = assess(gctx, backend, scored[i], cfg, w)
				return nil
			})
		}
		g.Wait()
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].AccelerateScore > scored[j].AccelerateScore
	})
	return scored
}

// assess runs one backend assessment under the per-item timeout and folds
// the verdict into the item.
func assess(ctx context.Context, backend Backend, item types.ContentItem, cfg types.ScoringConfig, w io.Writer) types.ContentItem {
	timeout := cfg.ItemTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	verdicts, err := backend.ScoreBatch(ictx, []types.ContentItem{item})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Slow backend: keep the rule-based score.
			fmt.Fprintf(w, "warning: %s timed out scoring %q, keeping rule-based score\n", backend.Name(), item.Title)
			return item
		}
		fmt.Fprintf(w, "warning: %s failed scoring %q: %v\n", backend.Name(), item.Title, err)
		item.AccelerateScore = cfg.NeutralScore
		item.AccelerateFit = cfg.NeutralScore >= cfg.FitThreshold
		item.ScoreReasoning = "scoring backend unavailable, neutral default assigned"
		return item
	}

	verdict, ok := verdicts[item.Key()]
	if !ok {
		return item
	}
	item.AccelerateScore = types.ClampScore(verdict.Score)
	item.AccelerateFit = verdict.Fit
	item.Confidence = verdict.Confidence
	item.ScoreReasoning = verdict.Reasoning
	return item
}
