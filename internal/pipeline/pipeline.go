// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one ingestion run: fetch, validate,
// deduplicate, score, stage. Stage faults degrade the run rather than
// abort it; only a staging-store fault fails a run outright.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/accelerate-engine/internal/dedup"
	"github.com/pdiddy/accelerate-engine/internal/httputil"
	"github.com/pdiddy/accelerate-engine/internal/score"
	"github.com/pdiddy/accelerate-engine/internal/source"
	"github.com/pdiddy/accelerate-engine/internal/validate"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// State names the orchestrator's current stage.
type State string

const (
	StateIdle          State = "idle"
	StateFetching      State = "fetching"
	StateValidating    State = "validating"
	StateDeduplicating State = "deduplicating"
	StateScoring       State = "scoring"
	StateStaging       State = "staging"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Staging is the slice of the store the orchestrator needs: the dedup
// index plus write access for staging and the raw-source log.
type Staging interface {
	dedup.Index
	Upsert(ctx context.Context, item types.ContentItem) (inserted bool, id string, err error)
	LogRaw(ctx context.Context, source string, raws []map[string]any) error
	Ping(ctx context.Context) error
}

// Orchestrator wires the stages together and tracks run state.
type Orchestrator struct {
	sources []source.Source
	staging Staging
	backend score.Backend
	limiter *httputil.Limiter
	cfg     types.PipelineConfig
	w       io.Writer

	mu    sync.Mutex
	state State
}

// New creates an orchestrator. backend may be nil, in which case items
// keep their rule-based scores.
func New(sources []source.Source, staging Staging, backend score.Backend, cfg types.PipelineConfig, w io.Writer) *Orchestrator {
	return &Orchestrator{
		sources: sources,
		staging: staging,
		backend: backend,
		limiter: httputil.NewLimiter(cfg.Sources.RateLimitWindow, cfg.Sources.RateLimitBudget),
		cfg:     cfg,
		w:       w,
		state:   StateIdle,
	}
}

// State returns the orchestrator's current stage.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run executes one full pipeline pass. It never panics: a stage panic is
// converted into a failed result. Empty intermediate results end the run
// early as a success with an explanatory entry in Errors.
func (o *Orchestrator) Run(ctx context.Context) (result types.RunResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.setState(StateFailed)
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("panic: %v", r))
		}
		result.DurationMS = time.Since(start).Milliseconds()
	}()

	if err := o.staging.Ping(ctx); err != nil {
		o.setState(StateFailed)
		result.Errors = append(result.Errors, fmt.Sprintf("staging store unavailable: %v", err))
		return result
	}

	// Fetch.
	o.setState(StateFetching)
	fmt.Fprintf(o.w, "fetching from %d sources...\n", len(o.sources))
	fetched := source.FetchAll(ctx, o.sources, o.cfg.Sources, o.limiter, o.w)
	result.Errors = append(result.Errors, fetched.Warnings...)
	result.Fetched = len(fetched.Items)
	if result.Fetched == 0 {
		o.setState(StateDone)
		result.Success = true
		result.Errors = append(result.Errors, "no content fetched")
		return result
	}

	// Validate.
	o.setState(StateValidating)
	validated := validate.Batch(fetched.Items, o.cfg.Criteria)
	result.Breakdown = validated.Breakdown
	result.Validated = validated.Breakdown.Accepted()
	fmt.Fprintf(o.w, "validated: %d accepted, %d rejected (perfect %d, good %d, maybe %d)\n",
		result.Validated, validated.Breakdown.Rejected,
		validated.Breakdown.Perfect, validated.Breakdown.Good, validated.Breakdown.Maybe)
	if result.Validated == 0 {
		o.setState(StateDone)
		result.Success = true
		result.Errors = append(result.Errors, "No items met ACCELERATE criteria")
		return result
	}

	// Deduplicate against the staging store.
	o.setState(StateDeduplicating)
	detector := dedup.NewDetector(o.staging, o.cfg.Dedup)
	partition, err := detector.Partition(ctx, validated.Items, o.w)
	if err != nil {
		o.setState(StateFailed)
		result.Errors = append(result.Errors, fmt.Sprintf("deduplication: %v", err))
		return result
	}
	result.Unique = len(partition.Unique)
	result.Updated += partition.Merged
	if result.Unique == 0 {
		o.setState(StateDone)
		result.Success = true
		result.Errors = append(result.Errors, "all items were duplicates")
		return result
	}

	// Score and rank.
	o.setState(StateScoring)
	ranked := score.ScoreAll(ctx, partition.Unique, o.backend, o.cfg.Scoring, o.w)

	// Stage.
	o.setState(StateStaging)
	o.stage(ctx, ranked, fetched.Raw, &result)
	if result.Inserted+result.Updated == 0 {
		// Every write failed; treat as a store-level fault.
		o.setState(StateFailed)
		return result
	}

	o.setState(StateDone)
	result.Success = true
	fmt.Fprintf(o.w, "\nRun summary: %d fetched, %d validated, %d unique, %d inserted, %d updated (%.0f%% success rate)\n",
		result.Fetched, result.Validated, result.Unique, result.Inserted, result.Updated,
		result.SuccessRate()*100)
	return result
}

// stage writes ranked items into their type buckets and appends the raw
// source batches to the log. Item write failures are captured per item.
func (o *Orchestrator) stage(ctx context.Context, items []types.ContentItem, raw map[string][]map[string]any, result *types.RunResult) {
	result.InsertedByType = make(map[types.ContentType]int)

	for _, item := range items {
		inserted, _, err := o.staging.Upsert(ctx, item)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("staging %q: %v", item.Title, err))
			continue
		}
		if inserted {
			result.Inserted++
			result.InsertedByType[item.Type]++
			fmt.Fprintf(o.w, "staged: %s [%s] score %d\n", item.Title, item.Type, item.AccelerateScore)
		} else {
			result.Updated++
		}
	}

	for name, batch := range raw {
		if err := o.staging.LogRaw(ctx, name, batch); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("raw log %s: %v", name, err))
		}
	}
}
