// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source wraps the external listing APIs and fans fetches out
// concurrently. Each adapter implements the Source interface per the
// Strategy pattern; a failing source contributes zero items and a warning
// rather than aborting the run.
package source

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/accelerate-engine/internal/httputil"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// Source fetches raw records from one external feed and normalizes them.
type Source interface {
	Name() string
	Fetch(ctx context.Context, cfg types.SourceConfig) ([]map[string]any, error)
	Transform(raws []map[string]any) []types.ContentItem
}

// FetchOutput aggregates one fan-out across all configured sources.
type FetchOutput struct {
	Items []types.ContentItem

	// Raw keeps each source's unprocessed batch for the raw-source log.
	Raw map[string][]map[string]any

	// Warnings carries one entry per failed or skipped source.
	Warnings []string
}

// FetchAll runs every source concurrently, bounded by cfg.FetchConcurrency,
// with a per-source timeout so one slow feed cannot stall the batch. The
// limiter enforces each source's token window. Items from different
// sources are concatenated in arrival order.
func FetchAll(ctx context.Context, sources []Source, cfg types.SourceConfig, limiter *httputil.Limiter, w io.Writer) FetchOutput {
	out := FetchOutput{Raw: make(map[string][]map[string]any)}
	if len(sources) == 0 {
		out.Warnings = append(out.Warnings, "no sources configured")
		return out
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			if limiter != nil && !limiter.Allow(src.Name()) {
				mu.Lock()
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: rate limit window exhausted, skipping", src.Name()))
				mu.Unlock()
				return nil
			}

			fctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			raws, err := src.Fetch(fctx, cfg)
			if err != nil {
				mu.Lock()
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v", src.Name(), err))
				mu.Unlock()
				fmt.Fprintf(w, "warning: source %s failed: %v\n", src.Name(), err)
				return nil
			}

			items := src.Transform(raws)
			mu.Lock()
			out.Raw[src.Name()] = raws
			out.Items = append(out.Items, items...)
			mu.Unlock()
			fmt.Fprintf(w, "fetched: %s (%d records, %d items)\n", src.Name(), len(raws), len(items))
			return nil
		})
	}

	g.Wait()
	return out
}

// Enabled builds the adapter list the config selects, sharing one
// retrying HTTP client wrapped in a per-source circuit breaker.
func Enabled(cfg types.SourceConfig, client httputil.Doer) []Source {
	var sources []Source
	if cfg.EnableProductHunt {
		sources = append(sources, &ProductHunt{Client: httputil.NewBreakerClient("producthunt", client), Token: cfg.ProductHuntToken})
	}
	if cfg.EnableGitHub {
		sources = append(sources, &GitHub{Client: httputil.NewBreakerClient("github", client), Token: cfg.GitHubToken})
	}
	if cfg.EnableDefiLlama {
		sources = append(sources, &DefiLlama{Client: httputil.NewBreakerClient("defillama", client)})
	}
	if cfg.EnableDevTo {
		sources = append(sources, &DevTo{Client: httputil.NewBreakerClient("devto", client)})
	}
	return sources
}
