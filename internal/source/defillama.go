// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/accelerate-engine/internal/extract"
	"github.com/pdiddy/accelerate-engine/internal/httputil"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// defillamaAPIBase is the DeFiLlama raises endpoint. Declared as a var so
// tests can substitute an httptest server.
var defillamaAPIBase = "https://api.llama.fi/raises"

// DefiLlama surfaces recent fundraising rounds as funding candidates.
type DefiLlama struct {
	Client httputil.Doer
}

// Name returns the source identifier.
func (d *DefiLlama) Name() string { return "defillama" }

// Fetch pulls the raises feed. The endpoint is unauthenticated and
// returns the full recent history; the batch is capped at MaxPerSource.
func (d *DefiLlama) Fetch(ctx context.Context, cfg types.SourceConfig) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, defillamaAPIBase, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("DeFiLlama raises request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DeFiLlama raises returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Raises []map[string]any `json:"raises"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing DeFiLlama response: %w", err)
	}

	max := cfg.MaxPerSource
	if max <= 0 {
		max = 50
	}
	if len(body.Raises) > max {
		body.Raises = body.Raises[:max]
	}
	return body.Raises, nil
}

// Transform normalizes raise records. DeFiLlama reports amounts in
// millions of dollars; the extractor expects plain USD.
func (d *DefiLlama) Transform(raws []map[string]any) []types.ContentItem {
	mapped := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		m := make(map[string]any, len(raw)+1)
		for k, v := range raw {
			m[k] = v
		}
		if amount, ok := raw["amount"].(float64); ok {
			m["funding_raised_usd"] = amount * 1_000_000
			delete(m, "amount")
		}
		if link, _ := raw["source"].(string); link != "" {
			// The feed's "source" field is the announcement link, which
			// would otherwise collide with the pipeline's source name.
			m["link"] = link
			delete(m, "source")
		}
		m["type"] = string(types.TypeFunding)
		mapped = append(mapped, m)
	}
	return extract.NormalizeBatch(mapped, d.Name())
}
