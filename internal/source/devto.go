// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/accelerate-engine/internal/extract"
	"github.com/pdiddy/accelerate-engine/internal/httputil"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// devtoAPIBase is the dev.to articles endpoint. Declared as a var so
// tests can substitute an httptest server.
var devtoAPIBase = "https://dev.to/api/articles"

// DevTo surfaces recent articles on the configured tags as resource
// candidates.
type DevTo struct {
	Client httputil.Doer
}

// Name returns the source identifier.
func (d *DevTo) Name() string { return "devto" }

// Fetch pulls one page of articles per configured tag. A page failure
// for one tag fails the whole source; per-source isolation happens a
// level up.
func (d *DevTo) Fetch(ctx context.Context, cfg types.SourceConfig) ([]map[string]any, error) {
	tags := cfg.DevToTags
	if len(tags) == 0 {
		tags = []string{"startup"}
	}
	perPage := cfg.MaxPerSource
	if perPage <= 0 {
		perPage = 50
	}
	perPage /= len(tags)
	if perPage < 1 {
		perPage = 1
	}

	var raws []map[string]any
	for _, tag := range tags {
		params := url.Values{
			"tag":      {strings.ToLower(tag)},
			"per_page": {fmt.Sprintf("%d", perPage)},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, devtoAPIBase+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", cfg.UserAgent)

		resp, err := httputil.DoWithRetry(ctx, d.Client, req, cfg.MaxRetries)
		if err != nil {
			return nil, fmt.Errorf("dev.to articles request: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("dev.to articles returned HTTP %d", resp.StatusCode)
		}

		var page []map[string]any
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing dev.to response: %w", err)
		}
		raws = append(raws, page...)
	}
	return raws, nil
}

// Transform normalizes article records; everything from dev.to is a
// resource.
func (d *DevTo) Transform(raws []map[string]any) []types.ContentItem {
	mapped := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		m := make(map[string]any, len(raw)+1)
		for k, v := range raw {
			m[k] = v
		}
		m["type"] = string(types.TypeResource)
		mapped = append(mapped, m)
	}
	return extract.NormalizeBatch(mapped, d.Name())
}
