// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/accelerate-engine/internal/extract"
	"github.com/pdiddy/accelerate-engine/internal/httputil"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// githubAPIBase is the repository search endpoint. Declared as a var so
// tests can substitute an httptest server.
var githubAPIBase = "https://api.github.com/search/repositories"

// GitHub surfaces recently created repositories as project candidates.
type GitHub struct {
	Client httputil.Doer
	Token  string

	// now is stubbed in tests to pin the search window.
	now func() time.Time
}

// Name returns the source identifier.
func (g *GitHub) Name() string { return "github" }

// Fetch queries the GitHub search API for repositories created in the
// last 90 days, most-starred first.
func (g *GitHub) Fetch(ctx context.Context, cfg types.SourceConfig) ([]map[string]any, error) {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	since := now().AddDate(0, 0, -90).Format("2006-01-02")

	terms := []string{fmt.Sprintf("created:>%s", since)}
	for _, topic := range cfg.GitHubTopics {
		terms = append(terms, "topic:"+topic)
	}

	perPage := cfg.MaxPerSource
	if perPage <= 0 {
		perPage = 50
	}
	params := url.Values{
		"q":        {strings.Join(terms, " ")},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {fmt.Sprintf("%d", perPage)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, g.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("GitHub search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub search returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing GitHub response: %w", err)
	}
	return body.Items, nil
}

// Transform normalizes repository records. GitHub's "homepage" usually
// points at the product site; the repo URL stays as the fallback identity.
func (g *GitHub) Transform(raws []map[string]any) []types.ContentItem {
	mapped := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		m := make(map[string]any, len(raw)+2)
		for k, v := range raw {
			m[k] = v
		}
		if hp, _ := raw["homepage"].(string); hp != "" {
			m["website"] = hp
		}
		if full, _ := raw["html_url"].(string); full != "" {
			m["repo_url"] = full
		}
		mapped = append(mapped, m)
	}
	return extract.NormalizeBatch(mapped, g.Name())
}
