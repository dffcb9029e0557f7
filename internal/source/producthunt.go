// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/accelerate-engine/internal/extract"
	"github.com/pdiddy/accelerate-engine/internal/httputil"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// productHuntAPIBase is the Product Hunt GraphQL endpoint. Declared as a
// var so tests can substitute an httptest server.
var productHuntAPIBase = "https://api.producthunt.com/v2/api/graphql"

const productHuntQuery = `query($first: Int!) {
  posts(order: VOTES, first: $first) {
    edges {
      node {
        name
        tagline
        description
        url
        website
        votesCount
        commentsCount
        createdAt
        makers { id }
        topics { edges { node { name } } }
      }
    }
  }
}`

// ProductHunt surfaces recently launched products as project candidates.
type ProductHunt struct {
	Client httputil.Doer
	Token  string
}

// Name returns the source identifier.
func (p *ProductHunt) Name() string { return "producthunt" }

// Fetch posts the GraphQL query and flattens the post nodes into raw
// records.
func (p *ProductHunt) Fetch(ctx context.Context, cfg types.SourceConfig) ([]map[string]any, error) {
	if p.Token == "" {
		return nil, fmt.Errorf("no Product Hunt token configured")
	}

	first := cfg.MaxPerSource
	if first <= 0 {
		first = 50
	}
	payload, err := json.Marshal(map[string]any{
		"query":     productHuntQuery,
		"variables": map[string]any{"first": first},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, productHuntAPIBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.Token)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Product Hunt API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Product Hunt API returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Posts struct {
				Edges []struct {
					Node map[string]any `json:"node"`
				} `json:"edges"`
			} `json:"posts"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing Product Hunt response: %w", err)
	}

	raws := make([]map[string]any, 0, len(body.Data.Posts.Edges))
	for _, edge := range body.Data.Posts.Edges {
		raws = append(raws, edge.Node)
	}
	return raws, nil
}

// Transform renames Product Hunt's camelCase fields to the canonical
// paths the extractor reads, counts makers as team size, and flattens
// topic edges into tags.
func (p *ProductHunt) Transform(raws []map[string]any) []types.ContentItem {
	mapped := make([]map[string]any, 0, len(raws))
	for _, raw := range raws {
		m := make(map[string]any, len(raw))
		for k, v := range raw {
			m[k] = v
		}
		m["votes_count"] = raw["votesCount"]
		m["comments_count"] = raw["commentsCount"]
		m["launched_at"] = raw["createdAt"]
		delete(m, "votesCount")
		delete(m, "commentsCount")
		delete(m, "createdAt")

		if makers, ok := raw["makers"].([]any); ok {
			m["team_size"] = float64(len(makers))
			delete(m, "makers")
		}
		if topics := flattenTopicEdges(raw["topics"]); len(topics) > 0 {
			m["tags"] = topics
			delete(m, "topics")
		}
		mapped = append(mapped, m)
	}
	return extract.NormalizeBatch(mapped, p.Name())
}

// flattenTopicEdges unwraps the GraphQL connection shape
// {edges: [{node: {name}}]} into a plain name list.
func flattenTopicEdges(v any) []any {
	conn, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	edges, ok := conn["edges"].([]any)
	if !ok {
		return nil
	}
	var names []any
	for _, e := range edges {
		edge, ok := e.(map[string]any)
		if !ok {
			continue
		}
		node, ok := edge["node"].(map[string]any)
		if !ok {
			continue
		}
		if name, ok := node["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}
