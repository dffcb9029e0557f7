// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"testing"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

const sampleProductHuntJSON = `{
  "data": {
    "posts": {
      "edges": [
        {
          "node": {
            "name": "LaunchPilot",
            "tagline": "Ship your side project in a weekend",
            "description": "A guided launch checklist with templates.",
            "url": "https://www.producthunt.com/posts/launchpilot",
            "website": "https://launchpilot.io",
            "votesCount": 342,
            "commentsCount": 41,
            "createdAt": "2026-08-20T07:01:00Z",
            "makers": [{"id": "u1"}, {"id": "u2"}],
            "topics": {"edges": [{"node": {"name": "Productivity"}}, {"node": {"name": "SaaS"}}]}
          }
        },
        {
          "node": {
            "name": "Quietdesk",
            "tagline": "Focus rooms for remote teams",
            "url": "https://www.producthunt.com/posts/quietdesk",
            "votesCount": 18,
            "commentsCount": 2,
            "createdAt": "2026-08-29T09:12:00Z",
            "makers": [{"id": "u3"}],
            "topics": {"edges": []}
          }
        }
      ]
    }
  }
}`

func TestProductHuntFetch(t *testing.T) {
	ts := jsonTestServer(t, http.StatusOK, sampleProductHuntJSON, nil)
	defer ts.Close()

	old := productHuntAPIBase
	productHuntAPIBase = ts.URL
	defer func() { productHuntAPIBase = old }()

	p := &ProductHunt{Client: ts.Client(), Token: "test-token"}
	raws, err := p.Fetch(context.Background(), testCfg())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("len(raws) = %d, want 2", len(raws))
	}
	if raws[0]["name"] != "LaunchPilot" {
		t.Errorf("raws[0][name] = %v, want LaunchPilot", raws[0]["name"])
	}
}

func TestProductHuntFetchNoToken(t *testing.T) {
	p := &ProductHunt{Client: http.DefaultClient}
	if _, err := p.Fetch(context.Background(), testCfg()); err == nil {
		t.Fatal("Fetch should fail without a token")
	}
}

func TestProductHuntFetchHTTPError(t *testing.T) {
	ts := jsonTestServer(t, http.StatusUnauthorized, `{"error":"bad token"}`, nil)
	defer ts.Close()

	old := productHuntAPIBase
	productHuntAPIBase = ts.URL
	defer func() { productHuntAPIBase = old }()

	p := &ProductHunt{Client: ts.Client(), Token: "stale"}
	if _, err := p.Fetch(context.Background(), testCfg()); err == nil {
		t.Fatal("Fetch should fail on HTTP 401")
	}
}

func TestProductHuntTransform(t *testing.T) {
	p := &ProductHunt{}
	items := p.Transform([]map[string]any{
		{
			"name":          "LaunchPilot",
			"tagline":       "Ship your side project in a weekend",
			"url":           "https://www.producthunt.com/posts/launchpilot",
			"website":       "https://launchpilot.io",
			"votesCount":    float64(342),
			"commentsCount": float64(41),
			"createdAt":     "2026-08-20T07:01:00Z",
			"makers":        []any{map[string]any{"id": "u1"}, map[string]any{"id": "u2"}},
			"topics": map[string]any{
				"edges": []any{
					map[string]any{"node": map[string]any{"name": "Productivity"}},
					map[string]any{"node": map[string]any{"name": "SaaS"}},
				},
			},
		},
	})
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}

	item := items[0]
	if item.Source != "producthunt" {
		t.Errorf("Source = %q, want producthunt", item.Source)
	}
	if item.Type != types.TypeProject {
		t.Errorf("Type = %q, want project", item.Type)
	}
	if item.Meta.Votes != 342 || item.Meta.Comments != 41 {
		t.Errorf("Votes/Comments = %d/%d, want 342/41", item.Meta.Votes, item.Meta.Comments)
	}
	if item.Meta.TeamSize != 2 {
		t.Errorf("TeamSize = %d, want 2 (maker count)", item.Meta.TeamSize)
	}
	if item.Meta.LaunchDate.IsZero() {
		t.Error("LaunchDate should be set from createdAt")
	}
	if len(item.Tags) != 2 || item.Tags[0] != "Productivity" || item.Tags[1] != "SaaS" {
		t.Errorf("Tags = %v, want [Productivity SaaS]", item.Tags)
	}
}

func TestFlattenTopicEdges(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"nil", nil, 0},
		{"not a connection", "topics", 0},
		{"empty edges", map[string]any{"edges": []any{}}, 0},
		{
			"two topics",
			map[string]any{"edges": []any{
				map[string]any{"node": map[string]any{"name": "AI"}},
				map[string]any{"node": map[string]any{"name": "Fintech"}},
			}},
			2,
		},
		{
			"malformed edge skipped",
			map[string]any{"edges": []any{
				"garbage",
				map[string]any{"node": map[string]any{"name": "AI"}},
			}},
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flattenTopicEdges(tt.in); len(got) != tt.want {
				t.Errorf("len(flattenTopicEdges()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}
