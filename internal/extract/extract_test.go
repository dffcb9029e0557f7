// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"
	"time"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

func TestNormalizePicksFieldPaths(t *testing.T) {
	raw := map[string]any{
		"name":         "Acme Labs",
		"tagline":      "Ship faster",
		"website_url":  "https://acme.example",
		"votes_count":  float64(120),
		"makers_count": float64(3),
	}

	item := Normalize(raw, "producthunt")

	if item.Title != "Acme Labs" {
		t.Errorf("Title = %q, want %q", item.Title, "Acme Labs")
	}
	if item.Description != "Ship faster" {
		t.Errorf("Description = %q, want %q", item.Description, "Ship faster")
	}
	if item.URL != "https://acme.example" {
		t.Errorf("URL = %q, want %q", item.URL, "https://acme.example")
	}
	if item.Meta.Votes != 120 {
		t.Errorf("Votes = %d, want 120", item.Meta.Votes)
	}
	if item.Meta.TeamSize != 3 {
		t.Errorf("TeamSize = %d, want 3", item.Meta.TeamSize)
	}
	if item.Source != "producthunt" {
		t.Errorf("Source = %q, want producthunt", item.Source)
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want types.ContentType
	}{
		{
			name: "funding amount implies funding",
			raw:  map[string]any{"name": "Acme", "amount": float64(2_000_000)},
			want: types.TypeFunding,
		},
		{
			name: "round field implies funding",
			raw:  map[string]any{"name": "Acme", "round": "Seed"},
			want: types.TypeFunding,
		},
		{
			name: "team fields imply project",
			raw:  map[string]any{"name": "Acme", "team_size": float64(4)},
			want: types.TypeProject,
		},
		{
			name: "stars imply project",
			raw:  map[string]any{"full_name": "acme/tool", "stargazers_count": float64(900)},
			want: types.TypeProject,
		},
		{
			name: "bare article is a resource",
			raw:  map[string]any{"title": "How to raise a seed round", "url": "https://blog.example/post"},
			want: types.TypeResource,
		},
		{
			name: "explicit type wins over heuristics",
			raw:  map[string]any{"name": "Acme", "team_size": float64(4), "type": "resource"},
			want: types.TypeResource,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, "test").Type; got != tt.want {
				t.Errorf("Type = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeLaunchDate(t *testing.T) {
	raw := map[string]any{
		"name":       "Acme",
		"created_at": "2026-02-01T10:00:00Z",
	}

	item := Normalize(raw, "github")
	if item.Meta.LaunchDate.IsZero() {
		t.Fatal("LaunchDate not parsed")
	}
	if item.Meta.LaunchDate.Year() != 2026 {
		t.Errorf("LaunchDate year = %d, want 2026", item.Meta.LaunchDate.Year())
	}
}

func TestNormalizeUnixTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	raw := map[string]any{
		"name": "Acme Protocol",
		"date": float64(ts),
	}

	item := Normalize(raw, "defillama")
	if got := item.Meta.LaunchDate; got.IsZero() || got.Year() != 2026 || got.Month() != 3 {
		t.Errorf("LaunchDate = %v, want 2026-03", got)
	}
}

func TestNormalizeNumericStrings(t *testing.T) {
	raw := map[string]any{
		"name":   "Acme",
		"amount": "2,500,000",
	}

	item := Normalize(raw, "defillama")
	if item.Meta.FundingRaisedUSD != 2_500_000 {
		t.Errorf("FundingRaisedUSD = %v, want 2500000", item.Meta.FundingRaisedUSD)
	}
}

func TestNormalizePreservesUnknownKeys(t *testing.T) {
	raw := map[string]any{
		"name":        "Acme",
		"url":         "https://acme.example",
		"obscure_key": "kept",
	}

	item := Normalize(raw, "test")
	if item.Meta.Extra["obscure_key"] != "kept" {
		t.Errorf("Extra = %v, want obscure_key preserved", item.Meta.Extra)
	}
	if _, leaked := item.Meta.Extra["name"]; leaked {
		t.Error("recognized key leaked into Extra")
	}
}

func TestNormalizeMalformedRecordDegrades(t *testing.T) {
	raw := map[string]any{
		"name":       "Partial",
		"votes":      "not-a-number",
		"created_at": "not-a-date",
		"tags":       42,
	}

	// Must not panic; numeric fields degrade to zero values.
	item := Normalize(raw, "test")
	if item.Title != "Partial" {
		t.Errorf("Title = %q, want Partial", item.Title)
	}
	if item.Meta.Votes != 0 || !item.Meta.LaunchDate.IsZero() || item.Tags != nil {
		t.Errorf("malformed fields should degrade to zero values, got %+v", item.Meta)
	}
}

func TestNormalizeBatchDropsItemsWithoutIdentity(t *testing.T) {
	raws := []map[string]any{
		{"name": "Keep Me", "url": "https://keep.example"},
		{"description": "no title, no url"},
		{"name": "Titled Only"},
	}

	items := NormalizeBatch(raws, "test")
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Title != "Keep Me" || items[1].Title != "Titled Only" {
		t.Errorf("unexpected batch contents: %+v", items)
	}
}

func TestNormalizeTagList(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want int
	}{
		{"string slice", map[string]any{"name": "a", "topics": []any{"web3", "ai"}}, 2},
		{"comma separated", map[string]any{"name": "a", "tag_list": "go, startups,go"}, 2},
		{"absent", map[string]any{"name": "a"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Normalize(tt.raw, "test").Tags); got != tt.want {
				t.Errorf("len(Tags) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthsSince(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		launch time.Time
		want   int
	}{
		{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), 3},
		{time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), 11},
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		if got := monthsSince(tt.launch, now); got != tt.want {
			t.Errorf("monthsSince(%v) = %d, want %d", tt.launch, got, tt.want)
		}
	}
}
