// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the accelerate-engine pipeline.
package types

import (
	"net/url"
	"strings"
	"time"
	"unicode"
)

// ContentType classifies an item into its staging bucket.
type ContentType string

const (
	TypeProject  ContentType = "project"
	TypeFunding  ContentType = "funding"
	TypeResource ContentType = "resource"
)

// ContentTypes lists all staging buckets in canonical order.
var ContentTypes = []ContentType{TypeProject, TypeFunding, TypeResource}

// Valid reports whether t is a recognized content type.
func (t ContentType) Valid() bool {
	switch t {
	case TypeProject, TypeFunding, TypeResource:
		return true
	}
	return false
}

// Metadata holds type-specific signals accumulated along the pipeline.
// Recognized keys are typed fields; anything a source sends that the
// extractor does not recognize is preserved opaquely in Extra and never
// relied upon by name outside the extractor.
type Metadata struct {
	TeamSize          int       `json:"team_size,omitempty" yaml:"team_size,omitempty"`
	FundingRaisedUSD  float64   `json:"funding_raised_usd,omitempty" yaml:"funding_raised_usd,omitempty"`
	LaunchDate        time.Time `json:"launch_date,omitempty" yaml:"launch_date,omitempty"`
	MonthsSinceLaunch int       `json:"months_since_launch,omitempty" yaml:"months_since_launch,omitempty"`
	Chains            []string  `json:"chains,omitempty" yaml:"chains,omitempty"`
	Stars             int       `json:"stars,omitempty" yaml:"stars,omitempty"`
	Votes             int       `json:"votes,omitempty" yaml:"votes,omitempty"`
	Comments          int       `json:"comments,omitempty" yaml:"comments,omitempty"`
	TVLUSD            float64   `json:"tvl_usd,omitempty" yaml:"tvl_usd,omitempty"`
	Website           string    `json:"website,omitempty" yaml:"website,omitempty"`
	RepoURL           string    `json:"repo_url,omitempty" yaml:"repo_url,omitempty"`

	// Extra preserves unrecognized source fields for forward compatibility.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ContentItem is the normalized record flowing through the whole pipeline:
// created by a source fetcher, enriched by the extractor, filtered by the
// validator, checked by the duplicate detector, scored, and staged once.
type ContentItem struct {
	// Source identifies the origin feed (e.g. "producthunt", "defillama").
	Source string `json:"source" yaml:"source"`

	// Type selects the staging bucket. Inferred by the extractor when the
	// source does not state it.
	Type ContentType `json:"type" yaml:"type"`

	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Meta Metadata `json:"meta" yaml:"meta"`

	// Fields derived during the pipeline.
	AccelerateScore  int     `json:"accelerate_score" yaml:"accelerate_score"`
	AccelerateFit    bool    `json:"accelerate_fit" yaml:"accelerate_fit"`
	Confidence       float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	CredibilityScore int     `json:"credibility_score,omitempty" yaml:"credibility_score,omitempty"`
	ScoreReasoning   string  `json:"score_reasoning,omitempty" yaml:"score_reasoning,omitempty"`
}

// Key returns the natural dedup key: the normalized URL when present,
// otherwise the normalized title qualified by source. An empty key means
// the item carries no identity and must be dropped before validation.
func (c ContentItem) Key() string {
	if u := NormalizeURL(c.URL); u != "" {
		return u
	}
	if t := NormalizeName(c.Title); t != "" && c.Source != "" {
		return c.Source + ":" + t
	}
	return ""
}

// ClampScore bounds a score to the [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// NormalizeURL lowercases a URL, strips scheme, "www.", trailing slashes,
// and query/fragment noise so equivalent links compare equal.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" && u.Path == "" {
		return strings.TrimRight(raw, "/")
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.TrimRight(u.Path, "/")
	if host == "" {
		// Scheme-less input like "example.com/x" parses into Path.
		return strings.TrimPrefix(strings.TrimRight(u.Path, "/"), "www.")
	}
	return host + path
}

// URLDomain returns the registrable host of a URL, without "www.".
func URLDomain(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// NormalizeName returns a lowercased, punctuation-stripped version of a
// title for name-level comparison.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
