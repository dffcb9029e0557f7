// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract normalizes raw heterogeneous source records into
// ContentItems and derives the numeric signals the validator and scorer
// read. Normalization is best-effort and never fails: a malformed record
// degrades to a partial item rather than aborting the batch.
package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// Field-path candidates per display field, tried in order. Sources name
// the same concept differently; the first non-empty candidate wins.
var (
	titleKeys       = []string{"title", "name", "full_name", "project_name", "tagline_title"}
	descriptionKeys = []string{"description", "tagline", "summary", "abstract", "body_markdown"}
	urlKeys         = []string{"url", "website", "website_url", "homepage", "html_url", "link", "canonical_url"}
	websiteKeys     = []string{"website", "website_url", "homepage"}
	repoKeys        = []string{"repo_url", "github_url", "html_url", "repository"}
	teamKeys        = []string{"team_size", "makers_count", "employees", "team"}
	fundingKeys     = []string{"funding_raised_usd", "amount", "raised", "amount_usd", "funding"}
	launchKeys      = []string{"launch_date", "launched_at", "created_at", "date", "published_at", "featured_at"}
	starKeys        = []string{"stars", "stargazers_count", "star_count"}
	voteKeys        = []string{"votes", "votes_count", "upvotes", "positive_reactions_count", "points"}
	commentKeys     = []string{"comments", "comments_count", "descendants"}
	tvlKeys         = []string{"tvl", "tvl_usd", "total_value_locked"}
	tagKeys         = []string{"tags", "topics", "tag_list", "categories"}
	chainKeys       = []string{"chains", "chain"}
)

// recognizedKeys is the union of all field paths consumed above. Keys not
// in this set are preserved opaquely in Meta.Extra.
var recognizedKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, group := range [][]string{
		titleKeys, descriptionKeys, urlKeys, websiteKeys, repoKeys,
		teamKeys, fundingKeys, launchKeys, starKeys, voteKeys,
		commentKeys, tvlKeys, tagKeys, chainKeys,
	} {
		for _, k := range group {
			m[k] = true
		}
	}
	m["type"] = true
	m["round"] = true
	return m
}()

// Normalize maps one raw source record to a ContentItem. The source name
// is recorded as-is; the content type comes from an explicit "type" field
// when present and valid, otherwise from inferType heuristics.
func Normalize(raw map[string]any, source string) types.ContentItem {
	item := types.ContentItem{
		Source:      source,
		Title:       strings.TrimSpace(firstString(raw, titleKeys)),
		Description: strings.TrimSpace(firstString(raw, descriptionKeys)),
		URL:         strings.TrimSpace(firstString(raw, urlKeys)),
		Tags:        stringList(raw, tagKeys),
	}

	item.Meta = types.Metadata{
		TeamSize:         firstInt(raw, teamKeys),
		FundingRaisedUSD: firstFloat(raw, fundingKeys),
		Stars:            firstInt(raw, starKeys),
		Votes:            firstInt(raw, voteKeys),
		Comments:         firstInt(raw, commentKeys),
		TVLUSD:           firstFloat(raw, tvlKeys),
		Website:          strings.TrimSpace(firstString(raw, websiteKeys)),
		RepoURL:          strings.TrimSpace(firstString(raw, repoKeys)),
		Chains:           stringList(raw, chainKeys),
	}

	if t := firstTime(raw, launchKeys); !t.IsZero() {
		item.Meta.LaunchDate = t
		item.Meta.MonthsSinceLaunch = monthsSince(t, time.Now())
	}

	if explicit := types.ContentType(asString(raw["type"])); explicit.Valid() {
		item.Type = explicit
	} else {
		item.Type = inferType(raw, item)
	}

	item.Meta.Extra = collectExtra(raw)
	return item
}

// NormalizeBatch maps a slice of raw records, dropping only those that end
// up without an identity key.
func NormalizeBatch(raws []map[string]any, source string) []types.ContentItem {
	items := make([]types.ContentItem, 0, len(raws))
	for _, raw := range raws {
		item := Normalize(raw, source)
		if item.Key() == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// inferType applies field heuristics: funding-amount-like fields mean a
// funding event, company/team fields mean a project, everything else is a
// resource.
func inferType(raw map[string]any, item types.ContentItem) types.ContentType {
	if item.Meta.FundingRaisedUSD > 0 || hasAny(raw, "round", "investors", "raised") {
		return types.TypeFunding
	}
	if item.Meta.TeamSize > 0 || item.Meta.Stars > 0 || item.Meta.Votes > 0 ||
		hasAny(raw, "company", "makers", "team", "tagline") {
		return types.TypeProject
	}
	return types.TypeResource
}

func collectExtra(raw map[string]any) map[string]any {
	var extra map[string]any
	for k, v := range raw {
		if recognizedKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func hasAny(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return true
		}
	}
	return false
}

func firstString(raw map[string]any, keys []string) string {
	for _, k := range keys {
		if s := asString(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstInt(raw map[string]any, keys []string) int {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if n, ok := asFloat(v); ok {
				return int(n)
			}
		}
	}
	return 0
}

func firstFloat(raw map[string]any, keys []string) float64 {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if n, ok := asFloat(v); ok {
				return n
			}
		}
	}
	return 0
}

// launchLayouts are the date formats sources have been seen to emit.
var launchLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
}

func firstTime(raw map[string]any, keys []string) time.Time {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t
		case float64:
			// Unix seconds, the DeFiLlama convention.
			if t > 1e9 && t < 1e11 {
				return time.Unix(int64(t), 0).UTC()
			}
		case string:
			for _, layout := range launchLayouts {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed
				}
			}
		}
	}
	return time.Time{}
}

func stringList(raw map[string]any, keys []string) []string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch list := v.(type) {
		case []string:
			return dedupeStrings(list)
		case []any:
			out := make([]string, 0, len(list))
			for _, e := range list {
				if s := asString(e); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return dedupeStrings(out)
			}
		case string:
			// dev.to style comma-separated tag list.
			if list != "" {
				parts := strings.Split(list, ",")
				out := make([]string, 0, len(parts))
				for _, p := range parts {
					if p = strings.TrimSpace(p); p != "" {
						out = append(out, p)
					}
				}
				return dedupeStrings(out)
			}
		}
	}
	return nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asFloat coerces the numeric shapes JSON decoding produces, including
// numbers sources send as strings ("$2.5M" is out of scope; "2500000" is not).
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(n, "$"))
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// monthsSince counts whole months between launch and now, never negative.
func monthsSince(launch, now time.Time) int {
	if launch.After(now) {
		return 0
	}
	months := (now.Year()-launch.Year())*12 + int(now.Month()) - int(launch.Month())
	if now.Day() < launch.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
