// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate applies the ACCELERATE eligibility criteria to
// normalized items: recency of launch, team-size ceiling, and funding
// ceiling. Verdicts are categorical rather than boolean so the
// orchestrator can report a per-category breakdown.
package validate

import (
	"fmt"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// Category grades how well an item meets the criteria.
type Category string

const (
	Perfect  Category = "perfect"
	Good     Category = "good"
	Maybe    Category = "maybe"
	Rejected Category = "rejected"
)

// Verdict is the outcome of evaluating one item: the category plus the
// numeric reasons behind it.
type Verdict struct {
	Category Category
	Reasons  []string
}

// Accepted reports whether the item proceeds to deduplication.
func (v Verdict) Accepted() bool {
	return v.Category != Rejected
}

// BatchOutput holds the surviving items and the per-category counts.
type BatchOutput struct {
	Items     []types.ContentItem
	Breakdown types.ValidationBreakdown
}

// Evaluate grades a single item against the criteria. Project items must
// clear every ceiling; funding and resource items admit on looser rules
// since a funding event or resource stays useful past the startup gates.
func Evaluate(item types.ContentItem, criteria types.CriteriaConfig) Verdict {
	switch item.Type {
	case types.TypeProject:
		return evaluateProject(item, criteria)
	case types.TypeFunding, types.TypeResource:
		return evaluateLoose(item, criteria)
	default:
		return Verdict{Category: Rejected, Reasons: []string{fmt.Sprintf("unknown content type %q", item.Type)}}
	}
}

func evaluateProject(item types.ContentItem, criteria types.CriteriaConfig) Verdict {
	var reasons []string
	misses := 0

	launchKnown := !item.Meta.LaunchDate.IsZero()
	recent := launchKnown && item.Meta.LaunchDate.Year() >= criteria.MinLaunchYear
	switch {
	case recent:
		reasons = append(reasons, fmt.Sprintf("launched %d (>= %d)", item.Meta.LaunchDate.Year(), criteria.MinLaunchYear))
	case launchKnown:
		reasons = append(reasons, fmt.Sprintf("launched %d (< %d)", item.Meta.LaunchDate.Year(), criteria.MinLaunchYear))
		return Verdict{Category: Rejected, Reasons: reasons}
	default:
		reasons = append(reasons, "launch date unknown")
		misses++
	}

	teamKnown := item.Meta.TeamSize > 0
	switch {
	case teamKnown && item.Meta.TeamSize <= criteria.MaxTeamSize:
		reasons = append(reasons, fmt.Sprintf("team size %d (<= %d)", item.Meta.TeamSize, criteria.MaxTeamSize))
	case teamKnown:
		reasons = append(reasons, fmt.Sprintf("team size %d (> %d)", item.Meta.TeamSize, criteria.MaxTeamSize))
		return Verdict{Category: Rejected, Reasons: reasons}
	default:
		reasons = append(reasons, "team size unknown")
		misses++
	}

	fundingKnown := item.Meta.FundingRaisedUSD > 0
	switch {
	case fundingKnown && item.Meta.FundingRaisedUSD <= criteria.MaxFundingUSD:
		reasons = append(reasons, fmt.Sprintf("funding $%.0f (<= $%.0f)", item.Meta.FundingRaisedUSD, criteria.MaxFundingUSD))
	case fundingKnown:
		reasons = append(reasons, fmt.Sprintf("funding $%.0f (> $%.0f)", item.Meta.FundingRaisedUSD, criteria.MaxFundingUSD))
		return Verdict{Category: Rejected, Reasons: reasons}
	default:
		reasons = append(reasons, "funding unknown (assume pre-funding)")
	}

	// All ceilings cleared; grade by how much is actually known.
	switch misses {
	case 0:
		return Verdict{Category: Perfect, Reasons: reasons}
	case 1:
		return Verdict{Category: Good, Reasons: reasons}
	default:
		return Verdict{Category: Maybe, Reasons: reasons}
	}
}

func evaluateLoose(item types.ContentItem, criteria types.CriteriaConfig) Verdict {
	var reasons []string

	// Funding above the project ceiling still disqualifies a funding event
	// from the ACCELERATE queue: the company has outgrown the program.
	if item.Type == types.TypeFunding && criteria.MaxFundingUSD > 0 &&
		item.Meta.FundingRaisedUSD > criteria.MaxFundingUSD {
		reasons = append(reasons, fmt.Sprintf("funding $%.0f (> $%.0f)", item.Meta.FundingRaisedUSD, criteria.MaxFundingUSD))
		return Verdict{Category: Rejected, Reasons: reasons}
	}

	if item.Meta.LaunchDate.IsZero() {
		reasons = append(reasons, "launch date unknown")
		return Verdict{Category: Maybe, Reasons: reasons}
	}
	if item.Meta.LaunchDate.Year() >= criteria.MinLaunchYear {
		reasons = append(reasons, fmt.Sprintf("dated %d (>= %d)", item.Meta.LaunchDate.Year(), criteria.MinLaunchYear))
		return Verdict{Category: Good, Reasons: reasons}
	}
	reasons = append(reasons, fmt.Sprintf("dated %d (< %d)", item.Meta.LaunchDate.Year(), criteria.MinLaunchYear))
	return Verdict{Category: Maybe, Reasons: reasons}
}

// Batch evaluates every item, keeping those whose verdict is not rejected
// and counting verdicts per category for the run report.
func Batch(items []types.ContentItem, criteria types.CriteriaConfig) BatchOutput {
	var out BatchOutput
	for _, item := range items {
		v := Evaluate(item, criteria)
		switch v.Category {
		case Perfect:
			out.Breakdown.Perfect++
		case Good:
			out.Breakdown.Good++
		case Maybe:
			out.Breakdown.Maybe++
		case Rejected:
			out.Breakdown.Rejected++
		}
		if v.Accepted() {
			out.Items = append(out.Items, item)
		}
	}
	return out
}
