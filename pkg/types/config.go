// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request deadline (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "accelerate-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retry attempts for retryable failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SourceConfig holds settings for the fetch stage.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enable flags per source adapter.
	EnableProductHunt bool `json:"enable_producthunt" yaml:"enable_producthunt"`
	EnableGitHub      bool `json:"enable_github" yaml:"enable_github"`
	EnableDefiLlama   bool `json:"enable_defillama" yaml:"enable_defillama"`
	EnableDevTo       bool `json:"enable_devto" yaml:"enable_devto"`

	// ProductHuntToken authenticates the Product Hunt API.
	ProductHuntToken string `json:"producthunt_token,omitempty" yaml:"producthunt_token,omitempty"`

	// GitHubToken raises the GitHub search rate limit. Optional.
	GitHubToken string `json:"github_token,omitempty" yaml:"github_token,omitempty"`

	// GitHubTopics narrows the repository search (e.g. ["web3", "ai"]).
	GitHubTopics []string `json:"github_topics,omitempty" yaml:"github_topics,omitempty"`

	// DevToTags selects which dev.to tags to pull articles from.
	DevToTags []string `json:"devto_tags,omitempty" yaml:"devto_tags,omitempty"`

	// MaxPerSource caps how many records one fetch returns (default 50).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source"`

	// FetchConcurrency bounds how many sources fetch at once (default 3).
	FetchConcurrency int `json:"fetch_concurrency" yaml:"fetch_concurrency"`

	// RateLimitWindow and RateLimitBudget define the per-source token
	// window: at most Budget fetches per Window (default 10 per minute).
	RateLimitWindow time.Duration `json:"rate_limit_window" yaml:"rate_limit_window"`
	RateLimitBudget int           `json:"rate_limit_budget" yaml:"rate_limit_budget"`
}

// CriteriaConfig parameterizes the eligibility validator. The ceilings gate
// project items; funding and resource items admit on recency alone.
type CriteriaConfig struct {
	// MinLaunchYear is the earliest qualifying launch year (default: the
	// current year minus one).
	MinLaunchYear int `json:"min_launch_year" yaml:"min_launch_year"`

	// MaxTeamSize is the team-size ceiling for project items (default 10).
	MaxTeamSize int `json:"max_team_size" yaml:"max_team_size"`

	// MaxFundingUSD is the funding ceiling for project items (default 5M).
	MaxFundingUSD float64 `json:"max_funding_usd" yaml:"max_funding_usd"`
}

// DedupConfig parameterizes the duplicate detector. The thresholds are
// tuned values, not contracts; adjust per deployment.
type DedupConfig struct {
	// NameThreshold is the minimum normalized-edit-distance similarity
	// for a title match (default 0.85).
	NameThreshold float64 `json:"name_threshold" yaml:"name_threshold"`

	// DescThreshold is the minimum keyword-set Jaccard similarity for a
	// description match, used only as a high-confidence fallback (default 0.90).
	DescThreshold float64 `json:"desc_threshold" yaml:"desc_threshold"`

	// MergeThreshold is the composite similarity (0-100) at or above which
	// a duplicate is merged into the stored record instead of reported
	// (default 95).
	MergeThreshold int `json:"merge_threshold" yaml:"merge_threshold"`

	// Composite score weights; must sum to 1.0.
	NameWeight   float64 `json:"name_weight" yaml:"name_weight"`
	DescWeight   float64 `json:"desc_weight" yaml:"desc_weight"`
	DomainWeight float64 `json:"domain_weight" yaml:"domain_weight"`
}

// ScoringConfig holds settings for the scoring stage.
type ScoringConfig struct {
	// ChunkSize is how many items score concurrently (default 5).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ItemTimeout bounds a single backend assessment; past it the item
	// keeps its rule-based score (default 15s).
	ItemTimeout time.Duration `json:"item_timeout" yaml:"item_timeout"`

	// NeutralScore is assigned when no signal is available and when the
	// scoring backend fails (default 50).
	NeutralScore int `json:"neutral_score" yaml:"neutral_score"`

	// FitThreshold is the minimum score for AccelerateFit (default 60).
	FitThreshold int `json:"fit_threshold" yaml:"fit_threshold"`

	// APIKey authenticates the optional scoring backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// StoreConfig holds settings for the staging store.
type StoreConfig struct {
	// Path is the SQLite database file (default "staging/accelerate.db").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Sources  SourceConfig   `json:"sources" yaml:"sources"`
	Criteria CriteriaConfig `json:"criteria" yaml:"criteria"`
	Dedup    DedupConfig    `json:"dedup" yaml:"dedup"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// overrides a setting.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Sources: SourceConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    10 * time.Second,
				UserAgent:  "accelerate-engine/0.1",
				MaxRetries: 3,
			},
			EnableGitHub:     true,
			EnableDefiLlama:  true,
			EnableDevTo:      true,
			MaxPerSource:     50,
			FetchConcurrency: 3,
			RateLimitWindow:  time.Minute,
			RateLimitBudget:  10,
		},
		Criteria: CriteriaConfig{
			MinLaunchYear: time.Now().Year() - 1,
			MaxTeamSize:   10,
			MaxFundingUSD: 5_000_000,
		},
		Dedup: DedupConfig{
			NameThreshold:  0.85,
			DescThreshold:  0.90,
			MergeThreshold: 95,
			NameWeight:     0.4,
			DescWeight:     0.3,
			DomainWeight:   0.3,
		},
		Scoring: ScoringConfig{
			ChunkSize:    5,
			ItemTimeout:  15 * time.Second,
			NeutralScore: 50,
			FitThreshold: 60,
		},
		Store: StoreConfig{
			Path: "staging/accelerate.db",
		},
	}
}
