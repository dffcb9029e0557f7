// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StagedRecord is a ContentItem at rest in a staging bucket, awaiting
// review. SeenCount tracks how many times the pipeline has re-encountered
// the same record; Approved marks it cleared for promotion.
type StagedRecord struct {
	ID        string      `json:"id" yaml:"id"`
	Item      ContentItem `json:"item" yaml:"item"`
	SeenCount int         `json:"seen_count" yaml:"seen_count"`
	Approved  bool        `json:"approved" yaml:"approved"`
	CreatedAt time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" yaml:"updated_at"`
}
