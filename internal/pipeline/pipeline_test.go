// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/accelerate-engine/internal/source"
	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// --- stub source ---

type stubSource struct {
	name  string
	items []types.ContentItem
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ types.SourceConfig) ([]map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	raws := make([]map[string]any, 0, len(s.items))
	for _, item := range s.items {
		raws = append(raws, map[string]any{"title": item.Title, "url": item.URL})
	}
	return raws, nil
}

func (s *stubSource) Transform(_ []map[string]any) []types.ContentItem {
	return s.items
}

// --- fake staging store ---

type fakeStaging struct {
	mu      sync.Mutex
	records map[types.ContentType][]types.StagedRecord
	rawRows map[string]int
	nextID  int

	pingErr   error
	upsertErr error

	// failTitle limits upsertErr to one item; empty fails every upsert.
	failTitle string
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{
		records: make(map[types.ContentType][]types.StagedRecord),
		rawRows: make(map[string]int),
	}
}

func (f *fakeStaging) Ping(_ context.Context) error { return f.pingErr }

func (f *fakeStaging) Records(_ context.Context, bucket types.ContentType) ([]types.StagedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.StagedRecord(nil), f.records[bucket]...), nil
}

func (f *fakeStaging) Update(_ context.Context, bucket types.ContentType, rec types.StagedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.records[bucket] {
		if existing.ID == rec.ID {
			f.records[bucket][i] = rec
			return nil
		}
	}
	return fmt.Errorf("no record %s in %s", rec.ID, bucket)
}

func (f *fakeStaging) Upsert(_ context.Context, item types.ContentItem) (bool, string, error) {
	if f.upsertErr != nil && (f.failTitle == "" || item.Title == f.failTitle) {
		return false, "", f.upsertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.records[item.Type] {
		if existing.Item.Key() == item.Key() {
			f.records[item.Type][i].SeenCount++
			return false, existing.ID, nil
		}
	}
	f.nextID++
	id := fmt.Sprintf("rec-%d", f.nextID)
	f.records[item.Type] = append(f.records[item.Type], types.StagedRecord{
		ID:        id,
		Item:      item,
		SeenCount: 1,
	})
	return true, id, nil
}

func (f *fakeStaging) LogRaw(_ context.Context, source string, raws []map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawRows[source] += len(raws)
	return nil
}

// --- fixtures ---

func projectItem(title, url string) types.ContentItem {
	return types.ContentItem{
		Source:      "stub",
		Type:        types.TypeProject,
		Title:       title,
		Description: "A tool for small founding teams shipping fast.",
		URL:         url,
		Meta: types.Metadata{
			TeamSize:         3,
			FundingRaisedUSD: 1_000_000,
			LaunchDate:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Stars:            150,
		},
	}
}

func testPipelineCfg() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	cfg.Criteria.MinLaunchYear = 2025
	return cfg
}

func newTestOrchestrator(sources []source.Source, staging Staging) (*Orchestrator, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(sources, staging, nil, testPipelineCfg(), &buf), &buf
}

func hasError(result types.RunResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

// --- Run ---

func TestRunStagesFreshItems(t *testing.T) {
	staging := newFakeStaging()
	sources := []source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{
			projectItem("Vector Cache", "https://vectorcache.dev"),
			projectItem("Quietdesk", "https://quietdesk.io"),
		}},
		&stubSource{name: "beta", items: []types.ContentItem{
			projectItem("Chainpipe", "https://chainpipe.dev"),
		}},
	}

	o, _ := newTestOrchestrator(sources, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatalf("Success = false, Errors = %v", result.Errors)
	}
	if result.Fetched != 3 || result.Validated != 3 || result.Unique != 3 || result.Inserted != 3 {
		t.Errorf("counts = fetched %d, validated %d, unique %d, inserted %d; want 3 each",
			result.Fetched, result.Validated, result.Unique, result.Inserted)
	}
	if result.Breakdown.Perfect != 3 {
		t.Errorf("Breakdown.Perfect = %d, want 3", result.Breakdown.Perfect)
	}
	if result.InsertedByType[types.TypeProject] != 3 {
		t.Errorf("InsertedByType[project] = %d, want 3", result.InsertedByType[types.TypeProject])
	}
	if got := o.State(); got != StateDone {
		t.Errorf("State = %q, want done", got)
	}
	if staging.rawRows["alpha"] != 2 || staging.rawRows["beta"] != 1 {
		t.Errorf("raw log rows = %v, want alpha:2 beta:1", staging.rawRows)
	}
	if rate := result.SuccessRate(); rate != 1 {
		t.Errorf("SuccessRate = %v, want 1", rate)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	staging := newFakeStaging()
	sources := []source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{
			projectItem("Vector Cache", "https://vectorcache.dev"),
			projectItem("Quietdesk", "https://quietdesk.io"),
		}},
	}

	o, _ := newTestOrchestrator(sources, staging)
	first := o.Run(context.Background())
	if !first.Success || first.Inserted != 2 {
		t.Fatalf("first run: Success = %v, Inserted = %d", first.Success, first.Inserted)
	}

	second := o.Run(context.Background())
	if !second.Success {
		t.Fatalf("second run: Success = false, Errors = %v", second.Errors)
	}
	if second.Inserted != 0 {
		t.Errorf("second run Inserted = %d, want 0", second.Inserted)
	}
	// Exact URL matches merge into the staged records.
	if second.Updated != 2 {
		t.Errorf("second run Updated = %d, want 2", second.Updated)
	}
	if !hasError(second, "all items were duplicates") {
		t.Errorf("second run Errors = %v, want duplicate note", second.Errors)
	}
	if len(staging.records[types.TypeProject]) != 2 {
		t.Errorf("staged records = %d, want 2 (no growth)", len(staging.records[types.TypeProject]))
	}
}

func TestRunSurvivesSourceFailure(t *testing.T) {
	staging := newFakeStaging()
	sources := []source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{projectItem("Vector Cache", "https://vectorcache.dev")}},
		&stubSource{name: "broken", err: fmt.Errorf("HTTP 503")},
	}

	o, _ := newTestOrchestrator(sources, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatalf("Success = false, Errors = %v", result.Errors)
	}
	if result.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", result.Inserted)
	}
	if !hasError(result, "broken") {
		t.Errorf("Errors = %v, want warning naming the failed source", result.Errors)
	}
}

func TestRunNothingFetched(t *testing.T) {
	staging := newFakeStaging()
	sources := []source.Source{
		&stubSource{name: "a", err: fmt.Errorf("down")},
		&stubSource{name: "b", err: fmt.Errorf("down")},
	}

	o, _ := newTestOrchestrator(sources, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatal("an empty fetch is a degraded run, not a failed one")
	}
	if result.Fetched != 0 || result.Inserted != 0 {
		t.Errorf("Fetched/Inserted = %d/%d, want 0/0", result.Fetched, result.Inserted)
	}
	if !hasError(result, "no content fetched") {
		t.Errorf("Errors = %v, want fetch note", result.Errors)
	}
	if got := o.State(); got != StateDone {
		t.Errorf("State = %q, want done", got)
	}
}

func TestRunAllRejected(t *testing.T) {
	oversized := projectItem("Big Corp", "https://bigcorp.com")
	oversized.Meta.TeamSize = 500

	staging := newFakeStaging()
	sources := []source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{oversized}},
	}

	o, _ := newTestOrchestrator(sources, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatal("all-rejected is a degraded run, not a failed one")
	}
	if result.Breakdown.Rejected != 1 || result.Validated != 0 {
		t.Errorf("Breakdown = %+v, Validated = %d", result.Breakdown, result.Validated)
	}
	if !hasError(result, "No items met ACCELERATE criteria") {
		t.Errorf("Errors = %v, want criteria note", result.Errors)
	}
}

func TestRunStoreUnavailable(t *testing.T) {
	staging := newFakeStaging()
	staging.pingErr = fmt.Errorf("unable to open database file")

	o, _ := newTestOrchestrator([]source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{projectItem("Vector Cache", "https://vectorcache.dev")}},
	}, staging)
	result := o.Run(context.Background())

	if result.Success {
		t.Fatal("Success = true, want false on store fault")
	}
	if !hasError(result, "staging store unavailable") {
		t.Errorf("Errors = %v, want store fault", result.Errors)
	}
	if got := o.State(); got != StateFailed {
		t.Errorf("State = %q, want failed", got)
	}
}

func TestRunPerItemStagingFailure(t *testing.T) {
	staging := newFakeStaging()
	staging.upsertErr = fmt.Errorf("constraint violated")
	staging.failTitle = "Quietdesk"

	o, _ := newTestOrchestrator([]source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{
			projectItem("Vector Cache", "https://vectorcache.dev"),
			projectItem("Quietdesk", "https://quietdesk.io"),
		}},
	}, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatalf("Success = false, Errors = %v", result.Errors)
	}
	if result.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", result.Inserted)
	}
	if !hasError(result, "Quietdesk") {
		t.Errorf("Errors = %v, want per-item failure naming Quietdesk", result.Errors)
	}
}

func TestRunAllWritesFailing(t *testing.T) {
	staging := newFakeStaging()
	staging.upsertErr = fmt.Errorf("database is locked")

	o, _ := newTestOrchestrator([]source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{projectItem("Vector Cache", "https://vectorcache.dev")}},
	}, staging)
	result := o.Run(context.Background())

	if result.Success {
		t.Fatal("Success = true, want false when every write fails")
	}
	if got := o.State(); got != StateFailed {
		t.Errorf("State = %q, want failed", got)
	}
}

type panickingStaging struct {
	*fakeStaging
}

func (p *panickingStaging) Records(_ context.Context, _ types.ContentType) ([]types.StagedRecord, error) {
	panic("index corrupted")
}

func TestRunRecoversFromPanic(t *testing.T) {
	staging := &panickingStaging{fakeStaging: newFakeStaging()}

	o, _ := newTestOrchestrator([]source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{projectItem("Vector Cache", "https://vectorcache.dev")}},
	}, staging)
	result := o.Run(context.Background())

	if result.Success {
		t.Fatal("Success = true, want false after panic")
	}
	if !hasError(result, "panic: index corrupted") {
		t.Errorf("Errors = %v, want panic message", result.Errors)
	}
	if got := o.State(); got != StateFailed {
		t.Errorf("State = %q, want failed", got)
	}
}

func TestRunRanksBeforeStaging(t *testing.T) {
	weak := projectItem("Weak Signal", "https://weak.example.com")
	weak.Meta.Stars = 0
	weak.Description = ""
	strong := projectItem("Strong Signal", "https://strong.example.com")
	strong.Meta.Stars = 900
	strong.Meta.Votes = 400

	staging := newFakeStaging()
	o, _ := newTestOrchestrator([]source.Source{
		&stubSource{name: "alpha", items: []types.ContentItem{weak, strong}},
	}, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatalf("Success = false, Errors = %v", result.Errors)
	}
	recs := staging.records[types.TypeProject]
	if len(recs) != 2 {
		t.Fatalf("staged records = %d, want 2", len(recs))
	}
	// Descending score order: the strong item is staged first.
	if recs[0].Item.Title != "Strong Signal" {
		t.Errorf("first staged = %q, want Strong Signal", recs[0].Item.Title)
	}
	if recs[0].Item.AccelerateScore <= recs[1].Item.AccelerateScore {
		t.Errorf("scores not descending: %d then %d",
			recs[0].Item.AccelerateScore, recs[1].Item.AccelerateScore)
	}
}

func TestRunReportsDuration(t *testing.T) {
	staging := newFakeStaging()
	o, _ := newTestOrchestrator(nil, staging)
	result := o.Run(context.Background())

	if !result.Success {
		t.Fatalf("Success = false, Errors = %v", result.Errors)
	}
	if result.DurationMS < 0 {
		t.Errorf("DurationMS = %d, want >= 0", result.DurationMS)
	}
	if !hasError(result, "no content fetched") {
		t.Errorf("Errors = %v, want fetch note for empty source list", result.Errors)
	}
}
