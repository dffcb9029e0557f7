// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists qualified items into per-type SQLite staging
// buckets awaiting review. It also keeps an append-only raw-source log of
// each fetch batch.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// bucketTables maps content types to their staging tables. The mapping is
// closed so bucket names never reach SQL from input.
var bucketTables = map[types.ContentType]string{
	types.TypeProject:  "projects",
	types.TypeFunding:  "funding",
	types.TypeResource: "resources",
}

// Filter narrows Query and Count.
type Filter struct {
	MinScore int
	Source   string
	FitOnly  bool
	Limit    int
}

// BucketStats summarizes one staging bucket.
type BucketStats struct {
	Total    int
	Fit      int
	Approved int
	AvgScore float64
}

// Store manages the staging SQLite database.
type Store struct {
	db *sql.DB
}

// New opens or creates the staging database at cfg.Path, creating parent
// directories and the schema as needed.
func New(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "staging/accelerate.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	var statements []string
	for _, table := range bucketTables {
		statements = append(statements, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			url_key TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			url TEXT,
			tags TEXT,
			meta TEXT,
			score INTEGER NOT NULL DEFAULT 0,
			fit INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0,
			credibility INTEGER NOT NULL DEFAULT 0,
			reasoning TEXT,
			seen_count INTEGER NOT NULL DEFAULT 1,
			approved INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, table))
		statements = append(statements, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_score ON %s(score DESC)`, table, table))
	}
	statements = append(statements, `CREATE TABLE IF NOT EXISTS raw_items (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		payload TEXT
	)`)

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func table(bucket types.ContentType) (string, error) {
	t, ok := bucketTables[bucket]
	if !ok {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
	return t, nil
}

// Insert writes a new record for an item into the bucket matching its
// type. Unlike Upsert, a key collision is an error.
func (s *Store) Insert(ctx context.Context, item types.ContentItem) (string, error) {
	t, err := table(item.Type)
	if err != nil {
		return "", err
	}
	key := item.Key()
	if key == "" {
		return "", fmt.Errorf("item %q has no identity key", item.Title)
	}

	meta, err := json.Marshal(item.Meta)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, url_key, source, title, description, url, tags, meta,
			score, fit, confidence, credibility, reasoning, seen_count, approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, ?, ?)`, t),
		id, key, item.Source, item.Title, item.Description, item.URL,
		strings.Join(item.Tags, ","), string(meta),
		item.AccelerateScore, boolInt(item.AccelerateFit), item.Confidence,
		item.CredibilityScore, item.ScoreReasoning, now, now)
	if err != nil {
		return "", fmt.Errorf("inserting into %s: %w", t, err)
	}
	return id, nil
}

// Upsert writes an item into the bucket matching its type, keyed by the
// item's natural key. Re-running with the same input updates the existing
// row instead of creating a new one: the score keeps its max, the longer
// description wins, and the seen counter increments. It reports whether a
// new row was inserted.
func (s *Store) Upsert(ctx context.Context, item types.ContentItem) (inserted bool, id string, err error) {
	t, err := table(item.Type)
	if err != nil {
		return false, "", err
	}
	key := item.Key()
	if key == "" {
		return false, "", fmt.Errorf("item %q has no identity key", item.Title)
	}

	meta, err := json.Marshal(item.Meta)
	if err != nil {
		return false, "", fmt.Errorf("encoding metadata: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	newID := uuid.NewString()

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, url_key, source, title, description, url, tags, meta,
			score, fit, confidence, credibility, reasoning, seen_count, approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, ?, ?)
		ON CONFLICT(url_key) DO UPDATE SET
			description = CASE WHEN length(excluded.description) > length(description)
				THEN excluded.description ELSE description END,
			score = MAX(score, excluded.score),
			fit = MAX(fit, excluded.fit),
			meta = excluded.meta,
			seen_count = seen_count + 1,
			updated_at = excluded.updated_at`, t),
		newID, key, item.Source, item.Title, item.Description, item.URL,
		strings.Join(item.Tags, ","), string(meta),
		item.AccelerateScore, boolInt(item.AccelerateFit), item.Confidence,
		item.CredibilityScore, item.ScoreReasoning, now, now)
	if err != nil {
		return false, "", fmt.Errorf("upserting into %s: %w", t, err)
	}

	// The insert id survives only when no conflict fired.
	var storedID string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE url_key = ?`, t), key,
	).Scan(&storedID)
	if err != nil {
		return false, "", fmt.Errorf("reading back upserted row: %w", err)
	}
	return storedID == newID, storedID, nil
}

// Records returns every staged record in a bucket. The duplicate detector
// reads buckets whole; staging volumes are review-queue sized.
func (s *Store) Records(ctx context.Context, bucket types.ContentType) ([]types.StagedRecord, error) {
	return s.Query(ctx, bucket, Filter{})
}

// Query returns staged records matching the filter, ranked by descending
// score.
func (s *Store) Query(ctx context.Context, bucket types.ContentType, f Filter) ([]types.StagedRecord, error) {
	t, err := table(bucket)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, source, title, description, url, tags, meta,
		score, fit, confidence, credibility, reasoning, seen_count, approved, created_at, updated_at
		FROM %s WHERE score >= ?`, t)
	args := []any{f.MinScore}

	if f.Source != "" {
		// Merged rows hold comma-joined source lists.
		query += ` AND (source = ? OR source LIKE ? OR source LIKE ? OR source LIKE ?)`
		args = append(args, f.Source, f.Source+",%", "%,"+f.Source, "%,"+f.Source+",%")
	}
	if f.FitOnly {
		query += ` AND fit = 1`
	}
	query += ` ORDER BY score DESC, created_at ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t, err)
	}
	defer rows.Close()

	var records []types.StagedRecord
	for rows.Next() {
		rec, err := scanRecord(rows, bucket)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns how many records in a bucket match the filter.
func (s *Store) Count(ctx context.Context, bucket types.ContentType, f Filter) (int, error) {
	t, err := table(bucket)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE score >= ?`, t)
	args := []any{f.MinScore}
	if f.FitOnly {
		query += ` AND fit = 1`
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", t, err)
	}
	return n, nil
}

// Update overwrites a staged record in place. The duplicate detector uses
// this to write back merged records.
func (s *Store) Update(ctx context.Context, bucket types.ContentType, rec types.StagedRecord) error {
	t, err := table(bucket)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(rec.Item.Meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET
		source = ?, title = ?, description = ?, url = ?, tags = ?, meta = ?,
		score = ?, fit = ?, confidence = ?, credibility = ?, reasoning = ?,
		seen_count = ?, updated_at = ?
		WHERE id = ?`, t),
		rec.Item.Source, rec.Item.Title, rec.Item.Description, rec.Item.URL,
		strings.Join(rec.Item.Tags, ","), string(meta),
		rec.Item.AccelerateScore, boolInt(rec.Item.AccelerateFit),
		rec.Item.Confidence, rec.Item.CredibilityScore, rec.Item.ScoreReasoning,
		rec.SeenCount, time.Now().UTC().Format(time.RFC3339Nano), rec.ID)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", t, rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no record %s in %s", rec.ID, t)
	}
	return nil
}

// Approve marks a staged record as cleared for promotion.
func (s *Store) Approve(ctx context.Context, bucket types.ContentType, id string) error {
	t, err := table(bucket)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET approved = 1, updated_at = ? WHERE id = ?`, t),
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("approving %s/%s: %w", t, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no record %s in %s", id, t)
	}
	return nil
}

// LogRaw appends one fetch batch to the raw-source log.
func (s *Store) LogRaw(ctx context.Context, source string, raws []map[string]any) error {
	payload, err := json.Marshal(raws)
	if err != nil {
		return fmt.Errorf("encoding raw payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO raw_items (id, source, fetched_at, item_count, payload) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), source, time.Now().UTC().Format(time.RFC3339Nano), len(raws), string(payload))
	if err != nil {
		return fmt.Errorf("logging raw batch for %s: %w", source, err)
	}
	return nil
}

// Stats summarizes every staging bucket.
func (s *Store) Stats(ctx context.Context) (map[types.ContentType]BucketStats, error) {
	stats := make(map[types.ContentType]BucketStats, len(bucketTables))
	for bucket, t := range bucketTables {
		var bs BucketStats
		var avg sql.NullFloat64
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT count(*), coalesce(sum(fit), 0), coalesce(sum(approved), 0), avg(score) FROM %s`, t,
		)).Scan(&bs.Total, &bs.Fit, &bs.Approved, &avg)
		if err != nil {
			return nil, fmt.Errorf("reading stats for %s: %w", t, err)
		}
		bs.AvgScore = avg.Float64
		stats[bucket] = bs
	}
	return stats, nil
}

// Ping verifies the store is reachable; the orchestrator treats a failure
// here as fatal for the run.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanRecord(rows *sql.Rows, bucket types.ContentType) (types.StagedRecord, error) {
	var (
		rec                  types.StagedRecord
		tags, meta           string
		fit, approved        int
		createdAt, updatedAt string
	)
	err := rows.Scan(&rec.ID, &rec.Item.Source, &rec.Item.Title, &rec.Item.Description,
		&rec.Item.URL, &tags, &meta, &rec.Item.AccelerateScore, &fit,
		&rec.Item.Confidence, &rec.Item.CredibilityScore, &rec.Item.ScoreReasoning,
		&rec.SeenCount, &approved, &createdAt, &updatedAt)
	if err != nil {
		return types.StagedRecord{}, fmt.Errorf("scanning record: %w", err)
	}

	rec.Item.Type = bucket
	rec.Item.AccelerateFit = fit == 1
	rec.Approved = approved == 1
	if tags != "" {
		rec.Item.Tags = strings.Split(tags, ",")
	}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &rec.Item.Meta); err != nil {
			return types.StagedRecord{}, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
