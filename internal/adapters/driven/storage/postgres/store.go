package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.PlaybookStore = (*Store)(nil)

const playbookColumns = `id, source_id, title, description, content, category, tags, url, embedding::text, created_at, updated_at`

// Store is a Postgres + pgvector playbook store.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection, verifies it and creates the schema.
func NewStore(ctx context.Context, databaseURL string, dimensions int) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database url is required", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL(dimensions)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Playbooks ---

// Upsert inserts or updates a playbook by source_id. xmax is zero only for
// freshly inserted rows, which tells the two cases apart.
func (s *Store) Upsert(ctx context.Context, p *domain.Playbook) (string, bool, error) {
	if p == nil || p.SourceID == "" {
		return "", false, fmt.Errorf("%w: source id is required", domain.ErrInvalidInput)
	}

	category := p.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO playbooks (id, source_id, title, description, content, category, tags, url, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)
		ON CONFLICT (source_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			url = EXCLUDED.url,
			embedding = EXCLUDED.embedding,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted`

	var storedID string
	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		id, p.SourceID, p.Title, p.Description, p.Content, string(category),
		pq.Array(tags), p.URL, vectorParam(p.Embedding),
	).Scan(&storedID, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("upsert playbook: %w", err)
	}
	return storedID, inserted, nil
}

// GetBySourceID retrieves a playbook by its source identifier.
func (s *Store) GetBySourceID(ctx context.Context, sourceID string) (*domain.Playbook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playbookColumns+` FROM playbooks WHERE source_id = $1`, sourceID)
	return scanPlaybook(row)
}

// GetByID retrieves a playbook by its local identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Playbook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playbookColumns+` FROM playbooks WHERE id = $1`, id)
	return scanPlaybook(row)
}

// SearchBySimilarity ranks embedded playbooks by cosine similarity in the database.
func (s *Store) SearchBySimilarity(
	ctx context.Context, vector []float32, q domain.SimilarityQuery,
) ([]domain.ScoredPlaybook, error) {
	if len(vector) == 0 {
		return []domain.ScoredPlaybook{}, nil
	}

	query := `SELECT ` + playbookColumns + `, 1 - (embedding <=> $1::vector) AS similarity
	          FROM playbooks
	          WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) > $2`
	args := []interface{}{vectorToString(vector), q.Threshold}
	argIdx := 3

	if q.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, string(q.Category))
		argIdx++
	}

	query += " ORDER BY embedding <=> $1::vector, LOWER(title), source_id"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	hits := make([]domain.ScoredPlaybook, 0)
	for rows.Next() {
		var similarity float64
		p, err := scanPlaybookWith(rows, &similarity)
		if err != nil {
			return nil, err
		}
		hits = append(hits, domain.ScoredPlaybook{
			Playbook:   *p,
			Similarity: domain.ClampSimilarity(similarity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	// Clamped scores must still pass the strict threshold.
	return domain.RankScored(hits, q.Threshold, q.Limit), nil
}

// List returns playbooks ordered by title.
func (s *Store) List(ctx context.Context, opts domain.ListOptions) ([]domain.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks`
	args := []interface{}{}
	argIdx := 1

	if opts.Category != "" {
		query += fmt.Sprintf(" WHERE category = $%d", argIdx)
		args = append(args, string(opts.Category))
		argIdx++
	}

	query += " ORDER BY LOWER(title), source_id"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list playbooks: %w", err)
	}
	defer rows.Close()

	playbooks := make([]domain.Playbook, 0)
	for rows.Next() {
		p, err := scanPlaybookWith(rows)
		if err != nil {
			return nil, err
		}
		playbooks = append(playbooks, *p)
	}
	return playbooks, rows.Err()
}

// ListCategories returns the categories in use with their playbook counts.
func (s *Store) ListCategories(ctx context.Context) (map[domain.Category]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM playbooks GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		counts[domain.Category(category)] = count
	}
	return counts, rows.Err()
}

// Delete removes a playbook by source identifier.
func (s *Store) Delete(ctx context.Context, sourceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playbooks WHERE source_id = $1`, sourceID)
	if err != nil {
		return fmt.Errorf("delete playbook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete playbook: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- Sync Runs ---

// RecordSyncRun persists a finalised sync run.
func (s *Store) RecordSyncRun(ctx context.Context, run *domain.SyncRun) error {
	if run == nil {
		return fmt.Errorf("%w: nil sync run", domain.ErrInvalidInput)
	}
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}

	query := `INSERT INTO sync_runs (id, scope, synced_count, updated_count, skipped_count, error_count,
	              errors, success, error, started_at, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          ON CONFLICT (id) DO NOTHING`

	var completedAt sql.NullTime
	if !run.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: run.CompletedAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Scope, run.SyncedCount, run.UpdatedCount, run.SkippedCount, run.ErrorCount,
		pq.Array(errs), run.Success, run.Error, run.StartedAt, completedAt,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// ListRecentSyncRuns returns the most recent runs, newest first.
func (s *Store) ListRecentSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	query := `SELECT id, scope, synced_count, updated_count, skipped_count, error_count,
	                 errors, success, error, started_at, completed_at
	          FROM sync_runs ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.SyncRun, 0)
	for rows.Next() {
		var run domain.SyncRun
		var errs []string
		var completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.Scope, &run.SyncedCount, &run.UpdatedCount, &run.SkippedCount, &run.ErrorCount,
			pq.Array(&errs), &run.Success, &run.Error, &run.StartedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		if errs == nil {
			errs = []string{}
		}
		run.Errors = errs
		if completedAt.Valid {
			run.CompletedAt = completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlaybook(row rowScanner) (*domain.Playbook, error) {
	p, err := scanPlaybookWith(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// scanPlaybookWith scans the playbook columns followed by any extra columns.
func scanPlaybookWith(row rowScanner, extra ...interface{}) (*domain.Playbook, error) {
	var p domain.Playbook
	var category string
	var tags []string
	var embedding sql.NullString

	dest := []interface{}{
		&p.ID, &p.SourceID, &p.Title, &p.Description, &p.Content, &category,
		pq.Array(&tags), &p.URL, &embedding, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan playbook: %w", err)
	}

	p.Category = domain.ParseCategory(category)
	if tags == nil {
		tags = []string{}
	}
	p.Tags = tags
	if embedding.Valid {
		vec, err := parseVector(embedding.String)
		if err != nil {
			return nil, fmt.Errorf("scan playbook %s: %w", p.SourceID, err)
		}
		p.Embedding = vec
	}
	return &p, nil
}

// vectorParam returns the pgvector literal or NULL for an empty vector.
func vectorParam(v []float32) sql.NullString {
	if len(v) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: vectorToString(v), Valid: true}
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector parses the pgvector text form back into a float32 slice.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid vector literal %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, nil
	}

	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %q: %w", part, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
