package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/playbookbot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.PlaybookStore = (*Store)(nil)

// dbFileName is the database file inside the data directory.
const dbFileName = "playbooks.db"

// playbookColumns is the column list shared by every playbook query.
const playbookColumns = `id, source_id, title, description, content, category, tags, url, embedding, created_at, updated_at`

// Store is a SQLite-backed playbook store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.playbookbot/data/playbooks.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".playbookbot", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Upsert reads then writes inside one transaction; keep writers on one connection.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Playbooks ====================

// Upsert inserts or updates a playbook keyed by SourceID.
// An existing row keeps its ID and created_at.
func (s *Store) Upsert(ctx context.Context, p *domain.Playbook) (string, bool, error) {
	if p == nil || p.SourceID == "" {
		return "", false, fmt.Errorf("%w: source id is required", domain.ErrInvalidInput)
	}

	category := p.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	tags, err := marshalStrings(p.Tags)
	if err != nil {
		return "", false, fmt.Errorf("marshalling tags: %w", err)
	}
	embedding := float32SliceToBytes(p.Embedding)
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM playbooks WHERE source_id = ?`, p.SourceID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = p.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO playbooks (`+playbookColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, p.SourceID, p.Title, p.Description, p.Content, string(category), tags, p.URL,
			embedding, now, now)
		if err != nil {
			return "", false, fmt.Errorf("inserting playbook: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", false, fmt.Errorf("committing playbook: %w", err)
		}
		return id, true, nil

	case err != nil:
		return "", false, fmt.Errorf("looking up playbook: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE playbooks SET title = ?, description = ?, content = ?, category = ?, tags = ?,
			url = ?, embedding = ?, updated_at = ?
		WHERE id = ?
	`, p.Title, p.Description, p.Content, string(category), tags, p.URL, embedding, now, id)
	if err != nil {
		return "", false, fmt.Errorf("updating playbook: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("committing playbook: %w", err)
	}
	return id, false, nil
}

// GetBySourceID retrieves a playbook by its source identifier.
func (s *Store) GetBySourceID(ctx context.Context, sourceID string) (*domain.Playbook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playbookColumns+` FROM playbooks WHERE source_id = ?`, sourceID)
	return scanPlaybook(row)
}

// GetByID retrieves a playbook by its local identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Playbook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playbookColumns+` FROM playbooks WHERE id = ?`, id)
	return scanPlaybook(row)
}

// SearchBySimilarity scans embedded playbooks and ranks them by cosine similarity.
func (s *Store) SearchBySimilarity(
	ctx context.Context, vector []float32, q domain.SimilarityQuery,
) ([]domain.ScoredPlaybook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks WHERE embedding IS NOT NULL`
	var args []any
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(q.Category))
	}
	query += ` ORDER BY title COLLATE NOCASE, source_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying playbooks: %w", err)
	}
	defer rows.Close()

	hits := make([]domain.ScoredPlaybook, 0)
	for rows.Next() {
		p, err := scanPlaybook(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, domain.ScoredPlaybook{
			Playbook:   *p,
			Similarity: domain.CosineSimilarity(vector, p.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating playbooks: %w", err)
	}

	return domain.RankScored(hits, q.Threshold, q.Limit), nil
}

// List returns playbooks ordered by title.
func (s *Store) List(ctx context.Context, opts domain.ListOptions) ([]domain.Playbook, error) {
	query := `SELECT ` + playbookColumns + ` FROM playbooks`
	var args []any
	if opts.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(opts.Category))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query += ` ORDER BY title COLLATE NOCASE, source_id LIMIT ? OFFSET ?`
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing playbooks: %w", err)
	}
	defer rows.Close()

	playbooks := make([]domain.Playbook, 0)
	for rows.Next() {
		p, err := scanPlaybook(rows)
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
		return nil, fmt.Errorf("counting categories: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		counts[domain.Category(category)] = count
	}
	return counts, rows.Err()
}

// Delete removes a playbook by source identifier.
func (s *Store) Delete(ctx context.Context, sourceID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playbooks WHERE source_id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("deleting playbook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting playbook: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Sync Runs ====================

// RecordSyncRun persists a finalised sync run.
func (s *Store) RecordSyncRun(ctx context.Context, run *domain.SyncRun) error {
	if run == nil {
		return fmt.Errorf("%w: nil sync run", domain.ErrInvalidInput)
	}
	errs, err := marshalStrings(run.Errors)
	if err != nil {
		return fmt.Errorf("marshalling errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, scope, synced_count, updated_count, skipped_count, error_count,
			errors, success, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Scope, run.SyncedCount, run.UpdatedCount, run.SkippedCount, run.ErrorCount,
		errs, run.Success, run.Error, run.StartedAt.UTC(), nullTime(run.CompletedAt))
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// ListRecentSyncRuns returns the most recent runs, newest first.
func (s *Store) ListRecentSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, synced_count, updated_count, skipped_count, error_count,
			errors, success, error, started_at, completed_at
		FROM sync_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.SyncRun, 0)
	for rows.Next() {
		var run domain.SyncRun
		var errs string
		var completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Scope, &run.SyncedCount, &run.UpdatedCount, &run.SkippedCount,
			&run.ErrorCount, &errs, &run.Success, &run.Error, &run.StartedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
			return nil, fmt.Errorf("unmarshalling errors: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPlaybook scans a single playbook row.
func scanPlaybook(row rowScanner) (*domain.Playbook, error) {
	var p domain.Playbook
	var category, tags string
	var embedding []byte

	if err := row.Scan(&p.ID, &p.SourceID, &p.Title, &p.Description, &p.Content, &category,
		&tags, &p.URL, &embedding, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning playbook: %w", err)
	}

	p.Category = domain.ParseCategory(category)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	p.Embedding = bytesToFloat32Slice(embedding)
	return &p, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
