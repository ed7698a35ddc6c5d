package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/foundermatch/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private
// in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS startups (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		industry TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		funding_stage TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_startups_source ON startups(source);
	CREATE INDEX IF NOT EXISTS idx_startups_industry ON startups(industry);

	CREATE TABLE IF NOT EXISTS search_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		query TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_search_queries_user ON search_queries(user_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const startupColumns = `id, title, description, industry, location, funding_stage, tags, source, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateStartup inserts a startup. CreatedAt and UpdatedAt are set to now.
func (s *SQLiteStorage) CreateStartup(ctx context.Context, st *models.Startup) error {
	tags, err := marshalTags(st.Tags)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO startups (`+startupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Title, st.Description, st.Industry, st.Location, st.FundingStage,
		tags, st.Source, st.CreatedAt, st.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("startup %s: %w", st.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert startup %s: %w", st.ID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// UpsertStartup inserts st or updates the existing row with the same id. An
// updated row keeps its position in the corpus and its CreatedAt.
func (s *SQLiteStorage) UpsertStartup(ctx context.Context, st *models.Startup) error {
	return upsert(ctx, s.db, st)
}

func upsert(ctx context.Context, db execer, st *models.Startup) error {
	tags, err := marshalTags(st.Tags)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now

	_, err = db.ExecContext(ctx,
		`INSERT INTO startups (`+startupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   industry = excluded.industry,
		   location = excluded.location,
		   funding_stage = excluded.funding_stage,
		   tags = excluded.tags,
		   source = excluded.source,
		   updated_at = excluded.updated_at`,
		st.ID, st.Title, st.Description, st.Industry, st.Location, st.FundingStage,
		tags, st.Source, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert startup %s: %w", st.ID, err)
	}
	return nil
}

// GetStartup returns a startup by ID or ErrNotFound.
func (s *SQLiteStorage) GetStartup(ctx context.Context, id string) (*models.Startup, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+startupColumns+` FROM startups WHERE id = ?`, id)
	st, err := scanStartup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("startup %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStartup removes a startup by ID or returns ErrNotFound.
func (s *SQLiteStorage) DeleteStartup(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM startups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("startup %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListStartups returns a page of startups in insertion order.
func (s *SQLiteStorage) ListStartups(ctx context.Context, offset, limit int) ([]*models.Startup, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+startupColumns+` FROM startups ORDER BY rowid LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectStartups(rows)
}

// AllStartups returns every startup in insertion order.
func (s *SQLiteStorage) AllStartups(ctx context.Context) ([]*models.Startup, error) {
	return s.ListStartups(ctx, 0, 0)
}

// ReplaceSource makes startups the complete set of rows imported from source, in
// one transaction. Rows already present keep their corpus position.
func (s *SQLiteStorage) ReplaceSource(ctx context.Context, source string, startups []*models.Startup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	keep := make([]any, 0, len(startups)+1)
	keep = append(keep, source)
	for _, st := range startups {
		st.Source = source
		if err := upsert(ctx, tx, st); err != nil {
			return err
		}
		keep = append(keep, st.ID)
	}

	query := `DELETE FROM startups WHERE source = ?`
	if len(startups) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(",?", len(startups)-1) + `)`
	}
	if _, err := tx.ExecContext(ctx, query, keep...); err != nil {
		return fmt.Errorf("prune source %s: %w", source, err)
	}
	return tx.Commit()
}

// DeleteStartupsBySource removes every startup imported from source and returns
// how many were removed.
func (s *SQLiteStorage) DeleteStartupsBySource(ctx context.Context, source string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM startups WHERE source = ?`, source)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// AppendSearchQuery records q in the user's search history. A zero timestamp is
// replaced by now.
func (s *SQLiteStorage) AppendSearchQuery(ctx context.Context, userID string, q models.SearchQuery) error {
	if q.Timestamp == 0 {
		q.Timestamp = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_queries (user_id, query, created_at) VALUES (?, ?, ?)`,
		userID, q.Query, q.Timestamp)
	return err
}

// SearchHistory returns the user's most recent limit queries in chronological order.
func (s *SQLiteStorage) SearchHistory(ctx context.Context, userID string, limit int) (models.SearchHistory, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, created_at FROM (
		   SELECT id, query, created_at FROM search_queries
		   WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		 ) ORDER BY created_at ASC, id ASC`, userID, limit)
	if err != nil {
		return models.SearchHistory{}, err
	}
	defer rows.Close()

	history := models.SearchHistory{UserID: userID, Queries: []models.SearchQuery{}}
	for rows.Next() {
		var q models.SearchQuery
		if err := rows.Scan(&q.Query, &q.Timestamp); err != nil {
			return models.SearchHistory{}, err
		}
		history.Queries = append(history.Queries, q)
	}
	return history, rows.Err()
}

// CountStartups returns the number of stored startups.
func (s *SQLiteStorage) CountStartups(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM startups`).Scan(&n)
	return n, err
}

// CountSearchQueries returns the number of recorded search queries across all users.
func (s *SQLiteStorage) CountSearchQueries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_queries`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStartup(row rowScanner) (*models.Startup, error) {
	var st models.Startup
	var tags string
	if err := row.Scan(&st.ID, &st.Title, &st.Description, &st.Industry, &st.Location,
		&st.FundingStage, &tags, &st.Source, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &st.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags of %s: %w", st.ID, err)
	}
	if st.Tags == nil {
		st.Tags = []string{}
	}
	return &st, nil
}

func collectStartups(rows *sql.Rows) ([]*models.Startup, error) {
	defer rows.Close()
	out := make([]*models.Startup, 0)
	for rows.Next() {
		st, err := scanStartup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}
