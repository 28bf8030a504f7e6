// Package sqlite provides a SQLite-backed experiment storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	sqlitemigrate "github.com/louisbranch/longrun/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/longrun/internal/services/streak/domain"
	"github.com/louisbranch/longrun/internal/services/streak/storage"
	"github.com/louisbranch/longrun/internal/services/streak/storage/sqlite/migrations"
	"github.com/louisbranch/longrun/streak"
)

// Store persists experiment records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite experiment store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateExperiment inserts one experiment record.
func (s *Store) CreateExperiment(ctx context.Context, experiment domain.Experiment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(experiment.ID)
	if id == "" {
		return fmt.Errorf("experiment id is required")
	}
	if experiment.TossCount <= 0 {
		return fmt.Errorf("toss count must be greater than zero")
	}
	if experiment.HeadProbability < 0 || experiment.HeadProbability > 1 {
		return fmt.Errorf("head probability must be between zero and one")
	}
	createdAt := experiment.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO experiments (
		   id,
		   label,
		   toss_count,
		   head_probability,
		   seed,
		   heads,
		   longest_run,
		   longest_face,
		   longest_head_run,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(experiment.Label),
		experiment.TossCount,
		experiment.HeadProbability,
		experiment.Seed,
		experiment.Heads,
		experiment.LongestRun,
		int(experiment.LongestFace),
		experiment.LongestHeadRun,
		toMillis(createdAt),
	)
	if err != nil {
		if isExperimentUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create experiment: %w", err)
	}
	return nil
}

// GetExperiment returns one experiment by ID.
func (s *Store) GetExperiment(ctx context.Context, id string) (domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Experiment{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Experiment{}, fmt.Errorf("experiment id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, label, toss_count, head_probability, seed,
		        heads, longest_run, longest_face, longest_head_run, created_at
		   FROM experiments
		  WHERE id = ?`,
		id,
	)

	experiment, err := scanExperiment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Experiment{}, storage.ErrNotFound
		}
		return domain.Experiment{}, fmt.Errorf("get experiment: %w", err)
	}
	return experiment, nil
}

// ListExperiments returns one page of experiment records ordered by ID.
func (s *Store) ListExperiments(ctx context.Context, pageSize int, pageToken string) (storage.ExperimentPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ExperimentPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ExperimentPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.ExperimentPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	page := storage.ExperimentPage{
		Experiments: make([]domain.Experiment, 0, pageSize),
	}

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, label, toss_count, head_probability, seed,
			        heads, longest_run, longest_face, longest_head_run, created_at
			   FROM experiments
			  ORDER BY id ASC
			  LIMIT ?`,
			pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, label, toss_count, head_probability, seed,
			        heads, longest_run, longest_face, longest_head_run, created_at
			   FROM experiments
			  WHERE id > ?
			  ORDER BY id ASC
			  LIMIT ?`,
			pageToken,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.ExperimentPage{}, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		experiment, err := scanExperiment(rows.Scan)
		if err != nil {
			return storage.ExperimentPage{}, fmt.Errorf("list experiments: %w", err)
		}
		page.Experiments = append(page.Experiments, experiment)
	}
	if err := rows.Err(); err != nil {
		return storage.ExperimentPage{}, fmt.Errorf("list experiments: %w", err)
	}
	if len(page.Experiments) > pageSize {
		page.NextPageToken = page.Experiments[pageSize-1].ID
		page.Experiments = page.Experiments[:pageSize]
	}

	return page, nil
}

// RecentExperiments returns the newest experiment records, newest first.
func (s *Store) RecentExperiments(ctx context.Context, limit int) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, label, toss_count, head_probability, seed,
		        heads, longest_run, longest_face, longest_head_run, created_at
		   FROM experiments
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent experiments: %w", err)
	}
	defer rows.Close()

	experiments := make([]domain.Experiment, 0, limit)
	for rows.Next() {
		experiment, err := scanExperiment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("recent experiments: %w", err)
		}
		experiments = append(experiments, experiment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent experiments: %w", err)
	}
	return experiments, nil
}

func scanExperiment(scan func(dest ...any) error) (domain.Experiment, error) {
	var experiment domain.Experiment
	var longestFace int64
	var createdAt int64
	err := scan(
		&experiment.ID,
		&experiment.Label,
		&experiment.TossCount,
		&experiment.HeadProbability,
		&experiment.Seed,
		&experiment.Heads,
		&experiment.LongestRun,
		&longestFace,
		&experiment.LongestHeadRun,
		&createdAt,
	)
	if err != nil {
		return domain.Experiment{}, err
	}
	experiment.LongestFace = streak.Face(longestFace)
	experiment.CreatedAt = fromMillis(createdAt)
	return experiment, nil
}

func isExperimentUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "experiments.id")
}

var _ storage.ExperimentStore = (*Store)(nil)
