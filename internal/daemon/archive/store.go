// Package archive keeps a SQLite record of finished executions.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/superclaude/superclaude/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no archived execution has the requested id.
var ErrNotFound = errors.New("archived execution not found")

// Store is the execution archive.
type Store struct {
	db     *sql.DB
	dbPath string
	log    zerolog.Logger
}

// NewStore opens (creating if needed) the archive at dbPath. ":memory:"
// opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}
	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
		log:    log.With().Str("component", "archive").Logger(),
	}, nil
}

// execWithRetry retries statements that fail with "database is locked",
// backing off exponentially.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Archive records a finished execution. Archiving the same id twice keeps
// the latest record.
func (s *Store) Archive(ctx context.Context, st models.ExecutionStatus) error {
	cfg, err := json.Marshal(st.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	ev, err := json.Marshal(st.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}

	var endedAt interface{}
	if st.EndedAt != nil {
		endedAt = st.EndedAt.UTC()
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO executions
		(execution_id, task, project_root, state, model, iterations, score, quality_threshold,
		 termination_reason, total_cost_usd, input_tokens, output_tokens, config, evidence,
		 started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ExecutionID, st.Task, st.ProjectRoot, string(st.State), st.Config.Model,
		st.CurrentIteration, st.CurrentScore, st.QualityThreshold,
		st.TerminationReason, st.TotalCostUSD, st.InputTokens, st.OutputTokens,
		string(cfg), string(ev), st.StartedAt.UTC(), endedAt,
	)
	if err != nil {
		return fmt.Errorf("archive execution %s: %w", st.ExecutionID, err)
	}
	s.log.Debug().Str("execution_id", st.ExecutionID).Str("state", string(st.State)).Msg("Archived execution")
	return nil
}

const selectColumns = `SELECT execution_id, task, project_root, state, iterations, score,
	quality_threshold, termination_reason, total_cost_usd, input_tokens, output_tokens,
	config, evidence, started_at, ended_at FROM executions`

// Get returns one archived execution.
func (s *Store) Get(ctx context.Context, id string) (*models.ExecutionStatus, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE execution_id = ?`, id)
	st, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st, err
}

// List returns archived executions, newest first. A limit of zero or less
// means no limit. An empty projectRoot matches every project.
func (s *Store) List(ctx context.Context, projectRoot string, limit int) ([]models.ExecutionStatus, error) {
	query := selectColumns
	var args []interface{}
	if projectRoot != "" {
		query += ` WHERE project_root = ?`
		args = append(args, projectRoot)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var out []models.ExecutionStatus
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive: %w", err)
	}
	return out, nil
}

// Prune deletes executions that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM executions WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune archive: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStatus(row scanner) (*models.ExecutionStatus, error) {
	var (
		st        models.ExecutionStatus
		state     string
		cfg, ev   string
		startedAt time.Time
		endedAt   sql.NullTime
	)
	err := row.Scan(&st.ExecutionID, &st.Task, &st.ProjectRoot, &state, &st.CurrentIteration,
		&st.CurrentScore, &st.QualityThreshold, &st.TerminationReason, &st.TotalCostUSD,
		&st.InputTokens, &st.OutputTokens, &cfg, &ev, &startedAt, &endedAt)
	if err != nil {
		return nil, err
	}
	st.State = models.ExecutionState(state)
	st.StartedAt = startedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		st.EndedAt = &t
	}
	if err := json.Unmarshal([]byte(cfg), &st.Config); err != nil {
		return nil, fmt.Errorf("decode config of %s: %w", st.ExecutionID, err)
	}
	if err := json.Unmarshal([]byte(ev), &st.Evidence); err != nil {
		return nil, fmt.Errorf("decode evidence of %s: %w", st.ExecutionID, err)
	}
	st.MaxIterations = st.Config.MaxIterations
	return &st, nil
}
