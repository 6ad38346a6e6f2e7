package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/binsync/internal/domain/entities"
)

const defaultMaxRuns = 500

// RunSummary is a recorded run with its outcomes
type RunSummary struct {
	RunID           string                 `json:"run_id"`
	RecordedAt      time.Time              `json:"recorded_at"`
	Committed       int                    `json:"committed"`
	ConfigRewritten bool                   `json:"config_rewritten"`
	Synced          bool                   `json:"synced"`
	SyncSkipReason  string                 `json:"sync_skip_reason,omitempty"`
	Uploaded        int                    `json:"uploaded"`
	UploadFailed    int                    `json:"upload_failed"`
	Outcomes        []entities.SyncOutcome `json:"outcomes"`
}

// TargetRecord is one outcome of a single target, newest first in listings
type TargetRecord struct {
	RunID      string    `json:"run_id"`
	RecordedAt time.Time `json:"recorded_at"`
	entities.SyncOutcome
}

// HistoryStore implements repositories.RunHistory in SQLite
type HistoryStore struct {
	db      *DB
	maxRuns int
	now     func() time.Time
}

// NewHistoryStore creates a new history store keeping at most maxRuns runs
func NewHistoryStore(db *DB, maxRuns int) *HistoryStore {
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}
	return &HistoryStore{
		db:      db,
		maxRuns: maxRuns,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordRun stores a run and all of its outcomes in one transaction
func (s *HistoryStore) RecordRun(ctx context.Context, report *entities.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("run report has no id")
	}

	uploaded, failed := 0, 0
	if report.Upload != nil {
		uploaded = len(report.Upload.Uploaded)
		failed = len(report.Upload.Failed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	//nolint:errcheck // Rollback after commit is a no-op
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, recorded_at, committed, config_rewritten, synced,
			sync_skip_reason, uploaded, upload_failed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID, s.now(), report.Committed, report.ConfigRewritten, report.Synced,
		report.SyncSkipReason, uploaded, failed,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for i, o := range report.Outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (
				run_id, position, target, repo, previous_version, new_version,
				state, updated, files_written, failures
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			report.RunID, i, o.Target, o.Repo, o.PreviousVersion, o.NewVersion,
			string(o.State), o.Updated, joinLines(o.FilesWritten), joinLines(o.Failures),
		)
		if err != nil {
			return fmt.Errorf("failed to record outcome of %s: %w", o.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	if err := s.cleanupOldRuns(ctx); err != nil {
		return fmt.Errorf("failed to cleanup old runs: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first
func (s *HistoryStore) RecentRuns(ctx context.Context, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, recorded_at, committed, config_rewritten, synced,
			   sync_skip_reason, uploaded, upload_failed
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.RunID, &r.RecordedAt, &r.Committed, &r.ConfigRewritten, &r.Synced,
			&r.SyncSkipReason, &r.Uploaded, &r.UploadFailed,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	_ = rows.Close()

	for _, r := range runs {
		outcomes, err := s.outcomes(ctx, r.RunID)
		if err != nil {
			return nil, err
		}
		r.Outcomes = outcomes
	}

	return runs, nil
}

// TargetHistory returns the recorded outcomes of one target, newest first
func (s *HistoryStore) TargetHistory(ctx context.Context, target string, limit int) ([]*TargetRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.run_id, r.recorded_at, o.target, o.repo, o.previous_version,
			   o.new_version, o.state, o.updated, o.files_written, o.failures
		FROM outcomes o
		JOIN runs r ON r.run_id = o.run_id
		WHERE o.target = ?
		ORDER BY r.id DESC
		LIMIT ?
	`, target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list target history: %w", err)
	}
	//nolint:errcheck // Defer close on rows
	defer rows.Close()

	var records []*TargetRecord
	for rows.Next() {
		var rec TargetRecord
		var state, files, failures string
		if err := rows.Scan(
			&rec.RunID, &rec.RecordedAt, &rec.Target, &rec.Repo, &rec.PreviousVersion,
			&rec.NewVersion, &state, &rec.Updated, &files, &failures,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		rec.State = entities.TargetState(state)
		rec.FilesWritten = splitLines(files)
		rec.Failures = splitLines(failures)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}

	return records, nil
}

func (s *HistoryStore) outcomes(ctx context.Context, runID string) ([]entities.SyncOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target, repo, previous_version, new_version, state, updated,
			   files_written, failures
		FROM outcomes
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	//nolint:errcheck // Defer close on rows
	defer rows.Close()

	var outcomes []entities.SyncOutcome
	for rows.Next() {
		var o entities.SyncOutcome
		var state, files, failures string
		if err := rows.Scan(
			&o.Target, &o.Repo, &o.PreviousVersion, &o.NewVersion, &state, &o.Updated,
			&files, &failures,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.State = entities.TargetState(state)
		o.FilesWritten = splitLines(files)
		o.Failures = splitLines(failures)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}
	return outcomes, nil
}

// cleanupOldRuns removes runs beyond the maximum count; outcomes cascade
func (s *HistoryStore) cleanupOldRuns(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs
			ORDER BY id DESC
			LIMIT ?
		)
	`, s.maxRuns)
	return err
}

// joinLines stores a list in one column; embedded newlines are flattened
func joinLines(lines []string) string {
	flat := make([]string, len(lines))
	for i, l := range lines {
		flat[i] = strings.ReplaceAll(l, "\n", " ")
	}
	return strings.Join(flat, "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
