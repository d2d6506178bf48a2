package storage

import (
	"database/sql"
	"errors"
	"time"
)

// StartSyncRun records the start of a batch run and returns its id
func (s *Storage) StartSyncRun() (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO sync_runs (started_at, status) VALUES (?, ?)
	`, time.Now(), SyncRunRunning)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CompleteSyncRun records the outcome of a batch run
func (s *Storage) CompleteSyncRun(runID int64, processed, matched, unmatched, duplicates int, cutoff time.Time) error {
	_, err := s.db.Exec(`
		UPDATE sync_runs
		SET completed_at = ?, processed = ?, matched = ?, unmatched = ?,
		    duplicates = ?, cutoff = ?, status = ?
		WHERE id = ?
	`, time.Now(), processed, matched, unmatched, duplicates, nullTime(cutoff), SyncRunCompleted, runID)
	return err
}

// FailSyncRun marks a run as failed
func (s *Storage) FailSyncRun(runID int64, reason string) error {
	_, err := s.db.Exec(`
		UPDATE sync_runs SET completed_at = ?, status = ?, error = ? WHERE id = ?
	`, time.Now(), SyncRunFailed, reason, runID)
	return err
}

// ListSyncRuns returns recent runs, most recent first
func (s *Storage) ListSyncRuns(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, completed_at, processed, matched, unmatched,
		       duplicates, cutoff, status, error
		FROM sync_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetSyncRun retrieves a run by id
func (s *Storage) GetSyncRun(runID int64) (*SyncRun, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, completed_at, processed, matched, unmatched,
		       duplicates, cutoff, status, error
		FROM sync_runs WHERE id = ?
	`, runID)
	run, err := scanSyncRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

func scanSyncRun(row rowScanner) (*SyncRun, error) {
	var run SyncRun
	var completedAt, cutoff sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&completedAt,
		&run.Processed,
		&run.Matched,
		&run.Unmatched,
		&run.Duplicates,
		&cutoff,
		&run.Status,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		at := completedAt.Time
		run.CompletedAt = &at
	}
	if cutoff.Valid {
		at := cutoff.Time
		run.Cutoff = &at
	}
	run.Error = errMsg.String
	return &run, nil
}
