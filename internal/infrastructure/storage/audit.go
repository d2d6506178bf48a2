package storage

import (
	"database/sql"
	"time"
)

// LogAudit appends an audit entry
func (s *Storage) LogAudit(entry *AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(`
		INSERT INTO audit_log (transfer_id, action, detail, actor, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		entry.TransferID,
		entry.Action,
		nullString(entry.Detail),
		nullString(entry.Actor),
		entry.CreatedAt,
	)
	if err != nil {
		return err
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// ListAuditByTransfer returns a transfer's audit trail, oldest first
func (s *Storage) ListAuditByTransfer(transferID string) ([]AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, transfer_id, action, detail, actor, created_at
		FROM audit_log
		WHERE transfer_id = ?
		ORDER BY id ASC
	`, transferID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var detail, actor sql.NullString
		if err := rows.Scan(&e.ID, &e.TransferID, &e.Action, &detail, &actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		e.Actor = actor.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
