package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

const transferColumns = `id, user_id, operated_at, amount, channel, status,
	movement_id, shift_tag, note, receipt_url, receipt_file_id,
	receipt_uploaded_at, created_at`

// CreateTransfer inserts a new transfer
func (s *Storage) CreateTransfer(transfer *model.Transfer) error {
	if transfer.Status == "" {
		transfer.Status = model.StatusPending
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO transfers
		(id, user_id, operated_at, amount, channel, status, movement_id,
		 shift_tag, note, receipt_url, receipt_file_id, receipt_uploaded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		transfer.ID,
		transfer.UserID,
		nullTime(transfer.OperatedAt),
		transfer.Amount,
		string(transfer.Channel),
		string(transfer.Status),
		nullString(transfer.MovementID),
		nullString(transfer.ShiftTag),
		nullString(transfer.Note),
		nullString(transfer.ReceiptURL),
		nullString(transfer.ReceiptFileID),
		nullTimePtr(transfer.ReceiptUploadedAt),
		transfer.CreatedAt,
	)
	return err
}

// GetTransfer retrieves a transfer by id
func (s *Storage) GetTransfer(id string) (*model.Transfer, error) {
	row := s.db.QueryRow(`SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id)
	transfer, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return transfer, err
}

// ListTransfersByUser returns a user's transfers, most recent first
func (s *Storage) ListTransfersByUser(userID string, limit int) ([]*model.Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT `+transferColumns+` FROM transfers
		WHERE user_id = ?
		ORDER BY operated_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

// ListTransfersSince returns transfers operated at or after the given time
func (s *Storage) ListTransfersSince(since time.Time) ([]*model.Transfer, error) {
	rows, err := s.db.Query(`
		SELECT `+transferColumns+` FROM transfers
		WHERE operated_at >= ?
		ORDER BY operated_at ASC
	`, since)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

// ListUnresolved returns the transfers a batch run should consider: status
// still settleable, operated at or before the cutoff, and within the
// lookback bound. Ordered oldest first so earlier transfers claim contested
// movements deterministically.
func (s *Storage) ListUnresolved(cutoff time.Time, maxLookbackDays int) ([]*model.Transfer, error) {
	from := cutoff.AddDate(0, 0, -maxLookbackDays)
	rows, err := s.db.Query(`
		SELECT `+transferColumns+` FROM transfers
		WHERE status IN (?, ?, ?)
		  AND operated_at IS NOT NULL
		  AND operated_at <= ?
		  AND operated_at >= ?
		ORDER BY operated_at ASC
	`,
		string(model.StatusPending),
		string(model.StatusNoMatch),
		string(model.StatusDuplicate),
		cutoff,
		from,
	)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

// ListAssignedMovementIDs returns the movement ids claimed by matched transfers
func (s *Storage) ListAssignedMovementIDs() (map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT movement_id FROM transfers
		WHERE status = ? AND movement_id IS NOT NULL AND movement_id != ''
	`, string(model.StatusMatched))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	used := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		used[id] = true
	}
	return used, rows.Err()
}

// SetTransferStatus updates status and the assigned movement id together.
// The movement id is only kept for matched; any other status clears it so a
// reverted transfer never pins a movement.
func (s *Storage) SetTransferStatus(id string, status model.Status, movementID string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	if status != model.StatusMatched {
		movementID = ""
	}

	res, err := s.db.Exec(`
		UPDATE transfers SET status = ?, movement_id = ? WHERE id = ?
	`, string(status), nullString(movementID), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTransfer applies a partial update to mutable transfer fields
func (s *Storage) UpdateTransfer(id string, patch TransferPatch) error {
	var sets []string
	var args []interface{}

	if patch.OperatedAt != nil {
		sets = append(sets, "operated_at = ?")
		args = append(args, *patch.OperatedAt)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.Channel != nil {
		sets = append(sets, "channel = ?")
		args = append(args, string(*patch.Channel))
	}
	if patch.ShiftTag != nil {
		sets = append(sets, "shift_tag = ?")
		args = append(args, *patch.ShiftTag)
	}
	if patch.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *patch.Note)
	}
	if patch.ReceiptURL != nil {
		sets = append(sets, "receipt_url = ?")
		args = append(args, *patch.ReceiptURL)
	}
	if patch.ReceiptFileID != nil {
		sets = append(sets, "receipt_file_id = ?")
		args = append(args, *patch.ReceiptFileID)
	}
	if patch.ReceiptUploadedAt != nil {
		sets = append(sets, "receipt_uploaded_at = ?")
		args = append(args, *patch.ReceiptUploadedAt)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.Exec(
		`UPDATE transfers SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransfer removes a transfer permanently
func (s *Storage) DeleteTransfer(id string) error {
	res, err := s.db.Exec(`DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransfer(row rowScanner) (*model.Transfer, error) {
	var t model.Transfer
	var operatedAt, receiptUploadedAt sql.NullTime
	var channel, status string
	var movementID, shiftTag, note, receiptURL, receiptFileID sql.NullString

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&operatedAt,
		&t.Amount,
		&channel,
		&status,
		&movementID,
		&shiftTag,
		&note,
		&receiptURL,
		&receiptFileID,
		&receiptUploadedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if operatedAt.Valid {
		t.OperatedAt = operatedAt.Time
	}
	t.Channel = model.WalletChannel(channel)
	t.Status = model.Status(status)
	t.MovementID = movementID.String
	t.ShiftTag = shiftTag.String
	t.Note = note.String
	t.ReceiptURL = receiptURL.String
	t.ReceiptFileID = receiptFileID.String
	if receiptUploadedAt.Valid {
		at := receiptUploadedAt.Time
		t.ReceiptUploadedAt = &at
	}
	return &t, nil
}

func collectTransfers(rows *sql.Rows) ([]*model.Transfer, error) {
	defer func() { _ = rows.Close() }()

	var transfers []*model.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
