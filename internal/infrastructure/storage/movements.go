package storage

import (
	"database/sql"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
)

const movementColumns = `id, channel, occurred_at, amount, payer_name,
	payer_tax_id, name_norm, tax_id_norm, imported_at, source_file`

// InsertMovements stores new movements, skipping ids that already exist.
// Re-importing an overlapping export is the normal workflow, so duplicate
// ids are expected, not an error.
func (s *Storage) InsertMovements(movements []*model.Movement) (int, error) {
	if len(movements) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO movements
		(id, channel, occurred_at, amount, payer_name, payer_tax_id,
		 name_norm, tax_id_norm, imported_at, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	inserted := 0
	for _, m := range movements {
		importedAt := m.ImportedAt
		if importedAt.IsZero() {
			importedAt = time.Now()
		}
		res, err := stmt.Exec(
			m.ID,
			string(m.Channel),
			nullTime(m.OccurredAt),
			m.Amount,
			nullString(m.PayerName),
			nullString(m.PayerTaxID),
			nullString(m.NameNorm),
			nullString(m.TaxIDNorm),
			importedAt,
			nullString(m.SourceFile),
		)
		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListMovementsInRange returns movements within the inclusive time range,
// in occurrence order
func (s *Storage) ListMovementsInRange(from, to time.Time) ([]*model.Movement, error) {
	rows, err := s.db.Query(`
		SELECT `+movementColumns+` FROM movements
		WHERE occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var movements []*model.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// LatestMovementTimestamp returns the batch cutoff: the time of the most
// recent movement, or zero when nothing has been imported
func (s *Storage) LatestMovementTimestamp() (time.Time, error) {
	var latest sql.NullTime
	err := s.db.QueryRow(`SELECT MAX(occurred_at) FROM movements`).Scan(&latest)
	if err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

// ListMovementIDs returns every stored movement id
func (s *Storage) ListMovementIDs() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT id FROM movements`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func scanMovement(row rowScanner) (*model.Movement, error) {
	var m model.Movement
	var channel string
	var occurredAt sql.NullTime
	var payerName, payerTaxID, nameNorm, taxIDNorm, sourceFile sql.NullString

	err := row.Scan(
		&m.ID,
		&channel,
		&occurredAt,
		&m.Amount,
		&payerName,
		&payerTaxID,
		&nameNorm,
		&taxIDNorm,
		&m.ImportedAt,
		&sourceFile,
	)
	if err != nil {
		return nil, err
	}

	m.Channel = model.WalletChannel(channel)
	if occurredAt.Valid {
		m.OccurredAt = occurredAt.Time
	}
	m.PayerName = payerName.String
	m.PayerTaxID = payerTaxID.String
	m.NameNorm = nameNorm.String
	m.TaxIDNorm = taxIDNorm.String
	m.SourceFile = sourceFile.String
	return &m, nil
}
