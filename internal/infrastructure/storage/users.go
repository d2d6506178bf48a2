package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
)

const userColumns = `id, canonical_name, tax_id, wallet_alias, organization,
	external_ref, active, created_at`

// CreateUser inserts a new user
func (s *Storage) CreateUser(user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO users
		(id, canonical_name, tax_id, wallet_alias, organization, external_ref, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.CanonicalName,
		nullString(user.TaxID),
		nullString(user.WalletAlias),
		nullString(user.Organization),
		nullString(user.ExternalRef),
		user.Active,
		user.CreatedAt,
	)
	return err
}

// GetUser retrieves a user by id
func (s *Storage) GetUser(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateUser applies a partial update to a user
func (s *Storage) UpdateUser(id string, patch UserPatch) error {
	var sets []string
	var args []interface{}

	if patch.CanonicalName != nil {
		sets = append(sets, "canonical_name = ?")
		args = append(args, *patch.CanonicalName)
	}
	if patch.TaxID != nil {
		sets = append(sets, "tax_id = ?")
		args = append(args, *patch.TaxID)
	}
	if patch.WalletAlias != nil {
		sets = append(sets, "wallet_alias = ?")
		args = append(args, *patch.WalletAlias)
	}
	if patch.Organization != nil {
		sets = append(sets, "organization = ?")
		args = append(args, *patch.Organization)
	}
	if patch.ExternalRef != nil {
		sets = append(sets, "external_ref = ?")
		args = append(args, *patch.ExternalRef)
	}
	if patch.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *patch.Active)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.Exec(
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
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

// SearchUsers returns active users whose name or wallet alias contains the
// query, case-insensitively
func (s *Storage) SearchUsers(query string, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.TrimSpace(query) + "%"
	// A query that is a tax id also matches on its digits alone.
	digits := normalize.TaxID(query)
	if digits == "" {
		digits = "\x00" // never equal to a stored tax id
	}
	rows, err := s.db.Query(`
		SELECT `+userColumns+` FROM users
		WHERE active = 1
		  AND (canonical_name LIKE ? COLLATE NOCASE
		       OR wallet_alias LIKE ? COLLATE NOCASE
		       OR external_ref LIKE ? COLLATE NOCASE
		       OR replace(replace(replace(ifnull(tax_id, ''), '-', ''), '.', ''), ' ', '') = ?)
		ORDER BY canonical_name ASC
		LIMIT ?
	`, like, like, like, digits, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var taxID, walletAlias, organization, externalRef sql.NullString

	err := row.Scan(
		&u.ID,
		&u.CanonicalName,
		&taxID,
		&walletAlias,
		&organization,
		&externalRef,
		&u.Active,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.TaxID = taxID.String
	u.WalletAlias = walletAlias.String
	u.Organization = organization.String
	u.ExternalRef = externalRef.String
	return &u, nil
}
