package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

const (
	addressColumns     = `id, user_id, label, full_name, line1, line2, city, region, postal_code, country, phone, is_default, created_at`
	queryListAddresses = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id`
	queryGetAddress    = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`
	queryClearDefaults = `UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default`
	queryInsertAddress = `INSERT INTO addresses (user_id, label, full_name, line1, line2, city, region, postal_code, country, phone, is_default) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at`
	queryUpdateAddress = `UPDATE addresses SET label=$3, full_name=$4, line1=$5, line2=$6, city=$7, region=$8, postal_code=$9, country=$10, phone=$11, is_default=$12 WHERE user_id=$1 AND id=$2`
	queryDeleteAddress = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`
	addressResource    = "address"
)

func scanAddress(row scanner) (model.Address, error) {
	var a model.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.FullName, &a.Line1, &a.Line2, &a.City, &a.Region,
		&a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt)
	return a, err
}

func (s *PostgresStore) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := s.DB.QueryContext(ctx, queryListAddresses, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetAddress(ctx context.Context, userID uuid.UUID, id int64) (model.Address, error) {
	a, err := scanAddress(s.DB.QueryRowContext(ctx, queryGetAddress, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, notFound(addressResource, "id", id)
	}
	return a, err
}

// CreateAddress stores a new address. A default address replaces the
// user's previous default.
func (s *PostgresStore) CreateAddress(ctx context.Context, a *model.Address) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, queryClearDefaults, a.UserID); err != nil {
				return err
			}
		}
		return tx.QueryRowContext(ctx, queryInsertAddress,
			a.UserID, a.Label, a.FullName, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country, a.Phone, a.IsDefault,
		).Scan(&a.ID, &a.CreatedAt)
	})
}

func (s *PostgresStore) UpdateAddress(ctx context.Context, a *model.Address) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, queryClearDefaults, a.UserID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, queryUpdateAddress,
			a.UserID, a.ID, a.Label, a.FullName, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country, a.Phone, a.IsDefault,
		)
		if err != nil {
			return err
		}
		return expectOneRow(res, addressResource, "id", a.ID)
	})
}

func (s *PostgresStore) DeleteAddress(ctx context.Context, userID uuid.UUID, id int64) error {
	res, err := s.DB.ExecContext(ctx, queryDeleteAddress, userID, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, addressResource, "id", id)
}
