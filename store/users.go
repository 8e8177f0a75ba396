package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"spirits-storefront/model"
)

const (
	userColumns         = `id, email, password_hash, first_name, last_name, phone, birth_date, role, created_at`
	queryInsertUser     = `INSERT INTO users (id, email, password_hash, first_name, last_name, phone, birth_date, role) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING created_at`
	queryGetUser        = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	queryGetUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	queryUpdateUser     = `UPDATE users SET first_name=$2, last_name=$3, phone=$4, birth_date=$5 WHERE id=$1`
	queryUpdatePassword = `UPDATE users SET password_hash=$2 WHERE id=$1`
	userResource        = "user"
)

func scanUser(row scanner) (model.User, error) {
	var (
		u     model.User
		birth sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &birth, &u.Role, &u.CreatedAt)
	if birth.Valid {
		u.BirthDate = &birth.Time
	}
	return u, err
}

// CreateUser inserts u. Emails are unique; a duplicate yields ErrConflict.
func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := s.DB.QueryRowContext(ctx, queryInsertUser,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, nullTime(u), u.Role,
	).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", ErrConflict)
	}
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, queryGetUser, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, notFound(userResource, "id", id)
	}
	return u, err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, queryGetUserByEmail, email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, notFound(userResource, "email", email)
	}
	return u, err
}

// UpdateUser saves the profile fields; email, role and password are not
// touched.
func (s *PostgresStore) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := s.DB.ExecContext(ctx, queryUpdateUser, u.ID, u.FirstName, u.LastName, u.Phone, nullTime(u))
	if err != nil {
		return err
	}
	return expectOneRow(res, userResource, "id", u.ID)
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := s.DB.ExecContext(ctx, queryUpdatePassword, id, hash)
	if err != nil {
		return err
	}
	return expectOneRow(res, userResource, "id", id)
}

func nullTime(u *model.User) sql.NullTime {
	if u.BirthDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *u.BirthDate, Valid: true}
}
