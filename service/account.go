package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"spirits-storefront/auth"
	"spirits-storefront/model"
	"spirits-storefront/store"
)

const (
	birthDateLayout = "2006-01-02"
	minPasswordLen  = 8
	maxPasswordLen  = 72 // bcrypt limit
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
}

// ProfileUpdate carries the fields of a partial profile update; nil
// fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date"`
}

// Register creates a customer account. The buyer must be of legal age.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (model.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return model.User{}, err
	}
	if err := checkPassword(req.Password); err != nil {
		return model.User{}, err
	}
	u := model.User{
		Email:     email,
		FirstName: clean(req.FirstName),
		LastName:  clean(req.LastName),
		Phone:     clean(req.Phone),
		Role:      model.RoleCustomer,
	}
	if u.FirstName == "" {
		return model.User{}, invalid("first name is required")
	}
	if u.BirthDate, err = s.parseBirthDate(req.BirthDate); err != nil {
		return model.User{}, err
	}
	if err := s.checkLegalAge(u); err != nil {
		return model.User{}, err
	}

	if u.PasswordHash, err = auth.HashPassword(req.Password); err != nil {
		return model.User{}, err
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	s.logger.InfoContext(ctx, "user_registered", "user_id", u.ID)
	return u, nil
}

// Authenticate returns the user for a valid email and password pair. An
// unknown email and a wrong password give the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(clean(email)))
	if store.IsNotFound(err) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.ErrorContext(ctx, "password_check_failed", "user_id", u.ID, "error", err)
		}
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (model.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if upd.FirstName != nil {
		if u.FirstName = clean(*upd.FirstName); u.FirstName == "" {
			return model.User{}, invalid("first name is required")
		}
	}
	if upd.LastName != nil {
		u.LastName = clean(*upd.LastName)
	}
	if upd.Phone != nil {
		u.Phone = clean(*upd.Phone)
	}
	if upd.BirthDate != nil {
		if u.BirthDate, err = s.parseBirthDate(*upd.BirthDate); err != nil {
			return model.User{}, err
		}
		if err := s.checkLegalAge(u); err != nil {
			return model.User{}, err
		}
	}

	if err := s.store.UpdateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	if err := checkPassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password_changed", "user_id", userID)
	return nil
}

func (s *Service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	return s.store.ListAddresses(ctx, userID)
}

// CreateAddress saves a new address. The first address a user saves
// becomes the default.
func (s *Service) CreateAddress(ctx context.Context, userID uuid.UUID, a model.Address) (model.Address, error) {
	if err := normalizeAddress(&a); err != nil {
		return model.Address{}, err
	}
	if !a.IsDefault {
		existing, err := s.store.ListAddresses(ctx, userID)
		if err != nil {
			return model.Address{}, err
		}
		a.IsDefault = len(existing) == 0
	}
	a.ID, a.UserID = 0, userID
	if err := s.store.CreateAddress(ctx, &a); err != nil {
		return model.Address{}, err
	}
	return a, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID uuid.UUID, id int64, a model.Address) (model.Address, error) {
	if err := normalizeAddress(&a); err != nil {
		return model.Address{}, err
	}
	current, err := s.store.GetAddress(ctx, userID, id)
	if err != nil {
		return model.Address{}, err
	}
	a.ID, a.UserID, a.CreatedAt = id, userID, current.CreatedAt
	if err := s.store.UpdateAddress(ctx, &a); err != nil {
		return model.Address{}, err
	}
	return a, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID uuid.UUID, id int64) error {
	return s.store.DeleteAddress(ctx, userID, id)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(clean(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email %q is not valid", raw)
	}
	return email, nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	if len(pw) > maxPasswordLen {
		return invalid("password must be at most %d bytes", maxPasswordLen)
	}
	return nil
}

func (s *Service) parseBirthDate(raw string) (*time.Time, error) {
	raw = clean(raw)
	if raw == "" {
		return nil, invalid("birth date is required")
	}
	d, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		return nil, invalid("birth date must be YYYY-MM-DD")
	}
	if d.After(s.now()) {
		return nil, invalid("birth date is in the future")
	}
	return &d, nil
}

func normalizeAddress(a *model.Address) error {
	a.Label = clean(a.Label)
	a.FullName = clean(a.FullName)
	a.Line1 = clean(a.Line1)
	a.Line2 = clean(a.Line2)
	a.City = clean(a.City)
	a.Region = clean(a.Region)
	a.PostalCode = strings.ToUpper(clean(a.PostalCode))
	a.Country = strings.ToUpper(clean(a.Country))
	a.Phone = clean(a.Phone)

	switch {
	case a.FullName == "":
		return invalid("full name is required")
	case a.Line1 == "":
		return invalid("address line 1 is required")
	case a.City == "":
		return invalid("city is required")
	case a.PostalCode == "":
		return invalid("postal code is required")
	case len(a.Country) != 2:
		return invalid("country must be a two-letter code")
	}
	return nil
}
