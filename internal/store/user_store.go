package store

import (
	"context"
	"time"
)

type User struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	DisplayName       string    `db:"display_name"`
	PasswordHash      string    `db:"password_hash"`
	PreferredCurrency string    `db:"preferred_currency"`
	CreatedAt         time.Time `db:"created_at"`
}

// Label is the display name, or the email when none was given.
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, user User) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, preferred_currency)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.PreferredCurrency)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, display_name, password_hash, preferred_currency, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, display_name, preferred_currency, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
	return exists, err
}
