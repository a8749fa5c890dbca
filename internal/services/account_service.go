package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pockets/internal/auth"
	"pockets/internal/db"
	"pockets/internal/store"
	"pockets/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AccountService struct {
	txRunner        db.TxRunner
	users           UserStore
	auditStore      AuditStore
	verifyEmailHost bool
}

func NewAccountService(txRunner db.TxRunner, users UserStore, auditStore AuditStore, verifyEmailHost bool) *AccountService {
	return &AccountService{
		txRunner:        txRunner,
		users:           users,
		auditStore:      auditStore,
		verifyEmailHost: verifyEmailHost,
	}
}

type RegisterRequest struct {
	Email             string
	DisplayName       string
	Password          string
	PreferredCurrency string
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (store.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.ValidateEmail(email, s.verifyEmailHost); err != nil {
		return store.User{}, newError(KindInvalidInput, "%v", err)
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if err := validator.ValidateDisplayName(displayName); err != nil {
		return store.User{}, newError(KindInvalidInput, "%v", err)
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		return store.User{}, newError(KindInvalidInput, "%v", err)
	}
	currency, err := validator.NormalizeCurrency(req.PreferredCurrency)
	if err != nil {
		return store.User{}, newError(KindInvalidInput, "%v", err)
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return store.User{}, err
	}
	user := store.User{
		ID:                uuid.NewString(),
		Email:             email,
		DisplayName:       displayName,
		PasswordHash:      passwordHash,
		PreferredCurrency: currency,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return translateDBError(err, "user")
		}
		return s.auditStore.Log(ctx, tx, user.ID, "register", "user", user.ID, "")
	})
	if err != nil {
		return store.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email or a wrong
// password alike.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return store.User{}, ErrInvalidCredentials
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (store.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return store.User{}, translateDBError(err, "user")
	}
	return user, nil
}

func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, newError(KindInvalidInput, "email is required")
	}
	return s.users.ExistsByEmail(ctx, email)
}
