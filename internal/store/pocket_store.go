package store

import (
	"context"
	"time"
)

// GeneralPocketName names the buffer pocket every group is created with.
const GeneralPocketName = "General"

const pocketColumns = `id, user_id, group_id, name, color, balance, created_at, updated_at`

type Pocket struct {
	ID        string    `db:"id"`
	UserID    *string   `db:"user_id"`
	GroupID   *string   `db:"group_id"`
	Name      string    `db:"name"`
	Color     string    `db:"color"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p Pocket) IsGeneral() bool {
	return p.GroupID != nil && p.Name == GeneralPocketName
}

type PocketStore struct {
	db DB
}

func NewPocketStore(db DB) *PocketStore {
	return &PocketStore{db: db}
}

func (s *PocketStore) Create(ctx context.Context, tx Execer, pocket Pocket) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pockets (id, user_id, group_id, name, color, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pocket.ID, pocket.UserID, pocket.GroupID, pocket.Name, pocket.Color, pocket.Balance)
	return err
}

func (s *PocketStore) GetByID(ctx context.Context, pocketID string) (Pocket, error) {
	var row Pocket
	err := s.db.GetContext(ctx, &row, `SELECT `+pocketColumns+` FROM pockets WHERE id = $1`, pocketID)
	if err != nil {
		return Pocket{}, err
	}
	return row, nil
}

// GetForUpdate reads the pocket and holds its row lock until the enclosing
// transaction ends.
func (s *PocketStore) GetForUpdate(ctx context.Context, tx Getter, pocketID string) (Pocket, error) {
	var row Pocket
	err := tx.GetContext(ctx, &row, `
		SELECT `+pocketColumns+`
		FROM pockets
		WHERE id = $1
		FOR UPDATE
	`, pocketID)
	if err != nil {
		return Pocket{}, err
	}
	return row, nil
}

func (s *PocketStore) GetGeneral(ctx context.Context, q Getter, groupID string) (Pocket, error) {
	var row Pocket
	err := readerOr(q, s.db).GetContext(ctx, &row, `
		SELECT `+pocketColumns+`
		FROM pockets
		WHERE group_id = $1 AND name = $2
	`, groupID, GeneralPocketName)
	if err != nil {
		return Pocket{}, err
	}
	return row, nil
}

func (s *PocketStore) UpdateBalance(ctx context.Context, tx Execer, pocketID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE pockets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, pocketID)
	return err
}

func (s *PocketStore) UpdateDetails(ctx context.Context, tx Execer, pocketID, name, color string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE pockets
		SET name = $1, color = $2, updated_at = NOW()
		WHERE id = $3
	`, name, color, pocketID)
	return err
}

func (s *PocketStore) Delete(ctx context.Context, tx Execer, pocketID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM pockets WHERE id = $1`, pocketID)
	return err
}

// IsReferenced reports whether a transfer pins the pocket.
func (s *PocketStore) IsReferenced(ctx context.Context, q Getter, pocketID string) (bool, error) {
	var referenced bool
	err := readerOr(q, s.db).GetContext(ctx, &referenced, `
		SELECT EXISTS (SELECT 1 FROM transfers WHERE from_pocket_id = $1 OR to_pocket_id = $1)
	`, pocketID)
	return referenced, err
}

func (s *PocketStore) ListByUser(ctx context.Context, userID string) ([]Pocket, error) {
	var rows []Pocket
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+pocketColumns+`
		FROM pockets
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByGroup returns the General pocket first.
func (s *PocketStore) ListByGroup(ctx context.Context, groupID string) ([]Pocket, error) {
	var rows []Pocket
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+pocketColumns+`
		FROM pockets
		WHERE group_id = $1
		ORDER BY (name = $2) DESC, name
	`, groupID, GeneralPocketName)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
