package store

import (
	"context"
	"time"
)

type Movement struct {
	ID          string    `db:"id"`
	Kind        string    `db:"kind"`
	Amount      int64     `db:"amount"`
	OccurredAt  time.Time `db:"occurred_at"`
	Description string    `db:"description"`
	PocketID    *string   `db:"pocket_id"`
	UserID      *string   `db:"user_id"`
	GroupID     *string   `db:"group_id"`
	CategoryID  *string   `db:"category_id"`
	CreatedBy   *string   `db:"created_by"`
}

type MovementStore struct {
	db DB
}

func NewMovementStore(db DB) *MovementStore {
	return &MovementStore{db: db}
}

func (s *MovementStore) InsertMany(ctx context.Context, tx Execer, movements []Movement) error {
	query := `
		INSERT INTO movements (id, kind, amount, occurred_at, description, pocket_id, user_id, group_id, category_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, m := range movements {
		if _, err := tx.ExecContext(ctx, query, m.ID, m.Kind, m.Amount, m.OccurredAt, m.Description,
			m.PocketID, m.UserID, m.GroupID, m.CategoryID, m.CreatedBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *MovementStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Movement, error) {
	return s.list(ctx, "user_id", userID, limit, offset)
}

func (s *MovementStore) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]Movement, error) {
	return s.list(ctx, "group_id", groupID, limit, offset)
}

func (s *MovementStore) list(ctx context.Context, ownerColumn, ownerID string, limit, offset int) ([]Movement, error) {
	var rows []Movement
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, kind, amount, occurred_at, description, pocket_id, user_id, group_id, category_id, created_by
		FROM movements
		WHERE `+ownerColumn+` = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
