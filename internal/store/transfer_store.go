package store

import (
	"context"
	"time"
)

type Transfer struct {
	ID           string    `db:"id"`
	FromPocketID string    `db:"from_pocket_id"`
	ToPocketID   string    `db:"to_pocket_id"`
	AmountFrom   int64     `db:"amount_from"`
	AmountTo     int64     `db:"amount_to"`
	Description  string    `db:"description"`
	CreatedBy    *string   `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
}

type TransferStore struct {
	db DB
}

func NewTransferStore(db DB) *TransferStore {
	return &TransferStore{db: db}
}

func (s *TransferStore) Create(ctx context.Context, tx Execer, transfer Transfer) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transfers (id, from_pocket_id, to_pocket_id, amount_from, amount_to, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, transfer.ID, transfer.FromPocketID, transfer.ToPocketID, transfer.AmountFrom, transfer.AmountTo,
		transfer.Description, transfer.CreatedBy)
	return err
}

func (s *TransferStore) GetByID(ctx context.Context, transferID string) (Transfer, error) {
	var row Transfer
	err := s.db.GetContext(ctx, &row, `
		SELECT id, from_pocket_id, to_pocket_id, amount_from, amount_to, description, created_by, created_at
		FROM transfers
		WHERE id = $1
	`, transferID)
	if err != nil {
		return Transfer{}, err
	}
	return row, nil
}

// ListForUser returns transfers whose pockets are both visible to the user:
// personal pockets of the user or pockets of groups the user belongs to.
func (s *TransferStore) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Transfer, error) {
	var rows []Transfer
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.from_pocket_id, t.to_pocket_id, t.amount_from, t.amount_to, t.description, t.created_by, t.created_at
		FROM transfers t
		JOIN pockets fp ON fp.id = t.from_pocket_id
		JOIN pockets tp ON tp.id = t.to_pocket_id
		WHERE (fp.user_id = $1 OR fp.group_id IN (SELECT group_id FROM memberships WHERE user_id = $1))
		  AND (tp.user_id = $1 OR tp.group_id IN (SELECT group_id FROM memberships WHERE user_id = $1))
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
