package store

import (
	"context"
	"time"
)

type Contribution struct {
	ID            string    `db:"id"`
	UserID        *string   `db:"user_id"`
	GroupID       *string   `db:"group_id"`
	Amount        int64     `db:"amount"`
	ContributedOn time.Time `db:"contributed_on"`
	Description   string    `db:"description"`
	ExpenseID     *string   `db:"expense_id"`
	IncomeID      *string   `db:"income_id"`
	UserPocketID  *string   `db:"user_pocket_id"`
	GroupPocketID *string   `db:"group_pocket_id"`
	CreatedAt     time.Time `db:"created_at"`
}

type ContributionStore struct {
	db DB
}

func NewContributionStore(db DB) *ContributionStore {
	return &ContributionStore{db: db}
}

func (s *ContributionStore) Create(ctx context.Context, tx Execer, c Contribution) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO contributions (id, user_id, group_id, amount, contributed_on, description, expense_id, income_id, user_pocket_id, group_pocket_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.UserID, c.GroupID, c.Amount, c.ContributedOn, c.Description, c.ExpenseID, c.IncomeID,
		c.UserPocketID, c.GroupPocketID)
	return err
}

func (s *ContributionStore) ListByGroup(ctx context.Context, groupID string) ([]Contribution, error) {
	var rows []Contribution
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, group_id, amount, contributed_on, description, expense_id, income_id,
		       user_pocket_id, group_pocket_id, created_at
		FROM contributions
		WHERE group_id = $1
		ORDER BY contributed_on DESC, created_at DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
