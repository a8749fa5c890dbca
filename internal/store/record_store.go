package store

import (
	"context"
	"time"
)

// Record is one row of the incomes or expenses table. Both tables share a
// shape; the store decides which one it reads and writes.
type Record struct {
	ID          string    `db:"id"`
	UserID      *string   `db:"user_id"`
	GroupID     *string   `db:"group_id"`
	CategoryID  *string   `db:"category_id"`
	PocketID    *string   `db:"pocket_id"`
	TransferID  *string   `db:"transfer_id"`
	Amount      int64     `db:"amount"`
	OccurredOn  time.Time `db:"occurred_on"`
	Description string    `db:"description"`
	CreatedBy   *string   `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

const recordColumns = `id, user_id, group_id, category_id, pocket_id, transfer_id, amount, occurred_on, description, created_by, created_at`

type RecordStore struct {
	db    DB
	table string
	kind  string
}

func NewIncomeStore(db DB) *RecordStore {
	return &RecordStore{db: db, table: "incomes", kind: KindIncome}
}

func NewExpenseStore(db DB) *RecordStore {
	return &RecordStore{db: db, table: "expenses", kind: KindExpense}
}

func (s *RecordStore) Kind() string {
	return s.kind
}

func (s *RecordStore) Create(ctx context.Context, tx Execer, record Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO `+s.table+` (id, user_id, group_id, category_id, pocket_id, transfer_id, amount, occurred_on, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, record.ID, record.UserID, record.GroupID, record.CategoryID, record.PocketID, record.TransferID,
		record.Amount, record.OccurredOn, record.Description, record.CreatedBy)
	return err
}

func (s *RecordStore) GetByID(ctx context.Context, recordID string) (Record, error) {
	var row Record
	err := s.db.GetContext(ctx, &row, `SELECT `+recordColumns+` FROM `+s.table+` WHERE id = $1`, recordID)
	if err != nil {
		return Record{}, err
	}
	return row, nil
}

func (s *RecordStore) GetForUpdate(ctx context.Context, tx Getter, recordID string) (Record, error) {
	var row Record
	err := tx.GetContext(ctx, &row, `
		SELECT `+recordColumns+`
		FROM `+s.table+`
		WHERE id = $1
		FOR UPDATE
	`, recordID)
	if err != nil {
		return Record{}, err
	}
	return row, nil
}

func (s *RecordStore) Update(ctx context.Context, tx Execer, record Record) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE `+s.table+`
		SET category_id = $1, pocket_id = $2, amount = $3, occurred_on = $4, description = $5
		WHERE id = $6
	`, record.CategoryID, record.PocketID, record.Amount, record.OccurredOn, record.Description, record.ID)
	return err
}

func (s *RecordStore) Delete(ctx context.Context, tx Execer, recordID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, recordID)
	return err
}

func (s *RecordStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	var rows []Record
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+recordColumns+`
		FROM `+s.table+`
		WHERE user_id = $1
		ORDER BY occurred_on DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RecordStore) ListByGroup(ctx context.Context, groupID string) ([]Record, error) {
	var rows []Record
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+recordColumns+`
		FROM `+s.table+`
		WHERE group_id = $1
		ORDER BY occurred_on DESC, created_at DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
