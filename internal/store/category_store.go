package store

import (
	"context"
	"time"
)

const (
	KindIncome  = "income"
	KindExpense = "expense"
)

type Category struct {
	ID        string    `db:"id"`
	UserID    *string   `db:"user_id"`
	GroupID   *string   `db:"group_id"`
	Name      string    `db:"name"`
	Color     string    `db:"color"`
	Kind      string    `db:"kind"`
	CreatedAt time.Time `db:"created_at"`
}

type CategoryStore struct {
	db DB
}

func NewCategoryStore(db DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) Create(ctx context.Context, tx Execer, category Category) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, group_id, name, color, kind)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, category.ID, category.UserID, category.GroupID, category.Name, category.Color, category.Kind)
	return err
}

func (s *CategoryStore) GetByID(ctx context.Context, q Getter, categoryID string) (Category, error) {
	var row Category
	err := readerOr(q, s.db).GetContext(ctx, &row, `
		SELECT id, user_id, group_id, name, color, kind, created_at
		FROM categories
		WHERE id = $1
	`, categoryID)
	if err != nil {
		return Category{}, err
	}
	return row, nil
}

func (s *CategoryStore) Update(ctx context.Context, tx Execer, category Category) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE categories
		SET name = $1, color = $2, kind = $3
		WHERE id = $4
	`, category.Name, category.Color, category.Kind, category.ID)
	return err
}

func (s *CategoryStore) Delete(ctx context.Context, tx Execer, categoryID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	return err
}

// ListByUser returns personal categories; kind filters when non-empty.
func (s *CategoryStore) ListByUser(ctx context.Context, userID, kind string) ([]Category, error) {
	return s.list(ctx, "user_id", userID, kind)
}

func (s *CategoryStore) ListByGroup(ctx context.Context, groupID, kind string) ([]Category, error) {
	return s.list(ctx, "group_id", groupID, kind)
}

func (s *CategoryStore) list(ctx context.Context, ownerColumn, ownerID, kind string) ([]Category, error) {
	var rows []Category
	query := `
		SELECT id, user_id, group_id, name, color, kind, created_at
		FROM categories
		WHERE ` + ownerColumn + ` = $1
	`
	args := []any{ownerID}
	if kind != "" {
		query += " AND kind = $2"
		args = append(args, kind)
	}
	query += " ORDER BY kind, name"
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
