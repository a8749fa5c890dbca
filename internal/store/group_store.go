package store

import (
	"context"
	"time"
)

type Group struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedBy   *string   `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// GroupSummary is a group as seen by one of its members.
type GroupSummary struct {
	Group
	Role        string `db:"role"`
	MemberCount int    `db:"member_count"`
}

type GroupStore struct {
	db DB
}

func NewGroupStore(db DB) *GroupStore {
	return &GroupStore{db: db}
}

func (s *GroupStore) Create(ctx context.Context, tx Execer, group Group) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
	`, group.ID, group.Name, group.Description, group.CreatedBy)
	return err
}

func (s *GroupStore) GetByID(ctx context.Context, groupID string) (Group, error) {
	var row Group
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, description, created_by, created_at
		FROM groups
		WHERE id = $1
	`, groupID)
	if err != nil {
		return Group{}, err
	}
	return row, nil
}

// GetForUpdate locks the group row. Role changes take this lock so that
// admin counts are read consistently.
func (s *GroupStore) GetForUpdate(ctx context.Context, tx Getter, groupID string) (Group, error) {
	var row Group
	err := tx.GetContext(ctx, &row, `
		SELECT id, name, description, created_by, created_at
		FROM groups
		WHERE id = $1
		FOR UPDATE
	`, groupID)
	if err != nil {
		return Group{}, err
	}
	return row, nil
}

func (s *GroupStore) ListByUser(ctx context.Context, userID string) ([]GroupSummary, error) {
	var rows []GroupSummary
	err := s.db.SelectContext(ctx, &rows, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at, m.role,
		       (SELECT COUNT(*) FROM memberships mc WHERE mc.group_id = g.id) AS member_count
		FROM groups g
		JOIN memberships m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GroupStore) Delete(ctx context.Context, tx Execer, groupID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	return err
}
