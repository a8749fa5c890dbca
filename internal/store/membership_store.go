package store

import (
	"context"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Membership struct {
	GroupID  string    `db:"group_id"`
	UserID   string    `db:"user_id"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

type Member struct {
	UserID      string    `db:"user_id"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	Role        string    `db:"role"`
	JoinedAt    time.Time `db:"joined_at"`
	IsCreator   bool      `db:"is_creator"`
}

type MembershipStore struct {
	db DB
}

func NewMembershipStore(db DB) *MembershipStore {
	return &MembershipStore{db: db}
}

func (s *MembershipStore) Create(ctx context.Context, tx Execer, membership Membership) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (group_id, user_id, role)
		VALUES ($1, $2, $3)
	`, membership.GroupID, membership.UserID, membership.Role)
	return err
}

// Get reads through q so callers inside a transaction see their own writes.
// A nil q reads from the pool.
func (s *MembershipStore) Get(ctx context.Context, q Getter, groupID, userID string) (Membership, error) {
	var row Membership
	err := readerOr(q, s.db).GetContext(ctx, &row, `
		SELECT group_id, user_id, role, joined_at
		FROM memberships
		WHERE group_id = $1 AND user_id = $2
	`, groupID, userID)
	if err != nil {
		return Membership{}, err
	}
	return row, nil
}

func (s *MembershipStore) CountAdmins(ctx context.Context, q Getter, groupID string) (int, error) {
	var count int
	err := readerOr(q, s.db).GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM memberships
		WHERE group_id = $1 AND role = $2
	`, groupID, RoleAdmin)
	return count, err
}

func (s *MembershipStore) UpdateRole(ctx context.Context, tx Execer, groupID, userID, role string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE memberships
		SET role = $1
		WHERE group_id = $2 AND user_id = $3
	`, role, groupID, userID)
	return err
}

func (s *MembershipStore) Delete(ctx context.Context, tx Execer, groupID, userID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM memberships WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

func (s *MembershipStore) ListMembers(ctx context.Context, groupID string) ([]Member, error) {
	var rows []Member
	err := s.db.SelectContext(ctx, &rows, `
		SELECT m.user_id, u.email, u.display_name, m.role, m.joined_at,
		       (g.created_by IS NOT NULL AND g.created_by = m.user_id) AS is_creator
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		JOIN groups g ON g.id = m.group_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MembershipStore) ListGroupIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `SELECT group_id FROM memberships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
