package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"pockets/internal/db"
	"pockets/internal/store"
	"pockets/internal/validator"
	"pockets/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type GroupService struct {
	txRunner    db.TxRunner
	groups      GroupStore
	memberships MembershipStore
	users       UserStore
	pockets     PocketStore
	auditStore  AuditStore
	hub         SubscriptionHub
}

func NewGroupService(txRunner db.TxRunner, groups GroupStore, memberships MembershipStore, users UserStore, pockets PocketStore, auditStore AuditStore, hub SubscriptionHub) *GroupService {
	return &GroupService{
		txRunner:    txRunner,
		groups:      groups,
		memberships: memberships,
		users:       users,
		pockets:     pockets,
		auditStore:  auditStore,
		hub:         hub,
	}
}

type CreateGroupRequest struct {
	ActorID     string
	Name        string
	Description string
}

// CreateGroup creates the group, the creator's admin membership and the
// group's General pocket in one transaction.
func (s *GroupService) CreateGroup(ctx context.Context, req CreateGroupRequest) (store.Group, store.Pocket, error) {
	name := strings.TrimSpace(req.Name)
	if err := validator.ValidateName(name); err != nil {
		return store.Group{}, store.Pocket{}, newError(KindInvalidInput, "%v", err)
	}
	group := store.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   stringPtr(req.ActorID),
	}
	general := store.Pocket{
		ID:      uuid.NewString(),
		GroupID: stringPtr(group.ID),
		Name:    store.GeneralPocketName,
		Color:   DefaultPocketColor,
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.groups.Create(ctx, tx, group); err != nil {
			return translateDBError(err, "group")
		}
		if err := s.memberships.Create(ctx, tx, store.Membership{
			GroupID: group.ID,
			UserID:  req.ActorID,
			Role:    store.RoleAdmin,
		}); err != nil {
			return translateDBError(err, "membership")
		}
		if err := s.pockets.Create(ctx, tx, general); err != nil {
			return translateDBError(err, "pocket")
		}
		return s.auditStore.Log(ctx, tx, req.ActorID, "create_group", "group", group.ID, auditData(map[string]any{
			"name":              group.Name,
			"general_pocket_id": general.ID,
		}))
	})
	if err := observe("create_group", err); err != nil {
		return store.Group{}, store.Pocket{}, err
	}
	slog.InfoContext(ctx, "group created", "group_id", group.ID, "user_id", req.ActorID)
	s.hub.Subscribe(req.ActorID, websocket.GroupTopic(group.ID))
	return group, general, nil
}

func (s *GroupService) ListGroups(ctx context.Context, actorID string) ([]store.GroupSummary, error) {
	return s.groups.ListByUser(ctx, actorID)
}

func (s *GroupService) GetGroup(ctx context.Context, actorID, groupID string) (store.Group, string, error) {
	membership, err := requireMember(ctx, s.memberships, nil, groupID, actorID)
	if err != nil {
		return store.Group{}, "", err
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return store.Group{}, "", translateDBError(err, "group")
	}
	return group, membership.Role, nil
}

func (s *GroupService) ListMembers(ctx context.Context, actorID, groupID string) ([]store.Member, error) {
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return nil, err
	}
	return s.memberships.ListMembers(ctx, groupID)
}

func (s *GroupService) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.groups.GetForUpdate(ctx, tx, groupID); err != nil {
			return translateDBError(err, "group")
		}
		if _, err := requireAdmin(ctx, s.memberships, tx, groupID, actorID); err != nil {
			return err
		}
		if err := s.groups.Delete(ctx, tx, groupID); err != nil {
			return translateDeleteError(err, "group")
		}
		return s.auditStore.Log(ctx, tx, actorID, "delete_group", "group", groupID, "")
	})
	if err := observe("delete_group", err); err != nil {
		return err
	}
	s.hub.DropTopic(websocket.GroupTopic(groupID))
	return nil
}

type AddMemberRequest struct {
	ActorID string
	GroupID string
	Email   string
	Role    string
}

func (s *GroupService) AddMember(ctx context.Context, req AddMemberRequest) (store.Membership, error) {
	role, err := normalizeRole(req.Role)
	if err != nil {
		return store.Membership{}, err
	}
	var membership store.Membership
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := requireAdmin(ctx, s.memberships, tx, req.GroupID, req.ActorID); err != nil {
			return err
		}
		user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
		if errors.Is(err, sql.ErrNoRows) {
			return newError(KindNotFound, "no user is registered with that email")
		}
		if err != nil {
			return err
		}
		if _, err := s.memberships.Get(ctx, tx, req.GroupID, user.ID); err == nil {
			return newError(KindAlreadyMember, "user is already a member of the group")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		membership = store.Membership{GroupID: req.GroupID, UserID: user.ID, Role: role}
		if err := s.memberships.Create(ctx, tx, membership); err != nil {
			return translateDBError(err, "membership")
		}
		return s.auditStore.Log(ctx, tx, req.ActorID, "add_member", "group", req.GroupID, auditData(map[string]any{
			"user_id": user.ID,
			"role":    role,
		}))
	})
	if err := observe("add_member", err); err != nil {
		return store.Membership{}, err
	}
	s.hub.Subscribe(membership.UserID, websocket.GroupTopic(membership.GroupID))
	return membership, nil
}

type ChangeRoleRequest struct {
	ActorID      string
	GroupID      string
	TargetUserID string
	Role         string
}

// ChangeRole holds the group row lock while it reads the admin count.
func (s *GroupService) ChangeRole(ctx context.Context, req ChangeRoleRequest) error {
	role, err := normalizeRole(req.Role)
	if err != nil {
		return err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		group, err := s.groups.GetForUpdate(ctx, tx, req.GroupID)
		if err != nil {
			return translateDBError(err, "group")
		}
		if _, err := requireAdmin(ctx, s.memberships, tx, req.GroupID, req.ActorID); err != nil {
			return err
		}
		target, err := s.memberships.Get(ctx, tx, req.GroupID, req.TargetUserID)
		if err != nil {
			return translateDBError(err, "membership")
		}
		if target.Role == store.RoleAdmin && role != store.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx, tx, req.GroupID); err != nil {
				return err
			}
		}
		if target.Role == role {
			return nil
		}
		if isCreator(group, req.TargetUserID) {
			return newError(KindCreatorProtected, "the group creator's role cannot be changed")
		}
		if err := s.memberships.UpdateRole(ctx, tx, req.GroupID, req.TargetUserID, role); err != nil {
			return translateDBError(err, "membership")
		}
		return s.auditStore.Log(ctx, tx, req.ActorID, "change_role", "group", req.GroupID, auditData(map[string]any{
			"user_id":  req.TargetUserID,
			"old_role": target.Role,
			"new_role": role,
		}))
	})
	return observe("change_role", err)
}

type RemoveMemberRequest struct {
	ActorID      string
	GroupID      string
	TargetUserID string
}

// RemoveMember lets admins remove others and any member leave. The creator
// can only leave on their own.
func (s *GroupService) RemoveMember(ctx context.Context, req RemoveMemberRequest) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		group, err := s.groups.GetForUpdate(ctx, tx, req.GroupID)
		if err != nil {
			return translateDBError(err, "group")
		}
		leaving := req.ActorID == req.TargetUserID
		if leaving {
			if _, err := requireMember(ctx, s.memberships, tx, req.GroupID, req.ActorID); err != nil {
				return err
			}
		} else {
			if _, err := requireAdmin(ctx, s.memberships, tx, req.GroupID, req.ActorID); err != nil {
				return err
			}
			if isCreator(group, req.TargetUserID) {
				return newError(KindCreatorProtected, "the group creator cannot be removed")
			}
		}
		target, err := s.memberships.Get(ctx, tx, req.GroupID, req.TargetUserID)
		if err != nil {
			return translateDBError(err, "membership")
		}
		if target.Role == store.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx, tx, req.GroupID); err != nil {
				return err
			}
		}
		if err := s.memberships.Delete(ctx, tx, req.GroupID, req.TargetUserID); err != nil {
			return translateDeleteError(err, "membership")
		}
		return s.auditStore.Log(ctx, tx, req.ActorID, "remove_member", "group", req.GroupID, auditData(map[string]any{
			"user_id": req.TargetUserID,
		}))
	})
	if err := observe("remove_member", err); err != nil {
		return err
	}
	s.hub.Unsubscribe(req.TargetUserID, websocket.GroupTopic(req.GroupID))
	return nil
}

func (s *GroupService) ensureAnotherAdmin(ctx context.Context, tx *sqlx.Tx, groupID string) error {
	admins, err := s.memberships.CountAdmins(ctx, tx, groupID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return newError(KindLastAdminProtected, "the group must keep at least one admin")
	}
	return nil
}

func isCreator(group store.Group, userID string) bool {
	return group.CreatedBy != nil && *group.CreatedBy == userID
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", store.RoleMember:
		return store.RoleMember, nil
	case store.RoleAdmin:
		return store.RoleAdmin, nil
	}
	return "", newError(KindInvalidInput, "role must be admin or member")
}
