package services

import (
	"context"
	"database/sql"
	"errors"

	"pockets/internal/store"
)

// requireMember returns the actor's membership or NotMember. q may be nil to
// read outside a transaction.
func requireMember(ctx context.Context, memberships MembershipStore, q store.Getter, groupID, actorID string) (store.Membership, error) {
	membership, err := memberships.Get(ctx, q, groupID, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Membership{}, newError(KindNotMember, "you are not a member of this group")
	}
	if err != nil {
		return store.Membership{}, err
	}
	return membership, nil
}

func requireAdmin(ctx context.Context, memberships MembershipStore, q store.Getter, groupID, actorID string) (store.Membership, error) {
	membership, err := memberships.Get(ctx, q, groupID, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Membership{}, newError(KindNotAdmin, "only group admins can do this")
	}
	if err != nil {
		return store.Membership{}, err
	}
	if membership.Role != store.RoleAdmin {
		return store.Membership{}, newError(KindNotAdmin, "only group admins can do this")
	}
	return membership, nil
}

// requirePocketAccess allows the owner of a personal pocket or any member of
// the group owning a group pocket. Personal pockets of other users are
// reported as missing.
func requirePocketAccess(ctx context.Context, memberships MembershipStore, q store.Getter, pocket store.Pocket, actorID string) error {
	if pocket.GroupID != nil {
		_, err := requireMember(ctx, memberships, q, *pocket.GroupID, actorID)
		return err
	}
	if pocket.UserID == nil || *pocket.UserID != actorID {
		return newError(KindNotFound, "pocket not found")
	}
	return nil
}

// requireOwnerAccess checks that actorID may act for owner: itself for a
// personal owner, a member for a group owner.
func requireOwnerAccess(ctx context.Context, memberships MembershipStore, q store.Getter, owner Owner, actorID string) error {
	owner = owner.normalized()
	if err := ValidateOwner(owner.UserID, owner.GroupID); err != nil {
		return err
	}
	if owner.GroupID != nil {
		_, err := requireMember(ctx, memberships, q, *owner.GroupID, actorID)
		return err
	}
	if *owner.UserID != actorID {
		return newError(KindInvalidInput, "user_id must be your own id")
	}
	return nil
}
