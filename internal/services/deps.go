package services

import (
	"context"

	"pockets/internal/store"
	"pockets/internal/websocket"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user store.User) error
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type GroupStore interface {
	Create(ctx context.Context, tx store.Execer, group store.Group) error
	GetByID(ctx context.Context, groupID string) (store.Group, error)
	GetForUpdate(ctx context.Context, tx store.Getter, groupID string) (store.Group, error)
	ListByUser(ctx context.Context, userID string) ([]store.GroupSummary, error)
	Delete(ctx context.Context, tx store.Execer, groupID string) error
}

type MembershipStore interface {
	Create(ctx context.Context, tx store.Execer, membership store.Membership) error
	Get(ctx context.Context, q store.Getter, groupID, userID string) (store.Membership, error)
	CountAdmins(ctx context.Context, q store.Getter, groupID string) (int, error)
	UpdateRole(ctx context.Context, tx store.Execer, groupID, userID, role string) error
	Delete(ctx context.Context, tx store.Execer, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]store.Member, error)
	ListGroupIDs(ctx context.Context, userID string) ([]string, error)
}

type PocketStore interface {
	Create(ctx context.Context, tx store.Execer, pocket store.Pocket) error
	GetByID(ctx context.Context, pocketID string) (store.Pocket, error)
	GetForUpdate(ctx context.Context, tx store.Getter, pocketID string) (store.Pocket, error)
	GetGeneral(ctx context.Context, q store.Getter, groupID string) (store.Pocket, error)
	UpdateBalance(ctx context.Context, tx store.Execer, pocketID string, balance int64) error
	UpdateDetails(ctx context.Context, tx store.Execer, pocketID, name, color string) error
	Delete(ctx context.Context, tx store.Execer, pocketID string) error
	IsReferenced(ctx context.Context, q store.Getter, pocketID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]store.Pocket, error)
	ListByGroup(ctx context.Context, groupID string) ([]store.Pocket, error)
}

type CategoryStore interface {
	Create(ctx context.Context, tx store.Execer, category store.Category) error
	GetByID(ctx context.Context, q store.Getter, categoryID string) (store.Category, error)
	Update(ctx context.Context, tx store.Execer, category store.Category) error
	Delete(ctx context.Context, tx store.Execer, categoryID string) error
	ListByUser(ctx context.Context, userID, kind string) ([]store.Category, error)
	ListByGroup(ctx context.Context, groupID, kind string) ([]store.Category, error)
}

// RecordStore is satisfied by both the income and the expense store.
type RecordStore interface {
	Kind() string
	Create(ctx context.Context, tx store.Execer, record store.Record) error
	GetByID(ctx context.Context, recordID string) (store.Record, error)
	GetForUpdate(ctx context.Context, tx store.Getter, recordID string) (store.Record, error)
	Update(ctx context.Context, tx store.Execer, record store.Record) error
	Delete(ctx context.Context, tx store.Execer, recordID string) error
	ListByUser(ctx context.Context, userID string) ([]store.Record, error)
	ListByGroup(ctx context.Context, groupID string) ([]store.Record, error)
}

type TransferStore interface {
	Create(ctx context.Context, tx store.Execer, transfer store.Transfer) error
	GetByID(ctx context.Context, transferID string) (store.Transfer, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]store.Transfer, error)
}

type MovementStore interface {
	InsertMany(ctx context.Context, tx store.Execer, movements []store.Movement) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]store.Movement, error)
	ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]store.Movement, error)
}

type ContributionStore interface {
	Create(ctx context.Context, tx store.Execer, contribution store.Contribution) error
	ListByGroup(ctx context.Context, groupID string) ([]store.Contribution, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(topic string, update websocket.BalanceUpdate)
}

// SubscriptionHub moves a user's live connections in and out of group
// topics as memberships change.
type SubscriptionHub interface {
	Subscribe(userID, topic string)
	Unsubscribe(userID, topic string)
	DropTopic(topic string)
}
