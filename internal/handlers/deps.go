package handlers

import (
	"context"

	"pockets/internal/services"
	"pockets/internal/store"
)

type AccountService interface {
	Register(ctx context.Context, req services.RegisterRequest) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (store.User, error)
	Profile(ctx context.Context, userID string) (store.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type GroupService interface {
	CreateGroup(ctx context.Context, req services.CreateGroupRequest) (store.Group, store.Pocket, error)
	ListGroups(ctx context.Context, actorID string) ([]store.GroupSummary, error)
	GetGroup(ctx context.Context, actorID, groupID string) (store.Group, string, error)
	DeleteGroup(ctx context.Context, actorID, groupID string) error
	ListMembers(ctx context.Context, actorID, groupID string) ([]store.Member, error)
	AddMember(ctx context.Context, req services.AddMemberRequest) (store.Membership, error)
	ChangeRole(ctx context.Context, req services.ChangeRoleRequest) error
	RemoveMember(ctx context.Context, req services.RemoveMemberRequest) error
}

type PocketService interface {
	CreatePocket(ctx context.Context, req services.CreatePocketRequest) (store.Pocket, error)
	GetPocket(ctx context.Context, actorID, pocketID string) (store.Pocket, error)
	ListPockets(ctx context.Context, actorID, groupID string) ([]store.Pocket, error)
	GetGeneralPocket(ctx context.Context, actorID, groupID string) (store.Pocket, error)
	UpdatePocket(ctx context.Context, req services.UpdatePocketRequest) (store.Pocket, error)
	DeletePocket(ctx context.Context, actorID, pocketID string) error
}

type CategoryService interface {
	CreateCategory(ctx context.Context, req services.CategoryRequest) (store.Category, error)
	GetCategory(ctx context.Context, actorID, categoryID string) (store.Category, error)
	ListCategories(ctx context.Context, actorID, groupID, kind string) ([]store.Category, error)
	UpdateCategory(ctx context.Context, req services.UpdateCategoryRequest) (store.Category, error)
	DeleteCategory(ctx context.Context, actorID, categoryID string) error
}

// RecordService is served once for incomes and once for expenses.
type RecordService interface {
	Kind() string
	Create(ctx context.Context, req services.RecordRequest) (store.Record, error)
	Get(ctx context.Context, actorID, recordID string) (store.Record, error)
	List(ctx context.Context, actorID, groupID string) ([]store.Record, error)
	Update(ctx context.Context, req services.UpdateRecordRequest) (store.Record, error)
	Delete(ctx context.Context, actorID, recordID string) error
}

type TransferService interface {
	Move(ctx context.Context, req services.MoveRequest) (services.MoveResult, error)
	CreateTransfer(ctx context.Context, req services.TransferRequest) (store.Transfer, error)
	ListTransfers(ctx context.Context, actorID string, limit, offset int) ([]store.Transfer, error)
	ListMovements(ctx context.Context, actorID, groupID string, limit, offset int) ([]store.Movement, error)
}

type ContributionService interface {
	Contribute(ctx context.Context, req services.ContributeRequest) (services.ContributionResult, error)
	ListContributions(ctx context.Context, actorID, groupID string) ([]store.Contribution, error)
}

type AuditStore interface {
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]store.AuditEntry, error)
}

// GroupLookup resolves the groups whose balance topics a socket may join.
type GroupLookup interface {
	ListGroupIDs(ctx context.Context, userID string) ([]string, error)
}
