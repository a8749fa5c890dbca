package services

import (
	"context"
	"strings"

	"pockets/internal/db"
	"pockets/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CategoryService struct {
	txRunner    db.TxRunner
	categories  CategoryStore
	memberships MembershipStore
	auditStore  AuditStore
}

func NewCategoryService(txRunner db.TxRunner, categories CategoryStore, memberships MembershipStore, auditStore AuditStore) *CategoryService {
	return &CategoryService{
		txRunner:    txRunner,
		categories:  categories,
		memberships: memberships,
		auditStore:  auditStore,
	}
}

type CategoryRequest struct {
	ActorID string
	Owner   Owner
	Name    string
	Color   string
	Kind    string
}

func (s *CategoryService) CreateCategory(ctx context.Context, req CategoryRequest) (store.Category, error) {
	owner := req.Owner.normalized()
	if err := ValidateOwner(owner.UserID, owner.GroupID); err != nil {
		return store.Category{}, err
	}
	kind, err := normalizeKind(req.Kind)
	if err != nil {
		return store.Category{}, err
	}
	name, color, err := pocketDetails(req.Name, req.Color, DefaultCategoryColor)
	if err != nil {
		return store.Category{}, err
	}
	category := store.Category{
		ID:      uuid.NewString(),
		UserID:  owner.UserID,
		GroupID: owner.GroupID,
		Name:    name,
		Color:   color,
		Kind:    kind,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireOwnerAccess(ctx, s.memberships, tx, owner, req.ActorID); err != nil {
			return err
		}
		if err := s.categories.Create(ctx, tx, category); err != nil {
			return translateDBError(err, "category")
		}
		return s.auditStore.Log(ctx, tx, req.ActorID, "create_category", "category", category.ID, auditData(map[string]any{
			"name": category.Name,
			"kind": category.Kind,
		}))
	})
	if err != nil {
		return store.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, actorID, categoryID string) (store.Category, error) {
	category, err := s.categories.GetByID(ctx, nil, categoryID)
	if err != nil {
		return store.Category{}, translateDBError(err, "category")
	}
	if err := s.requireCategoryAccess(ctx, nil, category, actorID); err != nil {
		return store.Category{}, err
	}
	return category, nil
}

// ListCategories returns the group's categories when groupID is set,
// otherwise the actor's own. kind filters when non-empty.
func (s *CategoryService) ListCategories(ctx context.Context, actorID, groupID, kind string) ([]store.Category, error) {
	if kind != "" {
		normalized, err := normalizeKind(kind)
		if err != nil {
			return nil, err
		}
		kind = normalized
	}
	if groupID == "" {
		return s.categories.ListByUser(ctx, actorID, kind)
	}
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return nil, err
	}
	return s.categories.ListByGroup(ctx, groupID, kind)
}

type UpdateCategoryRequest struct {
	ActorID    string
	CategoryID string
	Name       *string
	Color      *string
	Kind       *string
}

func (s *CategoryService) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (store.Category, error) {
	var updated store.Category
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		category, err := s.categories.GetByID(ctx, tx, req.CategoryID)
		if err != nil {
			return translateDBError(err, "category")
		}
		if err := s.requireCategoryAccess(ctx, tx, category, req.ActorID); err != nil {
			return err
		}
		name, color := category.Name, category.Color
		if req.Name != nil {
			name = *req.Name
		}
		if req.Color != nil {
			color = *req.Color
		}
		if req.Kind != nil {
			kind, err := normalizeKind(*req.Kind)
			if err != nil {
				return err
			}
			category.Kind = kind
		}
		category.Name, category.Color, err = pocketDetails(name, color, category.Color)
		if err != nil {
			return err
		}
		if err := s.categories.Update(ctx, tx, category); err != nil {
			return translateDBError(err, "category")
		}
		updated = category
		return s.auditStore.Log(ctx, tx, req.ActorID, "update_category", "category", category.ID, auditData(map[string]any{
			"name": category.Name,
			"kind": category.Kind,
		}))
	})
	if err != nil {
		return store.Category{}, err
	}
	return updated, nil
}

// DeleteCategory leaves records that used the category in place with no
// category.
func (s *CategoryService) DeleteCategory(ctx context.Context, actorID, categoryID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		category, err := s.categories.GetByID(ctx, tx, categoryID)
		if err != nil {
			return translateDBError(err, "category")
		}
		if err := s.requireCategoryAccess(ctx, tx, category, actorID); err != nil {
			return err
		}
		if err := s.categories.Delete(ctx, tx, categoryID); err != nil {
			return translateDeleteError(err, "category")
		}
		return s.auditStore.Log(ctx, tx, actorID, "delete_category", "category", categoryID, "")
	})
}

func (s *CategoryService) requireCategoryAccess(ctx context.Context, q store.Getter, category store.Category, actorID string) error {
	if category.GroupID != nil {
		_, err := requireMember(ctx, s.memberships, q, *category.GroupID, actorID)
		return err
	}
	if category.UserID == nil || *category.UserID != actorID {
		return newError(KindNotFound, "category not found")
	}
	return nil
}

func normalizeKind(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case store.KindIncome:
		return store.KindIncome, nil
	case store.KindExpense:
		return store.KindExpense, nil
	}
	return "", newError(KindInvalidInput, "kind must be income or expense")
}
