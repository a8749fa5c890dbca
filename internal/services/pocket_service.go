package services

import (
	"context"
	"log/slog"
	"strings"

	"pockets/internal/db"
	"pockets/internal/store"
	"pockets/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultPocketColor   = "#ef4444"
	DefaultCategoryColor = "#3b82f6"
)

type PocketService struct {
	txRunner    db.TxRunner
	pockets     PocketStore
	memberships MembershipStore
	movements   MovementStore
	auditStore  AuditStore
	hub         BalanceHub
}

func NewPocketService(txRunner db.TxRunner, pockets PocketStore, memberships MembershipStore, movements MovementStore, auditStore AuditStore, hub BalanceHub) *PocketService {
	return &PocketService{
		txRunner:    txRunner,
		pockets:     pockets,
		memberships: memberships,
		movements:   movements,
		auditStore:  auditStore,
		hub:         hub,
	}
}

type CreatePocketRequest struct {
	ActorID string
	Owner   Owner
	Name    string
	Color   string
	Balance int64
}

// CreatePocket creates a personal pocket at the requested balance. A group
// pocket starts at zero and is funded from the group's General pocket.
func (s *PocketService) CreatePocket(ctx context.Context, req CreatePocketRequest) (store.Pocket, error) {
	owner := req.Owner.normalized()
	if err := ValidateOwner(owner.UserID, owner.GroupID); err != nil {
		return store.Pocket{}, err
	}
	name, color, err := pocketDetails(req.Name, req.Color, DefaultPocketColor)
	if err != nil {
		return store.Pocket{}, err
	}
	if req.Balance < 0 {
		return store.Pocket{}, newError(KindInvalidInput, "balance cannot be negative")
	}
	if owner.IsGroup() && strings.EqualFold(name, store.GeneralPocketName) {
		return store.Pocket{}, newError(KindDuplicateName, "the General pocket name is reserved")
	}
	// draft is never mutated inside the closure so a retried transaction
	// starts from the same zero balance.
	draft := store.Pocket{
		ID:      uuid.NewString(),
		UserID:  owner.UserID,
		GroupID: owner.GroupID,
		Name:    name,
		Color:   color,
	}
	var (
		created store.Pocket
		changed []store.Pocket
	)
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireOwnerAccess(ctx, s.memberships, tx, owner, req.ActorID); err != nil {
			return err
		}
		if !owner.IsGroup() {
			pocket := draft
			pocket.Balance = req.Balance
			if err := s.pockets.Create(ctx, tx, pocket); err != nil {
				return translateDBError(err, "pocket")
			}
			created = pocket
			changed = []store.Pocket{pocket}
			return s.auditStore.Log(ctx, tx, req.ActorID, "create_pocket", "pocket", pocket.ID, auditData(map[string]any{
				"name":    pocket.Name,
				"balance": pocket.Balance,
			}))
		}

		ledger := newLedgerTx(ctx, tx, s.pockets)
		var general store.Pocket
		if req.Balance > 0 {
			found, err := s.pockets.GetGeneral(ctx, tx, *owner.GroupID)
			if err != nil {
				return translateDBError(err, "general pocket")
			}
			if err := ledger.lock(found.ID); err != nil {
				return err
			}
			if err := ledger.debit(found.ID, req.Balance); err != nil {
				return err
			}
			general = ledger.pocket(found.ID)
		}
		if err := s.pockets.Create(ctx, tx, draft); err != nil {
			return translateDBError(err, "pocket")
		}
		ledger.track(draft)
		if req.Balance > 0 {
			if err := ledger.credit(draft.ID, req.Balance); err != nil {
				return err
			}
			movements := movementPair(general, draft, req.Balance, req.ActorID,
				"Funding for pocket "+draft.Name, "Initial balance from "+store.GeneralPocketName)
			if err := s.movements.InsertMany(ctx, tx, movements); err != nil {
				return translateDBError(err, "movement")
			}
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		created = ledger.pocket(draft.ID)
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "create_pocket", "pocket", created.ID, auditData(map[string]any{
			"name":     created.Name,
			"group_id": *owner.GroupID,
			"balance":  created.Balance,
		}))
	})
	if err := observe("create_pocket", err); err != nil {
		return store.Pocket{}, err
	}
	broadcastPockets(s.hub, changed)
	return created, nil
}

func (s *PocketService) GetPocket(ctx context.Context, actorID, pocketID string) (store.Pocket, error) {
	pocket, err := s.pockets.GetByID(ctx, pocketID)
	if err != nil {
		return store.Pocket{}, translateDBError(err, "pocket")
	}
	if err := requirePocketAccess(ctx, s.memberships, nil, pocket, actorID); err != nil {
		return store.Pocket{}, err
	}
	return pocket, nil
}

// ListPockets returns the group's pockets when groupID is set, otherwise the
// actor's personal pockets.
func (s *PocketService) ListPockets(ctx context.Context, actorID, groupID string) ([]store.Pocket, error) {
	if groupID == "" {
		return s.pockets.ListByUser(ctx, actorID)
	}
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return nil, err
	}
	return s.pockets.ListByGroup(ctx, groupID)
}

func (s *PocketService) GetGeneralPocket(ctx context.Context, actorID, groupID string) (store.Pocket, error) {
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return store.Pocket{}, err
	}
	pocket, err := s.pockets.GetGeneral(ctx, nil, groupID)
	if err != nil {
		return store.Pocket{}, translateDBError(err, "general pocket")
	}
	return pocket, nil
}

type UpdatePocketRequest struct {
	ActorID  string
	PocketID string
	Name     *string
	Color    *string
	Balance  *int64
}

// UpdatePocket edits name, color and balance. A group pocket's balance
// change is settled against General and recorded as a movement pair.
func (s *PocketService) UpdatePocket(ctx context.Context, req UpdatePocketRequest) (store.Pocket, error) {
	current, err := s.GetPocket(ctx, req.ActorID, req.PocketID)
	if err != nil {
		return store.Pocket{}, err
	}
	if req.Balance != nil && *req.Balance < 0 {
		return store.Pocket{}, newError(KindInvalidInput, "balance cannot be negative")
	}
	var updated store.Pocket
	var changed []store.Pocket
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger := newLedgerTx(ctx, tx, s.pockets)
		generalID := ""
		if current.GroupID != nil && !current.IsGeneral() {
			general, err := s.pockets.GetGeneral(ctx, tx, *current.GroupID)
			if err != nil {
				return translateDBError(err, "general pocket")
			}
			generalID = general.ID
		}
		if err := ledger.lock(req.PocketID, generalID); err != nil {
			return err
		}
		pocket := ledger.pocket(req.PocketID)

		name, color := pocket.Name, pocket.Color
		if req.Name != nil {
			name = strings.TrimSpace(*req.Name)
		}
		if req.Color != nil {
			color = strings.TrimSpace(*req.Color)
		}
		if name != pocket.Name {
			if pocket.IsGeneral() {
				return newError(KindForbiddenDirectEdit, "the General pocket cannot be renamed")
			}
			if pocket.GroupID != nil && strings.EqualFold(name, store.GeneralPocketName) {
				return newError(KindDuplicateName, "the General pocket name is reserved")
			}
		}
		name, color, err := pocketDetails(name, color, pocket.Color)
		if err != nil {
			return err
		}

		if req.Balance != nil && *req.Balance != pocket.Balance {
			delta := *req.Balance - pocket.Balance
			switch {
			case pocket.IsGeneral():
				return newError(KindForbiddenDirectEdit, "the General pocket balance only changes through group operations")
			case pocket.GroupID == nil:
				if err := ledger.adjust(pocket.ID, delta); err != nil {
					return err
				}
			default:
				if err := s.settleAgainstGeneral(ctx, tx, ledger, req.ActorID, pocket.ID, generalID, delta); err != nil {
					return err
				}
			}
		}
		if name != pocket.Name || color != pocket.Color {
			if err := s.pockets.UpdateDetails(ctx, tx, pocket.ID, name, color); err != nil {
				return translateDBError(err, "pocket")
			}
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		updated = ledger.pocket(pocket.ID)
		updated.Name, updated.Color = name, color
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "update_pocket", "pocket", pocket.ID, auditData(map[string]any{
			"name":        name,
			"color":       color,
			"old_balance": pocket.Balance,
			"new_balance": updated.Balance,
		}))
	})
	if err := observe("update_pocket", err); err != nil {
		return store.Pocket{}, err
	}
	broadcastPockets(s.hub, changed)
	return updated, nil
}

// settleAgainstGeneral moves delta into pocketID out of General, or back to
// General when delta is negative.
func (s *PocketService) settleAgainstGeneral(ctx context.Context, tx *sqlx.Tx, ledger *ledgerTx, actorID, pocketID, generalID string, delta int64) error {
	from, to, amount := generalID, pocketID, delta
	if delta < 0 {
		from, to, amount = pocketID, generalID, -delta
	}
	if err := ledger.debit(from, amount); err != nil {
		return err
	}
	if err := ledger.credit(to, amount); err != nil {
		return err
	}
	source, dest := ledger.pocket(from), ledger.pocket(to)
	movements := movementPair(source, dest, amount, actorID, "Transfer to "+dest.Name, "Transfer from "+source.Name)
	if err := s.movements.InsertMany(ctx, tx, movements); err != nil {
		return translateDBError(err, "movement")
	}
	return nil
}

// DeletePocket removes a pocket. A group pocket's remaining balance returns
// to General first. Pockets pinned by transfers stay.
func (s *PocketService) DeletePocket(ctx context.Context, actorID, pocketID string) error {
	current, err := s.GetPocket(ctx, actorID, pocketID)
	if err != nil {
		return err
	}
	if current.IsGeneral() {
		return newError(KindForbiddenDirectEdit, "the General pocket cannot be deleted")
	}
	var changed []store.Pocket
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		referenced, err := s.pockets.IsReferenced(ctx, tx, pocketID)
		if err != nil {
			return err
		}
		if referenced {
			return newError(KindRestrictedDeletion, "pocket is referenced by transfers")
		}
		ledger := newLedgerTx(ctx, tx, s.pockets)
		generalID := ""
		if current.GroupID != nil {
			general, err := s.pockets.GetGeneral(ctx, tx, *current.GroupID)
			if err != nil {
				return translateDBError(err, "general pocket")
			}
			generalID = general.ID
		}
		if err := ledger.lock(pocketID, generalID); err != nil {
			return err
		}
		pocket := ledger.pocket(pocketID)
		if generalID != "" && pocket.Balance > 0 {
			if err := s.settleAgainstGeneral(ctx, tx, ledger, actorID, pocketID, generalID, -pocket.Balance); err != nil {
				return err
			}
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		if err := s.pockets.Delete(ctx, tx, pocketID); err != nil {
			return translateDeleteError(err, "pocket")
		}
		for _, p := range ledger.changed() {
			if p.ID != pocketID {
				changed = append(changed, p)
			}
		}
		return s.auditStore.Log(ctx, tx, actorID, "delete_pocket", "pocket", pocketID, auditData(map[string]any{
			"name":    pocket.Name,
			"balance": pocket.Balance,
		}))
	})
	if err := observe("delete_pocket", err); err != nil {
		return err
	}
	slog.InfoContext(ctx, "pocket deleted", "pocket_id", pocketID, "user_id", actorID)
	broadcastPockets(s.hub, changed)
	return nil
}

func pocketDetails(name, color, fallbackColor string) (string, string, error) {
	name = strings.TrimSpace(name)
	if err := validator.ValidateName(name); err != nil {
		return "", "", newError(KindInvalidInput, "%v", err)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = fallbackColor
	}
	if err := validator.ValidateColor(color); err != nil {
		return "", "", newError(KindInvalidInput, "%v", err)
	}
	return name, color, nil
}
