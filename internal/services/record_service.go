package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pockets/internal/db"
	"pockets/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RecordService runs the income or expense lifecycle. Every create, update
// and delete moves the linked pocket's balance in the same transaction as
// the row change.
type RecordService struct {
	txRunner    db.TxRunner
	records     RecordStore
	pockets     PocketStore
	categories  CategoryStore
	memberships MembershipStore
	auditStore  AuditStore
	hub         BalanceHub
}

func NewRecordService(txRunner db.TxRunner, records RecordStore, pockets PocketStore, categories CategoryStore, memberships MembershipStore, auditStore AuditStore, hub BalanceHub) *RecordService {
	return &RecordService{
		txRunner:    txRunner,
		records:     records,
		pockets:     pockets,
		categories:  categories,
		memberships: memberships,
		auditStore:  auditStore,
		hub:         hub,
	}
}

func (s *RecordService) Kind() string {
	return s.records.Kind()
}

// effect is the signed balance change a record of amount applies to its pocket.
func (s *RecordService) effect(amount int64) int64 {
	if s.records.Kind() == store.KindExpense {
		return -amount
	}
	return amount
}

type RecordRequest struct {
	ActorID     string
	Owner       Owner
	CategoryID  *string
	PocketID    *string
	Amount      int64
	OccurredOn  time.Time
	Description string
}

func (s *RecordService) Create(ctx context.Context, req RecordRequest) (store.Record, error) {
	owner := req.Owner.normalized()
	if err := ValidateOwner(owner.UserID, owner.GroupID); err != nil {
		return store.Record{}, err
	}
	if req.Amount <= 0 {
		return store.Record{}, newError(KindInvalidInput, "amount must be greater than zero")
	}
	record := store.Record{
		ID:          uuid.NewString(),
		UserID:      owner.UserID,
		GroupID:     owner.GroupID,
		CategoryID:  emptyToNil(req.CategoryID),
		PocketID:    emptyToNil(req.PocketID),
		Amount:      req.Amount,
		OccurredOn:  dateOrToday(req.OccurredOn),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   stringPtr(req.ActorID),
	}
	var changed []store.Pocket
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireOwnerAccess(ctx, s.memberships, tx, owner, req.ActorID); err != nil {
			return err
		}
		ledger := newLedgerTx(ctx, tx, s.pockets)
		if err := s.checkReferences(ctx, tx, ledger, owner, record.CategoryID, record.PocketID); err != nil {
			return err
		}
		if err := s.createInTx(ctx, tx, ledger, record); err != nil {
			return err
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "create_"+s.Kind(), s.Kind(), record.ID, recordAudit(record))
	})
	if err := observe("create_"+s.Kind(), err); err != nil {
		return store.Record{}, err
	}
	slog.InfoContext(ctx, s.Kind()+" recorded", "record_id", record.ID, "user_id", req.ActorID)
	broadcastPockets(s.hub, changed)
	return record, nil
}

// createInTx applies the record's balance effect to the locked pocket and
// inserts the row. A record with no pocket only inserts the row.
func (s *RecordService) createInTx(ctx context.Context, tx *sqlx.Tx, ledger *ledgerTx, record store.Record) error {
	if record.PocketID != nil {
		if err := ledger.adjust(*record.PocketID, s.effect(record.Amount)); err != nil {
			return err
		}
	}
	if err := s.records.Create(ctx, tx, record); err != nil {
		return translateDBError(err, s.Kind())
	}
	return nil
}

func (s *RecordService) Get(ctx context.Context, actorID, recordID string) (store.Record, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return store.Record{}, translateDBError(err, s.Kind())
	}
	if err := s.requireRecordAccess(ctx, nil, record, actorID); err != nil {
		return store.Record{}, err
	}
	return record, nil
}

func (s *RecordService) List(ctx context.Context, actorID, groupID string) ([]store.Record, error) {
	if groupID == "" {
		return s.records.ListByUser(ctx, actorID)
	}
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return nil, err
	}
	return s.records.ListByGroup(ctx, groupID)
}

type UpdateRecordRequest struct {
	ActorID     string
	RecordID    string
	CategoryID  *string
	PocketID    *string
	Amount      int64
	OccurredOn  time.Time
	Description string
}

// Update replaces the record's editable fields. The old balance effect is
// reversed and the new one applied in one transaction; on the same pocket
// only the net difference is applied.
func (s *RecordService) Update(ctx context.Context, req UpdateRecordRequest) (store.Record, error) {
	if req.Amount <= 0 {
		return store.Record{}, newError(KindInvalidInput, "amount must be greater than zero")
	}
	var updated store.Record
	var changed []store.Pocket
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.records.GetForUpdate(ctx, tx, req.RecordID)
		if err != nil {
			return translateDBError(err, s.Kind())
		}
		if err := s.requireRecordAccess(ctx, tx, existing, req.ActorID); err != nil {
			return err
		}
		next := existing
		next.CategoryID = emptyToNil(req.CategoryID)
		next.PocketID = emptyToNil(req.PocketID)
		next.Amount = req.Amount
		next.OccurredOn = dateOrToday(req.OccurredOn)
		next.Description = strings.TrimSpace(req.Description)

		ledger := newLedgerTx(ctx, tx, s.pockets)
		if err := ledger.lock(derefOr(existing.PocketID), derefOr(next.PocketID)); err != nil {
			return err
		}
		owner := Owner{UserID: existing.UserID, GroupID: existing.GroupID}
		if err := s.checkReferences(ctx, tx, ledger, owner, next.CategoryID, next.PocketID); err != nil {
			return err
		}

		oldPocket, newPocket := derefOr(existing.PocketID), derefOr(next.PocketID)
		if oldPocket != "" && oldPocket == newPocket {
			if err := ledger.adjust(oldPocket, s.effect(next.Amount)-s.effect(existing.Amount)); err != nil {
				return err
			}
		} else {
			if oldPocket != "" {
				if err := ledger.adjust(oldPocket, -s.effect(existing.Amount)); err != nil {
					return err
				}
			}
			if newPocket != "" {
				if err := ledger.adjust(newPocket, s.effect(next.Amount)); err != nil {
					return err
				}
			}
		}
		if err := s.records.Update(ctx, tx, next); err != nil {
			return translateDBError(err, s.Kind())
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		updated = next
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "update_"+s.Kind(), s.Kind(), next.ID, auditData(map[string]any{
			"old_amount":    existing.Amount,
			"new_amount":    next.Amount,
			"old_pocket_id": existing.PocketID,
			"new_pocket_id": next.PocketID,
		}))
	})
	if err := observe("update_"+s.Kind(), err); err != nil {
		return store.Record{}, err
	}
	broadcastPockets(s.hub, changed)
	return updated, nil
}

// Delete reverses the record's balance effect and removes it.
func (s *RecordService) Delete(ctx context.Context, actorID, recordID string) error {
	var changed []store.Pocket
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.records.GetForUpdate(ctx, tx, recordID)
		if err != nil {
			return translateDBError(err, s.Kind())
		}
		if err := s.requireRecordAccess(ctx, tx, existing, actorID); err != nil {
			return err
		}
		ledger := newLedgerTx(ctx, tx, s.pockets)
		if existing.PocketID != nil {
			if err := ledger.lock(*existing.PocketID); err != nil {
				return err
			}
			if err := ledger.adjust(*existing.PocketID, -s.effect(existing.Amount)); err != nil {
				return err
			}
		}
		if err := s.records.Delete(ctx, tx, recordID); err != nil {
			return translateDeleteError(err, s.Kind())
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, actorID, "delete_"+s.Kind(), s.Kind(), recordID, recordAudit(existing))
	})
	if err := observe("delete_"+s.Kind(), err); err != nil {
		return err
	}
	broadcastPockets(s.hub, changed)
	return nil
}

// checkReferences locks the pocket and verifies that the category and pocket
// belong to owner and that the category kind matches.
func (s *RecordService) checkReferences(ctx context.Context, tx *sqlx.Tx, ledger *ledgerTx, owner Owner, categoryID, pocketID *string) error {
	if categoryID != nil {
		category, err := s.categories.GetByID(ctx, tx, *categoryID)
		if err != nil {
			return translateDBError(err, "category")
		}
		if category.Kind != s.Kind() {
			return newError(KindInvalidInput, "category %q is not an %s category", category.Name, s.Kind())
		}
		if !sameContext(owner, Owner{UserID: category.UserID, GroupID: category.GroupID}) {
			return newError(KindInvalidInput, "category belongs to a different owner")
		}
	}
	if pocketID != nil {
		if err := ledger.lock(*pocketID); err != nil {
			return err
		}
		if !sameContext(owner, pocketOwner(ledger.pocket(*pocketID))) {
			return newError(KindInvalidInput, "pocket belongs to a different owner")
		}
	}
	return nil
}

// requireRecordAccess admits the personal owner or any member of the owning
// group. Records orphaned by an owner deletion stay editable by their author.
func (s *RecordService) requireRecordAccess(ctx context.Context, q store.Getter, record store.Record, actorID string) error {
	switch {
	case record.GroupID != nil:
		_, err := requireMember(ctx, s.memberships, q, *record.GroupID, actorID)
		return err
	case record.UserID != nil:
		if *record.UserID == actorID {
			return nil
		}
	case record.CreatedBy != nil:
		if *record.CreatedBy == actorID {
			return nil
		}
	}
	return newError(KindNotFound, "%s not found", s.Kind())
}

func recordAudit(record store.Record) string {
	return auditData(map[string]any{
		"amount":      record.Amount,
		"pocket_id":   record.PocketID,
		"category_id": record.CategoryID,
	})
}

func dateOrToday(day time.Time) time.Time {
	if day.IsZero() {
		day = time.Now()
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func emptyToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func derefOr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
