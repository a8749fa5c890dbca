package services

import (
	"context"
	"log/slog"
	"strings"

	"pockets/internal/db"
	"pockets/internal/money"
	"pockets/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type TransferService struct {
	txRunner    db.TxRunner
	pockets     PocketStore
	memberships MembershipStore
	transfers   TransferStore
	movements   MovementStore
	auditStore  AuditStore
	hub         BalanceHub
}

func NewTransferService(txRunner db.TxRunner, pockets PocketStore, memberships MembershipStore, transfers TransferStore, movements MovementStore, auditStore AuditStore, hub BalanceHub) *TransferService {
	return &TransferService{
		txRunner:    txRunner,
		pockets:     pockets,
		memberships: memberships,
		transfers:   transfers,
		movements:   movements,
		auditStore:  auditStore,
		hub:         hub,
	}
}

type MoveRequest struct {
	ActorID      string
	FromPocketID string
	ToPocketID   string
	Amount       int64
	Description  string
}

type MoveResult struct {
	From store.Pocket
	To   store.Pocket
}

// Move shifts amount between two pockets of the same owner and appends an
// expense movement on the source and an income movement on the destination.
func (s *TransferService) Move(ctx context.Context, req MoveRequest) (MoveResult, error) {
	if err := validateTransferInput(req.FromPocketID, req.ToPocketID, req.Amount); err != nil {
		return MoveResult{}, err
	}
	var result MoveResult
	var changed []store.Pocket
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger := newLedgerTx(ctx, tx, s.pockets)
		if err := ledger.lock(req.FromPocketID, req.ToPocketID); err != nil {
			return err
		}
		from, to := ledger.pocket(req.FromPocketID), ledger.pocket(req.ToPocketID)
		if err := s.checkContext(ctx, tx, from, to, req.ActorID); err != nil {
			return err
		}
		if err := ledger.debit(from.ID, req.Amount); err != nil {
			return err
		}
		if err := ledger.credit(to.ID, req.Amount); err != nil {
			return err
		}
		outDescription, inDescription := "Transfer to "+to.Name, "Transfer from "+from.Name
		if description := strings.TrimSpace(req.Description); description != "" {
			outDescription, inDescription = description, description
		}
		if err := s.movements.InsertMany(ctx, tx, movementPair(from, to, req.Amount, req.ActorID, outDescription, inDescription)); err != nil {
			return translateDBError(err, "movement")
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		result = MoveResult{From: ledger.pocket(from.ID), To: ledger.pocket(to.ID)}
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "move", "pocket", from.ID, auditData(map[string]any{
			"from_pocket_id": from.ID,
			"to_pocket_id":   to.ID,
			"amount":         req.Amount,
		}))
	})
	if err := observe("move", err); err != nil {
		return MoveResult{}, err
	}
	slog.InfoContext(ctx, "pocket move committed", "from_pocket_id", req.FromPocketID, "to_pocket_id", req.ToPocketID, "user_id", req.ActorID)
	broadcastPockets(s.hub, changed)
	return result, nil
}

type TransferRequest struct {
	ActorID      string
	FromPocketID string
	ToPocketID   string
	AmountFrom   int64
	// AmountTo overrides the destination amount. When zero, Rate converts
	// AmountFrom, and with no rate the destination receives AmountFrom.
	AmountTo    int64
	Rate        *decimal.Decimal
	Description string
}

// CreateTransfer records a formal transfer row. The destination amount may
// differ from the source amount.
func (s *TransferService) CreateTransfer(ctx context.Context, req TransferRequest) (store.Transfer, error) {
	if err := validateTransferInput(req.FromPocketID, req.ToPocketID, req.AmountFrom); err != nil {
		return store.Transfer{}, err
	}
	amountTo := req.AmountTo
	if amountTo == 0 {
		amountTo = req.AmountFrom
		if req.Rate != nil {
			if !req.Rate.IsPositive() {
				return store.Transfer{}, newError(KindInvalidInput, "rate must be positive")
			}
			converted, err := money.Convert(req.AmountFrom, *req.Rate)
			if err != nil {
				return store.Transfer{}, newError(KindInvalidInput, "converted amount: %v", err)
			}
			amountTo = converted
		}
	}
	if amountTo <= 0 {
		return store.Transfer{}, newError(KindInvalidInput, "destination amount must be greater than zero")
	}
	if err := money.CheckMinor(amountTo); err != nil {
		return store.Transfer{}, newError(KindInvalidInput, "destination amount: %v", err)
	}
	transfer := store.Transfer{
		ID:           uuid.NewString(),
		FromPocketID: req.FromPocketID,
		ToPocketID:   req.ToPocketID,
		AmountFrom:   req.AmountFrom,
		AmountTo:     amountTo,
		Description:  strings.TrimSpace(req.Description),
		CreatedBy:    stringPtr(req.ActorID),
	}
	var changed []store.Pocket
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ledger := newLedgerTx(ctx, tx, s.pockets)
		if err := ledger.lock(req.FromPocketID, req.ToPocketID); err != nil {
			return err
		}
		from, to := ledger.pocket(req.FromPocketID), ledger.pocket(req.ToPocketID)
		if err := s.checkContext(ctx, tx, from, to, req.ActorID); err != nil {
			return err
		}
		if err := ledger.debit(from.ID, transfer.AmountFrom); err != nil {
			return err
		}
		if err := ledger.credit(to.ID, transfer.AmountTo); err != nil {
			return err
		}
		if err := s.transfers.Create(ctx, tx, transfer); err != nil {
			return translateDBError(err, "transfer")
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "create_transfer", "transfer", transfer.ID, auditData(map[string]any{
			"amount_from": transfer.AmountFrom,
			"amount_to":   transfer.AmountTo,
		}))
	})
	if err := observe("create_transfer", err); err != nil {
		return store.Transfer{}, err
	}
	broadcastPockets(s.hub, changed)
	return transfer, nil
}

func (s *TransferService) ListTransfers(ctx context.Context, actorID string, limit, offset int) ([]store.Transfer, error) {
	return s.transfers.ListForUser(ctx, actorID, limit, offset)
}

// ListMovements returns the group's movements when groupID is set,
// otherwise the actor's personal ones.
func (s *TransferService) ListMovements(ctx context.Context, actorID, groupID string, limit, offset int) ([]store.Movement, error) {
	if groupID == "" {
		return s.movements.ListByUser(ctx, actorID, limit, offset)
	}
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return nil, err
	}
	return s.movements.ListByGroup(ctx, groupID, limit, offset)
}

// checkContext allows two personal pockets of the actor, or two pockets of
// one group the actor belongs to.
func (s *TransferService) checkContext(ctx context.Context, tx *sqlx.Tx, from, to store.Pocket, actorID string) error {
	if from.GroupID != nil && to.GroupID != nil && *from.GroupID == *to.GroupID {
		_, err := requireMember(ctx, s.memberships, tx, *from.GroupID, actorID)
		return err
	}
	if from.UserID != nil && to.UserID != nil && *from.UserID == actorID && *to.UserID == actorID {
		return nil
	}
	return newError(KindCrossContextTransfer, "both pockets must be yours or belong to the same group")
}

func validateTransferInput(fromID, toID string, amount int64) error {
	if fromID == "" || toID == "" {
		return newError(KindInvalidInput, "source and destination pockets are required")
	}
	if fromID == toID {
		return newError(KindInvalidInput, "source and destination pockets must differ")
	}
	if amount <= 0 {
		return newError(KindInvalidInput, "amount must be greater than zero")
	}
	if err := money.CheckMinor(amount); err != nil {
		return newError(KindInvalidInput, "amount: %v", err)
	}
	return nil
}
