package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pockets/internal/metrics"
	"pockets/internal/money"
	"pockets/internal/store"
	"pockets/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Credit returns p with amount added. amount must be positive.
func Credit(p store.Pocket, amount int64) (store.Pocket, error) {
	if amount <= 0 {
		return p, newError(KindInvalidInput, "credit amount must be positive")
	}
	p.Balance += amount
	return p, nil
}

// Debit returns p with amount removed, refusing to take the balance below zero.
func Debit(p store.Pocket, amount int64) (store.Pocket, error) {
	if amount <= 0 {
		return p, newError(KindInvalidInput, "debit amount must be positive")
	}
	if p.Balance < amount {
		return p, insufficientFunds(p.Name, p.Balance)
	}
	p.Balance -= amount
	return p, nil
}

// ledgerTx holds the pockets one transaction has locked. Balance changes are
// applied to the locked snapshots and written back by flush.
type ledgerTx struct {
	ctx     context.Context
	tx      *sqlx.Tx
	pockets PocketStore
	locked  map[string]store.Pocket
	dirty   map[string]bool
}

func newLedgerTx(ctx context.Context, tx *sqlx.Tx, pockets PocketStore) *ledgerTx {
	return &ledgerTx{
		ctx:     ctx,
		tx:      tx,
		pockets: pockets,
		locked:  make(map[string]store.Pocket),
		dirty:   make(map[string]bool),
	}
}

// lock takes row locks on every id in ascending order. Empty ids and ids
// already held are skipped.
func (l *ledgerTx) lock(ids ...string) error {
	pending := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := l.locked[id]; !ok {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)
	for _, id := range pending {
		pocket, err := l.pockets.GetForUpdate(l.ctx, l.tx, id)
		if err != nil {
			return translateDBError(err, "pocket")
		}
		l.locked[id] = pocket
	}
	return nil
}

// track registers a pocket created inside this transaction, which the
// transaction already holds exclusively.
func (l *ledgerTx) track(pocket store.Pocket) {
	l.locked[pocket.ID] = pocket
}

func (l *ledgerTx) pocket(id string) store.Pocket {
	return l.locked[id]
}

func (l *ledgerTx) credit(id string, amount int64) error {
	current, err := l.held(id)
	if err != nil {
		return err
	}
	pocket, err := Credit(current, amount)
	if err != nil {
		return err
	}
	l.set(pocket)
	return nil
}

func (l *ledgerTx) debit(id string, amount int64) error {
	current, err := l.held(id)
	if err != nil {
		return err
	}
	pocket, err := Debit(current, amount)
	if err != nil {
		if KindOf(err) == KindInsufficientFunds {
			metrics.RejectedDebit()
		}
		return err
	}
	l.set(pocket)
	return nil
}

// adjust credits a positive delta and debits a negative one.
func (l *ledgerTx) adjust(id string, delta int64) error {
	switch {
	case delta > 0:
		return l.credit(id, delta)
	case delta < 0:
		return l.debit(id, -delta)
	}
	return nil
}

func (l *ledgerTx) held(id string) (store.Pocket, error) {
	pocket, ok := l.locked[id]
	if !ok {
		return store.Pocket{}, fmt.Errorf("pocket %s used before lock", id)
	}
	return pocket, nil
}

func (l *ledgerTx) set(pocket store.Pocket) {
	l.locked[pocket.ID] = pocket
	l.dirty[pocket.ID] = true
}

// flush writes changed balances in id order.
func (l *ledgerTx) flush() error {
	for _, id := range l.changedIDs() {
		if err := l.pockets.UpdateBalance(l.ctx, l.tx, id, l.locked[id].Balance); err != nil {
			return translateDBError(err, "pocket")
		}
	}
	return nil
}

func (l *ledgerTx) changedIDs() []string {
	ids := make([]string, 0, len(l.dirty))
	for id := range l.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// changed returns the post-flush snapshots of every modified pocket.
func (l *ledgerTx) changed() []store.Pocket {
	ids := l.changedIDs()
	pockets := make([]store.Pocket, 0, len(ids))
	for _, id := range ids {
		pockets = append(pockets, l.locked[id])
	}
	return pockets
}

func broadcastPockets(hub BalanceHub, pockets []store.Pocket) {
	for _, pocket := range pockets {
		update := websocket.BalanceUpdate{
			PocketID: pocket.ID,
			Name:     pocket.Name,
			Balance:  money.FormatMinor(pocket.Balance),
			GroupID:  pocket.GroupID,
		}
		switch {
		case pocket.GroupID != nil:
			hub.BroadcastBalance(websocket.GroupTopic(*pocket.GroupID), update)
		case pocket.UserID != nil:
			hub.BroadcastBalance(websocket.UserTopic(*pocket.UserID), update)
		}
	}
}

// movementPair builds the expense row for from and the income row for to,
// tagged with the pockets' shared owner.
func movementPair(from, to store.Pocket, amount int64, actorID, outDescription, inDescription string) []store.Movement {
	now := time.Now().UTC()
	owner := pocketOwner(from)
	return []store.Movement{
		{
			ID:          uuid.NewString(),
			Kind:        store.KindExpense,
			Amount:      amount,
			OccurredAt:  now,
			Description: outDescription,
			PocketID:    stringPtr(from.ID),
			UserID:      owner.UserID,
			GroupID:     owner.GroupID,
			CreatedBy:   stringPtr(actorID),
		},
		{
			ID:          uuid.NewString(),
			Kind:        store.KindIncome,
			Amount:      amount,
			OccurredAt:  now,
			Description: inDescription,
			PocketID:    stringPtr(to.ID),
			UserID:      owner.UserID,
			GroupID:     owner.GroupID,
			CreatedBy:   stringPtr(actorID),
		},
	}
}

func pocketOwner(p store.Pocket) Owner {
	return Owner{UserID: p.UserID, GroupID: p.GroupID}
}

func auditData(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// observe records the outcome of operation and passes err through.
func observe(operation string, err error) error {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.Observe(operation, outcome)
	return err
}

func stringPtr(value string) *string {
	return &value
}
