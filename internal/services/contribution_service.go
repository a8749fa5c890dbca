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

// ContributionService moves money from a member's personal pocket into a
// group pocket by recording a personal expense and a group income together.
type ContributionService struct {
	txRunner      db.TxRunner
	groups        GroupStore
	users         UserStore
	pockets       PocketStore
	memberships   MembershipStore
	contributions ContributionStore
	expenses      *RecordService
	incomes       *RecordService
	auditStore    AuditStore
	hub           BalanceHub
}

func NewContributionService(txRunner db.TxRunner, groups GroupStore, users UserStore, pockets PocketStore, memberships MembershipStore, contributions ContributionStore, expenses, incomes *RecordService, auditStore AuditStore, hub BalanceHub) *ContributionService {
	return &ContributionService{
		txRunner:      txRunner,
		groups:        groups,
		users:         users,
		pockets:       pockets,
		memberships:   memberships,
		contributions: contributions,
		expenses:      expenses,
		incomes:       incomes,
		auditStore:    auditStore,
		hub:           hub,
	}
}

type ContributeRequest struct {
	ActorID       string
	GroupID       string
	UserPocketID  string
	GroupPocketID string
	Amount        int64
	ContributedOn time.Time
	Description   string
}

type ContributionResult struct {
	Contribution store.Contribution
	UserPocket   store.Pocket
	GroupPocket  store.Pocket
}

func (s *ContributionService) Contribute(ctx context.Context, req ContributeRequest) (ContributionResult, error) {
	if req.Amount <= 0 {
		return ContributionResult{}, newError(KindInvalidInput, "amount must be greater than zero")
	}
	if req.UserPocketID == "" || req.GroupPocketID == "" {
		return ContributionResult{}, newError(KindInvalidInput, "user_pocket_id and group_pocket_id are required")
	}
	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return ContributionResult{}, translateDBError(err, "group")
	}
	user, err := s.users.GetByID(ctx, req.ActorID)
	if err != nil {
		return ContributionResult{}, translateDBError(err, "user")
	}
	day := dateOrToday(req.ContributedOn)
	description := strings.TrimSpace(req.Description)
	expense := store.Record{
		ID:          uuid.NewString(),
		UserID:      stringPtr(req.ActorID),
		PocketID:    stringPtr(req.UserPocketID),
		Amount:      req.Amount,
		OccurredOn:  day,
		Description: firstNonEmpty(description, "Contribution to group "+group.Name),
		CreatedBy:   stringPtr(req.ActorID),
	}
	income := store.Record{
		ID:          uuid.NewString(),
		GroupID:     stringPtr(req.GroupID),
		PocketID:    stringPtr(req.GroupPocketID),
		Amount:      req.Amount,
		OccurredOn:  day,
		Description: firstNonEmpty(description, "Contribution from "+user.Label()),
		CreatedBy:   stringPtr(req.ActorID),
	}
	contribution := store.Contribution{
		ID:            uuid.NewString(),
		UserID:        stringPtr(req.ActorID),
		GroupID:       stringPtr(req.GroupID),
		Amount:        req.Amount,
		ContributedOn: day,
		Description:   description,
		ExpenseID:     stringPtr(expense.ID),
		IncomeID:      stringPtr(income.ID),
		UserPocketID:  stringPtr(req.UserPocketID),
		GroupPocketID: stringPtr(req.GroupPocketID),
	}
	var result ContributionResult
	var changed []store.Pocket
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := requireMember(ctx, s.memberships, tx, req.GroupID, req.ActorID); err != nil {
			return err
		}
		ledger := newLedgerTx(ctx, tx, s.pockets)
		if err := ledger.lock(req.UserPocketID, req.GroupPocketID); err != nil {
			return err
		}
		userPocket, groupPocket := ledger.pocket(req.UserPocketID), ledger.pocket(req.GroupPocketID)
		if userPocket.UserID == nil || *userPocket.UserID != req.ActorID {
			return newError(KindInvalidInput, "user_pocket_id must be one of your personal pockets")
		}
		if groupPocket.GroupID == nil || *groupPocket.GroupID != req.GroupID {
			return newError(KindInvalidInput, "group_pocket_id must belong to the group")
		}
		if err := s.expenses.createInTx(ctx, tx, ledger, expense); err != nil {
			return err
		}
		if err := s.incomes.createInTx(ctx, tx, ledger, income); err != nil {
			return err
		}
		if err := s.contributions.Create(ctx, tx, contribution); err != nil {
			return translateDBError(err, "contribution")
		}
		if err := ledger.flush(); err != nil {
			return err
		}
		result = ContributionResult{
			Contribution: contribution,
			UserPocket:   ledger.pocket(req.UserPocketID),
			GroupPocket:  ledger.pocket(req.GroupPocketID),
		}
		changed = ledger.changed()
		return s.auditStore.Log(ctx, tx, req.ActorID, "contribute", "contribution", contribution.ID, auditData(map[string]any{
			"group_id":   req.GroupID,
			"amount":     req.Amount,
			"expense_id": expense.ID,
			"income_id":  income.ID,
		}))
	})
	if err := observe("contribute", err); err != nil {
		return ContributionResult{}, err
	}
	slog.InfoContext(ctx, "contribution committed", "contribution_id", contribution.ID, "group_id", req.GroupID, "user_id", req.ActorID)
	broadcastPockets(s.hub, changed)
	return result, nil
}

func (s *ContributionService) ListContributions(ctx context.Context, actorID, groupID string) ([]store.Contribution, error) {
	if _, err := requireMember(ctx, s.memberships, nil, groupID, actorID); err != nil {
		return nil, err
	}
	return s.contributions.ListByGroup(ctx, groupID)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
