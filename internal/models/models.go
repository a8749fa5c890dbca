package models

import (
	"time"

	"pockets/internal/money"
	"pockets/internal/store"
)

const dateLayout = "2006-01-02"

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	DisplayName       string    `json:"display_name"`
	PreferredCurrency string    `json:"preferred_currency"`
	CreatedAt         time.Time `json:"created_at"`
}

func FromUser(u store.User) User {
	return User{
		ID:                u.ID,
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		PreferredCurrency: u.PreferredCurrency,
		CreatedAt:         u.CreatedAt,
	}
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Role        string    `json:"role,omitempty"`
	MemberCount int       `json:"member_count,omitempty"`
}

func FromGroup(g store.Group, role string) Group {
	return Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
		Role:        role,
	}
}

func FromGroupSummaries(rows []store.GroupSummary) []Group {
	groups := make([]Group, 0, len(rows))
	for _, row := range rows {
		group := FromGroup(row.Group, row.Role)
		group.MemberCount = row.MemberCount
		groups = append(groups, group)
	}
	return groups
}

type Membership struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func FromMembership(m store.Membership) Membership {
	return Membership{GroupID: m.GroupID, UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
}

type Member struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IsCreator   bool      `json:"is_creator"`
	JoinedAt    time.Time `json:"joined_at"`
}

func FromMembers(rows []store.Member) []Member {
	members := make([]Member, 0, len(rows))
	for _, m := range rows {
		members = append(members, Member{
			UserID:      m.UserID,
			Email:       m.Email,
			DisplayName: m.DisplayName,
			Role:        m.Role,
			IsCreator:   m.IsCreator,
			JoinedAt:    m.JoinedAt,
		})
	}
	return members
}

// Pocket carries the balance as a decimal string with two fraction digits.
type Pocket struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id"`
	GroupID   *string   `json:"group_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Balance   string    `json:"balance"`
	IsGeneral bool      `json:"is_general"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromPocket(p store.Pocket) Pocket {
	return Pocket{
		ID:        p.ID,
		UserID:    p.UserID,
		GroupID:   p.GroupID,
		Name:      p.Name,
		Color:     p.Color,
		Balance:   money.FormatMinor(p.Balance),
		IsGeneral: p.IsGeneral(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromPockets(rows []store.Pocket) []Pocket {
	pockets := make([]Pocket, 0, len(rows))
	for _, p := range rows {
		pockets = append(pockets, FromPocket(p))
	}
	return pockets
}

type Category struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id"`
	GroupID   *string   `json:"group_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func FromCategory(c store.Category) Category {
	return Category{
		ID:        c.ID,
		UserID:    c.UserID,
		GroupID:   c.GroupID,
		Name:      c.Name,
		Color:     c.Color,
		Kind:      c.Kind,
		CreatedAt: c.CreatedAt,
	}
}

func FromCategories(rows []store.Category) []Category {
	categories := make([]Category, 0, len(rows))
	for _, c := range rows {
		categories = append(categories, FromCategory(c))
	}
	return categories
}

// Record is an income or an expense.
type Record struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"`
	GroupID     *string   `json:"group_id"`
	CategoryID  *string   `json:"category_id"`
	PocketID    *string   `json:"pocket_id"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromRecord(r store.Record) Record {
	return Record{
		ID:          r.ID,
		UserID:      r.UserID,
		GroupID:     r.GroupID,
		CategoryID:  r.CategoryID,
		PocketID:    r.PocketID,
		Amount:      money.FormatMinor(r.Amount),
		Date:        r.OccurredOn.Format(dateLayout),
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func FromRecords(rows []store.Record) []Record {
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, FromRecord(r))
	}
	return records
}

type Transfer struct {
	ID           string    `json:"id"`
	FromPocketID string    `json:"from_pocket_id"`
	ToPocketID   string    `json:"to_pocket_id"`
	AmountFrom   string    `json:"amount_from"`
	AmountTo     string    `json:"amount_to"`
	Description  string    `json:"description"`
	CreatedBy    *string   `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromTransfer(t store.Transfer) Transfer {
	return Transfer{
		ID:           t.ID,
		FromPocketID: t.FromPocketID,
		ToPocketID:   t.ToPocketID,
		AmountFrom:   money.FormatMinor(t.AmountFrom),
		AmountTo:     money.FormatMinor(t.AmountTo),
		Description:  t.Description,
		CreatedBy:    t.CreatedBy,
		CreatedAt:    t.CreatedAt,
	}
}

func FromTransfers(rows []store.Transfer) []Transfer {
	transfers := make([]Transfer, 0, len(rows))
	for _, t := range rows {
		transfers = append(transfers, FromTransfer(t))
	}
	return transfers
}

type Movement struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Amount      string    `json:"amount"`
	OccurredAt  time.Time `json:"occurred_at"`
	Description string    `json:"description"`
	PocketID    *string   `json:"pocket_id"`
	UserID      *string   `json:"user_id"`
	GroupID     *string   `json:"group_id"`
	CategoryID  *string   `json:"category_id"`
	CreatedBy   *string   `json:"created_by"`
}

func FromMovements(rows []store.Movement) []Movement {
	movements := make([]Movement, 0, len(rows))
	for _, m := range rows {
		movements = append(movements, Movement{
			ID:          m.ID,
			Kind:        m.Kind,
			Amount:      money.FormatMinor(m.Amount),
			OccurredAt:  m.OccurredAt,
			Description: m.Description,
			PocketID:    m.PocketID,
			UserID:      m.UserID,
			GroupID:     m.GroupID,
			CategoryID:  m.CategoryID,
			CreatedBy:   m.CreatedBy,
		})
	}
	return movements
}

type Contribution struct {
	ID            string  `json:"id"`
	UserID        *string `json:"user_id"`
	GroupID       *string `json:"group_id"`
	Amount        string  `json:"amount"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	ExpenseID     *string `json:"expense_id"`
	IncomeID      *string `json:"income_id"`
	UserPocketID  *string `json:"user_pocket_id"`
	GroupPocketID *string `json:"group_pocket_id"`
}

func FromContribution(c store.Contribution) Contribution {
	return Contribution{
		ID:            c.ID,
		UserID:        c.UserID,
		GroupID:       c.GroupID,
		Amount:        money.FormatMinor(c.Amount),
		Date:          c.ContributedOn.Format(dateLayout),
		Description:   c.Description,
		ExpenseID:     c.ExpenseID,
		IncomeID:      c.IncomeID,
		UserPocketID:  c.UserPocketID,
		GroupPocketID: c.GroupPocketID,
	}
}

func FromContributions(rows []store.Contribution) []Contribution {
	contributions := make([]Contribution, 0, len(rows))
	for _, c := range rows {
		contributions = append(contributions, FromContribution(c))
	}
	return contributions
}

type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Data       string    `json:"data"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromAuditEntries(rows []store.AuditEntry) []AuditEntry {
	entries := make([]AuditEntry, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, AuditEntry{
			ID:         e.ID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Data:       e.Data,
			CreatedAt:  e.CreatedAt,
		})
	}
	return entries
}
