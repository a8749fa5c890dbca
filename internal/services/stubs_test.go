package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"pockets/internal/store"
	"pockets/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// rollbacker captures a fake store's state and returns a func restoring it.
type rollbacker interface {
	snapshot() func()
}

// retryingTxRunner runs fn once, rolls every store back, then runs fn again
// the way db.WithTx does after a serialization failure.
type retryingTxRunner struct {
	stores   []rollbacker
	attempts int
}

func (r *retryingTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.snapshot())
	}
	r.attempts++
	if err := fn(nil); err != nil {
		return err
	}
	for _, restore := range restores {
		restore()
	}
	r.attempts++
	return fn(nil)
}

// fakePocketStore keeps pockets in memory and records lock order.
type fakePocketStore struct {
	mu         sync.Mutex
	pockets    map[string]store.Pocket
	lockOrder  []string
	updates    map[string]int64
	deleted    []string
	referenced map[string]bool
	deleteErr  error
}

func newFakePocketStore(pockets ...store.Pocket) *fakePocketStore {
	s := &fakePocketStore{
		pockets:    make(map[string]store.Pocket),
		updates:    make(map[string]int64),
		referenced: make(map[string]bool),
	}
	for _, p := range pockets {
		s.pockets[p.ID] = p
	}
	return s
}

func (s *fakePocketStore) balance(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pockets[id].Balance
}

func (s *fakePocketStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]store.Pocket, len(s.pockets))
	for id, p := range s.pockets {
		saved[id] = p
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pockets = saved
	}
}

func (s *fakePocketStore) total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, p := range s.pockets {
		sum += p.Balance
	}
	return sum
}

func (s *fakePocketStore) Create(_ context.Context, _ store.Execer, pocket store.Pocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pockets[pocket.ID] = pocket
	return nil
}

func (s *fakePocketStore) GetByID(_ context.Context, pocketID string) (store.Pocket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pockets[pocketID]
	if !ok {
		return store.Pocket{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *fakePocketStore) GetForUpdate(ctx context.Context, _ store.Getter, pocketID string) (store.Pocket, error) {
	s.mu.Lock()
	s.lockOrder = append(s.lockOrder, pocketID)
	s.mu.Unlock()
	return s.GetByID(ctx, pocketID)
}

func (s *fakePocketStore) GetGeneral(_ context.Context, _ store.Getter, groupID string) (store.Pocket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pockets {
		if p.GroupID != nil && *p.GroupID == groupID && p.Name == store.GeneralPocketName {
			return p, nil
		}
	}
	return store.Pocket{}, sql.ErrNoRows
}

func (s *fakePocketStore) UpdateBalance(_ context.Context, _ store.Execer, pocketID string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pockets[pocketID]
	p.Balance = balance
	s.pockets[pocketID] = p
	s.updates[pocketID] = balance
	return nil
}

func (s *fakePocketStore) UpdateDetails(_ context.Context, _ store.Execer, pocketID, name, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pockets[pocketID]
	p.Name, p.Color = name, color
	s.pockets[pocketID] = p
	return nil
}

func (s *fakePocketStore) Delete(_ context.Context, _ store.Execer, pocketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.pockets, pocketID)
	s.deleted = append(s.deleted, pocketID)
	return nil
}

func (s *fakePocketStore) IsReferenced(_ context.Context, _ store.Getter, pocketID string) (bool, error) {
	return s.referenced[pocketID], nil
}

func (s *fakePocketStore) ListByUser(_ context.Context, userID string) ([]store.Pocket, error) {
	return s.filter(func(p store.Pocket) bool { return p.UserID != nil && *p.UserID == userID }), nil
}

func (s *fakePocketStore) ListByGroup(_ context.Context, groupID string) ([]store.Pocket, error) {
	return s.filter(func(p store.Pocket) bool { return p.GroupID != nil && *p.GroupID == groupID }), nil
}

func (s *fakePocketStore) filter(keep func(store.Pocket) bool) []store.Pocket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []store.Pocket
	for _, p := range s.pockets {
		if keep(p) {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

// fakeMembershipStore keys memberships by group and user.
type fakeMembershipStore struct {
	roles   map[string]string
	created []store.Membership
	deleted []string
}

func newFakeMembershipStore(entries ...store.Membership) *fakeMembershipStore {
	s := &fakeMembershipStore{roles: make(map[string]string)}
	for _, m := range entries {
		s.roles[m.GroupID+"|"+m.UserID] = m.Role
	}
	return s
}

func (s *fakeMembershipStore) Create(_ context.Context, _ store.Execer, membership store.Membership) error {
	s.roles[membership.GroupID+"|"+membership.UserID] = membership.Role
	s.created = append(s.created, membership)
	return nil
}

func (s *fakeMembershipStore) Get(_ context.Context, _ store.Getter, groupID, userID string) (store.Membership, error) {
	role, ok := s.roles[groupID+"|"+userID]
	if !ok {
		return store.Membership{}, sql.ErrNoRows
	}
	return store.Membership{GroupID: groupID, UserID: userID, Role: role}, nil
}

func (s *fakeMembershipStore) CountAdmins(_ context.Context, _ store.Getter, groupID string) (int, error) {
	count := 0
	for key, role := range s.roles {
		if strings.HasPrefix(key, groupID+"|") && role == store.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (s *fakeMembershipStore) UpdateRole(_ context.Context, _ store.Execer, groupID, userID, role string) error {
	s.roles[groupID+"|"+userID] = role
	return nil
}

func (s *fakeMembershipStore) Delete(_ context.Context, _ store.Execer, groupID, userID string) error {
	delete(s.roles, groupID+"|"+userID)
	s.deleted = append(s.deleted, userID)
	return nil
}

func (s *fakeMembershipStore) ListMembers(context.Context, string) ([]store.Member, error) {
	return nil, nil
}

func (s *fakeMembershipStore) ListGroupIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

type stubGroupStore struct {
	groups  map[string]store.Group
	created []store.Group
	deleted []string
}

func newStubGroupStore(groups ...store.Group) *stubGroupStore {
	s := &stubGroupStore{groups: make(map[string]store.Group)}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return s
}

func (s *stubGroupStore) Create(_ context.Context, _ store.Execer, group store.Group) error {
	s.groups[group.ID] = group
	s.created = append(s.created, group)
	return nil
}

func (s *stubGroupStore) GetByID(_ context.Context, groupID string) (store.Group, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return store.Group{}, sql.ErrNoRows
	}
	return g, nil
}

func (s *stubGroupStore) GetForUpdate(ctx context.Context, _ store.Getter, groupID string) (store.Group, error) {
	return s.GetByID(ctx, groupID)
}

func (s *stubGroupStore) ListByUser(context.Context, string) ([]store.GroupSummary, error) {
	return nil, nil
}

func (s *stubGroupStore) Delete(_ context.Context, _ store.Execer, groupID string) error {
	delete(s.groups, groupID)
	s.deleted = append(s.deleted, groupID)
	return nil
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, user store.User) error
	getByEmailFn func(ctx context.Context, email string) (store.User, error)
	getByIDFn    func(ctx context.Context, userID string) (store.User, error)
	existsFn     func(ctx context.Context, email string) (bool, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user store.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{ID: userID, Email: userID + "@example.com"}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, email)
}

type stubCategoryStore struct {
	categories map[string]store.Category
	created    []store.Category
}

func newStubCategoryStore(categories ...store.Category) *stubCategoryStore {
	s := &stubCategoryStore{categories: make(map[string]store.Category)}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

func (s *stubCategoryStore) Create(_ context.Context, _ store.Execer, category store.Category) error {
	s.categories[category.ID] = category
	s.created = append(s.created, category)
	return nil
}

func (s *stubCategoryStore) GetByID(_ context.Context, _ store.Getter, categoryID string) (store.Category, error) {
	c, ok := s.categories[categoryID]
	if !ok {
		return store.Category{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *stubCategoryStore) Update(_ context.Context, _ store.Execer, category store.Category) error {
	s.categories[category.ID] = category
	return nil
}

func (s *stubCategoryStore) Delete(_ context.Context, _ store.Execer, categoryID string) error {
	delete(s.categories, categoryID)
	return nil
}

func (s *stubCategoryStore) ListByUser(context.Context, string, string) ([]store.Category, error) {
	return nil, nil
}

func (s *stubCategoryStore) ListByGroup(context.Context, string, string) ([]store.Category, error) {
	return nil, nil
}

type fakeRecordStore struct {
	kind      string
	records   map[string]store.Record
	createErr error
}

func newFakeRecordStore(kind string, records ...store.Record) *fakeRecordStore {
	s := &fakeRecordStore{kind: kind, records: make(map[string]store.Record)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeRecordStore) snapshot() func() {
	saved := make(map[string]store.Record, len(s.records))
	for id, r := range s.records {
		saved[id] = r
	}
	return func() { s.records = saved }
}

func (s *fakeRecordStore) Kind() string {
	return s.kind
}

func (s *fakeRecordStore) Create(_ context.Context, _ store.Execer, record store.Record) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.records[record.ID] = record
	return nil
}

func (s *fakeRecordStore) GetByID(_ context.Context, recordID string) (store.Record, error) {
	r, ok := s.records[recordID]
	if !ok {
		return store.Record{}, sql.ErrNoRows
	}
	return r, nil
}

func (s *fakeRecordStore) GetForUpdate(ctx context.Context, _ store.Getter, recordID string) (store.Record, error) {
	return s.GetByID(ctx, recordID)
}

func (s *fakeRecordStore) Update(_ context.Context, _ store.Execer, record store.Record) error {
	s.records[record.ID] = record
	return nil
}

func (s *fakeRecordStore) Delete(_ context.Context, _ store.Execer, recordID string) error {
	delete(s.records, recordID)
	return nil
}

func (s *fakeRecordStore) ListByUser(context.Context, string) ([]store.Record, error) {
	return nil, nil
}

func (s *fakeRecordStore) ListByGroup(context.Context, string) ([]store.Record, error) {
	return nil, nil
}

type stubTransferStore struct {
	created []store.Transfer
}

func (s *stubTransferStore) snapshot() func() {
	n := len(s.created)
	return func() { s.created = s.created[:n] }
}

func (s *stubTransferStore) Create(_ context.Context, _ store.Execer, transfer store.Transfer) error {
	s.created = append(s.created, transfer)
	return nil
}

func (s *stubTransferStore) GetByID(context.Context, string) (store.Transfer, error) {
	return store.Transfer{}, sql.ErrNoRows
}

func (s *stubTransferStore) ListForUser(context.Context, string, int, int) ([]store.Transfer, error) {
	return s.created, nil
}

type stubMovementStore struct {
	inserted []store.Movement
}

func (s *stubMovementStore) snapshot() func() {
	n := len(s.inserted)
	return func() { s.inserted = s.inserted[:n] }
}

func (s *stubMovementStore) InsertMany(_ context.Context, _ store.Execer, movements []store.Movement) error {
	s.inserted = append(s.inserted, movements...)
	return nil
}

func (s *stubMovementStore) ListByUser(context.Context, string, int, int) ([]store.Movement, error) {
	return s.inserted, nil
}

func (s *stubMovementStore) ListByGroup(context.Context, string, int, int) ([]store.Movement, error) {
	return s.inserted, nil
}

type stubContributionStore struct {
	created []store.Contribution
}

func (s *stubContributionStore) snapshot() func() {
	n := len(s.created)
	return func() { s.created = s.created[:n] }
}

func (s *stubContributionStore) Create(_ context.Context, _ store.Execer, contribution store.Contribution) error {
	s.created = append(s.created, contribution)
	return nil
}

func (s *stubContributionStore) ListByGroup(context.Context, string) ([]store.Contribution, error) {
	return s.created, nil
}

type stubAuditStore struct {
	actions []string
}

func (s *stubAuditStore) Log(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
	s.actions = append(s.actions, action)
	return nil
}

type stubHub struct {
	topics []string
	calls  []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(topic string, update websocket.BalanceUpdate) {
	s.topics = append(s.topics, topic)
	s.calls = append(s.calls, update)
}

type stubSubscriptionHub struct {
	subscribed   []string
	unsubscribed []string
	dropped      []string
}

func (s *stubSubscriptionHub) Subscribe(userID, topic string) {
	s.subscribed = append(s.subscribed, userID+"|"+topic)
}

func (s *stubSubscriptionHub) Unsubscribe(userID, topic string) {
	s.unsubscribed = append(s.unsubscribed, userID+"|"+topic)
}

func (s *stubSubscriptionHub) DropTopic(topic string) {
	s.dropped = append(s.dropped, topic)
}

func personalPocket(id, userID string, balance int64) store.Pocket {
	return store.Pocket{ID: id, UserID: stringPtr(userID), Name: id, Color: DefaultPocketColor, Balance: balance}
}

func groupPocket(id, groupID, name string, balance int64) store.Pocket {
	return store.Pocket{ID: id, GroupID: stringPtr(groupID), Name: name, Color: DefaultPocketColor, Balance: balance}
}
