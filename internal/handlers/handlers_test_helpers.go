package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pockets/internal/auth"
	"pockets/internal/config"
	"pockets/internal/services"
	"pockets/internal/store"
	"pockets/internal/websocket"
)

const testSecret = "secret"

type stubAccountService struct {
	registerFn     func(ctx context.Context, req services.RegisterRequest) (store.User, error)
	authenticateFn func(ctx context.Context, email, password string) (store.User, error)
	profileFn      func(ctx context.Context, userID string) (store.User, error)
	emailExistsFn  func(ctx context.Context, email string) (bool, error)
}

func (s stubAccountService) Register(ctx context.Context, req services.RegisterRequest) (store.User, error) {
	if s.registerFn == nil {
		return store.User{}, nil
	}
	return s.registerFn(ctx, req)
}

func (s stubAccountService) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	if s.authenticateFn == nil {
		return store.User{}, nil
	}
	return s.authenticateFn(ctx, email, password)
}

func (s stubAccountService) Profile(ctx context.Context, userID string) (store.User, error) {
	if s.profileFn == nil {
		return store.User{ID: userID}, nil
	}
	return s.profileFn(ctx, userID)
}

func (s stubAccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	if s.emailExistsFn == nil {
		return false, nil
	}
	return s.emailExistsFn(ctx, email)
}

type stubGroupService struct {
	createGroupFn  func(ctx context.Context, req services.CreateGroupRequest) (store.Group, store.Pocket, error)
	listGroupsFn   func(ctx context.Context, actorID string) ([]store.GroupSummary, error)
	getGroupFn     func(ctx context.Context, actorID, groupID string) (store.Group, string, error)
	deleteGroupFn  func(ctx context.Context, actorID, groupID string) error
	listMembersFn  func(ctx context.Context, actorID, groupID string) ([]store.Member, error)
	addMemberFn    func(ctx context.Context, req services.AddMemberRequest) (store.Membership, error)
	changeRoleFn   func(ctx context.Context, req services.ChangeRoleRequest) error
	removeMemberFn func(ctx context.Context, req services.RemoveMemberRequest) error
}

func (s stubGroupService) CreateGroup(ctx context.Context, req services.CreateGroupRequest) (store.Group, store.Pocket, error) {
	if s.createGroupFn == nil {
		return store.Group{}, store.Pocket{}, nil
	}
	return s.createGroupFn(ctx, req)
}

func (s stubGroupService) ListGroups(ctx context.Context, actorID string) ([]store.GroupSummary, error) {
	if s.listGroupsFn == nil {
		return nil, nil
	}
	return s.listGroupsFn(ctx, actorID)
}

func (s stubGroupService) GetGroup(ctx context.Context, actorID, groupID string) (store.Group, string, error) {
	if s.getGroupFn == nil {
		return store.Group{ID: groupID}, store.RoleMember, nil
	}
	return s.getGroupFn(ctx, actorID, groupID)
}

func (s stubGroupService) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	if s.deleteGroupFn == nil {
		return nil
	}
	return s.deleteGroupFn(ctx, actorID, groupID)
}

func (s stubGroupService) ListMembers(ctx context.Context, actorID, groupID string) ([]store.Member, error) {
	if s.listMembersFn == nil {
		return nil, nil
	}
	return s.listMembersFn(ctx, actorID, groupID)
}

func (s stubGroupService) AddMember(ctx context.Context, req services.AddMemberRequest) (store.Membership, error) {
	if s.addMemberFn == nil {
		return store.Membership{}, nil
	}
	return s.addMemberFn(ctx, req)
}

func (s stubGroupService) ChangeRole(ctx context.Context, req services.ChangeRoleRequest) error {
	if s.changeRoleFn == nil {
		return nil
	}
	return s.changeRoleFn(ctx, req)
}

func (s stubGroupService) RemoveMember(ctx context.Context, req services.RemoveMemberRequest) error {
	if s.removeMemberFn == nil {
		return nil
	}
	return s.removeMemberFn(ctx, req)
}

type stubPocketService struct {
	createFn     func(ctx context.Context, req services.CreatePocketRequest) (store.Pocket, error)
	getFn        func(ctx context.Context, actorID, pocketID string) (store.Pocket, error)
	listFn       func(ctx context.Context, actorID, groupID string) ([]store.Pocket, error)
	getGeneralFn func(ctx context.Context, actorID, groupID string) (store.Pocket, error)
	updateFn     func(ctx context.Context, req services.UpdatePocketRequest) (store.Pocket, error)
	deleteFn     func(ctx context.Context, actorID, pocketID string) error
}

func (s stubPocketService) CreatePocket(ctx context.Context, req services.CreatePocketRequest) (store.Pocket, error) {
	if s.createFn == nil {
		return store.Pocket{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubPocketService) GetPocket(ctx context.Context, actorID, pocketID string) (store.Pocket, error) {
	if s.getFn == nil {
		return store.Pocket{ID: pocketID}, nil
	}
	return s.getFn(ctx, actorID, pocketID)
}

func (s stubPocketService) ListPockets(ctx context.Context, actorID, groupID string) ([]store.Pocket, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, actorID, groupID)
}

func (s stubPocketService) GetGeneralPocket(ctx context.Context, actorID, groupID string) (store.Pocket, error) {
	if s.getGeneralFn == nil {
		return store.Pocket{}, nil
	}
	return s.getGeneralFn(ctx, actorID, groupID)
}

func (s stubPocketService) UpdatePocket(ctx context.Context, req services.UpdatePocketRequest) (store.Pocket, error) {
	if s.updateFn == nil {
		return store.Pocket{}, nil
	}
	return s.updateFn(ctx, req)
}

func (s stubPocketService) DeletePocket(ctx context.Context, actorID, pocketID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, actorID, pocketID)
}

type stubCategoryService struct {
	createFn func(ctx context.Context, req services.CategoryRequest) (store.Category, error)
	listFn   func(ctx context.Context, actorID, groupID, kind string) ([]store.Category, error)
}

func (s stubCategoryService) CreateCategory(ctx context.Context, req services.CategoryRequest) (store.Category, error) {
	if s.createFn == nil {
		return store.Category{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubCategoryService) GetCategory(_ context.Context, _, categoryID string) (store.Category, error) {
	return store.Category{ID: categoryID}, nil
}

func (s stubCategoryService) ListCategories(ctx context.Context, actorID, groupID, kind string) ([]store.Category, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, actorID, groupID, kind)
}

func (s stubCategoryService) UpdateCategory(context.Context, services.UpdateCategoryRequest) (store.Category, error) {
	return store.Category{}, nil
}

func (s stubCategoryService) DeleteCategory(context.Context, string, string) error {
	return nil
}

type stubRecordService struct {
	kind     string
	createFn func(ctx context.Context, req services.RecordRequest) (store.Record, error)
	listFn   func(ctx context.Context, actorID, groupID string) ([]store.Record, error)
	updateFn func(ctx context.Context, req services.UpdateRecordRequest) (store.Record, error)
	deleteFn func(ctx context.Context, actorID, recordID string) error
}

func (s stubRecordService) Kind() string {
	return s.kind
}

func (s stubRecordService) Create(ctx context.Context, req services.RecordRequest) (store.Record, error) {
	if s.createFn == nil {
		return store.Record{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubRecordService) Get(_ context.Context, _, recordID string) (store.Record, error) {
	return store.Record{ID: recordID}, nil
}

func (s stubRecordService) List(ctx context.Context, actorID, groupID string) ([]store.Record, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, actorID, groupID)
}

func (s stubRecordService) Update(ctx context.Context, req services.UpdateRecordRequest) (store.Record, error) {
	if s.updateFn == nil {
		return store.Record{}, nil
	}
	return s.updateFn(ctx, req)
}

func (s stubRecordService) Delete(ctx context.Context, actorID, recordID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, actorID, recordID)
}

type stubTransferService struct {
	moveFn           func(ctx context.Context, req services.MoveRequest) (services.MoveResult, error)
	createTransferFn func(ctx context.Context, req services.TransferRequest) (store.Transfer, error)
	listTransfersFn  func(ctx context.Context, actorID string, limit, offset int) ([]store.Transfer, error)
	listMovementsFn  func(ctx context.Context, actorID, groupID string, limit, offset int) ([]store.Movement, error)
}

func (s stubTransferService) Move(ctx context.Context, req services.MoveRequest) (services.MoveResult, error) {
	if s.moveFn == nil {
		return services.MoveResult{}, nil
	}
	return s.moveFn(ctx, req)
}

func (s stubTransferService) CreateTransfer(ctx context.Context, req services.TransferRequest) (store.Transfer, error) {
	if s.createTransferFn == nil {
		return store.Transfer{}, nil
	}
	return s.createTransferFn(ctx, req)
}

func (s stubTransferService) ListTransfers(ctx context.Context, actorID string, limit, offset int) ([]store.Transfer, error) {
	if s.listTransfersFn == nil {
		return nil, nil
	}
	return s.listTransfersFn(ctx, actorID, limit, offset)
}

func (s stubTransferService) ListMovements(ctx context.Context, actorID, groupID string, limit, offset int) ([]store.Movement, error) {
	if s.listMovementsFn == nil {
		return nil, nil
	}
	return s.listMovementsFn(ctx, actorID, groupID, limit, offset)
}

type stubContributionService struct {
	contributeFn func(ctx context.Context, req services.ContributeRequest) (services.ContributionResult, error)
	listFn       func(ctx context.Context, actorID, groupID string) ([]store.Contribution, error)
}

func (s stubContributionService) Contribute(ctx context.Context, req services.ContributeRequest) (services.ContributionResult, error) {
	if s.contributeFn == nil {
		return services.ContributionResult{}, nil
	}
	return s.contributeFn(ctx, req)
}

func (s stubContributionService) ListContributions(ctx context.Context, actorID, groupID string) ([]store.Contribution, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, actorID, groupID)
}

type stubAuditStore struct {
	listByActorFn func(ctx context.Context, actorID string, limit, offset int) ([]store.AuditEntry, error)
}

func (s stubAuditStore) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]store.AuditEntry, error) {
	if s.listByActorFn == nil {
		return nil, nil
	}
	return s.listByActorFn(ctx, actorID, limit, offset)
}

type stubGroupLookup struct {
	groupIDs []string
	err      error
}

func (s stubGroupLookup) ListGroupIDs(context.Context, string) ([]string, error) {
	return s.groupIDs, s.err
}

// testServices collects the collaborators of a test Handler. Unset fields
// fall back to stubs that return zero values.
type testServices struct {
	accounts      AccountService
	groups        GroupService
	pockets       PocketService
	categories    CategoryService
	incomes       RecordService
	expenses      RecordService
	transfers     TransferService
	contributions ContributionService
	audit         AuditStore
	groupLookup   GroupLookup
}

func newTestHandler(deps testServices) *Handler {
	if deps.accounts == nil {
		deps.accounts = stubAccountService{}
	}
	if deps.groups == nil {
		deps.groups = stubGroupService{}
	}
	if deps.pockets == nil {
		deps.pockets = stubPocketService{}
	}
	if deps.categories == nil {
		deps.categories = stubCategoryService{}
	}
	if deps.incomes == nil {
		deps.incomes = stubRecordService{kind: store.KindIncome}
	}
	if deps.expenses == nil {
		deps.expenses = stubRecordService{kind: store.KindExpense}
	}
	if deps.transfers == nil {
		deps.transfers = stubTransferService{}
	}
	if deps.contributions == nil {
		deps.contributions = stubContributionService{}
	}
	if deps.audit == nil {
		deps.audit = stubAuditStore{}
	}
	if deps.groupLookup == nil {
		deps.groupLookup = stubGroupLookup{}
	}
	cfg := config.Config{
		AppEnv:         "test",
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
		AllowedOrigins: "*",
	}
	return New(cfg, deps.accounts, deps.groups, deps.pockets, deps.categories, deps.incomes, deps.expenses,
		deps.transfers, deps.contributions, deps.audit, deps.groupLookup, websocket.NewHub())
}

// serveWithAuth routes a request through the full router with a bearer
// token for userID. An empty userID sends no token.
func serveWithAuth(t *testing.T, h *Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		token, err := auth.GenerateToken(testSecret, userID, time.Hour)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func stringPtr(value string) *string {
	return &value
}
