package services

import (
	"context"
	"errors"
	"testing"

	"pockets/internal/store"
)

func newGroupServiceForTest(groups *stubGroupStore, memberships *fakeMembershipStore, users stubUserStore, pockets *fakePocketStore, audit *stubAuditStore) *GroupService {
	return NewGroupService(fakeTxRunner{}, groups, memberships, users, pockets, audit, &stubSubscriptionHub{})
}

func TestCreateGroupCreatesAdminAndGeneralPocket(t *testing.T) {
	groups := newStubGroupStore()
	memberships := newFakeMembershipStore()
	pockets := newFakePocketStore()
	audit := &stubAuditStore{}
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, pockets, audit)

	group, general, err := service.CreateGroup(context.Background(), CreateGroupRequest{ActorID: "user-1", Name: " Trip "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.Name != "Trip" || group.CreatedBy == nil || *group.CreatedBy != "user-1" {
		t.Fatalf("unexpected group: %#v", group)
	}
	if len(memberships.created) != 1 || memberships.created[0].Role != store.RoleAdmin || memberships.created[0].UserID != "user-1" {
		t.Fatalf("unexpected memberships: %#v", memberships.created)
	}
	stored, err := pockets.GetGeneral(context.Background(), nil, group.ID)
	if err != nil {
		t.Fatalf("expected General pocket: %v", err)
	}
	if stored.ID != general.ID || stored.Balance != 0 || stored.UserID != nil {
		t.Fatalf("unexpected General pocket: %#v", stored)
	}
	if len(audit.actions) != 1 || audit.actions[0] != "create_group" {
		t.Fatalf("unexpected audit: %#v", audit.actions)
	}
}

func TestCreateGroupRejectsBlankName(t *testing.T) {
	service := newGroupServiceForTest(newStubGroupStore(), newFakeMembershipStore(), stubUserStore{}, newFakePocketStore(), &stubAuditStore{})
	_, _, err := service.CreateGroup(context.Background(), CreateGroupRequest{ActorID: "user-1", Name: "  "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChangeRoleSoleAdminIsProtected(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g", Name: "Trip", CreatedBy: stringPtr("creator")})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "creator", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, newFakePocketStore(), &stubAuditStore{})

	err := service.ChangeRole(context.Background(), ChangeRoleRequest{ActorID: "creator", GroupID: "g", TargetUserID: "creator", Role: store.RoleMember})
	if !errors.Is(err, ErrLastAdminProtected) {
		t.Fatalf("expected ErrLastAdminProtected, got %v", err)
	}
	if memberships.roles["g|creator"] != store.RoleAdmin {
		t.Fatalf("role must stay admin")
	}
}

func TestChangeRoleCreatorIsProtected(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g", CreatedBy: stringPtr("creator")})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "creator", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "other-admin", Role: store.RoleAdmin},
	)
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, newFakePocketStore(), &stubAuditStore{})

	err := service.ChangeRole(context.Background(), ChangeRoleRequest{ActorID: "other-admin", GroupID: "g", TargetUserID: "creator", Role: store.RoleMember})
	if !errors.Is(err, ErrCreatorProtected) {
		t.Fatalf("expected ErrCreatorProtected, got %v", err)
	}
}

func TestChangeRoleRequiresAdmin(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g"})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "admin", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, newFakePocketStore(), &stubAuditStore{})

	err := service.ChangeRole(context.Background(), ChangeRoleRequest{ActorID: "member", GroupID: "g", TargetUserID: "member", Role: store.RoleAdmin})
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestChangeRolePromotesAndDemotes(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g", CreatedBy: stringPtr("admin")})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "admin", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	audit := &stubAuditStore{}
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, newFakePocketStore(), audit)
	ctx := context.Background()

	if err := service.ChangeRole(ctx, ChangeRoleRequest{ActorID: "admin", GroupID: "g", TargetUserID: "member", Role: "ADMIN"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memberships.roles["g|member"] != store.RoleAdmin {
		t.Fatalf("expected promotion")
	}
	if err := service.ChangeRole(ctx, ChangeRoleRequest{ActorID: "admin", GroupID: "g", TargetUserID: "member", Role: store.RoleMember}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memberships.roles["g|member"] != store.RoleMember {
		t.Fatalf("expected demotion")
	}
	if len(audit.actions) != 2 {
		t.Fatalf("expected two audit entries, got %#v", audit.actions)
	}
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	service := newGroupServiceForTest(newStubGroupStore(), newFakeMembershipStore(), stubUserStore{}, newFakePocketStore(), &stubAuditStore{})
	err := service.ChangeRole(context.Background(), ChangeRoleRequest{ActorID: "a", GroupID: "g", TargetUserID: "b", Role: "owner"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddMember(t *testing.T) {
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "admin", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	users := stubUserStore{
		getByEmailFn: func(_ context.Context, email string) (store.User, error) {
			switch email {
			case "new@example.com":
				return store.User{ID: "new"}, nil
			case "member@example.com":
				return store.User{ID: "member"}, nil
			}
			return stubUserStore{}.GetByEmail(context.Background(), email)
		},
	}
	service := newGroupServiceForTest(newStubGroupStore(store.Group{ID: "g"}), memberships, users, newFakePocketStore(), &stubAuditStore{})
	ctx := context.Background()

	membership, err := service.AddMember(ctx, AddMemberRequest{ActorID: "admin", GroupID: "g", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if membership.Role != store.RoleMember || membership.UserID != "new" {
		t.Fatalf("unexpected membership: %#v", membership)
	}
	if _, err := service.AddMember(ctx, AddMemberRequest{ActorID: "admin", GroupID: "g", Email: "member@example.com"}); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if _, err := service.AddMember(ctx, AddMemberRequest{ActorID: "admin", GroupID: "g", Email: "ghost@example.com"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.AddMember(ctx, AddMemberRequest{ActorID: "member", GroupID: "g", Email: "new@example.com"}); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g", CreatedBy: stringPtr("creator")})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "creator", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "admin", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, newFakePocketStore(), &stubAuditStore{})
	ctx := context.Background()

	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "admin", GroupID: "g", TargetUserID: "creator"}); !errors.Is(err, ErrCreatorProtected) {
		t.Fatalf("expected ErrCreatorProtected, got %v", err)
	}
	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "member", GroupID: "g", TargetUserID: "admin"}); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "member", GroupID: "g", TargetUserID: "member"}); err != nil {
		t.Fatalf("member should be able to leave: %v", err)
	}
	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "creator", GroupID: "g", TargetUserID: "admin"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "creator", GroupID: "g", TargetUserID: "creator"}); !errors.Is(err, ErrLastAdminProtected) {
		t.Fatalf("expected ErrLastAdminProtected, got %v", err)
	}
	if len(memberships.deleted) != 2 {
		t.Fatalf("unexpected deletions: %#v", memberships.deleted)
	}
}

func TestDeleteGroupRequiresAdmin(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g"})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "admin", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	service := newGroupServiceForTest(groups, memberships, stubUserStore{}, newFakePocketStore(), &stubAuditStore{})
	ctx := context.Background()

	if err := service.DeleteGroup(ctx, "member", "g"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := service.DeleteGroup(ctx, "admin", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := service.DeleteGroup(ctx, "admin", "g"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups.deleted) != 1 {
		t.Fatalf("expected group deletion")
	}
}

func TestGetGroupRequiresMembership(t *testing.T) {
	service := newGroupServiceForTest(newStubGroupStore(store.Group{ID: "g"}), newFakeMembershipStore(), stubUserStore{}, newFakePocketStore(), &stubAuditStore{})
	if _, _, err := service.GetGroup(context.Background(), "outsider", "g"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestMembershipChangesMoveLiveSubscriptions(t *testing.T) {
	groups := newStubGroupStore(store.Group{ID: "g", CreatedBy: stringPtr("admin")})
	memberships := newFakeMembershipStore(
		store.Membership{GroupID: "g", UserID: "admin", Role: store.RoleAdmin},
		store.Membership{GroupID: "g", UserID: "member", Role: store.RoleMember},
	)
	users := stubUserStore{
		getByEmailFn: func(context.Context, string) (store.User, error) {
			return store.User{ID: "new"}, nil
		},
	}
	hub := &stubSubscriptionHub{}
	service := NewGroupService(fakeTxRunner{}, groups, memberships, users, newFakePocketStore(), &stubAuditStore{}, hub)
	ctx := context.Background()

	if _, err := service.AddMember(ctx, AddMemberRequest{ActorID: "admin", GroupID: "g", Email: "new@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "admin", GroupID: "g", TargetUserID: "member"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.RemoveMember(ctx, RemoveMemberRequest{ActorID: "member", GroupID: "g", TargetUserID: "admin"}); err == nil {
		t.Fatalf("expected a failed removal")
	}
	if err := service.DeleteGroup(ctx, "admin", "g"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hub.subscribed) != 1 || hub.subscribed[0] != "new|group:g" {
		t.Fatalf("unexpected subscriptions: %#v", hub.subscribed)
	}
	if len(hub.unsubscribed) != 1 || hub.unsubscribed[0] != "member|group:g" {
		t.Fatalf("failed removals must not unsubscribe: %#v", hub.unsubscribed)
	}
	if len(hub.dropped) != 1 || hub.dropped[0] != "group:g" {
		t.Fatalf("unexpected dropped topics: %#v", hub.dropped)
	}
}
