package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"pockets/internal/services"
	"pockets/internal/store"
)

func TestCreateGroupReturnsGeneralPocket(t *testing.T) {
	h := newTestHandler(testServices{groups: stubGroupService{
		createGroupFn: func(_ context.Context, req services.CreateGroupRequest) (store.Group, store.Pocket, error) {
			if req.ActorID != "user-1" || req.Name != "Trip" {
				t.Fatalf("unexpected request: %#v", req)
			}
			return store.Group{ID: "g-1", Name: "Trip", CreatedBy: stringPtr("user-1")},
				store.Pocket{ID: "p-general", GroupID: stringPtr("g-1"), Name: store.GeneralPocketName}, nil
		},
	}})

	rec := serveWithAuth(t, h, http.MethodPost, "/groups", `{"name":"Trip"}`, "user-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Group struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"group"`
		GeneralPocket struct {
			ID        string `json:"id"`
			IsGeneral bool   `json:"is_general"`
			Balance   string `json:"balance"`
		} `json:"general_pocket"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Group.ID != "g-1" || body.Group.Role != store.RoleAdmin {
		t.Fatalf("unexpected group: %#v", body.Group)
	}
	if body.GeneralPocket.ID != "p-general" || !body.GeneralPocket.IsGeneral || body.GeneralPocket.Balance != "0.00" {
		t.Fatalf("unexpected general pocket: %#v", body.GeneralPocket)
	}
}

func TestChangeRoleRequiresRole(t *testing.T) {
	h := newTestHandler(testServices{})
	rec := serveWithAuth(t, h, http.MethodPut, "/groups/g-1/members/user-2", `{}`, "user-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChangeRoleLastAdmin(t *testing.T) {
	var got services.ChangeRoleRequest
	h := newTestHandler(testServices{groups: stubGroupService{
		changeRoleFn: func(_ context.Context, req services.ChangeRoleRequest) error {
			got = req
			return services.ErrLastAdminProtected
		},
	}})
	rec := serveWithAuth(t, h, http.MethodPut, "/groups/g-1/members/user-1", `{"role":"member"}`, "user-1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if got.GroupID != "g-1" || got.TargetUserID != "user-1" || got.Role != store.RoleMember {
		t.Fatalf("unexpected request: %#v", got)
	}
}

func TestRemoveMemberNotAdmin(t *testing.T) {
	h := newTestHandler(testServices{groups: stubGroupService{
		removeMemberFn: func(context.Context, services.RemoveMemberRequest) error {
			return services.ErrNotAdmin
		},
	}})
	rec := serveWithAuth(t, h, http.MethodDelete, "/groups/g-1/members/user-3", "", "user-2")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAddMemberCreated(t *testing.T) {
	h := newTestHandler(testServices{groups: stubGroupService{
		addMemberFn: func(_ context.Context, req services.AddMemberRequest) (store.Membership, error) {
			return store.Membership{GroupID: req.GroupID, UserID: "user-2", Role: req.Role}, nil
		},
	}})
	rec := serveWithAuth(t, h, http.MethodPost, "/groups/g-1/members", `{"email":"bo@example.com","role":"member"}`, "user-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}
