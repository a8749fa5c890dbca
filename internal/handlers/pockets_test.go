package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"pockets/internal/models"
	"pockets/internal/services"
	"pockets/internal/store"
)

func TestCreatePocketDefaultsToPersonalOwner(t *testing.T) {
	var got services.CreatePocketRequest
	h := newTestHandler(testServices{pockets: stubPocketService{
		createFn: func(_ context.Context, req services.CreatePocketRequest) (store.Pocket, error) {
			got = req
			return store.Pocket{ID: "p-1", UserID: req.Owner.UserID, Name: req.Name, Balance: req.Balance}, nil
		},
	}})

	rec := serveWithAuth(t, h, http.MethodPost, "/pockets", `{"name":"Cash","color":"#ffffff","balance":"100.50"}`, "user-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.ActorID != "user-1" || got.Owner.UserID == nil || *got.Owner.UserID != "user-1" || got.Owner.GroupID != nil {
		t.Fatalf("unexpected owner: %#v", got.Owner)
	}
	if got.Balance != 10050 {
		t.Fatalf("expected 10050 minor units, got %d", got.Balance)
	}
	var pocket models.Pocket
	if err := json.NewDecoder(rec.Body).Decode(&pocket); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pocket.Balance != "100.50" {
		t.Fatalf("expected balance 100.50, got %s", pocket.Balance)
	}
}

func TestCreatePocketPassesBothOwnersThrough(t *testing.T) {
	var got services.Owner
	h := newTestHandler(testServices{pockets: stubPocketService{
		createFn: func(_ context.Context, req services.CreatePocketRequest) (store.Pocket, error) {
			got = req.Owner
			return store.Pocket{}, services.ErrAmbiguousOwner
		},
	}})

	rec := serveWithAuth(t, h, http.MethodPost, "/pockets", `{"name":"Cash","user_id":"user-1","group_id":"g-1"}`, "user-1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if got.UserID == nil || got.GroupID == nil {
		t.Fatalf("expected both owners forwarded, got %#v", got)
	}
}

func TestCreatePocketRejectsNegativeBalance(t *testing.T) {
	called := false
	h := newTestHandler(testServices{pockets: stubPocketService{
		createFn: func(context.Context, services.CreatePocketRequest) (store.Pocket, error) {
			called = true
			return store.Pocket{}, nil
		},
	}})
	for _, body := range []string{`{"name":"Cash","balance":"-1"}`, `{"name":"Cash","balance":"abc"}`, `{"name":"Cash","balance":"1.234"}`} {
		rec := serveWithAuth(t, h, http.MethodPost, "/pockets", body, "user-1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
	if called {
		t.Fatalf("service should not be called for invalid balances")
	}
}

func TestUpdateGeneralPocketForbidden(t *testing.T) {
	var got services.UpdatePocketRequest
	h := newTestHandler(testServices{pockets: stubPocketService{
		updateFn: func(_ context.Context, req services.UpdatePocketRequest) (store.Pocket, error) {
			got = req
			return store.Pocket{}, &services.Error{Kind: services.KindForbiddenDirectEdit, Message: "General pocket balance"}
		},
	}})

	rec := serveWithAuth(t, h, http.MethodPatch, "/pockets/p-general", `{"balance":"5.00"}`, "user-1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if got.PocketID != "p-general" || got.Balance == nil || *got.Balance != 500 || got.Name != nil {
		t.Fatalf("unexpected update request: %#v", got)
	}
}

func TestListPocketsForwardsGroup(t *testing.T) {
	var gotGroup string
	h := newTestHandler(testServices{pockets: stubPocketService{
		listFn: func(_ context.Context, _ string, groupID string) ([]store.Pocket, error) {
			gotGroup = groupID
			return []store.Pocket{{ID: "p-1", GroupID: stringPtr("g-1"), Name: "General", Balance: 700}}, nil
		},
	}})

	rec := serveWithAuth(t, h, http.MethodGet, "/pockets?group_id=g-1", "", "user-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pockets []models.Pocket
	if err := json.NewDecoder(rec.Body).Decode(&pockets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotGroup != "g-1" || len(pockets) != 1 || !pockets[0].IsGeneral || pockets[0].Balance != "7.00" {
		t.Fatalf("unexpected response: group=%s pockets=%#v", gotGroup, pockets)
	}
}

func TestDeletePocketRestricted(t *testing.T) {
	h := newTestHandler(testServices{pockets: stubPocketService{
		deleteFn: func(context.Context, string, string) error {
			return services.ErrRestrictedDeletion
		},
	}})
	rec := serveWithAuth(t, h, http.MethodDelete, "/pockets/p-1", "", "user-1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
