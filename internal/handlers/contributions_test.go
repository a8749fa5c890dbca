package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"pockets/internal/services"
	"pockets/internal/store"
)

func TestContributeUsesGroupFromPath(t *testing.T) {
	var got services.ContributeRequest
	h := newTestHandler(testServices{contributions: stubContributionService{
		contributeFn: func(_ context.Context, req services.ContributeRequest) (services.ContributionResult, error) {
			got = req
			return services.ContributionResult{
				Contribution: store.Contribution{ID: "c-1", Amount: req.Amount, UserPocketID: stringPtr(req.UserPocketID), GroupPocketID: stringPtr(req.GroupPocketID)},
				UserPocket:   store.Pocket{ID: req.UserPocketID, Balance: 7000},
				GroupPocket:  store.Pocket{ID: req.GroupPocketID, Balance: 3000},
			}, nil
		},
	}})

	rec := serveWithAuth(t, h, http.MethodPost, "/groups/g-1/contributions",
		`{"user_pocket_id":"p-1","group_pocket_id":"p-g","amount":"30","date":"2024-06-01"}`, "user-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.GroupID != "g-1" || got.ActorID != "user-1" || got.Amount != 3000 {
		t.Fatalf("unexpected request: %#v", got)
	}
	var body struct {
		Contribution struct {
			Amount string `json:"amount"`
		} `json:"contribution"`
		UserPocket struct {
			Balance string `json:"balance"`
		} `json:"user_pocket"`
		GroupPocket struct {
			Balance string `json:"balance"`
		} `json:"group_pocket"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Contribution.Amount != "30.00" || body.UserPocket.Balance != "70.00" || body.GroupPocket.Balance != "30.00" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestContributeNotMember(t *testing.T) {
	h := newTestHandler(testServices{contributions: stubContributionService{
		contributeFn: func(context.Context, services.ContributeRequest) (services.ContributionResult, error) {
			return services.ContributionResult{}, services.ErrNotMember
		},
	}})
	rec := serveWithAuth(t, h, http.MethodPost, "/groups/g-1/contributions",
		`{"user_pocket_id":"p-1","group_pocket_id":"p-g","amount":"30"}`, "user-9")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
