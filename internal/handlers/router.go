package handlers

import (
	"net/http"

	"pockets/internal/auth"
	"pockets/internal/config"
	"pockets/internal/metrics"
	"pockets/internal/middleware"
	"pockets/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg           config.Config
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
	hub           *websocket.Hub
}

func New(cfg config.Config, accounts AccountService, groups GroupService, pockets PocketService, categories CategoryService, incomes, expenses RecordService, transfers TransferService, contributions ContributionService, audit AuditStore, groupLookup GroupLookup, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:           cfg,
		accounts:      accounts,
		groups:        groups,
		pockets:       pockets,
		categories:    categories,
		incomes:       incomes,
		expenses:      expenses,
		transfers:     transfers,
		contributions: contributions,
		audit:         audit,
		groupLookup:   groupLookup,
		hub:           hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/check-email", h.CheckEmail)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/{groupID}", h.GetGroup)
			r.Delete("/{groupID}", h.DeleteGroup)
			r.Get("/{groupID}/general", h.GetGeneralPocket)
			r.Get("/{groupID}/members", h.ListMembers)
			r.Post("/{groupID}/members", h.AddMember)
			r.Put("/{groupID}/members/{userID}", h.ChangeRole)
			r.Delete("/{groupID}/members/{userID}", h.RemoveMember)
			r.Get("/{groupID}/contributions", h.ListContributions)
			r.Post("/{groupID}/contributions", h.Contribute)
		})

		r.Route("/pockets", func(r chi.Router) {
			r.Get("/", h.ListPockets)
			r.Post("/", h.CreatePocket)
			r.Get("/{pocketID}", h.GetPocket)
			r.Patch("/{pocketID}", h.UpdatePocket)
			r.Delete("/{pocketID}", h.DeletePocket)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{categoryID}", h.GetCategory)
			r.Patch("/{categoryID}", h.UpdateCategory)
			r.Delete("/{categoryID}", h.DeleteCategory)
		})

		r.Route("/incomes", h.recordRoutes(h.incomes))
		r.Route("/expenses", h.recordRoutes(h.expenses))

		r.Post("/transfers/move", h.Move)
		r.Get("/transfers", h.ListTransfers)
		r.Post("/transfers", h.CreateTransfer)
		r.Get("/movements", h.ListMovements)
		r.Get("/audit", h.ListAuditLog)
	})

	router.Get("/ws/balances", h.WSBalances)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

// WSBalances subscribes the caller to balance updates of their personal
// pockets and of every group they belong to. Browsers pass the token as a
// query parameter.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		middleware.RespondUnauthorized(w, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		middleware.RespondUnauthorized(w, "invalid token")
		return
	}
	groupIDs, err := h.groupLookup.ListGroupIDs(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	topics := make([]string, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		topics = append(topics, websocket.GroupTopic(groupID))
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID, topics)
}
