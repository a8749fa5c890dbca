package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pockets/internal/config"
	"pockets/internal/db"
	"pockets/internal/handlers"
	"pockets/internal/logging"
	"pockets/internal/services"
	"pockets/internal/store"
	"pockets/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL, db.Up); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		slog.Info("database schema is current")
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	groups := store.NewGroupStore(database)
	memberships := store.NewMembershipStore(database)
	pockets := store.NewPocketStore(database)
	categories := store.NewCategoryStore(database)
	movements := store.NewMovementStore(database)
	transfers := store.NewTransferStore(database)
	contributions := store.NewContributionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	incomeService := services.NewRecordService(txRunner, store.NewIncomeStore(database), pockets, categories, memberships, audit, hub)
	expenseService := services.NewRecordService(txRunner, store.NewExpenseStore(database), pockets, categories, memberships, audit, hub)

	handler := handlers.New(
		cfg,
		services.NewAccountService(txRunner, users, audit, cfg.VerifyEmailHost),
		services.NewGroupService(txRunner, groups, memberships, users, pockets, audit, hub),
		services.NewPocketService(txRunner, pockets, memberships, movements, audit, hub),
		services.NewCategoryService(txRunner, categories, memberships, audit),
		incomeService,
		expenseService,
		services.NewTransferService(txRunner, pockets, memberships, transfers, movements, audit, hub),
		services.NewContributionService(txRunner, groups, users, pockets, memberships, contributions, expenseService, incomeService, audit, hub),
		audit,
		memberships,
		hub,
	)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("pockets API listening", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
