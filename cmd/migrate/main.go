package main

import (
	"flag"
	"log/slog"
	"os"

	"pockets/internal/config"
	"pockets/internal/db"
	"pockets/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", string(db.Up), "migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := db.Migrate(cfg.DatabaseURL, db.Direction(*direction)); err != nil {
		slog.Error("migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "direction", *direction)
}
