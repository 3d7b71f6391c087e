// Command migrate runs database migrations via goose.
//
// Usage:
//
//	go run ./cmd/migrate up          # Apply all pending migrations
//	go run ./cmd/migrate down        # Roll back the last migration
//	go run ./cmd/migrate status      # Show migration status
//	go run ./cmd/migrate version     # Show current schema version
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"crimevision/config"
	"crimevision/core/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: migrate <command>")
		fmt.Println("Commands: up, down, status, version, redo, up-to <version>, down-to <version>")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CRIMEVISION_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	command := os.Args[1]
	args := os.Args[2:]

	if err := store.MigrateCommand(context.Background(), db, cfg.DBDriver, command, args...); err != nil {
		log.Fatalf("migration %s failed: %v", command, err)
	}
}
