package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/config"
	"github.com/paperdeck/paperdeck/internal/repository/sqlite"
	_ "modernc.org/sqlite"
)

// Migrates one user's chat database to the latest schema. The server also
// migrates on first open; this exists for upgrading databases offline.
func main() {
	_ = godotenv.Load()

	user := flag.String("user", "", "username whose chat database to migrate")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: migrate -user <username>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	store, err := assets.NewStore(cfg.Assets.Root)
	if err != nil {
		panic(fmt.Sprintf("Failed to open asset root: %v", err))
	}

	path, err := store.UserDBPath(*user)
	if err != nil {
		panic(fmt.Sprintf("Failed to resolve chat database: %v", err))
	}
	fmt.Printf("Migrating %s...\n", path)

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path))
	if err != nil {
		panic(fmt.Sprintf("Failed to open chat database: %v", err))
	}
	defer db.Close()

	if err := db.PingContext(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to connect to chat database: %v", err))
	}

	if err := sqlite.Migrate(db); err != nil {
		panic(fmt.Sprintf("Migration failed: %v", err))
	}
	fmt.Println("Migrations applied")
}
