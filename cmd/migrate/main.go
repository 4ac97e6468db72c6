package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"bookline-inbox/internal/config"
	"bookline-inbox/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const usage = `
Bookline Inbox - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Apply all pending SQL migrations
  status      Show database connection status and table state

Flags:
  -migrations string   Path to migrations directory (default "migrations")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer pool.Close()

	switch command {
	case "up":
		runMigrationsUp(ctx, pool, *migrationsDir)
	case "status":
		showStatus(ctx, pool)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) {
	log.Println("🚀 Running migrations UP...")

	if err := database.ApplyMigrations(ctx, pool, migrationsDir); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("🔍 Checking database status...")

	if err := database.HealthCheck(ctx, pool); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	tables := []string{"users", "provider_profiles", "threads", "messages", "message_reactions"}
	for _, table := range tables {
		exists, err := database.TableExists(ctx, pool, table)
		if err != nil {
			log.Printf("⚠️  Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.TableCount(ctx, pool, table)
			log.Printf("✅ Table %-20s exists (%d rows)", table, count)
		} else {
			log.Printf("❌ Table %-20s does not exist", table)
		}
	}
}
