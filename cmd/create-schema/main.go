package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"clausecheck-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS contract_files (
    id UUID PRIMARY KEY,
    filename TEXT NOT NULL,
    mime_type VARCHAR(255) NOT NULL,
    size BIGINT NOT NULL CHECK (size >= 0),
    storage_path TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func main() {
	drop := flag.Bool("drop", false, "drop the existing contract_files table first")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *drop {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS contract_files"); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
		log.Println("✓ Dropped existing contract_files table (if any)")
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create contract_files table: %v", err)
	}
	log.Println("✓ Created contract_files table")

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Recent uploads",
			sql:  "CREATE INDEX IF NOT EXISTS idx_contract_files_created_at ON contract_files(created_at DESC);",
		},
		{
			name: "Filename lookup",
			sql:  "CREATE INDEX IF NOT EXISTS idx_contract_files_filename ON contract_files(filename);",
		},
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Table: contract_files")
}
