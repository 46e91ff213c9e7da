package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"faceoverlay/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", filepath.Join("data", "runs.db"), "Database path")
	reset := flag.Bool("reset", false, "Delete all stored runs")
	flag.Parse()

	fmt.Printf("Migrating database %s\n", *dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	// Initialize database (creates the schema)
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if *reset {
		if err := sqlite.NewRunRepository(db).DeleteAll(); err != nil {
			log.Fatalf("Failed to delete runs: %v", err)
		}
		fmt.Println("🗑️  All runs deleted")
	}

	fmt.Printf("✅ Database %s is up to date\n", *dbPath)
}
