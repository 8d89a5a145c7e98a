package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"owl-hotel/common/database"
	"owl-hotel/internal/config"
	"owl-hotel/internal/repository"
)

// Applies the built-in schema, or the SQL file given as the first argument.
func main() {
	sqlContent := repository.Schema
	source := "built-in schema"
	if len(os.Args) > 1 {
		b, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		sqlContent = string(b)
		source = os.Args[1]
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)
	fmt.Printf("Applying %s\n\n", source)

	// Split SQL by semicolon and execute each statement
	statements := strings.Split(sqlContent, ";")
	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") && !strings.Contains(stmt, "\n") {
			continue
		}

		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Println("Migration completed successfully")
}
