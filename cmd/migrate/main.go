package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"starcast/pkg/config"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		dir  = flag.String("dir", "migrations", "directory with migration files")
		name = flag.String("name", "", "name for new migration (create only)")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	switch command {
	case "create":
		if *name == "" {
			log.Fatal("-name is required for create")
		}
		if err := goose.Create(db, *dir, *name, "sql"); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
	case "up":
		if err := goose.Up(db, *dir); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		fmt.Println("Migrations applied")
	case "down":
		if err := goose.Down(db, *dir); err != nil {
			log.Fatalf("Failed to roll back migration: %v", err)
		}
		fmt.Println("Rolled back one migration")
	case "status":
		if err := goose.Status(db, *dir); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
	case "version":
		v, err := goose.GetDBVersion(db)
		if err != nil {
			log.Fatalf("Failed to get migration version: %v", err)
		}
		fmt.Printf("Database version: %d\n", v)
	default:
		log.Fatalf("Unknown command: %s", command)
	}
}
