package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"freshleap/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// migrationsのDSNを組む（DATABASE_URL優先）
func buildMigrateDSN(cfg config.DBConfig) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.PostgresUser, cfg.PostgresPassword,
		cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresDB, cfg.PostgresSSLMode,
	)
}

func main() {
	var migrationsPathFlag string
	var down bool
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.BoolVar(&down, "down", false, "roll back one migration instead of applying")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadDB()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	migrationsPath := cfg.MigrationsPath
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	m, err := migrate.New("file://"+migrationsPath, buildMigrateDSN(cfg))
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}

	if down {
		if err := m.Steps(-1); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		log.Println("rolled back one migration")
		return
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("no migrations to apply")
			return
		}
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("migrations applied")
}
