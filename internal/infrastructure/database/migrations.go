package database

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hugohenrick/pdv-fiscal/internal/infrastructure/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunTenantMigrations aplica as migrações de negócio no schema de um tenant
func RunTenantMigrations(cfg *config.DatabaseConfig, schema string) error {
	dbURL := cfg.MigrationURL()

	// Conectar ao banco para criar o schema
	db, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return fmt.Errorf("erro ao conectar ao banco: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(context.Background(), fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("erro ao criar schema: %w", err)
	}

	// O migrate grava a tabela de versão no próprio schema do tenant
	sourceURL := fmt.Sprintf("file://%s", filepath.Join("migrations", "tenant"))
	migrateURL := fmt.Sprintf("%s&search_path=%s,public", dbURL, schema)

	m, err := migrate.New(sourceURL, migrateURL)
	if err != nil {
		return fmt.Errorf("erro ao criar migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}

	log.Printf("Migrações aplicadas com sucesso no schema %s", schema)
	return nil
}
