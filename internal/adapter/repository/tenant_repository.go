package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/tenant"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantRepository implementa a interface tenant.Repository. A tabela de
// tenants vive no schema public e é somente leitura neste serviço.
type TenantRepository struct {
	db *pgxpool.Pool
}

// NewTenantRepository cria uma nova instância de TenantRepository
func NewTenantRepository(db *pgxpool.Pool) tenant.Repository {
	return &TenantRepository{
		db: db,
	}
}

// FindByID implementa o método FindByID da interface tenant.Repository
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SET search_path TO public"); err != nil {
		return nil, fmt.Errorf("falha ao configurar search_path: %w", err)
	}

	query := `
		SELECT id, name, document, schema, status, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var t tenant.Tenant
	err = conn.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Document, &t.Schema, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("falha ao buscar tenant: %w", err)
	}

	return &t, nil
}
