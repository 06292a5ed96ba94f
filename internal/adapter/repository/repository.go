package repository

import (
	"context"
	"fmt"

	"github.com/hugohenrick/pdv-fiscal/pkg/tenant"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tenantSchema resolve o schema do tenant corrente a partir do contexto.
// As tabelas de negócio vivem em um schema por tenant; a tabela de tenants
// vive no schema public.
func tenantSchema(ctx context.Context, conn *pgxpool.Conn) (string, error) {
	tenantID := tenant.GetTenantIDFromContext(ctx)
	if tenantID == "" {
		return "", fmt.Errorf("tenant ID não encontrado no contexto")
	}

	if _, err := conn.Exec(ctx, "SET search_path TO public"); err != nil {
		return "", fmt.Errorf("falha ao configurar search_path: %w", err)
	}

	var schema string
	if err := conn.QueryRow(ctx, "SELECT schema FROM tenants WHERE id = $1", tenantID).Scan(&schema); err != nil {
		return "", fmt.Errorf("falha ao obter schema do tenant: %w", err)
	}

	return schema, nil
}
