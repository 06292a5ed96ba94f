package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/branch"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BranchRepository implementa a interface branch.Repository. O cadastro de
// filiais pertence a outro sistema; aqui a leitura é suficiente.
type BranchRepository struct {
	db *pgxpool.Pool
}

// NewBranchRepository cria uma nova instância de BranchRepository
func NewBranchRepository(db *pgxpool.Pool) *BranchRepository {
	return &BranchRepository{
		db: db,
	}
}

// FindByID implementa o método FindByID da interface branch.Repository
func (r *BranchRepository) FindByID(ctx context.Context, id string) (*branch.Branch, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, code, document, status, is_main, created_at, updated_at
		FROM %s.branches
		WHERE id = $1`, schema)

	var b branch.Branch
	err = conn.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.TenantID, &b.Name, &b.Code, &b.Document, &b.Status, &b.IsMain, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("filial com ID %s não encontrada", id)
		}
		return nil, fmt.Errorf("falha ao buscar filial: %w", err)
	}

	return &b, nil
}

// Exists implementa o método Exists da interface branch.Repository
func (r *BranchRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return false, err
	}

	var exists bool
	err = conn.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s.branches WHERE id = $1)", schema), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("falha ao verificar se a filial existe: %w", err)
	}

	return exists, nil
}

// HasUserAccess implementa o método HasUserAccess da interface branch.Repository
// e a interface fiscal.AccessChecker
func (r *BranchRepository) HasUserAccess(ctx context.Context, userID, branchID string) (bool, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return false, err
	}

	var allowed bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s.user_branches WHERE user_id = $1 AND branch_id = $2)", schema)
	err = conn.QueryRow(ctx, query, userID, branchID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("falha ao verificar acesso do usuário à filial: %w", err)
	}

	return allowed, nil
}

// HasBranchAccess implementa a interface fiscal.AccessChecker
func (r *BranchRepository) HasBranchAccess(ctx context.Context, userID, branchID string) (bool, error) {
	return r.HasUserAccess(ctx, userID, branchID)
}
