package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/fiscal"
	"github.com/hugohenrick/pdv-fiscal/internal/domain/terminal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TerminalRepository implementa a interface terminal.Repository e o resolvedor
// de terminais consumido pelo motor fiscal
type TerminalRepository struct {
	db *pgxpool.Pool
}

// NewTerminalRepository cria uma nova instância de TerminalRepository
func NewTerminalRepository(db *pgxpool.Pool) *TerminalRepository {
	return &TerminalRepository{
		db: db,
	}
}

// Create implementa o método Create da interface terminal.Repository
func (r *TerminalRepository) Create(ctx context.Context, t *terminal.Terminal) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	// Verificar se a filial existe
	var exists bool
	err = conn.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s.branches WHERE id = $1)", schema), t.BranchID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("falha ao verificar se a filial existe: %w", err)
	}
	if !exists {
		return fmt.Errorf("filial com ID %s não encontrada", t.BranchID)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.terminals (
			id, tenant_id, branch_id, name, code, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, schema)

	_, err = conn.Exec(ctx, query,
		t.ID, t.TenantID, t.BranchID, t.Name, t.Code, t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao inserir terminal: %w", err)
	}

	return nil
}

// FindByID implementa o método FindByID da interface terminal.Repository
func (r *TerminalRepository) FindByID(ctx context.Context, id string) (*terminal.Terminal, error) {
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
		SELECT id, tenant_id, branch_id, name, code, active, created_at, updated_at
		FROM %s.terminals
		WHERE id = $1`, schema)

	var t terminal.Terminal
	err = conn.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.TenantID, &t.BranchID, &t.Name, &t.Code, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("terminal com ID %s não encontrado", id)
		}
		return nil, fmt.Errorf("falha ao buscar terminal: %w", err)
	}

	return &t, nil
}

// ListByBranch implementa o método ListByBranch da interface terminal.Repository
func (r *TerminalRepository) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*terminal.Terminal, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, branch_id, name, code, active, created_at, updated_at
		FROM %s.terminals
		WHERE branch_id = $1
		ORDER BY code
		LIMIT $2 OFFSET $3`, schema)

	rows, err := conn.Query(ctx, query, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar terminais: %w", err)
	}
	defer rows.Close()

	terminals := []*terminal.Terminal{}
	for rows.Next() {
		var t terminal.Terminal
		err = rows.Scan(&t.ID, &t.TenantID, &t.BranchID, &t.Name, &t.Code, &t.Active, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler terminal: %w", err)
		}
		terminals = append(terminals, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar terminais: %w", err)
	}

	return terminals, nil
}

// UpdateStatus implementa o método UpdateStatus da interface terminal.Repository
func (r *TerminalRepository) UpdateStatus(ctx context.Context, id string, active bool) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s.terminals SET active = $1, updated_at = $2 WHERE id = $3", schema)
	tag, err := conn.Exec(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("falha ao atualizar status do terminal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("terminal com ID %s não encontrado", id)
	}

	return nil
}

// Exists implementa o método Exists da interface terminal.Repository
func (r *TerminalRepository) Exists(ctx context.Context, id string) (bool, error) {
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
	err = conn.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s.terminals WHERE id = $1)", schema), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("falha ao verificar se o terminal existe: %w", err)
	}

	return exists, nil
}

// ResolveTerminal implementa a interface fiscal.TerminalResolver
func (r *TerminalRepository) ResolveTerminal(ctx context.Context, terminalID string) (*fiscal.TerminalInfo, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, branch_id, active FROM %s.terminals WHERE id = $1", schema)

	var info fiscal.TerminalInfo
	err = conn.QueryRow(ctx, query, terminalID).Scan(&info.ID, &info.BranchID, &info.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrNotFound
		}
		return nil, fmt.Errorf("falha ao resolver terminal: %w", err)
	}

	return &info, nil
}
