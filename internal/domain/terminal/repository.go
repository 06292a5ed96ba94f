package terminal

import (
	"context"
)

// Repository define a interface para operações de repositório de terminais
type Repository interface {
	// Create cria um novo terminal
	Create(ctx context.Context, t *Terminal) error

	// FindByID busca um terminal pelo ID
	FindByID(ctx context.Context, id string) (*Terminal, error)

	// ListByBranch lista os terminais de uma filial com paginação
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*Terminal, error)

	// UpdateStatus ativa ou desativa um terminal
	UpdateStatus(ctx context.Context, id string, active bool) error

	// Exists verifica se um terminal existe
	Exists(ctx context.Context, id string) (bool, error)
}
