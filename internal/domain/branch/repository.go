package branch

import (
	"context"
)

// Repository define a interface de leitura de filiais consumida pelo motor fiscal
type Repository interface {
	// FindByID busca uma filial pelo ID
	FindByID(ctx context.Context, id string) (*Branch, error)

	// Exists verifica se uma filial existe
	Exists(ctx context.Context, id string) (bool, error)

	// HasUserAccess verifica se um usuário está associado à filial
	HasUserAccess(ctx context.Context, userID, branchID string) (bool, error)
}
