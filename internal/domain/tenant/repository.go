package tenant

import (
	"context"
	"errors"
)

// ErrTenantNotFound é retornado quando o tenant não existe
var ErrTenantNotFound = errors.New("tenant não encontrado")

// Repository define a interface de leitura de tenants consumida pelo middleware
type Repository interface {
	// FindByID busca um tenant pelo ID
	FindByID(ctx context.Context, id string) (*Tenant, error)
}
