package certificate

import (
	"context"
)

// Repository define a interface para operações de repositório de certificados digitais
type Repository interface {
	// Create cria um novo certificado digital, desativando os demais da filial
	Create(ctx context.Context, cert *Certificate) error

	// FindByID busca um certificado pelo ID
	FindByID(ctx context.Context, id string) (*Certificate, error)

	// FindActiveCertificate busca o certificado ativo de uma filial
	FindActiveCertificate(ctx context.Context, branchID string) (*Certificate, error)

	// ListByBranch lista os certificados de uma filial
	ListByBranch(ctx context.Context, branchID string) ([]*Certificate, error)

	// Deactivate desativa um certificado
	Deactivate(ctx context.Context, id string) error
}
