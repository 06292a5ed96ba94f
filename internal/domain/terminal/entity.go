package terminal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyBranchID = errors.New("ID da filial não pode ser vazio")
	ErrEmptyName     = errors.New("nome não pode ser vazio")
)

// Terminal representa um ponto de venda (caixa) de uma filial
type Terminal struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	BranchID  string    `json:"branch_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"` // Código interno do caixa
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTerminal cria um novo terminal vinculado a uma filial
func NewTerminal(tenantID, branchID, name, code string) (*Terminal, error) {
	if branchID == "" {
		return nil, ErrEmptyBranchID
	}
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now()
	return &Terminal{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		BranchID:  branchID,
		Name:      name,
		Code:      code,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Activate ativa o terminal
func (t *Terminal) Activate() {
	t.Active = true
	t.UpdatedAt = time.Now()
}

// Deactivate desativa o terminal
func (t *Terminal) Deactivate() {
	t.Active = false
	t.UpdatedAt = time.Now()
}
