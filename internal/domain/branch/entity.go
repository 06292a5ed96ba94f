package branch

import (
	"errors"
	"time"
)

var (
	ErrInvalidBranchID = errors.New("ID de filial inválido")
	ErrBranchNotActive = errors.New("filial não está ativa")
)

// Status representa o estado da filial
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// Branch representa uma filial. O motor fiscal consome filiais como dado de
// referência somente leitura; o cadastro é de responsabilidade de outro sistema.
type Branch struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Document  string    `json:"document"` // CNPJ da filial
	Status    Status    `json:"status"`
	IsMain    bool      `json:"is_main"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive verifica se a filial está ativa
func (b *Branch) IsActive() bool {
	return b.Status == StatusActive
}
