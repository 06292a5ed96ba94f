package dto

import (
	"time"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/terminal"
)

// TerminalRequest representa os dados para criar um terminal
type TerminalRequest struct {
	BranchID string `json:"branch_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// TerminalStatusRequest representa os dados para ativar/desativar um terminal
type TerminalStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// TerminalResponse representa a resposta com dados de um terminal
type TerminalResponse struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branch_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TerminalListResponse representa a resposta com uma lista de terminais
type TerminalListResponse struct {
	Terminals []TerminalResponse `json:"terminals"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

// NewTerminalResponse cria um novo TerminalResponse a partir de um terminal
func NewTerminalResponse(t *terminal.Terminal) *TerminalResponse {
	return &TerminalResponse{
		ID:        t.ID,
		BranchID:  t.BranchID,
		Name:      t.Name,
		Code:      t.Code,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// NewTerminalListResponse cria um novo TerminalListResponse
func NewTerminalListResponse(terminals []*terminal.Terminal, total, page, pageSize int) *TerminalListResponse {
	response := &TerminalListResponse{
		Terminals: make([]TerminalResponse, 0, len(terminals)),
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}

	for _, t := range terminals {
		response.Terminals = append(response.Terminals, *NewTerminalResponse(t))
	}

	return response
}
