package dto

import (
	"encoding/json"
	"time"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/fiscal"
)

// ReservationRequest representa os dados para reservar o próximo número da sequência
type ReservationRequest struct {
	TerminalID       string `json:"terminal_id" binding:"required"`
	Series           int    `json:"series" binding:"required,min=1,max=999"`
	IdempotencyToken string `json:"idempotency_token" binding:"required"`
}

// ReservationResponse representa a resposta com os dados de uma reserva de numeração
type ReservationResponse struct {
	ID               string    `json:"id"`
	IdempotencyToken string    `json:"idempotency_token"`
	TerminalID       string    `json:"terminal_id"`
	BranchID         string    `json:"branch_id"`
	DocumentModel    string    `json:"document_model"`
	Series           int       `json:"series"`
	Number           int64     `json:"number"`
	Status           string    `json:"status"`
	AccessKey        string    `json:"access_key,omitempty"`
	Protocol         string    `json:"protocol,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewReservationResponse cria um novo ReservationResponse a partir de um documento
func NewReservationResponse(doc *fiscal.Document) *ReservationResponse {
	return &ReservationResponse{
		ID:               doc.ID,
		IdempotencyToken: doc.IdempotencyToken,
		TerminalID:       doc.TerminalID,
		BranchID:         doc.BranchID,
		DocumentModel:    string(doc.DocumentModel),
		Series:           doc.Series,
		Number:           doc.Number,
		Status:           string(doc.Status),
		AccessKey:        doc.AccessKey,
		Protocol:         doc.Protocol,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

// PreEmissionRequest representa os dados para registrar a pré-emissão de uma reserva
type PreEmissionRequest struct {
	IdempotencyToken string          `json:"idempotency_token" binding:"required"`
	Payload          json.RawMessage `json:"payload"`
}

// PreEmissionResponse representa a resposta com os dados de uma pré-emissão
type PreEmissionResponse struct {
	ID               string          `json:"id"`
	IdempotencyToken string          `json:"idempotency_token"`
	TerminalID       string          `json:"terminal_id"`
	BranchID         string          `json:"branch_id"`
	DocumentModel    string          `json:"document_model"`
	Series           int             `json:"series"`
	Number           int64           `json:"number"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	Created          bool            `json:"created"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewPreEmissionResponse cria um novo PreEmissionResponse a partir de uma pré-emissão
func NewPreEmissionResponse(pre *fiscal.PreEmission, created bool) *PreEmissionResponse {
	return &PreEmissionResponse{
		ID:               pre.ID,
		IdempotencyToken: pre.IdempotencyToken,
		TerminalID:       pre.TerminalID,
		BranchID:         pre.BranchID,
		DocumentModel:    string(pre.DocumentModel),
		Series:           pre.Series,
		Number:           pre.Number,
		Payload:          pre.Payload,
		Created:          created,
		CreatedAt:        pre.CreatedAt,
	}
}

// EmissionRequest representa o resultado do passo externo de emissão
type EmissionRequest struct {
	IdempotencyToken string `json:"idempotency_token" binding:"required"`
	AccessKey        string `json:"access_key" binding:"required"`
	Protocol         string `json:"protocol"`
}

// CancellationRequest representa os dados para cancelar um documento fiscal.
// O documento é identificado pela chave de acesso ou pela tripla
// (filial, número, série); exatamente uma das formas deve ser informada.
type CancellationRequest struct {
	AccessKey string `json:"access_key,omitempty"`
	BranchID  string `json:"branch_id,omitempty"`
	Number    int64  `json:"number,omitempty"`
	Series    int    `json:"series,omitempty"`
	Motive    string `json:"motive" binding:"required"`
}

// CancellationResponse representa a resposta com os dados de um cancelamento
type CancellationResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	BranchID   string    `json:"branch_id"`
	AccessKey  string    `json:"access_key,omitempty"`
	Series     int       `json:"series"`
	Number     int64     `json:"number"`
	Motive     string    `json:"motive"`
	Protocol   string    `json:"protocol"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCancellationResponse cria um novo CancellationResponse a partir de um cancelamento
func NewCancellationResponse(c *fiscal.Cancellation) *CancellationResponse {
	return &CancellationResponse{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		BranchID:   c.BranchID,
		AccessKey:  c.AccessKey,
		Series:     c.Series,
		Number:     c.Number,
		Motive:     c.Motive,
		Protocol:   c.Protocol,
		Status:     string(c.Status),
		Message:    c.Message,
		CreatedAt:  c.CreatedAt,
	}
}

// InutilizationRequest representa os dados para inutilizar uma faixa de números
type InutilizationRequest struct {
	BranchID    string `json:"branch_id" binding:"required"`
	Series      int    `json:"series" binding:"required,min=1,max=999"`
	NumberStart int64  `json:"number_start" binding:"required,min=1"`
	NumberEnd   int64  `json:"number_end" binding:"required,min=1"`
	Motive      string `json:"motive" binding:"required"`
}

// InutilizationResponse representa a resposta com os dados de uma inutilização
type InutilizationResponse struct {
	ID            string    `json:"id"`
	BranchID      string    `json:"branch_id"`
	DocumentModel string    `json:"document_model"`
	Series        int       `json:"series"`
	NumberStart   int64     `json:"number_start"`
	NumberEnd     int64     `json:"number_end"`
	Motive        string    `json:"motive"`
	Protocol      string    `json:"protocol"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewInutilizationResponse cria um novo InutilizationResponse a partir de uma inutilização
func NewInutilizationResponse(i *fiscal.Inutilization) *InutilizationResponse {
	return &InutilizationResponse{
		ID:            i.ID,
		BranchID:      i.BranchID,
		DocumentModel: string(i.DocumentModel),
		Series:        i.Series,
		NumberStart:   i.NumberStart,
		NumberEnd:     i.NumberEnd,
		Motive:        i.Motive,
		Protocol:      i.Protocol,
		Status:        string(i.Status),
		CreatedAt:     i.CreatedAt,
	}
}

// InutilizationListResponse representa a resposta com uma lista de inutilizações
type InutilizationListResponse struct {
	Inutilizations []InutilizationResponse `json:"inutilizations"`
	Total          int                     `json:"total"`
}

// NewInutilizationListResponse cria um novo InutilizationListResponse
func NewInutilizationListResponse(inuts []*fiscal.Inutilization) *InutilizationListResponse {
	response := &InutilizationListResponse{
		Inutilizations: make([]InutilizationResponse, 0, len(inuts)),
		Total:          len(inuts),
	}

	for _, i := range inuts {
		response.Inutilizations = append(response.Inutilizations, *NewInutilizationResponse(i))
	}

	return response
}

// CounterResponse representa a resposta com os dados de um contador de numeração
type CounterResponse struct {
	TerminalID    string    `json:"terminal_id"`
	DocumentModel string    `json:"document_model"`
	Series        int       `json:"series"`
	LastNumber    int64     `json:"last_number"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CounterListResponse representa a resposta com os contadores de um terminal
type CounterListResponse struct {
	Counters []CounterResponse `json:"counters"`
	Total    int               `json:"total"`
}

// NewCounterListResponse cria um novo CounterListResponse
func NewCounterListResponse(counters []*fiscal.SequenceCounter) *CounterListResponse {
	response := &CounterListResponse{
		Counters: make([]CounterResponse, 0, len(counters)),
		Total:    len(counters),
	}

	for _, c := range counters {
		response.Counters = append(response.Counters, CounterResponse{
			TerminalID:    c.TerminalID,
			DocumentModel: string(c.DocumentModel),
			Series:        c.Series,
			LastNumber:    c.LastNumber,
			Active:        c.Active,
			CreatedAt:     c.CreatedAt,
			UpdatedAt:     c.UpdatedAt,
		})
	}

	return response
}
