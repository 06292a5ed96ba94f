package fiscal

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DocumentModel define o modelo do documento fiscal
type DocumentModel string

const (
	// ModelNFe é o modelo 55 (Nota Fiscal Eletrônica)
	ModelNFe DocumentModel = "55"
	// ModelNFCe é o modelo 65 (Nota Fiscal de Consumidor Eletrônica)
	ModelNFCe DocumentModel = "65"
)

// DocumentStatus define o estado de um documento fiscal no seu ciclo de vida
type DocumentStatus string

const (
	StatusReservado   DocumentStatus = "RESERVADO"
	StatusPreEmitido  DocumentStatus = "PRE_EMITIDO"
	StatusEmitido     DocumentStatus = "EMITIDO"
	StatusCancelado   DocumentStatus = "CANCELADO"
	StatusInutilizado DocumentStatus = "INUTILIZADO"
)

const (
	// MinSeries e MaxSeries delimitam a faixa de séries aceitas
	MinSeries = 1
	MaxSeries = 999

	// MinMotiveLength é o tamanho mínimo da justificativa exigida pela SEFAZ
	MinMotiveLength = 15

	// AccessKeyLength é o tamanho da chave de acesso de um documento emitido
	AccessKeyLength = 44
)

// SequenceCounter é o contador monotônico de numeração por (terminal, modelo, série)
type SequenceCounter struct {
	TerminalID    string        `json:"terminal_id"`
	DocumentModel DocumentModel `json:"document_model"`
	Series        int           `json:"series"`
	LastNumber    int64         `json:"last_number"`
	Active        bool          `json:"active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Document representa um documento fiscal numerado. A linha nasce como reserva
// (status RESERVADO) e somente o status avança depois disso; o número, a série,
// o terminal e a filial são imutáveis após a reserva.
type Document struct {
	ID               string         `json:"id"`
	IdempotencyToken string         `json:"idempotency_token"`
	TerminalID       string         `json:"terminal_id"`
	BranchID         string         `json:"branch_id"`
	DocumentModel    DocumentModel  `json:"document_model"`
	Series           int            `json:"series"`
	Number           int64          `json:"number"`
	Status           DocumentStatus `json:"status"`
	AccessKey        string         `json:"access_key,omitempty"`
	Protocol         string         `json:"protocol,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// PreEmission é o instantâneo idempotente anexado a uma reserva antes da emissão
type PreEmission struct {
	ID               string          `json:"id"`
	IdempotencyToken string          `json:"idempotency_token"`
	TerminalID       string          `json:"terminal_id"`
	BranchID         string          `json:"branch_id"`
	DocumentModel    DocumentModel   `json:"document_model"`
	Series           int             `json:"series"`
	Number           int64           `json:"number"`
	Payload          json.RawMessage `json:"payload"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Cancellation registra o resultado do cancelamento de um documento
type Cancellation struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	BranchID   string         `json:"branch_id"`
	AccessKey  string         `json:"access_key,omitempty"`
	Series     int            `json:"series"`
	Number     int64          `json:"number"`
	Motive     string         `json:"motive"`
	Protocol   string         `json:"protocol"`
	Status     DocumentStatus `json:"status"`
	Message    string         `json:"message"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Inutilization registra uma faixa contígua de números declarada inutilizada
type Inutilization struct {
	ID            string         `json:"id"`
	BranchID      string         `json:"branch_id"`
	DocumentModel DocumentModel  `json:"document_model"`
	Series        int            `json:"series"`
	NumberStart   int64          `json:"number_start"`
	NumberEnd     int64          `json:"number_end"`
	Motive        string         `json:"motive"`
	Protocol      string         `json:"protocol"`
	Status        DocumentStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewDocument cria uma nova reserva de numeração. O número definitivo é
// atribuído pelo repositório dentro da unidade atômica de incremento.
func NewDocument(token, terminalID, branchID string, model DocumentModel, series int) (*Document, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}
	if terminalID == "" {
		return nil, newValidationError(CodeInvalidTerminal, "ID do terminal é obrigatório")
	}
	if branchID == "" {
		return nil, newValidationError(CodeInvalidTerminal, "ID da filial é obrigatório")
	}

	now := time.Now()
	return &Document{
		ID:               uuid.New().String(),
		IdempotencyToken: token,
		TerminalID:       terminalID,
		BranchID:         branchID,
		DocumentModel:    model,
		Series:           series,
		Status:           StatusReservado,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewInutilization cria uma declaração de inutilização para a faixa informada
func NewInutilization(branchID string, model DocumentModel, series int, numberStart, numberEnd int64, motive string) (*Inutilization, error) {
	if branchID == "" {
		return nil, newValidationError(CodeInvalidTerminal, "ID da filial é obrigatório")
	}
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}
	if numberStart < 1 || numberStart > numberEnd {
		return nil, newValidationError(CodeInvalidRange, "faixa inválida: número inicial deve ser maior que zero e menor ou igual ao final")
	}
	if err := ValidateMotive(motive); err != nil {
		return nil, err
	}

	return &Inutilization{
		ID:            uuid.New().String(),
		BranchID:      branchID,
		DocumentModel: model,
		Series:        series,
		NumberStart:   numberStart,
		NumberEnd:     numberEnd,
		Motive:        strings.TrimSpace(motive),
		Status:        StatusInutilizado,
		CreatedAt:     time.Now(),
	}, nil
}

// ValidateToken verifica se o token de idempotência é um UUID válido
func ValidateToken(token string) error {
	if token == "" {
		return newValidationError(CodeInvalidToken, "token de idempotência é obrigatório")
	}
	if _, err := uuid.Parse(token); err != nil {
		return newValidationError(CodeInvalidToken, "token de idempotência deve ser um UUID válido")
	}
	return nil
}

// ValidateSeries verifica se a série está dentro da faixa aceita (1 a 999)
func ValidateSeries(series int) error {
	if series < MinSeries || series > MaxSeries {
		return newValidationError(CodeInvalidSeries, "série deve estar entre 1 e 999")
	}
	return nil
}

// ValidateMotive verifica se a justificativa tem ao menos 15 caracteres após remover espaços das pontas
func ValidateMotive(motive string) error {
	if utf8.RuneCountInString(strings.TrimSpace(motive)) < MinMotiveLength {
		return newValidationError(CodeMotiveTooShort, "justificativa deve ter no mínimo 15 caracteres")
	}
	return nil
}

// ValidateAccessKey verifica se a chave de acesso tem 44 dígitos numéricos
func ValidateAccessKey(accessKey string) error {
	if utf8.RuneCountInString(accessKey) != AccessKeyLength {
		return newValidationError(CodeInvalidAccessKey, "chave de acesso deve ter 44 dígitos")
	}
	for _, r := range accessKey {
		if !unicode.IsDigit(r) {
			return newValidationError(CodeInvalidAccessKey, "chave de acesso deve conter apenas dígitos")
		}
	}
	return nil
}

// CanCancel verifica se o documento está em um estado cancelável
func (d *Document) CanCancel() bool {
	switch d.Status {
	case StatusReservado, StatusPreEmitido, StatusEmitido:
		return true
	}
	return false
}

// CanMarkEmitted verifica se o documento pode avançar para EMITIDO
func (d *Document) CanMarkEmitted() bool {
	return d.Status == StatusReservado || d.Status == StatusPreEmitido
}

// Overlaps verifica se duas faixas de inutilização se intersectam
func (i *Inutilization) Overlaps(numberStart, numberEnd int64) bool {
	return i.NumberStart <= numberEnd && i.NumberEnd >= numberStart
}

// Contains verifica se um número está dentro da faixa inutilizada
func (i *Inutilization) Contains(number int64) bool {
	return number >= i.NumberStart && number <= i.NumberEnd
}
