package fiscal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pdv-fiscal/pkg/logger"
)

// TerminalInfo é a projeção de terminal consumida pelo motor fiscal
type TerminalInfo struct {
	ID       string
	BranchID string
	Active   bool
}

// TerminalResolver resolve um terminal para a filial à qual pertence.
// Implementado fora do motor; retorna ErrNotFound quando o terminal não existe.
type TerminalResolver interface {
	ResolveTerminal(ctx context.Context, terminalID string) (*TerminalInfo, error)
}

// AccessChecker verifica se um usuário tem acesso a uma filial
type AccessChecker interface {
	HasBranchAccess(ctx context.Context, userID, branchID string) (bool, error)
}

// CertificateChecker informa a validade do certificado digital de uma filial.
// Retorna ErrNotFound quando a filial não possui certificado ativo.
type CertificateChecker interface {
	CertificateExpiration(ctx context.Context, branchID string) (time.Time, error)
}

// Policy agrupa as decisões de política configuráveis do motor fiscal
type Policy struct {
	// CancelRequiresValidCertificate exige certificado vigente para cancelar
	// documentos já emitidos. A SEFAZ não é consultada por este motor, então a
	// exigência fica atrás de uma flag explícita em vez de suposição.
	CancelRequiresValidCertificate bool
}

// CancellationLookup identifica o documento a cancelar: pela chave de acesso ou
// pela tripla (filial, número, série). Exatamente uma das formas deve ser usada.
type CancellationLookup struct {
	AccessKey string
	BranchID  string
	Number    int64
	Series    int
}

// Service orquestra a numeração fiscal e o ciclo de vida dos documentos
type Service struct {
	repo      Repository
	terminals TerminalResolver
	access    AccessChecker
	certs     CertificateChecker
	policy    Policy
	logger    logger.Logger
}

// NewService cria um novo serviço do motor fiscal
func NewService(repo Repository, terminals TerminalResolver, access AccessChecker, certs CertificateChecker, policy Policy, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		terminals: terminals,
		access:    access,
		certs:     certs,
		policy:    policy,
		logger:    log,
	}
}

// Reserve atribui o próximo número da sequência (terminal, modelo 65, série) de
// forma idempotente: o mesmo token sempre devolve a mesma reserva, e tokens
// distintos concorrentes nunca recebem o mesmo número. Retorna created=false
// quando o token já possuía uma reserva.
func (s *Service) Reserve(ctx context.Context, actorID, terminalID string, series int, token string) (*Document, bool, error) {
	if err := ValidateSeries(series); err != nil {
		return nil, false, err
	}
	if err := ValidateToken(token); err != nil {
		return nil, false, err
	}

	terminal, err := s.resolveTerminal(ctx, terminalID)
	if err != nil {
		return nil, false, err
	}

	if err := s.checkBranchAccess(ctx, actorID, terminal.BranchID); err != nil {
		return nil, false, err
	}

	if err := s.checkCertificate(ctx, terminal.BranchID); err != nil {
		return nil, false, err
	}

	// Replay idempotente: não toca no contador
	existing, err := s.repo.FindDocumentByToken(ctx, token)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, s.internalError(err, "falha ao consultar reserva existente", actorID, terminalID, series, token)
	}

	doc, err := NewDocument(token, terminal.ID, terminal.BranchID, ModelNFCe, series)
	if err != nil {
		return nil, false, err
	}

	reserved, created, err := s.repo.ReserveNextNumber(ctx, doc)
	if err != nil {
		if errors.Is(err, ErrCounterInactive) {
			return nil, false, newForbiddenError(CodeCounterInactive, "numeração desativada para este terminal e série")
		}
		return nil, false, s.internalError(err, "falha ao reservar numeração", actorID, terminalID, series, token)
	}

	if created {
		s.logger.Info("numeração reservada",
			"terminal_id", reserved.TerminalID,
			"series", reserved.Series,
			"number", reserved.Number,
			"token", reserved.IdempotencyToken)
	}

	return reserved, created, nil
}

// SubmitPreEmission anexa o payload do caller à reserva do token, de forma
// idempotente: o payload é fixado pela primeira gravação e chamadas seguintes
// retornam o original com created=false.
func (s *Service) SubmitPreEmission(ctx context.Context, actorID, token string, payload json.RawMessage) (*PreEmission, bool, error) {
	if err := ValidateToken(token); err != nil {
		return nil, false, err
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, false, newValidationError(CodeInvalidPayload, "payload deve ser um JSON válido")
	}

	doc, err := s.repo.FindDocumentByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, newNotFoundError(CodeReservationNotFound, "reserva não encontrada para este token")
		}
		return nil, false, s.internalError(err, "falha ao buscar reserva", actorID, "", 0, token)
	}

	if err := s.checkBranchAccess(ctx, actorID, doc.BranchID); err != nil {
		return nil, false, err
	}

	if err := s.checkCertificate(ctx, doc.BranchID); err != nil {
		return nil, false, err
	}

	if existing, err := s.repo.FindPreEmissionByToken(ctx, token); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, s.internalError(err, "falha ao consultar pré-emissão existente", actorID, doc.TerminalID, doc.Series, token)
	}

	pre := &PreEmission{
		ID:               newEntityID(),
		IdempotencyToken: token,
		TerminalID:       doc.TerminalID,
		BranchID:         doc.BranchID,
		DocumentModel:    doc.DocumentModel,
		Series:           doc.Series,
		Number:           doc.Number,
		Payload:          payload,
		CreatedAt:        time.Now(),
	}

	stored, created, err := s.repo.CreatePreEmission(ctx, pre)
	if err != nil {
		return nil, false, s.internalError(err, "falha ao gravar pré-emissão", actorID, doc.TerminalID, doc.Series, token)
	}

	if created {
		s.logger.Info("pré-emissão registrada",
			"terminal_id", stored.TerminalID,
			"series", stored.Series,
			"number", stored.Number,
			"token", stored.IdempotencyToken)
	}

	return stored, created, nil
}

// Cancel cancela um documento reservado ou emitido, identificado pela chave de
// acesso ou pela tripla (filial, número, série)
func (s *Service) Cancel(ctx context.Context, actorID string, lookup CancellationLookup, motive string) (*Cancellation, error) {
	if err := ValidateMotive(motive); err != nil {
		return nil, err
	}

	doc, err := s.resolveDocument(ctx, actorID, lookup)
	if err != nil {
		return nil, err
	}

	if err := s.checkBranchAccess(ctx, actorID, doc.BranchID); err != nil {
		return nil, err
	}

	if s.policy.CancelRequiresValidCertificate {
		if err := s.checkCertificate(ctx, doc.BranchID); err != nil {
			return nil, err
		}
	}

	if !doc.CanCancel() {
		return nil, newConflictError(CodeTerminalState, fmt.Sprintf("documento em estado %s não pode ser cancelado", doc.Status))
	}

	cancellation := &Cancellation{
		ID:         newEntityID(),
		DocumentID: doc.ID,
		BranchID:   doc.BranchID,
		AccessKey:  doc.AccessKey,
		Series:     doc.Series,
		Number:     doc.Number,
		Motive:     motive,
		Protocol:   newProtocol(),
		Status:     StatusCancelado,
		Message:    "cancelamento registrado",
		CreatedAt:  time.Now(),
	}

	if err := s.repo.CancelDocument(ctx, cancellation); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, newConflictError(CodeTerminalState, "documento já cancelado ou inutilizado")
		}
		return nil, s.internalError(err, "falha ao cancelar documento", actorID, doc.TerminalID, doc.Series, doc.IdempotencyToken)
	}

	s.logger.Info("documento cancelado",
		"document_id", doc.ID,
		"number", doc.Number,
		"series", doc.Series,
		"protocol", cancellation.Protocol)

	return cancellation, nil
}

// MarkEmitted registra o resultado do passo externo de emissão, avançando o
// documento para EMITIDO com a chave de acesso definitiva
func (s *Service) MarkEmitted(ctx context.Context, actorID, token, accessKey, protocol string) (*Document, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}
	if err := ValidateAccessKey(accessKey); err != nil {
		return nil, err
	}

	doc, err := s.repo.FindDocumentByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newNotFoundError(CodeReservationNotFound, "reserva não encontrada para este token")
		}
		return nil, s.internalError(err, "falha ao buscar reserva", actorID, "", 0, token)
	}

	if err := s.checkBranchAccess(ctx, actorID, doc.BranchID); err != nil {
		return nil, err
	}

	if !doc.CanMarkEmitted() {
		return nil, newConflictError(CodeTerminalState, fmt.Sprintf("documento em estado %s não pode ser emitido", doc.Status))
	}

	if err := s.repo.MarkDocumentEmitted(ctx, doc.ID, accessKey, protocol); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, newConflictError(CodeTerminalState, "documento não está mais em estado emissível")
		}
		return nil, s.internalError(err, "falha ao marcar documento como emitido", actorID, doc.TerminalID, doc.Series, token)
	}

	doc.Status = StatusEmitido
	doc.AccessKey = accessKey
	doc.Protocol = protocol
	doc.UpdatedAt = time.Now()

	return doc, nil
}

// InutilizeRange declara uma faixa contígua de números como permanentemente
// inutilizada para a série da filial
func (s *Service) InutilizeRange(ctx context.Context, actorID, branchID string, series int, numberStart, numberEnd int64, motive string) (*Inutilization, error) {
	inut, err := NewInutilization(branchID, ModelNFCe, series, numberStart, numberEnd, motive)
	if err != nil {
		return nil, err
	}

	if err := s.checkBranchAccess(ctx, actorID, branchID); err != nil {
		return nil, err
	}

	inut.Protocol = newProtocol()

	if err := s.repo.CreateInutilization(ctx, inut); err != nil {
		switch {
		case errors.Is(err, ErrRangeOverlap):
			return nil, newConflictError(CodeRangeOverlap, "faixa intersecta inutilização já declarada para esta série")
		case errors.Is(err, ErrNumberInUse):
			return nil, newConflictError(CodeNumberInUse, "faixa contém números já reservados, emitidos ou cancelados")
		}
		return nil, s.internalError(err, "falha ao registrar inutilização", actorID, "", series, "")
	}

	s.logger.Info("faixa inutilizada",
		"branch_id", branchID,
		"series", series,
		"number_start", numberStart,
		"number_end", numberEnd,
		"protocol", inut.Protocol)

	return inut, nil
}

// GetReservation busca a reserva associada a um token de idempotência
func (s *Service) GetReservation(ctx context.Context, actorID, token string) (*Document, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	doc, err := s.repo.FindDocumentByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newNotFoundError(CodeReservationNotFound, "reserva não encontrada para este token")
		}
		return nil, s.internalError(err, "falha ao buscar reserva", actorID, "", 0, token)
	}

	if err := s.checkBranchAccess(ctx, actorID, doc.BranchID); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListTerminalCounters lista os contadores de numeração de um terminal
func (s *Service) ListTerminalCounters(ctx context.Context, actorID, terminalID string) ([]*SequenceCounter, error) {
	terminal, err := s.resolveTerminal(ctx, terminalID)
	if err != nil {
		return nil, err
	}

	if err := s.checkBranchAccess(ctx, actorID, terminal.BranchID); err != nil {
		return nil, err
	}

	counters, err := s.repo.ListCountersByTerminal(ctx, terminalID)
	if err != nil {
		return nil, s.internalError(err, "falha ao listar contadores", actorID, terminalID, 0, "")
	}

	return counters, nil
}

// ListInutilizations lista as inutilizações declaradas para uma série da filial
func (s *Service) ListInutilizations(ctx context.Context, actorID, branchID string, series int) ([]*Inutilization, error) {
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}

	if err := s.checkBranchAccess(ctx, actorID, branchID); err != nil {
		return nil, err
	}

	inuts, err := s.repo.ListInutilizations(ctx, branchID, ModelNFCe, series)
	if err != nil {
		return nil, s.internalError(err, "falha ao listar inutilizações", actorID, "", series, "")
	}

	return inuts, nil
}

func (s *Service) resolveTerminal(ctx context.Context, terminalID string) (*TerminalInfo, error) {
	if terminalID == "" {
		return nil, newValidationError(CodeInvalidTerminal, "ID do terminal é obrigatório")
	}

	terminal, err := s.terminals.ResolveTerminal(ctx, terminalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newNotFoundError(CodeTerminalNotFound, "terminal não encontrado")
		}
		return nil, s.internalError(err, "falha ao resolver terminal", "", terminalID, 0, "")
	}

	if !terminal.Active {
		return nil, newForbiddenError(CodeTerminalInactive, "terminal desativado")
	}

	return terminal, nil
}

func (s *Service) checkBranchAccess(ctx context.Context, actorID, branchID string) error {
	allowed, err := s.access.HasBranchAccess(ctx, actorID, branchID)
	if err != nil {
		return s.internalError(err, "falha ao verificar acesso à filial", actorID, "", 0, "")
	}
	if !allowed {
		return newPermissionDeniedError("acesso negado")
	}
	return nil
}

func (s *Service) checkCertificate(ctx context.Context, branchID string) error {
	expiration, err := s.certs.CertificateExpiration(ctx, branchID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newForbiddenError(CodeCertificateMissing, "filial não possui certificado digital ativo")
		}
		return s.internalError(err, "falha ao verificar certificado", "", "", 0, "")
	}
	if time.Now().After(expiration) {
		return newForbiddenError(CodeCertificateExpired, "certificado digital da filial está expirado")
	}
	return nil
}

func (s *Service) resolveDocument(ctx context.Context, actorID string, lookup CancellationLookup) (*Document, error) {
	byAccessKey := lookup.AccessKey != ""
	byNumber := lookup.BranchID != "" && lookup.Number > 0 && lookup.Series > 0

	if byAccessKey == byNumber {
		return nil, newValidationError(CodeInvalidLookup, "informe a chave de acesso ou (filial, número, série)")
	}

	var doc *Document
	var err error

	if byAccessKey {
		if err := ValidateAccessKey(lookup.AccessKey); err != nil {
			return nil, err
		}
		doc, err = s.repo.FindDocumentByAccessKey(ctx, lookup.AccessKey)
	} else {
		if err := ValidateSeries(lookup.Series); err != nil {
			return nil, err
		}
		doc, err = s.repo.FindDocumentByNumber(ctx, lookup.BranchID, ModelNFCe, lookup.Series, lookup.Number)
	}

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newNotFoundError(CodeDocumentNotFound, "documento não encontrado")
		}
		return nil, s.internalError(err, "falha ao localizar documento", actorID, "", lookup.Series, "")
	}

	return doc, nil
}

// internalError registra o contexto completo da falha antes de devolvê-la opaca
func (s *Service) internalError(err error, msg, actorID, terminalID string, series int, token string) error {
	s.logger.Error(msg,
		"error", err.Error(),
		"actor_id", actorID,
		"terminal_id", terminalID,
		"series", series,
		"token", token)
	return newInternalError(err)
}
