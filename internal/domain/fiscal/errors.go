package fiscal

import (
	"errors"
	"fmt"
)

// ErrorKind classifica os erros do motor fiscal para mapeamento HTTP
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindPermissionDenied
	KindForbidden
	KindConflict
	KindInternal
)

// Códigos estáveis retornados ao terminal para decisão de retry/parada
const (
	CodeInvalidSeries       = "FISCAL_4001"
	CodeInvalidToken        = "FISCAL_4002"
	CodeMotiveTooShort      = "FISCAL_4003"
	CodeInvalidLookup       = "FISCAL_4004"
	CodeInvalidRange        = "FISCAL_4005"
	CodeInvalidAccessKey    = "FISCAL_4006"
	CodeInvalidTerminal     = "FISCAL_4007"
	CodeInvalidPayload      = "FISCAL_4008"
	CodeCertificateExpired  = "FISCAL_4030"
	CodeCertificateMissing  = "FISCAL_4031"
	CodeTerminalInactive    = "FISCAL_4032"
	CodeCounterInactive     = "FISCAL_4033"
	CodeTerminalNotFound    = "FISCAL_4040"
	CodeReservationNotFound = "FISCAL_4041"
	CodeDocumentNotFound    = "FISCAL_4042"
	CodeTerminalState       = "FISCAL_4090"
	CodeRangeOverlap        = "FISCAL_4091"
	CodeNumberInUse         = "FISCAL_4092"
	CodeInternal            = "FISCAL_5000"
	CodeBranchAccessDenied  = "AUTH_1006"
)

// Error é o erro tipado do motor fiscal, com código estável legível por máquina
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// Error implementa a interface error
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap expõe o erro subjacente
func (e *Error) Unwrap() error {
	return e.Err
}

func newValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func newNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func newPermissionDeniedError(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Code: CodeBranchAccessDenied, Message: message}
}

func newForbiddenError(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func newConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func newInternalError(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "erro interno do motor fiscal", Err: err}
}

// AsError extrai um *Error da cadeia de erros, se houver
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsKind verifica se o erro pertence à classificação informada
func IsKind(err error, kind ErrorKind) bool {
	if fe, ok := AsError(err); ok {
		return fe.Kind == kind
	}
	return false
}

// HasCode verifica se o erro carrega o código informado
func HasCode(err error, code string) bool {
	if fe, ok := AsError(err); ok {
		return fe.Code == code
	}
	return false
}
