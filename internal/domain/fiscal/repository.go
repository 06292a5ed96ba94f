package fiscal

import (
	"context"
	"errors"
)

// Erros sinalizados pelo repositório e traduzidos pelo serviço para erros tipados
var (
	// ErrNotFound é retornado quando o registro procurado não existe
	ErrNotFound = errors.New("registro não encontrado")

	// ErrCounterInactive é retornado quando o contador da numeração está desativado
	ErrCounterInactive = errors.New("contador de numeração inativo")

	// ErrInvalidTransition é retornado quando o documento não está em um estado
	// que permita a transição solicitada
	ErrInvalidTransition = errors.New("documento em estado terminal ou incompatível com a transição")

	// ErrRangeOverlap é retornado quando a faixa declarada intersecta uma
	// inutilização já registrada para a mesma série
	ErrRangeOverlap = errors.New("faixa intersecta inutilização já declarada")

	// ErrNumberInUse é retornado quando a faixa declarada contém números já
	// reservados, emitidos ou cancelados
	ErrNumberInUse = errors.New("faixa contém números já utilizados")
)

// Repository define a interface de persistência do motor de numeração fiscal
type Repository interface {
	// FindDocumentByToken busca um documento pelo token de idempotência
	FindDocumentByToken(ctx context.Context, token string) (*Document, error)

	// FindDocumentByAccessKey busca um documento pela chave de acesso
	FindDocumentByAccessKey(ctx context.Context, accessKey string) (*Document, error)

	// FindDocumentByNumber busca um documento por (filial, modelo, série, número)
	FindDocumentByNumber(ctx context.Context, branchID string, model DocumentModel, series int, number int64) (*Document, error)

	// ReserveNextNumber executa a unidade atômica de reserva: garante o contador,
	// incrementa last_number sob bloqueio exclusivo e insere o documento com o
	// número obtido, tudo na mesma transação. Se a inserção falhar por token
	// duplicado (replay concorrente), a transação é desfeita, o que devolve o
	// incremento, e o documento já existente é retornado com created=false.
	ReserveNextNumber(ctx context.Context, doc *Document) (*Document, bool, error)

	// FindPreEmissionByToken busca uma pré-emissão pelo token de idempotência
	FindPreEmissionByToken(ctx context.Context, token string) (*PreEmission, error)

	// CreatePreEmission insere a pré-emissão e avança o documento para
	// PRE_EMITIDO na mesma transação. Em caso de token duplicado retorna a
	// pré-emissão original com created=false, sem alterar o payload gravado.
	CreatePreEmission(ctx context.Context, pre *PreEmission) (*PreEmission, bool, error)

	// CancelDocument avança o documento para CANCELADO e grava o registro de
	// auditoria do cancelamento na mesma transação. Retorna ErrInvalidTransition
	// se o documento não estiver mais em estado cancelável.
	CancelDocument(ctx context.Context, cancellation *Cancellation) error

	// MarkDocumentEmitted avança o documento para EMITIDO gravando a chave de
	// acesso e o protocolo. Retorna ErrInvalidTransition se o estado não permitir.
	MarkDocumentEmitted(ctx context.Context, documentID, accessKey, protocol string) error

	// CreateInutilization grava a inutilização após verificar, sob serialização,
	// que a faixa não intersecta inutilizações anteriores (ErrRangeOverlap) nem
	// números já utilizados na série da filial (ErrNumberInUse).
	CreateInutilization(ctx context.Context, inut *Inutilization) error

	// ListInutilizations lista as inutilizações de uma série da filial
	ListInutilizations(ctx context.Context, branchID string, model DocumentModel, series int) ([]*Inutilization, error)

	// ListCountersByTerminal lista os contadores de numeração de um terminal
	ListCountersByTerminal(ctx context.Context, terminalID string) ([]*SequenceCounter, error)
}
