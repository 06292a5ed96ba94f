package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/fiscal"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FiscalRepository implementa a interface fiscal.Repository
type FiscalRepository struct {
	db *pgxpool.Pool
}

// NewFiscalRepository cria uma nova instância de FiscalRepository
func NewFiscalRepository(db *pgxpool.Pool) fiscal.Repository {
	return &FiscalRepository{
		db: db,
	}
}

const documentColumns = `
	id, idempotency_token, terminal_id, branch_id, document_model, series, number,
	status, COALESCE(access_key, ''), COALESCE(protocol, ''), created_at, updated_at`

func scanDocument(row pgx.Row) (*fiscal.Document, error) {
	var doc fiscal.Document
	err := row.Scan(
		&doc.ID, &doc.IdempotencyToken, &doc.TerminalID, &doc.BranchID,
		&doc.DocumentModel, &doc.Series, &doc.Number,
		&doc.Status, &doc.AccessKey, &doc.Protocol, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrNotFound
		}
		return nil, fmt.Errorf("falha ao ler documento fiscal: %w", err)
	}
	return &doc, nil
}

// FindDocumentByToken implementa o método FindDocumentByToken da interface fiscal.Repository
func (r *FiscalRepository) FindDocumentByToken(ctx context.Context, token string) (*fiscal.Document, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s.fiscal_documents WHERE idempotency_token = $1", documentColumns, schema)
	return scanDocument(conn.QueryRow(ctx, query, token))
}

// FindDocumentByAccessKey implementa o método FindDocumentByAccessKey da interface fiscal.Repository
func (r *FiscalRepository) FindDocumentByAccessKey(ctx context.Context, accessKey string) (*fiscal.Document, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s.fiscal_documents WHERE access_key = $1", documentColumns, schema)
	return scanDocument(conn.QueryRow(ctx, query, accessKey))
}

// FindDocumentByNumber implementa o método FindDocumentByNumber da interface fiscal.Repository
func (r *FiscalRepository) FindDocumentByNumber(ctx context.Context, branchID string, model fiscal.DocumentModel, series int, number int64) (*fiscal.Document, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s.fiscal_documents
		WHERE branch_id = $1 AND document_model = $2 AND series = $3 AND number = $4`,
		documentColumns, schema)
	return scanDocument(conn.QueryRow(ctx, query, branchID, model, series, number))
}

// ReserveNextNumber implementa o método ReserveNextNumber da interface fiscal.Repository.
// O incremento do contador e a inserção do documento acontecem na mesma transação:
// o UPDATE segura o bloqueio de linha do contador até o commit, de modo que dois
// chamadores concorrentes nunca observam o mesmo last_number.
func (r *FiscalRepository) ReserveNextNumber(ctx context.Context, doc *fiscal.Document) (*fiscal.Document, bool, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, false, err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	// Criar o contador na primeira reserva do triplo (terminal, modelo, série)
	ensureQuery := fmt.Sprintf(`
		INSERT INTO %s.fiscal_counters (terminal_id, document_model, series, last_number, active, created_at, updated_at)
		VALUES ($1, $2, $3, 0, true, $4, $4)
		ON CONFLICT (terminal_id, document_model, series) DO NOTHING`, schema)
	if _, err := tx.Exec(ctx, ensureQuery, doc.TerminalID, doc.DocumentModel, doc.Series, now); err != nil {
		return nil, false, fmt.Errorf("falha ao garantir contador de numeração: %w", err)
	}

	var lastNumber int64
	var active bool
	incrementQuery := fmt.Sprintf(`
		UPDATE %s.fiscal_counters SET
			last_number = last_number + 1,
			updated_at = $4
		WHERE terminal_id = $1 AND document_model = $2 AND series = $3
		RETURNING last_number, active`, schema)
	if err := tx.QueryRow(ctx, incrementQuery, doc.TerminalID, doc.DocumentModel, doc.Series, now).Scan(&lastNumber, &active); err != nil {
		return nil, false, fmt.Errorf("falha ao incrementar contador de numeração: %w", err)
	}
	if !active {
		return nil, false, fiscal.ErrCounterInactive
	}

	doc.Number = lastNumber

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.fiscal_documents (
			id, idempotency_token, terminal_id, branch_id, document_model, series,
			number, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, schema)
	_, err = tx.Exec(ctx, insertQuery,
		doc.ID, doc.IdempotencyToken, doc.TerminalID, doc.BranchID, doc.DocumentModel,
		doc.Series, doc.Number, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && strings.Contains(pgErr.ConstraintName, "idempotency_token") {
			// Replay concorrente com o mesmo token: desfazer o incremento e
			// devolver a reserva já existente
			if err := tx.Rollback(ctx); err != nil {
				return nil, false, fmt.Errorf("falha ao desfazer transação: %w", err)
			}
			existing, err := r.FindDocumentByToken(ctx, doc.IdempotencyToken)
			if err != nil {
				return nil, false, fmt.Errorf("falha ao recuperar reserva concorrente: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("falha ao inserir documento fiscal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("falha ao confirmar transação: %w", err)
	}

	return doc, true, nil
}

// FindPreEmissionByToken implementa o método FindPreEmissionByToken da interface fiscal.Repository
func (r *FiscalRepository) FindPreEmissionByToken(ctx context.Context, token string) (*fiscal.PreEmission, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, idempotency_token, terminal_id, branch_id, document_model, series, number, payload, created_at
		FROM %s.fiscal_pre_emissions
		WHERE idempotency_token = $1`, schema)

	var pre fiscal.PreEmission
	err = conn.QueryRow(ctx, query, token).Scan(
		&pre.ID, &pre.IdempotencyToken, &pre.TerminalID, &pre.BranchID,
		&pre.DocumentModel, &pre.Series, &pre.Number, &pre.Payload, &pre.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiscal.ErrNotFound
		}
		return nil, fmt.Errorf("falha ao buscar pré-emissão: %w", err)
	}

	return &pre, nil
}

// CreatePreEmission implementa o método CreatePreEmission da interface fiscal.Repository
func (r *FiscalRepository) CreatePreEmission(ctx context.Context, pre *fiscal.PreEmission) (*fiscal.PreEmission, bool, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, false, err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.fiscal_pre_emissions (
			id, idempotency_token, terminal_id, branch_id, document_model, series, number, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, schema)
	_, err = tx.Exec(ctx, insertQuery,
		pre.ID, pre.IdempotencyToken, pre.TerminalID, pre.BranchID,
		pre.DocumentModel, pre.Series, pre.Number, pre.Payload, pre.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Replay: o payload gravado pela primeira chamada permanece
			if err := tx.Rollback(ctx); err != nil {
				return nil, false, fmt.Errorf("falha ao desfazer transação: %w", err)
			}
			existing, err := r.FindPreEmissionByToken(ctx, pre.IdempotencyToken)
			if err != nil {
				return nil, false, fmt.Errorf("falha ao recuperar pré-emissão concorrente: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("falha ao inserir pré-emissão: %w", err)
	}

	statusQuery := fmt.Sprintf(`
		UPDATE %s.fiscal_documents SET
			status = $1,
			updated_at = $2
		WHERE idempotency_token = $3 AND status = $4`, schema)
	if _, err := tx.Exec(ctx, statusQuery, fiscal.StatusPreEmitido, time.Now(), pre.IdempotencyToken, fiscal.StatusReservado); err != nil {
		return nil, false, fmt.Errorf("falha ao atualizar status do documento: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("falha ao confirmar transação: %w", err)
	}

	return pre, true, nil
}

// CancelDocument implementa o método CancelDocument da interface fiscal.Repository
func (r *FiscalRepository) CancelDocument(ctx context.Context, cancellation *fiscal.Cancellation) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	updateQuery := fmt.Sprintf(`
		UPDATE %s.fiscal_documents SET
			status = $1,
			protocol = $2,
			updated_at = $3
		WHERE id = $4 AND status IN ($5, $6, $7)`, schema)
	tag, err := tx.Exec(ctx, updateQuery,
		fiscal.StatusCancelado, cancellation.Protocol, time.Now(), cancellation.DocumentID,
		fiscal.StatusReservado, fiscal.StatusPreEmitido, fiscal.StatusEmitido)
	if err != nil {
		return fmt.Errorf("falha ao cancelar documento: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fiscal.ErrInvalidTransition
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.fiscal_cancellations (
			id, document_id, branch_id, access_key, series, number, motive, protocol, status, message, created_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)`, schema)
	_, err = tx.Exec(ctx, insertQuery,
		cancellation.ID, cancellation.DocumentID, cancellation.BranchID, cancellation.AccessKey,
		cancellation.Series, cancellation.Number, cancellation.Motive, cancellation.Protocol,
		cancellation.Status, cancellation.Message, cancellation.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao registrar cancelamento: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("falha ao confirmar transação: %w", err)
	}

	return nil
}

// MarkDocumentEmitted implementa o método MarkDocumentEmitted da interface fiscal.Repository
func (r *FiscalRepository) MarkDocumentEmitted(ctx context.Context, documentID, accessKey, protocol string) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s.fiscal_documents SET
			status = $1,
			access_key = $2,
			protocol = $3,
			updated_at = $4
		WHERE id = $5 AND status IN ($6, $7)`, schema)
	tag, err := conn.Exec(ctx, query,
		fiscal.StatusEmitido, accessKey, protocol, time.Now(), documentID,
		fiscal.StatusReservado, fiscal.StatusPreEmitido)
	if err != nil {
		return fmt.Errorf("falha ao marcar documento como emitido: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fiscal.ErrInvalidTransition
	}

	return nil
}

// CreateInutilization implementa o método CreateInutilization da interface fiscal.Repository.
// As verificações de conflito e a inserção são serializadas por um advisory lock
// transacional por (filial, modelo, série).
func (r *FiscalRepository) CreateInutilization(ctx context.Context, inut *fiscal.Inutilization) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := fmt.Sprintf("%s:%s:%d", inut.BranchID, inut.DocumentModel, inut.Series)
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
		return fmt.Errorf("falha ao obter bloqueio da série: %w", err)
	}

	var overlaps bool
	overlapQuery := fmt.Sprintf(`
		SELECT EXISTS(
			SELECT 1 FROM %s.fiscal_inutilizations
			WHERE branch_id = $1 AND document_model = $2 AND series = $3
			  AND number_start <= $5 AND number_end >= $4
		)`, schema)
	if err := tx.QueryRow(ctx, overlapQuery, inut.BranchID, inut.DocumentModel, inut.Series, inut.NumberStart, inut.NumberEnd).Scan(&overlaps); err != nil {
		return fmt.Errorf("falha ao verificar inutilizações existentes: %w", err)
	}
	if overlaps {
		return fiscal.ErrRangeOverlap
	}

	var inUse bool
	inUseQuery := fmt.Sprintf(`
		SELECT EXISTS(
			SELECT 1 FROM %s.fiscal_documents
			WHERE branch_id = $1 AND document_model = $2 AND series = $3
			  AND number BETWEEN $4 AND $5
		)`, schema)
	if err := tx.QueryRow(ctx, inUseQuery, inut.BranchID, inut.DocumentModel, inut.Series, inut.NumberStart, inut.NumberEnd).Scan(&inUse); err != nil {
		return fmt.Errorf("falha ao verificar números utilizados: %w", err)
	}
	if inUse {
		return fiscal.ErrNumberInUse
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.fiscal_inutilizations (
			id, branch_id, document_model, series, number_start, number_end, motive, protocol, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, schema)
	_, err = tx.Exec(ctx, insertQuery,
		inut.ID, inut.BranchID, inut.DocumentModel, inut.Series, inut.NumberStart,
		inut.NumberEnd, inut.Motive, inut.Protocol, inut.Status, inut.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao registrar inutilização: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("falha ao confirmar transação: %w", err)
	}

	return nil
}

// ListInutilizations implementa o método ListInutilizations da interface fiscal.Repository
func (r *FiscalRepository) ListInutilizations(ctx context.Context, branchID string, model fiscal.DocumentModel, series int) ([]*fiscal.Inutilization, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, branch_id, document_model, series, number_start, number_end, motive, protocol, status, created_at
		FROM %s.fiscal_inutilizations
		WHERE branch_id = $1 AND document_model = $2 AND series = $3
		ORDER BY number_start`, schema)

	rows, err := conn.Query(ctx, query, branchID, model, series)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar inutilizações: %w", err)
	}
	defer rows.Close()

	inuts := []*fiscal.Inutilization{}
	for rows.Next() {
		var inut fiscal.Inutilization
		err = rows.Scan(
			&inut.ID, &inut.BranchID, &inut.DocumentModel, &inut.Series, &inut.NumberStart,
			&inut.NumberEnd, &inut.Motive, &inut.Protocol, &inut.Status, &inut.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler inutilização: %w", err)
		}
		inuts = append(inuts, &inut)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar inutilizações: %w", err)
	}

	return inuts, nil
}

// ListCountersByTerminal implementa o método ListCountersByTerminal da interface fiscal.Repository
func (r *FiscalRepository) ListCountersByTerminal(ctx context.Context, terminalID string) ([]*fiscal.SequenceCounter, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT terminal_id, document_model, series, last_number, active, created_at, updated_at
		FROM %s.fiscal_counters
		WHERE terminal_id = $1
		ORDER BY document_model, series`, schema)

	rows, err := conn.Query(ctx, query, terminalID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar contadores: %w", err)
	}
	defer rows.Close()

	counters := []*fiscal.SequenceCounter{}
	for rows.Next() {
		var counter fiscal.SequenceCounter
		err = rows.Scan(
			&counter.TerminalID, &counter.DocumentModel, &counter.Series,
			&counter.LastNumber, &counter.Active, &counter.CreatedAt, &counter.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler contador: %w", err)
		}
		counters = append(counters, &counter)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar contadores: %w", err)
	}

	return counters, nil
}
