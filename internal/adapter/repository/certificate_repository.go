package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/certificate"
	"github.com/hugohenrick/pdv-fiscal/internal/domain/fiscal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CertificateRepository implementa a interface certificate.Repository e o
// verificador de certificados consumido pelo motor fiscal
type CertificateRepository struct {
	db *pgxpool.Pool
}

// NewCertificateRepository cria uma nova instância de CertificateRepository
func NewCertificateRepository(db *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{
		db: db,
	}
}

const certificateColumns = `
	id, tenant_id, branch_id, name, certificate_data, COALESCE(password, ''),
	expiration_date, is_active, created_at, updated_at`

func scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var cert certificate.Certificate
	err := row.Scan(
		&cert.ID, &cert.TenantID, &cert.BranchID, &cert.Name, &cert.CertificateData,
		&cert.Password, &cert.ExpirationDate, &cert.IsActive, &cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// Create implementa o método Create da interface certificate.Repository
func (r *CertificateRepository) Create(ctx context.Context, cert *certificate.Certificate) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	// Verificar se a filial existe
	var exists bool
	err = conn.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s.branches WHERE id = $1)", schema), cert.BranchID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("falha ao verificar se a filial existe: %w", err)
	}
	if !exists {
		return fmt.Errorf("filial com ID %s não encontrada", cert.BranchID)
	}

	// Desativar outros certificados ativos da filial
	if cert.IsActive {
		_, err = conn.Exec(ctx, fmt.Sprintf("UPDATE %s.branch_certificates SET is_active = false WHERE branch_id = $1 AND is_active = true", schema), cert.BranchID)
		if err != nil {
			return fmt.Errorf("falha ao desativar certificados existentes: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.branch_certificates (
			id, tenant_id, branch_id, name, certificate_data, password,
			expiration_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, schema)

	_, err = conn.Exec(ctx, query,
		cert.ID, cert.TenantID, cert.BranchID, cert.Name, cert.CertificateData,
		cert.Password, cert.ExpirationDate, cert.IsActive, cert.CreatedAt, cert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("falha ao inserir certificado: %w", err)
	}

	return nil
}

// FindByID implementa o método FindByID da interface certificate.Repository
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*certificate.Certificate, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s.branch_certificates WHERE id = $1", certificateColumns, schema)
	cert, err := scanCertificate(conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("certificado com ID %s não encontrado", id)
		}
		return nil, fmt.Errorf("falha ao buscar certificado: %w", err)
	}

	return cert, nil
}

// FindActiveCertificate implementa o método FindActiveCertificate da interface certificate.Repository
func (r *CertificateRepository) FindActiveCertificate(ctx context.Context, branchID string) (*certificate.Certificate, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s.branch_certificates WHERE branch_id = $1 AND is_active = true", certificateColumns, schema)
	cert, err := scanCertificate(conn.QueryRow(ctx, query, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("certificado ativo não encontrado para a filial %s", branchID)
		}
		return nil, fmt.Errorf("falha ao buscar certificado ativo: %w", err)
	}

	return cert, nil
}

// ListByBranch implementa o método ListByBranch da interface certificate.Repository
func (r *CertificateRepository) ListByBranch(ctx context.Context, branchID string) ([]*certificate.Certificate, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s.branch_certificates WHERE branch_id = $1 ORDER BY created_at DESC", certificateColumns, schema)
	rows, err := conn.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar certificados: %w", err)
	}
	defer rows.Close()

	certs := []*certificate.Certificate{}
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler certificado: %w", err)
		}
		certs = append(certs, cert)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar certificados: %w", err)
	}

	return certs, nil
}

// Deactivate implementa o método Deactivate da interface certificate.Repository
func (r *CertificateRepository) Deactivate(ctx context.Context, id string) error {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s.branch_certificates SET is_active = false, updated_at = $1 WHERE id = $2", schema)
	tag, err := conn.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("falha ao desativar certificado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("certificado com ID %s não encontrado", id)
	}

	return nil
}

// CertificateExpiration implementa a interface fiscal.CertificateChecker
func (r *CertificateRepository) CertificateExpiration(ctx context.Context, branchID string) (time.Time, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("falha ao adquirir conexão: %w", err)
	}
	defer conn.Release()

	schema, err := tenantSchema(ctx, conn)
	if err != nil {
		return time.Time{}, err
	}

	var expiration time.Time
	query := fmt.Sprintf("SELECT expiration_date FROM %s.branch_certificates WHERE branch_id = $1 AND is_active = true", schema)
	err = conn.QueryRow(ctx, query, branchID).Scan(&expiration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fiscal.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("falha ao buscar validade do certificado: %w", err)
	}

	return expiration, nil
}
