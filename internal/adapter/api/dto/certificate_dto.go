package dto

import (
	"time"

	"github.com/hugohenrick/pdv-fiscal/internal/domain/certificate"
)

// CertificateUploadRequest representa os dados para upload de certificado A1.
// O arquivo PKCS#12 acompanha a requisição como multipart; a data de validade é
// extraída do próprio certificado.
type CertificateUploadRequest struct {
	BranchID string `form:"branch_id" binding:"required"`
	Name     string `form:"name" binding:"required"`
	Password string `form:"password" binding:"required"`
	IsActive bool   `form:"is_active"`
}

// CertificateResponse representa a resposta com dados de um certificado
type CertificateResponse struct {
	ID             string    `json:"id"`
	BranchID       string    `json:"branch_id"`
	Name           string    `json:"name"`
	ExpirationDate time.Time `json:"expiration_date"`
	IsActive       bool      `json:"is_active"`
	IsExpired      bool      `json:"is_expired"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CertificateListResponse representa a resposta com uma lista de certificados
type CertificateListResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
	Total        int                   `json:"total"`
}

// NewCertificateResponse cria um novo CertificateResponse a partir de um certificado
func NewCertificateResponse(cert *certificate.Certificate) *CertificateResponse {
	return &CertificateResponse{
		ID:             cert.ID,
		BranchID:       cert.BranchID,
		Name:           cert.Name,
		ExpirationDate: cert.ExpirationDate,
		IsActive:       cert.IsActive,
		IsExpired:      cert.IsExpired(),
		CreatedAt:      cert.CreatedAt,
		UpdatedAt:      cert.UpdatedAt,
	}
}

// NewCertificateListResponse cria um novo CertificateListResponse
func NewCertificateListResponse(certificates []*certificate.Certificate) *CertificateListResponse {
	response := &CertificateListResponse{
		Certificates: make([]CertificateResponse, 0, len(certificates)),
		Total:        len(certificates),
	}

	for _, cert := range certificates {
		response.Certificates = append(response.Certificates, *NewCertificateResponse(cert))
	}

	return response
}
