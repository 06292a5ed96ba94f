package controller

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-fiscal/internal/domain/certificate"
	"github.com/hugohenrick/pdv-fiscal/pkg/logger"
	"github.com/hugohenrick/pdv-fiscal/pkg/pkcs12"
	"github.com/hugohenrick/pdv-fiscal/pkg/tenant"
)

// maxCertificateSize limita o tamanho do arquivo PKCS#12 aceito no upload
const maxCertificateSize = 1 << 20

// CertificateController manipula as requisições relacionadas a certificados digitais
type CertificateController struct {
	certificateRepo certificate.Repository
	logger          logger.Logger
}

// NewCertificateController cria uma nova instância de CertificateController
func NewCertificateController(certificateRepo certificate.Repository, logger logger.Logger) *CertificateController {
	return &CertificateController{
		certificateRepo: certificateRepo,
		logger:          logger,
	}
}

// @Summary Enviar certificado
// @Description Faz upload de um certificado digital A1 (PKCS#12) para uma filial. A validade é extraída do próprio arquivo.
// @Tags Certificados
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param branch_id formData string true "ID da filial"
// @Param name formData string true "Nome do certificado"
// @Param password formData string true "Senha do certificado"
// @Param is_active formData bool false "Ativar o certificado"
// @Param certificate formData file true "Arquivo PKCS#12 (.pfx)"
// @Success 201 {object} dto.CertificateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates [post]
func (c *CertificateController) Upload(ctx *gin.Context) {
	var req dto.CertificateUploadRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	fileHeader, err := ctx.FormFile("certificate")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "arquivo do certificado é obrigatório", err.Error()))
		return
	}
	if fileHeader.Size > maxCertificateSize {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "arquivo do certificado excede o tamanho máximo", ""))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Error("falha ao abrir arquivo do certificado", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao processar arquivo", ""))
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		c.logger.Error("falha ao ler arquivo do certificado", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao processar arquivo", ""))
		return
	}
	pfxData := buf.Bytes()

	// A validade vem do próprio certificado; senha errada ou arquivo corrompido
	// falham aqui, antes de tocar no banco
	leaf, err := pkcs12.LeafCertificate(pfxData, req.Password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrNoCertificate) {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "arquivo não contém certificado", ""))
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "certificado inválido ou senha incorreta", err.Error()))
		return
	}

	tenantID := tenant.GetTenantIDFromContext(ctx.Request.Context())

	cert, err := certificate.NewCertificate(tenantID, req.BranchID, req.Name, leaf.NotAfter)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}
	cert.IsActive = req.IsActive

	if err := cert.StoreCertificateData(pfxData, req.Password); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	if err := c.certificateRepo.Create(ctx.Request.Context(), cert); err != nil {
		if strings.Contains(err.Error(), "não encontrada") {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "filial não encontrada", err.Error()))
			return
		}
		c.logger.Error("falha ao gravar certificado", "error", err.Error(), "branch_id", req.BranchID)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao gravar certificado", ""))
		return
	}

	c.logger.Info("certificado registrado",
		"certificate_id", cert.ID,
		"branch_id", cert.BranchID,
		"expiration_date", cert.ExpirationDate,
		"is_active", cert.IsActive)

	ctx.JSON(http.StatusCreated, dto.NewCertificateResponse(cert))
}

// @Summary Listar certificados
// @Description Lista os certificados de uma filial
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param branch_id query string true "ID da filial"
// @Success 200 {object} dto.CertificateListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	branchID := ctx.Query("branch_id")
	if branchID == "" {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", "branch_id é obrigatório"))
		return
	}

	certs, err := c.certificateRepo.ListByBranch(ctx.Request.Context(), branchID)
	if err != nil {
		c.logger.Error("falha ao listar certificados", "error", err.Error(), "branch_id", branchID)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao listar certificados", ""))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCertificateListResponse(certs))
}

// @Summary Buscar certificado ativo
// @Description Busca o certificado ativo de uma filial
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param branch_id path string true "ID da filial"
// @Success 200 {object} dto.CertificateResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /branches/{branch_id}/certificate [get]
func (c *CertificateController) GetActive(ctx *gin.Context) {
	branchID := ctx.Param("branch_id")

	cert, err := c.certificateRepo.FindActiveCertificate(ctx.Request.Context(), branchID)
	if err != nil {
		if strings.Contains(err.Error(), "não encontrado") {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "certificado ativo não encontrado", ""))
			return
		}
		c.logger.Error("falha ao buscar certificado ativo", "error", err.Error(), "branch_id", branchID)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao buscar certificado", ""))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCertificateResponse(cert))
}

// @Summary Desativar certificado
// @Description Desativa um certificado digital
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param id path string true "ID do certificado"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates/{id} [delete]
func (c *CertificateController) Deactivate(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := c.certificateRepo.Deactivate(ctx.Request.Context(), id); err != nil {
		if strings.Contains(err.Error(), "não encontrado") {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "certificado não encontrado", ""))
			return
		}
		c.logger.Error("falha ao desativar certificado", "error", err.Error(), "certificate_id", id)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao desativar certificado", ""))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("certificado desativado", nil))
}
