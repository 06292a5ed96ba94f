package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-fiscal/internal/domain/terminal"
	"github.com/hugohenrick/pdv-fiscal/pkg/logger"
	"github.com/hugohenrick/pdv-fiscal/pkg/tenant"
)

// TerminalController manipula as requisições relacionadas a terminais (caixas)
type TerminalController struct {
	terminalRepo terminal.Repository
	logger       logger.Logger
}

// NewTerminalController cria uma nova instância de TerminalController
func NewTerminalController(terminalRepo terminal.Repository, logger logger.Logger) *TerminalController {
	return &TerminalController{
		terminalRepo: terminalRepo,
		logger:       logger,
	}
}

// @Summary Criar terminal
// @Description Cria um novo terminal vinculado a uma filial
// @Tags Terminais
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param terminal body dto.TerminalRequest true "Dados do terminal"
// @Success 201 {object} dto.TerminalResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /terminals [post]
func (c *TerminalController) Create(ctx *gin.Context) {
	var req dto.TerminalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	tenantID := tenant.GetTenantIDFromContext(ctx.Request.Context())

	t, err := terminal.NewTerminal(tenantID, req.BranchID, req.Name, req.Code)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	if err := c.terminalRepo.Create(ctx.Request.Context(), t); err != nil {
		if strings.Contains(err.Error(), "não encontrada") {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "filial não encontrada", err.Error()))
			return
		}
		c.logger.Error("falha ao criar terminal", "error", err.Error(), "branch_id", req.BranchID)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao criar terminal", ""))
		return
	}

	c.logger.Info("terminal criado", "terminal_id", t.ID, "branch_id", t.BranchID, "code", t.Code)

	ctx.JSON(http.StatusCreated, dto.NewTerminalResponse(t))
}

// @Summary Buscar terminal
// @Description Busca um terminal pelo ID
// @Tags Terminais
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param id path string true "ID do terminal"
// @Success 200 {object} dto.TerminalResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /terminals/{id} [get]
func (c *TerminalController) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	t, err := c.terminalRepo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "não encontrado") {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "terminal não encontrado", ""))
			return
		}
		c.logger.Error("falha ao buscar terminal", "error", err.Error(), "terminal_id", id)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao buscar terminal", ""))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewTerminalResponse(t))
}

// @Summary Listar terminais
// @Description Lista os terminais de uma filial
// @Tags Terminais
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param branch_id query string true "ID da filial"
// @Param page query int false "Página"
// @Param page_size query int false "Itens por página"
// @Success 200 {object} dto.TerminalListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /terminals [get]
func (c *TerminalController) List(ctx *gin.Context) {
	branchID := ctx.Query("branch_id")
	if branchID == "" {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", "branch_id é obrigatório"))
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	pagination := dto.GetPagination(page, pageSize)

	offset := (pagination.Page - 1) * pagination.PageSize
	terminals, err := c.terminalRepo.ListByBranch(ctx.Request.Context(), branchID, pagination.PageSize, offset)
	if err != nil {
		c.logger.Error("falha ao listar terminais", "error", err.Error(), "branch_id", branchID)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao listar terminais", ""))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewTerminalListResponse(terminals, len(terminals), pagination.Page, pagination.PageSize))
}

// @Summary Atualizar status do terminal
// @Description Ativa ou desativa um terminal
// @Tags Terminais
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param id path string true "ID do terminal"
// @Param status body dto.TerminalStatusRequest true "Novo status"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /terminals/{id}/status [put]
func (c *TerminalController) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	var req dto.TerminalStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	if err := c.terminalRepo.UpdateStatus(ctx.Request.Context(), id, *req.Active); err != nil {
		if strings.Contains(err.Error(), "não encontrado") {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "terminal não encontrado", ""))
			return
		}
		c.logger.Error("falha ao atualizar status do terminal", "error", err.Error(), "terminal_id", id)
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "erro ao atualizar terminal", ""))
		return
	}

	c.logger.Info("status do terminal atualizado", "terminal_id", id, "active", *req.Active)

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("status do terminal atualizado", nil))
}
