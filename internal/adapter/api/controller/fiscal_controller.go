package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/dto"
	"github.com/hugohenrick/pdv-fiscal/internal/domain/fiscal"
	"github.com/hugohenrick/pdv-fiscal/pkg/branch"
	"github.com/hugohenrick/pdv-fiscal/pkg/logger"
)

// FiscalController manipula as requisições do motor de numeração fiscal
type FiscalController struct {
	service *fiscal.Service
	logger  logger.Logger
}

// NewFiscalController cria uma nova instância de FiscalController
func NewFiscalController(service *fiscal.Service, logger logger.Logger) *FiscalController {
	return &FiscalController{
		service: service,
		logger:  logger,
	}
}

// respondError converte um erro do motor fiscal na resposta HTTP apropriada
func (c *FiscalController) respondError(ctx *gin.Context, err error) {
	if fe, ok := fiscal.AsError(err); ok {
		ctx.JSON(httpStatusFor(fe.Kind), dto.NewCodedErrorResponse(httpStatusFor(fe.Kind), fe.Code, fe.Message))
		return
	}

	c.logger.Error("erro não classificado no controlador fiscal", "error", err.Error())
	ctx.JSON(http.StatusInternalServerError, dto.NewCodedErrorResponse(http.StatusInternalServerError, fiscal.CodeInternal, "erro interno"))
}

func httpStatusFor(kind fiscal.ErrorKind) int {
	switch kind {
	case fiscal.KindValidation:
		return http.StatusBadRequest
	case fiscal.KindNotFound:
		return http.StatusNotFound
	case fiscal.KindPermissionDenied:
		return http.StatusForbidden
	case fiscal.KindForbidden:
		return http.StatusUnprocessableEntity
	case fiscal.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// actorID obtém o ID do usuário autenticado colocado no contexto pelo middleware
func actorID(ctx *gin.Context) string {
	return ctx.GetString("user_id")
}

// @Summary Reservar numeração
// @Description Reserva o próximo número da sequência (terminal, série) de forma idempotente
// @Tags Fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param reservation body dto.ReservationRequest true "Dados da reserva"
// @Success 200 {object} dto.ReservationResponse
// @Success 201 {object} dto.ReservationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/reservations [post]
func (c *FiscalController) Reserve(ctx *gin.Context) {
	var req dto.ReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	doc, created, err := c.service.Reserve(ctx.Request.Context(), actorID(ctx), req.TerminalID, req.Series, req.IdempotencyToken)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	ctx.JSON(status, dto.NewReservationResponse(doc))
}

// @Summary Consultar reserva
// @Description Busca a reserva associada a um token de idempotência
// @Tags Fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param token path string true "Token de idempotência"
// @Success 200 {object} dto.ReservationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/reservations/{token} [get]
func (c *FiscalController) GetReservation(ctx *gin.Context) {
	token := ctx.Param("token")

	doc, err := c.service.GetReservation(ctx.Request.Context(), actorID(ctx), token)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewReservationResponse(doc))
}

// @Summary Registrar pré-emissão
// @Description Anexa o payload do documento à reserva antes da emissão, de forma idempotente
// @Tags Fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param preEmission body dto.PreEmissionRequest true "Dados da pré-emissão"
// @Success 200 {object} dto.PreEmissionResponse
// @Success 201 {object} dto.PreEmissionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/pre-emissions [post]
func (c *FiscalController) SubmitPreEmission(ctx *gin.Context) {
	var req dto.PreEmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	pre, created, err := c.service.SubmitPreEmission(ctx.Request.Context(), actorID(ctx), req.IdempotencyToken, req.Payload)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	ctx.JSON(status, dto.NewPreEmissionResponse(pre, created))
}

// @Summary Registrar emissão
// @Description Registra o resultado do passo externo de emissão, avançando o documento para EMITIDO
// @Tags Fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param emission body dto.EmissionRequest true "Resultado da emissão"
// @Success 200 {object} dto.ReservationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/emissions [post]
func (c *FiscalController) MarkEmitted(ctx *gin.Context) {
	var req dto.EmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	doc, err := c.service.MarkEmitted(ctx.Request.Context(), actorID(ctx), req.IdempotencyToken, req.AccessKey, req.Protocol)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewReservationResponse(doc))
}

// @Summary Cancelar documento
// @Description Cancela um documento identificado pela chave de acesso ou por (filial, número, série)
// @Tags Fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param cancellation body dto.CancellationRequest true "Dados do cancelamento"
// @Success 200 {object} dto.CancellationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/cancellations [post]
func (c *FiscalController) Cancel(ctx *gin.Context) {
	var req dto.CancellationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	// Terminais podem omitir branch_id no corpo e enviar o cabeçalho branch-id
	branchID := req.BranchID
	if branchID == "" && req.AccessKey == "" {
		branchID = branch.GetBranchID(ctx.Request.Context())
	}

	lookup := fiscal.CancellationLookup{
		AccessKey: req.AccessKey,
		BranchID:  branchID,
		Number:    req.Number,
		Series:    req.Series,
	}

	cancellation, err := c.service.Cancel(ctx.Request.Context(), actorID(ctx), lookup, req.Motive)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCancellationResponse(cancellation))
}

// @Summary Inutilizar faixa de numeração
// @Description Declara uma faixa contígua de números como permanentemente inutilizada
// @Tags Fiscal
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param inutilization body dto.InutilizationRequest true "Dados da inutilização"
// @Success 201 {object} dto.InutilizationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/inutilizations [post]
func (c *FiscalController) Inutilize(ctx *gin.Context) {
	var req dto.InutilizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", err.Error()))
		return
	}

	inut, err := c.service.InutilizeRange(ctx.Request.Context(), actorID(ctx), req.BranchID, req.Series, req.NumberStart, req.NumberEnd, req.Motive)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewInutilizationResponse(inut))
}

// @Summary Listar inutilizações
// @Description Lista as faixas inutilizadas de uma série da filial
// @Tags Fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param branch_id query string true "ID da filial"
// @Param series query int true "Série"
// @Success 200 {object} dto.InutilizationListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /fiscal/inutilizations [get]
func (c *FiscalController) ListInutilizations(ctx *gin.Context) {
	branchID := ctx.Query("branch_id")
	if branchID == "" {
		branchID = branch.GetBranchID(ctx.Request.Context())
	}
	if branchID == "" {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", "branch_id é obrigatório"))
		return
	}

	series, err := strconv.Atoi(ctx.Query("series"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "dados inválidos", "series deve ser um número inteiro"))
		return
	}

	inuts, err := c.service.ListInutilizations(ctx.Request.Context(), actorID(ctx), branchID, series)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewInutilizationListResponse(inuts))
}

// @Summary Listar contadores do terminal
// @Description Lista os contadores de numeração de um terminal
// @Tags Fiscal
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param tenant-id header string true "ID do tenant"
// @Param id path string true "ID do terminal"
// @Success 200 {object} dto.CounterListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /terminals/{id}/counters [get]
func (c *FiscalController) ListCounters(ctx *gin.Context) {
	terminalID := ctx.Param("id")

	counters, err := c.service.ListTerminalCounters(ctx.Request.Context(), actorID(ctx), terminalID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCounterListResponse(counters))
}
