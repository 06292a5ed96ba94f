package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-fiscal/pkg/middleware"
)

// SetupFiscalRoutes configura as rotas do motor de numeração fiscal
func SetupFiscalRoutes(router *gin.RouterGroup, fiscalController *controller.FiscalController) {
	// Todas as rotas fiscais requerem autenticação e verificação de tenant
	fiscalRouter := router.Group("/fiscal")
	fiscalRouter.Use(middleware.AuthMiddleware())
	{
		// Reserva de numeração e consulta por token de idempotência
		fiscalRouter.POST("/reservations", fiscalController.Reserve)
		fiscalRouter.GET("/reservations/:token", fiscalController.GetReservation)

		// Ciclo de vida do documento
		fiscalRouter.POST("/pre-emissions", fiscalController.SubmitPreEmission)
		fiscalRouter.POST("/emissions", fiscalController.MarkEmitted)
		fiscalRouter.POST("/cancellations", fiscalController.Cancel)

		// Inutilização de faixas
		fiscalRouter.POST("/inutilizations", fiscalController.Inutilize)
		fiscalRouter.GET("/inutilizations", fiscalController.ListInutilizations)
	}
}
