package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-fiscal/pkg/middleware"
)

// SetupTerminalRoutes configura as rotas para o módulo de terminais
func SetupTerminalRoutes(router *gin.RouterGroup, terminalController *controller.TerminalController, fiscalController *controller.FiscalController) {
	terminalRouter := router.Group("/terminals")
	terminalRouter.Use(middleware.AuthMiddleware())
	{
		terminalRouter.POST("", terminalController.Create)
		terminalRouter.GET("", terminalController.List)
		terminalRouter.GET("/:id", terminalController.GetByID)
		terminalRouter.PUT("/:id/status", terminalController.UpdateStatus)

		// Contadores de numeração do terminal
		terminalRouter.GET("/:id/counters", fiscalController.ListCounters)
	}
}
