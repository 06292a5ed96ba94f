package route

import (
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-fiscal/pkg/middleware"
)

// SetupCertificateRoutes configura as rotas para o módulo de certificados digitais
func SetupCertificateRoutes(router *gin.RouterGroup, certificateController *controller.CertificateController) {
	certificateRouter := router.Group("/certificates")
	certificateRouter.Use(middleware.AuthMiddleware())
	{
		certificateRouter.POST("", certificateController.Upload)
		certificateRouter.GET("", certificateController.List)
		certificateRouter.DELETE("/:id", certificateController.Deactivate)
	}

	branchRouter := router.Group("/branches")
	branchRouter.Use(middleware.AuthMiddleware())
	{
		branchRouter.GET("/:branch_id/certificate", certificateController.GetActive)
	}
}
