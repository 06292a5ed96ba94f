package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/controller"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/api/route"
	"github.com/hugohenrick/pdv-fiscal/internal/adapter/repository"
	"github.com/hugohenrick/pdv-fiscal/internal/domain/fiscal"
	"github.com/hugohenrick/pdv-fiscal/internal/infrastructure/config"
	"github.com/hugohenrick/pdv-fiscal/internal/infrastructure/database"
	"github.com/hugohenrick/pdv-fiscal/pkg/branch"
	"github.com/hugohenrick/pdv-fiscal/pkg/logger"
	"github.com/hugohenrick/pdv-fiscal/pkg/tenant"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// App representa a aplicação e suas dependências
type App struct {
	config *config.Config
	router *gin.Engine
	db     *pgxpool.Pool
	logger logger.Logger

	fiscalController      *controller.FiscalController
	terminalController    *controller.TerminalController
	certificateController *controller.CertificateController
}

// NewApp cria uma nova instância do aplicativo
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	// Criar repositórios
	tenantRepo := repository.NewTenantRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	terminalRepo := repository.NewTerminalRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	fiscalRepo := repository.NewFiscalRepository(db)

	// Criar serviço do motor fiscal
	fiscalService := fiscal.NewService(
		fiscalRepo,
		terminalRepo,
		branchRepo,
		certificateRepo,
		fiscal.Policy{CancelRequiresValidCertificate: cfg.CancelRequiresValidCertificate},
		log,
	)

	// Criar controllers
	fiscalController := controller.NewFiscalController(fiscalService, log)
	terminalController := controller.NewTerminalController(terminalRepo, log)
	certificateController := controller.NewCertificateController(certificateRepo, log)

	// Configurar router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "tenant-id", "branch-id"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	app := &App{
		config:                cfg,
		router:                router,
		db:                    db,
		logger:                log,
		fiscalController:      fiscalController,
		terminalController:    terminalController,
		certificateController: certificateController,
	}

	app.setupRoutes(repository.NewTenantValidator(tenantRepo))

	return app, nil
}

// setupRoutes configura as rotas da aplicação
func (a *App) setupRoutes(tenantValidator tenant.TenantValidator) {
	api := a.router.Group(a.config.BasePath)

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	// Documentação
	a.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Rotas protegidas por tenant
	protected := api.Group("")
	protected.Use(tenant.TenantMiddleware(tenantValidator))
	protected.Use(branch.BranchMiddleware())

	route.SetupFiscalRoutes(protected, a.fiscalController)
	route.SetupTerminalRoutes(protected, a.terminalController, a.fiscalController)
	route.SetupCertificateRoutes(protected, a.certificateController)
}

// Start inicia o servidor HTTP
func (a *App) Start() error {
	a.logger.Info("servidor iniciado", "port", a.config.Port, "base_path", a.config.BasePath)
	return a.router.Run(":" + a.config.Port)
}

// Close libera os recursos da aplicação
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
