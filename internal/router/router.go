package router

import (
	"time"

	"tropicalstore/internal/config"
	"tropicalstore/internal/handler"
	"tropicalstore/internal/middleware"
	"tropicalstore/internal/repository"
	"tropicalstore/internal/service"
	"tropicalstore/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// worker handlers the caller hands to the pool.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *worker.Handlers) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	refRepo := repository.NewReferenceRepository(db)
	productRepo := repository.NewProductRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	importJobRepo := repository.NewImportJobRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)

	gradeSvc := service.NewGradeService(gradeRepo, refRepo)
	availabilitySvc := service.NewAvailabilityService(productRepo, gradeRepo, refRepo, rdb)
	catalogSvc := service.NewCatalogService(productRepo, gradeRepo, refRepo, orderRepo, movementRepo, gradeSvc, availabilitySvc)
	orderSvc := service.NewOrderService(orderRepo, productRepo, gradeRepo, refRepo, movementRepo, availabilitySvc, dispatcher)
	importSvc := service.NewImportService(
		importJobRepo, refRepo, productRepo, catalogSvc, availabilitySvc,
		dispatcher, rdb, time.Duration(cfg.ImportRowTimeoutSeconds)*time.Second,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(catalogSvc)
	gradesH := handler.NewGradesHandler(gradeSvc)
	availabilityH := handler.NewAvailabilityHandler(availabilitySvc)
	ordersH := handler.NewOrdersHandler(orderSvc, cfg.PDFStoragePath)
	importsH := handler.NewImportsHandler(importSvc)
	referencesH := handler.NewReferencesHandler(refRepo)
	movementsH := handler.NewMovementsHandler(movementRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Availability is the storefront read model — no auth required.
	r.GET("/v1/availability/:code", availabilityH.Get)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Reads: staff and admin
		read := middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin)
		v1.GET("/products", read, productsH.List)
		v1.GET("/products/:id", read, productsH.Get)
		v1.GET("/grades", read, gradesH.List)
		v1.GET("/grades/:id", read, gradesH.Get)
		v1.GET("/orders", read, ordersH.List)
		v1.GET("/orders/:id", read, ordersH.Get)
		v1.GET("/orders/:id/receipt", read, ordersH.Receipt)
		v1.GET("/imports/:id", read, importsH.Status)
		v1.GET("/stock-movements/:id", read, movementsH.ListByTarget)

		v1.GET("/categories", read, referencesH.Categories)
		v1.GET("/types", read, referencesH.Types)
		v1.GET("/genders", read, referencesH.Genders)
		v1.GET("/colors", read, referencesH.Colors)
		v1.GET("/sizes", read, referencesH.Sizes)

		// Orders: staff commits, admin voids
		v1.POST("/orders", read, ordersH.Commit)
		v1.DELETE("/orders/:id", middleware.RequireRole(middleware.RoleAdmin), ordersH.Void)

		// Catalog writes — admin only
		admin := v1.Group("", middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.PUT("/products", productsH.Upsert)
			admin.PUT("/products/:code/colors", productsH.UpsertColorVariant)
			admin.PUT("/products/:code/sizes", productsH.UpsertSizeVariant)
			admin.PUT("/products/:code/grades", productsH.UpsertGradeAssociation)
			admin.PATCH("/products/:id/stock-mode", productsH.SwitchStockMode)
			admin.DELETE("/products/:id", productsH.Deactivate)
			admin.PATCH("/products/:id/reactivate", productsH.Reactivate)

			admin.POST("/grades", gradesH.Create)
			admin.POST("/imports", importsH.Enqueue)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	workers := &worker.Handlers{
		Import:  worker.NewImportWorker(importSvc),
		Receipt: worker.NewReceiptWorker(orderRepo, cfg.PDFStoragePath),
	}
	return r, workers
}
