package router

import (
	"time"

	"amexing/internal/config"
	"amexing/internal/handler"
	"amexing/internal/middleware"
	"amexing/internal/repository"
	"amexing/internal/service"
	"amexing/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
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
	rateRepo := repository.NewRateRepository(db)
	vehicleRepo := repository.NewVehicleTypeRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	tourRepo := repository.NewTourRepository(db)
	experienceRepo := repository.NewExperienceRepository(db)
	ratePriceRepo := repository.NewRatePriceRepository(db)
	tourPriceRepo := repository.NewTourPriceRepository(db)
	clientPriceRepo := repository.NewClientPriceRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	catalogSvc := service.NewCatalogService(
		rateRepo, vehicleRepo, serviceRepo, tourRepo, experienceRepo,
		ratePriceRepo, tourPriceRepo,
	)
	pricingSvc := service.NewPricingService(ratePriceRepo, tourPriceRepo, clientPriceRepo, cfg.DefaultCurrency)

	// Worker dispatcher — injected into the quote save path for revision jobs
	dispatcher := worker.NewDispatcher(rdb)

	quoteSvc := service.NewQuoteService(quoteRepo, rateRepo, pricingSvc, dispatcher, cfg.IVARate)

	// ── Handlers ─────────────────────────────────────────────────────────────
	catalogH := handler.NewCatalogHandler(catalogSvc, rdb)
	catalogAdminH := handler.NewCatalogAdminHandler(rateRepo, vehicleRepo, serviceRepo, tourRepo, rdb)
	clientPricesH := handler.NewClientPricesHandler(pricingSvc)
	quotesH := handler.NewQuotesHandler(quoteSvc, quoteRepo, cfg.PDFStoragePath)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	readRoles := middleware.RequireRole(
		middleware.RolCotizador, middleware.RolSupervisor, middleware.RolAdministrador,
	)
	priceRoles := middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador)
	adminOnly := middleware.RequireRole(middleware.RolAdministrador)

	v1 := r.Group("/v1", jwtMW)
	{
		// Catalog reads — every back-office role
		v1.GET("/rates/active", readRoles, catalogH.ListRates)
		v1.GET("/services/by-rate/:rateId", readRoles, catalogH.ListServicesByRate)
		v1.GET("/tours/destinations/by-rate/:rateId", readRoles, catalogH.ListTourDestinations)
		v1.GET("/tours/vehicles/by-rate-destination/:rateId/:destId", readRoles, catalogH.ListTourVehicles)
		v1.GET("/experiences", readRoles, catalogH.ListExperiences)

		// Catalog writes — administrador only
		v1.POST("/rates", adminOnly, catalogAdminH.CreateRate)
		v1.DELETE("/rates/:id", adminOnly, catalogAdminH.DeleteRate)
		v1.POST("/vehicle-types", adminOnly, catalogAdminH.CreateVehicleType)
		v1.DELETE("/vehicle-types/:id", adminOnly, catalogAdminH.DeleteVehicleType)
		v1.POST("/services", adminOnly, catalogAdminH.CreateService)
		v1.DELETE("/services/:id", adminOnly, catalogAdminH.DeleteService)
		v1.POST("/tours", adminOnly, catalogAdminH.CreateTour)
		v1.DELETE("/tours/:id", adminOnly, catalogAdminH.DeleteTour)

		// Client price overrides — versioning writes need supervisor rights
		v1.POST("/services/client-prices", priceRoles, clientPricesH.SubmitServicePrices)
		v1.POST("/tours/client-prices", priceRoles, clientPricesH.SubmitTourPrices)
		v1.GET("/client-prices/matrix", readRoles, clientPricesH.Matrix)

		// Quotes
		v1.GET("/quotes/:id", readRoles, quotesH.GetQuote)
		v1.PUT("/quotes/:id/service-items", readRoles, quotesH.UpdateServiceItems)
		v1.GET("/quotes/:id/revisions", priceRoles, quotesH.ListRevisions)
		v1.GET("/quotes/:id/pdf", readRoles, quotesH.ExportPDF)
	}

	return r
}
