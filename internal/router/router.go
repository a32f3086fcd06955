package router

import (
	"time"

	"cajaledger/internal/config"
	"cajaledger/internal/handler"
	"cajaledger/internal/middleware"
	"cajaledger/internal/repository"
	"cajaledger/internal/service"
	"cajaledger/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

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
	cajaRepo := repository.NewCajaRepository(db)
	sesionRepo := repository.NewSesionRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	arqueoRepo := repository.NewArqueoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — arqueos with desvío enqueue an async alert
	dispatcher := worker.NewDispatcher(rdb)

	cajaSvc := service.NewCajaService(cajaRepo)
	sesionSvc := service.NewSesionService(cajaRepo, sesionRepo, movimientoRepo, ventaRepo)
	movimientoSvc := service.NewMovimientoService(movimientoRepo, sesionRepo)
	arqueoSvc := service.NewArqueoService(sesionRepo, movimientoRepo, ventaRepo, arqueoRepo, cfg, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cajaH := handler.NewCajaHandler(cajaSvc)
	sesionH := handler.NewSesionHandler(sesionSvc)
	movimientoH := handler.NewMovimientoHandler(movimientoSvc)
	arqueoH := handler.NewArqueoHandler(arqueoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Registro de cajas — administrador only for writes
		cajas := v1.Group("/cajas")
		{
			cajas.POST("", middleware.RequireRole("administrador"), cajaH.Crear)
			cajas.GET("", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Listar)
			cajas.PATCH("/:id/desactivar", middleware.RequireRole("administrador"), cajaH.Desactivar)
			cajas.PATCH("/:id/reactivar", middleware.RequireRole("administrador"), cajaH.Reactivar)

			cajas.GET("/:id/sesion-activa", middleware.RequireRole("cajero", "supervisor", "administrador"), sesionH.GetActiva)
			cajas.GET("/:id/sesiones", middleware.RequireRole("supervisor", "administrador"), sesionH.Historial)
		}

		sesiones := v1.Group("/sesiones")
		{
			sesiones.POST("/abrir", middleware.RequireRole("cajero", "supervisor", "administrador"), sesionH.Abrir)
			sesiones.POST("/:id/cierre", middleware.RequireRole("cajero", "supervisor", "administrador"), sesionH.SolicitarCierre)
			sesiones.GET("/:id/saldo-esperado", middleware.RequireRole("cajero", "supervisor", "administrador"), sesionH.SaldoEsperado)

			sesiones.POST("/:id/movimientos", middleware.RequireRole("cajero", "supervisor", "administrador"), movimientoH.Registrar)
			sesiones.GET("/:id/movimientos", middleware.RequireRole("cajero", "supervisor", "administrador"), movimientoH.Listar)

			sesiones.POST("/:id/arqueo", middleware.RequireRole("cajero", "supervisor", "administrador"), arqueoH.Arqueo)
			sesiones.GET("/:id/arqueo", middleware.RequireRole("supervisor", "administrador"), arqueoH.Obtener)
			sesiones.GET("/:id/arqueo/pdf", middleware.RequireRole("supervisor", "administrador"), arqueoH.DescargarPDF)
		}

		// Anulación por supervisor — el cajero no anula sus propios movimientos
		v1.POST("/movimientos/:id/anular", middleware.RequireRole("supervisor", "administrador"), movimientoH.Anular)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
