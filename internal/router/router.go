package router

import (
	"time"

	"stockcocina/internal/config"
	"stockcocina/internal/handler"
	"stockcocina/internal/infra"
	"stockcocina/internal/middleware"
	"stockcocina/internal/repository"
	"stockcocina/internal/service"
	"stockcocina/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived objects shared between the HTTP layer and the
// background jobs started by main.
type Deps struct {
	Ledger     *service.Ledger
	Pendientes *service.Pendientes
	Pedidos    repository.PedidoRepository
	Breaker    *infra.CircuitBreaker
}

// NewDeps builds the stock ledger and its collaborators. The ledger starts
// empty; callers run Ledger.Cargar before serving.
func NewDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Deps {
	cbCfg := infra.DefaultCBConfig()
	cbCfg.Name = "stock"
	if cfg.CBFailureThreshold > 0 {
		cbCfg.FailureThreshold = cfg.CBFailureThreshold
	}
	if cfg.CBOpenTimeoutSeg > 0 {
		cbCfg.OpenTimeout = time.Duration(cfg.CBOpenTimeoutSeg) * time.Second
	}
	cbCfg.EsFallo = infra.EsFalloBackend
	cb := infra.NewCircuitBreaker(cbCfg)

	pedidoRepo := repository.NewPedidoRepository(db)
	pendientes := service.NewPendientes(pedidoRepo, rdb)

	var notif service.Notificador = service.LogNotificador{}
	if rdb != nil {
		notif = service.NewRedisNotificador(rdb)
	}

	ledger := service.NewLedger(repository.NewProductoRepository(db), service.LedgerOpciones{
		Movimientos: repository.NewMovimientoStockRepository(db),
		Pendientes:  pendientes,
		Notificador: notif,
		Breaker:     cb,
		Debounce:    cfg.Debounce(),
	})
	return &Deps{Ledger: ledger, Pendientes: pendientes, Pedidos: pedidoRepo, Breaker: cb}
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Ledger ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, deps *Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	recetaRepo := repository.NewRecetaRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var despachador service.DespachadorResumen
	if rdb != nil {
		despachador = worker.NewDispatcher(rdb)
	}

	productoSvc := service.NewProductoService(deps.Ledger, deps.Pendientes, movimientoStockRepo)
	recetaSvc := service.NewRecetaService(recetaRepo, deps.Ledger)
	pedidoSvc := service.NewPedidoService(deps.Pedidos, deps.Ledger, deps.Pendientes, service.PedidoOpciones{
		Location:     cfg.Location(),
		NombreCocina: cfg.NombreCocina,
		Despachador:  despachador,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	productosH := handler.NewProductosHandler(productoSvc)
	recetasH := handler.NewRecetasHandler(recetaSvc, productoSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc, cfg.NombreCocina, cfg.Location())

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb, deps.Breaker))

	v1 := r.Group("/v1")
	{
		prods := v1.Group("/productos")
		{
			prods.GET("", productosH.Listar)
			prods.POST("", productosH.Crear)
			prods.GET("/alertas", productosH.Alertas)
			prods.GET("/candidatos-pedido", productosH.CandidatosPedido)
			prods.GET("/:id", productosH.ObtenerPorID)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.PUT("/:id/stock", productosH.FijarStock)
			prods.PATCH("/:id/stock", productosH.SumarStock)

			prods.GET("/:id/receta", recetasH.Obtener)
			prods.GET("/:id/receta/candidatos", recetasH.CandidatosInsumo)
			prods.POST("/:id/receta", recetasH.AgregarIngrediente)
			prods.DELETE("/:id/receta/:receta_id", recetasH.EliminarIngrediente)
			prods.POST("/:id/produccion", recetasH.Producir)
		}

		v1.GET("/movimientos", productosH.Movimientos)
		v1.GET("/pendientes", productosH.Pendientes)

		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", pedidosH.Procesar)
			pedidos.GET("", pedidosH.Historial)
			pedidos.GET("/:id", pedidosH.Obtener)
			pedidos.GET("/:id/resumen", pedidosH.Resumen)
			pedidos.GET("/:id/pdf", pedidosH.DescargarPDF)
			pedidos.POST("/:id/recepcion", pedidosH.ConfirmarRecepcion)
			pedidos.DELETE("/:id", pedidosH.Borrar)
		}

		v1.GET("/admin/dlq", handler.ListarDLQ(rdb))
		v1.POST("/admin/dlq/reencolar", handler.ReencolarDLQ(rdb))
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
