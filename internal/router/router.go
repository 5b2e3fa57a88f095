package router

import (
	"github.com/fullfullelectronic/pos-system-macos/internal/handler"
	"github.com/fullfullelectronic/pos-system-macos/internal/infra"
	"github.com/fullfullelectronic/pos-system-macos/internal/middleware"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer needs. DB, Redis and SMTPBreaker
// are optional and only feed /health.
type Deps struct {
	Env         string
	JWTSecret   string
	CORSOrigins []string
	Servicios   *service.Servicios
	RateLimiter *middleware.RateLimiter

	DB          *gorm.DB
	Redis       *redis.Client
	SMTPBreaker *infra.CircuitBreaker
}

// New wires the handlers and returns a configured Gin engine.
// Reads are public; every mutation requires a valid token.
func New(d Deps) *gin.Engine {
	if d.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware())
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	s := d.Servicios
	cuentasH := handler.NewCuentasHandler(s.Cuentas, s.Transferencias, s.Configuracion)
	productosH := handler.NewProductosHandler(s.Productos)
	inventarioH := handler.NewInventarioHandler(s.Inventario, s.Configuracion)
	ventasH := handler.NewVentasHandler(s.Ventas, s.Configuracion)
	gastosH := handler.NewGastosHandler(s.Gastos, s.Configuracion)
	clientesH := handler.NewClientesHandler(s.Clientes)
	configH := handler.NewConfiguracionHandler(s.Configuracion, s.Conciliaciones)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(d.DB, d.Redis, d.SMTPBreaker))

	// Public reads
	pub := r.Group("/v1")
	{
		pub.GET("/cuentas", cuentasH.Listar)
		pub.GET("/cuentas/resumen", cuentasH.ResumenGeneral)
		pub.GET("/cuentas/:id", cuentasH.ObtenerPorID)
		pub.GET("/cuentas/:id/resumen", cuentasH.Resumen)
		pub.GET("/movimientos", cuentasH.ListarMovimientos)

		pub.GET("/productos", productosH.Listar)
		pub.GET("/productos/:id", productosH.ObtenerPorID)
		pub.GET("/precio/:barcode", productosH.ObtenerPorBarcode)

		pub.GET("/inventario/alertas", inventarioH.ObtenerAlertas)
		pub.GET("/inventario/movimientos", inventarioH.ListarMovimientos)

		pub.GET("/ventas", ventasH.ListarVentas)
		pub.GET("/ventas/:id", ventasH.ObtenerVenta)

		pub.GET("/gastos", gastosH.Listar)
		pub.GET("/gastos/categorias", gastosH.Categorias)
		pub.GET("/gastos/:id", gastosH.Obtener)

		pub.GET("/clientes", clientesH.Listar)
		pub.GET("/clientes/:id", clientesH.ObtenerPorID)

		pub.GET("/configuracion", configH.Obtener)
	}

	// Protected mutations
	v1 := r.Group("/v1", middleware.JWTAuth(d.JWTSecret))
	{
		v1.POST("/cuentas", cuentasH.Crear)
		v1.PUT("/cuentas/:id", cuentasH.Actualizar)
		v1.DELETE("/cuentas/:id", cuentasH.Eliminar)
		v1.POST("/transferencias", cuentasH.Transferir)

		v1.POST("/productos", productosH.Crear)
		v1.PUT("/productos/:id", productosH.Actualizar)
		v1.DELETE("/productos/:id", productosH.Eliminar)
		v1.POST("/inventario/ajustes", inventarioH.AjustarStock)

		v1.POST("/ventas", ventasH.RegistrarVenta)
		v1.PATCH("/ventas/:id", ventasH.ActualizarVenta)
		v1.POST("/ventas/:id/anular", ventasH.AnularVenta)

		v1.POST("/gastos", gastosH.Crear)
		v1.PUT("/gastos/:id", gastosH.Actualizar)
		v1.DELETE("/gastos/:id", gastosH.Eliminar)

		v1.POST("/clientes", clientesH.Crear)
		v1.PUT("/clientes/:id", clientesH.Actualizar)
		v1.DELETE("/clientes/:id", clientesH.Eliminar)

		// Configuration and reconciliation: admin only
		admin := v1.Group("", middleware.RequireRole(middleware.RolAdmin))
		{
			admin.PUT("/configuracion", configH.Actualizar)
			admin.GET("/conciliaciones", configH.ListarConciliaciones)
			admin.GET("/conciliaciones/:id", configH.ObtenerConciliacion)
			admin.POST("/conciliaciones/:id/resolver", configH.ResolverConciliacion)
		}
	}

	return r
}
