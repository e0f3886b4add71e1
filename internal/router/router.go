package router

import (
	"time"

	"mitanda/config"
	"mitanda/internal/handler"
	"mitanda/internal/middleware"
	"mitanda/internal/queue"
	"mitanda/internal/repository"
	"mitanda/internal/service"
	"mitanda/internal/ws"
	"mitanda/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Setup(
	cfg *config.Config,
	db *gorm.DB,
	gateway payment.Gateway,
	rdb *redis.Client,
	hub *ws.Hub,
	publisher *queue.Publisher,
	log *zap.Logger,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tandaRepo := repository.NewTandaRepository(db)
	participanteRepo := repository.NewParticipanteRepository(db)
	reservadoRepo := repository.NewReservadoRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	ledgerSvc := service.NewLedgerService(tandaRepo, reservadoRepo, participanteRepo, log)
	capacitySvc := service.NewCapacityService(tandaRepo, reservadoRepo, log)
	checkoutSvc := service.NewCheckoutService(gateway, tandaRepo, participanteRepo, cfg, log)
	notifSvc := service.NewNotificationService(publisher, log)
	reconcilerSvc := service.NewReconcilerService(
		userRepo, tandaRepo, participanteRepo, productoRepo, ordenRepo,
		capacitySvc, ledgerSvc, notifSvc, hub, cfg, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, log)
	tandaHandler := handler.NewTandaHandler(tandaRepo, ledgerSvc, log)
	productoHandler := handler.NewProductoHandler(productoRepo, log)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc, log)
	webhookHandler := handler.NewWebhookHandler(reconcilerSvc, cfg, log)
	ordenHandler := handler.NewOrdenHandler(ordenRepo, participanteRepo, log)
	adminTandaHandler := handler.NewAdminTandaHandler(tandaRepo, participanteRepo, reservadoRepo, capacitySvc, ledgerSvc, log)
	adminProductoHandler := handler.NewAdminProductoHandler(productoRepo, log)
	adminVentaHandler := handler.NewAdminVentaHandler(ordenRepo, log)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()
	cacheMw := middleware.CacheGET(rdb, cfg.Cache.TTL)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// Public catalog. The slot ledger is not cached: stale numbers would
		// let two buyers race for the same slot more often than necessary.
		api.GET("/tandas", cacheMw, tandaHandler.List)
		api.GET("/tandas/:id", cacheMw, tandaHandler.Get)
		api.GET("/tandas/:id/numeros", tandaHandler.Numeros)
		api.GET("/productos", cacheMw, productoHandler.List)
		api.GET("/productos/:id", cacheMw, productoHandler.Get)

		api.GET("/ws/disponibilidad", ws.UpgradeDisponibilidadWS(hub))

		api.POST("/checkout", authMw, checkoutHandler.Create)
		api.POST("/webhooks/stripe", webhookHandler.HandleStripe)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/pedidos", ordenHandler.MisPedidos)
			me.GET("/tandas", ordenHandler.MisTandas)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.POST("/tandas", adminTandaHandler.Create)
			admin.PUT("/tandas/:id", adminTandaHandler.Update)
			admin.DELETE("/tandas/:id", adminTandaHandler.Delete)
			admin.GET("/tandas/:id", adminTandaHandler.Detail)
			admin.PUT("/tandas/:id/reservas", adminTandaHandler.Reservas)
			admin.POST("/productos", adminProductoHandler.Create)
			admin.PUT("/productos/:id", adminProductoHandler.Update)
			admin.DELETE("/productos/:id", adminProductoHandler.Delete)
			admin.GET("/ventas", adminVentaHandler.List)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
