package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mitanda/config"
	"mitanda/internal/cache"
	"mitanda/internal/database"
	"mitanda/internal/jobs"
	"mitanda/internal/queue"
	"mitanda/internal/repository"
	"mitanda/internal/router"
	"mitanda/internal/service"
	"mitanda/internal/ws"
	"mitanda/pkg/mailer"
	"mitanda/pkg/payment"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logger.Fatal("base de datos", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("migración", zap.Error(err))
	}
	database.SeedAdmin(db)

	var gateway payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateway = payment.NewStripeGateway("https://api.stripe.com", cfg.Stripe.SecretKey)
	} else {
		logger.Warn("STRIPE_SECRET_KEY vacío, usando gateway de prueba")
		gateway = &payment.StubGateway{}
	}

	rdb := cache.NewRedisClient(&cfg.Cache, logger)
	hub := ws.NewHub()
	publisher := queue.NewPublisher(cfg.Queue.URL, logger)

	// Mail worker: consumes order-confirmed events and sends the emails.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	resend := mailer.NewResendClient("https://api.resend.com", cfg.Mail.ResendAPIKey)
	consumer := queue.NewConsumer(cfg.Queue.URL, resend, &cfg.Mail, logger)
	go consumer.Start(ctx)

	// Periodic sweep keeps each tanda's disponible flag aligned with its
	// participant count.
	tandaRepo := repository.NewTandaRepository(db)
	reservadoRepo := repository.NewReservadoRepository(db)
	capacitySvc := service.NewCapacityService(tandaRepo, reservadoRepo, logger)
	scheduler := jobs.NewScheduler(tandaRepo, capacitySvc, logger)
	if err := scheduler.Start(cfg.Tanda.SweepSpec); err != nil {
		logger.Fatal("barrido", zap.Error(err))
	}

	engine := router.Setup(cfg, db, gateway, rdb, hub, publisher, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("servidor escuchando", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("apagando...")
	scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("apagado del servidor", zap.Error(err))
	}
	logger.Info("servidor detenido")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
