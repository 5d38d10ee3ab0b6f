package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-tracker/api/config"
	"expense-tracker/api/handlers"
	"expense-tracker/api/kafka"
	"expense-tracker/api/logger"
	"expense-tracker/api/mailer"
	"expense-tracker/api/middleware"
	"expense-tracker/api/mongodb"
	"expense-tracker/api/payments"
	"expense-tracker/api/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const mailBuffer = 100

func main() {
	cfg, envFile, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Development, logger.ParseLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	if !envFile {
		logger.Get().Warn(".env file not found, using process environment")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err == nil {
		err = store.EnsureIndexes(connectCtx)
	}
	cancel()
	if err != nil {
		logger.Get().Fatal("Failed to initialize MongoDB", zap.Error(err))
	}

	sendGrid := mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFromEmail, cfg.MailFromName)
	var resetMailer handlers.Mailer = sendGrid

	// With Kafka configured, reset mails are queued and sent by the pool.
	var pool *worker.WorkerPool
	var queue *kafka.MailQueue
	if cfg.KafkaEnabled() {
		kcfg := kafka.Config{
			BootstrapServers: cfg.KafkaBootstrapServers,
			APIKey:           cfg.KafkaAPIKey,
			APISecret:        cfg.KafkaAPISecret,
		}
		queue, err = kafka.NewMailQueue(kcfg)
		if err != nil {
			logger.Get().Fatal("Failed to create mail queue", zap.Error(err))
		}
		pool = worker.NewWorkerPool(cfg.MailWorkers, mailBuffer, sendGrid.HandleJob)
		pool.Start()
		if err := kafka.StartMailConsumer(ctx, kcfg, pool); err != nil {
			logger.Get().Fatal("Failed to start mail consumer", zap.Error(err))
		}
		resetMailer = queue
	}

	h := handlers.New(store, resetMailer, payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripePublishableKey), handlers.Options{
		JWTSecret:           []byte(cfg.JWTSecret),
		JWTTTL:              cfg.JWTTTL,
		BaseURL:             cfg.BaseURL,
		PremiumAmount:       cfg.PremiumAmount,
		PremiumCurrency:     cfg.PremiumCurrency,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		ViewsDir:            cfg.ViewsDir,
		PublicDir:           cfg.PublicDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, pool, cfg.InternalAPIKey),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Get().Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Get().Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("Server shutdown failed", zap.Error(err))
	}
	if queue != nil {
		queue.Close()
	}
	if pool != nil {
		pool.Stop()
	}
	store.Close(shutdownCtx)
}

// setupRouter adds the internal endpoints to the application router. pool
// is nil when mails are sent inline.
func setupRouter(h *handlers.Handler, pool *worker.WorkerPool, internalKey string) *gin.Engine {
	router := handlers.NewRouter(h)
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	internal := router.Group("/internal", middleware.InternalAPIKey(internalKey))
	{
		internal.GET("/metrics", func(c *gin.Context) {
			if pool == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "mail queue disabled"})
				return
			}
			gin.WrapF(pool.MetricsHandler)(c)
		})
	}
	return router
}
