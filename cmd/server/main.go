package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/handler"
	"github.com/segyhp/rent-ledger/internal/repository"
	"github.com/segyhp/rent-ledger/internal/service"
	"github.com/segyhp/rent-ledger/pkg/logger"
	"github.com/segyhp/rent-ledger/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	chargeRepo := repository.NewChargeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	runRepo := repository.NewRunRepository(db)
	txManager := repository.NewTxManager(db)

	// Initialize services
	notifier := service.NewLogNotifier(log)
	billingService := service.NewBillingService(accountRepo, paymentRepo, chargeRepo, revenueRepo, txManager, redisClient, notifier, cfg, log)
	chargeGenerator := service.NewChargeGenerator(accountRepo, chargeRepo, runRepo, txManager, redisClient, cfg, log)
	reconciler := service.NewReconciler(accountRepo, paymentRepo, txManager, redisClient, cfg, log)
	overdueDetector := service.NewOverdueDetector(accountRepo, notifier, cfg, log)

	billingHandler := handler.NewBillingHandler(billingService, chargeGenerator, reconciler, overdueDetector, cfg)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	// Setup routes
	router := setupRoutes(billingHandler, healthHandler, log)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(billingHandler *handler.BillingHandler, healthHandler *handler.HealthHandler, log *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/accounts", billingHandler.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/payments", billingHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/balance", billingHandler.GetBalance).Methods("GET")
	api.HandleFunc("/accounts/{accountId}/statement", billingHandler.GetStatement).Methods("GET")
	api.HandleFunc("/accounts/{accountId}/reconcile", billingHandler.Reconcile).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/archive", billingHandler.ArchiveAccount).Methods("POST")
	api.HandleFunc("/charges/generate", billingHandler.GenerateCharges).Methods("POST")
	api.HandleFunc("/accounts/overdue", billingHandler.GetOverdueAccounts).Methods("GET")

	return router
}
