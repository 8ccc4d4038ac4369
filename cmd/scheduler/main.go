package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/repository"
	"github.com/segyhp/rent-ledger/internal/scheduler"
	"github.com/segyhp/rent-ledger/internal/service"
	"github.com/segyhp/rent-ledger/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Starting billing scheduler...")

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	accountRepo := repository.NewAccountRepository(db)
	chargeRepo := repository.NewChargeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	runRepo := repository.NewRunRepository(db)
	txManager := repository.NewTxManager(db)

	notifier := service.NewLogNotifier(log)
	billingService := service.NewBillingService(accountRepo, paymentRepo, chargeRepo, revenueRepo, txManager, redisClient, notifier, cfg, log)
	chargeGenerator := service.NewChargeGenerator(accountRepo, chargeRepo, runRepo, txManager, redisClient, cfg, log)
	reconciler := service.NewReconciler(accountRepo, paymentRepo, txManager, redisClient, cfg, log)
	overdueDetector := service.NewOverdueDetector(accountRepo, notifier, cfg, log)

	sched := scheduler.New(chargeGenerator, reconciler, overdueDetector, billingService, scheduler.SystemClock(), cfg, log)

	// Initialize cron runner in the configured timezone
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetLocation()))

	if err := sched.Register(c); err != nil {
		log.WithError(err).Fatal("Failed to schedule billing jobs")
	}

	// Start the scheduler
	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}
