// Package main provides the main entry point for the Orochi CRM backend
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/Orochi-CRM/app/handlers"
	"github.com/amirphl/Orochi-CRM/app/middleware"
	"github.com/amirphl/Orochi-CRM/app/router"
	"github.com/amirphl/Orochi-CRM/app/services"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/config"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
}

func main() {
	log.Println("Starting Orochi CRM...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.router.Start(cfg.Server.Address()); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Graceful shutdown
	if err := app.router.GetApp().ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Close backing services after in-flight requests drain
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging routes the standard logger to stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) func() {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmicroseconds)

	if cfg.Output != "file" && cfg.Output != "both" {
		log.SetOutput(os.Stdout)
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)

	return func() {
		log.SetOutput(os.Stdout)
		_ = rotator.Close()
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !cfg.SlowQueryLog {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		NowFunc:        utils.UTCNow,
		Logger: logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Println("Database schema migrated")
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

func initializeSendLock(cfg *config.ProductionConfig, rc *redis.Client) businessflow.SendLock {
	if rc == nil {
		log.Println("Redis disabled, campaign send lock is process-local")
		return businessflow.NewLocalSendLock()
	}
	return businessflow.NewRedisSendLock(rc, cfg.Cache.RedisPrefix, utils.CampaignSendLockKey, cfg.Campaign.SendLockTTL)
}

func initializePublisher(cfg config.QueueConfig) (services.EventPublisher, error) {
	if !cfg.Enabled {
		return services.NewNoopPublisher(), nil
	}

	publisher, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.ScheduledQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	log.Printf("Scheduled campaigns are announced on queue %s", cfg.ScheduledQueue)
	return publisher, nil
}

func initializeNotifier(cfg config.SMTPConfig) (services.NotificationService, error) {
	if cfg.Host == "" {
		log.Println("SMTP host not set, support notifications are disabled")
		return nil, nil
	}

	notifier, err := services.NewSMTPNotifier(services.SMTPConfig{
		Host:              cfg.Host,
		Port:              cfg.Port,
		Username:          cfg.Username,
		Password:          cfg.Password,
		From:              cfg.FromEmail,
		FromName:          cfg.FromName,
		UseTLS:            cfg.UseTLS,
		DKIMDomain:        cfg.DKIMDomain,
		DKIMSelector:      cfg.DKIMSelector,
		DKIMPrivateKeyPEM: cfg.DKIMPrivateKeyPEM,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP notifier: %w", err)
	}
	return notifier, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	publisher, err := initializePublisher(cfg.Queue)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() { _ = publisher.Close() })

	notifier, err := initializeNotifier(cfg.SMTP)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewUserSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	logRepo := repository.NewAutomationLogRepository(db)
	contactRepo := repository.NewContactRepository(db)
	messageRepo := repository.NewSupportMessageRepository(db)
	ticketRepo := repository.NewSupportTicketRepository(db)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	sendGrid := services.NewSendGridClient(cfg.SendGrid.APIKey, cfg.SendGrid.Host).WithTimeout(cfg.SendGrid.Timeout)
	if !sendGrid.Configured() {
		log.Println("SENDGRID_API_KEY not set, campaign sends will be rejected")
	}

	// Initialize flows
	authFlow := businessflow.NewAuthFlow(
		userRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		db,
		businessflow.AuthFlowConfig{
			BcryptCost:        cfg.Security.BcryptCost,
			DefaultEmailLimit: cfg.Campaign.DefaultEmailLimit,
			SessionTTL:        cfg.JWT.RefreshTokenTTL,
			AccessTokenTTL:    cfg.JWT.AccessTokenTTL,
		},
	)

	ledger := businessflow.NewCreditLedger(userRepo, paymentRepo, db)

	campaignFlow := businessflow.NewCampaignFlow(
		campaignRepo,
		logRepo,
		auditRepo,
		ledger,
		services.NewCampaignRenderer(),
		businessflow.NewCampaignDispatcher(sendGrid, cfg.Campaign.SendDelay),
		sendGrid,
		sendGrid,
		publisher,
		initializeSendLock(cfg, rc),
		businessflow.CampaignFlowConfig{SendTimeout: cfg.Campaign.SendTimeout},
	)

	contactFlow := businessflow.NewContactFlow(contactRepo, auditRepo)

	supportFlow := businessflow.NewSupportFlow(
		messageRepo,
		ticketRepo,
		userRepo,
		auditRepo,
		notifier,
		cfg.Campaign.SupportInbox,
	)

	authMiddleware := middleware.NewAuthMiddleware(authFlow)

	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Auth:     handlers.NewAuthHandler(authFlow),
		Campaign: handlers.NewCampaignHandler(campaignFlow),
		Contact:  handlers.NewContactHandler(contactFlow),
		Support:  handlers.NewSupportHandler(supportFlow),
	}, authMiddleware)

	log.Printf("Application initialized (env=%s, version=%s)", cfg.Deployment.Environment, cfg.Deployment.Version)

	return &Application{
		router:    appRouter,
		config:    cfg,
		stopFuncs: stopFuncs,
	}, nil
}
