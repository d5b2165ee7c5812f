package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/aging"
	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/auth"
	"github.com/grupoventia/crm-comercial/internal/collections"
	"github.com/grupoventia/crm-comercial/internal/config"
	"github.com/grupoventia/crm-comercial/internal/directory"
	"github.com/grupoventia/crm-comercial/internal/dispatch"
	"github.com/grupoventia/crm-comercial/internal/invoices"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
	"github.com/grupoventia/crm-comercial/internal/notifications"
	"github.com/grupoventia/crm-comercial/internal/opportunities"
	"github.com/grupoventia/crm-comercial/internal/quotes"
	"github.com/grupoventia/crm-comercial/internal/tasks"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	// Connect to database
	dbURL := cfg.Database.GetDatabaseURL()
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&quotes.Quote{},
		&opportunities.Opportunity{},
		&collections.CollectionsCase{},
		&collections.GestionRecord{},
		&invoices.Invoice{},
		&tasks.FollowUpTask{},
		&notifications.OutboxEntry{},
		&directory.User{},
		&audit.Record{},
	); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Read-side connection for the audit history views
	sqlDB, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect read-side database", zap.Error(err))
	}
	defer sqlDB.Close()

	// Core engine and collaborators
	engine := lifecycle.NewEngine(logger)
	history := audit.NewSQLHistory(sqlDB)

	invoiceRepo := invoices.NewRepository(db)
	taskRepo := tasks.NewRepository(db)
	sender := notifications.NewOutboxSender(db, logger)
	dispatcher := dispatch.New(taskRepo, invoiceRepo, sender, logger)

	quoteRepo := quotes.NewRepository(db)
	quoteService := quotes.NewService(quoteRepo, engine, dispatcher, history, logger)

	oppRepo := opportunities.NewRepository(db)
	oppService := opportunities.NewService(oppRepo, engine, dispatcher, history, logger)

	caseRepo := collections.NewRepository(db)
	classifier := aging.NewClassifier(cfg.Lifecycle.CollectionsDueSoonDays)
	caseService := collections.NewService(caseRepo, engine, dispatcher, history, classifier, logger)
	dispatcher.SetCaseResolver(caseService)

	userRepo := directory.NewRepository(db)
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	auth.NewHandler(userRepo, tokens, logger).RegisterRoutes(router)

	api := router.Group("/api/v1")
	api.Use(auth.Middleware(tokens))
	{
		quotes.NewHandler(quoteService, logger).RegisterRoutes(api)
		opportunities.NewHandler(oppService, logger).RegisterRoutes(api)
		collections.NewHandler(caseService, logger).RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
