package main

import (
	"database/sql"
	"flag"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/parietal-io/djaodjin-saas/internal/cache"
	"github.com/parietal-io/djaodjin-saas/internal/config"
	"github.com/parietal-io/djaodjin-saas/internal/events"
	"github.com/parietal-io/djaodjin-saas/internal/handler"
	"github.com/parietal-io/djaodjin-saas/internal/lock"
	"github.com/parietal-io/djaodjin-saas/internal/middleware"
	"github.com/parietal-io/djaodjin-saas/internal/processor"
	"github.com/parietal-io/djaodjin-saas/internal/repository"
	"github.com/parietal-io/djaodjin-saas/internal/service"
)

func main() {
	cfgFile := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Database connection
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := repository.RunMigrations(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis connection
	redis, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	publisher := events.NewPublisher(redis.Client)
	locks := lock.NewManager(redis.Client)

	var backend processor.Backend = processor.Noop{}
	if cfg.Processor.BaseURL != "" {
		backend = processor.NewClient(cfg.Processor.BaseURL)
	}

	store := repository.NewTransactionRepository(db, cfg.Defaults.Currency)
	orgs := repository.NewOrganizationRepository(db, redis.Client)

	billingSvc := service.NewBillingService(store, orgs, backend, locks, publisher, cfg.Defaults.Broker)
	billingHandler := handler.NewBillingHandler(billingSvc, billingSvc,
		cfg.Defaults.PageSize, cfg.Defaults.MaxPage)

	// Setup router
	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/", middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	billingHandler.RegisterRoutes(api)

	log.Printf("Billing service starting on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
