package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/controllers"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/kendall-kelly/checkout-flow-api/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := config.SetupLogger(cfg)
	logger.Info().Str("env", cfg.GoEnv).Msg("Starting checkout flow API server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := config.InitTracing(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().Msg("Database migration completed successfully")

	app, err := newApplication(ctx, cfg, db, newRegistry())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize checkout")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(newRouter(cfg, app), cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("Server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		app.Close()
		if tracingErr := shutdownTracing(shutdownCtx); tracingErr != nil {
			logger.Error().Err(tracingErr).Msg("Failed to flush traces")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with an error")
	}
	logger.Info().Msg("Server stopped")
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// application holds the wired checkout and the resources to release on exit
type application struct {
	db       *gorm.DB
	manager  *checkout.Manager
	accounts *services.AccountService
	registry *prometheus.Registry
	closers  []func() error
}

// newApplication picks the session, notification and receipt backends
// from the configuration and builds the checkout manager on top of them
func newApplication(ctx context.Context, cfg *config.Config, db *gorm.DB, registry *prometheus.Registry) (*application, error) {
	app := &application{
		db:       db,
		accounts: services.NewAccountService(db),
		registry: registry,
	}

	flow, err := checkout.LoadFlow(cfg.CheckoutFlowFile)
	if err != nil {
		return nil, err
	}

	var sessions checkout.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		client, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		sessions = services.NewRedisSessionStore(client, services.DefaultSessionTTL)
	default:
		sessions = services.NewDatabaseSessionStore(db)
	}

	var notifier checkout.Notifier = services.LogNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := services.NewKafkaNotifier(services.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		app.closers = append(app.closers, kafkaNotifier.Close)
		notifier = kafkaNotifier
	}

	var receipts checkout.ReceiptArchive
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service(ctx, cfg)
		if err != nil {
			return nil, err
		}
		receipts = services.InitReceiptService(s3Service)
	}

	app.manager, err = checkout.NewManager(db, flow, checkout.Dependencies{
		Profiles: services.NewProfileStore(db),
		Payments: services.NewManualGateway(cfg.PaymentCaptureLimitCents),
		Accounts: app.accounts,
		Sessions: sessions,
		Notifier: notifier,
		Receipts: receipts,
		Metrics:  checkout.NewMetrics(registry),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("flow", flow.ID).
		Str("sessions", cfg.SessionBackend).
		Bool("kafka", len(cfg.KafkaBrokers) > 0).
		Bool("receipts", receipts != nil).
		Msg("Checkout initialized")
	return app, nil
}

// Close releases the connections opened by newApplication
func (a *application) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("Failed to close resource")
		}
	}
}

func newRouter(cfg *config.Config, app *application) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Location"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus(app.db))

		v1.POST("/users", middleware.EnsureValidToken(cfg), controllers.CreateUser)
		v1.GET("/users/me", middleware.EnsureValidToken(cfg), controllers.GetMyProfile)
		v1.PUT("/users/me", middleware.EnsureValidToken(cfg), controllers.UpdateMyProfile)
	}

	shop := router.Group("",
		middleware.GuestSession(cfg.SessionCookieName, cfg.IsProduction()),
		middleware.OptionalToken(cfg),
		middleware.ResolveActor(app.accounts),
	)
	controllers.RegisterShopRoutes(shop, app.manager)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Checkout flow API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"tables":  tables,
		})
	}
}
