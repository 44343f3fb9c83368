package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/config"
	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/handlers"
	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/middleware"
	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/services"
	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := utils.NewLogger("sales-invoice-api")
	if cfg.Environment == "development" {
		logger = utils.NewDevelopmentLogger("sales-invoice-api")
	}
	defer logger.Sync()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	router := setupRouter(cfg, db, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting sales invoice API server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func setupRouter(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "sales-invoice-api",
		})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	invoiceHandler := handlers.NewInvoiceHandler(services.NewInvoiceService(db, logger))
	transactionHandler := handlers.NewTransactionHandler(services.NewTransactionService(db, logger))
	userHandler := handlers.NewUserHandler(services.NewUserService(db, logger))

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.JwtAuthMiddleware(cfg))
	{
		api.POST("/invoices", invoiceHandler.CreateInvoice)
		api.GET("/invoices", invoiceHandler.ListInvoices)
		api.GET("/invoices/:id", invoiceHandler.GetInvoice)
		api.PATCH("/invoices/:id", invoiceHandler.UpdateInvoice)
		api.DELETE("/invoices/:id", invoiceHandler.DeleteInvoice)
		api.POST("/invoices/:id/pay", invoiceHandler.PayInvoice)

		api.POST("/invoices/:id/items", invoiceHandler.AddItem)
		api.PUT("/invoices/:id/items/:itemID", invoiceHandler.UpdateItem)
		api.DELETE("/invoices/:id/items/:itemID", invoiceHandler.DeleteItem)

		api.GET("/transactions", transactionHandler.ListTransactions)
		api.GET("/transactions/:id", transactionHandler.GetTransaction)

		api.POST("/users", userHandler.CreateUser)
		api.DELETE("/users/:id", userHandler.DeleteUser)
	}

	return router
}
