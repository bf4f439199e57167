package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"raffle-system/config"
	"raffle-system/handlers"
	_ "raffle-system/migrations"
	"raffle-system/models"
	"raffle-system/monitoring"
	"raffle-system/security"
	"raffle-system/services"
	"raffle-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	} else {
		slog.Warn("pubnub keys missing, realtime publishing disabled")
	}

	// Initialize services
	realtimeService := services.NewRealtimeService(pn)
	ticketService := services.NewTicketService(app, realtimeService)
	orderService := services.NewOrderService(app, ticketService, cfg.TicketPrice)
	sessionService := services.NewSessionService(redisClient, cfg.TicketPrice, cfg.SessionTTL)

	// Security
	adminGate := security.NewAdminGate(redisClient, cfg.AdminPassword, cfg.AdminSessionTTL)
	rateLimiter := security.NewRateLimiter(redisClient)

	// Initialize handlers
	storefrontHandler := handlers.NewStorefrontHandler(app, ticketService, sessionService, cfg)
	adminHandler := handlers.NewAdminHandler(app, orderService, ticketService, adminGate, cfg)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Wire the change feed to the backend record events
	ticketService.BindHooks()

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Status gauges refresh from the canonical ticket list
	monitor := monitoring.NewMonitor(func(ctx context.Context) (map[string]int, error) {
		tickets, err := ticketService.ListTickets(ctx)
		if err != nil {
			return nil, err
		}
		counts := map[string]int{
			models.StatusAvailable: 0,
			models.StatusReserved:  0,
			models.StatusPaid:      0,
		}
		for _, t := range tickets {
			counts[t.Status]++
		}
		return counts, nil
	})
	go monitor.Start(ctx)

	if cfg.EnableMetrics {
		go func() {
			addr := ":" + cfg.MetricsPort
			if err := monitoring.StartMetricsServer(addr, redisClient); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Storefront endpoints
		e.Router.GET("/api/raffle", storefrontHandler.RaffleInfo)
		e.Router.GET("/api/raffle/tickets", storefrontHandler.BrowseTickets)
		e.Router.GET("/api/raffle/pix.png", storefrontHandler.PixQR)

		// Customer session endpoints
		e.Router.POST("/api/session/identify", storefrontHandler.Identify)
		e.Router.GET("/api/session/identity", storefrontHandler.GetIdentity)
		e.Router.POST("/api/session/reset", storefrontHandler.ResetIdentity)
		e.Router.POST("/api/session/toggle", storefrontHandler.ToggleNumber)
		e.Router.GET("/api/session/review", storefrontHandler.Review)
		e.Router.GET("/api/session/my-tickets", storefrontHandler.MyTickets)
		e.Router.POST("/api/session/reserve", storefrontHandler.Reserve).
			BindFunc(rateLimiter.AntiBot(), rateLimiter.Limit("reserve", 10))

		// Admin endpoints
		e.Router.POST("/api/admin/login", adminHandler.Login).
			BindFunc(rateLimiter.Limit("admin-login", 15))

		adminGroup := e.Router.Group("/api/admin")
		adminGroup.BindFunc(adminHandler.RequireAdmin)
		adminGroup.GET("/orders", adminHandler.ListOrders)
		adminGroup.GET("/buyers", adminHandler.ListBuyers)
		adminGroup.GET("/stats", adminHandler.GetStats)
		adminGroup.POST("/orders/confirm", adminHandler.ConfirmOrder)
		adminGroup.POST("/orders/cancel", adminHandler.CancelOrder)
		adminGroup.POST("/logout", adminHandler.Logout)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
