package main

import (
	"log/slog"
	"net/http"

	"doorstep/internal/config"
	"doorstep/internal/middleware"
	"doorstep/internal/modules/admin"
	"doorstep/internal/modules/auth"
	"doorstep/internal/modules/booking"
	"doorstep/internal/modules/device"
	"doorstep/internal/modules/jobfeed"
	"doorstep/internal/modules/payment"
	"doorstep/internal/modules/pricing"
	"doorstep/internal/modules/warranty"
	"doorstep/internal/notification"
	"doorstep/internal/pkg/cache"
	jwtsvc "doorstep/internal/pkg/jwt"
	"doorstep/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// app is the wired HTTP surface plus the pieces main still needs.
type app struct {
	router     *gin.Engine
	warranties *warranty.Service
	closers    []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(cfg *config.Config, db *gorm.DB, log *slog.Logger) (*app, error) {
	a := &app{}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ledgerRepo := repository.NewEventLedgerRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	technicianRepo := repository.NewTechnicianRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	warrantyRepo := repository.NewWarrantyRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	// Notifications
	var dispatcher notification.Dispatcher = notification.NewLogDispatcher(log)
	if cfg.RabbitMQURL != "" {
		amqpDispatcher, err := notification.NewAMQPDispatcher(cfg.RabbitMQURL, cfg.NotifyExchange)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = amqpDispatcher.Close() })
		dispatcher = amqpDispatcher
		log.Info("notifications published to rabbitmq", "exchange", cfg.NotifyExchange)
	}
	notifier := notification.NewRecorder(dispatcher, notificationRepo, cfg.NotifyTimeout, log)

	// Pricing
	reference, err := pricing.LoadReference(cfg.PricingReferenceFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	deviceResolver := device.NewResolver(catalogRepo, cfg.DeviceVariantQualifiers...)
	priceResolver := pricing.NewResolver(deviceResolver, catalogRepo, pricing.Options{
		Reference:          reference,
		Cache:              cache.NewMemory[pricing.PriceBreakdown](cfg.PriceCacheTTL),
		DeviationThreshold: cfg.PriceDeviationThreshold,
		LookupTimeout:      cfg.DBTimeout,
		Logger:             log,
	})
	pricingAdmin := pricing.NewAdminService(catalogRepo, priceResolver, log)

	// Domain services
	hub := jobfeed.NewHub(log)
	a.closers = append(a.closers, hub.Close)

	a.warranties = warranty.NewService(warrantyRepo, bookingRepo, catalogRepo, notifier, log)
	bookingService := booking.NewService(booking.Deps{
		Bookings:    bookingRepo,
		Completions: completionRepo,
		Catalog:     catalogRepo,
		Quoter:      priceResolver,
		Warranties:  a.warranties,
		Notifier:    notifier,
		Jobs:        hub,
		Logger:      log,
	})

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeTimeout)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, online payments disabled")
	}
	paymentService := payment.NewService(payment.Deps{
		Bookings:  bookingRepo,
		Payments:  paymentRepo,
		Events:    ledgerRepo,
		Customers: customerRepo,
		Gateway:   gateway,
		Notifier:  notifier,
	}, payment.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		CheckoutTTL:   cfg.CheckoutTTL,
		Logger:        log,
	})
	bookingService.SetPaymentLinker(paymentService)

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(technicianRepo, tokens, auth.AdminCredentials{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
	}, log)

	adminService := admin.NewService(bookingRepo, paymentRepo, notificationRepo, warrantyRepo, repository.NewStatsRepository(db))

	// Handlers
	adminHandler := admin.NewHandler(adminService)
	authHandler := auth.NewHandler(authService)
	bookingHandler := booking.NewHandler(bookingService)
	pricingHandler := pricing.NewHandler(priceResolver, pricingAdmin)
	paymentHandler := payment.NewHandler(paymentService)
	warrantyHandler := warranty.NewHandler(a.warranties)
	feedHandler := jobfeed.NewHandler(hub, tokens, cfg.CORSAllowedOrigins)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), middleware.ErrorLogger(log), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		pricingHandler.RegisterPublicRoutes(v1)
		bookingHandler.RegisterRoutes(v1)
		paymentHandler.RegisterPublicRoutes(v1)
		warrantyHandler.RegisterRoutes(v1)
		feedHandler.RegisterRoutes(v1)

		technician := v1.Group("/technician")
		technician.Use(middleware.JWTAuth(tokens), middleware.TechnicianOnly())
		{
			bookingHandler.RegisterTechnicianRoutes(technician)
		}

		backoffice := v1.Group("/admin")
		backoffice.Use(middleware.JWTAuth(tokens), middleware.AdminOnly())
		{
			adminHandler.RegisterRoutes(backoffice)
			bookingHandler.RegisterAdminRoutes(backoffice)
			pricingHandler.RegisterAdminRoutes(backoffice)
			paymentHandler.RegisterAdminRoutes(backoffice)
		}
	}
	a.router = r
	return a, nil
}
