package main

import (
	"log"

	"github.com/Hecoloko/shulgenius-api/internal/config"
	"github.com/Hecoloko/shulgenius-api/internal/database"
	"github.com/Hecoloko/shulgenius-api/internal/gateway"
	"github.com/Hecoloko/shulgenius-api/internal/handlers"
	"github.com/Hecoloko/shulgenius-api/internal/middleware"
	"github.com/Hecoloko/shulgenius-api/internal/repository"
	"github.com/Hecoloko/shulgenius-api/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Missing .env is fine; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.MigrateDatabase(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	procRepo := repository.NewProcessorRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	methodRepo := repository.NewPaymentMethodRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	donationRepo := repository.NewDonationRepository(db)

	// Services
	gateways := gateway.NewHTTPFactory(cfg.CardknoxURL, cfg.StripeURL)
	resolver := services.NewProcessorResolver(procRepo)
	executor := services.NewChargeExecutor(gateways)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	donationService := services.NewDonationService(resolver, executor, donationRepo, campaignRepo, methodRepo)
	billingService := services.NewBillingService(resolver, executor, subRepo, invoiceRepo)
	invoiceService := services.NewInvoiceService(invoiceRepo, memberRepo, resolver, executor, methodRepo)
	methodService := services.NewPaymentMethodService(methodRepo, memberRepo, procRepo, resolver, gateways)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	orgHandler := handlers.NewOrganizationHandler(orgRepo, campaignRepo)
	processorHandler := handlers.NewProcessorHandler(procRepo, campaignRepo)
	campaignHandler := handlers.NewCampaignHandler(campaignRepo, donationRepo)
	memberHandler := handlers.NewMemberHandler(memberRepo)
	methodHandler := handlers.NewPaymentMethodHandler(methodService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, invoiceRepo)
	subscriptionHandler := handlers.NewSubscriptionHandler(subRepo, memberRepo, methodRepo)
	donationHandler := handlers.NewDonationHandler(donationService)
	billingHandler := handlers.NewBillingHandler(billingService)
	portalHandler := handlers.NewPortalHandler(memberRepo, invoiceRepo, subRepo, methodRepo)

	// Background billing sweep
	if cfg.BillingCronSpec != "" {
		runner, err := billingService.StartScheduler(cfg.BillingCronSpec)
		if err != nil {
			log.Fatalf("Failed to start billing scheduler: %v", err)
		}
		defer runner.Stop()
	}

	// Initialize Gin router
	r := gin.Default()
	r.Use(cors.Default())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "ShulGenius API is running",
		})
	})

	requireAuth := middleware.RequireAuth(cfg.JWTSecret)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Public donor-facing routes: the microsite read and the donation
		// charge itself take no auth
		public := api.Group("/public")
		{
			public.GET("/orgs/:slug", orgHandler.GetPublicOrganization)
			public.POST("/donations", donationHandler.ProcessDonation)
		}

		// Organization routes (protected)
		orgs := api.Group("/orgs")
		orgs.Use(requireAuth)
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListMyOrganizations)

			scoped := orgs.Group("/:id")
			scoped.Use(middleware.RequireOrganizationAccess())
			{
				scoped.GET("", orgHandler.GetOrganization)
				scoped.PUT("", middleware.RequireOrganizationOwner(), orgHandler.UpdateOrganization)

				// Processor registry
				scoped.POST("/processors", middleware.RequireOrganizationOwner(), processorHandler.CreateProcessor)
				scoped.GET("/processors", processorHandler.ListProcessors)
				scoped.PUT("/processors/:processorId", middleware.RequireOrganizationOwner(), processorHandler.UpdateProcessor)
				scoped.DELETE("/processors/:processorId", middleware.RequireOrganizationOwner(), processorHandler.DeactivateProcessor)
				scoped.POST("/processors/:processorId/default", middleware.RequireOrganizationOwner(), processorHandler.SetDefaultProcessor)

				// Campaigns and their processor bindings
				scoped.POST("/campaigns", campaignHandler.CreateCampaign)
				scoped.GET("/campaigns", campaignHandler.ListCampaigns)
				scoped.GET("/campaigns/:campaignId", campaignHandler.GetCampaign)
				scoped.PUT("/campaigns/:campaignId", campaignHandler.UpdateCampaign)
				scoped.GET("/campaigns/:campaignId/donations", campaignHandler.ListCampaignDonations)
				scoped.POST("/campaigns/:campaignId/processors", middleware.RequireOrganizationOwner(), processorHandler.BindCampaignProcessor)
				scoped.DELETE("/campaigns/:campaignId/processors/:processorId", middleware.RequireOrganizationOwner(), processorHandler.UnbindCampaignProcessor)
				scoped.POST("/campaigns/:campaignId/processors/:processorId/primary", middleware.RequireOrganizationOwner(), processorHandler.SetPrimaryCampaignProcessor)

				// Members
				scoped.POST("/members", memberHandler.CreateMember)
				scoped.GET("/members", memberHandler.ListMembers)
				scoped.GET("/members/:memberId", memberHandler.GetMember)
				scoped.PUT("/members/:memberId", memberHandler.UpdateMember)
				scoped.DELETE("/members/:memberId", memberHandler.DeleteMember)
				scoped.GET("/members/:memberId/payment-methods", methodHandler.ListMemberPaymentMethods)
				scoped.POST("/members/:memberId/payment-methods/:methodId/default", methodHandler.SetDefaultPaymentMethod)
				scoped.DELETE("/members/:memberId/payment-methods/:methodId", methodHandler.DeletePaymentMethod)

				// Invoices
				scoped.POST("/invoices", invoiceHandler.CreateInvoice)
				scoped.GET("/invoices", invoiceHandler.ListInvoices)
				scoped.GET("/invoices/:invoiceId", invoiceHandler.GetInvoice)
				scoped.POST("/invoices/:invoiceId/void", invoiceHandler.VoidInvoice)
				scoped.POST("/invoices/:invoiceId/payments", invoiceHandler.RecordPayment)

				// Subscriptions
				scoped.POST("/subscriptions", subscriptionHandler.CreateSubscription)
				scoped.GET("/subscriptions", subscriptionHandler.ListSubscriptions)
				scoped.GET("/subscriptions/:subscriptionId", subscriptionHandler.GetSubscription)
				scoped.DELETE("/subscriptions/:subscriptionId", subscriptionHandler.DeactivateSubscription)
			}
		}

		// Card tokenization (protected, flat route; org scoping is in the body)
		api.POST("/payment-methods", requireAuth, methodHandler.SaveCard)

		// Manual subscription billing (protected)
		api.POST("/billing/charge", requireAuth, billingHandler.Charge)

		// Member portal (protected)
		portal := api.Group("/portal")
		portal.Use(requireAuth)
		{
			portal.GET("/invoices", portalHandler.GetMyInvoices)
			portal.GET("/subscriptions", portalHandler.GetMySubscriptions)
			portal.GET("/payment-methods", portalHandler.GetMyPaymentMethods)
		}
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
