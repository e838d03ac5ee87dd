package router

import (
	"net/http"
	"time"

	"seragon/config"
	"seragon/internal/auth"
	"seragon/internal/handler"
	"seragon/internal/logger"
	"seragon/internal/middleware"
	"seragon/internal/repository"
	"seragon/internal/service"
	"seragon/internal/ws"
	"seragon/pkg/assistant"
	"seragon/pkg/cloudinary"
	"seragon/pkg/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// Deps carries optional collaborators. Nil fields fall back to defaults built from cfg.
type Deps struct {
	Uploader      cloudinary.Uploader
	CheckoutCache service.CheckoutKeyCache
	Assistant     service.Completer
	Hub           *ws.Hub

	Replit  *handler.OAuthProvider
	Discord *handler.OAuthProvider
	Google  *handler.OAuthProvider

	// Done stops background sweepers when closed.
	Done <-chan struct{}
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Idempotent-Replay", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.Server.CORSAllowedOrigins)))
	limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	if deps.Done != nil {
		go limiter.Run(deps.Done)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	hub := deps.Hub
	if hub == nil {
		hub = ws.NewHub()
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo, hub)
	upi := payment.NewUPIProvider(cfg.Payment.UPIMerchantID, cfg.Payment.UPIMerchantName)
	orderSvc := service.NewOrderService(orderRepo, catalogRepo, auditRepo, upi, cfg.Payment, cfg.Checkout)
	orderSvc.SetEvents(notifSvc)
	if deps.CheckoutCache != nil {
		orderSvc.SetCache(deps.CheckoutCache)
	}
	if deps.Uploader != nil {
		orderSvc.SetUploader(deps.Uploader, cfg.Cloudinary.Folder)
	}
	ticketSvc := service.NewTicketService(ticketRepo, notifSvc)
	llm := deps.Assistant
	if llm == nil {
		llm = assistant.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.Timeout)
	}
	assistantSvc := service.NewAssistantService(llm, catalogRepo)

	replit := deps.Replit
	if replit == nil {
		replit = handler.NewReplitProvider(cfg.OAuth, auth.NewOIDCProvider(cfg.OAuth.ReplitIssuerURL, nil))
	}
	discord := deps.Discord
	if discord == nil {
		discord = handler.NewDiscordProvider(cfg.OAuth, oauth2.Endpoint{}, "")
	}
	google := deps.Google
	if google == nil {
		google = handler.NewGoogleProvider(cfg.OAuth, oauth2.Endpoint{}, "")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	oauthHandler := handler.NewOAuthHandler(cfg.OAuth, authSvc, auditRepo)
	catalogHandler := handler.NewCatalogHandler(catalogRepo)
	orderHandler := handler.NewOrderHandler(orderSvc)
	supportHandler := handler.NewSupportHandler(ticketSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	assistantHandler := handler.NewAssistantHandler(assistantSvc)
	dashboardHandler := handler.NewDashboardHandler(adminRepo)
	adminHandler := handler.NewAdminHandler(adminRepo, orderSvc, ticketSvc)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ws/orders", ws.UpgradeOrdersWS(&cfg.JWT, hub))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter))
	requireAuth := middleware.AuthRequired(&cfg.JWT)

	// Public
	api.GET("/services", catalogHandler.ListServices)
	api.GET("/services/:id", catalogHandler.GetService)
	api.GET("/service-categories", catalogHandler.ListCategories)
	api.POST("/ai/chat", assistantHandler.Chat)
	api.POST("/ai/price-comparison", assistantHandler.PriceComparison)

	// Identity
	api.GET("/login", oauthHandler.Start(replit))
	api.GET("/callback", oauthHandler.Callback(replit))
	api.GET("/auth/discord", oauthHandler.Start(discord))
	api.GET("/auth/discord/callback", oauthHandler.Callback(discord))
	api.GET("/auth/google", oauthHandler.Start(google))
	api.GET("/auth/google/callback", oauthHandler.Callback(google))
	api.POST("/auth/admin/login", authHandler.AdminLogin)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/logout", optionalAuth(&cfg.JWT), authHandler.Logout)

	// Authenticated
	user := api.Group("")
	user.Use(requireAuth)
	user.GET("/auth/user", authHandler.Me)
	user.GET("/dashboard-stats", dashboardHandler.Stats)

	user.POST("/checkout", orderHandler.Checkout)
	user.POST("/upi-payment-info", orderHandler.PaymentInfo)
	user.POST("/confirm-upi-payment", orderHandler.ConfirmPayment)
	user.GET("/orders", orderHandler.ListMine)
	user.GET("/orders/:orderNumber", orderHandler.Get)
	user.POST("/orders/:orderNumber/payment-proof", orderHandler.UploadPaymentProof)

	user.POST("/support-tickets", supportHandler.Create)
	user.GET("/support-tickets", supportHandler.ListMine)
	user.GET("/support-tickets/:ticketNumber", supportHandler.Get)
	user.POST("/support-tickets/:ticketNumber/messages", supportHandler.AddMessage)

	user.GET("/notifications", notificationHandler.List)
	user.PUT("/notifications/:id/read", notificationHandler.MarkRead)

	// Admin
	admin := api.Group("/admin")
	admin.Use(requireAuth, middleware.AdminRequired())
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/orders", adminHandler.ListOrders)
	admin.PATCH("/orders/:orderId/status", adminHandler.UpdateOrderStatus)
	admin.GET("/orders/:orderId/history", adminHandler.OrderHistory)
	admin.GET("/support-tickets", adminHandler.ListTickets)
	admin.PATCH("/support-tickets/:id", adminHandler.UpdateTicket)

	return r
}

// optionalAuth attaches the caller's claims when a valid bearer token is present.
func optionalAuth(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); len(h) > 7 {
			if claims, err := auth.ParseAccessToken(cfg, h[7:]); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}
