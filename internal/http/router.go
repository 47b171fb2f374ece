package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/config"
	"github.com/wenwu/saas-platform/marketplace-service/internal/notification"
	"github.com/wenwu/saas-platform/marketplace-service/internal/service"
	"github.com/wenwu/saas-platform/marketplace-service/internal/wizard"
	"go.uber.org/zap"
)

type Server struct {
	router  *gin.Engine
	handler *Handler
	wizard  *WizardHandler
	admin   *AdminHandler
	cfg     *config.Config

	publicLimiter   *RateLimiter
	purchaseLimiter *RateLimiter
	checkoutLimiter *RateLimiter
}

func NewServer(
	cfg *config.Config,
	provider *catalog.Provider,
	purchaseService *service.PurchaseService,
	checkoutService *service.CheckoutService,
	notifier *notification.Notifier,
	wizardService *wizard.Service,
	logger *zap.Logger,
) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	logger = logger.Named("http")
	s := &Server{
		router:  router,
		handler: NewHandler(provider, purchaseService, checkoutService, notifier, logger),
		wizard:  NewWizardHandler(wizardService, logger),
		admin:   NewAdminHandler(purchaseService, logger),
		cfg:     cfg,

		// catalog browsing: 120 requests per client per minute
		publicLimiter: NewRateLimiter(120, time.Minute),
		// wizard and purchase writes: 60 per client per minute
		purchaseLimiter: NewRateLimiter(60, time.Minute),
		// payment session creation: 10 per client per hour
		checkoutLimiter: NewRateLimiter(10, time.Hour),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "marketplace-service",
		})
	})

	// Catalog read path
	public := s.router.Group("/api/v1/public")
	public.Use(RateLimitMiddleware(s.publicLimiter))
	{
		public.GET("/hub-vendor", s.handler.GetHubVendor)
		public.GET("/integrations", s.handler.ListIntegrations)
		public.GET("/integrations/full", s.handler.ListIntegrationsFull)
		public.GET("/integrations/:id", s.handler.GetIntegration)
		public.GET("/integrations/:id/related", s.handler.GetRelatedIntegrations)
		public.GET("/categories", s.handler.GetCategories)
		public.GET("/branding", s.handler.GetBranding)
		public.GET("/pricing", s.handler.GetPricing)
	}

	v1 := s.router.Group("/api/v1")

	// Payment processor callback, authenticated by its signature
	v1.POST("/checkout/webhook", s.handler.CheckoutWebhook)

	api := v1.Group("")
	api.Use(RateLimitMiddleware(s.purchaseLimiter))
	{
		api.POST("/purchases", s.handler.CreatePurchase)
		api.GET("/purchases/:id", s.handler.GetPurchase)
		api.PATCH("/purchases/:id/business", s.handler.UpdateBusinessDetails)
		api.PATCH("/purchases/:id/terms", s.handler.UpdateTerms)

		api.POST("/checkout/sessions", RateLimitMiddleware(s.checkoutLimiter), s.handler.CreateCheckoutSession)
		api.GET("/checkout/sessions/:id", s.handler.GetCheckoutSession)

		api.POST("/notifications/purchase", s.handler.SendPurchaseNotification)

		api.POST("/wizard/sessions", s.wizard.Start)
		api.GET("/wizard/sessions/:id", s.wizard.Get)
		api.PATCH("/wizard/sessions/:id", s.wizard.Edit)
		api.POST("/wizard/sessions/:id/next", s.wizard.Next)
		api.POST("/wizard/sessions/:id/back", s.wizard.Back)
		api.POST("/wizard/sessions/:id/checkout", RateLimitMiddleware(s.checkoutLimiter), s.wizard.Checkout)
	}

	admin := s.router.Group("/api/admin")
	admin.Use(AdminJWTMiddleware(s.cfg.JWT.SecretKey))
	{
		admin.GET("/purchases", s.admin.ListPurchases)
		admin.GET("/purchases/:id", s.admin.GetPurchase)
		admin.GET("/purchases/:id/events", s.admin.ListPurchaseEvents)
	}
}

// Handler exposes the router for an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}
