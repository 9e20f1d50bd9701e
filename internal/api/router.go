package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/poolstack/poolstack/internal/api/v1"
	"github.com/poolstack/poolstack/internal/config"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/rest/middleware"
	"github.com/poolstack/poolstack/internal/types"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Invoice *v1.InvoiceHandler
	Payment *v1.PaymentHandler
	Webhook *v1.WebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Public := router.Group("/v1")
	registerPublicRoutes(v1Public, handlers)

	v1Private := router.Group("/v1")
	if cfg.Deployment.Mode == types.ModeLocal {
		v1Private.Use(middleware.GuestAuthenticateMiddleware)
	} else {
		v1Private.Use(middleware.AuthenticateMiddleware(cfg, logger))
	}
	registerPrivateRoutes(v1Private, handlers)

	return router
}

// registerPublicRoutes mounts routes that carry no API key. The gateway
// webhook authenticates itself through its signature instead.
func registerPublicRoutes(router *gin.RouterGroup, handlers Handlers) {
	router.POST("/invoices/webhook", handlers.Webhook.HandleGatewayWebhook)
}

func registerPrivateRoutes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PATCH("/:id", handlers.Invoice.UpdateInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)

		invoices.POST("/:id/items", handlers.Invoice.AddInvoiceItem)
		invoices.DELETE("/:id/items/:itemId", handlers.Invoice.RemoveInvoiceItem)

		invoices.POST("/:id/send", handlers.Invoice.SendInvoice)
		invoices.POST("/:id/payment-link", handlers.Invoice.CreatePaymentLink)

		invoices.POST("/:id/payments", handlers.Payment.ApplyPayment)
		invoices.DELETE("/:id/payments/:paymentId", handlers.Payment.RemovePayment)
	}
}
