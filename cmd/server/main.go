package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poolstack/poolstack/internal/api"
	v1 "github.com/poolstack/poolstack/internal/api/v1"
	"github.com/poolstack/poolstack/internal/config"
	"github.com/poolstack/poolstack/internal/email"
	"github.com/poolstack/poolstack/internal/gateway/stripe"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/repository"
	"github.com/poolstack/poolstack/internal/sentry"
	"github.com/poolstack/poolstack/internal/service"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/poolstack/poolstack/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewClientRepository,
			repository.NewInventoryRepository,

			// Email
			email.NewEmailClient,
			email.NewService,
			provideInvoiceSender,

			// Payment gateway
			stripe.NewClient,
			providePaymentGateway,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewInvoiceService,
			service.NewPaymentService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		sentry.Module(),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideInvoiceSender(svc *email.Service) email.InvoiceSender {
	return svc
}

func providePaymentGateway(client *stripe.Client) stripe.Gateway {
	return client
}

func provideHandlers(
	logger *logger.Logger,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(),
		Invoice: v1.NewInvoiceHandler(invoiceService, logger),
		Payment: v1.NewPaymentHandler(paymentService, logger),
		Webhook: v1.NewWebhookHandler(paymentService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return nil
		},
	})
}
