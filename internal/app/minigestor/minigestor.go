package minigestor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/minigestor/internal/cache"
	"github.com/magabrotheeeer/minigestor/internal/config"
	"github.com/magabrotheeeer/minigestor/internal/grpc/client"
	"github.com/magabrotheeeer/minigestor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/migrations"
	"github.com/magabrotheeeer/minigestor/internal/paymentprovider"
	accessservice "github.com/magabrotheeeer/minigestor/internal/services/access"
	checkoutservice "github.com/magabrotheeeer/minigestor/internal/services/checkout"
	ledgerservice "github.com/magabrotheeeer/minigestor/internal/services/ledger"
	"github.com/magabrotheeeer/minigestor/internal/storage/repository"
)

// App HTTP-приложение.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	authClient *client.AuthClient
	conn       *amqp.Connection
	ch         *amqp.Channel
}

// New создает приложение и подключает все зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	prices, err := loadPrices(cfg.Pricing)
	if err != nil {
		return nil, err
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, err
	}

	app.authClient, err = client.NewAuthClient(cfg.GRPCAuthAddress)
	if err != nil {
		app.close()
		return nil, err
	}

	var events checkoutservice.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.BillingQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		events = rabbitmq.NewPublisher(app.ch)
	} else {
		logger.Warn("rabbitmq url is empty, reconciliation events are stored only in database")
	}

	if !cfg.PaymentGateway.Configured() {
		logger.Warn("payment gateway credentials are missing, checkout will fail",
			sl.Masked("client_id", cfg.PaymentGateway.ClientID),
			sl.Masked("client_secret", cfg.PaymentGateway.ClientSecret))
	}

	accessService := accessservice.NewService(logger, db, app.cache, cfg.Checkout.ProfileCacheTTL)
	ledgerService := ledgerservice.NewService(logger, db, accessService)
	checkoutService := checkoutservice.NewService(logger,
		checkoutservice.Options{
			Prices:          prices,
			ReferencePrefix: cfg.PaymentGateway.ReferencePrefix,
			LockTTL:         cfg.Checkout.LockTTL,
		},
		checkoutservice.Deps{
			Gateway:         paymentprovider.NewClient(cfg.PaymentGateway, logger),
			Profiles:        db,
			Reconciliations: db,
			Events:          events,
			Locker:          app.cache,
			Access:          accessService,
		},
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.Checkout, Services{
		Auth:     app.authClient,
		Access:   accessService,
		Ledger:   ledgerService,
		Checkout: checkoutService,
		DB:       db.DB,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.PaymentGateway.Timeout + cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func loadPrices(p config.Pricing) (checkoutservice.Prices, error) {
	monthly, err := p.MonthlyAmount()
	if err != nil {
		return checkoutservice.Prices{}, fmt.Errorf("invalid monthly price %q: %w", p.Monthly, err)
	}
	lifetime, err := p.LifetimeAmount()
	if err != nil {
		return checkoutservice.Prices{}, fmt.Errorf("invalid lifetime price %q: %w", p.Lifetime, err)
	}
	return checkoutservice.Prices{Monthly: monthly, Lifetime: lifetime}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.authClient != nil {
		if err := a.authClient.Close(); err != nil {
			a.logger.Error("failed to close auth client", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
