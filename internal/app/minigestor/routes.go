// Package minigestor собирает HTTP-приложение MiniGestor: маршруты, сервисы и их зависимости.
package minigestor

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/minigestor/internal/config"
	"github.com/magabrotheeeer/minigestor/internal/grpc/client"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/checkout"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/dashboard"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/health"
	"github.com/magabrotheeeer/minigestor/internal/http/handlers/ledger"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	accessservice "github.com/magabrotheeeer/minigestor/internal/services/access"
	checkoutservice "github.com/magabrotheeeer/minigestor/internal/services/checkout"
	ledgerservice "github.com/magabrotheeeer/minigestor/internal/services/ledger"
)

// Services зависимости обработчиков.
type Services struct {
	Auth     *client.AuthClient
	Access   *accessservice.Service
	Ledger   *ledgerservice.Service
	Checkout *checkoutservice.Service
	DB       health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.Checkout, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Get("/health", health.New(logger, svc.DB).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))

			ent := entitlement.New(logger, svc.Access)
			r.Get("/entitlement", ent.Status)
			r.Get("/actions/{action}", ent.Preflight)
			r.Get("/dashboard", dashboard.New(logger, svc.Ledger).ServeHTTP)

			// оплата доступна и при закрытом доступе
			r.With(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst)).
				Post("/checkout", checkout.New(logger, svc.Checkout).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireFullAccess(logger, svc.Access))
				ledger.New(logger, svc.Ledger).Routes(r)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
