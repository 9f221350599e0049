package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/metrics"
)

// StatusReader источник статуса доступа пользователя.
type StatusReader interface {
	Status(ctx context.Context, userUID string) (entitlement.Status, error)
}

// Locked тело ответа 403 для закрытого действия.
type Locked struct {
	Status string       `json:"status"`
	Error  string       `json:"error"`
	Notice *gate.Notice `json:"notice"`
}

// RequireFullAccess пропускает изменяющие запросы только при полном доступе.
// Запросы на чтение проходят без проверки: закрытые области отдаются обработчиками.
func RequireFullAccess(log *slog.Logger, access StatusReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			userUID, ok := UserUIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			st, err := access.Status(r.Context(), userUID)
			if err != nil {
				log.Error("failed to resolve entitlement", slog.String("user_uid", userUID), sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("entitlement unavailable, try again"))
				return
			}
			if err := gate.Enforce(st); err != nil {
				metrics.GateDenials.WithLabelValues("http", "middleware").Inc()
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, Locked{
					Status: response.StatusError,
					Error:  err.Error(),
					Notice: gate.LockedNotice(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
