package middlewarectx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

type stubStatus struct {
	st  entitlement.Status
	err error
}

func (s stubStatus) Status(context.Context, string) (entitlement.Status, error) {
	return s.st, s.err
}

func withUser(r *http.Request, uid string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middlewarectx.UserUID, uid))
}

func TestRequireFullAccess(t *testing.T) {
	now := time.Now()
	future, past := now.Add(48*time.Hour), now.Add(-time.Hour)
	trial := entitlement.Resolve(&models.Profile{TrialEnd: &future}, now, 2)
	expired := entitlement.Resolve(&models.Profile{TrialEnd: &past}, now, 0)

	tests := []struct {
		name       string
		method     string
		uid        string
		access     stubStatus
		wantStatus int
		wantCalled bool
	}{
		{name: "reads pass when expired", method: http.MethodGet, uid: "u-1", access: stubStatus{st: expired}, wantStatus: http.StatusOK, wantCalled: true},
		{name: "write allowed in trial", method: http.MethodPost, uid: "u-1", access: stubStatus{st: trial}, wantStatus: http.StatusOK, wantCalled: true},
		{name: "write blocked when expired", method: http.MethodPost, uid: "u-1", access: stubStatus{st: expired}, wantStatus: http.StatusForbidden},
		{name: "write blocked while provisional", method: http.MethodPost, uid: "u-1", access: stubStatus{st: entitlement.Provisional()}, wantStatus: http.StatusForbidden},
		{name: "status error", method: http.MethodPost, uid: "u-1", access: stubStatus{st: entitlement.Provisional(), err: errors.New("db")}, wantStatus: http.StatusServiceUnavailable},
		{name: "no user", method: http.MethodPost, access: stubStatus{st: trial}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			handler := middlewarectx.RequireFullAccess(newNoopLogger(), tt.access)(next)

			req := httptest.NewRequest(tt.method, "/api/v1/wallets", nil)
			if tt.uid != "" {
				req = withUser(req, tt.uid)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantStatus == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "Ativar Plano Pro")
			}
		})
	}
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	do := func(uid string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/checkout", nil), uid))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("u-1"))
	assert.Equal(t, http.StatusOK, do("u-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u-1"))
	assert.Equal(t, http.StatusOK, do("u-2"))
}
