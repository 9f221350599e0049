package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/services/ledger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Dashboard(ctx context.Context, userUID string) (*ledger.Dashboard, error) {
	args := m.Called(ctx, userUID)
	d, _ := args.Get(0).(*ledger.Dashboard)
	return d, args.Error(1)
}

func request(uid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, uid))
}

func TestHandler_ServeHTTP(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	t.Run("locked regions are rendered", func(t *testing.T) {
		svc := new(MockService)
		st := entitlement.Status{HasFullAccess: false}
		svc.On("Dashboard", mock.Anything, "u-1").Return(&ledger.Dashboard{
			Entitlement: st,
			Regions:     []gate.Region{gate.Guard(ledger.RegionWallets, st, []string{})},
		}, nil)

		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, request("u-1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"locked":true`)
		assert.Contains(t, rec.Body.String(), `"name":"wallets"`)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Dashboard", mock.Anything, "u-1").Return(nil, errors.New("db down"))

		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, request("u-1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := new(MockService)
		rec := httptest.NewRecorder()
		New(log, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Dashboard", mock.Anything, mock.Anything)
	})
}
