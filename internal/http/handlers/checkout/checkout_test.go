package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/minigestor/internal/http/response"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/paymentprovider"
	checkoutsvc "github.com/magabrotheeeer/minigestor/internal/services/checkout"
)

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) Checkout(ctx context.Context, userUID string, intent models.PaymentIntent) (*checkoutsvc.Result, error) {
	args := m.Called(ctx, userUID, intent)
	res, _ := args.Get(0).(*checkoutsvc.Result)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const validBody = `{"name":"Ana","email":"ana@example.com","phone":"841234567","method":"mpesa","amount":299,"plan_type":"lifetime"}`

func serve(t *testing.T, svc Service, body string, uid string) (int, response.Payment) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	if uid != "" {
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, uid))
	}
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, req)

	var resp response.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		result   *checkoutsvc.Result
		want     response.Payment
		wantCode int
	}{
		{
			name:     "confirmed",
			result:   &checkoutsvc.Result{Outcome: checkoutsvc.OutcomeConfirmed, Reference: "mg-1"},
			wantCode: http.StatusOK,
			want:     response.Payment{Success: true, PaymentSuccess: true, ProfileUpdated: true, Message: msgConfirmed, Reference: "mg-1"},
		},
		{
			name:     "charged but profile not updated",
			result:   &checkoutsvc.Result{Outcome: checkoutsvc.OutcomeReconciliationRequired, Reference: "mg-2"},
			wantCode: http.StatusOK,
			want:     response.Payment{Success: true, PaymentSuccess: true, ProfileUpdated: false, Message: msgReconcile, Reference: "mg-2"},
		},
		{
			name:     "declined",
			result:   &checkoutsvc.Result{Outcome: checkoutsvc.OutcomeDeclined, Reference: "mg-3"},
			wantCode: http.StatusOK,
			want:     response.Payment{Error: msgDeclined, Reference: "mg-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCheckout)
			svc.On("Checkout", mock.Anything, "u-1", mock.MatchedBy(func(i models.PaymentIntent) bool {
				return i.UserID == "u-1" && i.Method == models.MethodMpesa && i.Amount.Equal(decimal.NewFromInt(299))
			})).Return(tt.result, nil)

			code, resp := serve(t, svc, validBody, "u-1")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, resp)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing field",
			err:      &checkoutsvc.ValidationError{Field: "name", Err: checkoutsvc.ErrMissingField},
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  msgMissingFields,
		},
		{
			name:     "phone of another operator",
			err:      &checkoutsvc.ValidationError{Field: "phone", Err: checkoutsvc.ErrInvalidPhone},
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  msgInvalidPhone,
		},
		{
			name:     "amount mismatch",
			err:      fmt.Errorf("checkout.Checkout: %w", &checkoutsvc.ValidationError{Field: "amount", Err: checkoutsvc.ErrAmountMismatch}),
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  msgInvalidPayment,
		},
		{
			name:     "already in progress",
			err:      checkoutsvc.ErrCheckoutInProgress,
			wantCode: http.StatusConflict,
			wantMsg:  msgInProgress,
		},
		{
			name:     "profile not loaded",
			err:      fmt.Errorf("checkout.Checkout: %w", gate.ErrNotReady),
			wantCode: http.StatusServiceUnavailable,
			wantMsg:  msgNotReady,
		},
		{
			name:     "credentials missing",
			err:      paymentprovider.ErrNotConfigured,
			wantCode: http.StatusServiceUnavailable,
			wantMsg:  msgNotConfigured,
		},
		{
			name:     "token exchange",
			err:      fmt.Errorf("wrap: %w", paymentprovider.ErrTokenExchange),
			wantCode: http.StatusBadGateway,
			wantMsg:  msgGatewayAuth,
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  msgFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCheckout)
			svc.On("Checkout", mock.Anything, "u-1", mock.Anything).Return(nil, tt.err)

			code, resp := serve(t, svc, validBody, "u-1")

			assert.Equal(t, tt.wantCode, code)
			assert.False(t, resp.Success)
			assert.False(t, resp.PaymentSuccess)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestHandler_BadRequests(t *testing.T) {
	svc := new(MockCheckout)

	code, _ := serve(t, svc, `{"name":`, "u-1")
	assert.Equal(t, http.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
}
