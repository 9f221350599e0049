package ledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/services/ledger"
)

const userUID = "3f2b8c1e-9a7d-4e21-b5c3-0d6f1a2b3c4d"

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) CreateWallet(ctx context.Context, w models.Wallet) (*models.Wallet, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *RepositoryMock) ListWallets(ctx context.Context, uid string) ([]models.Wallet, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Wallet), args.Error(1)
}

func (m *RepositoryMock) CreateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *RepositoryMock) ListTransactions(ctx context.Context, uid string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, uid, limit)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *RepositoryMock) ListTransactionsBetween(ctx context.Context, uid string, from, to time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, uid, from, to)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *RepositoryMock) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *RepositoryMock) ListCategories(ctx context.Context, uid string) ([]models.Category, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *RepositoryMock) CreateGoal(ctx context.Context, g models.Goal) (*models.Goal, error) {
	args := m.Called(ctx, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Goal), args.Error(1)
}

func (m *RepositoryMock) ListGoals(ctx context.Context, uid string) ([]models.Goal, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Goal), args.Error(1)
}

func (m *RepositoryMock) AddGoalContribution(ctx context.Context, c models.GoalContribution) (*models.GoalContribution, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GoalContribution), args.Error(1)
}

func (m *RepositoryMock) CompleteGoal(ctx context.Context, uid, goalID string) error {
	return m.Called(ctx, uid, goalID).Error(0)
}

func (m *RepositoryMock) CreateDebt(ctx context.Context, d models.Debt) (*models.Debt, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Debt), args.Error(1)
}

func (m *RepositoryMock) ListDebts(ctx context.Context, uid string) ([]models.Debt, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).([]models.Debt), args.Error(1)
}

func (m *RepositoryMock) AddDebtPayment(ctx context.Context, p models.DebtPayment) (*models.DebtPayment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DebtPayment), args.Error(1)
}

type stubStatus struct {
	st  entitlement.Status
	err error
}

func (s stubStatus) Status(context.Context, string) (entitlement.Status, error) {
	return s.st, s.err
}

func ptrTime(t time.Time) *time.Time { return &t }

func trialStatus() entitlement.Status {
	return entitlement.Resolve(&models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now.AddDate(0, 0, 5))}, now, 5)
}

func expiredStatus() entitlement.Status {
	return entitlement.Resolve(&models.Profile{Plan: models.PlanFree, TrialEnd: ptrTime(now.AddDate(0, 0, -1))}, now, 0)
}

func newService(repo *RepositoryMock, access ledger.StatusReader) *ledger.Service {
	svc := ledger.NewService(newNoopLogger(), repo, access)
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestService_CreateTransaction_Allowed(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, stubStatus{st: trialStatus()})

	in := models.Transaction{
		WalletID: "w-1",
		Type:     models.TransactionExpense,
		Amount:   decimal.NewFromInt(150),
	}
	want := in
	want.UserID = userUID
	want.Date = now
	repo.On("CreateTransaction", mock.Anything, want).Return(&want, nil).Once()

	got, err := svc.CreateTransaction(context.Background(), userUID, in)

	require.NoError(t, err)
	assert.Equal(t, userUID, got.UserID)
	repo.AssertExpectations(t)
}

func TestService_WritesDeniedWithoutAccess(t *testing.T) {
	tests := []struct {
		name    string
		access  ledger.StatusReader
		wantErr error
	}{
		{name: "expired", access: stubStatus{st: expiredStatus()}, wantErr: gate.ErrLocked},
		{name: "provisional", access: stubStatus{st: entitlement.Provisional()}, wantErr: gate.ErrNotReady},
		{
			name:    "status error",
			access:  stubStatus{st: entitlement.Provisional(), err: errors.New("db down")},
			wantErr: gate.ErrNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepositoryMock)
			svc := newService(repo, tt.access)
			ctx := context.Background()

			_, err := svc.CreateWallet(ctx, userUID, models.Wallet{Name: "Carteira"})
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.CreateTransaction(ctx, userUID, models.Transaction{
				WalletID: "w-1", Type: models.TransactionIncome, Amount: decimal.NewFromInt(1),
			})
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.CreateCategory(ctx, userUID, models.Category{Name: "Comida"})
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.CreateGoal(ctx, userUID, models.Goal{Name: "Carro", TargetAmount: decimal.NewFromInt(10)})
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.AddGoalContribution(ctx, userUID, models.GoalContribution{GoalID: "g", Amount: decimal.NewFromInt(1)})
			assert.ErrorIs(t, err, tt.wantErr)

			assert.ErrorIs(t, svc.CompleteGoal(ctx, userUID, "g"), tt.wantErr)

			_, err = svc.CreateDebt(ctx, userUID, models.Debt{Creditor: "Banco", TotalAmount: decimal.NewFromInt(10)})
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.AddDebtPayment(ctx, userUID, models.DebtPayment{DebtID: "d", Amount: decimal.NewFromInt(1)})
			assert.ErrorIs(t, err, tt.wantErr)

			repo.AssertNotCalled(t, "CreateWallet", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "AddDebtPayment", mock.Anything, mock.Anything)
		})
	}
}

func TestService_ValidatesInput(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, stubStatus{st: trialStatus()})
	ctx := context.Background()
	dueDay := 40

	_, err := svc.CreateWallet(ctx, userUID, models.Wallet{Name: "  "})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.CreateTransaction(ctx, userUID, models.Transaction{
		WalletID: "w-1", Type: models.TransactionExpense, Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.CreateTransaction(ctx, userUID, models.Transaction{
		WalletID: "w-1", Type: "transfer", Amount: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.CreateGoal(ctx, userUID, models.Goal{Name: "Casa", TargetAmount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.CreateDebt(ctx, userUID, models.Debt{Creditor: "Banco", TotalAmount: decimal.NewFromInt(10), DueDay: &dueDay})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = svc.AddDebtPayment(ctx, userUID, models.DebtPayment{DebtID: "d", Amount: decimal.NewFromInt(-3)})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	repo.AssertExpectations(t)
}

func TestService_CreateWallet_DefaultsToCash(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, stubStatus{st: trialStatus()})

	repo.On("CreateWallet", mock.Anything, mock.MatchedBy(func(w models.Wallet) bool {
		return w.Type == models.WalletCash && w.UserID == userUID
	})).Return(&models.Wallet{ID: "w-1"}, nil).Once()

	w, err := svc.CreateWallet(context.Background(), userUID, models.Wallet{Name: "Carteira"})

	require.NoError(t, err)
	assert.Equal(t, "w-1", w.ID)
	repo.AssertExpectations(t)
}

func TestService_ListTransactions_ClampsLimit(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo, stubStatus{st: expiredStatus()})

	repo.On("ListTransactions", mock.Anything, userUID, 50).Return([]models.Transaction{}, nil).Twice()

	_, err := svc.ListTransactions(context.Background(), userUID, 0)
	require.NoError(t, err)
	_, err = svc.ListTransactions(context.Background(), userUID, 10000)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}
