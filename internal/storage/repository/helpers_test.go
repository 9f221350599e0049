package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/minigestor/internal/migrations"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser регистрирует пользователя с пробным периодом, заканчивающимся в trialEnd
func (f *TestDataFactory) CreateUser(t *testing.T, username string, trialEnd time.Time) string {
	t.Helper()
	trialStart := trialEnd.AddDate(0, 0, -30)
	uid, err := f.storage.RegisterUser(context.Background(),
		models.User{
			Email:        username + "@example.com",
			Username:     username,
			PasswordHash: "hashedpassword",
			Role:         "user",
		},
		models.Profile{
			Name:       username,
			Currency:   "MZN",
			Plan:       models.PlanFree,
			TrialStart: &trialStart,
			TrialEnd:   &trialEnd,
		})
	require.NoError(t, err)
	return uid
}

// CreateWallet создает кошелёк с начальным балансом
func (f *TestDataFactory) CreateWallet(t *testing.T, userUID string, balance int64) string {
	t.Helper()
	w, err := f.storage.CreateWallet(context.Background(), models.Wallet{
		UserID:  userUID,
		Name:    "Carteira",
		Type:    models.WalletCash,
		Balance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return w.ID
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyWalletBalance проверяет баланс кошелька
func (v *TestVerification) VerifyWalletBalance(t *testing.T, walletID string, expected string) {
	t.Helper()
	var balance decimal.Decimal
	err := v.storage.DB.QueryRow("SELECT balance FROM wallets WHERE id = $1", walletID).Scan(&balance)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString(expected).Equal(balance), "balance %s, want %s", balance, expected)
}

// VerifyRowCount проверяет количество строк таблицы, принадлежащих пользователю
func (v *TestVerification) VerifyRowCount(t *testing.T, table, userUID string, expected int) {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE user_id = $1", userUID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err, "failed to get host")
	port, err := postgresContainer.MappedPort(ctx, "5432")
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "failed to apply migrations")
	require.NoError(t, CheckDatabaseReady(storage))

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.Close()
		}
		if postgresContainer != nil {
			_ = postgresContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}
