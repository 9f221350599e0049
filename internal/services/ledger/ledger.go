// Package ledger ведёт учёт финансов пользователя: кошельки, транзакции,
// категории, цели и долги.
//
// Каждое изменение проверяет доступ в момент выполнения, независимо от того,
// была ли открыта форма ввода.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/metrics"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

// ErrInvalidInput данные записи не подходят для сохранения.
var ErrInvalidInput = errors.New("invalid input")

// Repository хранилище записей учёта.
type Repository interface {
	CreateWallet(ctx context.Context, w models.Wallet) (*models.Wallet, error)
	ListWallets(ctx context.Context, userUID string) ([]models.Wallet, error)
	CreateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userUID string, limit int) ([]models.Transaction, error)
	ListTransactionsBetween(ctx context.Context, userUID string, from, to time.Time) ([]models.Transaction, error)
	CreateCategory(ctx context.Context, c models.Category) (*models.Category, error)
	ListCategories(ctx context.Context, userUID string) ([]models.Category, error)
	CreateGoal(ctx context.Context, g models.Goal) (*models.Goal, error)
	ListGoals(ctx context.Context, userUID string) ([]models.Goal, error)
	AddGoalContribution(ctx context.Context, c models.GoalContribution) (*models.GoalContribution, error)
	CompleteGoal(ctx context.Context, userUID, goalID string) error
	CreateDebt(ctx context.Context, d models.Debt) (*models.Debt, error)
	ListDebts(ctx context.Context, userUID string) ([]models.Debt, error)
	AddDebtPayment(ctx context.Context, p models.DebtPayment) (*models.DebtPayment, error)
}

// StatusReader источник статуса доступа.
type StatusReader interface {
	Status(ctx context.Context, userUID string) (entitlement.Status, error)
}

// Service сервис учёта.
type Service struct {
	log    *slog.Logger
	repo   Repository
	access StatusReader
	now    func() time.Time
}

// NewService создаёт Service.
func NewService(log *slog.Logger, repo Repository, access StatusReader) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		access: access,
		now:    time.Now,
	}
}

// authorize повторяет проверку доступа перед записью.
func (s *Service) authorize(ctx context.Context, userUID string, action gate.Action) error {
	st, err := s.access.Status(ctx, userUID)
	if err != nil {
		s.log.Warn("entitlement unavailable, write rejected",
			slog.String("op", "ledger.authorize"),
			slog.String("user_uid", userUID),
			slog.String("action", string(action)),
			sl.Err(err))
		return fmt.Errorf("%w: %w", gate.ErrNotReady, err)
	}
	if err := gate.Enforce(st); err != nil {
		metrics.GateDenials.WithLabelValues(string(action), "dispatch").Inc()
		return err
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

// CreateWallet создаёт кошелёк.
func (s *Service) CreateWallet(ctx context.Context, userUID string, w models.Wallet) (*models.Wallet, error) {
	const op = "ledger.CreateWallet"
	if err := s.authorize(ctx, userUID, gate.AddWallet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireText("name", w.Name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if w.Type == "" {
		w.Type = models.WalletCash
	}
	w.UserID = userUID
	created, err := s.repo.CreateWallet(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CreateTransaction сохраняет доход или расход и меняет баланс кошелька.
func (s *Service) CreateTransaction(ctx context.Context, userUID string, t models.Transaction) (*models.Transaction, error) {
	const op = "ledger.CreateTransaction"
	if err := s.authorize(ctx, userUID, gate.AddTransaction); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !t.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, ErrInvalidInput)
	}
	if t.Type != models.TransactionIncome && t.Type != models.TransactionExpense {
		return nil, fmt.Errorf("%s: %w: unknown transaction type %q", op, ErrInvalidInput, t.Type)
	}
	if err := requireText("wallet_id", t.WalletID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t.Date.IsZero() {
		t.Date = s.now()
	}
	t.UserID = userUID
	created, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CreateCategory создаёт категорию.
func (s *Service) CreateCategory(ctx context.Context, userUID string, c models.Category) (*models.Category, error) {
	const op = "ledger.CreateCategory"
	if err := s.authorize(ctx, userUID, gate.AddCategory); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireText("name", c.Name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.UserID = userUID
	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CreateGoal создаёт цель накопления.
func (s *Service) CreateGoal(ctx context.Context, userUID string, g models.Goal) (*models.Goal, error) {
	const op = "ledger.CreateGoal"
	if err := s.authorize(ctx, userUID, gate.AddGoal); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireText("name", g.Name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !g.TargetAmount.IsPositive() || g.CurrentAmount.IsNegative() {
		return nil, fmt.Errorf("%s: %w: invalid goal amounts", op, ErrInvalidInput)
	}
	g.UserID = userUID
	created, err := s.repo.CreateGoal(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// AddGoalContribution добавляет взнос в цель.
func (s *Service) AddGoalContribution(ctx context.Context, userUID string, c models.GoalContribution) (*models.GoalContribution, error) {
	const op = "ledger.AddGoalContribution"
	if err := s.authorize(ctx, userUID, gate.AddGoalContribution); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !c.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, ErrInvalidInput)
	}
	c.UserID = userUID
	created, err := s.repo.AddGoalContribution(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// CompleteGoal закрывает цель. Проверяется тем же правом, что и взнос.
func (s *Service) CompleteGoal(ctx context.Context, userUID, goalID string) error {
	const op = "ledger.CompleteGoal"
	if err := s.authorize(ctx, userUID, gate.AddGoalContribution); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.CompleteGoal(ctx, userUID, goalID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateDebt создаёт долг.
func (s *Service) CreateDebt(ctx context.Context, userUID string, d models.Debt) (*models.Debt, error) {
	const op = "ledger.CreateDebt"
	if err := s.authorize(ctx, userUID, gate.AddDebt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := requireText("creditor", d.Creditor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !d.TotalAmount.IsPositive() || d.MonthlyPayment.IsNegative() {
		return nil, fmt.Errorf("%s: %w: invalid debt amounts", op, ErrInvalidInput)
	}
	if d.DueDay != nil && (*d.DueDay < 1 || *d.DueDay > 31) {
		return nil, fmt.Errorf("%s: %w: due day out of range", op, ErrInvalidInput)
	}
	d.UserID = userUID
	created, err := s.repo.CreateDebt(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// AddDebtPayment регистрирует платёж по долгу.
func (s *Service) AddDebtPayment(ctx context.Context, userUID string, p models.DebtPayment) (*models.DebtPayment, error) {
	const op = "ledger.AddDebtPayment"
	if err := s.authorize(ctx, userUID, gate.AddDebtPayment); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, ErrInvalidInput)
	}
	p.UserID = userUID
	created, err := s.repo.AddDebtPayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListWallets кошельки пользователя.
func (s *Service) ListWallets(ctx context.Context, userUID string) ([]models.Wallet, error) {
	return s.repo.ListWallets(ctx, userUID)
}

// ListTransactions последние транзакции пользователя.
func (s *Service) ListTransactions(ctx context.Context, userUID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListTransactions(ctx, userUID, limit)
}

// ListCategories категории пользователя.
func (s *Service) ListCategories(ctx context.Context, userUID string) ([]models.Category, error) {
	return s.repo.ListCategories(ctx, userUID)
}

// ListGoals цели пользователя.
func (s *Service) ListGoals(ctx context.Context, userUID string) ([]models.Goal, error) {
	return s.repo.ListGoals(ctx, userUID)
}

// ListDebts долги пользователя.
func (s *Service) ListDebts(ctx context.Context, userUID string) ([]models.Debt, error) {
	return s.repo.ListDebts(ctx, userUID)
}
