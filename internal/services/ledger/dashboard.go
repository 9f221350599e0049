package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/gate"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/models"
)

// Summary итоги по кошелькам и текущему месяцу.
type Summary struct {
	TotalBalance    decimal.Decimal `json:"total_balance"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	SavingRate      decimal.Decimal `json:"saving_rate"`
}

// Dashboard данные главной панели. Платные области обёрнуты в gate.Region.
type Dashboard struct {
	Entitlement entitlement.Status     `json:"entitlement"`
	Banner      entitlement.BannerView `json:"banner"`
	Summary     Summary                `json:"summary"`
	Alerts      []Alert                `json:"alerts"`
	Regions     []gate.Region          `json:"regions"`
}

// Названия областей панели.
const (
	RegionWallets      = "wallets"
	RegionTransactions = "transactions"
	RegionGoals        = "goals"
	RegionDebts        = "debts"
)

const recentTransactions = 20

// Summarize считает итоги. Суммы складываются в decimal без округления.
func Summarize(wallets []models.Wallet, monthly []models.Transaction) Summary {
	s := Summary{
		TotalBalance:    decimal.Zero,
		MonthlyIncome:   decimal.Zero,
		MonthlyExpenses: decimal.Zero,
	}
	for _, w := range wallets {
		s.TotalBalance = s.TotalBalance.Add(w.Balance)
	}
	for _, t := range monthly {
		switch t.Type {
		case models.TransactionIncome:
			s.MonthlyIncome = s.MonthlyIncome.Add(t.Amount)
		case models.TransactionExpense:
			s.MonthlyExpenses = s.MonthlyExpenses.Add(t.Amount)
		}
	}
	s.SavingRate = SavingRate(s.MonthlyIncome, s.MonthlyExpenses)
	return s
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// Dashboard собирает главную панель пользователя.
//
// Ошибка чтения статуса не мешает отрисовке: используется предварительный статус.
func (s *Service) Dashboard(ctx context.Context, userUID string) (*Dashboard, error) {
	const op = "ledger.Dashboard"
	now := s.now()

	st, err := s.access.Status(ctx, userUID)
	if err != nil {
		s.log.Warn("entitlement unavailable, rendering provisional dashboard",
			"op", op, "user_uid", userUID, sl.Err(err))
	}

	var (
		wallets      []models.Wallet
		monthly      []models.Transaction
		goals        []models.Goal
		debts        []models.Debt
		transactions []models.Transaction
	)
	from, to := monthBounds(now)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		wallets, err = s.repo.ListWallets(gctx, userUID)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = s.repo.ListTransactionsBetween(gctx, userUID, from, to)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = s.repo.ListTransactions(gctx, userUID, recentTransactions)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.repo.ListGoals(gctx, userUID)
		return err
	})
	g.Go(func() (err error) {
		debts, err = s.repo.ListDebts(gctx, userUID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summary := Summarize(wallets, monthly)
	return &Dashboard{
		Entitlement: st,
		Banner:      entitlement.Banner(st),
		Summary:     summary,
		Alerts:      Alerts(summary, goals, now),
		Regions: []gate.Region{
			gate.Guard(RegionWallets, st, wallets),
			gate.Guard(RegionTransactions, st, transactions),
			gate.Guard(RegionGoals, st, goals),
			gate.Guard(RegionDebts, st, debts),
		},
	}, nil
}
