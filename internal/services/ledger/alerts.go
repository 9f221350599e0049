package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// AlertKind важность подсказки на панели.
type AlertKind string

const (
	AlertDanger  AlertKind = "danger"
	AlertWarning AlertKind = "warning"
	AlertSuccess AlertKind = "success"
)

// Alert подсказка на панели.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

var (
	hundred       = decimal.NewFromInt(100)
	minSavingRate = decimal.NewFromInt(10)
)

// SavingRate доля сбережений от доходов месяца в процентах. Ноль без доходов.
func SavingRate(income, expenses decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return income.Sub(expenses).Div(income).Mul(hundred)
}

// Alerts строит подсказки по итогам месяца на дату now.
func Alerts(s Summary, goals []models.Goal, now time.Time) []Alert {
	var alerts []Alert

	if s.MonthlyExpenses.GreaterThan(s.MonthlyIncome) && s.MonthlyIncome.IsPositive() {
		alerts = append(alerts, Alert{
			Kind:    AlertDanger,
			Message: "Seus gastos estão maiores que suas entradas este mês.",
		})
	}

	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	dayOfMonth := now.Day()
	daysLeft := daysInMonth - dayOfMonth
	if daysLeft > 0 && s.MonthlyExpenses.IsPositive() && s.TotalBalance.IsPositive() {
		daily := s.MonthlyExpenses.Div(decimal.NewFromInt(int64(dayOfMonth)))
		projected := daily.Mul(decimal.NewFromInt(int64(daysInMonth)))
		if projected.GreaterThan(s.TotalBalance) {
			daysUntilEmpty := s.TotalBalance.Div(daily).Floor().IntPart()
			if daysUntilEmpty < int64(daysLeft) {
				alerts = append(alerts, Alert{
					Kind:    AlertWarning,
					Message: fmt.Sprintf("Se continuar assim, o dinheiro acaba em %d dias.", daysUntilEmpty),
				})
			}
		}
	}

	reached := 0
	for _, g := range goals {
		if g.Reached() {
			reached++
		}
	}
	if reached > 0 {
		suffix := ""
		if reached > 1 {
			suffix = "s"
		}
		alerts = append(alerts, Alert{
			Kind:    AlertSuccess,
			Message: fmt.Sprintf("Parabéns! Você alcançou %d meta%s!", reached, suffix),
		})
	}

	if s.MonthlyIncome.GreaterThan(s.MonthlyExpenses) {
		if rate := SavingRate(s.MonthlyIncome, s.MonthlyExpenses); rate.GreaterThanOrEqual(minSavingRate) {
			alerts = append(alerts, Alert{
				Kind:    AlertSuccess,
				Message: fmt.Sprintf("Você está poupando %s%% das suas entradas este mês!", rate.Round(0).String()),
			})
		}
	}
	return alerts
}
