package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletType тип кошелька.
type WalletType string

const (
	WalletCash   WalletType = "cash"
	WalletMobile WalletType = "mobile"
	WalletBank   WalletType = "bank"
)

// TransactionType направление движения денег.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// GoalStatus статус цели накопления.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

// DebtStatus статус долга.
type DebtStatus string

const (
	DebtActive  DebtStatus = "active"
	DebtPaid    DebtStatus = "paid"
	DebtOverdue DebtStatus = "overdue"
)

// Wallet кошелёк пользователя.
type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      WalletType      `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Color     *string         `json:"color,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction доход или расход по кошельку.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	WalletID   string          `json:"wallet_id"`
	CategoryID *string         `json:"category_id,omitempty"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Note       *string         `json:"note,omitempty"`
	Essential  bool            `json:"essential"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Category категория транзакций.
type Category struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Type   TransactionType `json:"type"`
	Color  *string         `json:"color,omitempty"`
}

// Goal цель накопления.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Status        GoalStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Reached сообщает, что активная цель набрала нужную сумму.
func (g Goal) Reached() bool {
	return g.Status == GoalActive && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// GoalContribution взнос в цель.
type GoalContribution struct {
	ID        string          `json:"id"`
	GoalID    string          `json:"goal_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Debt долг пользователя.
type Debt struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Creditor        string          `json:"creditor"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	DueDay          *int            `json:"due_day,omitempty"`
	Status          DebtStatus      `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DebtPayment платёж по долгу.
type DebtPayment struct {
	ID        string          `json:"id"`
	DebtID    string          `json:"debt_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
