package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// CreateWallet сохраняет новый кошелёк.
func (s *Storage) CreateWallet(ctx context.Context, w models.Wallet) (*models.Wallet, error) {
	const op = "storage.CreateWallet"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO wallets (user_id, name, type, balance, color)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		w.UserID, w.Name, w.Type, w.Balance, nullString(w.Color),
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &w, nil
}

// ListWallets возвращает кошельки пользователя в порядке создания.
func (s *Storage) ListWallets(ctx context.Context, userUID string) ([]models.Wallet, error) {
	const op = "storage.ListWallets"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, name, type, balance, color, created_at
		 FROM wallets WHERE user_id = $1 ORDER BY created_at`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Wallet
	for rows.Next() {
		var (
			w     models.Wallet
			color sql.NullString
		)
		if err = rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &w.Balance, &color, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		w.Color = stringPtr(color)
		result = append(result, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateTransaction сохраняет транзакцию и меняет баланс кошелька.
// Доход увеличивает баланс, расход уменьшает.
func (s *Storage) CreateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	const op = "storage.CreateTransaction"

	delta := t.Amount
	if t.Type == models.TransactionExpense {
		delta = delta.Neg()
	}

	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = balance + $1 WHERE id = $2 AND user_id = $3`,
			delta, t.WalletID, t.UserID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		return tx.QueryRowContext(ctx,
			`INSERT INTO transactions (user_id, wallet_id, category_id, type, amount, date, note, essential)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			t.UserID, t.WalletID, nullString(t.CategoryID), t.Type, t.Amount, t.Date,
			nullString(t.Note), t.Essential,
		).Scan(&t.ID, &t.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions возвращает последние транзакции пользователя, новые первыми.
func (s *Storage) ListTransactions(ctx context.Context, userUID string, limit int) ([]models.Transaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, wallet_id, category_id, type, amount, date, note, essential, created_at
		 FROM transactions WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC
		 LIMIT $2`, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListTransactionsBetween возвращает транзакции пользователя с датой в [from, to).
func (s *Storage) ListTransactionsBetween(ctx context.Context, userUID string, from, to time.Time) ([]models.Transaction, error) {
	const op = "storage.ListTransactionsBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, wallet_id, category_id, type, amount, date, note, essential, created_at
		 FROM transactions
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date DESC, created_at DESC`, userUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var result []models.Transaction
	for rows.Next() {
		var (
			t              models.Transaction
			category, note sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.WalletID, &category, &t.Type, &t.Amount,
			&t.Date, &note, &t.Essential, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CategoryID = stringPtr(category)
		t.Note = stringPtr(note)
		result = append(result, t)
	}
	return result, rows.Err()
}

// CreateCategory сохраняет категорию.
func (s *Storage) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	const op = "storage.CreateCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO categories (user_id, name, type, color) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.UserID, c.Name, c.Type, nullString(c.Color),
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// ListCategories возвращает категории пользователя по алфавиту.
func (s *Storage) ListCategories(ctx context.Context, userUID string) ([]models.Category, error) {
	const op = "storage.ListCategories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, name, type, color FROM categories WHERE user_id = $1 ORDER BY name`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Category
	for rows.Next() {
		var (
			c     models.Category
			color sql.NullString
		)
		if err = rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &color); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Color = stringPtr(color)
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateGoal сохраняет цель накопления со статусом active.
func (s *Storage) CreateGoal(ctx context.Context, g models.Goal) (*models.Goal, error) {
	const op = "storage.CreateGoal"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	g.Status = models.GoalActive
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO goals (user_id, name, target_amount, current_amount, deadline, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.Deadline, g.Status,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &g, nil
}

// ListGoals возвращает цели пользователя, новые первыми.
func (s *Storage) ListGoals(ctx context.Context, userUID string) ([]models.Goal, error) {
	const op = "storage.ListGoals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, name, target_amount, current_amount, deadline, status, created_at
		 FROM goals WHERE user_id = $1 ORDER BY created_at DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Goal
	for rows.Next() {
		var (
			g        models.Goal
			deadline sql.NullTime
		)
		if err = rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&deadline, &g.Status, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		g.Deadline = timePtr(deadline)
		result = append(result, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AddGoalContribution сохраняет взнос и увеличивает накопленную сумму цели.
// Цель не завершается автоматически, её закрывает CompleteGoal.
func (s *Storage) AddGoalContribution(ctx context.Context, c models.GoalContribution) (*models.GoalContribution, error) {
	const op = "storage.AddGoalContribution"

	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE goals SET current_amount = current_amount + $1
			 WHERE id = $2 AND user_id = $3 AND status = 'active'`,
			c.Amount, c.GoalID, c.UserID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		return tx.QueryRowContext(ctx,
			`INSERT INTO goal_contributions (goal_id, user_id, amount, note)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			c.GoalID, c.UserID, c.Amount, nullString(c.Note),
		).Scan(&c.ID, &c.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CompleteGoal переводит цель в статус completed.
func (s *Storage) CompleteGoal(ctx context.Context, userUID, goalID string) error {
	const op = "storage.CompleteGoal"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE goals SET status = 'completed' WHERE id = $1 AND user_id = $2`, goalID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// CreateDebt сохраняет долг. Остаток при создании равен полной сумме.
func (s *Storage) CreateDebt(ctx context.Context, d models.Debt) (*models.Debt, error) {
	const op = "storage.CreateDebt"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	d.RemainingAmount = d.TotalAmount
	d.Status = models.DebtActive
	var dueDay sql.NullInt32
	if d.DueDay != nil {
		dueDay = sql.NullInt32{Int32: int32(*d.DueDay), Valid: true}
	}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO debts (user_id, creditor, total_amount, remaining_amount, monthly_payment, due_day, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		d.UserID, d.Creditor, d.TotalAmount, d.RemainingAmount, d.MonthlyPayment, dueDay, d.Status,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &d, nil
}

// ListDebts возвращает долги пользователя, новые первыми.
func (s *Storage) ListDebts(ctx context.Context, userUID string) ([]models.Debt, error) {
	const op = "storage.ListDebts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, creditor, total_amount, remaining_amount, monthly_payment, due_day, status, created_at
		 FROM debts WHERE user_id = $1 ORDER BY created_at DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Debt
	for rows.Next() {
		var (
			d      models.Debt
			dueDay sql.NullInt32
		)
		if err = rows.Scan(&d.ID, &d.UserID, &d.Creditor, &d.TotalAmount, &d.RemainingAmount,
			&d.MonthlyPayment, &dueDay, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if dueDay.Valid {
			v := int(dueDay.Int32)
			d.DueDay = &v
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AddDebtPayment сохраняет платёж и уменьшает остаток долга.
// Когда остаток доходит до нуля, долг получает статус paid.
func (s *Storage) AddDebtPayment(ctx context.Context, p models.DebtPayment) (*models.DebtPayment, error) {
	const op = "storage.AddDebtPayment"

	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		var remaining decimal.Decimal
		err := tx.QueryRowContext(ctx,
			`SELECT remaining_amount FROM debts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			p.DebtID, p.UserID,
		).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if p.Amount.GreaterThan(remaining) {
			return ErrAmountExceedsRemaining
		}

		left := remaining.Sub(p.Amount)
		status := models.DebtActive
		if left.IsZero() {
			status = models.DebtPaid
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE debts SET remaining_amount = $1, status = $2 WHERE id = $3`,
			left, status, p.DebtID); err != nil {
			return err
		}

		return tx.QueryRowContext(ctx,
			`INSERT INTO debt_payments (debt_id, user_id, amount, note)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			p.DebtID, p.UserID, p.Amount, nullString(p.Note),
		).Scan(&p.ID, &p.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
