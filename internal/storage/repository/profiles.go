package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

const profileColumns = `id, name, phone, currency, plan, is_pro, is_lifetime,
	trial_start, trial_end, subscription_end, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p                                  models.Profile
		phone                              sql.NullString
		isLifetime                         sql.NullBool
		trialStart, trialEnd, subscription sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &phone, &p.Currency, &p.Plan, &p.IsPro, &isLifetime,
		&trialStart, &trialEnd, &subscription, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Phone = stringPtr(phone)
	if isLifetime.Valid {
		v := isLifetime.Bool
		p.IsLifetime = &v
	}
	p.TrialStart = timePtr(trialStart)
	p.TrialEnd = timePtr(trialEnd)
	p.SubscriptionEnd = timePtr(subscription)
	return &p, nil
}

// GetProfile возвращает профиль пользователя.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userUID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// TrialDaysRemaining вызывает серверную функцию get_trial_days_remaining.
func (s *Storage) TrialDaysRemaining(ctx context.Context, userUID string) (int, error) {
	const op = "storage.TrialDaysRemaining"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var days int
	if err := s.DB.QueryRowContext(ctx, `SELECT get_trial_days_remaining($1)`, userUID).Scan(&days); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return days, nil
}

// ApplyPurchase выдаёт доступ по оплаченному тарифу.
//
// Пожизненный тариф выставляет plan, is_pro и is_lifetime. Месячный продлевает
// subscription_end на месяц от большего из now и текущего окончания.
func (s *Storage) ApplyPurchase(ctx context.Context, userUID string, planType models.PlanType, now time.Time) error {
	const op = "storage.ApplyPurchase"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var query string
	switch planType {
	case models.PlanTypeLifetime:
		query = `UPDATE profiles
		         SET plan = 'pro', is_pro = TRUE, is_lifetime = TRUE, updated_at = $2
		         WHERE id = $1`
	case models.PlanTypeMonthly:
		query = `UPDATE profiles
		         SET subscription_end = GREATEST($2::timestamptz, COALESCE(subscription_end, $2::timestamptz)) + INTERVAL '1 month',
		             updated_at = $2
		         WHERE id = $1`
	default:
		return fmt.Errorf("%s: unsupported plan type %q", op, planType)
	}

	res, err := s.DB.ExecContext(ctx, query, userUID, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrProfileNotFound)
	}
	return nil
}

// FindTrialsEndingBetween находит пользователей без оплаты, чей пробный период
// заканчивается в интервале (from, to].
func (s *Storage) FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]models.TrialReminder, error) {
	const op = "storage.FindTrialsEndingBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id, u.email, p.name, p.trial_end, get_trial_days_remaining(p.id)
			  FROM profiles p
			  JOIN users u ON u.uid = p.id
			  WHERE p.trial_end > $1 AND p.trial_end <= $2
			    AND p.plan = 'free' AND NOT p.is_pro AND NOT COALESCE(p.is_lifetime, FALSE)
			    AND (p.subscription_end IS NULL OR p.subscription_end <= $1)
			  ORDER BY p.trial_end`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.TrialReminder
	for rows.Next() {
		var r models.TrialReminder
		if err = rows.Scan(&r.UserUID, &r.Email, &r.Name, &r.TrialEnd, &r.DaysRemaining); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
