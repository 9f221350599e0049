package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// SaveReconciliation сохраняет запись о платеже, требующем ручной сверки.
// CreatedAt хранит момент списания, пустое значение заменяется текущим временем.
// Повторная запись с той же ссылкой игнорируется.
func (s *Storage) SaveReconciliation(ctx context.Context, r models.Reconciliation) error {
	const op = "storage.SaveReconciliation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO payment_reconciliations (user_id, email, reference, amount, method, plan_type, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (reference) DO NOTHING`,
		r.UserID, r.Email, r.Reference, r.Amount, r.Method, r.PlanType, r.Reason, createdAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListOpenReconciliations возвращает нерешённые записи, старые первыми.
func (s *Storage) ListOpenReconciliations(ctx context.Context) ([]models.Reconciliation, error) {
	const op = "storage.ListOpenReconciliations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, email, reference, amount, method, plan_type, reason, created_at, resolved_at
		 FROM payment_reconciliations
		 WHERE resolved_at IS NULL
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Reconciliation
	for rows.Next() {
		var (
			r        models.Reconciliation
			resolved sql.NullTime
		)
		if err = rows.Scan(&r.ID, &r.UserID, &r.Email, &r.Reference, &r.Amount, &r.Method,
			&r.PlanType, &r.Reason, &r.CreatedAt, &resolved); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.ResolvedAt = timePtr(resolved)
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
