package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

// RegisterUser сохраняет пользователя вместе с профилем в одной транзакции и возвращает его ID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User, profile models.Profile) (string, error) {
	const op = "storage.RegisterUser"

	var newID string
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, username, password_hash, role)
			 VALUES ($1, $2, $3, $4)
			 RETURNING uid`,
			user.Email, user.Username, user.PasswordHash, user.Role,
		).Scan(&newID)
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (id, name, phone, currency, plan, is_pro, is_lifetime,
			                       trial_start, trial_end)
			 VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6, $7)`,
			newID, profile.Name, nullString(profile.Phone), profile.Currency, profile.Plan,
			profile.TrialStart, profile.TrialEnd,
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	return s.getUser(ctx, op, `WHERE username = $1`, username)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	return s.getUser(ctx, op, `WHERE uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, created_at FROM users ` + where
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
