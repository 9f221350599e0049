// Package auth содержит бизнес-логику регистрации, входа и проверки JWT.
//
// Регистрация сразу открывает пробный период: пользователь и его профиль
// сохраняются одной транзакцией.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/lib/jwt"
	"github.com/magabrotheeeer/minigestor/internal/lib/password"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/storage/repository"
)

// ErrInvalidCredentials неверное имя пользователя или пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

const defaultRole = "user"

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет пользователя и профиль, возвращает UID.
	RegisterUser(ctx context.Context, user models.User, profile models.Profile) (string, error)
	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Registration данные новой учётной записи.
type Registration struct {
	Email    string
	Username string
	Password string
	Name     string
	Phone    *string
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	trialDays int
	currency  string
	now       func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, jwtMaker jwt.Maker, trialDays int, currency string) *Service {
	return &Service{
		users:     users,
		jwtMaker:  jwtMaker,
		trialDays: trialDays,
		currency:  currency,
		now:       time.Now,
	}
}

// Register создает пользователя с ролью "user" и профиль с пробным периодом trialDays дней.
func (s *Service) Register(ctx context.Context, reg Registration) (string, error) {
	const op = "auth.Register"
	hashed, err := password.Hash(reg.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	trialStart := s.now().UTC()
	trialEnd := trialStart.AddDate(0, 0, s.trialDays)
	name := reg.Name
	if name == "" {
		name = reg.Username
	}

	uid, err := s.users.RegisterUser(ctx,
		models.User{
			Email:        reg.Email,
			Username:     reg.Username,
			PasswordHash: hashed,
			Role:         defaultRole,
		},
		models.Profile{
			Name:       name,
			Phone:      reg.Phone,
			Currency:   s.currency,
			Plan:       models.PlanFree,
			TrialStart: &trialStart,
			TrialEnd:   &trialEnd,
		})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль и выпускает JWT. Возвращает токен, роль и UID пользователя.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role, userUID string, err error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		return "", "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UUID)
	if err != nil {
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, user.UUID, nil
}

// ValidateToken проверяет JWT и возвращает пользователя из его claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", err)
	}
	return &models.User{
		UUID:     claims.UserUID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}
