// Package server реализует gRPC-сервер для авторизационного сервиса.
//
// AuthServer обрабатывает gRPC-запросы регистрации, входа и валидации JWT токенов.
// Логирует операции и ошибки, делегирует бизнес-логику сервису auth.
package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authpb "github.com/magabrotheeeer/minigestor/internal/grpc/gen"
	"github.com/magabrotheeeer/minigestor/internal/lib/password"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/services/auth"
	"github.com/magabrotheeeer/minigestor/internal/storage/repository"
)

// AuthServiceInterface бизнес-логика авторизации.
type AuthServiceInterface interface {
	Register(ctx context.Context, reg auth.Registration) (string, error)
	Login(ctx context.Context, username, password string) (token, role, userUID string, err error)
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// AuthServer реализует gRPC-сервис авторизации
type AuthServer struct {
	authpb.UnimplementedAuthServiceServer
	authService AuthServiceInterface
	log         *slog.Logger
}

// NewAuthServer создает новый экземпляр AuthServer с указанным сервисом аутентификации и логгером.
func NewAuthServer(authService AuthServiceInterface, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		authService: authService,
		log:         logger,
	}
}

// Register создает нового пользователя с пробным периодом
func (s *AuthServer) Register(ctx context.Context, req *authpb.RegisterRequest) (*authpb.RegisterResponse, error) {
	s.log.Info("Register request", slog.String("username", req.Username))

	if req.Username == "" || req.Password == "" || req.Email == "" {
		return nil, status.Error(codes.InvalidArgument, "email, username and password are required")
	}

	reg := auth.Registration{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	}
	if req.Phone != "" {
		phone := req.Phone
		reg.Phone = &phone
	}

	uid, err := s.authService.Register(ctx, reg)
	if errors.Is(err, repository.ErrUserExists) {
		s.log.Warn("Register rejected, user exists", slog.String("username", req.Username))
		return nil, status.Error(codes.AlreadyExists, "user already exists")
	}
	if errors.Is(err, password.ErrPolicy) {
		return nil, status.Errorf(codes.InvalidArgument, "password must have %d to %d characters", password.MinLength, password.MaxBytes)
	}
	if err != nil {
		s.log.Error("Register failed", slog.String("username", req.Username), sl.Err(err))
		return nil, status.Error(codes.Internal, "registration failed")
	}
	return &authpb.RegisterResponse{
		Success: true,
		Message: "user created successfully",
		UserUID: uid,
	}, nil
}

// Login проверяет пользователя и генерирует JWT
func (s *AuthServer) Login(ctx context.Context, req *authpb.LoginRequest) (*authpb.LoginResponse, error) {
	s.log.Info("Login request", slog.String("username", req.Username))

	token, role, uid, err := s.authService.Login(ctx, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		s.log.Error("Login failed", slog.String("username", req.Username), sl.Err(err))
		return nil, status.Error(codes.Internal, "login failed")
	}

	return &authpb.LoginResponse{
		Token:   token,
		Role:    role,
		UserUID: uid,
	}, nil
}

// ValidateToken проверяет валидность JWT и возвращает данные пользователя
func (s *AuthServer) ValidateToken(ctx context.Context, req *authpb.ValidateTokenRequest) (*authpb.ValidateTokenResponse, error) {
	user, err := s.authService.ValidateToken(ctx, req.Token)
	if err != nil {
		s.log.Debug("Invalid token", sl.Err(err))
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return &authpb.ValidateTokenResponse{
		Username: user.Username,
		Role:     user.Role,
		Valid:    true,
		Useruid:  user.UUID,
	}, nil
}
