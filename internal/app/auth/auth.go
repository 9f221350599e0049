// Package auth собирает gRPC-сервис авторизации.
package auth

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/magabrotheeeer/minigestor/internal/config"
	authpb "github.com/magabrotheeeer/minigestor/internal/grpc/gen"
	"github.com/magabrotheeeer/minigestor/internal/grpc/server"
	"github.com/magabrotheeeer/minigestor/internal/lib/jwt"
	"github.com/magabrotheeeer/minigestor/internal/migrations"
	authservices "github.com/magabrotheeeer/minigestor/internal/services/auth"
	"github.com/magabrotheeeer/minigestor/internal/storage/repository"
)

// App gRPC-приложение авторизации.
type App struct {
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *repository.Storage
}

// New создает приложение. Регистрация пользователя открывает пробный период
// длиной cfg.Trial.LengthDays.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservices.NewService(db, jwtMaker, cfg.Trial.LengthDays, cfg.Pricing.Currency)

	lis, err := net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, server.NewAuthServer(authService, logger))

	return &App{
		grpcServer: grpcServer,
		listener:   lis,
		logger:     logger,
		db:         db,
	}, nil
}

// Run обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	select {
	case <-ctx.Done():
		a.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
