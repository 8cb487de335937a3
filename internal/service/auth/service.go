package auth

import (
	"crash_backend/internal/config"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid login or password")

type serv struct {
	txManager service.TxManager
	userRepo  repository.UserRepository
	authRepo  repository.AuthRepository
	jwtConfig config.JWTConfig
}

func NewService(
	txManager service.TxManager,
	userRepo repository.UserRepository,
	authRepo repository.AuthRepository,
	jwtConfig config.JWTConfig,
) service.AuthService {
	return &serv{
		txManager: txManager,
		userRepo:  userRepo,
		authRepo:  authRepo,
		jwtConfig: jwtConfig,
	}
}

func generateSessionID() string {
	return uuid.NewString()
}
