package auth

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository/memory_repo"
	"crash_backend/pkg/token"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtConfig struct{}

func (jwtConfig) AccessTokenSecretKey() []byte        { return []byte("secret") }
func (jwtConfig) AccessTokenDuration() time.Duration  { return time.Minute }
func (jwtConfig) RefreshTokenDuration() time.Duration { return time.Hour }

func newTestService() *serv {
	users := memory_repo.NewUserRepository()
	return NewService(memory_repo.TxManager{}, users, memory_repo.NewAuthRepository(users), jwtConfig{}).(*serv)
}

func TestAuth_RegisterLoginRefreshLogout(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, &model.User{Name: "Ann", Login: "ann", Password: "pw"})
	require.NoError(t, err)
	claims, err := token.VerifyToken(reg.AccessToken, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)

	_, err = s.Login(ctx, &model.User{Login: "ann", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, &model.User{Login: "nobody", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := s.Login(ctx, &model.User{Login: "ann", Password: "pw"})
	require.NoError(t, err)
	claims, err = token.VerifyToken(login.AccessToken, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)

	access, err := s.Refresh(ctx, &model.AuthData{SessionID: login.SessionID, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, err = s.Refresh(ctx, &model.AuthData{SessionID: login.SessionID, RefreshToken: "forged"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, s.Logout(ctx, login.SessionID))
	_, err = s.Refresh(ctx, &model.AuthData{SessionID: login.SessionID, RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
