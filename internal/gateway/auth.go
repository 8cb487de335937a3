package gateway

import (
	"crash_backend/pkg/token"
)

// Authenticator - проверка токена, возвращает идентификатор счёта
type Authenticator interface {
	Authenticate(token string) (accountID string, err error)
}

type JWTAuthenticator struct {
	Secret []byte
}

func (a JWTAuthenticator) Authenticate(tokenStr string) (string, error) {
	claims, err := token.VerifyToken(tokenStr, a.Secret)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
