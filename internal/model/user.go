package model

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID       int
	Name     string
	Login    string
	Password string
}

// AccountID - идентификатор игрового счёта пользователя
func (u *User) AccountID() string {
	return strconv.Itoa(u.ID)
}

type UserClaims struct {
	jwt.RegisteredClaims
}
