package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceMode - какой из балансов счёта используется
type BalanceMode string

const (
	ModeReal BalanceMode = "real"
	ModeDemo BalanceMode = "demo"
)

func (m BalanceMode) Valid() bool {
	return m == ModeReal || m == ModeDemo
}

// ParseBalanceMode разбирает режим; пустая строка возвращает def
func ParseBalanceMode(s string, def BalanceMode) (BalanceMode, error) {
	if s == "" {
		return def, nil
	}
	m := BalanceMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown balance mode %q", s)
	}
	return m, nil
}

type Account struct {
	ID          string
	RealBalance decimal.Decimal
	DemoBalance decimal.Decimal
	ActiveMode  BalanceMode
}

// Balance возвращает баланс для режима
func (a *Account) Balance(mode BalanceMode) decimal.Decimal {
	if mode == ModeDemo {
		return a.DemoBalance
	}
	return a.RealBalance
}

// LedgerEntry - запись журнала движения средств по счёту
type LedgerEntry struct {
	ID        string
	AccountID string
	Mode      BalanceMode
	Amount    decimal.Decimal // отрицательная для списания
	Balance   decimal.Decimal // баланс после операции
	Reason    string
	RoundID   uint64
	CreatedAt time.Time
}
