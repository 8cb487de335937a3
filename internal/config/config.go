package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

// CurveSettings - параметры кривой роста множителя
type CurveSettings struct {
	Kind string  // exponential | quadratic
	Base float64 // exponential: base^(k*t)
	K    float64
	C1   float64 // quadratic: 1 + c1*t + c2*t^2
	C2   float64
}

type GameConfig interface {
	HouseEdge() float64
	MaxCrashPoint() decimal.Decimal
	WaitingDuration() time.Duration
	SettledPause() time.Duration
	TickInterval() time.Duration
	Curve() CurveSettings
	HistorySize() int
	SafetyMargin() decimal.Decimal
	PayoutFee() decimal.Decimal
	MinBet() decimal.Decimal
	MaxBet() decimal.Decimal
	DemoGrant() decimal.Decimal
	InitialBankroll() decimal.Decimal
	FairnessSalt() string
}

type HTTPConfig interface {
	Address() string
}

type PGConfig interface {
	DSN() string
}

type JWTConfig interface {
	AccessTokenSecretKey() []byte
	AccessTokenDuration() time.Duration
	RefreshTokenDuration() time.Duration
}

type NATSConfig interface {
	Enabled() bool
	URL() string
	SubjectPrefix() string
}

type JournalConfig interface {
	Dir() string
}

type StorageConfig interface {
	// Backend - postgres или memory
	Backend() string
}

type LogConfig interface {
	Level() slog.Level
}
