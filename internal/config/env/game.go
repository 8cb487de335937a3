package env

import (
	"crash_backend/internal/config"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultHouseEdge    = 0.97
	defaultWaiting      = 6 * time.Second
	defaultPause        = 3 * time.Second
	defaultTick         = 100 * time.Millisecond
	defaultHistorySize  = 20
	defaultCurveBase    = 2.718281828459045
	defaultCurveK       = 0.06
	defaultSafetyMargin = "1"
)

type yamlFile struct {
	Game yamlGame `yaml:"game"`
}

type yamlCurve struct {
	Kind string  `yaml:"kind"`
	Base float64 `yaml:"base"`
	K    float64 `yaml:"k"`
	C1   float64 `yaml:"c1"`
	C2   float64 `yaml:"c2"`
}

// Денежные поля хранятся строками, чтобы не терять точность через float
type yamlGame struct {
	HouseEdge       float64       `yaml:"house_edge"`
	MaxCrashPoint   string        `yaml:"max_crash_point"`
	Waiting         time.Duration `yaml:"waiting"`
	Pause           time.Duration `yaml:"pause"`
	Tick            time.Duration `yaml:"tick"`
	HistorySize     int           `yaml:"history_size"`
	Curve           yamlCurve     `yaml:"curve"`
	SafetyMargin    string        `yaml:"safety_margin"`
	PayoutFee       string        `yaml:"payout_fee"`
	MinBet          string        `yaml:"min_bet"`
	MaxBet          string        `yaml:"max_bet"`
	DemoGrant       string        `yaml:"demo_grant"`
	InitialBankroll string        `yaml:"initial_bankroll"`
	FairnessSalt    string        `yaml:"fairness_salt"`
}

type gameConfig struct {
	houseEdge       float64
	maxCrashPoint   decimal.Decimal
	waiting         time.Duration
	pause           time.Duration
	tick            time.Duration
	historySize     int
	curve           config.CurveSettings
	safetyMargin    decimal.Decimal
	payoutFee       decimal.Decimal
	minBet          decimal.Decimal
	maxBet          decimal.Decimal
	demoGrant       decimal.Decimal
	initialBankroll decimal.Decimal
	fairnessSalt    string
}

// NewGameConfigFromYAML читает блок game из yaml файла
func NewGameConfigFromYAML(path string) (config.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game config: %w", err)
	}
	return ParseGameConfig(data)
}

// ParseGameConfig применяет значения по умолчанию и валидирует конфиг
func ParseGameConfig(data []byte) (config.GameConfig, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse game config: %w", err)
	}
	g := f.Game

	var err error
	cfg := &gameConfig{
		houseEdge:    g.HouseEdge,
		waiting:      g.Waiting,
		pause:        g.Pause,
		tick:         g.Tick,
		historySize:  g.HistorySize,
		fairnessSalt: g.FairnessSalt,
		curve: config.CurveSettings{
			Kind: g.Curve.Kind,
			Base: g.Curve.Base,
			K:    g.Curve.K,
			C1:   g.Curve.C1,
			C2:   g.Curve.C2,
		},
	}

	if cfg.houseEdge == 0 {
		cfg.houseEdge = defaultHouseEdge
	}
	if cfg.waiting == 0 {
		cfg.waiting = defaultWaiting
	}
	if cfg.pause == 0 {
		cfg.pause = defaultPause
	}
	if cfg.tick == 0 {
		cfg.tick = defaultTick
	}
	if cfg.historySize == 0 {
		cfg.historySize = defaultHistorySize
	}
	if cfg.curve.Kind == "" {
		cfg.curve.Kind = "exponential"
	}
	if cfg.curve.Kind == "exponential" {
		if cfg.curve.Base == 0 {
			cfg.curve.Base = defaultCurveBase
		}
		if cfg.curve.K == 0 {
			cfg.curve.K = defaultCurveK
		}
	}

	if cfg.maxCrashPoint, err = parseDecimal(g.MaxCrashPoint, "0"); err != nil {
		return nil, fmt.Errorf("max_crash_point: %w", err)
	}
	if cfg.safetyMargin, err = parseDecimal(g.SafetyMargin, defaultSafetyMargin); err != nil {
		return nil, fmt.Errorf("safety_margin: %w", err)
	}
	if cfg.payoutFee, err = parseDecimal(g.PayoutFee, "0"); err != nil {
		return nil, fmt.Errorf("payout_fee: %w", err)
	}
	if cfg.minBet, err = parseDecimal(g.MinBet, "0"); err != nil {
		return nil, fmt.Errorf("min_bet: %w", err)
	}
	if cfg.maxBet, err = parseDecimal(g.MaxBet, "0"); err != nil {
		return nil, fmt.Errorf("max_bet: %w", err)
	}
	if cfg.demoGrant, err = parseDecimal(g.DemoGrant, "1000"); err != nil {
		return nil, fmt.Errorf("demo_grant: %w", err)
	}
	if cfg.initialBankroll, err = parseDecimal(g.InitialBankroll, "0"); err != nil {
		return nil, fmt.Errorf("initial_bankroll: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDecimal(s, def string) (decimal.Decimal, error) {
	if s == "" {
		s = def
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("must not be negative")
	}
	return d, nil
}

func (c *gameConfig) validate() error {
	if c.houseEdge <= 0 || c.houseEdge >= 1 {
		return fmt.Errorf("house_edge must be in (0, 1), got %v", c.houseEdge)
	}
	if c.waiting < 0 || c.pause < 0 || c.tick <= 0 {
		return errors.New("durations must be positive")
	}
	if c.historySize < 0 {
		return errors.New("history_size must not be negative")
	}
	if !c.maxCrashPoint.IsZero() && c.maxCrashPoint.LessThan(decimal.NewFromInt(1)) {
		return errors.New("max_crash_point must be >= 1 or 0 (no cap)")
	}
	if c.safetyMargin.LessThan(decimal.NewFromInt(1)) {
		return errors.New("safety_margin must be >= 1")
	}
	if c.payoutFee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("payout_fee must be < 1")
	}
	if !c.maxBet.IsZero() && c.maxBet.LessThan(c.minBet) {
		return errors.New("max_bet must be >= min_bet")
	}
	switch c.curve.Kind {
	case "exponential":
		if c.curve.Base <= 1 || c.curve.K <= 0 {
			return errors.New("exponential curve needs base > 1 and k > 0")
		}
	case "quadratic":
		if c.curve.C1 < 0 || c.curve.C2 < 0 || c.curve.C1+c.curve.C2 == 0 {
			return errors.New("quadratic curve needs non-negative c1, c2 and at least one positive")
		}
	default:
		return fmt.Errorf("unknown curve kind %q", c.curve.Kind)
	}
	return nil
}

func (c *gameConfig) HouseEdge() float64 { return c.houseEdge }
func (c *gameConfig) MaxCrashPoint() decimal.Decimal { return c.maxCrashPoint }
func (c *gameConfig) WaitingDuration() time.Duration { return c.waiting }
func (c *gameConfig) SettledPause() time.Duration { return c.pause }
func (c *gameConfig) TickInterval() time.Duration { return c.tick }
func (c *gameConfig) Curve() config.CurveSettings { return c.curve }
func (c *gameConfig) HistorySize() int { return c.historySize }
func (c *gameConfig) SafetyMargin() decimal.Decimal { return c.safetyMargin }
func (c *gameConfig) PayoutFee() decimal.Decimal { return c.payoutFee }
func (c *gameConfig) MinBet() decimal.Decimal { return c.minBet }
func (c *gameConfig) MaxBet() decimal.Decimal { return c.maxBet }
func (c *gameConfig) DemoGrant() decimal.Decimal { return c.demoGrant }
func (c *gameConfig) InitialBankroll() decimal.Decimal { return c.initialBankroll }
func (c *gameConfig) FairnessSalt() string { return c.fairnessSalt }
