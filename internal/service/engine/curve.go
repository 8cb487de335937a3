package engine

import (
	"crash_backend/internal/config"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Curve - рост множителя от времени с начала RUNNING.
// Функция монотонна, At(0) == 1
type Curve interface {
	At(elapsed time.Duration) float64
	// ElapsedFor - момент, когда кривая достигает m
	ElapsedFor(m float64) time.Duration
}

// Exponential - base^(k*t), t в секундах
type Exponential struct {
	Base float64
	K    float64
}

func (c Exponential) At(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 1
	}
	return math.Pow(c.Base, c.K*elapsed.Seconds())
}

func (c Exponential) ElapsedFor(m float64) time.Duration {
	if m <= 1 {
		return 0
	}
	sec := math.Log(m) / (c.K * math.Log(c.Base))
	return time.Duration(sec * float64(time.Second))
}

// Quadratic - 1 + c1*t + c2*t^2, t в секундах
type Quadratic struct {
	C1 float64
	C2 float64
}

func (c Quadratic) At(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 1
	}
	t := elapsed.Seconds()
	return 1 + c.C1*t + c.C2*t*t
}

func (c Quadratic) ElapsedFor(m float64) time.Duration {
	if m <= 1 {
		return 0
	}
	d := m - 1
	var sec float64
	if c.C2 == 0 {
		sec = d / c.C1
	} else {
		sec = (-c.C1 + math.Sqrt(c.C1*c.C1+4*c.C2*d)) / (2 * c.C2)
	}
	return time.Duration(sec * float64(time.Second))
}

// NewCurve - кривая по настройкам из конфига
func NewCurve(s config.CurveSettings) (Curve, error) {
	switch s.Kind {
	case "", "exponential":
		if s.Base <= 1 || s.K <= 0 {
			return nil, fmt.Errorf("exponential curve needs base > 1 and k > 0")
		}
		return Exponential{Base: s.Base, K: s.K}, nil
	case "quadratic":
		if s.C1 < 0 || s.C2 < 0 || (s.C1 == 0 && s.C2 == 0) {
			return nil, fmt.Errorf("quadratic curve needs non-negative c1, c2 and one of them > 0")
		}
		return Quadratic{C1: s.C1, C2: s.C2}, nil
	}
	return nil, fmt.Errorf("unknown curve %q", s.Kind)
}

var one = decimal.NewFromInt(1)

// Multiplier - опубликованное значение: два знака вниз, в пределах [1, crash]
func Multiplier(c Curve, elapsed time.Duration, crash decimal.Decimal) decimal.Decimal {
	m := floor2(c.At(elapsed))
	if m.LessThan(one) {
		m = one
	}
	if m.GreaterThan(crash) {
		m = crash
	}
	return m
}

func floor2(v float64) decimal.Decimal {
	if math.IsInf(v, 1) || math.IsNaN(v) {
		v = math.MaxFloat64
	}
	return decimal.NewFromFloat(v).RoundFloor(2)
}
