package engine

import (
	"crash_backend/pkg/fair"
	"math"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// Draw - случайное значение раунда и коммит для проверки честности
type Draw struct {
	U          float64
	ServerSeed string
	SeedHash   string
	// Salt - публичная соль HMAC, публикуется вместе с сидом
	Salt string
}

// Source - откуда берётся U в [0, 1)
type Source interface {
	Draw(roundID uint64) (Draw, error)
}

// FairSource - сид на каждый раунд, U = HMAC(seed, salt|round).
// Хэш сида публикуется до ставок, сам сид после расчёта
type FairSource struct {
	Salt string
}

func (s FairSource) Draw(roundID uint64) (Draw, error) {
	seed, err := fair.GenerateServerSeed()
	if err != nil {
		return Draw{}, err
	}
	return Draw{
		U:          fair.DeriveFloat64(seed, s.Salt, roundID),
		ServerSeed: seed,
		SeedHash:   fair.SeedHash(seed),
		Salt:       s.Salt,
	}, nil
}

// SeededSource - воспроизводимая последовательность для тестов и симуляций
type SeededSource struct {
	mtx sync.Mutex
	rnd *rand.Rand
}

func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *SeededSource) Draw(uint64) (Draw, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return Draw{U: s.rnd.Float64()}, nil
}

// FixedSource - отдаёт заданные значения по кругу
type FixedSource struct {
	mtx    sync.Mutex
	values []float64
	next   int
}

func NewFixedSource(values ...float64) *FixedSource {
	return &FixedSource{values: values}
}

func (s *FixedSource) Draw(uint64) (Draw, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	u := s.values[s.next%len(s.values)]
	s.next++
	return Draw{U: u}, nil
}

// CrashPoint - S = max(1, edge/(1-U)), два знака вниз.
// Потолок maxCrash (если > 0) обрезает значение, повторного розыгрыша нет
func CrashPoint(houseEdge, u float64, maxCrash decimal.Decimal) decimal.Decimal {
	if u < 0 {
		u = 0
	}
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}

	s := floor2(houseEdge / (1 - u))
	if s.LessThan(one) {
		s = one
	}
	if maxCrash.IsPositive() && s.GreaterThan(maxCrash) {
		s = maxCrash
	}
	return s
}
