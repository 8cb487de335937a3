package engine

import (
	"crash_backend/internal/config"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurves_MonotoneAndBounded(t *testing.T) {
	curves := map[string]Curve{
		"exponential": Exponential{Base: 2.718281828459045, K: 0.06},
		"quadratic":   Quadratic{C1: 0.05, C2: 0.01},
		"linear":      Quadratic{C1: 0.5},
	}
	crash := decimal.RequireFromString("3.37")

	for name, c := range curves {
		t.Run(name, func(t *testing.T) {
			prev := Multiplier(c, 0, crash)
			assert.True(t, prev.Equal(one))

			for ms := 0; ms <= 60_000; ms += 37 {
				m := Multiplier(c, time.Duration(ms)*time.Millisecond, crash)
				assert.True(t, m.GreaterThanOrEqual(prev), "not monotone at %dms", ms)
				assert.True(t, m.LessThanOrEqual(crash), "above crash at %dms", ms)
				assert.True(t, m.Equal(m.Truncate(2)))
				prev = m
			}
			assert.True(t, prev.Equal(crash))
		})
	}
}

func TestCurves_ElapsedForInverse(t *testing.T) {
	for _, c := range []Curve{Exponential{Base: 2, K: 0.5}, Quadratic{C1: 0.1, C2: 0.02}, Quadratic{C1: 0.3}} {
		for _, m := range []float64{1.01, 1.5, 2, 10, 100} {
			d := c.ElapsedFor(m)
			assert.InDelta(t, m, c.At(d), 1e-6)
		}
		assert.Zero(t, c.ElapsedFor(1))
		assert.Equal(t, 1.0, c.At(-time.Second))
	}
}

func TestNewCurve(t *testing.T) {
	c, err := NewCurve(config.CurveSettings{Kind: "exponential", Base: 2.7, K: 0.1})
	require.NoError(t, err)
	assert.IsType(t, Exponential{}, c)

	c, err = NewCurve(config.CurveSettings{Kind: "quadratic", C1: 0.1})
	require.NoError(t, err)
	assert.IsType(t, Quadratic{}, c)

	_, err = NewCurve(config.CurveSettings{Kind: "exponential", Base: 1, K: 1})
	assert.Error(t, err)
	_, err = NewCurve(config.CurveSettings{Kind: "quadratic"})
	assert.Error(t, err)
	_, err = NewCurve(config.CurveSettings{Kind: "spiral"})
	assert.Error(t, err)
}

func TestCrashPoint(t *testing.T) {
	tests := []struct {
		name string
		edge float64
		u    float64
		cap  string
		want string
	}{
		{"half", 0.97, 0.5, "0", "1.94"},
		{"below one clamps", 0.97, 0, "0", "1"},
		{"small u", 0.97, 0.02, "0", "1"},
		{"eighth", 0.97, 0.875, "0", "7.76"},
		{"floors", 0.999, 0.5, "0", "1.99"},
		{"cap clamps", 0.97, 0.999, "100", "100"},
		{"under cap", 0.97, 0.75, "100", "3.88"},
		{"u at one", 0.99, 1, "1000000", "1000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CrashPoint(tt.edge, tt.u, decimal.RequireFromString(tt.cap))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestCrashPoint_UncappedFitsStorage(t *testing.T) {
	// rounds.crash_point NUMERIC(20, 2): меньше 1e18
	got := CrashPoint(0.9999, 0.9999999999999999, decimal.Zero)
	assert.True(t, got.LessThan(decimal.New(1, 18)), "got %s", got)
	got = CrashPoint(0.9999, 1, decimal.Zero)
	assert.True(t, got.LessThan(decimal.New(1, 18)), "got %s", got)
}

func TestSeededSource_Reproducible(t *testing.T) {
	a, b := NewSeededSource(42), NewSeededSource(42)
	for i := uint64(1); i <= 50; i++ {
		da, err := a.Draw(i)
		require.NoError(t, err)
		db, err := b.Draw(i)
		require.NoError(t, err)

		sa := CrashPoint(0.97, da.U, decimal.Zero)
		sb := CrashPoint(0.97, db.U, decimal.Zero)
		assert.True(t, sa.Equal(sb))
		assert.True(t, sa.Equal(CrashPoint(0.97, da.U, decimal.Zero)))
		assert.True(t, sa.GreaterThanOrEqual(one))
	}
}

func TestFairSource_Commitment(t *testing.T) {
	d, err := FairSource{Salt: "salt"}.Draw(9)
	require.NoError(t, err)

	assert.NotEmpty(t, d.ServerSeed)
	assert.NotEqual(t, d.ServerSeed, d.SeedHash)
	assert.GreaterOrEqual(t, d.U, 0.0)
	assert.Less(t, d.U, 1.0)
}

func TestPushHistory(t *testing.T) {
	var h []decimal.Decimal
	for i := 1; i <= 4; i++ {
		h = pushHistory(h, decimal.NewFromInt(int64(i)), 3)
	}
	require.Len(t, h, 3)
	assert.Equal(t, "4", h[0].String())
	assert.Equal(t, "2", h[2].String())
	assert.Nil(t, pushHistory(h, one, 0))
}
