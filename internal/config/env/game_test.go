package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGameConfig_Defaults(t *testing.T) {
	cfg, err := ParseGameConfig([]byte("game: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.97, cfg.HouseEdge())
	assert.Equal(t, 6*time.Second, cfg.WaitingDuration())
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, "exponential", cfg.Curve().Kind)
	assert.True(t, cfg.MaxCrashPoint().IsZero())
	assert.True(t, cfg.SafetyMargin().Equal(decimal.NewFromInt(1)))
}

func TestNewGameConfigFromYAML(t *testing.T) {
	data := `
game:
  house_edge: 0.95
  max_crash_point: "500"
  waiting: 5s
  pause: 2s
  tick: 50ms
  history_size: 10
  curve:
    kind: quadratic
    c1: 0.1
    c2: 0.02
  safety_margin: "1.5"
  payout_fee: "0.01"
  min_bet: "1"
  max_bet: "1000"
  demo_grant: "250"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := NewGameConfigFromYAML(path)
	require.NoError(t, err)

	assert.Equal(t, 0.95, cfg.HouseEdge())
	assert.Equal(t, "500", cfg.MaxCrashPoint().String())
	assert.Equal(t, 5*time.Second, cfg.WaitingDuration())
	assert.Equal(t, 2*time.Second, cfg.SettledPause())
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 10, cfg.HistorySize())
	assert.Equal(t, "quadratic", cfg.Curve().Kind)
	assert.Equal(t, 0.02, cfg.Curve().C2)
	assert.Equal(t, "1.5", cfg.SafetyMargin().String())
	assert.Equal(t, "250", cfg.DemoGrant().String())
}

func TestParseGameConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"edge above one":   "game: {house_edge: 1.2}",
		"cap below one":    `game: {max_crash_point: "0.5"}`,
		"margin below one": `game: {safety_margin: "0.9"}`,
		"bad curve":        "game: {curve: {kind: linear}}",
		"negative bet":     `game: {min_bet: "-1"}`,
		"max below min":    `game: {min_bet: "10", max_bet: "5"}`,
	}
	for name, data := range cases {
		_, err := ParseGameConfig([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestNewStorageConfig(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	cfg, err := NewStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Backend())

	t.Setenv("STORAGE", "mongo")
	_, err = NewStorageConfig()
	assert.Error(t, err)
}
