package fair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommitReveal(t *testing.T) {
	seed, err := GenerateServerSeed()
	require.NoError(t, err)
	assert.Len(t, seed, 64)

	hash := SeedHash(seed)
	assert.True(t, VerifySeed(seed, hash))
	assert.False(t, VerifySeed(seed+"0", hash))
}

func TestDeriveFloat64_Deterministic(t *testing.T) {
	a := DeriveFloat64("server-seed", "salt", 42)
	b := DeriveFloat64("server-seed", "salt", 42)
	assert.Equal(t, a, b)

	c := DeriveFloat64("server-seed", "salt", 43)
	assert.NotEqual(t, a, c)
}

func TestDeriveFloat64_Range(t *testing.T) {
	for round := uint64(1); round <= 500; round++ {
		f := DeriveFloat64("seed", "", round)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}
