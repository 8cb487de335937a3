package main

import (
	"bytes"
	"crash_backend/internal/service/engine"
	"crash_backend/pkg/fair"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCmd(t *testing.T) {
	seed := "4f2a"
	want := engine.CrashPoint(0.97, fair.DeriveFloat64(seed, "pepper", 12), decimal.Zero).StringFixed(2)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"verify", "--seed", seed, "--salt", "pepper", "--round", "12", "--hash", fair.SeedHash(seed)})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "crash point: "+want)
	assert.Contains(t, out.String(), fair.SeedHash(seed))
}

func TestVerifyCmd_HashMismatch(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"verify", "--seed", "abc", "--round", "1", "--hash", "deadbeef"})
	assert.Error(t, root.Execute())
}
