package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/algchess/internal/config"
	"github.com/hailam/algchess/internal/engine"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.InMemory = true
	return cfg
}

func TestOpen(t *testing.T) {
	var logs bytes.Buffer
	a, err := Open(testConfig(), Options{Service: "test", LogOutput: &logs})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Storage)
	assert.Equal(t, uint64(2_000_000), a.Budget().MaxSteps)

	g, ok := a.Book.Game("pawns")
	require.True(t, ok)
	src, err := g.Rule()
	require.NoError(t, err)
	start, err := g.Position()
	require.NoError(t, err)

	first, err := a.Engine.Evaluate(context.Background(), src, start, a.Budget())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	again, err := a.Engine.Evaluate(context.Background(), src, start, a.Budget())
	require.NoError(t, err)
	assert.True(t, again.Cached, "results are cached in storage")
	assert.Equal(t, first.Len(), again.Len())

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOpenWithoutStorage(t *testing.T) {
	a, err := Open(testConfig(), Options{NoStorage: true})
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Storage)
}

func TestBudgetZeroIsUnlimited(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.MaxSteps = 0
	cfg.Engine.Timeout = 0
	a, err := Open(cfg, Options{NoStorage: true})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, engine.Unlimited, a.Budget())
}

func TestOpenMergesBookFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`games:
  - name: lone
    description: One pawn.
    board: |-
      .
      ♙
    rule: ♙ + u. -> . + u♙
`), 0644))

	cfg := testConfig()
	cfg.Book.File = path
	a, err := Open(cfg, Options{NoStorage: true})
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Book.Game("lone")
	assert.True(t, ok)
	_, ok = a.Book.Game("chess")
	assert.True(t, ok)
}

func TestOpenRejectsBadLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "loud"
	_, err := Open(cfg, Options{})
	assert.Error(t, err)
}
