package storage

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.LastGame != "chess" {
			t.Errorf("Expected last game 'chess', got '%s'", prefs.LastGame)
		}
		if !prefs.HighlightChanges {
			t.Errorf("Expected highlighting by default")
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.AverageTurns() != 0 {
			t.Errorf("Expected 0 average turns")
		}
	})

	t.Run("AverageTurns", func(t *testing.T) {
		stats := &GameStats{GamesPlayed: 4, TurnsPlayed: 10}
		if got := stats.AverageTurns(); got != 2.5 {
			t.Errorf("Expected 2.5 turns per game, got %.2f", got)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	require.NoError(t, err)
	assert.True(t, first)
	require.NoError(t, s.MarkFirstLaunchComplete())
	first, err = s.IsFirstLaunch()
	require.NoError(t, err)
	assert.False(t, first)

	prefs, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "chess", prefs.LastGame)

	prefs.LastGame = "rooks"
	prefs.HighlightChanges = false
	require.NoError(t, s.SavePreferences(prefs))

	again, err := s.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "rooks", again.LastGame)
	assert.False(t, again.HighlightChanges)
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.RecordGame(GameResult{Game: "pawns", Turns: 3, Duration: time.Minute, Stuck: true}))
	require.NoError(t, s.RecordGame(GameResult{Game: "chess", Turns: 7}))

	stats, err := s.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.Equal(t, 10, stats.TurnsPlayed)
	assert.Equal(t, 7, stats.LongestGame)
	assert.Equal(t, 1, stats.OutOfOptions)
	assert.Equal(t, map[string]int{"pawns": 1, "chess": 1}, stats.GamesByName)
}

func TestSessions(t *testing.T) {
	s := openTest(t)

	a := NewSession("pawns", "♙ + u. -> . + u♙", "./♙")
	require.NoError(t, s.SaveSession(a))
	time.Sleep(5 * time.Millisecond)
	b := NewSession("rooks", "♖ -> ♖", "♖")
	b.History = append(b.History, "♖")
	require.NoError(t, s.SaveSession(b))

	got, err := s.LoadSession(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "./♙", got.Current())
	assert.Equal(t, 0, got.Turn())

	list, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, 1, list[0].Turn())

	require.NoError(t, s.DeleteSession(a.ID))
	_, err = s.LoadSession(a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResultStore(t *testing.T) {
	s := openTest(t)

	_, ok, err := s.LoadResult("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveResult("k", []byte(`{"steps":1}`)))
	data, ok, err := s.LoadResult("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"steps":1}`, string(data))
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.SaveResult("k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	data, ok, err := s.LoadResult("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(data))
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir failed: %v", err)
	}
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Errorf("Config directory was not created: %s", configDir)
	}
}
