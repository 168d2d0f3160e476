package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Storage keys
const (
	keyPreferences   = "preferences"
	keyStats         = "stats"
	keyFirstLaunch   = "first_launch"
	prefixSession    = "session/"
	prefixResult     = "result/"
	defaultResultTTL = 7 * 24 * time.Hour
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// UserPreferences stores user settings
type UserPreferences struct {
	Username         string    `json:"username"`
	LastGame         string    `json:"last_game"`
	HighlightChanges bool      `json:"highlight_changes"`
	LastPlayed       time.Time `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:         "Player",
		LastGame:         "chess",
		HighlightChanges: true,
		LastPlayed:       time.Now(),
	}
}

// GameStats stores play statistics
type GameStats struct {
	GamesPlayed  int            `json:"games_played"`
	TurnsPlayed  int            `json:"turns_played"`
	LongestGame  int            `json:"longest_game"`
	GamesByName  map[string]int `json:"games_by_name"`
	TotalPlay    time.Duration  `json:"total_play_time"`
	OutOfOptions int            `json:"out_of_options"`
}

// NewGameStats returns empty statistics
func NewGameStats() *GameStats {
	return &GameStats{GamesByName: make(map[string]int)}
}

// GameResult represents a finished game
type GameResult struct {
	Game     string
	Turns    int
	Duration time.Duration
	Stuck    bool // ended because no successor position existed
}

// AverageTurns returns the mean number of turns per game.
func (s *GameStats) AverageTurns() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TurnsPlayed) / float64(s.GamesPlayed)
}

// Session is a game in progress: the rule, the start position and every
// position picked since, in compact form.
type Session struct {
	ID        string    `json:"id"`
	Game      string    `json:"game"`
	Rule      string    `json:"rule"`
	History   []string  `json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a session at the given position.
func NewSession(game, rule, start string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Game:      game,
		Rule:      rule,
		History:   []string{start},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Current returns the latest position.
func (s *Session) Current() string {
	return s.History[len(s.History)-1]
}

// Turn returns the number of positions picked so far.
func (s *Session) Turn() int {
	return len(s.History) - 1
}

// Options configures where the database lives.
type Options struct {
	Dir       string // database directory ("" = platform data dir)
	InMemory  bool
	Logger    *slog.Logger
	ResultTTL time.Duration // lifetime of cached results (0 = one week)
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db        *badger.DB
	resultTTL time.Duration
}

// Open opens the database described by opts.
func Open(opts Options) (*Storage, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = GetDatabaseDir(); err != nil {
				return nil, err
			}
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = nil
	if opts.Logger != nil {
		bopts.Logger = badgerLogger{opts.Logger}
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &Storage{db: db, resultTTL: ttl}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	var firstLaunch bool = true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if err == badger.ErrKeyNotFound {
			firstLaunch = true
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	_, err := s.getJSON(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves play statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads play statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.getJSON(keyStats, stats)
	if stats.GamesByName == nil {
		stats.GamesByName = make(map[string]int)
	}
	return stats, err
}

// RecordGame records a finished game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TurnsPlayed += result.Turns
	stats.TotalPlay += result.Duration
	stats.GamesByName[result.Game]++
	if result.Turns > stats.LongestGame {
		stats.LongestGame = result.Turns
	}
	if result.Stuck {
		stats.OutOfOptions++
	}

	return s.SaveStats(stats)
}

// SaveSession stores the session, stamping UpdatedAt.
func (s *Storage) SaveSession(sess *Session) error {
	sess.UpdatedAt = time.Now()
	return errors.Wrapf(s.putJSON(prefixSession+sess.ID, sess), "save session %s", sess.ID)
}

// LoadSession returns the session with the given ID.
func (s *Storage) LoadSession(id string) (*Session, error) {
	sess := &Session{}
	ok, err := s.getJSON(prefixSession+id, sess)
	if err != nil {
		return nil, errors.Wrapf(err, "load session %s", id)
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "session %s", id)
	}
	return sess, nil
}

// DeleteSession removes a session.
func (s *Storage) DeleteSession(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixSession + id))
	})
}

// ListSessions returns every session, most recently updated first.
func (s *Storage) ListSessions() ([]*Session, error) {
	var out []*Session
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSession)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			sess := &Session{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, sess)
			}); err != nil {
				return errors.Wrapf(err, "decode %s", it.Item().Key())
			}
			out = append(out, sess)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// LoadResult implements engine.ResultStore.
func (s *Storage) LoadResult(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixResult + key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "load result")
	}
	return data, data != nil, nil
}

// SaveResult implements engine.ResultStore. Entries expire after the
// configured TTL.
func (s *Storage) SaveResult(key string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(prefixResult+key), data).WithTTL(s.resultTTL)
		return txn.SetEntry(e)
	})
	return errors.Wrap(err, "save result")
}

func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON decodes the value at key into v and reports whether it existed.
func (s *Storage) getJSON(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// badgerLogger routes badger's messages to slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
