package engine

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Number of shards for table locking (power of 2 for fast modulo)
const tableShardCount = 64
const tableShardMask = tableShardCount - 1

type tableShard struct {
	mu      sync.Mutex
	buckets map[uint64][]State
}

// StateTable is an insert-if-absent set of states keyed by Zobrist hash.
// Buckets hold every state sharing a hash, so collisions are resolved by
// full comparison. Uses sharded locking so parallel workers can insert
// concurrently.
type StateTable struct {
	shards  [tableShardCount]tableShard
	order   []State // insertion order, guarded by orderMu
	orderMu sync.Mutex

	size atomic.Int64

	// Statistics (atomic for thread-safety)
	probes atomic.Uint64
	dups   atomic.Uint64
}

// NewStateTable creates an empty table.
func NewStateTable() *StateTable {
	return &StateTable{}
}

// Insert adds s unless an equal state is present. It reports whether s was
// new.
func (t *StateTable) Insert(s State) bool {
	t.probes.Add(1)
	h := s.hash()
	sh := &t.shards[h&tableShardMask]

	sh.mu.Lock()
	for _, x := range sh.buckets[h] {
		if x.equal(s) {
			sh.mu.Unlock()
			t.dups.Add(1)
			return false
		}
	}
	if sh.buckets == nil {
		sh.buckets = make(map[uint64][]State)
	}
	sh.buckets[h] = append(sh.buckets[h], s)
	sh.mu.Unlock()

	t.size.Add(1)
	t.orderMu.Lock()
	t.order = append(t.order, s)
	t.orderMu.Unlock()
	return true
}

// InsertAll inserts every state and returns the ones that were new.
func (t *StateTable) InsertAll(states []State) []State {
	var added []State
	for _, s := range states {
		if t.Insert(s) {
			added = append(added, s)
		}
	}
	return added
}

// Contains reports whether an equal state is present.
func (t *StateTable) Contains(s State) bool {
	h := s.hash()
	sh := &t.shards[h&tableShardMask]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for _, x := range sh.buckets[h] {
		if x.equal(s) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct states.
func (t *StateTable) Len() int {
	return int(t.size.Load())
}

// States returns the contents in insertion order. With concurrent
// inserters the order is not deterministic; use Sorted for output.
func (t *StateTable) States() []State {
	t.orderMu.Lock()
	defer t.orderMu.Unlock()
	return slices.Clone(t.order)
}

// Sorted returns the contents ordered by key.
func (t *StateTable) Sorted() []State {
	out := t.States()
	sortStates(out)
	return out
}

func sortStates(states []State) {
	type keyed struct {
		key string
		s   State
	}
	ks := make([]keyed, len(states))
	for i, s := range states {
		ks[i] = keyed{s.key(), s}
	}
	slices.SortFunc(ks, func(a, b keyed) int {
		return strings.Compare(a.key, b.key)
	})
	for i := range ks {
		states[i] = ks[i].s
	}
}

// DuplicateRate returns the percentage of inserts that found the state
// already present.
func (t *StateTable) DuplicateRate() float64 {
	probes := t.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(t.dups.Load()) / float64(probes) * 100
}

// dedupe returns states with duplicates removed, first occurrence kept.
func dedupe(states []State) []State {
	if len(states) < 2 {
		return states
	}
	t := NewStateTable()
	return t.InsertAll(states)
}
