package engine

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/rule"
)

// ruleCache keeps compiled rules keyed by source text.
type ruleCache struct {
	c *ristretto.Cache[string, rule.Move]
}

func newRuleCache(size int64) (*ruleCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, rule.Move]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: rule cache: %w", err)
	}
	return &ruleCache{c: c}, nil
}

func (rc *ruleCache) get(src string) (rule.Move, bool) {
	if rc == nil {
		return nil, false
	}
	return rc.c.Get(src)
}

func (rc *ruleCache) set(src string, m rule.Move) {
	if rc == nil {
		return
	}
	rc.c.Set(src, m, 1)
}

func (rc *ruleCache) close() {
	if rc != nil {
		rc.c.Close()
	}
}

// ResultStore persists evaluation results between runs. Implementations
// must be safe for concurrent use.
type ResultStore interface {
	LoadResult(key string) ([]byte, bool, error)
	SaveResult(key string, data []byte) error
}

// ResultKey identifies the evaluation of src on pos.
func ResultKey(src string, pos *board.Position) string {
	return fmt.Sprintf("%016x:%s", xxhash.Sum64String(src), pos.Key())
}

type cellJSON struct {
	X int    `json:"x"`
	Y int    `json:"y"`
	C string `json:"c"`
}

// storedResult is the persisted form of a Result: each position as the
// cells that differ from the start position.
type storedResult struct {
	Steps uint64       `json:"steps"`
	Diffs [][]cellJSON `json:"diffs"`
}

func encodeResult(r *Result) ([]byte, error) {
	sr := storedResult{Steps: r.Steps, Diffs: make([][]cellJSON, len(r.Positions))}
	for i, p := range r.Positions {
		diff := board.Diff(r.Start, p)
		cells := make([]cellJSON, len(diff))
		for k, v := range diff {
			cells[k] = cellJSON{X: v.X, Y: v.Y, C: p.At(v).String()}
		}
		sr.Diffs[i] = cells
	}
	return json.Marshal(sr)
}

func decodeResult(data []byte, start *board.Position) (*Result, error) {
	var sr storedResult
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("engine: decode cached result: %w", err)
	}
	r := &Result{Start: start, Steps: sr.Steps, Cached: true}
	for _, cells := range sr.Diffs {
		changes := make([]board.Cell, len(cells))
		for k, c := range cells {
			runes := []rune(c.C)
			if len(runes) != 1 {
				return nil, fmt.Errorf("engine: decode cached result: bad cell %q", c.C)
			}
			changes[k] = board.Cell{At: board.Vec{X: c.X, Y: c.Y}, Content: board.Content(runes[0])}
		}
		r.Positions = append(r.Positions, start.With(changes...))
	}
	return r, nil
}
