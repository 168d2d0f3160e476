package server

import (
	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/engine"
)

// EvaluateRequest asks for every position a rule produces. The position
// is given as a diagram (Board), a compact string (Compact) or the start
// of a named game (Game), in that order of preference.
type EvaluateRequest struct {
	Rule      string `json:"rule" binding:"required"`
	Board     string `json:"board,omitempty"`
	Compact   string `json:"compact,omitempty"`
	Game      string `json:"game,omitempty"`
	MaxSteps  uint64 `json:"max_steps,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
}

// MoveRequest asks for the successors of a position in a named game. An
// empty position means the game's start.
type MoveRequest struct {
	Board   string `json:"board,omitempty"`
	Compact string `json:"compact,omitempty"`
}

// Cell is one changed cell of a result.
type Cell struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Content string `json:"content"`
}

// Position is a position in both text forms.
type Position struct {
	Diagram string `json:"diagram"`
	Compact string `json:"compact"`
	Changed []Cell `json:"changed,omitempty"`
}

// EvaluateResponse lists the resulting positions ordered by key.
type EvaluateResponse struct {
	Start     Position   `json:"start"`
	Results   []Position `json:"results"`
	Count     int        `json:"count"`
	Steps     uint64     `json:"steps"`
	ElapsedMs float64    `json:"elapsed_ms"`
	Cached    bool       `json:"cached"`
}

// GameSummary is one entry of the game list.
type GameSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GameDetail is a game with its start position and expanded rule.
type GameDetail struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Start       Position          `json:"start"`
	Macros      map[string]string `json:"macros,omitempty"`
	Source      string            `json:"source"`
	Rule        string            `json:"rule"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

func toPosition(p *board.Position, from *board.Position) Position {
	out := Position{Diagram: p.String(), Compact: p.Compact()}
	if from != nil {
		for _, v := range board.Diff(from, p) {
			out.Changed = append(out.Changed, Cell{X: v.X, Y: v.Y, Content: p.At(v).String()})
		}
	}
	return out
}

// NewEvaluateResponse converts an engine result to its JSON form.
func NewEvaluateResponse(r *engine.Result) EvaluateResponse {
	resp := EvaluateResponse{
		Start:     toPosition(r.Start, nil),
		Results:   make([]Position, len(r.Positions)),
		Count:     r.Len(),
		Steps:     r.Steps,
		ElapsedMs: float64(r.Elapsed.Microseconds()) / 1000,
		Cached:    r.Cached,
	}
	for i, p := range r.Positions {
		resp.Results[i] = toPosition(p, r.Start)
	}
	return resp
}
