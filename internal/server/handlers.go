package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hailam/algchess/internal/board"
	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/rule"
)

// Handlers serves the query API.
type Handlers struct {
	engine *engine.Engine
	book   *book.Book
	budget engine.Budget
	log    *slog.Logger
}

// NewHandlers creates handlers evaluating with e under budget. Requests
// may lower the budget but never raise it.
func NewHandlers(e *engine.Engine, b *book.Book, budget engine.Budget, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{engine: e, book: b, budget: budget, log: log}
}

// HandleEvaluate handles POST /v1/evaluate.
//
// Response:
//
//	200 OK: EvaluateResponse
//	400 Bad Request: malformed body, position or rule
//	404 Not Found: unknown game
//	422 Unprocessable Entity: budget exceeded
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	logger := h.log.With("handler", "HandleEvaluate")

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	pos, status, err := h.position(req.Board, req.Compact, req.Game)
	if err != nil {
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: codeFor(status)})
		return
	}

	r, err := h.engine.Evaluate(c.Request.Context(), req.Rule, pos, h.requestBudget(req.MaxSteps, req.TimeoutMs))
	if err != nil {
		h.evalError(c, logger, err)
		return
	}
	logger.Info("Evaluated", "results", r.Len(), "steps", r.Steps, "cached", r.Cached)
	c.JSON(http.StatusOK, NewEvaluateResponse(r))
}

// HandleListGames handles GET /v1/games.
func (h *Handlers) HandleListGames(c *gin.Context) {
	out := make([]GameSummary, 0, h.book.Len())
	for _, name := range h.book.Names() {
		g, _ := h.book.Game(name)
		out = append(out, GameSummary{Name: g.Name, Description: g.Description})
	}
	c.JSON(http.StatusOK, out)
}

// HandleGame handles GET /v1/games/:name.
func (h *Handlers) HandleGame(c *gin.Context) {
	g, ok := h.book.Game(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown game " + c.Param("name"), Code: "UNKNOWN_GAME"})
		return
	}
	pos, err := g.Position()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "BAD_GAME"})
		return
	}
	src, err := g.Rule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "BAD_GAME"})
		return
	}
	detail := GameDetail{
		Name:        g.Name,
		Description: g.Description,
		Start:       toPosition(pos, nil),
		Source:      g.Source,
		Rule:        src,
	}
	if len(g.Macros) > 0 {
		detail.Macros = make(map[string]string, len(g.Macros))
		for _, m := range g.Macros {
			detail.Macros[m.Name] = m.Body
		}
	}
	c.JSON(http.StatusOK, detail)
}

// HandleGameMoves handles POST /v1/games/:name/moves: the successors of
// the posted position (or the start) under the game's rule.
func (h *Handlers) HandleGameMoves(c *gin.Context) {
	logger := h.log.With("handler", "HandleGameMoves", "game", c.Param("name"))

	g, ok := h.book.Game(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown game " + c.Param("name"), Code: "UNKNOWN_GAME"})
		return
	}
	var req MoveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
			return
		}
	}

	pos, status, err := h.position(req.Board, req.Compact, g.Name)
	if err != nil {
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: codeFor(status)})
		return
	}
	src, err := g.Rule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "BAD_GAME"})
		return
	}
	r, err := h.engine.Evaluate(c.Request.Context(), src, pos, h.budget)
	if err != nil {
		h.evalError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, NewEvaluateResponse(r))
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Games: h.book.Len()})
}

// position resolves the request position and the status to report when
// it cannot.
func (h *Handlers) position(diagram, compact, game string) (*board.Position, int, error) {
	switch {
	case diagram != "":
		pos, err := board.ParsePosition(diagram)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return pos, 0, nil
	case compact != "":
		pos, err := board.ParseCompact(compact)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return pos, 0, nil
	case game != "":
		g, ok := h.book.Game(game)
		if !ok {
			return nil, http.StatusNotFound, errors.New("unknown game " + game)
		}
		pos, err := g.Position()
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return pos, 0, nil
	}
	return nil, http.StatusBadRequest, errors.New("one of board, compact or game is required")
}

// requestBudget narrows the server budget to the request's limits.
func (h *Handlers) requestBudget(steps uint64, timeoutMs int64) engine.Budget {
	b := h.budget
	if steps > 0 && (b.MaxSteps == 0 || steps < b.MaxSteps) {
		b.MaxSteps = steps
	}
	if d := time.Duration(timeoutMs) * time.Millisecond; d > 0 && (b.Timeout == 0 || d < b.Timeout) {
		b.Timeout = d
	}
	return b
}

func (h *Handlers) evalError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := http.StatusInternalServerError, "EVALUATION_FAILED"
	switch {
	case errors.Is(err, engine.ErrBudgetExceeded):
		status, code = http.StatusUnprocessableEntity, "BUDGET_EXCEEDED"
	case errors.Is(err, rule.ErrSyntax):
		status, code = http.StatusBadRequest, "SYNTAX_ERROR"
	case errors.Is(err, rule.ErrQuantifierRange):
		status, code = http.StatusBadRequest, "QUANTIFIER_RANGE"
	case errors.Is(err, rule.ErrUnboundPOI):
		status, code = http.StatusBadRequest, "UNBOUND_POI"
	case errors.Is(err, board.ErrDisjoint):
		status, code = http.StatusBadRequest, "DISJOINT"
	}
	if status == http.StatusInternalServerError {
		logger.Error("Evaluation failed", "error", err)
	} else {
		logger.Warn("Evaluation rejected", "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func codeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "UNKNOWN_GAME"
	case http.StatusBadRequest:
		return "INVALID_POSITION"
	}
	return "BAD_GAME"
}
