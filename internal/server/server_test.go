package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/algchess/internal/book"
	"github.com/hailam/algchess/internal/engine"
	"github.com/hailam/algchess/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	reg := prometheus.NewRegistry()
	e, err := engine.New(engine.Options{
		Metrics:       engine.NewMetrics(reg),
		RuleCacheSize: 16,
		Logger:        logging.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)

	h := NewHandlers(e, book.Default(), engine.Budget{MaxSteps: 100_000, Timeout: 10 * time.Second}, logging.Discard())
	return NewRouter(h, reg, false)
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleEvaluate(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/v1/evaluate", EvaluateRequest{
		Rule:    "♙ + u. -> . + u♙",
		Compact: "../♙♙",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "../♙♙", resp.Start.Compact)
	for _, r := range resp.Results {
		assert.Len(t, r.Changed, 2, r.Compact)
	}
}

func TestHandleEvaluateDiagram(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/v1/evaluate", EvaluateRequest{
		Rule:  "♖ + u♟ -> . + u♖",
		Board: "♟\n♖",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "♖/1", resp.Results[0].Compact)
}

func TestHandleEvaluateErrors(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name     string
		req      EvaluateRequest
		wantCode int
		wantErr  string
	}{
		{"missing rule", EvaluateRequest{Compact: "♙"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing position", EvaluateRequest{Rule: "nil"}, http.StatusBadRequest, "INVALID_POSITION"},
		{"unknown game", EvaluateRequest{Rule: "nil", Game: "go"}, http.StatusNotFound, "UNKNOWN_GAME"},
		{"syntax", EvaluateRequest{Rule: "♙ ->", Compact: "♙"}, http.StatusBadRequest, "SYNTAX_ERROR"},
		{"unbound poi", EvaluateRequest{Rule: "% -> .", Compact: "♙"}, http.StatusBadRequest, "UNBOUND_POI"},
		{"unclosed builtin", EvaluateRequest{Rule: "in_any_direction(♙ -> .", Compact: "♙"}, http.StatusBadRequest, "SYNTAX_ERROR"},
		{"builtin without argument", EvaluateRequest{Rule: "rotated ♙ -> .", Compact: "♙"}, http.StatusBadRequest, "SYNTAX_ERROR"},
		{"recursive macro", EvaluateRequest{Rule: "loop = loop\nloop", Compact: "♙"}, http.StatusBadRequest, "SYNTAX_ERROR"},
		{"bad macro name", EvaluateRequest{Rule: "nil = ♙ -> .\nnil", Compact: "♙"}, http.StatusBadRequest, "SYNTAX_ERROR"},
		{"budget", EvaluateRequest{Rule: "(♖ + u. -> . + u♖)+", Compact: "1/1/1/♖", MaxSteps: 1}, http.StatusUnprocessableEntity, "BUDGET_EXCEEDED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/evaluate", tc.req)
			assert.Equal(t, tc.wantCode, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantErr, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleGames(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/v1/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var games []GameSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &games))
	assert.Len(t, games, book.Default().Len())

	w = do(t, router, http.MethodGet, "/v1/games/pawns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail GameDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "pawns", detail.Name)
	assert.NotEmpty(t, detail.Rule)
	assert.NotContains(t, detail.Rule, "single", "macros are expanded")

	w = do(t, router, http.MethodGet, "/v1/games/go", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGameMoves(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/v1/games/chess/moves", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.Count)

	w = do(t, router, http.MethodPost, "/v1/games/chess/moves", MoveRequest{Compact: "0/0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	do(t, router, http.MethodPost, "/v1/evaluate", EvaluateRequest{Rule: "nil", Compact: "♙"})
	w = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "algchess_"), "engine metrics are exported")
}
