package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"wordrooms/internal/service"
	"wordrooms/internal/transport/rest/middleware"
)

// GameHandler handles game endpoints
type GameHandler struct {
	games *service.GameService
}

func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

type GuessRequest struct {
	Guess string `json:"guess"`
}

// Get handles GET /v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.games.GetState(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Guess handles POST /v1/games/{id}/guess
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req GuessRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.games.SubmitGuess(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()), req.Guess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Leaderboard handles GET /v1/games/{id}/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	if ok, err := h.games.IsPlayer(r.Context(), gameID, middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	} else if !ok {
		writeError(w, r, service.ErrNotAPlayer)
		return
	}

	entries, err := h.games.Leaderboard(r.Context(), gameID, queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameId":  gameID,
		"entries": entries,
	})
}
