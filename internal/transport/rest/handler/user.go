package handler

import (
	"net/http"

	"wordrooms/internal/service"
	"wordrooms/internal/transport/rest/middleware"
)

// UserHandler serves the caller's own profile data
type UserHandler struct {
	games   *service.GameService
	profile *service.ProfileService
}

func NewUserHandler(games *service.GameService, profile *service.ProfileService) *UserHandler {
	return &UserHandler{games: games, profile: profile}
}

// History handles GET /v1/users/me/history
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.MatchHistory(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// Stats handles GET /v1/users/me/stats
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profile.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Invitations handles GET /v1/users/me/invitations
func (h *UserHandler) Invitations(w http.ResponseWriter, r *http.Request) {
	invs, err := h.profile.PendingInvitations(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": invs})
}

// Notifications handles GET /v1/users/me/notifications
func (h *UserHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.profile.Notifications(r.Context(), middleware.GetUserID(r.Context()), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": ns})
}
