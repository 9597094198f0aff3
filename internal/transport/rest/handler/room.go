package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"wordrooms/internal/service"
	"wordrooms/internal/transport/rest/middleware"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type JoinRequest struct {
	Code string `json:"code"`
}

type InviteRequest struct {
	FriendIDs []string `json:"friendIds"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoomInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"roomId":   room.RoomID,
		"roomCode": room.RoomCode,
		"room":     room,
	})
}

// List handles GET /v1/rooms?page=&limit=
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.rooms.ListOpenRooms(r.Context(), queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// GetByCode handles GET /v1/rooms/code/{code}
func (h *RoomHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoomByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Join handles POST /v1/rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.rooms.JoinRoom(r.Context(), req.Code, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Leave handles POST /v1/rooms/{id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	res, err := h.rooms.ExitRoom(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateSettings handles PATCH /v1/rooms/{id}/settings
func (h *RoomHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch service.RoomSettingsPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	room, err := h.rooms.UpdateSettings(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Invite handles POST /v1/rooms/{id}/invite
func (h *RoomHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.rooms.InviteFriends(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()), req.FriendIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Start handles POST /v1/rooms/{id}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req service.StartGameInput
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	game, err := h.rooms.StartGame(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"gameId": game.GameID,
		"status": game.Status,
	})
}
