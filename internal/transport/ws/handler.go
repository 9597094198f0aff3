package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"wordrooms/internal/model"
	"wordrooms/internal/service"
)

// RoomActions is what sockets may do with rooms
type RoomActions interface {
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	ExitRoom(ctx context.Context, roomID, userID string) (*service.ExitResult, error)
}

// GameActions is what sockets may do with games
type GameActions interface {
	IsPlayer(ctx context.Context, gameID, userID string) (bool, error)
	SubmitGuess(ctx context.Context, gameID, userID, guess string) (*service.GuessOutcome, error)
}

// TokenValidator turns a bearer token into claims
type TokenValidator interface {
	ValidateToken(token string) (*model.UserClaims, error)
}

// Handler upgrades authenticated requests and serves inbound socket actions
type Handler struct {
	hub      *Hub
	auth     TokenValidator
	rooms    RoomActions
	games    GameActions
	upgrader websocket.Upgrader

	guessRate  rate.Limit
	guessBurst int
	timeout    time.Duration
}

// NewHandler creates a socket handler. allowedOrigins empty accepts any origin.
func NewHandler(hub *Hub, auth TokenValidator, rooms RoomActions, games GameActions, allowedOrigins []string) *Handler {
	return &Handler{
		hub:   hub,
		auth:  auth,
		rooms: rooms,
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		guessRate:  rate.Limit(2),
		guessBurst: 5,
		timeout:    10 * time.Second,
	}
}

// SetGuessLimit bounds how fast one socket may submit guesses
func (h *Handler) SetGuessLimit(rps float64, burst int) {
	h.guessRate = rate.Limit(rps)
	h.guessBurst = burst
}

// ServeWS handles GET /v1/ws?token=...
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"missing token"}}`, http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	c := newClient(conn, claims.UserID, claims.Username, rate.NewLimiter(h.guessRate, h.guessBurst))
	if err := h.hub.Register(c); err != nil {
		conn.Close()
		return
	}

	log.Info().Str("userId", c.UserID).Msg("websocket connected")

	go h.writePump(c)
	go h.readPump(c)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no Origin
		return origin == "" || set["*"] || set[origin]
	}
}
