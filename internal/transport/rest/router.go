package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"wordrooms/internal/service"
	"wordrooms/internal/transport/rest/handler"
	"wordrooms/internal/transport/rest/middleware"
	"wordrooms/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	RoomService    *service.RoomService
	GameService    *service.GameService
	ProfileService *service.ProfileService
	WSHandler      *ws.Handler

	AllowedOrigins []string
	GuessRPS       float64
	GuessBurst     int
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.RoomService)
	gameHandler := handler.NewGameHandler(c.GameService)
	userHandler := handler.NewUserHandler(c.GameService, c.ProfileService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)
	guessLimit := middleware.NewRateLimiter(c.GuessRPS, c.GuessBurst)

	r.Use(middleware.Recover)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.RequestLogger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// token travels in the query string for sockets
	if c.WSHandler != nil {
		v1.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")
	}

	api := v1.NewRoute().Subrouter()
	api.Use(authMW.RequireUser)

	api.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/rooms", roomHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/rooms/join", roomHandler.Join).Methods("POST", "OPTIONS")
	api.HandleFunc("/rooms/code/{code}", roomHandler.GetByCode).Methods("GET", "OPTIONS")
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/rooms/{id}/leave", roomHandler.Leave).Methods("POST", "OPTIONS")
	api.HandleFunc("/rooms/{id}/settings", roomHandler.UpdateSettings).Methods("PATCH", "OPTIONS")
	api.HandleFunc("/rooms/{id}/invite", roomHandler.Invite).Methods("POST", "OPTIONS")
	api.HandleFunc("/rooms/{id}/start", roomHandler.Start).Methods("POST", "OPTIONS")

	api.HandleFunc("/games/{id}", gameHandler.Get).Methods("GET", "OPTIONS")
	api.Handle("/games/{id}/guess", guessLimit.Limit(http.HandlerFunc(gameHandler.Guess))).Methods("POST", "OPTIONS")
	api.HandleFunc("/games/{id}/leaderboard", gameHandler.Leaderboard).Methods("GET", "OPTIONS")

	api.HandleFunc("/users/me/history", userHandler.History).Methods("GET", "OPTIONS")
	api.HandleFunc("/users/me/stats", userHandler.Stats).Methods("GET", "OPTIONS")
	api.HandleFunc("/users/me/invitations", userHandler.Invitations).Methods("GET", "OPTIONS")
	api.HandleFunc("/users/me/notifications", userHandler.Notifications).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(origins) == 0 || origins["*"]:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
