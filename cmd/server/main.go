package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/cache"
	"wordrooms/internal/config"
	"wordrooms/internal/keyed"
	"wordrooms/internal/logger"
	"wordrooms/internal/realtime"
	"wordrooms/internal/repository"
	"wordrooms/internal/service"
	"wordrooms/internal/transport/rest"
	"wordrooms/internal/transport/ws"
)

type stores struct {
	rooms         repository.RoomRepo
	sessions      repository.SessionRepo
	invitations   repository.InvitationRepo
	notifications repository.NotificationRepo
	stats         repository.StatsRepo
	users         repository.UserRepo
	friends       repository.FriendRepo
	words         repository.WordRepo
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore := openStores(ctx, cfg)
	defer closeStore()

	hub := ws.NewHub()
	defer hub.Close()

	var (
		publisher   realtime.Publisher = hub
		roomCache   cache.RoomCache
		leaderboard cache.LeaderboardCache
		presence    cache.PresenceCache = ws.NewLocalPresence(hub)
	)

	if cfg.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal().Err(err).Msg("failed to ping Redis")
		}
		log.Info().Str("addr", cfg.RedisAddr()).Msg("connected to Redis")

		roomCache = cache.NewRoomCache(rdb, cfg.RoomTTL)
		leaderboard = cache.NewLeaderboardCache(rdb)
		presence = cache.NewPresenceCache(rdb)

		bus := realtime.NewRedisBus(rdb, uuid.New().String(), hub)
		bus.Start(ctx)
		defer bus.Close()
		publisher = realtime.Multi{hub, bus}

		ws.TrackPresence(hub, presence, keyed.NewExecutor(0))
	} else {
		log.Warn().Msg("REDIS_URI not set, running single instance without shared caches")
	}

	exec := keyed.NewExecutor(0)

	rooms := service.NewRoomService(st.rooms, st.invitations, exec, publisher, cfg.RoomTTL, cfg.InviteTTL)
	rooms.SetCache(roomCache, presence)
	rooms.SetSocial(st.friends, service.NewRepoNotifier(st.notifications), st.users)

	var words service.WordService = service.NewBankWordService(st.words)
	if cfg.WordServiceURL != "" {
		words = service.NewHTTPWordService(cfg.WordServiceURL)
		log.Info().Str("url", cfg.WordServiceURL).Msg("using remote word service")
	}

	games := service.NewGameService(st.sessions, words, exec, publisher)
	games.SetStats(st.stats)
	if leaderboard != nil {
		games.SetLeaderboard(leaderboard)
	}
	games.SetRoomFinisher(rooms)
	rooms.SetGames(games)
	defer games.Close()

	go func() {
		n, err := games.RecoverStats(ctx)
		if err != nil {
			log.Error().Err(err).Msg("stats sweep incomplete")
		}
		if n > 0 {
			log.Info().Int("games", n).Msg("recovered unrecorded stats")
		}
	}()

	authSvc := service.NewAuthService(cfg.JWTSecret)
	profile := service.NewProfileService(st.stats, st.invitations, st.notifications)

	wsHandler := ws.NewHandler(hub, authSvc, rooms, games, cfg.CORSAllowedOrigins)
	wsHandler.SetGuessLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		RoomService:    rooms,
		GameService:    games,
		ProfileService: profile,
		WSHandler:      wsHandler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		GuessRPS:       cfg.RateLimitRPS,
		GuessBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// openStores connects the configured persistence. The memory store is seeded with
// dev users, friendships and words.
func openStores(ctx context.Context, cfg *config.Config) (*stores, func()) {
	if cfg.Store == "memory" {
		st := &stores{
			rooms:         repository.NewMemoryRoomRepo(),
			sessions:      repository.NewMemorySessionRepo(),
			invitations:   repository.NewMemoryInvitationRepo(),
			notifications: repository.NewMemoryNotificationRepo(),
			stats:         repository.NewMemoryStatsRepo(),
			users:         repository.NewMemoryUserRepo(),
			friends:       repository.NewMemoryFriendRepo(),
			words:         repository.NewMemoryWordRepo(nil),
		}
		if err := repository.Seed(ctx, st.users, st.friends, st.words); err != nil {
			log.Fatal().Err(err).Msg("failed to seed memory store")
		}
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return st, func() {}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	log.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	st := &stores{
		rooms:         repository.NewRoomRepo(db),
		sessions:      repository.NewSessionRepo(db),
		invitations:   repository.NewInvitationRepo(db),
		notifications: repository.NewNotificationRepo(db),
		stats:         repository.NewStatsRepo(db),
		users:         repository.NewUserRepo(db),
		friends:       repository.NewFriendRepo(db),
		words:         repository.NewWordRepo(db),
	}
	return st, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(disconnectCtx)
	}
}
