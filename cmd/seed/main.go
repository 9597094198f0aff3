package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/config"
	"wordrooms/internal/logger"
	"wordrooms/internal/repository"
	"wordrooms/internal/service"
)

// seed loads dev users, friendships and the word bank into Mongo and prints a bearer
// token per user for local testing.
func main() {
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed tokens")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	if err := repository.Seed(ctx, repository.NewUserRepo(db), repository.NewFriendRepo(db), repository.NewWordRepo(db)); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().
		Int("users", len(repository.DevUsers)).
		Int("friendships", len(repository.DevFriendships)).
		Int("words", len(repository.DevWords)).
		Str("db", cfg.MongoDB).
		Msg("seeded")

	auth := service.NewAuthService(cfg.JWTSecret)
	for _, u := range repository.DevUsers {
		token, err := auth.IssueToken(u.UserID, u.Username, *tokenTTL)
		if err != nil {
			log.Fatal().Err(err).Str("user", u.UserID).Msg("issue token")
		}
		fmt.Printf("%-8s %s\n", u.Username, token)
	}
}
