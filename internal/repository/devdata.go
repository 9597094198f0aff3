package repository

import (
	"context"
	"fmt"
	"time"

	"wordrooms/internal/model"
)

// DevUsers and DevWords seed local environments: the in-memory store at startup and
// Mongo through cmd/seed.
var DevUsers = []model.User{
	{UserID: "u-alice", Username: "alice"},
	{UserID: "u-bob", Username: "bob"},
	{UserID: "u-carol", Username: "carol"},
	{UserID: "u-dave", Username: "dave"},
}

// DevFriendships pairs are stored in both directions
var DevFriendships = [][2]string{
	{"u-alice", "u-bob"},
	{"u-alice", "u-carol"},
	{"u-bob", "u-carol"},
	{"u-carol", "u-dave"},
}

var DevWords = []model.Word{
	{Word: "bird", Hint: "It flies", Category: "animals", Difficulty: "easy", Language: "en"},
	{Word: "lamp", Hint: "Lights a room", Category: "home", Difficulty: "easy", Language: "en"},
	{Word: "crane", Hint: "A tall wading bird", Category: "animals", Difficulty: "medium", Language: "en"},
	{Word: "slate", Hint: "A flat grey rock", Category: "nature", Difficulty: "medium", Language: "en"},
	{Word: "plant", Hint: "It grows in soil", Category: "nature", Difficulty: "easy", Language: "en"},
	{Word: "brick", Hint: "Walls are built from it", Category: "home", Difficulty: "easy", Language: "en"},
	{Word: "ghost", Hint: "Says boo", Category: "fantasy", Difficulty: "medium", Language: "en"},
	{Word: "nymph", Hint: "A spirit of nature", Category: "fantasy", Difficulty: "hard", Language: "en"},
	{Word: "glyph", Hint: "A carved symbol", Category: "writing", Difficulty: "hard", Language: "en"},
	{Word: "planet", Hint: "Orbits a star", Category: "space", Difficulty: "medium", Language: "en"},
	{Word: "rhythm", Hint: "A beat with no vowels", Category: "music", Difficulty: "hard", Language: "en"},
	{Word: "kitchen", Hint: "Where meals are made", Category: "home", Difficulty: "medium", Language: "en"},
	{Word: "perro", Hint: "Ladra", Category: "animales", Difficulty: "easy", Language: "es"},
	{Word: "gato", Hint: "Maulla", Category: "animales", Difficulty: "easy", Language: "es"},
	{Word: "chat", Hint: "Il miaule", Category: "animaux", Difficulty: "easy", Language: "fr"},
	{Word: "maison", Hint: "On y habite", Category: "maison", Difficulty: "medium", Language: "fr"},
	{Word: "haus", Hint: "Man wohnt darin", Category: "zuhause", Difficulty: "easy", Language: "de"},
	{Word: "blume", Hint: "Sie blüht", Category: "natur", Difficulty: "medium", Language: "de"},
}

// Seed writes the dev data through the given repositories. Records that already
// exist are kept, so running it twice is harmless.
func Seed(ctx context.Context, users UserRepo, friends FriendRepo, words WordRepo) error {
	now := time.Now().UTC()
	for _, u := range DevUsers {
		u.CreatedAt = now
		if err := users.Create(ctx, &u); err != nil && !isDuplicateKey(err) {
			return fmt.Errorf("seed user %s: %w", u.UserID, err)
		}
	}
	for _, pair := range DevFriendships {
		for _, f := range []model.Friendship{
			{UserID: pair[0], FriendID: pair[1], CreatedAt: now},
			{UserID: pair[1], FriendID: pair[0], CreatedAt: now},
		} {
			if err := friends.Add(ctx, &f); err != nil {
				return fmt.Errorf("seed friendship %s-%s: %w", f.UserID, f.FriendID, err)
			}
		}
	}
	bank := append([]model.Word(nil), DevWords...)
	if err := words.InsertMany(ctx, bank); err != nil {
		return fmt.Errorf("seed words: %w", err)
	}
	return nil
}
