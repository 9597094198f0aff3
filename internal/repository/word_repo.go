package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordrooms/internal/model"
)

// WordRepo backs the word bank; it is the storage behind BankWordService
type WordRepo interface {
	InsertMany(ctx context.Context, words []model.Word) error
	Random(ctx context.Context, q model.WordQuery) (*model.Word, error)
	Exists(ctx context.Context, language, word string) (bool, error)
	RecordUsage(ctx context.Context, language, word string, solved bool) error
}

type wordRepo struct {
	collection *mongo.Collection
}

func NewWordRepo(db *mongo.Database) WordRepo {
	return &wordRepo{
		collection: db.Collection("words"),
	}
}

func (r *wordRepo) InsertMany(ctx context.Context, words []model.Word) error {
	docs := make([]interface{}, len(words))
	for i := range words {
		words[i].Word = strings.ToUpper(words[i].Word)
		words[i].Length = len([]rune(words[i].Word))
		docs[i] = words[i]
	}
	// unordered so a re-seed skips existing words and inserts the rest
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if isDuplicateKey(err) {
		return nil
	}
	return err
}

func (r *wordRepo) Random(ctx context.Context, q model.WordQuery) (*model.Word, error) {
	match := bson.M{"language": q.Language, "length": q.Length}
	if q.Difficulty != "" {
		match["difficulty"] = q.Difficulty
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	var w model.Word
	if err := cursor.Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *wordRepo) Exists(ctx context.Context, language, word string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"language": language, "word": strings.ToUpper(word)}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

func (r *wordRepo) RecordUsage(ctx context.Context, language, word string, solved bool) error {
	inc := bson.M{"timesUsed": 1}
	if solved {
		inc["timesSolved"] = 1
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"language": language, "word": strings.ToUpper(word)},
		bson.M{"$inc": inc},
	)
	return err
}
