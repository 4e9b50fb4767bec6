package journalstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/tribehub/internal/app/system/paging"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrEmptyEntry = errors.New("journal entry text is empty")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("journal_entries")}
}

// Create inserts an entry for userID.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, text string) (models.JournalEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.JournalEntry{}, ErrEmptyEntry
	}
	e := models.JournalEntry{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.JournalEntry{}, err
	}
	return e, nil
}

// ListRecent returns up to limit entries for userID, newest first.
func (s *Store) ListRecent(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.JournalEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.JournalEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns one page of userID's entries, newest first by id, and the
// cursor for the next page ("" on the last page).
func (s *Store) List(ctx context.Context, userID primitive.ObjectID, page paging.Page) ([]models.JournalEntry, string, error) {
	if page.Limit <= 0 {
		page.Limit = paging.PageSize
	}
	cur, err := s.c.Find(ctx, page.Apply(bson.M{"user_id": userID}), page.FindOptions())
	if err != nil {
		return nil, "", err
	}
	defer cur.Close(ctx)

	out := []models.JournalEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, "", err
	}
	next := paging.TrimPage(&out, page.Limit, func(e models.JournalEntry) primitive.ObjectID { return e.ID })
	return out, next, nil
}

// CountByUsers returns the number of entries per user. Users with no
// entries are absent from the map.
func (s *Store) CountByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": bson.M{"$in": userIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}
