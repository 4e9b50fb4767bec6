// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's set is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, c := range Collections() {
		if err := ensureIndexSet(ctx, db.Collection(c.Name), c.Indexes, logger); err != nil {
			problems = append(problems, c.Name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// CollectionIndexes is the desired index set for one collection.
type CollectionIndexes struct {
	Name    string
	Indexes []mongo.IndexModel
}

// Collections lists every collection the service indexes.
func Collections() []CollectionIndexes {
	return []CollectionIndexes{
		{Name: "users", Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_users_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("idx_users_fullnameci__id"),
			},
			// candidate pool: interested users by recency
			{
				Keys:    bson.D{{Key: "interested_in_meetups", Value: 1}, {Key: "last_active", Value: -1}},
				Options: options.Index().SetName("idx_users_interested_lastactive"),
			},
			{
				Keys:    bson.D{{Key: "current_tribe_id", Value: 1}},
				Options: options.Index().SetName("idx_users_current_tribe"),
			},
		}},
		{Name: "tribes", Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "active", Value: 1}, {Key: "formed_at", Value: -1}},
				Options: options.Index().SetName("idx_tribes_active_formed"),
			},
			{
				Keys:    bson.D{{Key: "active", Value: 1}, {Key: "meetup_date", Value: 1}},
				Options: options.Index().SetName("idx_tribes_active_meetup"),
			},
			{
				Keys:    bson.D{{Key: "member_ids", Value: 1}},
				Options: options.Index().SetName("idx_tribes_member_ids"),
			},
		}},
		{Name: "tribes_archive", Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "archived_at", Value: -1}},
				Options: options.Index().SetName("idx_tribes_archive_archived"),
			},
			{
				Keys:    bson.D{{Key: "member_ids", Value: 1}},
				Options: options.Index().SetName("idx_tribes_archive_member_ids"),
			},
		}},
		{Name: "journal_entries", Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_journal_user_created"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}},
				Options: options.Index().SetName("idx_journal_user__id"),
			},
		}},
		{Name: "audit_events", Indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "_id", Value: -1}, {Key: "category", Value: 1}},
				Options: options.Index().SetName("idx_audit_id_category"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}},
				Options: options.Index().SetName("idx_audit_user__id"),
			},
			{
				Keys:    bson.D{{Key: "tribe_id", Value: 1}, {Key: "_id", Value: -1}},
				Options: options.Index().SetName("idx_audit_tribe__id"),
			},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av, bv := false, false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

func listExisting(ctx context.Context, coll *mongo.Collection, log *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	existing, err := listExisting(ctx, coll, log)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				log.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Name or uniqueness differs: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop failed: %v", desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", desiredName, err))
			}
			continue
		}
		log.Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
