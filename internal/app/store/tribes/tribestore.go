// Package tribestore is the only writer of tribes and of users.current_tribe_id.
//
// MongoDB gives single-document atomicity only, so multi-document changes are
// ordered so that a failure midway leaves a state the next call can repair:
// a user is claimed (current_tribe_id set) before the tribe document gains
// them, and released if the tribe update does not apply.
package tribestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrTribeFull       = errors.New("tribe is full")
	ErrAlreadyInTribe  = errors.New("user is already in a tribe")
	ErrTribeInactive   = errors.New("tribe is not active")
	ErrTribeActive     = errors.New("tribe is active; deactivate it first")
	ErrNotMember       = errors.New("user is not a member of this tribe")
	ErrBadRSVP         = errors.New(`rsvp must be "pending"|"accepted"|"rejected"`)
	ErrTooFewMembers   = errors.New("a tribe needs at least 2 members")
	ErrTooManyMembers  = fmt.Errorf("a tribe has at most %d members", models.MaxTribeMembers)
	ErrDuplicateMember = errors.New("a user appears twice in the tribe")
)

type Store struct {
	c       *mongo.Collection
	archive *mongo.Collection
	users   *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("tribes"),
		archive: db.Collection("tribes_archive"),
		users:   db.Collection("users"),
	}
}

// GetByID loads a tribe. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tribe, error) {
	var t models.Tribe
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListActive returns active tribes, newest first.
func (s *Store) ListActive(ctx context.Context) ([]models.Tribe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "formed_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Tribe{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDueForArchive returns ids of active tribes whose meetup date is before cutoff.
func (s *Store) ListDueForArchive(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{
		"active":      true,
		"meetup_date": bson.M{"$lt": cutoff},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// Create inserts t and claims each member for it. Members must be 2..8
// distinct users none of whom is already in a tribe. MemberIDs and
// MemberCount are derived from Members.
func (s *Store) Create(ctx context.Context, t models.Tribe) (models.Tribe, error) {
	if len(t.Members) < 2 {
		return models.Tribe{}, ErrTooFewMembers
	}
	if len(t.Members) > models.MaxTribeMembers {
		return models.Tribe{}, ErrTooManyMembers
	}
	ids := make([]primitive.ObjectID, 0, len(t.Members))
	seen := make(map[primitive.ObjectID]struct{}, len(t.Members))
	for i, m := range t.Members {
		if _, dup := seen[m.UserID]; dup {
			return models.Tribe{}, ErrDuplicateMember
		}
		seen[m.UserID] = struct{}{}
		ids = append(ids, m.UserID)
		if m.RSVPStatus == "" {
			t.Members[i].RSVPStatus = models.RSVPPending
		}
	}

	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.MemberIDs = ids
	t.MemberCount = len(ids)
	if t.FormedAt.IsZero() {
		t.FormedAt = now
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Tribe{}, err
	}

	res, err := s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "current_tribe_id": nil},
		bson.M{"$set": bson.M{"current_tribe_id": t.ID}})
	if err == nil && res.MatchedCount == int64(len(ids)) {
		return t, nil
	}

	// Some member was taken (or the update failed): undo.
	s.release(ctx, t.ID, ids)
	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": t.ID})
	if err != nil {
		return models.Tribe{}, err
	}
	return models.Tribe{}, ErrAlreadyInTribe
}

// Join adds m to an active, non-full tribe.
func (s *Store) Join(ctx context.Context, tribeID primitive.ObjectID, m models.MatchedUser) (*models.Tribe, error) {
	if m.RSVPStatus == "" {
		m.RSVPStatus = models.RSVPPending
	}

	claim, err := s.users.UpdateOne(ctx,
		bson.M{"_id": m.UserID, "current_tribe_id": nil},
		bson.M{"$set": bson.M{"current_tribe_id": tribeID}})
	if err != nil {
		return nil, err
	}
	if claim.MatchedCount == 0 {
		n, err := s.users.CountDocuments(ctx, bson.M{"_id": m.UserID})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, mongo.ErrNoDocuments
		}
		return nil, ErrAlreadyInTribe
	}

	var t models.Tribe
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":          tribeID,
			"active":       true,
			"member_count": bson.M{"$lt": models.MaxTribeMembers},
			"member_ids":   bson.M{"$ne": m.UserID},
		},
		bson.M{
			"$push": bson.M{"members": m, "member_ids": m.UserID},
			"$inc":  bson.M{"member_count": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err == nil {
		return &t, nil
	}

	s.release(ctx, tribeID, []primitive.ObjectID{m.UserID})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.whyNotJoinable(ctx, tribeID)
}

func (s *Store) whyNotJoinable(ctx context.Context, tribeID primitive.ObjectID) error {
	cur, err := s.GetByID(ctx, tribeID)
	if err != nil {
		return err
	}
	switch {
	case !cur.Active:
		return ErrTribeInactive
	case cur.MemberCount >= models.MaxTribeMembers:
		return ErrTribeFull
	default:
		return ErrAlreadyInTribe
	}
}

// Leave removes userID from the tribe and frees them to join another.
func (s *Store) Leave(ctx context.Context, tribeID, userID primitive.ObjectID) (*models.Tribe, error) {
	var t models.Tribe
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": tribeID, "member_ids": userID},
		bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}, "member_ids": userID},
			"$inc":  bson.M{"member_count": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, gerr := s.GetByID(ctx, tribeID); gerr != nil {
				return nil, gerr
			}
			return nil, ErrNotMember
		}
		return nil, err
	}
	s.release(ctx, tribeID, []primitive.ObjectID{userID})
	return &t, nil
}

// SetScore stores the tribe's compatibility score computed over memberIDs.
// The write is skipped, returning false, when membership has changed since
// memberIDs was read; whoever changed it sets the newer score.
func (s *Store) SetScore(ctx context.Context, id primitive.ObjectID, memberIDs []primitive.ObjectID, score int) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "member_ids": memberIDs},
		bson.M{"$set": bson.M{"compatibility_score": score, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// UpdateRSVP sets userID's RSVP status within the tribe.
func (s *Store) UpdateRSVP(ctx context.Context, tribeID, userID primitive.ObjectID, status string) error {
	if !models.ValidRSVP(status) {
		return ErrBadRSVP
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": tribeID, "members.user_id": userID},
		bson.M{"$set": bson.M{
			"members.$.rsvp_status": status,
			"updated_at":            time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, gerr := s.GetByID(ctx, tribeID); gerr != nil {
			return gerr
		}
		return ErrNotMember
	}
	return nil
}

// SetActive flips the active flag.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": active, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Archive copies the tribe to tribes_archive, removes it from tribes and
// releases its members, stamping their last_tribe_date with at.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t.Active = false
	at = at.UTC()

	doc := models.ArchivedTribe{Tribe: *t, ArchivedAt: at}
	if _, err := s.archive.InsertOne(ctx, doc); err != nil && !wafflemongo.IsDup(err) {
		return fmt.Errorf("copy to archive: %w", err)
	}
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("remove archived tribe: %w", err)
	}
	if len(t.MemberIDs) > 0 {
		_, err := s.users.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": t.MemberIDs}, "current_tribe_id": id},
			bson.M{
				"$set":   bson.M{"last_tribe_date": at},
				"$unset": bson.M{"current_tribe_id": ""},
			})
		if err != nil {
			return fmt.Errorf("release archived members: %w", err)
		}
	}
	return nil
}

// GetArchived loads an archived tribe.
func (s *Store) GetArchived(ctx context.Context, id primitive.ObjectID) (*models.ArchivedTribe, error) {
	var t models.ArchivedTribe
	if err := s.archive.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes an inactive tribe outright and releases its members.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "active": false})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTribeActive
	}
	s.release(ctx, id, t.MemberIDs)
	return nil
}

// release clears current_tribe_id for ids still pointing at tribeID.
func (s *Store) release(ctx context.Context, tribeID primitive.ObjectID, ids []primitive.ObjectID) {
	if len(ids) == 0 {
		return
	}
	_, _ = s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "current_tribe_id": tribeID},
		bson.M{"$unset": bson.M{"current_tribe_id": ""}})
}
