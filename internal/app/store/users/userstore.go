package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tribehub/internal/app/system/normalize"
	"github.com/dalemusser/tribehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// CandidatePoolLimit caps how many users one match request loads.
const CandidatePoolLimit = 500

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrBadCredentials covers both unknown email and wrong password.
	ErrBadCredentials = errors.New("invalid email or password")
	errBadRole        = errors.New(`role must be "admin"|"member"`)
	errBadGender      = errors.New(`gender must be "Male"|"Female"|"Other"|"PreferNotToSay"`)
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany loads the users with the given ids, keyed by id. Missing ids are
// simply absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// Create inserts a new user after normalizing & validating fields. A
// non-empty password is stored as a bcrypt hash.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Location = normalize.Location(u.Location)

	switch u.Role {
	case "admin", "member":
	default:
		return models.User{}, errBadRole
	}
	switch u.Gender {
	case models.GenderMale, models.GenderFemale, models.GenderOther, models.GenderPreferNotToSay, "":
	default:
		return models.User{}, errBadGender
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate returns the user whose email and password match.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// ListCandidates returns users who opted in to meetups and are not already
// in a tribe, excluding excludeID, most recently active first. The matching
// filter does the exact eligibility checks; this only narrows the pool.
func (s *Store) ListCandidates(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error) {
	filter := bson.M{
		"_id":                   bson.M{"$ne": excludeID},
		"interested_in_meetups": true,
		"current_tribe_id":      nil,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "last_active", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(CandidatePoolLimit).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PersonaUpdate holds the generated profile fields.
type PersonaUpdate struct {
	Persona string
	Hobbies []string
	MBTI    string
}

// UpdatePersona stores a generated persona. An empty MBTI leaves the
// stored one unchanged.
func (s *Store) UpdatePersona(ctx context.Context, id primitive.ObjectID, upd PersonaUpdate) error {
	set := bson.M{
		"persona":    upd.Persona,
		"hobbies":    upd.Hobbies,
		"updated_at": time.Now().UTC(),
	}
	if upd.MBTI != "" {
		set["mbti"] = upd.MBTI
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Touch records activity at t.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID, t time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_active": t.UTC()}})
	return err
}

// TouchIfStale records activity at t unless last_active is already within
// gap of t. It reports whether the document changed.
func (s *Store) TouchIfStale(ctx context.Context, id primitive.ObjectID, t time.Time, gap time.Duration) (bool, error) {
	t = t.UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "$or": bson.A{
			bson.M{"last_active": bson.M{"$lt": t.Add(-gap)}},
			bson.M{"last_active": nil},
		}},
		bson.M{"$set": bson.M{"last_active": t}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
