// internal/domain/models/tribe.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTribeMembers is the hard cap enforced when a user joins a tribe.
const MaxTribeMembers = 8

// RSVP states for a tribe member.
const (
	RSVPPending  = "pending"
	RSVPAccepted = "accepted"
	RSVPRejected = "rejected"
)

// ValidRSVP reports whether s is a known RSVP state.
func ValidRSVP(s string) bool {
	return s == RSVPPending || s == RSVPAccepted || s == RSVPRejected
}

// MatchedUser is a tribe member as captured when the tribe was formed.
//
// The Name/AvatarURL/Hobbies/Location/MBTI fields are a snapshot and are
// never synchronized with the live users collection.
type MatchedUser struct {
	UserID             primitive.ObjectID `bson:"user_id" json:"user_id"`
	CompatibilityScore int                `bson:"compatibility_score" json:"compatibility_score"`
	Persona            string             `bson:"persona" json:"persona"`
	MatchReason        string             `bson:"match_reason" json:"match_reason"`
	RSVPStatus         string             `bson:"rsvp_status" json:"rsvp_status"`

	Name      string   `bson:"name" json:"name"`
	AvatarURL string   `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Hobbies   []string `bson:"hobbies,omitempty" json:"hobbies,omitempty"`
	Location  string   `bson:"location" json:"location"`
	MBTI      string   `bson:"mbti,omitempty" json:"mbti,omitempty"`
}

// Tribe is a small group of matched users meeting in person.
//
// NOTE:
//   - MemberIDs must always equal the set of Members[].UserID. Only the
//     tribe store writes either field.
//   - MemberCount mirrors len(Members) so joins can be guarded atomically.
type Tribe struct {
	ID                 primitive.ObjectID   `bson:"_id" json:"id"`
	Name               string               `bson:"name" json:"name"`
	Members            []MatchedUser        `bson:"members" json:"members"`
	MemberIDs          []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	MemberCount        int                  `bson:"member_count" json:"member_count"`
	MeetupDate         *time.Time           `bson:"meetup_date,omitempty" json:"meetup_date,omitempty"`
	MeetupTime         string               `bson:"meetup_time,omitempty" json:"meetup_time,omitempty"`
	MeetupLocation     string               `bson:"meetup_location,omitempty" json:"meetup_location,omitempty"`
	Active             bool                 `bson:"active" json:"active"`
	CompatibilityScore int                  `bson:"compatibility_score" json:"compatibility_score"`
	FormedAt           time.Time            `bson:"formed_at" json:"formed_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ArchivedTribe is a tribe copied into tribes_archive when it ends.
type ArchivedTribe struct {
	Tribe      `bson:",inline"`
	ArchivedAt time.Time `bson:"archived_at" json:"archived_at"`
}
