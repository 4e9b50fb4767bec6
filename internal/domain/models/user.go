// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gender values as stored on the user document.
const (
	GenderMale           = "Male"
	GenderFemale         = "Female"
	GenderOther          = "Other"
	GenderPreferNotToSay = "PreferNotToSay"
)

// User is a journaling member (or an admin) and a matching candidate.
//
// NOTE:
//   - Optional fields are pointers or nil slices; the matching pipeline
//     treats absence differently from a zero value (e.g. LastActive).
//   - CurrentTribeID is set only by the tribe store.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // admin | member
	AvatarURL    string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	DOB      time.Time `bson:"dob" json:"dob"`
	Gender   string    `bson:"gender" json:"gender"`
	Location string    `bson:"location" json:"location"`

	Persona        string      `bson:"persona,omitempty" json:"persona,omitempty"`
	Hobbies        []string    `bson:"hobbies,omitempty" json:"hobbies,omitempty"`
	MBTI           string      `bson:"mbti,omitempty" json:"mbti,omitempty"`
	AvailableDates []time.Time `bson:"available_dates,omitempty" json:"available_dates,omitempty"`

	LastActive          *time.Time          `bson:"last_active,omitempty" json:"last_active,omitempty"`
	LastTribeDate       *time.Time          `bson:"last_tribe_date,omitempty" json:"last_tribe_date,omitempty"`
	InterestedInMeetups *bool               `bson:"interested_in_meetups,omitempty" json:"interested_in_meetups,omitempty"`
	CurrentTribeID      *primitive.ObjectID `bson:"current_tribe_id,omitempty" json:"current_tribe_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WantsMeetups reports whether the user explicitly opted in to meetups.
func (u User) WantsMeetups() bool {
	return u.InterestedInMeetups != nil && *u.InterestedInMeetups
}
