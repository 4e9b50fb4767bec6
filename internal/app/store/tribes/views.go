package tribestore

import (
	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublicProfile is the part of a live user other members may see.
type PublicProfile struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	Persona   string             `json:"persona,omitempty"`
	Hobbies   []string           `json:"hobbies,omitempty"`
	Location  string             `json:"location"`
	MBTI      string             `json:"mbti,omitempty"`
}

// Public projects u onto the fields shown to other members.
func Public(u models.User) PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.FullName,
		AvatarURL: u.AvatarURL,
		Persona:   u.Persona,
		Hobbies:   u.Hobbies,
		Location:  u.Location,
		MBTI:      u.MBTI,
	}
}

// MemberView pairs the snapshot taken at match time with the live user's
// public profile. Live is nil when the user no longer exists. The two are
// never assumed to agree.
type MemberView struct {
	Snapshot models.MatchedUser `json:"snapshot"`
	Live     *PublicProfile     `json:"live,omitempty"`
}

// Views builds member views for t in member order.
func Views(t models.Tribe, live map[primitive.ObjectID]models.User) []MemberView {
	out := make([]MemberView, len(t.Members))
	for i, m := range t.Members {
		out[i] = MemberView{Snapshot: m}
		if u, ok := live[m.UserID]; ok {
			p := Public(u)
			out[i].Live = &p
		}
	}
	return out
}

// Snapshot captures u as a tribe member.
func Snapshot(u models.User, score int, matchReason string) models.MatchedUser {
	return models.MatchedUser{
		UserID:             u.ID,
		CompatibilityScore: score,
		Persona:            u.Persona,
		MatchReason:        matchReason,
		RSVPStatus:         models.RSVPPending,
		Name:               u.FullName,
		AvatarURL:          u.AvatarURL,
		Hobbies:            u.Hobbies,
		Location:           u.Location,
		MBTI:               u.MBTI,
	}
}
