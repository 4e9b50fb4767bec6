package matching

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrBool(b bool) *bool { return &b }

// candidate returns an eligible 30-year-old male who wants meetups.
func candidate(mods ...func(*models.User)) models.User {
	u := models.User{
		ID:                  primitive.NewObjectID(),
		FullName:            "Candidate",
		DOB:                 date(1993, 6, 15),
		Gender:              models.GenderMale,
		Location:            "Austin",
		Persona:             "Curious hiker",
		InterestedInMeetups: ptrBool(true),
	}
	for _, m := range mods {
		m(&u)
	}
	return u
}

type fakeModel struct {
	out   map[string]any
	err   error
	calls int
	users []string
}

func (m *fakeModel) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	m.calls++
	m.users = append(m.users, user)
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

func matchesPayload(ms ...Match) map[string]any {
	items := make([]any, len(ms))
	for i, m := range ms {
		items[i] = map[string]any{
			"userId":             m.UserID,
			"compatibilityScore": m.CompatibilityScore,
			"persona":            m.Persona,
			"matchReason":        m.MatchReason,
		}
	}
	return map[string]any{"matches": items}
}

var errNotRetryable = errors.New("openai http 400: schema rejected")
