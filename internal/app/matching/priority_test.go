package matching

import (
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPriorityScore_AgeOnly(t *testing.T) {
	u := candidate(func(u *models.User) { u.DOB = date(1994, 1, 1) })
	assert.Equal(t, 30, PriorityScore(u, 0, testNow))
}

func TestPriorityScore_JournalMonotonic(t *testing.T) {
	u := candidate()
	base := PriorityScore(u, 0, testNow)
	for n := 1; n <= 10; n++ {
		assert.Equal(t, base+2*n, PriorityScore(u, n, testNow))
		assert.Equal(t, 2, PriorityScore(u, n, testNow)-PriorityScore(u, n-1, testNow))
	}
}

func TestPriorityScore_RecentActivity(t *testing.T) {
	age := AgeAt(candidate().DOB, testNow)
	tests := []struct {
		name       string
		lastActive *time.Time
		want       int
	}{
		{"absent", nil, age},
		{"exactly 7 days", ptrTime(testNow.Add(-7 * 24 * time.Hour)), age + 50},
		{"8 days", ptrTime(testNow.Add(-8 * 24 * time.Hour)), age},
		{"today", ptrTime(testNow), age + 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := candidate(func(u *models.User) { u.LastActive = tt.lastActive })
			assert.Equal(t, tt.want, PriorityScore(u, 0, testNow))
		})
	}
}

func TestPriorityScore_RecentTribePenalty(t *testing.T) {
	recent := candidate(func(u *models.User) { u.LastTribeDate = ptrTime(testNow.Add(-3 * 24 * time.Hour)) })
	old := candidate(func(u *models.User) { u.LastTribeDate = ptrTime(testNow.Add(-10 * 24 * time.Hour)) })
	age := AgeAt(recent.DOB, testNow)

	assert.Equal(t, age-100, PriorityScore(recent, 0, testNow))
	assert.Equal(t, age, PriorityScore(old, 0, testNow))
	assert.Less(t, PriorityScore(recent, 0, testNow), 0, "scores may go negative")
}

func TestScore_UsesJournalCounts(t *testing.T) {
	a, b := candidate(), candidate()
	counts := map[primitive.ObjectID]int{a.ID: 5}

	got := Score([]models.User{a, b}, counts, testNow)
	assert.Equal(t, PriorityScore(a, 5, testNow), got[0].Score)
	assert.Equal(t, PriorityScore(b, 0, testNow), got[1].Score)

	assert.NotPanics(t, func() { Score([]models.User{a}, nil, testNow) })
}
