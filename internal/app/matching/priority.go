package matching

import (
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority score terms.
const (
	RecentWindow        = 7 * 24 * time.Hour
	RecentActivityBonus = 50
	JournalEntryWeight  = 2
	RecentTribePenalty  = 100
)

// ScoredCandidate pairs a candidate with its priority. It lives for one
// matching run and is never stored.
type ScoredCandidate struct {
	User  models.User
	Score int
}

// PriorityScore is the heuristic used to order candidates before they are
// handed to the model. It is unbounded and may be negative.
func PriorityScore(u models.User, journalEntries int, now time.Time) int {
	score := 0
	if u.LastActive != nil && now.Sub(*u.LastActive) <= RecentWindow {
		score += RecentActivityBonus
	}
	score += JournalEntryWeight * journalEntries
	if u.LastTribeDate != nil && now.Sub(*u.LastTribeDate) <= RecentWindow {
		score -= RecentTribePenalty
	}
	score += AgeAt(u.DOB, now)
	return score
}

// Score computes the priority of each candidate. journalCounts may be nil;
// missing users count as zero entries.
func Score(candidates []models.User, journalCounts map[primitive.ObjectID]int, now time.Time) []ScoredCandidate {
	out := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = ScoredCandidate{User: c, Score: PriorityScore(c, journalCounts[c.ID], now)}
	}
	return out
}
