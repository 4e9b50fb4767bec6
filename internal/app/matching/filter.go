package matching

import (
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
)

// InactiveCutoff drops candidates whose last activity is older than this.
// It is a hard filter, not a scoring penalty.
const InactiveCutoff = 30 * 24 * time.Hour

// Filter returns the candidates eligible to be matched with current.
//
// A candidate is kept when it is not current, has opted in to meetups, has
// been active within InactiveCutoff (or has no recorded activity), is inside
// the inclusive age range, and shares current's gender when prefs asks for
// the same gender. Input order is preserved.
func Filter(current models.User, candidates []models.User, prefs Preferences, now time.Time) []models.User {
	out := make([]models.User, 0, len(candidates))
	for _, c := range candidates {
		if eligible(current, c, prefs, now) {
			out = append(out, c)
		}
	}
	return out
}

func eligible(current, c models.User, prefs Preferences, now time.Time) bool {
	if c.ID == current.ID {
		return false
	}
	if !c.WantsMeetups() {
		return false
	}
	if c.LastActive != nil && now.Sub(*c.LastActive) > InactiveCutoff {
		return false
	}
	age := AgeAt(c.DOB, now)
	if age < prefs.AgeMin || age > prefs.AgeMax {
		return false
	}
	if prefs.Gender == GenderSame && c.Gender != current.Gender {
		return false
	}
	return true
}
