package matching

import "time"

// AgeAt returns whole years between dob and now, minus one when now falls
// before this year's birthday.
func AgeAt(dob, now time.Time) int {
	dob = dob.UTC()
	now = now.UTC()
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
