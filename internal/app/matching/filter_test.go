package matching

import (
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wideOpen = Preferences{AgeMin: 0, AgeMax: 120, Gender: GenderNoPreference}

func ids(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID.Hex()
	}
	return out
}

func TestFilter_ExcludesNotInterested(t *testing.T) {
	current := candidate()
	cands := []models.User{
		candidate(func(u *models.User) { u.InterestedInMeetups = ptrBool(false) }),
		candidate(func(u *models.User) { u.InterestedInMeetups = nil }),
		candidate(func(u *models.User) {
			u.InterestedInMeetups = ptrBool(false)
			u.LastActive = ptrTime(testNow)
			u.Gender = current.Gender
		}),
	}
	assert.Empty(t, Filter(current, cands, wideOpen, testNow))
}

func TestFilter_ExcludesSelf(t *testing.T) {
	current := candidate()
	other := candidate()
	got := Filter(current, []models.User{current, other}, wideOpen, testNow)
	assert.Equal(t, ids([]models.User{other}), ids(got))
}

func TestFilter_AgeBoundsInclusive(t *testing.T) {
	current := candidate()
	prefs := Preferences{AgeMin: 25, AgeMax: 40, Gender: GenderNoPreference}

	atMin := candidate(func(u *models.User) { u.DOB = date(1999, 1, 1) })    // 25
	atMax := candidate(func(u *models.User) { u.DOB = date(1984, 1, 1) })    // 40
	belowMin := candidate(func(u *models.User) { u.DOB = date(2000, 1, 1) }) // 24
	aboveMax := candidate(func(u *models.User) { u.DOB = date(1983, 1, 1) }) // 41

	got := Filter(current, []models.User{atMin, atMax, belowMin, aboveMax}, prefs, testNow)
	assert.Equal(t, ids([]models.User{atMin, atMax}), ids(got))
}

func TestFilter_InactivityCutoff(t *testing.T) {
	current := candidate()
	exactly30 := candidate(func(u *models.User) { u.LastActive = ptrTime(testNow.Add(-30 * 24 * time.Hour)) })
	days31 := candidate(func(u *models.User) { u.LastActive = ptrTime(testNow.Add(-31 * 24 * time.Hour)) })
	never := candidate(func(u *models.User) { u.LastActive = nil })

	got := Filter(current, []models.User{exactly30, days31, never}, wideOpen, testNow)
	assert.Equal(t, ids([]models.User{exactly30, never}), ids(got))
}

func TestFilter_SameGender(t *testing.T) {
	current := candidate(func(u *models.User) { u.Gender = models.GenderFemale })
	female := candidate(func(u *models.User) { u.Gender = models.GenderFemale })
	male := candidate(func(u *models.User) { u.Gender = models.GenderMale })
	other := candidate(func(u *models.User) { u.Gender = models.GenderOther })
	all := []models.User{female, male, other}

	same := Filter(current, all, Preferences{AgeMax: 120, Gender: GenderSame}, testNow)
	assert.Equal(t, ids([]models.User{female}), ids(same))

	for _, mode := range []GenderMode{GenderNoPreference, GenderMixed} {
		got := Filter(current, all, Preferences{AgeMax: 120, Gender: mode}, testNow)
		require.Len(t, got, 3, "mode %q must not constrain gender", mode)
	}
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	current := candidate()
	cands := []models.User{candidate(), candidate(), candidate()}
	before := ids(cands)

	got := Filter(current, cands, wideOpen, testNow)
	assert.Equal(t, before, ids(got))
	assert.Equal(t, before, ids(cands), "input must not be mutated")
}

func TestPreferences_Validate(t *testing.T) {
	assert.NoError(t, Preferences{AgeMin: 25, AgeMax: 40, Gender: GenderSame}.Validate())
	assert.ErrorIs(t, Preferences{AgeMin: 40, AgeMax: 25, Gender: GenderSame}.Validate(), ErrBadAgeRange)
	assert.ErrorIs(t, Preferences{AgeMin: -1, AgeMax: 25, Gender: GenderSame}.Validate(), ErrBadAgeRange)
	assert.ErrorIs(t, Preferences{AgeMin: 20, AgeMax: 25, Gender: "Whatever"}.Validate(), ErrBadGenderMode)
}

func TestParseGenderMode(t *testing.T) {
	tests := map[string]GenderMode{
		"":              GenderNoPreference,
		"No Preference": GenderNoPreference,
		"Same Gender":   GenderSame,
		"same-gender":   GenderSame,
		"MIXED_GENDER":  GenderMixed,
	}
	for in, want := range tests {
		got, err := ParseGenderMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseGenderMode("both")
	assert.ErrorIs(t, err, ErrBadGenderMode)
}
