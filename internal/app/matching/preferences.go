package matching

import (
	"errors"
	"strings"
)

// GenderMode controls how candidate gender is considered.
type GenderMode string

const (
	GenderNoPreference GenderMode = "No Preference"
	GenderSame         GenderMode = "Same Gender"
	// GenderMixed asks for 1:1 balance. It is passed to the model as an
	// instruction and is not enforced by the filter.
	GenderMixed GenderMode = "Mixed Gender"
)

// Preferences is what a user asks for when looking for matches.
// The age range is inclusive on both ends.
type Preferences struct {
	AgeMin int
	AgeMax int
	Gender GenderMode
}

var (
	ErrBadAgeRange   = errors.New("age range must satisfy 0 <= min <= max")
	ErrBadGenderMode = errors.New(`gender must be "No Preference", "Same Gender" or "Mixed Gender"`)
)

// ParseGenderMode accepts the display values and their kebab/snake forms
// ("same-gender", "same_gender"). Empty input means no preference.
func ParseGenderMode(s string) (GenderMode, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("-", " ", "_", " ").Replace(k)
	switch k {
	case "", "no preference", "none", "any":
		return GenderNoPreference, nil
	case "same gender", "same":
		return GenderSame, nil
	case "mixed gender", "mixed":
		return GenderMixed, nil
	}
	return "", ErrBadGenderMode
}

// Validate checks the shape of p. The scoring functions themselves do not
// validate; HTTP handlers call this at the edge.
func (p Preferences) Validate() error {
	if p.AgeMin < 0 || p.AgeMax < p.AgeMin {
		return ErrBadAgeRange
	}
	switch p.Gender {
	case GenderNoPreference, GenderSame, GenderMixed:
		return nil
	}
	return ErrBadGenderMode
}
