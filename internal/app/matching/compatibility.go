package matching

import (
	"math"
	"strings"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
)

// PersonaSimilarityPlaceholder stands in for persona similarity.
// TODO: replace with embedding similarity between member personas; until
// then every tribe gets the full 25 points for this factor.
const PersonaSimilarityPlaceholder = 100.0

// Factor weights; they sum to 1.
const (
	WeightPersona  = 0.25
	WeightLocation = 0.20
	WeightHobbies  = 0.20
	WeightMBTI     = 0.15
	WeightAge      = 0.10
	WeightGender   = 0.10
)

// MBTI temperament groups.
const (
	MBTIAnalysts  = "Analysts"
	MBTIDiplomats = "Diplomats"
	MBTISentinels = "Sentinels"
	MBTIExplorers = "Explorers"
)

var mbtiGroups = map[string]string{
	"INTJ": MBTIAnalysts, "INTP": MBTIAnalysts, "ENTJ": MBTIAnalysts, "ENTP": MBTIAnalysts,
	"INFJ": MBTIDiplomats, "INFP": MBTIDiplomats, "ENFJ": MBTIDiplomats, "ENFP": MBTIDiplomats,
	"ISTJ": MBTISentinels, "ISFJ": MBTISentinels, "ESTJ": MBTISentinels, "ESFJ": MBTISentinels,
	"ISTP": MBTIExplorers, "ISFP": MBTIExplorers, "ESTP": MBTIExplorers, "ESFP": MBTIExplorers,
}

// MBTIGroup returns the temperament group of an MBTI code, or "".
func MBTIGroup(code string) string {
	return mbtiGroups[strings.ToUpper(strings.TrimSpace(code))]
}

// IsMBTI reports whether code is one of the 16 types.
func IsMBTI(code string) bool {
	return MBTIGroup(code) != ""
}

// Breakdown is the per-factor view of a compatibility score. Factor values
// are on a 0..100 scale before weighting.
type Breakdown struct {
	Persona  float64 `json:"persona"`
	Location float64 `json:"location"`
	Hobbies  float64 `json:"hobbies"`
	MBTI     float64 `json:"mbti"`
	Age      float64 `json:"age"`
	Gender   float64 `json:"gender"`
	Score    int     `json:"score"`
}

// TribeCompatibility returns the weighted compatibility percentage of a set
// of users. Fewer than two users score 0.
func TribeCompatibility(users []models.User, now time.Time) int {
	return Compatibility(users, now).Score
}

// Compatibility computes every factor and the rounded weighted sum.
func Compatibility(users []models.User, now time.Time) Breakdown {
	if len(users) < 2 {
		return Breakdown{}
	}
	b := Breakdown{
		Persona:  PersonaSimilarityPlaceholder,
		Location: locationFactor(users),
		Hobbies:  hobbiesFactor(users),
		MBTI:     mbtiFactor(users),
		Age:      ageFactor(users, now),
		Gender:   genderFactor(users),
	}
	sum := b.Persona*WeightPersona +
		b.Location*WeightLocation +
		b.Hobbies*WeightHobbies +
		b.MBTI*WeightMBTI +
		b.Age*WeightAge +
		b.Gender*WeightGender
	b.Score = int(math.Round(sum))
	return b
}

func locationFactor(users []models.User) float64 {
	first := users[0].Location
	for _, u := range users[1:] {
		if u.Location != first {
			return 0
		}
	}
	return 100
}

func hobbiesFactor(users []models.User) float64 {
	holders := make(map[string]int)
	for _, u := range users {
		mine := make(map[string]struct{}, len(u.Hobbies))
		for _, h := range u.Hobbies {
			mine[h] = struct{}{}
		}
		for h := range mine {
			holders[h]++
		}
	}
	if len(holders) == 0 {
		return 0
	}
	shared := 0
	for _, n := range holders {
		if n == len(users) {
			shared++
		}
	}
	return float64(shared) / float64(len(holders)) * 100
}

func mbtiFactor(users []models.User) float64 {
	counts := make(map[string]int, 4)
	best := 0
	for _, u := range users {
		g := MBTIGroup(u.MBTI)
		if g == "" {
			continue
		}
		counts[g]++
		if counts[g] > best {
			best = counts[g]
		}
	}
	return float64(best) / float64(len(users)) * 100
}

func ageFactor(users []models.User, now time.Time) float64 {
	minAge, maxAge := math.MaxInt, math.MinInt
	for _, u := range users {
		a := AgeAt(u.DOB, now)
		if a < minAge {
			minAge = a
		}
		if a > maxAge {
			maxAge = a
		}
	}
	return math.Max(0, 100-5*float64(maxAge-minAge))
}

// genderFactor keeps the fold the product has always used: per-gender counts
// taken in first-seen order are folded by subtraction (c0 - c1 - c2 ...),
// and the term is (1 - |fold| / total) * 100. With three or more genders
// this is order dependent and not a true imbalance measure.
// Pending product-owner clarification; do not "fix" silently.
func genderFactor(users []models.User) float64 {
	var order []string
	counts := make(map[string]int)
	for _, u := range users {
		if _, ok := counts[u.Gender]; !ok {
			order = append(order, u.Gender)
		}
		counts[u.Gender]++
	}
	fold := counts[order[0]]
	for _, g := range order[1:] {
		fold -= counts[g]
	}
	return (1 - math.Abs(float64(fold))/float64(len(users))) * 100
}
