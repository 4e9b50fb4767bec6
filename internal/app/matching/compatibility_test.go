package matching

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dalemusser/tribehub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func member(gender, location, mbti string, dob time.Time, hobbies ...string) models.User {
	return models.User{
		ID:       primitive.NewObjectID(),
		Gender:   gender,
		Location: location,
		MBTI:     mbti,
		DOB:      dob,
		Hobbies:  hobbies,
	}
}

func TestCompatibility_FewerThanTwo(t *testing.T) {
	assert.Equal(t, 0, TribeCompatibility(nil, testNow))
	assert.Equal(t, 0, TribeCompatibility([]models.User{member("Male", "Austin", "INTJ", date(1990, 1, 1))}, testNow))
}

func TestCompatibility_PerfectPair(t *testing.T) {
	users := []models.User{
		member(models.GenderMale, "Austin", "INTJ", date(1990, 1, 1), "climbing"),
		member(models.GenderFemale, "Austin", "ENTP", date(1990, 1, 1), "climbing"),
	}
	b := Compatibility(users, testNow)
	assert.Equal(t, 100.0, b.Location)
	assert.Equal(t, 100.0, b.Hobbies)
	assert.Equal(t, 100.0, b.MBTI)
	assert.Equal(t, 100.0, b.Age)
	assert.Equal(t, 100.0, b.Gender)
	assert.Equal(t, 100, b.Score)
}

func TestCompatibility_Factors(t *testing.T) {
	users := []models.User{
		member(models.GenderMale, "Austin", "INTJ", date(1994, 1, 1), "hiking", "chess"), // 30
		member(models.GenderMale, "Denver", "INFP", date(1990, 1, 1), "hiking", "yoga"),  // 34
		member(models.GenderMale, "Austin", "ENTJ", date(1992, 1, 1), "hiking"),          // 32
	}
	b := Compatibility(users, testNow)

	assert.Equal(t, 100.0, b.Persona)
	assert.Equal(t, 0.0, b.Location)
	// hiking shared by all out of {hiking, chess, yoga}
	assert.InDelta(t, 100.0/3, b.Hobbies, 1e-9)
	// two Analysts of three
	assert.InDelta(t, 200.0/3, b.MBTI, 1e-9)
	// spread 4 years
	assert.Equal(t, 80.0, b.Age)
	// single gender: fold = 3, (1 - 3/3) * 100
	assert.Equal(t, 0.0, b.Gender)

	want := 100*0.25 + 0*0.20 + (100.0/3)*0.20 + (200.0/3)*0.15 + 80*0.10 + 0*0.10
	assert.Equal(t, int(want+0.5), b.Score)
}

func TestCompatibility_NoHobbiesScoresZero(t *testing.T) {
	users := []models.User{
		member(models.GenderMale, "Austin", "", date(1990, 1, 1)),
		member(models.GenderFemale, "Austin", "", date(1990, 1, 1)),
	}
	b := Compatibility(users, testNow)
	assert.Equal(t, 0.0, b.Hobbies)
	assert.Equal(t, 0.0, b.MBTI)
}

func TestCompatibility_AgeSpreadFloorsAtZero(t *testing.T) {
	users := []models.User{
		member(models.GenderMale, "A", "", date(2000, 1, 1)),
		member(models.GenderMale, "A", "", date(1960, 1, 1)),
	}
	assert.Equal(t, 0.0, Compatibility(users, testNow).Age)
}

// The gender term is order dependent with three or more genders. These
// cases pin the current behaviour until product clarifies the formula.
func TestCompatibility_GenderFoldPinned(t *testing.T) {
	d := date(1990, 1, 1)
	tests := []struct {
		name    string
		genders []string
		want    float64
	}{
		{"balanced pair", []string{"Male", "Female"}, 100},
		{"two to one", []string{"Male", "Male", "Female"}, (1 - 1.0/3) * 100},
		{"three genders male first", []string{"Male", "Male", "Female", "Other"}, 100},
		{"three genders other first", []string{"Other", "Male", "Male", "Female"}, (1 - 2.0/4) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var users []models.User
			for _, g := range tt.genders {
				users = append(users, member(g, "A", "", d))
			}
			assert.InDelta(t, tt.want, Compatibility(users, testNow).Gender, 1e-9)
		})
	}
}

func TestCompatibility_BoundsAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	genders := []string{models.GenderMale, models.GenderFemale, models.GenderOther, models.GenderPreferNotToSay}
	locations := []string{"Austin", "Denver", "Austin"}
	mbtis := []string{"", "INTJ", "ENFP", "ISTJ", "ESTP", "XXXX"}
	hobbies := []string{"chess", "hiking", "yoga", "cooking", "running"}

	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(7)
		users := make([]models.User, n)
		for j := range users {
			var hs []string
			for _, h := range hobbies {
				if rng.Intn(2) == 0 {
					hs = append(hs, h)
				}
			}
			users[j] = member(
				genders[rng.Intn(len(genders))],
				locations[rng.Intn(len(locations))],
				mbtis[rng.Intn(len(mbtis))],
				date(1950+rng.Intn(55), time.Month(1+rng.Intn(12)), 1+rng.Intn(28)),
				hs...,
			)
		}
		first := TribeCompatibility(users, testNow)
		require.GreaterOrEqual(t, first, 0)
		require.LessOrEqual(t, first, 100)
		require.Equal(t, first, TribeCompatibility(users, testNow))
	}
}

func TestMBTIGroup(t *testing.T) {
	assert.Equal(t, MBTIAnalysts, MBTIGroup("intj"))
	assert.Equal(t, MBTIDiplomats, MBTIGroup("ENFP"))
	assert.Equal(t, MBTISentinels, MBTIGroup(" ISFJ "))
	assert.Equal(t, MBTIExplorers, MBTIGroup("ESTP"))
	assert.Equal(t, "", MBTIGroup("ABCD"))
	assert.False(t, IsMBTI(""))
}
