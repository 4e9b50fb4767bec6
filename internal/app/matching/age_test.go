package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		now  time.Time
		want int
	}{
		{"birthday today", date(1995, 1, 1), date(2024, 1, 1), 29},
		{"day before birthday", date(1995, 1, 2), date(2024, 1, 1), 28},
		{"later month", date(1990, 12, 31), date(2024, 6, 1), 33},
		{"earlier month", date(1990, 3, 10), date(2024, 6, 1), 34},
		{"same month earlier day", date(1990, 6, 20), date(2024, 6, 19), 33},
		{"leap day dob", date(2000, 2, 29), date(2024, 2, 28), 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.dob, tt.now))
		})
	}
}
