package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecayScore(t *testing.T) {
	tests := []struct {
		name     string
		votes    int64
		age      float64
		gravity  float64
		expected float64
	}{
		{"single vote is zero", 1, 0, DefaultGravity, 0},
		{"eleven votes fresh", 11, 0, DefaultGravity, 10 / math.Pow(2, 1.5)},
		{"no votes is negative", 0, 0, DefaultGravity, -1 / math.Pow(2, 1.5)},
		{"hot gravity", 5, 2, HotGravity, 4.0 / 16},
		{"negative age clamps", 11, -30, DefaultGravity, 10 / math.Pow(2, 1.5)},
		{"negative net votes", -3, 1, 1, -4.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecayScore(tt.votes, tt.age, tt.gravity), 1e-12)
		})
	}
	assert.InDelta(t, 3.5355, DecayScore(11, 0, 1.5), 1e-4)
}

func TestDecayScoreFallsWithAge(t *testing.T) {
	prev := math.Inf(1)
	for age := 0.0; age < 200; age += 12 {
		s := DecayScore(50, age, DefaultGravity)
		assert.Less(t, s, prev)
		prev = s
	}
}

func TestAgeHours(t *testing.T) {
	created := time.Unix(1000, 0)
	assert.Equal(t, 1.5, AgeHours(created, created.Add(90*time.Minute)))
	assert.Equal(t, -1.0, AgeHours(created, created.Add(-time.Hour)))
}
