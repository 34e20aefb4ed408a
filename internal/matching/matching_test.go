package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	minAge = 18
	maxAge = 100
)

func TestAgeWindow(t *testing.T) {
	tests := []struct {
		name     string
		age      int
		wantLo   int
		wantHi   int
	}{
		{"thirty", 30, 22, 46},
		{"forty five", 45, 29, 76},
		{"old end clamps to max", 60, 37, 100},
		{"young end clamps to min", 20, 18, 26},
		{"inverted window falls back", 19, 18, 24},
		{"minimum age", 18, 18, 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := AgeWindow(tt.age, minAge, maxAge)
			assert.Equal(t, tt.wantLo, lo)
			assert.Equal(t, tt.wantHi, hi)
		})
	}
}

func TestAgeWindowIsAsymmetric(t *testing.T) {
	// 45's window is [29,76]; 19 is outside it even though 45 would be
	// outside 19's window too. The finder must check both directions.
	assert.False(t, InWindow(45, 19, minAge, maxAge))
	assert.False(t, InWindow(19, 45, minAge, maxAge))

	// 30 and 40: 40 is inside 30's [22,46], and 30 is inside 40's [27,66].
	assert.True(t, Reciprocal(30, 40, minAge, maxAge))

	// 31 and 22: 22 is inside 31's [22,48], but 31 is outside 22's
	// [18,30]. One direction passing is not enough.
	assert.True(t, InWindow(31, 22, minAge, maxAge))
	assert.False(t, InWindow(22, 31, minAge, maxAge))
	assert.False(t, Reciprocal(31, 22, minAge, maxAge))

	// 25 and 42: 42 is outside 25's [19,36], so no pairing.
	assert.False(t, Reciprocal(25, 42, minAge, maxAge))
}

func TestReciprocalHoldsForAllMatchedPairs(t *testing.T) {
	for a := minAge; a <= 80; a++ {
		for b := minAge; b <= 80; b++ {
			if Reciprocal(a, b, minAge, maxAge) {
				loA, hiA := AgeWindow(a, minAge, maxAge)
				loB, hiB := AgeWindow(b, minAge, maxAge)
				assert.GreaterOrEqual(t, b, loA)
				assert.LessOrEqual(t, b, hiA)
				assert.GreaterOrEqual(t, a, loB)
				assert.LessOrEqual(t, a, hiB)
			}
		}
	}
}

func TestDistance(t *testing.T) {
	// Two points in central Addis Ababa, roughly 5 km apart.
	d := Distance(9.03, 38.74, 9.05, 38.70)
	assert.Greater(t, d, 4.0)
	assert.Less(t, d, 6.0)

	// Same point.
	assert.InDelta(t, 0, Distance(9.03, 38.74, 9.03, 38.74), 1e-9)

	// Addis Ababa to Adama, roughly 75 km.
	d = Distance(9.03, 38.74, 8.54, 39.27)
	assert.Greater(t, d, 60.0)
	assert.Less(t, d, 90.0)
}
