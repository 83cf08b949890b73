package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc 123", "ABC123"},
		{"497-RKP", "497RKP"},
		{" pg.mn.112 ", "PGMN112"},
		{"TN37CS", "TN37CS"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePlate(tt.in), tt.in)
	}
}

func TestIsLikelyPlate(t *testing.T) {
	valid := []string{"PGMN112", "TN37CS", "CAR11", "497-RKP", "339-XIB", "abc 123"}
	for _, plate := range valid {
		assert.True(t, IsLikelyPlate(plate), plate)
	}

	invalid := []string{
		"",
		"AB",            // too short
		"CARWALECOM",    // no digits
		"1234567",       // no letters
		"ABCD1234EFGH5", // too long once cleaned
	}
	for _, plate := range invalid {
		assert.False(t, IsLikelyPlate(plate), plate)
	}
}

func TestMatchesKnownPattern(t *testing.T) {
	assert.True(t, MatchesKnownPattern("ABC123"))
	assert.True(t, MatchesKnownPattern("A123B"))
	assert.True(t, MatchesKnownPattern("12ABC34"))
	assert.False(t, MatchesKnownPattern("CAR11CAR11"))
}
