package domain

import (
	"regexp"
	"strings"
)

var (
	hasLetter = regexp.MustCompile(`[A-Z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)

	// Common plate layouts. A cleaned text matching any of these is
	// almost certainly a plate; the letter+digit heuristic below covers
	// the rest.
	platePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z]{2,3}[0-9]{2,4}$`),
		regexp.MustCompile(`^[A-Z]{1,2}[0-9]{3,4}[A-Z]{1,2}$`),
		regexp.MustCompile(`^[0-9]{2,3}[A-Z]{2,3}[0-9]{2,3}$`),
	}
)

// NormalizePlate uppercases and strips spaces, dashes and dots, the
// separators OCR output and manual entry disagree on.
func NormalizePlate(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(cleaned)
}

// IsLikelyPlate filters OCR noise: a candidate must normalize to 3-12
// characters and contain at least one letter and one digit.
func IsLikelyPlate(raw string) bool {
	if raw == "" || len(raw) < 3 || len(raw) > 15 {
		return false
	}
	cleaned := NormalizePlate(raw)
	if len(cleaned) < 3 || len(cleaned) > 12 {
		return false
	}
	return hasLetter.MatchString(cleaned) && hasDigit.MatchString(cleaned)
}

// MatchesKnownPattern reports whether the candidate fits one of the
// recognized plate layouts exactly.
func MatchesKnownPattern(raw string) bool {
	cleaned := NormalizePlate(raw)
	for _, pattern := range platePatterns {
		if pattern.MatchString(cleaned) {
			return true
		}
	}
	return false
}
