package utils

import (
	"math"
	"unicode/utf8"
)

// Truncate returns s cut to at most maxLen bytes, on a rune boundary, with
// "..." appended when something was cut. maxLen <= 0 disables truncation.
// Used to keep logged query text short.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// NormalizeL2 scales x in place to unit L2 norm. A zero vector is left as is.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= inv
	}
}

// Round4 rounds v to 4 decimal places, the precision exposed by /analyze.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
