package report

import (
	"math"
	"strconv"
	"strings"
)

// precision is the number of decimals kept in report values so identical
// analyses encode to identical bytes.
const precision = 6

// RoundFloat rounds f to six decimal places.
func RoundFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	multiplier := math.Pow(10, precision)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat formats f rounded to six decimals without trailing zeros.
func FormatFloat(f float64) string {
	str := strconv.FormatFloat(RoundFloat(f), 'f', precision, 64)
	str = strings.TrimRight(str, "0")
	return strings.TrimRight(str, ".")
}
