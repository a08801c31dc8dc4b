package registry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDecimals bounds the precision a codec may request.
const MaxDecimals = 6

// FormatNumber renders v with at most decimals fractional digits in the
// token's short numeric form: trailing zeros and a bare point are dropped,
// the leading zero before the point is omitted and negative zero is "0".
func FormatNumber(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', clampDecimals(decimals), 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}

	switch {
	case s == "-0" || s == "":
		return "0"
	case strings.HasPrefix(s, "0."):
		return s[1:]
	case strings.HasPrefix(s, "-0."):
		return "-" + s[2:]
	}

	return s
}

// ParseNumber parses the token's numeric grammar:
//
//	"-"? ( digits ( "." digits )? | "." digits )
//
// Exponents, signs other than a leading minus, infinities, NaN and
// underscores are rejected.
func ParseNumber(text string) (float64, error) {
	if !validNumber(text) {
		return 0, fmt.Errorf("invalid number %q", text)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", text, err)
	}

	return v, nil
}

func validNumber(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}

	intPart, frac, hasPoint := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	if !hasPoint {
		return intPart != ""
	}

	return frac != "" && allDigits(frac)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Quantize rounds v to decimals fractional digits exactly the way
// FormatNumber does, so a quantized value survives a format/parse cycle
// unchanged.
func Quantize(v float64, decimals int) float64 {
	q, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', clampDecimals(decimals), 64), 64)
	if err != nil {
		return v
	}
	if q == 0 {
		return 0
	}
	return q
}

// QuantizeIn quantizes v and keeps the result inside [lo, hi], stepping
// inward by one quantum when rounding would cross a bound.
func QuantizeIn(v float64, decimals int, lo, hi float64) float64 {
	q := Quantize(v, decimals)
	scale := math.Pow10(clampDecimals(decimals))

	if q < lo {
		q = Quantize(math.Ceil(lo*scale)/scale, decimals)
	}
	if q > hi {
		q = Quantize(math.Floor(hi*scale)/scale, decimals)
	}

	return q
}

// NumberWidth is the longest FormatNumber output for any value in [lo, hi].
func NumberWidth(lo, hi float64, decimals int) int {
	decimals = clampDecimals(decimals)
	maxAbs := math.Max(math.Abs(lo), math.Abs(hi))

	width := len(strconv.FormatFloat(math.Ceil(maxAbs), 'f', 0, 64))
	if lo < 0 {
		width++
	}
	if decimals > 0 {
		width += 1 + decimals
	}

	return width
}

func clampDecimals(decimals int) int {
	if decimals < 0 {
		return 0
	}
	if decimals > MaxDecimals {
		return MaxDecimals
	}
	return decimals
}
