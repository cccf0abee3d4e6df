package haiku

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Default attribution year range, inclusive.
const (
	DefaultYearMin = 1644
	DefaultYearMax = 1900
)

// Rand is the random source RandomYear draws from.
type Rand interface {
	IntN(n int) int
}

// RandomYear draws an attribution year uniformly from [lo, hi]. A nil rng
// uses the global source.
func RandomYear(rng Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	if rng == nil {
		return lo + rand.IntN(hi-lo+1)
	}
	return lo + rng.IntN(hi-lo+1)
}

// Format renders a detected haiku with an attribution line. It returns the
// raw text unchanged when r is not a haiku.
func Format(r Result, author string, year int) string {
	if !r.IsHaiku {
		return r.Text
	}
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString("> _")
		b.WriteString(l)
		b.WriteString("_\n")
	}
	fmt.Fprintf(&b, "> - %s, %d", author, year)
	return b.String()
}
