// Package haiku detects generated text that scans as 5-7-5 and formats it.
package haiku

import (
	"github.com/hpungsan/mimic/internal/text"
)

// Pattern is the syllable budget of each haiku line.
var Pattern = [3]int{5, 7, 5}

// Result is the outcome of Detect.
type Result struct {
	IsHaiku bool      `json:"is_haiku"`
	Lines   [3]string `json:"lines"`
	Text    string    `json:"text"`
}

// Detect greedily splits text into three lines of 5, 7 and 5 syllables.
//
// Tokens are appended to the current line while they fit its budget. A token
// that does not fit starts the next line only when the current line is
// exactly full; otherwise detection aborts. Every token must be placed:
// tokens left over after a complete third line fail the match.
func Detect(s string) Result {
	res := Result{Text: s}

	tokens := text.Tokenize(s)
	if len(tokens) < 3 {
		return res
	}

	var lines [3][]string
	line := 0
	count := 0
	for _, tok := range tokens {
		n := CountSyllables(tok)
		switch {
		case count+n <= Pattern[line]:
			lines[line] = append(lines[line], tok)
			count += n
		case count == Pattern[line]:
			line++
			if line > 2 {
				// Trailing tokens after a full 5-7-5.
				return res
			}
			lines[line] = []string{tok}
			count = n
		default:
			return res
		}
	}

	// Recompute from the placed tokens; the running count only tracks the
	// last line reached.
	for i, l := range lines {
		if syllables(l) != Pattern[i] {
			return res
		}
	}

	res.IsHaiku = true
	for i, l := range lines {
		res.Lines[i] = text.Join(l)
	}
	return res
}

func syllables(tokens []string) int {
	total := 0
	for _, tok := range tokens {
		total += CountSyllables(tok)
	}
	return total
}
