package ops

import (
	"strings"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/haiku"
)

// HaikuInput contains parameters for the Haiku operation.
type HaikuInput struct {
	Text   string // required
	Author string // optional; formats the haiku when set
	Year   int    // optional; used with Author
}

// HaikuOutput contains the result of the Haiku operation.
type HaikuOutput struct {
	IsHaiku   bool     `json:"is_haiku"`
	Lines     []string `json:"lines,omitempty"`
	Syllables []int    `json:"syllables"`
	Formatted string   `json:"formatted,omitempty"`
}

// Haiku checks whether text scans as 5-7-5.
func Haiku(input HaikuInput) (*HaikuOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	if len(input.Text) > MaxHaikuChars {
		return nil, errors.NewInvalidRequest("text is too long")
	}

	result := haiku.Detect(input.Text)
	out := &HaikuOutput{
		IsHaiku:   result.IsHaiku,
		Syllables: haiku.CountTokens(input.Text),
	}
	if result.IsHaiku {
		out.Lines = result.Lines[:]
		if author := strings.TrimSpace(input.Author); author != "" {
			year := input.Year
			if year == 0 {
				year = haiku.RandomYear(nil, haiku.DefaultYearMin, haiku.DefaultYearMax)
			}
			out.Formatted = haiku.Format(result, author, year)
		}
	}
	return out, nil
}
