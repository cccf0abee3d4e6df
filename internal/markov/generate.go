package markov

import (
	"errors"
	"slices"
)

// Line positions within a Sequence.
const (
	LineLead = 0
	LineSeed = 1
	LineTail = 2
)

// Sequence is the result of one Generate call.
//
// Unseeded, the three lines are independent walks from BEGIN to END and
// LineTail is the canonical output. Seeded, LineLead is a walk that leads
// into the seed, LineSeed is the seed itself and LineTail continues after it.
type Sequence struct {
	Lines     [3][]string
	Truncated bool
}

// Generate runs the chain. A nil or empty seed produces three independent
// lines; otherwise the seed is placed verbatim in the middle line and the
// chain is walked backward from its first token and forward from its last.
// A seed token the model has never seen leaves that side empty.
// maxTokens <= 0 uses DefaultMaxLineTokens.
func (m *Model) Generate(rng Rand, seed []string, maxTokens int) Sequence {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxLineTokens
	}

	var seq Sequence
	record := func(line int, tokens []string, err error) {
		seq.Lines[line] = tokens
		if errors.Is(err, ErrStepLimit) {
			seq.Truncated = true
		}
	}

	if len(seed) == 0 {
		for i := range seq.Lines {
			tokens, err := m.walk(rng, m.forward, begin, end, maxTokens)
			record(i, tokens, err)
		}
		return seq
	}

	seq.Lines[LineSeed] = slices.Clone(seed)

	seq.Lines[LineLead] = []string{}
	if first, ok := m.ids[seed[0]]; ok {
		tokens, err := m.walk(rng, m.backward, first, begin, maxTokens)
		slices.Reverse(tokens)
		record(LineLead, tokens, err)
	}

	seq.Lines[LineTail] = []string{}
	if last, ok := m.ids[seed[len(seed)-1]]; ok {
		tokens, err := m.walk(rng, m.forward, last, end, maxTokens)
		record(LineTail, tokens, err)
	}

	return seq
}
