// Package markov implements the order-1 word chain used to imitate an author.
//
// A Model is a weighted multigraph over tokens. Every message contributes
// BEGIN -> t1 -> ... -> tn -> END, and each observed pair is counted in both
// a forward and a backward table so a walk can run toward END from a seed's
// last token or toward BEGIN from its first token.
package markov

import (
	"errors"
)

// DefaultMaxLineTokens caps a single random walk.
const DefaultMaxLineTokens = 64

// Sentinel state IDs.
const (
	begin = 0
	end   = 1
)

var (
	// ErrEmptyCorpus is returned by Build when no message has any tokens.
	ErrEmptyCorpus = errors.New("markov: empty corpus")

	// ErrStepLimit reports that a walk hit its token ceiling before reaching
	// a sentinel. Generate recovers from it by truncating the line.
	ErrStepLimit = errors.New("markov: step limit exceeded")
)

// Rand is the random source used for transition choice.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type transition struct {
	to     int
	weight int
}

// edges holds a state's outgoing transitions in first-observed order.
type edges struct {
	list  []transition
	total int
}

// pick draws a transition with probability proportional to its weight.
func (e *edges) pick(rng Rand) int {
	r := rng.IntN(e.total)
	for _, t := range e.list {
		if r < t.weight {
			return t.to
		}
		r -= t.weight
	}
	// Unreachable while total equals the sum of weights.
	return e.list[len(e.list)-1].to
}

// Model is an immutable order-1 Markov chain over tokens.
type Model struct {
	tokens   []string
	ids      map[string]int
	forward  []edges
	backward []edges
	messages int
}

// Build constructs a model from tokenized messages. Messages with no tokens
// are skipped; if nothing remains, ErrEmptyCorpus is returned.
func Build(corpus [][]string) (*Model, error) {
	m := &Model{
		tokens:   []string{"", ""},
		ids:      make(map[string]int),
		forward:  make([]edges, 2),
		backward: make([]edges, 2),
	}

	fwdIndex := make(map[[2]int]int)
	bwdIndex := make(map[[2]int]int)
	link := func(from, to int) {
		addEdge(m.forward, fwdIndex, from, to)
		addEdge(m.backward, bwdIndex, to, from)
	}

	for _, tokens := range corpus {
		if len(tokens) == 0 {
			continue
		}
		m.messages++
		prev := begin
		for _, tok := range tokens {
			id := m.intern(tok)
			link(prev, id)
			prev = id
		}
		link(prev, end)
	}

	if m.messages == 0 {
		return nil, ErrEmptyCorpus
	}
	return m, nil
}

// intern returns the state ID for tok, allocating one on first sight.
func (m *Model) intern(tok string) int {
	if id, ok := m.ids[tok]; ok {
		return id
	}
	id := len(m.tokens)
	m.tokens = append(m.tokens, tok)
	m.ids[tok] = id
	m.forward = append(m.forward, edges{})
	m.backward = append(m.backward, edges{})
	return id
}

func addEdge(table []edges, index map[[2]int]int, from, to int) {
	key := [2]int{from, to}
	e := &table[from]
	if i, ok := index[key]; ok {
		e.list[i].weight++
	} else {
		index[key] = len(e.list)
		e.list = append(e.list, transition{to: to, weight: 1})
	}
	e.total++
}

// Messages returns the number of non-empty messages the model was built from.
func (m *Model) Messages() int {
	return m.messages
}

// States returns the number of distinct tokens, excluding sentinels.
func (m *Model) States() int {
	return len(m.tokens) - 2
}

// Has reports whether tok was observed in the corpus.
func (m *Model) Has(tok string) bool {
	_, ok := m.ids[tok]
	return ok
}

// walk follows table from state start until stop is drawn, returning the
// visited tokens. At most maxTokens tokens are returned; exceeding the
// ceiling yields ErrStepLimit along with the truncated line.
func (m *Model) walk(rng Rand, table []edges, start, stop, maxTokens int) ([]string, error) {
	out := []string{}
	cur := start
	for {
		e := &table[cur]
		if e.total == 0 {
			return out, nil
		}
		next := e.pick(rng)
		if next == stop {
			return out, nil
		}
		if len(out) >= maxTokens {
			return out, ErrStepLimit
		}
		out = append(out, m.tokens[next])
		cur = next
	}
}
