package markov

import (
	"slices"

	"github.com/hpungsan/mimic/internal/text"
)

// SeedKind says where the requester's own words sat relative to the target.
type SeedKind int

const (
	NoSeed     SeedKind = iota
	SeedBefore          // words between the bot mention and the target
	SeedAfter           // words following the target
	SeedBoth            // words on both sides; treated as no seed
)

// String returns a short name for logs and JSON.
func (k SeedKind) String() string {
	switch k {
	case SeedBefore:
		return "before"
	case SeedAfter:
		return "after"
	case SeedBoth:
		return "both"
	default:
		return "none"
	}
}

// Seed is the tagged seed variant consumed by Compose.
type Seed struct {
	Kind   SeedKind
	Tokens []string
}

// NewSeed classifies the context around a target mention.
// Fragments that are empty after trimming count as absent.
func NewSeed(before, after string) Seed {
	b := text.Tokenize(before)
	a := text.Tokenize(after)
	switch {
	case len(b) > 0 && len(a) > 0:
		return Seed{Kind: SeedBoth}
	case len(b) > 0:
		return Seed{Kind: SeedBefore, Tokens: b}
	case len(a) > 0:
		return Seed{Kind: SeedAfter, Tokens: a}
	default:
		return Seed{Kind: NoSeed}
	}
}

// generationTokens returns the tokens to force into the walk, if any.
func (s Seed) generationTokens() []string {
	if s.Kind == SeedBefore || s.Kind == SeedAfter {
		return s.Tokens
	}
	return nil
}

// Recombine picks the lines of seq that form the reply:
// before -> seed + tail, after -> lead + seed, otherwise the tail line alone.
func (s Seed) Recombine(seq Sequence) []string {
	var out []string
	switch s.Kind {
	case SeedBefore:
		out = slices.Concat(seq.Lines[LineSeed], seq.Lines[LineTail])
	case SeedAfter:
		out = slices.Concat(seq.Lines[LineLead], seq.Lines[LineSeed])
	default:
		out = slices.Clone(seq.Lines[LineTail])
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// Compose generates with the seed variant and returns the recombined tokens
// along with the full sequence.
func (m *Model) Compose(rng Rand, seed Seed, maxTokens int) ([]string, Sequence) {
	seq := m.Generate(rng, seed.generationTokens(), maxTokens)
	return seed.Recombine(seq), seq
}
