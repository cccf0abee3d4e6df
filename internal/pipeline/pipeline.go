// Package pipeline turns a scope and seed into a reply: model lookup,
// generation, seed recombination, haiku detection and formatting.
package pipeline

import (
	"context"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/haiku"
	"github.com/hpungsan/mimic/internal/markov"
	"github.com/hpungsan/mimic/internal/message"
	"github.com/hpungsan/mimic/internal/text"
)

// Models supplies a model per scope. *cache.ModelCache implements it.
type Models interface {
	GetOrBuild(ctx context.Context, scope message.Scope) (*markov.Model, error)
}

// Options tunes generation and haiku attribution.
type Options struct {
	// MaxLineTokens caps each random walk (0 = markov.DefaultMaxLineTokens)
	MaxLineTokens int

	// YearMin and YearMax bound the attribution year, inclusive
	YearMin int
	YearMax int

	// Rand overrides the random source (tests)
	Rand markov.Rand
}

// Request is one generation request.
type Request struct {
	Scope message.Scope
	Seed  markov.Seed

	// Author is the attribution name for a haiku; defaults to the scope
	Author string
}

// Response is the reply text plus what produced it.
type Response struct {
	Text      string   `json:"text"`
	Haiku     bool     `json:"haiku"`
	Lines     []string `json:"lines,omitempty"`
	Seed      string   `json:"seed"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Pipeline is safe for concurrent use. It keeps no state between calls
// beyond the model source and the random source.
type Pipeline struct {
	models Models
	opts   Options
	rng    markov.Rand
	logger *zap.Logger
}

// New creates a pipeline over models.
func New(models Models, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxLineTokens <= 0 {
		opts.MaxLineTokens = markov.DefaultMaxLineTokens
	}
	if opts.YearMin == 0 && opts.YearMax == 0 {
		opts.YearMin, opts.YearMax = haiku.DefaultYearMin, haiku.DefaultYearMax
	}
	if opts.YearMax < opts.YearMin {
		opts.YearMin, opts.YearMax = opts.YearMax, opts.YearMin
	}

	rng := opts.Rand
	if rng == nil {
		rng = &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}

	return &Pipeline{
		models: models,
		opts:   opts,
		rng:    rng,
		logger: logger,
	}
}

// Run generates a reply for req. Errors from the model source (including
// NOT_FOUND for an empty scope) are returned unchanged.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	model, err := p.models.GetOrBuild(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	tokens, seq := model.Compose(p.rng, req.Seed, p.opts.MaxLineTokens)
	if seq.Truncated {
		p.logger.Debug("generation hit step limit",
			zap.String("scope", req.Scope.String()),
			zap.Int("max_line_tokens", p.opts.MaxLineTokens))
	}

	raw := text.Join(tokens)
	resp := &Response{
		Text:      raw,
		Seed:      req.Seed.Kind.String(),
		Truncated: seq.Truncated,
	}

	result := haiku.Detect(raw)
	if result.IsHaiku {
		author := req.Author
		if author == "" {
			author = req.Scope.String()
		}
		resp.Haiku = true
		resp.Lines = result.Lines[:]
		resp.Text = haiku.Format(result, author, p.year())
	}

	return resp, nil
}

// year draws the attribution year uniformly from [YearMin, YearMax].
func (p *Pipeline) year() int {
	return haiku.RandomYear(p.rng, p.opts.YearMin, p.opts.YearMax)
}

// lockedRand serializes access to a *rand.Rand.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
