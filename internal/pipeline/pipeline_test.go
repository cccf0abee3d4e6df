package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mimic/internal/cache"
	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/markov"
	"github.com/hpungsan/mimic/internal/message"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

type memSource map[message.Scope][]string

func (s memSource) FetchMessages(_ context.Context, scope message.Scope) ([]message.Message, error) {
	var out []message.Message
	for _, t := range s[scope] {
		out = append(out, message.Message{AuthorID: scope.String(), Text: t})
	}
	return out, nil
}

// Every token is unique, so a zero draw walks the message verbatim.
const classic = "an old silent pond a frog jumps into the lake splash silence again"

func newPipeline(src memSource, opts Options) *Pipeline {
	return New(cache.New(src, nil), opts, nil)
}

func TestRun_RawText(t *testing.T) {
	p := newPipeline(memSource{"U1": {"one two three"}}, Options{Rand: fixedRand(0)})

	resp, err := p.Run(context.Background(), Request{Scope: "U1"})
	require.NoError(t, err)
	require.Equal(t, "one two three", resp.Text)
	require.False(t, resp.Haiku)
	require.Nil(t, resp.Lines)
	require.Equal(t, "none", resp.Seed)
}

func TestRun_Haiku(t *testing.T) {
	p := newPipeline(memSource{"U1": {classic}}, Options{Rand: fixedRand(0), YearMin: 1700, YearMax: 1710})

	resp, err := p.Run(context.Background(), Request{Scope: "U1", Author: "Basho"})
	require.NoError(t, err)
	require.True(t, resp.Haiku)
	require.Equal(t, []string{"an old silent pond", "a frog jumps into the lake", "splash silence again"}, resp.Lines)
	require.True(t, strings.HasSuffix(resp.Text, "> - Basho, 1700"), "text = %q", resp.Text)
}

func TestRun_HaikuAuthorDefaultsToScope(t *testing.T) {
	p := newPipeline(memSource{"U1": {classic}}, Options{Rand: fixedRand(3), YearMin: 1800, YearMax: 1800})

	resp, err := p.Run(context.Background(), Request{Scope: "U1"})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(resp.Text, "> - U1, 1800"), "text = %q", resp.Text)
}

func TestRun_SeedVariants(t *testing.T) {
	p := newPipeline(memSource{"U1": {"one two three four"}}, Options{Rand: fixedRand(0)})
	ctx := context.Background()

	resp, err := p.Run(ctx, Request{Scope: "U1", Seed: markov.NewSeed(" two ", "")})
	require.NoError(t, err)
	require.Equal(t, "two three four", resp.Text)
	require.Equal(t, "before", resp.Seed)

	resp, err = p.Run(ctx, Request{Scope: "U1", Seed: markov.NewSeed("", "three")})
	require.NoError(t, err)
	require.Equal(t, "one two three", resp.Text)
	require.Equal(t, "after", resp.Seed)

	resp, err = p.Run(ctx, Request{Scope: "U1", Seed: markov.NewSeed("two", "three")})
	require.NoError(t, err)
	require.Equal(t, "one two three four", resp.Text)
	require.Equal(t, "both", resp.Seed)
}

func TestRun_NoMessages(t *testing.T) {
	p := newPipeline(memSource{}, Options{})

	resp, err := p.Run(context.Background(), Request{Scope: "U404"})
	require.Nil(t, resp)
	require.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
}

func TestRun_Truncated(t *testing.T) {
	p := newPipeline(memSource{"U1": {"a a b"}}, Options{Rand: fixedRand(0), MaxLineTokens: 4})

	resp, err := p.Run(context.Background(), Request{Scope: "U1"})
	require.NoError(t, err)
	require.True(t, resp.Truncated)
	require.Equal(t, "a a a a", resp.Text)
}

func TestRun_ConcurrentDefaultRand(t *testing.T) {
	p := newPipeline(memSource{message.AllAuthors: {"the cat sat", "the dog ran", "a cat ran"}}, Options{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				resp, err := p.Run(context.Background(), Request{Scope: message.AllAuthors})
				if err != nil || resp.Text == "" {
					t.Errorf("Run() = %v, %v", resp, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNew_Defaults(t *testing.T) {
	p := New(cache.New(memSource{}, nil), Options{YearMin: 1900, YearMax: 1800}, nil)
	require.Equal(t, markov.DefaultMaxLineTokens, p.opts.MaxLineTokens)
	require.Equal(t, 1800, p.opts.YearMin)
	require.Equal(t, 1900, p.opts.YearMax)

	for range 100 {
		y := p.year()
		require.GreaterOrEqual(t, y, 1800)
		require.LessOrEqual(t, y, 1900)
	}
}
