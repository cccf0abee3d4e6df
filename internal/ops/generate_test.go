package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/markov"
	"github.com/hpungsan/mimic/internal/message"
	"github.com/hpungsan/mimic/internal/pipeline"
)

// recordingGenerator captures the request and returns a canned response.
type recordingGenerator struct {
	got  pipeline.Request
	resp *pipeline.Response
	err  error
}

func (g *recordingGenerator) Run(_ context.Context, req pipeline.Request) (*pipeline.Response, error) {
	g.got = req
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

func TestGenerate_AuthorScope(t *testing.T) {
	gen := &recordingGenerator{resp: &pipeline.Response{Text: "hi", Seed: "none"}}

	out, err := Generate(context.Background(), gen, GenerateInput{AuthorID: " U1 "})
	require.NoError(t, err)
	require.Equal(t, "U1", out.Scope)
	require.Equal(t, "hi", out.Text)
	require.Equal(t, message.Scope("U1"), gen.got.Scope)
	require.Equal(t, markov.NoSeed, gen.got.Seed.Kind)
}

func TestGenerate_AllIgnoresAuthorID(t *testing.T) {
	gen := &recordingGenerator{resp: &pipeline.Response{}}

	out, err := Generate(context.Background(), gen, GenerateInput{All: true})
	require.NoError(t, err)
	require.Equal(t, "*", out.Scope)
	require.True(t, gen.got.Scope.IsAll())
}

func TestGenerate_SeedFromContext(t *testing.T) {
	gen := &recordingGenerator{resp: &pipeline.Response{}}

	_, err := Generate(context.Background(), gen, GenerateInput{AuthorID: "U1", Before: " the quick "})
	require.NoError(t, err)
	require.Equal(t, markov.SeedBefore, gen.got.Seed.Kind)
	require.Equal(t, []string{"the", "quick"}, gen.got.Seed.Tokens)

	_, err = Generate(context.Background(), gen, GenerateInput{AuthorID: "U1", After: "fox"})
	require.NoError(t, err)
	require.Equal(t, markov.SeedAfter, gen.got.Seed.Kind)
}

func TestGenerate_MissingAuthor(t *testing.T) {
	gen := &recordingGenerator{resp: &pipeline.Response{}}

	_, err := Generate(context.Background(), gen, GenerateInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestGenerate_PropagatesNotFound(t *testing.T) {
	gen := &recordingGenerator{err: errors.NewNoMessages("U9")}

	_, err := Generate(context.Background(), gen, GenerateInput{AuthorID: "U9"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
