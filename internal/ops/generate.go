package ops

import (
	"context"

	"github.com/hpungsan/mimic/internal/markov"
	"github.com/hpungsan/mimic/internal/message"
	"github.com/hpungsan/mimic/internal/pipeline"
)

// GenerateInput contains parameters for the Generate operation.
type GenerateInput struct {
	AuthorID string // required unless All
	All      bool   // imitate every author at once
	Before   string // optional seed text preceding the target
	After    string // optional seed text following the target
	Author   string // optional haiku attribution name
}

// GenerateOutput contains the result of the Generate operation.
type GenerateOutput struct {
	Scope string `json:"scope"`
	pipeline.Response
}

// Generate produces text imitating an author. A scope with no stored
// messages returns NOT_FOUND.
func Generate(ctx context.Context, gen Generator, input GenerateInput) (*GenerateOutput, error) {
	scope := message.AllAuthors
	if !input.All {
		id, err := ValidateAuthorID(input.AuthorID)
		if err != nil {
			return nil, err
		}
		scope = message.ScopeFor(id)
	}

	resp, err := gen.Run(ctx, pipeline.Request{
		Scope:  scope,
		Seed:   markov.NewSeed(input.Before, input.After),
		Author: input.Author,
	})
	if err != nil {
		return nil, err
	}

	return &GenerateOutput{Scope: scope.String(), Response: *resp}, nil
}
