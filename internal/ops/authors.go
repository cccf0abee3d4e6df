package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/mimic/internal/db"
)

// AuthorsOutput contains the result of the Authors operation.
type AuthorsOutput struct {
	Authors []db.AuthorCount `json:"authors"`
	Total   int              `json:"total"`
}

// Authors lists every author with stored messages, most prolific first.
func Authors(ctx context.Context, database *sql.DB) (*AuthorsOutput, error) {
	counts, err := db.CountByAuthor(ctx, database)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range counts {
		total += c.Messages
	}
	return &AuthorsOutput{Authors: counts, Total: total}, nil
}
