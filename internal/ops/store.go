package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/mimic/internal/db"
	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/message"
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	AuthorID string  // required
	Text     string  // required
	TS       *string // optional platform ordering token
}

// StoreOutput contains the result of the Store operation.
type StoreOutput struct {
	ID       string `json:"id"`
	AuthorID string `json:"user_id"`
}

// Store appends a message to the corpus. Storing a message whose author and
// ts are already present returns a CONFLICT error.
func Store(ctx context.Context, database *sql.DB, input StoreInput) (*StoreOutput, error) {
	authorID, err := ValidateAuthorID(input.AuthorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("message is required")
	}
	if len(input.Text) > MaxMessageChars {
		return nil, errors.NewInvalidRequest("message is too long")
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	m := &message.Message{
		ID:        id,
		AuthorID:  authorID,
		Text:      input.Text,
		TS:        cleanOptionalString(input.TS),
		CreatedAt: time.Now().Unix(),
	}
	if err := db.Insert(ctx, database, m); err != nil {
		return nil, err
	}

	return &StoreOutput{ID: id, AuthorID: authorID}, nil
}

// MessageStorer binds Store to a database.
type MessageStorer struct {
	DB *sql.DB
}

// Store appends a message to the bound database.
func (s MessageStorer) Store(ctx context.Context, input StoreInput) (*StoreOutput, error) {
	return Store(ctx, s.DB, input)
}
