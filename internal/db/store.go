package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/mimic/internal/message"
)

// MessageStore adapts the database to the corpus source used by the model cache.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore wraps db.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// FetchMessages returns every message in scope, oldest first.
func (s *MessageStore) FetchMessages(ctx context.Context, scope message.Scope) ([]message.Message, error) {
	return ListByScope(ctx, s.db, scope)
}
