package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/message"
)

// ErrDuplicate is returned when a message with the same author and ts exists.
var ErrDuplicate = errors.NewConflict("message already stored")

// AuthorCount is the number of stored messages for one author.
type AuthorCount struct {
	AuthorID string `json:"user_id"`
	Messages int    `json:"messages"`
}

// Insert stores a new message.
func Insert(ctx context.Context, db *sql.DB, m *message.Message) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, text, ts, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.AuthorID, m.Text, toNullString(m.TS), m.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return errors.NewInternal(err)
	}
	return nil
}

// InsertBatch stores msgs in one transaction, silently skipping messages
// that already exist (same author and ts). Returns how many were inserted.
func InsertBatch(ctx context.Context, db *sql.DB, msgs []message.Message) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO messages (id, user_id, text, ts, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range msgs {
		m := &msgs[i]
		res, err := stmt.ExecContext(ctx, m.ID, m.AuthorID, m.Text, toNullString(m.TS), m.CreatedAt)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return inserted, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListByScope returns the messages of scope in insertion order.
func ListByScope(ctx context.Context, db *sql.DB, scope message.Scope) ([]message.Message, error) {
	query := `SELECT id, user_id, text, ts, created_at FROM messages`
	var args []any
	if !scope.IsAll() {
		query += ` WHERE user_id = ?`
		args = append(args, scope.String())
	}
	query += ` ORDER BY rowid`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []message.Message
	for rows.Next() {
		var m message.Message
		var ts sql.NullString
		if err := rows.Scan(&m.ID, &m.AuthorID, &m.Text, &ts, &m.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		m.TS = fromNullString(ts)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountByAuthor returns per-author message counts, most prolific first.
func CountByAuthor(ctx context.Context, db *sql.DB) ([]AuthorCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, COUNT(*) AS n
		FROM messages
		GROUP BY user_id
		ORDER BY n DESC, user_id ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []AuthorCount{}
	for rows.Next() {
		var a AuthorCount
		if err := rows.Scan(&a.AuthorID, &a.Messages); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
