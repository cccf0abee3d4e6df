package message

import "strings"

// AllAuthors is the scope sentinel selecting every stored message.
const AllAuthors Scope = "*"

// Message is one stored chat message attributed to an author.
// Messages are append-only; nothing in the generation path mutates them.
type Message struct {
	// ID is a ULID assigned at insert time
	ID string

	// AuthorID is the chat-platform user ID of the author
	AuthorID string

	// Text is the raw message text as received
	Text string

	// TS is the platform's ordering token (e.g. a Slack "ts"), if known
	TS *string

	// CreatedAt is the Unix timestamp when the message was stored
	CreatedAt int64
}

// Scope selects the messages a model is built from: one author, or AllAuthors.
type Scope string

// ScopeFor returns the scope for an author ID, mapping "" and "*" to AllAuthors.
func ScopeFor(authorID string) Scope {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" || authorID == string(AllAuthors) {
		return AllAuthors
	}
	return Scope(authorID)
}

// IsAll reports whether the scope covers every author.
func (s Scope) IsAll() bool {
	return s == AllAuthors
}

// String returns the scope key.
func (s Scope) String() string {
	return string(s)
}
