package ops

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/pipeline"
)

// Input limits
const (
	MaxAuthorIDLen  = 64
	MaxMessageChars = 40000
	MaxHaikuChars   = 4000
)

// Generator runs the generation pipeline. *pipeline.Pipeline implements it.
type Generator interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// ValidateAuthorID trims and checks an author ID.
// Rules:
// - Must not be empty
// - Must not contain whitespace
// - At most MaxAuthorIDLen bytes
func ValidateAuthorID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("user_id is required")
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return "", errors.NewInvalidRequest("user_id must not contain whitespace")
	}
	if len(id) > MaxAuthorIDLen {
		return "", errors.NewInvalidRequest("user_id is too long")
	}
	return id, nil
}

// cleanOptionalString trims s and maps blank values to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
