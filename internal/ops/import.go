package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/mimic/internal/db"
	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/message"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required: root of an unzipped Slack export
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Files      int           `json:"files"`
	Imported   int           `json:"imported"`
	Skipped    int           `json:"skipped"`
	Duplicates int           `json:"duplicates"`
	Errors     []ImportError `json:"errors"`
}

// ImportError represents a file that could not be read or parsed.
type ImportError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// exportEntry is the subset of a Slack export message object that is imported.
type exportEntry struct {
	Type string `json:"type"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

// Import reads every *.json file under input.Path (channel directories of
// day files, as Slack exports them) and stores each entry with type
// "message", a user and non-empty text. All messages are inserted in one
// transaction; entries already stored (same user and ts) are counted as
// duplicates. Files that fail to parse are reported and skipped.
func Import(ctx context.Context, database *sql.DB, input ImportInput) (*ImportOutput, error) {
	root, err := ValidateImportDir(input.Path)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{Errors: []ImportError{}}
	var msgs []message.Message
	now := time.Now().Unix()

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			out.Errors = append(out.Errors, ImportError{
				File:    relPath(root, path),
				Code:    "READ_ERROR",
				Message: err.Error(),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ".json" {
			return nil
		}

		out.Files++
		entries, ierr := parseExportFile(path)
		if ierr != nil {
			ierr.File = relPath(root, path)
			out.Errors = append(out.Errors, *ierr)
			return nil
		}

		for _, e := range entries {
			if e.Type != "message" || e.User == "" || e.Text == "" {
				out.Skipped++
				continue
			}
			id, err := generateULID()
			if err != nil {
				return err
			}
			msgs = append(msgs, message.Message{
				ID:        id,
				AuthorID:  e.User,
				Text:      e.Text,
				TS:        cleanOptionalString(&e.TS),
				CreatedAt: tsSeconds(e.TS, now),
			})
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.NewInternal(fmt.Errorf("walk export: %w", walkErr))
	}

	if len(msgs) > 0 {
		inserted, err := db.InsertBatch(ctx, database, msgs)
		if err != nil {
			return nil, err
		}
		out.Imported = inserted
		out.Duplicates = len(msgs) - inserted
	}

	return out, nil
}

// parseExportFile decodes one day file: a JSON array of message objects.
func parseExportFile(path string) ([]exportEntry, *ImportError) {
	file, err := openFileNoFollowRead(path)
	if err != nil {
		return nil, &ImportError{Code: "READ_ERROR", Message: err.Error()}
	}
	defer file.Close()

	var entries []exportEntry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return nil, &ImportError{
			Code:    "PARSE_ERROR",
			Message: fmt.Sprintf("expected a JSON array of messages: %v", err),
		}
	}
	return entries, nil
}

// tsSeconds returns the whole seconds of a Slack ts ("1700000000.000100"),
// or fallback when ts does not parse.
func tsSeconds(ts string, fallback int64) int64 {
	secs, _, _ := strings.Cut(ts, ".")
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
