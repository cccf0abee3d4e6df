package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/mimic/internal/errors"
)

// ValidateImportDir validates the root of a Slack export and returns it as an
// absolute, cleaned path. It checks:
// 1. Path traversal (.. sequences)
// 2. Existence
// 3. The root is a real directory, not a symlink
//
// Files inside the tree are opened with O_NOFOLLOW, so symlinked day files
// are rejected at read time.
func ValidateImportDir(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidRequest("path is required")
	}

	// Reject paths containing ".." (traversal attempt)
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	info, err := os.Lstat(absPath)
	if os.IsNotExist(err) {
		return "", errors.NewNotFound(path)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("path must not be a symlink")
	}
	if !info.IsDir() {
		return "", errors.NewInvalidRequest("path must be a directory (an unzipped Slack export)")
	}

	return absPath, nil
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	// Check each path component
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
