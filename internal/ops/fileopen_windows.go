//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/mimic/internal/errors"
)

// openFileNoFollowRead opens a file for reading.
// On Windows, O_NOFOLLOW is not available; the directory walk already skips
// symlink entries.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
