// Package secret loads credentials from a directory holding one file per
// secret id. There is no degraded mode without credentials, so a missing
// secret is fatal at startup.
package secret

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound indicates the requested secret file does not exist.
var ErrNotFound = errors.New("secret not found")

// Dir is a filesystem-backed secret source.
type Dir struct {
	path string
}

// NewDir creates a source rooted at path.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Load returns the secret with the given id, with surrounding whitespace
// trimmed.
func (d *Dir) Load(id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.path, id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(ErrNotFound, id)
		}
		return "", errors.Wrapf(err, "read secret %s", id)
	}
	return strings.TrimSpace(string(data)), nil
}
