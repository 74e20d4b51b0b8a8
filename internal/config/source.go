package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source supplies raw schedule text. The reconciler compares the raw bytes
// between cycles, so reads must return the file exactly as stored.
type Source interface {
	ReadScheduleText() ([]byte, error)
}

// FileSource reads the schedule from a single file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ReadScheduleText returns the current file contents.
func (s *FileSource) ReadScheduleText() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return data, nil
}

// DefaultPath returns ~/.config/statusloop/schedule.toml, falling back to the
// working directory when the home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", "statusloop", "schedule.toml")
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, "schedule.toml")
}
