package secret

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slack_token"), []byte("xoxp-abc123\n"), 0o600))

	token, err := NewDir(dir).Load("slack_token")
	require.NoError(t, err)
	assert.Equal(t, "xoxp-abc123", token, "trailing whitespace must be stripped")
}

func TestLoad_Missing(t *testing.T) {
	_, err := NewDir(t.TempDir()).Load("slack_token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "slack_token")
}
