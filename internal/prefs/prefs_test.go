package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, ok := s.Get("theme")
	assert.False(t, ok)

	require.NoError(t, s.Set("theme", "dark"))

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("theme", "light"))
	v, ok := m.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "light", v)
}
