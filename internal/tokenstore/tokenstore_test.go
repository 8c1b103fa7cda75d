package tokenstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".aide")
	f := NewFile(dir)

	tok, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, tok, "absent token loads as empty")

	require.NoError(t, f.Save("t1"))
	tok, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, "t1", tok)

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, f.Save("t2"))
	tok, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, "t2", tok, "save replaces the previous token")
}

func TestFile_ClearIsIdempotent(t *testing.T) {
	f := NewFile(t.TempDir())
	require.NoError(t, f.Save("t1"))

	require.NoError(t, f.Clear())
	require.NoError(t, f.Clear())

	tok, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFile_LoadTrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("  abc\n"), 0600))

	tok, err := NewFile(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestFile_SaveRejectsEmpty(t *testing.T) {
	assert.Error(t, NewFile(t.TempDir()).Save(""))
}

func TestMemory(t *testing.T) {
	m := NewMemory(" env-token ")
	tok, _ := m.Load()
	assert.Equal(t, "env-token", tok)

	require.NoError(t, m.Clear())
	tok, _ = m.Load()
	assert.Empty(t, tok)

	require.NoError(t, m.Save("t1"))
	tok, _ = m.Load()
	assert.Equal(t, "t1", tok)
	assert.Error(t, m.Save(""))
}
