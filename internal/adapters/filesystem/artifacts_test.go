package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *ArtifactStore {
	t.Helper()

	s, err := NewArtifactStore(memfs.New())
	require.NoError(t, err)
	return s
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Getting Started", "getting-started"},
		{"  API / v2: Auth & Tokens!  ", "api-v2-auth-tokens"},
		{"Ünïcode only", "n-code-only"},
		{"???", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugify(tt.title))
		})
	}
}

func TestArtifactStore_SaveReadExists(t *testing.T) {
	s := setupStore(t)

	loc, err := s.Save("42", "DEV", "Release Notes", "# Release Notes\n")
	require.NoError(t, err)
	assert.Equal(t, "DEV/42-release-notes.md", loc)

	exists, err := s.Exists(loc)
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := s.Read(loc)
	require.NoError(t, err)
	assert.Equal(t, "# Release Notes\n", string(content))

	// Saving again overwrites
	_, err = s.Save("42", "DEV", "Release Notes", "# v2\n")
	require.NoError(t, err)
	content, err = s.Read(loc)
	require.NoError(t, err)
	assert.Equal(t, "# v2\n", string(content))
}

func TestArtifactStore_Delete(t *testing.T) {
	s := setupStore(t)

	loc, err := s.Save("1", "DEV", "A", "a")
	require.NoError(t, err)

	deleted, err := s.Delete(loc)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(loc)
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := s.Exists(loc)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArtifactStore_List(t *testing.T) {
	s := setupStore(t)

	for _, a := range []struct{ id, key, title string }{
		{"2", "OPS", "Runbook"},
		{"1", "DEV", "Setup"},
		{"3", "DEV", "Teardown"},
	} {
		_, err := s.Save(a.id, a.key, a.title, "x")
		require.NoError(t, err)
	}
	// Not an artifact
	require.NoError(t, util.WriteFile(s.fs, s.fs.Join(rootDir, "DEV", "notes.txt"), []byte("x"), 0644))

	locations, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"DEV/1-setup.md", "DEV/3-teardown.md", "OPS/2-runbook.md"}, locations)
}

func TestArtifactStore_ListEmpty(t *testing.T) {
	s := setupStore(t)

	locations, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestArtifactStore_RejectsEscapes(t *testing.T) {
	s := setupStore(t)

	_, err := s.Save("1", "../etc", "passwd", "x")
	assert.Error(t, err)

	for _, loc := range []string{"", "../outside.md", "/abs.md", ".."} {
		_, err := s.Exists(loc)
		assert.Error(t, err, loc)
	}
}

func TestOSArtifactStore_ExternalDeletion(t *testing.T) {
	dir := t.TempDir()
	s, err := NewOSArtifactStore(dir)
	require.NoError(t, err)

	loc, err := s.Save("7", "DEV", "Page", "# Page")
	require.NoError(t, err)

	full := filepath.Join(dir, rootDir, filepath.FromSlash(loc))
	_, err = os.Stat(full)
	require.NoError(t, err)

	require.NoError(t, os.Remove(full))

	exists, err := s.Exists(loc)
	require.NoError(t, err)
	assert.False(t, exists)
}
