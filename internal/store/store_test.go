package store

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", "repositories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndLookup(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	d := Descriptor{Address: "https://example.com/a.git", Directory: "/src/a"}
	require.NoError(t, s.Put(ctx, d))

	got, err := s.Lookup(ctx, "/src/a")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	d.Address = "https://example.com/moved.git"
	require.NoError(t, s.Put(ctx, d))
	got, err = s.Lookup(ctx, "/src/a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/moved.git", got.Address)
}

func TestLookupMissingIsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.Lookup(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, ErrConfigurationInvalid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutRejectsIncompleteDescriptor(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, Descriptor{Directory: "/src/a"}), ErrConfigurationInvalid)
	assert.ErrorIs(t, s.Put(ctx, Descriptor{Address: "x"}), ErrConfigurationInvalid)
}

func TestDirectoriesSortedAndDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	for _, dir := range []string{"/src/c", "/src/a", "/src/b"} {
		require.NoError(t, s.Put(ctx, Descriptor{Address: "https://example.com" + dir, Directory: dir}))
	}

	dirs, err := s.Directories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a", "/src/b", "/src/c"}, dirs)

	require.NoError(t, s.Delete(ctx, "/src/b"))
	assert.ErrorIs(t, s.Delete(ctx, "/src/b"), ErrNotFound)

	dirs, err = s.Directories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a", "/src/c"}, dirs)
}

func TestOpenTwiceKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "repositories.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), Descriptor{Address: "a", Directory: "/a"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	dirs, err := s.Directories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, dirs)
}

func TestDataDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	t.Setenv("APPDATA", "/tmp/appdata")
	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, appName, filepath.Base(dir))
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		assert.Equal(t, filepath.Join("/tmp/xdg", appName), dir)
	}
}

func TestDataDirWithoutXDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses the config dir")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	dir, err := DataDir()
	require.NoError(t, err)
	want := filepath.Join(home, ".local", "share", appName)
	if runtime.GOOS == "darwin" {
		want = filepath.Join(home, "Library", "Application Support", appName)
	}
	assert.Equal(t, want, dir)
}
