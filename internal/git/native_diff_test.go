package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

func TestNativeFileDiff(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "--quiet")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.txt"), []byte("one\ntwo\n"), 0o644))
	runGit(t, dir, "add", ".")
	commitEmpty(t, dir, "initial")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.txt"), []byte("one\nthree\n"), 0o644))
	text, err := NativeFileDiff(dir, "pkg/a.txt")
	require.NoError(t, err)
	assert.Contains(t, text, "diff --git a/pkg/a.txt b/pkg/a.txt\n")
	assert.Contains(t, text, "-two\n")
	assert.Contains(t, text, "+three\n")
	assert.Equal(t, []FileSection{{Path: "pkg/a.txt", Line: 1}}, DiffSections(text))

	text, err = NativeFileDiff(dir, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, text)

	svc, err := Open(dir, Options{NativeDiff: true})
	require.NoError(t, err)
	res := svc.FileDiff(context.Background(), "pkg/a.txt")
	require.False(t, res.Failed(), res.Text)
	out, ok := res.Stdout()
	require.True(t, ok)
	assert.Contains(t, out, "+three\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("fresh\n"), 0o644))
	text, err = NativeFileDiff(dir, "new.txt")
	require.NoError(t, err)
	assert.Contains(t, text, "--- /dev/null")
	assert.Contains(t, text, "+fresh\n")
}

func TestDiffSections(t *testing.T) {
	t.Parallel()

	text := "diff --git a/foo.txt b/foo.txt\n" +
		"@@ -1 +1 @@\n" +
		`diff --git "a/space name.txt" "b/space name.txt"` + "\n" +
		`diff --git "a/quo\"te.txt" "b/quo\"te.txt"` + "\n" +
		"diff --git a/onlyone\n"
	got := DiffSections(text)
	assert.Equal(t, []FileSection{
		{Path: "foo.txt", Line: 1},
		{Path: "space name.txt", Line: 3},
		{Path: `quo"te.txt`, Line: 4},
	}, got)

	_, err := Open(t.TempDir(), Options{Runner: backend.NewRunner("git")})
	assert.NoError(t, err)
}
