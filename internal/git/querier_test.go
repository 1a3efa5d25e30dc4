package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Tests",
		"GIT_AUTHOR_EMAIL=tests@example.com",
		"GIT_COMMITTER_NAME=Tests",
		"GIT_COMMITTER_EMAIL=tests@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func commitEmpty(t *testing.T, dir, msg string) {
	t.Helper()
	runGit(t, dir, "commit", "--allow-empty", "--no-gpg-sign", "--quiet", "-m", msg)
}

// createRemotePair returns an upstream bare repository and a fresh clone of it.
func createRemotePair(t *testing.T) (origin, clone string) {
	t.Helper()
	root := t.TempDir()
	work := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(work, 0o755))
	runGit(t, work, "init", "--quiet")
	commitEmpty(t, work, "initial")

	origin = filepath.Join(root, "origin.git")
	runGit(t, root, "clone", "--quiet", "--bare", work, origin)
	return origin, cloneOf(t, origin)
}

func cloneOf(t *testing.T, origin string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "clone")
	runGit(t, filepath.Dir(dir), "clone", "--quiet", origin, dir)
	return dir
}

func queriers() map[string]Querier {
	return map[string]Querier{
		"cli":    CLIQuerier{Runner: backend.NewRunner("git")},
		"native": NativeQuerier{},
	}
}

func assertStatus(t *testing.T, dir string, want SyncStatus) {
	t.Helper()
	var hashes []Hashes
	for name, q := range queriers() {
		status, res := Compare(context.Background(), q, dir)
		assert.Equal(t, want, status, "%s querier: %s", name, res.Text)
		h, _ := q.Hashes(context.Background(), dir)
		hashes = append(hashes, h)
	}
	if want != StatusError {
		assert.Equal(t, hashes[0], hashes[1], "queriers disagree")
	}
}

func TestQueriersClassifyRealRepositories(t *testing.T) {
	t.Parallel()
	requireGit(t)

	origin, clone := createRemotePair(t)
	assertStatus(t, clone, StatusUpToDate)

	other := cloneOf(t, origin)
	commitEmpty(t, other, "upstream change")
	runGit(t, other, "push", "--quiet")
	runGit(t, clone, "fetch", "--quiet")
	assertStatus(t, clone, StatusNeedPull)

	commitEmpty(t, clone, "local change")
	assertStatus(t, clone, StatusDiverged)
}

func TestQueriersNeedPush(t *testing.T) {
	t.Parallel()
	requireGit(t)

	_, clone := createRemotePair(t)
	commitEmpty(t, clone, "local change")
	assertStatus(t, clone, StatusNeedPush)
}

func TestQueriersWithoutUpstream(t *testing.T) {
	t.Parallel()
	requireGit(t)

	dir := t.TempDir()
	runGit(t, dir, "init", "--quiet")
	commitEmpty(t, dir, "initial")
	assertStatus(t, dir, StatusError)
}

func TestCLIQuerierText(t *testing.T) {
	t.Parallel()
	requireGit(t)

	_, clone := createRemotePair(t)
	h, res := CLIQuerier{Runner: backend.NewRunner("git")}.Hashes(context.Background(), clone)
	require.False(t, res.Failed(), res.Text)
	assert.Len(t, h.Local, 40)
	assert.Equal(t, 3, strings.Count(res.Text, ">>> "))
	assert.Contains(t, res.Text, ">>> git merge-base @ @{upstream}\n")
}
