package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

var (
	errDetachedHead = errors.New("HEAD is not on a branch")
	errNoUpstream   = errors.New("no upstream configured")
	errNoMergeBase  = errors.New("no merge base")
)

// NativeQuerier resolves the compared commits with go-git instead of
// spawning processes. Its result text mimics the CLI querier so logs look the
// same with either backend.
type NativeQuerier struct{}

func (NativeQuerier) Hashes(ctx context.Context, dir string) (Hashes, backend.Result) {
	var (
		h Hashes
		b strings.Builder
	)
	fail := func(line string, err error) (Hashes, backend.Result) {
		b.WriteString("Error: " + err.Error())
		return h, backend.Failed(b.String(), &backend.Error{
			Kind:     backend.KindInvocationFailure,
			Line:     line,
			ExitCode: -1,
			Err:      err,
		})
	}
	echo := func(line, hash string) {
		b.WriteString(">>> " + line + "\n" + hash + "\n\n")
	}

	line := backend.RevParseCmd("@")
	if err := ctx.Err(); err != nil {
		b.WriteString(">>> " + line + "\n")
		return fail(line, err)
	}
	repo, err := gitlib.PlainOpenWithOptions(dir, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		b.WriteString(">>> " + line + "\n")
		return fail(line, fmt.Errorf("open repository: %w", err))
	}
	head, err := repo.Head()
	if err == nil && !head.Name().IsBranch() {
		err = errDetachedHead
	}
	if err != nil {
		b.WriteString(">>> " + line + "\n")
		return fail(line, fmt.Errorf("resolve HEAD: %w", err))
	}
	h.Local = head.Hash().String()
	echo(line, h.Local)

	line = backend.RevParseCmd("@{upstream}")
	upstream, err := upstreamReference(repo, head.Name())
	if err != nil {
		b.WriteString(">>> " + line + "\n")
		return fail(line, err)
	}
	h.Remote = upstream.Hash().String()
	echo(line, h.Remote)

	line = backend.MergeBaseCmd("@", "@{upstream}")
	ancestor, err := mergeBase(repo, head.Hash(), upstream.Hash())
	if err != nil {
		b.WriteString(">>> " + line + "\n")
		return fail(line, err)
	}
	h.Ancestor = ancestor.String()
	echo(line, h.Ancestor)

	return h, backend.OK(b.String())
}

func upstreamReference(repo *gitlib.Repository, branch plumbing.ReferenceName) (*plumbing.Reference, error) {
	cfg, err := repo.Config()
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	bc, ok := cfg.Branches[branch.Short()]
	if !ok || bc.Remote == "" || bc.Merge == "" {
		return nil, fmt.Errorf("%s: %w", branch.Short(), errNoUpstream)
	}
	name := bc.Merge
	if bc.Remote != "." {
		name = plumbing.NewRemoteReferenceName(bc.Remote, bc.Merge.Short())
	}
	ref, err := repo.Reference(name, true)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	return ref, nil
}

func mergeBase(repo *gitlib.Repository, a, b plumbing.Hash) (plumbing.Hash, error) {
	if a == b {
		return a, nil
	}
	ca, err := repo.CommitObject(a)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("load commit %s: %w", a, err)
	}
	cb, err := repo.CommitObject(b)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("load commit %s: %w", b, err)
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("merge base: %w", err)
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, errNoMergeBase
	}
	return bases[0].Hash, nil
}
