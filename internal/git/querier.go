package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
	"github.com/thiagokokada/gitsync-go/internal/task"
)

// Querier resolves the three commits compared by Classify.
type Querier interface {
	Hashes(ctx context.Context, dir string) (Hashes, backend.Result)
}

// CLIQuerier asks the git executable through three independent queries run
// as one fail-fast pipeline.
type CLIQuerier struct {
	Runner *backend.Runner
}

var errEmptyHash = errors.New("empty commit hash")

func (q CLIQuerier) Hashes(ctx context.Context, dir string) (Hashes, backend.Result) {
	r := q.Runner.In(dir)
	var h Hashes
	query := func(line string, dst *string) task.Step {
		return func(ctx context.Context) (backend.Result, task.Outcome) {
			res := r.Porcelain(ctx, line)
			out, ok := res.Stdout()
			if !ok {
				return res, task.Continue
			}
			*dst = strings.TrimSpace(out)
			if *dst == "" {
				return backend.Failed(res.Text, &backend.Error{
					Kind:     backend.KindToolFailure,
					Line:     line,
					ExitCode: 0,
					Err:      errEmptyHash,
				}), task.Continue
			}
			return res, task.Continue
		}
	}
	res := task.Run(ctx,
		query(backend.RevParseCmd("@"), &h.Local),
		query(backend.RevParseCmd("@{upstream}"), &h.Remote),
		query(backend.MergeBaseCmd("@", "@{upstream}"), &h.Ancestor),
	)
	return h, res
}

// Compare classifies dir with q.
func Compare(ctx context.Context, q Querier, dir string) (SyncStatus, backend.Result) {
	h, res := q.Hashes(ctx, dir)
	var err error
	if res.Failed() {
		err = fmt.Errorf("compare %s: %w", dir, res.Err)
	}
	return Classify(h, err), res
}
