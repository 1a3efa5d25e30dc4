package task

import (
	"context"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

// Outcome tells Run what to do after a successful step.
type Outcome uint8

const (
	Continue Outcome = iota
	// SkipNext drops the step right after this one.
	SkipNext
	// Abort ends the pipeline without marking it failed.
	Abort
)

// Step is one stage of a pipeline. A failed result always aborts the
// pipeline regardless of the returned outcome.
type Step func(ctx context.Context) (backend.Result, Outcome)

// Commander is the subset of *backend.Runner used by Command.
type Commander interface {
	Run(ctx context.Context, line string) backend.Result
}

// Command returns a step running a single command line.
func Command(r Commander, line string) Step {
	return func(ctx context.Context) (backend.Result, Outcome) {
		return r.Run(ctx, line), Continue
	}
}

// Run executes steps strictly in order and returns the accumulated text of
// every step that ran. The returned result is failed when a step failed or
// ctx was done before a step could start; steps are never interrupted midway.
func Run(ctx context.Context, steps ...Step) backend.Result {
	var acc backend.Result
	q := NewQueue()
	for _, step := range steps {
		q.Push(func() {
			if err := ctx.Err(); err != nil {
				acc = acc.Append(canceled(err))
				q.Abort()
				return
			}
			res, outcome := step(ctx)
			acc = acc.Append(res)
			switch {
			case res.Failed(), outcome == Abort:
				q.Abort()
			case outcome == SkipNext:
				q.Skip()
			}
		})
	}
	for q.Advance() {
	}
	return acc
}

func canceled(err error) backend.Result {
	return backend.Failed("Error: "+err.Error(), &backend.Error{
		Kind:     backend.KindInvocationFailure,
		ExitCode: -1,
		Err:      err,
	})
}
