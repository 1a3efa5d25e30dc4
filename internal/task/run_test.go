package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

func okStep(text string, calls *[]string, outcome Outcome) Step {
	return func(context.Context) (backend.Result, Outcome) {
		*calls = append(*calls, text)
		return backend.OK(text), outcome
	}
}

func failStep(text string, calls *[]string) Step {
	return func(context.Context) (backend.Result, Outcome) {
		*calls = append(*calls, text)
		return backend.Failed(text, &backend.Error{Kind: backend.KindToolFailure, ExitCode: 1}), Continue
	}
}

func TestRunStopsAtFailedStep(t *testing.T) {
	t.Parallel()

	var calls []string
	res := Run(context.Background(),
		okStep("one;", &calls, Continue),
		failStep("two;", &calls),
		okStep("three;", &calls, Continue),
	)
	require.True(t, res.Failed())
	assert.Equal(t, "one;two;", res.Text)
	assert.Equal(t, []string{"one;", "two;"}, calls)
}

func TestRunAllSucceed(t *testing.T) {
	t.Parallel()

	var calls []string
	res := Run(context.Background(),
		okStep("a", &calls, Continue),
		okStep("b", &calls, Continue),
	)
	assert.False(t, res.Failed())
	assert.Equal(t, "ab", res.Text)
}

func TestRunSkipNext(t *testing.T) {
	t.Parallel()

	var calls []string
	res := Run(context.Background(),
		okStep("a", &calls, SkipNext),
		okStep("b", &calls, Continue),
		okStep("c", &calls, Continue),
	)
	assert.False(t, res.Failed())
	assert.Equal(t, []string{"a", "c"}, calls)
}

func TestRunAbortIsNotFailure(t *testing.T) {
	t.Parallel()

	var calls []string
	res := Run(context.Background(),
		okStep("a", &calls, Abort),
		okStep("b", &calls, Continue),
	)
	assert.False(t, res.Failed())
	assert.Equal(t, "a", res.Text)
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	res := Run(context.Background())
	assert.False(t, res.Failed())
	assert.Empty(t, res.Text)
}

func TestRunCanceledBetweenSteps(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	res := Run(ctx,
		func(context.Context) (backend.Result, Outcome) {
			calls = append(calls, "a")
			cancel()
			return backend.OK("a\n"), Continue
		},
		okStep("b", &calls, Continue),
	)
	require.True(t, res.Failed())
	assert.Equal(t, []string{"a"}, calls)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Equal(t, "a\nError: context canceled", res.Text)
}

type fakeCommander struct {
	run func(ctx context.Context, line string) backend.Result
}

func (f fakeCommander) Run(ctx context.Context, line string) backend.Result {
	return f.run(ctx, line)
}

func TestCommand(t *testing.T) {
	t.Parallel()

	var lines []string
	c := fakeCommander{run: func(_ context.Context, line string) backend.Result {
		lines = append(lines, line)
		return backend.OK(">>> " + line + "\n")
	}}
	res := Run(context.Background(), Command(c, "git stage"), Command(c, "git commit"))
	assert.False(t, res.Failed())
	assert.Equal(t, []string{"git stage", "git commit"}, lines)
	assert.Equal(t, ">>> git stage\n>>> git commit\n", res.Text)
}
