package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes git command lines. A zero Dir runs in the process working
// directory. Runner values are immutable; In and WithTimeout return copies that
// share the version check.
type Runner struct {
	bin     string
	dir     string
	timeout time.Duration
	version *versionCheck
}

func NewRunner(gitBin string) *Runner {
	if strings.TrimSpace(gitBin) == "" {
		gitBin = "git"
	}
	return &Runner{bin: gitBin, version: &versionCheck{}}
}

func (r *Runner) Bin() string { return r.bin }

func (r *Runner) Dir() string { return r.dir }

// In returns a runner executing inside dir.
func (r *Runner) In(dir string) *Runner {
	cp := *r
	cp.dir = dir
	return &cp
}

// WithTimeout returns a runner that kills each command after d. Zero disables
// the limit.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	cp := *r
	cp.timeout = d
	return &cp
}

// Run executes one command line and formats its output.
func (r *Runner) Run(ctx context.Context, line string) Result {
	out := r.exec(ctx, line)
	return out.result(false)
}

// Porcelain is Run for machine readable commands: on success the result
// carries the raw standard output.
func (r *Runner) Porcelain(ctx context.Context, line string) Result {
	out := r.exec(ctx, line)
	return out.result(true)
}

// RunAll executes lines in order and stops at the first failure. The text of
// every line that ran, including the failing one, is concatenated.
func (r *Runner) RunAll(ctx context.Context, lines ...string) Result {
	var res Result
	for _, line := range lines {
		res = res.Append(r.Run(ctx, line))
		if res.Failed() {
			return res
		}
	}
	return res
}

type execution struct {
	echo    string
	timeout time.Duration
	stdout  string
	stderr  string
	err     *Error
}

func (r *Runner) exec(ctx context.Context, line string) execution {
	echo := Redact(line)
	args, err := SplitCommandLine(line)
	if err == nil && len(args) == 0 {
		err = errors.New("empty command line")
	}
	if err != nil {
		return r.invocationFailure(echo, fmt.Errorf("parse command line: %w", err))
	}
	bin := args[0]
	if bin == "git" {
		bin = r.bin
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	slog.Debug("git command", slog.String("line", echo), slog.String("dir", r.dir))
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args[1:]...)
	cmd.Dir = r.dir
	// Background polling must never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	ex := execution{echo: echo, timeout: r.timeout, stdout: stdout.String(), stderr: stderr.String()}
	if runErr == nil {
		slog.Debug("git command done",
			slog.String("line", echo),
			slog.Duration("elapsed", time.Since(start)),
		)
		return ex
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		ex.err = &Error{Kind: KindTimeout, Line: echo, ExitCode: -1, Stderr: ex.stderr, Err: ctx.Err()}
	case ctx.Err() != nil:
		ex.err = &Error{Kind: KindInvocationFailure, Line: echo, ExitCode: -1, Err: ctx.Err()}
	case errors.As(runErr, &exitErr):
		ex.err = &Error{Kind: KindToolFailure, Line: echo, ExitCode: exitErr.ExitCode(), Stderr: ex.stderr, Err: runErr}
	default:
		ex.err = &Error{Kind: KindInvocationFailure, Line: echo, ExitCode: -1, Err: runErr}
	}
	slog.Warn("git command failed",
		slog.String("line", echo),
		slog.String("dir", r.dir),
		slog.String("kind", ex.err.Kind.String()),
		slog.Int("exit_code", ex.err.ExitCode),
		slog.Any("err", runErr),
	)
	return ex
}

func (r *Runner) invocationFailure(echo string, err error) execution {
	slog.Warn("git command failed", slog.String("line", echo), slog.Any("err", err))
	return execution{echo: echo, err: &Error{Kind: KindInvocationFailure, Line: echo, ExitCode: -1, Err: err}}
}

func (ex execution) result(withStdout bool) Result {
	text := format(ex)
	if ex.err != nil {
		return Failed(text, ex.err)
	}
	if withStdout {
		return OKWithStdout(text, ex.stdout)
	}
	return OK(text)
}

func format(ex execution) string {
	var b strings.Builder
	b.WriteString(">>> ")
	b.WriteString(ex.echo)
	b.WriteString("\n")
	if ex.err != nil {
		switch ex.err.Kind {
		case KindToolFailure:
			fmt.Fprintf(&b, "Error code: %d\nError: %s", ex.err.ExitCode, ex.stderr)
		case KindTimeout:
			if ex.timeout > 0 {
				fmt.Fprintf(&b, "Error: timed out after %s", ex.timeout)
			} else {
				b.WriteString("Error: timed out")
			}
		default:
			b.WriteString("Error: ")
			b.WriteString(ex.err.Err.Error())
		}
		return b.String()
	}
	if ex.stderr != "" {
		b.WriteString(ex.stderr)
		b.WriteString("\n")
	}
	if ex.stdout != "" {
		b.WriteString(ex.stdout)
		b.WriteString("\n")
	}
	return b.String()
}
