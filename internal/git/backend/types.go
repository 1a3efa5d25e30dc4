package backend

import (
	"fmt"
	"strings"
)

// Kind classifies why a command did not succeed.
type Kind uint8

const (
	// KindToolFailure means the process ran and exited with a non-zero code.
	KindToolFailure Kind = iota + 1
	// KindInvocationFailure means the process could not be started at all,
	// so no exit code is available.
	KindInvocationFailure
	// KindTimeout means the process was killed after its deadline expired.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindToolFailure:
		return "tool failure"
	case KindInvocationFailure:
		return "invocation failure"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error describes a failed command line.
type Error struct {
	Kind     Kind
	Line     string // echoed command line, credentials redacted
	ExitCode int    // -1 unless Kind is KindToolFailure
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindToolFailure:
		msg = fmt.Sprintf("exit code %d", e.ExitCode)
		if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
			msg += ": " + stderr
		}
	default:
		msg = fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Line == "" {
		return msg
	}
	return e.Line + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Result is what every runner call produces. Text is the formatted log of all
// command lines that ran; it is meant for display only. Callers decide on
// Failed and read Stdout, never on Text.
type Result struct {
	Text string
	Err  *Error

	stdout    string
	hasStdout bool
}

// OK builds a successful result without raw output.
func OK(text string) Result {
	return Result{Text: text}
}

// OKWithStdout builds a successful result carrying raw standard output.
func OKWithStdout(text, stdout string) Result {
	return Result{Text: text, stdout: stdout, hasStdout: true}
}

// Failed builds a failed result. A failed result never carries stdout.
func Failed(text string, err *Error) Result {
	return Result{Text: text, Err: err}
}

func (r Result) Failed() bool { return r.Err != nil }

// Stdout returns the raw standard output when the command succeeded and the
// caller asked for it.
func (r Result) Stdout() (string, bool) {
	if r.Err != nil {
		return "", false
	}
	return r.stdout, r.hasStdout
}

// Append concatenates the formatted text of next after r. The failure and
// stdout of next win, which matches running next after r.
func (r Result) Append(next Result) Result {
	next.Text = r.Text + next.Text
	return next
}
