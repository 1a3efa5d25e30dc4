package git

import (
	"context"
	"fmt"
	"sync"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

type fakeCommander struct {
	mu    sync.Mutex
	lines []string

	runFunc       func(line string) backend.Result
	porcelainFunc func(line string) backend.Result
}

func (f *fakeCommander) record(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
}

func (f *fakeCommander) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func (f *fakeCommander) Run(_ context.Context, line string) backend.Result {
	f.record(line)
	if f.runFunc != nil {
		return f.runFunc(line)
	}
	return backend.OK(">>> " + line + "\n")
}

func (f *fakeCommander) Porcelain(_ context.Context, line string) backend.Result {
	f.record(line)
	if f.porcelainFunc != nil {
		return f.porcelainFunc(line)
	}
	return backend.OKWithStdout(">>> "+line+"\n", "")
}

func toolFailure(line string, code int, stderr string) backend.Result {
	return backend.Failed(
		fmt.Sprintf(">>> %s\nError code: %d\nError: %s", line, code, stderr),
		&backend.Error{Kind: backend.KindToolFailure, Line: line, ExitCode: code, Stderr: stderr},
	)
}

type fakeQuerier struct {
	hashesFunc func(dir string) (Hashes, backend.Result)
}

func (f fakeQuerier) Hashes(_ context.Context, dir string) (Hashes, backend.Result) {
	return f.hashesFunc(dir)
}
