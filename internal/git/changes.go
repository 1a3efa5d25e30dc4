package git

import (
	"fmt"
	"strings"
)

type FileKind uint8

const (
	Unchanged FileKind = iota
	Created
	Changed
	Deleted
	Renamed
	Copied
	Unmerged
	Untracked
	Unknown
)

var fileKindNames = [...]string{
	Unchanged: "Unchanged",
	Created:   "Created",
	Changed:   "Changed",
	Deleted:   "Deleted",
	Renamed:   "Renamed",
	Copied:    "Copied",
	Unmerged:  "Unmerged",
	Untracked: "Untracked",
	Unknown:   "Unknown",
}

func (k FileKind) String() string {
	if int(k) < len(fileKindNames) {
		return fileKindNames[k]
	}
	return fmt.Sprintf("FileKind(%d)", uint8(k))
}

// FileState is one column of a porcelain status code. Raw keeps the original
// byte so unknown codes can still be shown.
type FileState struct {
	Kind FileKind
	Raw  byte
}

func (s FileState) String() string {
	if s.Kind == Unknown {
		return fmt.Sprintf("Unknown(%q)", s.Raw)
	}
	return s.Kind.String()
}

func parseFileState(c byte) FileState {
	kind := Unknown
	switch c {
	case ' ':
		kind = Unchanged
	case 'A':
		kind = Created
	case 'M':
		kind = Changed
	case 'D':
		kind = Deleted
	case 'R':
		kind = Renamed
	case 'C':
		kind = Copied
	case 'U':
		kind = Unmerged
	case '?':
		kind = Untracked
	}
	return FileState{Kind: kind, Raw: c}
}

// RootDirectory is the Directory of files at the top of the working tree.
const RootDirectory = "/"

// ChangedFile is one entry of "git status --porcelain".
type ChangedFile struct {
	FullPath  string
	Name      string
	Directory string
	Index     FileState
	Worktree  FileState
}

// ParseChanges parses porcelain status output into one record per non-blank
// line. Unknown state codes and short lines still yield a record.
//
// For rename notation the destination is kept. A path that itself contains
// " -> " is split at the first occurrence, which matches how the status is
// shown by the UI but picks the wrong name for such files.
func ParseChanges(out string) []ChangedFile {
	var files []ChangedFile
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		files = append(files, parseChangeLine(line))
	}
	return files
}

func parseChangeLine(line string) ChangedFile {
	var index, worktree byte
	if len(line) > 0 {
		index = line[0]
	}
	if len(line) > 1 {
		worktree = line[1]
	}
	path := ""
	if len(line) > 2 {
		path = strings.TrimSpace(line[2:])
	}
	if i := strings.Index(path, " -> "); i >= 0 {
		path = path[i+len(" -> "):]
	}
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		path = path[1 : len(path)-1]
	}

	f := ChangedFile{
		FullPath:  path,
		Name:      path,
		Directory: RootDirectory,
		Index:     parseFileState(index),
		Worktree:  parseFileState(worktree),
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		f.Name = path[i+1:]
		if i > 0 {
			f.Directory = path[:i]
		}
	}
	return f
}
