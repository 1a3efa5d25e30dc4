package git

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChangesCodeGrid(t *testing.T) {
	t.Parallel()

	codes := map[byte]FileKind{
		' ': Unchanged,
		'A': Created,
		'M': Changed,
		'D': Deleted,
		'R': Renamed,
		'C': Copied,
		'U': Unmerged,
		'?': Untracked,
	}
	for x, wantX := range codes {
		for y, wantY := range codes {
			line := string([]byte{x, y}) + " file.txt"
			files := ParseChanges(line + "\n")
			require.Len(t, files, 1, "line %q", line)
			assert.Equal(t, FileState{Kind: wantX, Raw: x}, files[0].Index, "line %q", line)
			assert.Equal(t, FileState{Kind: wantY, Raw: y}, files[0].Worktree, "line %q", line)
			assert.Equal(t, "file.txt", files[0].FullPath)
		}
	}
}

func TestParseChangesUnknownCodes(t *testing.T) {
	t.Parallel()

	for c := 0; c < 256; c++ {
		b := byte(c)
		if strings.IndexByte(" AMDRCU?\n\r", b) >= 0 {
			continue
		}
		files := ParseChanges(string([]byte{b, 'M'}) + " x")
		require.Len(t, files, 1, "byte %d", c)
		assert.Equal(t, FileState{Kind: Unknown, Raw: b}, files[0].Index)
		assert.Equal(t, Changed, files[0].Worktree.Kind)
	}
}

func TestParseChanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []ChangedFile
	}{
		{
			name: "root_file",
			in:   " M main.go\n",
			want: []ChangedFile{{
				FullPath: "main.go", Name: "main.go", Directory: RootDirectory,
				Index: FileState{Unchanged, ' '}, Worktree: FileState{Changed, 'M'},
			}},
		},
		{
			name: "nested_untracked",
			in:   "?? internal/git/new file.go\n",
			want: []ChangedFile{{
				FullPath: "internal/git/new file.go", Name: "new file.go", Directory: "internal/git",
				Index: FileState{Untracked, '?'}, Worktree: FileState{Untracked, '?'},
			}},
		},
		{
			name: "rename_takes_destination",
			in:   "R  old/name.txt -> new/name.txt\n",
			want: []ChangedFile{{
				FullPath: "new/name.txt", Name: "name.txt", Directory: "new",
				Index: FileState{Renamed, 'R'}, Worktree: FileState{Unchanged, ' '},
			}},
		},
		{
			name: "quoted_path",
			in:   "A  \"dir/with space.txt\"\n",
			want: []ChangedFile{{
				FullPath: "dir/with space.txt", Name: "with space.txt", Directory: "dir",
				Index: FileState{Created, 'A'}, Worktree: FileState{Unchanged, ' '},
			}},
		},
		{
			// a literal " -> " inside a name is taken as rename notation
			name: "arrow_in_filename",
			in:   "?? a -> b.txt\n",
			want: []ChangedFile{{
				FullPath: "b.txt", Name: "b.txt", Directory: RootDirectory,
				Index: FileState{Untracked, '?'}, Worktree: FileState{Untracked, '?'},
			}},
		},
		{
			name: "short_line_kept",
			in:   "M\n",
			want: []ChangedFile{{
				FullPath: "", Name: "", Directory: RootDirectory,
				Index: FileState{Changed, 'M'}, Worktree: FileState{Unknown, 0},
			}},
		},
		{
			name: "blank_lines_dropped",
			in:   "\n M a\n\n D b\r\n",
			want: []ChangedFile{
				{FullPath: "a", Name: "a", Directory: RootDirectory, Index: FileState{Unchanged, ' '}, Worktree: FileState{Changed, 'M'}},
				{FullPath: "b", Name: "b", Directory: RootDirectory, Index: FileState{Unchanged, ' '}, Worktree: FileState{Deleted, 'D'}},
			},
		},
		{name: "empty", in: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseChanges(tt.in))
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()

	changes := "MM a.go\nR  x -> y\n?? dir/z\nXY weird\n"
	if diff := cmp.Diff(ParseChanges(changes), ParseChanges(changes)); diff != "" {
		t.Fatalf("ParseChanges not deterministic (-first +second):\n%s", diff)
	}
	branches := "* main\n  dev\n  remotes/origin/HEAD -> origin/main\n"
	if diff := cmp.Diff(ParseBranches(branches), ParseBranches(branches)); diff != "" {
		t.Fatalf("ParseBranches not deterministic (-first +second):\n%s", diff)
	}
}

func TestFileStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Changed", FileState{Kind: Changed, Raw: 'M'}.String())
	assert.Equal(t, "Unknown('X')", FileState{Kind: Unknown, Raw: 'X'}.String())
}
