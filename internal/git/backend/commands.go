package backend

import (
	"strconv"
	"strings"
)

// Command line builders. Every interpolated value goes through Quote.

func StatusCmd() string { return "git status --untracked-files=all" }

func ChangesCmd() string { return "git status --porcelain --untracked-files=all" }

func BranchesCmd() string { return "git branch --list --all" }

func FileDiffCmd(file string) string { return "git diff -- " + Quote(file) }

// CloneCmd clones address into directory, which must already exist. -C makes
// the line independent of the runner's working directory.
func CloneCmd(address, directory string, depth int) string {
	return "git -C " + Quote(directory) +
		" clone --quiet --verbose --depth " + strconv.Itoa(depth) +
		" --no-single-branch --recurse-submodules --shallow-submodules " +
		Quote(address) + " " + Quote(directory)
}

func FetchCmd() string { return "git fetch --verbose" }

func PruneCmd() string { return "git remote --verbose prune origin" }

func PullCmd() string { return "git pull --rebase --verbose" }

func StageCmd() string { return "git stage --verbose --all" }

// CommitCmd passes each line of message as its own --message so git keeps
// the paragraph structure. Blank lines are dropped.
func CommitCmd(message string) string {
	var b strings.Builder
	b.WriteString("git commit --verbose")
	n := 0
	for line := range strings.Lines(message) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(" --message=")
		b.WriteString(Quote(line))
		n++
	}
	if n == 0 {
		b.WriteString(" --message=")
		b.WriteString(Quote(DefaultCommitMessage))
	}
	return b.String()
}

// DefaultCommitMessage replaces a blank commit message.
const DefaultCommitMessage = "No commit message"

func PushCmd() string { return "git push --verbose" }

func ForcePushCmd(branch string) string {
	return "git push origin " + Quote(branch) + " --force-with-lease --verbose"
}

func SwitchCmd(branch string) string { return "git checkout " + Quote(branch) + " --" }

func DeleteBranchCmd(branch string) string { return "git branch --delete " + Quote(branch) }

func RevertCmd(commit string) string { return "git revert " + Quote(commit) + " --no-edit" }

func RollbackCmd(file string) string { return "git checkout -- " + Quote(file) }

func RevParseCmd(rev string) string { return "git rev-parse " + rev }

func MergeBaseCmd(a, b string) string { return "git merge-base " + a + " " + b }

func ConfigCmd(key, value string) string {
	return "git config --global " + key + " " + Quote(value)
}

func UnsetConfigCmd(key string) string { return "git config --global --unset " + key }

func VersionCmd() string { return "git --version" }
