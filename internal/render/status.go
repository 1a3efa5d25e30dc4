package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitsync-go/internal/git"
)

// Symbol is a one-character marker for s.
func Symbol(s git.SyncStatus) string {
	switch s {
	case git.StatusUpToDate:
		return "✓"
	case git.StatusNeedPull:
		return "↓"
	case git.StatusNeedPush:
		return "↑"
	case git.StatusDiverged:
		return "↕"
	case git.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func (r *Renderer) statusColor(s git.SyncStatus) lipgloss.Color {
	switch s {
	case git.StatusUpToDate:
		return r.palette.add
	case git.StatusNeedPull, git.StatusNeedPush:
		return r.palette.header
	case git.StatusDiverged:
		return r.palette.hunk
	case git.StatusError:
		return r.palette.del
	default:
		return r.palette.muted
	}
}

// Status renders s as "<symbol> <name>".
func (r *Renderer) Status(s git.SyncStatus) string {
	text := Symbol(s) + " " + s.String()
	if !r.color {
		return text
	}
	return r.fg(r.statusColor(s)).Render(text)
}

// Branch renders one branch line, marking the active one with "*".
func (r *Renderer) Branch(b git.Branch) string {
	marker := "  "
	if b.Active {
		marker = "* "
	}
	text := marker + b.Name
	if !r.color {
		return text
	}
	switch {
	case b.Active:
		return r.fg(r.palette.add).Bold(true).Render(text)
	case b.Remote():
		return r.fg(r.palette.del).Render(text)
	case b.Symbolic:
		return r.fg(r.palette.muted).Render(text)
	}
	return text
}

// Change renders one changed file as "<index><worktree> <path>".
func (r *Renderer) Change(f git.ChangedFile) string {
	text := fmt.Sprintf("%c%c %s", stateByte(f.Index), stateByte(f.Worktree), f.FullPath)
	if !r.color {
		return text
	}
	switch {
	case f.Index.Kind == git.Untracked:
		return r.fg(r.palette.muted).Render(text)
	case f.Index.Kind != git.Unchanged:
		return r.fg(r.palette.add).Render(text)
	}
	return r.fg(r.palette.del).Render(text)
}

func stateByte(s git.FileState) byte {
	if s.Raw == 0 {
		return ' '
	}
	return s.Raw
}
