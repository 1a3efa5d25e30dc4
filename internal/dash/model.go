// Package dash is the interactive terminal dashboard: tracked repositories
// with their live sync status, plus the branches and changes of the active
// one.
package dash

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitsync-go/internal/git"
	"github.com/thiagokokada/gitsync-go/internal/git/backend"
	"github.com/thiagokokada/gitsync-go/internal/render"
	"github.com/thiagokokada/gitsync-go/internal/session"
	"github.com/thiagokokada/gitsync-go/internal/store"
)

// logLines is how much of the last command output stays on screen.
const logLines = 8

// Session is the part of session.Session the dashboard drives.
type Session interface {
	Repositories(ctx context.Context) ([]string, error)
	Statuses() map[string]git.SyncStatus
	Active() (store.Descriptor, bool)
	Open(ctx context.Context, dir string) (store.Descriptor, error)
	Refresh(ctx context.Context) (session.Refreshed, backend.Result)
	Fetch(ctx context.Context, dir string) backend.Result
	Compare(ctx context.Context, dir string) (git.SyncStatus, backend.Result)
	Publish(dir string, status git.SyncStatus)
}

type (
	reposMsg struct {
		dirs []string
		err  error
	}
	statusMsg session.StatusEvent
	openedMsg struct {
		dir string
		err error
	}
	refreshedMsg struct {
		snap session.Refreshed
		res  backend.Result
	}
	fetchedMsg struct {
		dir string
		res backend.Result
	}
	// ReloadMsg asks the dashboard to refresh the active repository.
	ReloadMsg struct{}
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Refresh key.Binding
	Fetch   key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Fetch:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fetch")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() string {
	var parts []string
	for _, b := range []key.Binding{k.Up, k.Down, k.Open, k.Refresh, k.Fetch, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headingStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	sess     Session
	render   *render.Renderer
	events   <-chan session.StatusEvent
	spinner  spinner.Model
	onOpen   func(dir string)
	repos    []string
	statuses map[string]git.SyncStatus
	cursor   int
	active   string
	snap     session.Refreshed
	pending  int
	log      string
	err      error
	width    int
}

// New builds the dashboard model. events is a subscription to status
// updates; onOpen, when set, runs after a repository becomes active.
func New(sess Session, events <-chan session.StatusEvent, r *render.Renderer, onOpen func(dir string)) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		sess:     sess,
		render:   r,
		events:   events,
		spinner:  sp,
		onOpen:   onOpen,
		statuses: sess.Statuses(),
	}
	if d, ok := sess.Active(); ok {
		m.active = d.Directory
		m.pending = 1 // initial refresh
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, loadRepos(m.sess), waitForStatus(m.events)}
	if m.active != "" {
		cmds = append(cmds, refresh(m.sess))
	}
	return tea.Batch(cmds...)
}

func loadRepos(sess Session) tea.Cmd {
	return func() tea.Msg {
		dirs, err := sess.Repositories(context.Background())
		return reposMsg{dirs: dirs, err: err}
	}
}

func waitForStatus(events <-chan session.StatusEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return statusMsg(ev)
	}
}

func refresh(sess Session) tea.Cmd {
	return func() tea.Msg {
		snap, res := sess.Refresh(context.Background())
		return refreshedMsg{snap: snap, res: res}
	}
}

func open(sess Session, dir string) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.Open(context.Background(), dir)
		return openedMsg{dir: dir, err: err}
	}
}

func fetch(sess Session, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		res := sess.Fetch(ctx, dir)
		if res.Failed() {
			sess.Publish(dir, git.StatusError)
			return fetchedMsg{dir: dir, res: res}
		}
		status, cmp := sess.Compare(ctx, dir)
		sess.Publish(dir, status)
		return fetchedMsg{dir: dir, res: res.Append(cmp)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case reposMsg:
		m.err = msg.err
		m.repos = msg.dirs
		if m.cursor >= len(m.repos) {
			m.cursor = max(len(m.repos)-1, 0)
		}
		if i := slices.Index(m.repos, m.active); i >= 0 && m.cursor == 0 {
			m.cursor = i
		}
	case statusMsg:
		m.statuses[msg.Directory] = msg.Status
		return m, waitForStatus(m.events)
	case openedMsg:
		m.pending--
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.active = msg.dir
		m.snap = session.Refreshed{}
		if m.onOpen != nil {
			m.onOpen(msg.dir)
		}
		m.pending++
		return m, refresh(m.sess)
	case refreshedMsg:
		m.pending--
		if msg.res.Failed() || msg.snap.BranchesChanged || msg.snap.ChangesChanged {
			m.log = msg.res.Text
		}
		if msg.res.Failed() {
			return m, nil
		}
		if msg.snap.BranchesChanged {
			m.snap.Branches = msg.snap.Branches
		}
		if msg.snap.ChangesChanged {
			m.snap.Changes = msg.snap.Changes
		}
	case fetchedMsg:
		m.pending--
		m.log = msg.res.Text
	case ReloadMsg:
		if m.active == "" {
			return m, nil
		}
		m.pending++
		return m, refresh(m.sess)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.repos)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Open):
		if dir, ok := m.selected(); ok {
			m.pending++
			return m, open(m.sess, dir)
		}
	case key.Matches(msg, keys.Refresh):
		if m.active != "" {
			m.pending++
			return m, refresh(m.sess)
		}
	case key.Matches(msg, keys.Fetch):
		if dir, ok := m.selected(); ok {
			m.pending++
			return m, fetch(m.sess, dir)
		}
	}
	return m, nil
}

func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.repos) {
		return "", false
	}
	return m.repos[m.cursor], true
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("gitsync"))
	if m.pending > 0 {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("Repositories"))
	b.WriteString("\n")
	if len(m.repos) == 0 {
		b.WriteString("  (none tracked)\n")
	}
	for i, dir := range m.repos {
		marker := " "
		if dir == m.active {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %s", marker, m.render.Status(m.statuses[dir]), dir)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.active != "" {
		b.WriteString("\n" + headingStyle.Render("Branches") + "\n")
		for _, br := range m.snap.Branches {
			b.WriteString(m.render.Branch(br) + "\n")
		}
		b.WriteString("\n" + headingStyle.Render("Changes") + "\n")
		if len(m.snap.Changes) == 0 {
			b.WriteString("  (clean)\n")
		}
		for _, c := range m.snap.Changes {
			b.WriteString(m.render.Change(c) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.log != "" {
		b.WriteString("\n" + tail(m.log, logLines) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(keys.help()))
	return b.String()
}

func tail(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
