// Package render formats git output for terminals.
package render

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	darkmode "github.com/thiagokokada/dark-mode-go"

	"github.com/thiagokokada/gitsync-go/internal/config"
)

var detectDarkMode = darkmode.IsDarkMode

type palette struct {
	add, del, header, hunk, muted lipgloss.Color
}

var (
	lightPalette = palette{add: "#1a7f37", del: "#cf222e", header: "#0550ae", hunk: "#8250df", muted: "#6e7781"}
	darkPalette  = palette{add: "#3fb950", del: "#f85149", header: "#79c0ff", hunk: "#d2a8ff", muted: "#8b949e"}
)

// Renderer colours output when its writer is a terminal. Without colour every
// method returns its input text unchanged.
type Renderer struct {
	color   bool
	dark    bool
	lg      *lipgloss.Renderer
	palette palette
	style   *chroma.Style
}

// New returns a renderer for w. Colour is enabled only when w is a terminal
// and NO_COLOR is unset.
func New(w io.Writer, theme config.Theme) *Renderer {
	return newRenderer(w, ColorEnabled(w), Dark(theme))
}

// Plain returns a renderer that never colours.
func Plain() *Renderer {
	return newRenderer(io.Discard, false, false)
}

func newRenderer(w io.Writer, color, dark bool) *Renderer {
	r := &Renderer{color: color, dark: dark, lg: lipgloss.NewRenderer(w), palette: lightPalette}
	if dark {
		r.palette = darkPalette
	}
	r.style = styleFor(dark)
	return r
}

func (r *Renderer) Color() bool { return r.color }

// ColorEnabled reports whether w is a terminal that should receive colour.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Dark resolves theme, asking the desktop for "auto".
func Dark(theme config.Theme) bool {
	switch theme {
	case config.ThemeDark:
		return true
	case config.ThemeLight:
		return false
	}
	if detectDarkMode == nil {
		return false
	}
	dark, err := detectDarkMode()
	if err != nil {
		slog.Debug("detect dark-mode", slog.Any("err", err))
		return false
	}
	return dark
}

func styleFor(dark bool) *chroma.Style {
	name := "github"
	if dark {
		name = "github-dark"
	}
	if st := styles.Get(name); st != nil {
		return st
	}
	return styles.Fallback
}

func (r *Renderer) fg(c lipgloss.Color) lipgloss.Style {
	return r.lg.NewStyle().Foreground(c)
}
