package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitsync-go/internal/git"
)

// Diff colours unified diff text: headers, hunk markers, added and removed
// lines, and the code of each line highlighted for its file's language.
func (r *Renderer) Diff(text string) string {
	if !r.color || text == "" {
		return text
	}
	paths := make(map[int]string)
	for _, s := range git.DiffSections(text) {
		paths[s.Line] = s.Path
	}
	var (
		b     strings.Builder
		lexer chroma.Lexer
	)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if path, ok := paths[i+1]; ok {
			lexer = lexerForPath(path)
			b.WriteString(r.fg(r.palette.header).Bold(true).Render(line))
			continue
		}
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			b.WriteString(r.fg(r.palette.header).Render(line))
			continue
		case strings.HasPrefix(line, "@@"):
			b.WriteString(r.fg(r.palette.hunk).Render(line))
			continue
		}
		code, ok := diffLineCode(line)
		if !ok || lexer == nil {
			b.WriteString(r.fg(r.palette.muted).Render(line))
			continue
		}
		switch line[0] {
		case '+':
			b.WriteString(r.fg(r.palette.add).Bold(true).Render("+"))
		case '-':
			b.WriteString(r.fg(r.palette.del).Bold(true).Render("-"))
		default:
			b.WriteByte(' ')
		}
		b.WriteString(r.highlight(lexer, code))
	}
	return b.String()
}

func (r *Renderer) highlight(lexer chroma.Lexer, code string) string {
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	tokens := iterator.Tokens()
	// lexers with EnsureNL append a newline the line never had
	if n := len(tokens); n > 0 && !strings.HasSuffix(code, "\n") {
		tokens[n-1].Value = strings.TrimSuffix(tokens[n-1].Value, "\n")
	}
	var b strings.Builder
	for _, token := range tokens {
		if token.Value == "" {
			continue
		}
		color := colorFromEntry(r.style.Get(token.Type))
		if color == "" {
			b.WriteString(token.Value)
			continue
		}
		b.WriteString(r.fg(lipgloss.Color(color)).Render(token.Value))
	}
	return b.String()
}

func diffLineCode(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	switch line[0] {
	case '+', '-', ' ':
		return line[1:], true
	default:
		return "", false
	}
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if !entry.Colour.IsSet() {
		return ""
	}
	return "#" + strings.TrimPrefix(strings.ToLower(entry.Colour.String()), "#")
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
