package git

import "strings"

// FileSection locates one file header inside diff text.
type FileSection struct {
	Path string
	Line int // 1-based
}

// DiffSections returns the "diff --git" headers of text.
func DiffSections(text string) []FileSection {
	var sections []FileSection
	for i, line := range strings.Split(text, "\n") {
		if path := diffHeaderPath(line); path != "" {
			sections = append(sections, FileSection{Path: path, Line: i + 1})
		}
	}
	return sections
}

func diffHeaderPath(line string) string {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return ""
	}
	tokens := headerTokens(strings.TrimSpace(rest))
	if len(tokens) < 2 {
		return ""
	}
	return strings.TrimPrefix(tokens[1], "b/")
}

// headerTokens splits a diff header, honouring git's C-style quoting of
// paths with unusual bytes.
func headerTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return tokens
		}
		if s[0] != '"' {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			tokens = append(tokens, s[:end])
			s = s[end:]
			continue
		}
		var buf strings.Builder
		i := 1
		for ; i < len(s) && s[i] != '"'; i++ {
			if s[i] == '\\' && i+1 < len(s) {
				i++
			}
			buf.WriteByte(s[i])
		}
		tokens = append(tokens, buf.String())
		if i < len(s) {
			i++
		}
		s = s[i:]
	}
}
