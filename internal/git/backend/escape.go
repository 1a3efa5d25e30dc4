package backend

import (
	"errors"
	"strings"
)

var errUnterminatedQuote = errors.New("unterminated quote")

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "")

// Escape makes v safe to embed between double quotes in a command line.
// Backslashes and quotes are escaped and line breaks are removed.
func Escape(v string) string {
	return escaper.Replace(v)
}

// Quote escapes v and wraps it in double quotes.
func Quote(v string) string {
	return `"` + Escape(v) + `"`
}

// Unescape reverses Escape for values that did not contain line breaks.
func Unescape(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// SplitCommandLine tokenizes a command line built with Quote. Whitespace
// separates tokens outside quotes; a quote may open in the middle of a token,
// as in --message="text". Inside quotes a backslash takes the next byte
// literally. Outside quotes backslashes are ordinary bytes so Windows paths
// survive unquoted.
func SplitCommandLine(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inToken bool
		quoted  bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quoted && c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			quoted = !quoted
			inToken = true
		case !quoted && (c == ' ' || c == '\t'):
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}
	if quoted {
		return nil, errUnterminatedQuote
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
