package git

import "strings"

// Branch is one entry of "git branch --list --all".
type Branch struct {
	Name   string
	Active bool
	// Symbolic marks pointers such as "remotes/origin/HEAD -> origin/main".
	Symbolic bool
}

// Remote reports whether the branch is a remote-tracking branch.
func (b Branch) Remote() bool {
	return strings.HasPrefix(b.Name, "remotes/")
}

// Selectable reports whether switching to b makes sense. Symbolic pointers
// and the active branch are never selectable.
func (b Branch) Selectable() bool {
	return !b.Symbolic && !b.Active
}

// ParseBranches parses branch listing output. Blank lines are dropped and
// input order is kept.
func ParseBranches(out string) []Branch {
	var branches []Branch
	for line := range strings.Lines(out) {
		active := false
		if strings.HasPrefix(line, "*") {
			active = true
			line = line[1:]
		}
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		branches = append(branches, Branch{
			Name:     name,
			Active:   active,
			Symbolic: strings.Contains(name, "HEAD -> "),
		})
	}
	return branches
}

// ActiveBranch returns the active branch of a listing.
func ActiveBranch(branches []Branch) (Branch, bool) {
	for _, b := range branches {
		if b.Active {
			return b, true
		}
	}
	return Branch{}, false
}
