package transcript

import (
	"sort"
	"strings"
)

const (
	Peer1Label   = "Peer 1"
	Peer2Label   = "Peer 2"
	ProjectLabel = "Project"

	projectPlaceholder = "<project>"
)

// PeerAlias maps a peer identifier found in the log to its display label.
type PeerAlias struct {
	ID    string
	Label string
}

// Placeholder is the text substituted for the peer identifier, e.g. "<Peer 1>".
func (p PeerAlias) Placeholder() string {
	return "<" + p.Label + ">"
}

// ProjectAlias maps the project identifier to its display label.
type ProjectAlias struct {
	ID    string
	Label string
}

// Placeholder is the text substituted for the project identifier, "<project>".
func (p ProjectAlias) Placeholder() string {
	return projectPlaceholder
}

// Aliases holds everything discovered by Extract. It is built once per log and
// passed by value through substitution and the legend.
type Aliases struct {
	Peers   [2]PeerAlias
	Project ProjectAlias
}

// Legend returns the trailing lines that map each alias back to its identifier.
func (a Aliases) Legend() []string {
	return []string{
		a.Peers[0].Label + ": " + a.Peers[0].ID,
		a.Peers[1].Label + ": " + a.Peers[1].ID,
		a.Project.Label + ": " + a.Project.ID,
	}
}

// Overlaps reports whether any identifier is a substring of another. Substitution
// still succeeds in that case (longest identifier wins) but the transcript may
// be misleading, so callers log a warning.
func (a Aliases) Overlaps() bool {
	ids := a.ids()
	for i := range ids {
		for j := range ids {
			if i != j && strings.Contains(ids[j], ids[i]) {
				return true
			}
		}
	}
	return false
}

func (a Aliases) ids() []string {
	return []string{a.Peers[0].ID, a.Peers[1].ID, a.Project.ID}
}

// replacer builds a single-pass replacer with longer identifiers listed first,
// so a match on the longer identifier takes precedence at any position.
func (a Aliases) replacer() *strings.Replacer {
	type pair struct{ old, new string }
	pairs := []pair{
		{a.Peers[0].ID, a.Peers[0].Placeholder()},
		{a.Peers[1].ID, a.Peers[1].Placeholder()},
		{a.Project.ID, a.Project.Placeholder()},
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return len(pairs[i].old) > len(pairs[j].old)
	})

	args := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, p.old, p.new)
	}
	return strings.NewReplacer(args...)
}
