package transcript

import (
	"regexp"
	"strings"
)

const (
	// FetcherMarker and FetchspecsMarker together identify the fetcher
	// statement that logs its fetch specs as an inline list.
	FetcherMarker    = "librad::git::storage::fetcher::imp:"
	FetchspecsMarker = "{fetchspecs}"

	// PhaseSuffix ends the line that opens each pulling phase.
	PhaseSuffix = "pulling"

	DefaultIndent = 8

	arrow        = " --> "
	separatorGap = 5
)

var (
	refListRe     = regexp.MustCompile(`imp:\[([^\]]+)\]`)
	separatorRule = strings.Repeat("-", 54)
)

// RefEntry is one row of a fetch spec table.
type RefEntry struct {
	From string
	To   string
}

// RefTable is a fetcher line split into its leading text and its fetch specs,
// in the order they were logged.
type RefTable struct {
	Prefix  string
	Entries []RefEntry
}

// Width is the length of the longest source ref in the table.
func (t RefTable) Width() int {
	w := 0
	for _, e := range t.Entries {
		if len(e.From) > w {
			w = len(e.From)
		}
	}
	return w
}

// Render emits the prefix followed by one aligned "from --> to" row per entry.
func (t RefTable) Render(indent int) []string {
	width := t.Width()
	pad := strings.Repeat(" ", indent)

	out := make([]string, 0, len(t.Entries)+1)
	out = append(out, t.Prefix)
	for _, e := range t.Entries {
		var sb strings.Builder
		sb.WriteString(pad)
		sb.WriteString(e.From)
		sb.WriteString(strings.Repeat(" ", width-len(e.From)))
		sb.WriteString(arrow)
		sb.WriteString(e.To)
		out = append(out, sb.String())
	}
	return out
}

// IsFetchspecLine reports whether line is the fetcher statement carrying fetch specs.
func IsFetchspecLine(line string) bool {
	return strings.Contains(line, FetcherMarker) && strings.Contains(line, FetchspecsMarker)
}

// ParseRefTable parses the bracketed ref list of a fetchspec line. ok is false
// when the line is not a fetchspec line or carries no list.
func ParseRefTable(line string) (table RefTable, ok bool, err error) {
	if !IsFetchspecLine(line) {
		return RefTable{}, false, nil
	}
	loc := refListRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return RefTable{}, false, nil
	}

	table.Prefix = line[:loc[0]] + "imp:"
	raw := strings.ReplaceAll(line[loc[2]:loc[3]], `"`, "")
	for _, item := range strings.Split(raw, ", ") {
		entry, err := parseRefEntry(item)
		if err != nil {
			return RefTable{}, false, err
		}
		table.Entries = append(table.Entries, entry)
	}
	return table, true, nil
}

func parseRefEntry(item string) (RefEntry, error) {
	parts := strings.Split(item, ":")
	switch {
	case len(parts) < 2:
		return RefEntry{}, &MalformedFetchspecError{Entry: item, Reason: "missing ':' separator"}
	case len(parts) > 2:
		return RefEntry{}, &MalformedFetchspecError{Entry: item, Reason: "more than one ':' separator"}
	}

	e := RefEntry{
		From: strings.TrimSpace(parts[0]),
		To:   strings.TrimSpace(parts[1]),
	}
	if e.From == "" {
		return RefEntry{}, &MalformedFetchspecError{Entry: item, Reason: "empty source ref"}
	}
	return e, nil
}

// ExpandLine turns a fetchspec line into its rendered table. Any other line is
// returned unchanged as the only element.
func ExpandLine(line string) ([]string, error) {
	table, ok, err := ParseRefTable(line)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{line}, nil
	}
	return table.Render(DefaultIndent), nil
}

// IsPhaseStart reports whether line opens a new pulling phase.
func IsPhaseStart(line string) bool {
	return strings.HasSuffix(line, PhaseSuffix)
}

// PhaseSeparator is the dashed rule and blank gap inserted before a phase start.
func PhaseSeparator() []string {
	sep := make([]string, 0, separatorGap+1)
	sep = append(sep, separatorRule)
	for range separatorGap {
		sep = append(sep, "")
	}
	return sep
}
