package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Stats counts what a render produced.
type Stats struct {
	Lines   int `json:"lines"`   // transcript lines, excluding the legend
	Tables  int `json:"tables"`  // fetchspec lines expanded into tables
	Entries int `json:"entries"` // table rows across all tables
	Phases  int `json:"phases"`  // pulling phases separated
}

// Transcript is a fully rendered log held in memory.
type Transcript struct {
	Aliases Aliases
	Lines   []string
	Stats   Stats
}

// Lines expands substituted log text line by line. Fetchspec lines become
// tables and phase starts are preceded by a separator. Iteration stops after
// the first malformed fetchspec line, which is yielded as the error.
func Lines(text string) iter.Seq2[string, error] {
	return expand(text, nil)
}

func expand(text string, stats *Stats) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for i, line := range strings.Split(text, "\n") {
			expanded, err := ExpandLine(line)
			if err != nil {
				var mf *MalformedFetchspecError
				if errors.As(err, &mf) {
					mf.LineNo = i + 1
				}
				yield("", err)
				return
			}
			if stats != nil && len(expanded) > 1 {
				stats.Tables++
				stats.Entries += len(expanded) - 1
			}

			for _, out := range expanded {
				if IsPhaseStart(out) {
					if stats != nil {
						stats.Phases++
					}
					for _, sep := range PhaseSeparator() {
						if !yield(sep, nil) {
							return
						}
					}
				}
				if stats != nil {
					stats.Lines++
				}
				if !yield(out, nil) {
					return
				}
			}
		}
	}
}

// Build runs the whole pipeline over raw and keeps the result in memory.
func Build(raw string) (*Transcript, error) {
	aliases, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	t := &Transcript{Aliases: aliases}
	for line, err := range expand(Substitute(raw, aliases), &t.Stats) {
		if err != nil {
			return nil, err
		}
		t.Lines = append(t.Lines, line)
	}
	return t, nil
}

// String joins the transcript and its legend, one line per row.
func (t *Transcript) String() string {
	var sb strings.Builder
	_, _ = t.WriteTo(&sb)
	return sb.String()
}

// WriteTo writes the transcript lines followed by the legend.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, line := range append(t.Lines[:len(t.Lines):len(t.Lines)], t.Aliases.Legend()...) {
		m, err := io.WriteString(w, line+"\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Render streams the transcript of raw to w as it is produced, then the legend.
// Extraction failures return before anything is written; a malformed
// fetchspec line aborts after the lines preceding it have been written.
func Render(w io.Writer, raw string) (Aliases, Stats, error) {
	var stats Stats

	aliases, err := Extract(raw)
	if err != nil {
		return Aliases{}, stats, err
	}

	bw := bufio.NewWriter(w)
	for line, err := range expand(Substitute(raw, aliases), &stats) {
		if err != nil {
			if ferr := bw.Flush(); ferr != nil {
				return aliases, stats, fmt.Errorf("write transcript: %w", ferr)
			}
			return aliases, stats, err
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return aliases, stats, fmt.Errorf("write transcript: %w", err)
		}
	}
	for _, line := range aliases.Legend() {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return aliases, stats, fmt.Errorf("write legend: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return aliases, stats, fmt.Errorf("write transcript: %w", err)
	}
	return aliases, stats, nil
}
