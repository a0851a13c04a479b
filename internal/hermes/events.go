package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

const (
	// SubjectLogCaptured carries raw replication test logs to be rendered.
	SubjectLogCaptured = "swarm.readlogs.log.captured"
	// SubjectTranscriptRendered announces a successfully rendered transcript.
	SubjectTranscriptRendered = "swarm.readlogs.transcript.rendered"
	// SubjectTranscriptFailed announces a log that could not be rendered.
	SubjectTranscriptFailed = "swarm.readlogs.transcript.failed"
)

// LogCapturedEvent asks for a log to be rendered. Log carries the raw text;
// when empty, Path names a file readable by the renderer.
type LogCapturedEvent struct {
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Log    string `json:"log,omitempty"`
}

type TranscriptRenderedEvent struct {
	TranscriptID string    `json:"transcript_id,omitempty"`
	Source       string    `json:"source"`
	Peer1        string    `json:"peer1"`
	Peer2        string    `json:"peer2"`
	Project      string    `json:"project"`
	Lines        int       `json:"lines"`
	Tables       int       `json:"tables"`
	Entries      int       `json:"entries"`
	Phases       int       `json:"phases"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type TranscriptFailedEvent struct {
	Source   string    `json:"source"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// NewRenderedEvent summarises t for the bus. transcriptID is empty when the
// transcript was not archived.
func NewRenderedEvent(source, transcriptID string, t *transcript.Transcript) TranscriptRenderedEvent {
	return TranscriptRenderedEvent{
		TranscriptID: transcriptID,
		Source:       source,
		Peer1:        t.Aliases.Peers[0].ID,
		Peer2:        t.Aliases.Peers[1].ID,
		Project:      t.Aliases.Project.ID,
		Lines:        t.Stats.Lines,
		Tables:       t.Stats.Tables,
		Entries:      t.Stats.Entries,
		Phases:       t.Stats.Phases,
		RenderedAt:   time.Now().UTC(),
	}
}
