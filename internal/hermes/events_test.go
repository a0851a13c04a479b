package hermes

import (
	"encoding/json"
	"testing"

	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

func TestLogCapturedEventParsing(t *testing.T) {
	raw := `{
		"source": "ci/rere_tracked#1842",
		"path": "/var/lib/ci/logs/rere_tracked.log"
	}`

	var evt LogCapturedEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		t.Fatalf("failed to parse LogCapturedEvent: %v", err)
	}

	if evt.Source != "ci/rere_tracked#1842" {
		t.Errorf("expected source 'ci/rere_tracked#1842', got '%s'", evt.Source)
	}
	if evt.Path != "/var/lib/ci/logs/rere_tracked.log" {
		t.Errorf("expected path, got '%s'", evt.Path)
	}
	if evt.Log != "" {
		t.Errorf("expected empty log, got '%s'", evt.Log)
	}
}

func TestNewRenderedEvent(t *testing.T) {
	tr, err := transcript.Build("created peers peer1=QmA peer2=QmB\nproject_id=\"proj123\"\npeer1 pulling")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	evt := NewRenderedEvent("local", "", tr)

	if evt.Peer1 != "QmA" || evt.Peer2 != "QmB" || evt.Project != "proj123" {
		t.Errorf("unexpected identifiers: %+v", evt)
	}
	if evt.Phases != 1 {
		t.Errorf("expected 1 phase, got %d", evt.Phases)
	}
	if evt.RenderedAt.IsZero() {
		t.Error("expected rendered_at to be set")
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, ok := fields["transcript_id"]; ok {
		t.Error("transcript_id should be omitted when not archived")
	}
}

func TestSubjectConstants(t *testing.T) {
	subjects := map[string]string{
		SubjectLogCaptured:        "swarm.readlogs.log.captured",
		SubjectTranscriptRendered: "swarm.readlogs.transcript.rendered",
		SubjectTranscriptFailed:   "swarm.readlogs.transcript.failed",
	}
	for got, want := range subjects {
		if got != want {
			t.Errorf("expected subject '%s', got '%s'", want, got)
		}
	}
}
