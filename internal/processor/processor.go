package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/readlogs/internal/capture"
	"github.com/MikeSquared-Agency/readlogs/internal/hermes"
	"github.com/MikeSquared-Agency/readlogs/internal/transcript"
)

// Archive stores rendered transcripts.
type Archive interface {
	WriteTranscript(ctx context.Context, source string, t *transcript.Transcript) (uuid.UUID, error)
}

// Publisher announces transcript events on the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor renders captured logs and fans the result out to the archive and
// the bus. Both are optional; a Processor with neither only renders.
type Processor struct {
	archive Archive
	bus     Publisher
	logger  *slog.Logger
}

// Result is a rendered transcript and, when archived, its id.
type Result struct {
	ID         uuid.UUID
	Transcript *transcript.Transcript
}

func New(archive Archive, bus Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		archive: archive,
		bus:     bus,
		logger:  logger,
	}
}

// Archiving reports whether rendered transcripts are stored.
func (p *Processor) Archiving() bool {
	return p.archive != nil
}

// Process renders raw into a transcript, archives it and publishes the outcome.
// Render failures are published as failed events and returned unchanged so
// callers can match them with errors.Is.
func (p *Processor) Process(ctx context.Context, source, raw string) (*Result, error) {
	t, err := transcript.Build(raw)
	if err != nil {
		p.logger.Warn("render failed", "source", source, "error", err)
		p.publish(hermes.SubjectTranscriptFailed, hermes.TranscriptFailedEvent{
			Source:   source,
			Error:    err.Error(),
			FailedAt: time.Now().UTC(),
		})
		return nil, err
	}

	if t.Aliases.Overlaps() {
		p.logger.Warn("identifiers overlap, longest identifier wins during substitution",
			"source", source,
			"peer1", t.Aliases.Peers[0].ID,
			"peer2", t.Aliases.Peers[1].ID,
			"project", t.Aliases.Project.ID,
		)
	}

	res := &Result{Transcript: t}
	if p.archive != nil {
		id, err := p.archive.WriteTranscript(ctx, source, t)
		if err != nil {
			return nil, fmt.Errorf("archive transcript: %w", err)
		}
		res.ID = id
	}

	var id string
	if res.ID != uuid.Nil {
		id = res.ID.String()
	}
	p.publish(hermes.SubjectTranscriptRendered, hermes.NewRenderedEvent(source, id, t))

	p.logger.Info("transcript rendered",
		"source", source,
		"transcript_id", id,
		"lines", t.Stats.Lines,
		"tables", t.Stats.Tables,
		"phases", t.Stats.Phases,
	)
	return res, nil
}

// HandleLogCaptured is the NATS handler for swarm.readlogs.log.captured.
func (p *Processor) HandleLogCaptured(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.LogCapturedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse log captured event", "error", err)
		return
	}

	raw, err := fetchLog(evt)
	if err != nil {
		p.logger.Error("failed to fetch log", "source", evt.Source, "path", evt.Path, "error", err)
		return
	}

	source := evt.Source
	if source == "" {
		source = evt.Path
	}

	if _, err := p.Process(ctx, source, raw); err != nil {
		p.logger.Error("failed to process captured log", "source", source, "error", err)
	}
}

func (p *Processor) publish(subject string, data any) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

var errNoLog = errors.New("event carries neither log text nor path")

// fetchLog prefers the log embedded in the event, falling back to its path.
func fetchLog(evt hermes.LogCapturedEvent) (string, error) {
	if evt.Log != "" {
		return evt.Log, nil
	}
	if evt.Path == "" {
		return "", errNoLog
	}
	return capture.ReadLog(evt.Path)
}
