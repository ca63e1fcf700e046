package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"slidedeck-cli/internal/artifact"
	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/model"

	"github.com/sirupsen/logrus"
)

// Deck is the slice of the slide store persistence needs.
type Deck interface {
	Snapshot() []model.Slide
	Replace(slides []model.Slide)
}

type Persister struct {
	deck Deck
	slot Slot
	sink artifact.Sink
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewPersister(d Deck, slot Slot, sink artifact.Sink, log logrus.FieldLogger) *Persister {
	return &Persister{deck: d, slot: slot, sink: sink, log: orDiscard(log), now: time.Now}
}

func (p *Persister) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Save offers the project as a download and mirrors it into the slot.
func (p *Persister) Save(ctx context.Context) (artifact.File, error) {
	slides := p.deck.Snapshot()
	if len(slides) == 0 {
		return artifact.File{}, deck.ErrNoSlides
	}
	now := p.now()
	proj := model.NewProject(slides, now)

	pretty, err := Encode(proj, true)
	if err != nil {
		return artifact.File{}, err
	}
	f, err := p.sink.Put(ctx, DownloadName(now), "application/json", pretty)
	if err != nil {
		return artifact.File{}, err
	}
	compact, err := Encode(proj, false)
	if err != nil {
		return f, err
	}
	if err := p.slot.Put(ctx, compact); err != nil {
		return f, fmt.Errorf("mirror to storage: %w", err)
	}
	p.log.WithFields(logrus.Fields{"file": f.Name, "slides": len(slides), "bytes": f.Size}).Info("saved project")
	return f, nil
}

// Load validates payload and replaces the deck with it. On any error the deck and
// the slot are left as they were.
func (p *Persister) Load(ctx context.Context, payload []byte) (model.Project, error) {
	proj, err := Decode(payload)
	if err != nil {
		return model.Project{}, err
	}
	compact, err := Encode(proj, false)
	if err != nil {
		return model.Project{}, err
	}
	if err := p.slot.Put(ctx, compact); err != nil {
		return model.Project{}, fmt.Errorf("mirror to storage: %w", err)
	}
	p.deck.Replace(proj.Slides)
	p.log.WithField("slides", len(proj.Slides)).Info("loaded project")
	return proj, nil
}

// Restore loads the last session from the slot. An empty slot is not an error. A
// slot that no longer decodes is cleared and the validation error returned.
func (p *Persister) Restore(ctx context.Context) (int, error) {
	b, err := p.slot.Get(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	proj, err := Decode(b)
	if err != nil {
		p.log.WithError(err).Warn("clearing unreadable saved session")
		if cerr := p.slot.Clear(ctx); cerr != nil {
			return 0, errors.Join(err, cerr)
		}
		return 0, err
	}
	p.deck.Replace(proj.Slides)
	p.log.WithField("slides", len(proj.Slides)).Debug("restored session")
	return len(proj.Slides), nil
}

// Stored returns the project currently held in the slot.
func (p *Persister) Stored(ctx context.Context) (model.Project, error) {
	b, err := p.slot.Get(ctx)
	if err != nil {
		return model.Project{}, err
	}
	return Decode(b)
}

// Clear empties the slot. The in-memory deck is not touched.
func (p *Persister) Clear(ctx context.Context) error {
	return p.slot.Clear(ctx)
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
