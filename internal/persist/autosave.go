package persist

import (
	"context"
	"sync"
	"time"

	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/model"

	"github.com/sirupsen/logrus"
)

// DefaultQuietWindow is how long the deck must stay unchanged before autosave writes.
const DefaultQuietWindow = 30 * time.Second

type Snapshotter interface {
	Snapshot() []model.Slide
}

// Autosaver writes the deck to the slot once a burst of changes has settled.
type Autosaver struct {
	src    Snapshotter
	slot   Slot
	log    logrus.FieldLogger
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	running bool
	stopped bool

	// writeMu serializes slot writes between the timer and Flush.
	writeMu sync.Mutex
}

func NewAutosaver(src Snapshotter, slot Slot, window time.Duration, log logrus.FieldLogger) *Autosaver {
	if window <= 0 {
		window = DefaultQuietWindow
	}
	return &Autosaver{src: src, slot: slot, log: orDiscard(log), window: window, now: time.Now}
}

// Attach notifies the autosaver on every deck event.
func (a *Autosaver) Attach(d *deck.Deck) func() {
	return d.Subscribe(func(deck.Event) { a.Notify() })
}

// Notify records a change and restarts the quiet window.
func (a *Autosaver) Notify() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = true
	if a.timer == nil {
		a.timer = time.AfterFunc(a.window, a.onTimer)
		return
	}
	a.timer.Reset(a.window)
}

func (a *Autosaver) onTimer() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.running {
		// A write is in flight; try again once it had time to finish.
		a.timer.Reset(a.window)
		a.mu.Unlock()
		return
	}
	if !a.pending {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.running = true
	a.mu.Unlock()

	if err := a.write(context.Background()); err != nil {
		a.log.WithError(err).Warn("autosave failed")
	}

	a.mu.Lock()
	a.running = false
	// Changes that arrived during the write get their own quiet window.
	if a.pending && !a.stopped {
		a.timer.Reset(a.window)
	}
	a.mu.Unlock()
}

// Flush writes immediately if a change is pending.
func (a *Autosaver) Flush(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	if !a.pending {
		a.mu.Unlock()
		return nil
	}
	a.pending = false
	a.mu.Unlock()
	return a.write(ctx)
}

// Stop cancels the timer and drops pending changes. Later notifications are ignored.
func (a *Autosaver) Stop() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
	}
}

// Pending reports whether a change is waiting for the quiet window.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *Autosaver) write(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	slides := a.src.Snapshot()
	b, err := Encode(model.NewProject(slides, a.now()), false)
	if err != nil {
		return err
	}
	if err := a.slot.Put(ctx, b); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"slides": len(slides), "bytes": len(b)}).Debug("autosaved")
	return nil
}
