// Package deck owns the ordered slide collection and the current selection.
//
// Deck is the only mutator of the collection. Every mutation notifies subscribers
// (form binding, preview, autosave) through typed events. Mutations are expected to
// come from a single event loop; the mutex exists because the autosave timer takes
// snapshots from its own goroutine.
package deck

import (
	"sync"

	"slidedeck-cli/internal/model"
)

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(prompt string) bool

// Confirmed is used by callers that collected consent before calling DeleteSlide.
func Confirmed(string) bool { return true }

const deletePrompt = "Are you sure you want to delete this slide?"

type Deck struct {
	mu      sync.Mutex
	slides  []model.Slide
	counter int
	current int

	subs   []subscription
	nextID int
}

func New() *Deck {
	return &Deck{current: -1}
}

// Subscribe registers fn for every event. The returned func removes it.
func (d *Deck) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// emit must be called without d.mu held.
func (d *Deck) emit(evs ...Event) {
	d.mu.Lock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, ev := range evs {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}

// AddSlide appends an empty slide with the next display number and selects it.
func (d *Deck) AddSlide() int {
	d.mu.Lock()
	d.counter++
	d.slides = append(d.slides, model.NewSlide(d.counter))
	idx := len(d.slides) - 1
	ev := d.selectLocked(idx)
	d.mu.Unlock()

	d.emit(ev)
	return idx
}

// SelectSlide sets the current index. Out-of-range indexes are ignored.
func (d *Deck) SelectSlide(index int) bool {
	d.mu.Lock()
	if index < 0 || index >= len(d.slides) {
		d.mu.Unlock()
		return false
	}
	ev := d.selectLocked(index)
	d.mu.Unlock()

	d.emit(ev)
	return true
}

func (d *Deck) selectLocked(index int) Event {
	d.current = index
	s := d.slides[index].Clone()
	return Event{Kind: EventSelectionChanged, Index: index, Current: index, Slide: &s}
}

// UpdateCurrentSlide merges patch into the current slide. No-op without a selection.
func (d *Deck) UpdateCurrentSlide(patch model.SlidePatch) bool {
	d.mu.Lock()
	if d.current < 0 {
		d.mu.Unlock()
		return false
	}
	patch.Apply(&d.slides[d.current])
	s := d.slides[d.current].Clone()
	ev := Event{Kind: EventSlideUpdated, Index: d.current, Current: d.current, Slide: &s}
	d.mu.Unlock()

	d.emit(ev)
	return true
}

// DeleteSlide removes the slide at index once confirm agrees. The nearest slide
// (clamped to the new length) becomes current; an empty deck clears the selection.
func (d *Deck) DeleteSlide(index int, confirm ConfirmFunc) bool {
	d.mu.Lock()
	if index < 0 || index >= len(d.slides) {
		d.mu.Unlock()
		return false
	}
	d.mu.Unlock()

	if confirm == nil || !confirm(deletePrompt) {
		return false
	}

	d.mu.Lock()
	// Re-check: the confirmation may have yielded to other work.
	if index >= len(d.slides) {
		d.mu.Unlock()
		return false
	}
	d.slides = append(d.slides[:index], d.slides[index+1:]...)

	var evs []Event
	if len(d.slides) > 0 {
		evs = append(evs, d.selectLocked(min(index, len(d.slides)-1)))
	} else {
		d.current = -1
	}
	evs = append(evs, Event{Kind: EventSlideDeleted, Index: index, Current: d.current})
	d.mu.Unlock()

	d.emit(evs...)
	return true
}

// Reorder removes the slide at from and reinserts it at to. The selection keeps
// pointing at the same slide.
func (d *Deck) Reorder(from, to int) bool {
	d.mu.Lock()
	n := len(d.slides)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		d.mu.Unlock()
		return false
	}

	moved := d.slides[from]
	d.slides = append(d.slides[:from], d.slides[from+1:]...)
	d.slides = append(d.slides, model.Slide{})
	copy(d.slides[to+1:], d.slides[to:])
	d.slides[to] = moved

	d.current = remapIndex(d.current, from, to)
	s := moved.Clone()
	ev := Event{Kind: EventSlidesReordered, Index: to, Current: d.current, From: from, To: to, Slide: &s}
	d.mu.Unlock()

	d.emit(ev)
	return true
}

func remapIndex(cur, from, to int) int {
	switch {
	case cur < 0:
		return cur
	case cur == from:
		return to
	case from < cur && cur <= to:
		return cur - 1
	case to <= cur && cur < from:
		return cur + 1
	default:
		return cur
	}
}

// Replace swaps in a loaded collection wholesale. The display-number counter
// continues from the highest stored number. The first slide becomes current.
func (d *Deck) Replace(slides []model.Slide) {
	d.mu.Lock()
	d.slides = make([]model.Slide, 0, len(slides))
	d.counter = 0
	for _, s := range slides {
		d.slides = append(d.slides, s.Clone())
		if s.Number > d.counter {
			d.counter = s.Number
		}
	}

	var ev Event
	if len(d.slides) > 0 {
		ev = d.selectLocked(0)
	} else {
		d.current = -1
		ev = Event{Kind: EventSelectionChanged, Index: -1, Current: -1}
	}
	d.mu.Unlock()

	d.emit(ev)
}

// Snapshot returns a deep copy of the collection in display order.
func (d *Deck) Snapshot() []model.Slide {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Slide, 0, len(d.slides))
	for _, s := range d.slides {
		out = append(out, s.Clone())
	}
	return out
}

func (d *Deck) Current() (model.Slide, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current < 0 {
		return model.Slide{}, false
	}
	return d.slides[d.current].Clone(), true
}

func (d *Deck) CurrentIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Deck) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slides)
}
