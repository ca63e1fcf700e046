package deck

import "slidedeck-cli/internal/model"

type EventKind string

const (
	EventSelectionChanged EventKind = "selection-changed"
	EventSlideUpdated     EventKind = "slide-updated"
	EventSlideDeleted     EventKind = "slide-deleted"
	EventSlidesReordered  EventKind = "slides-reordered"
)

// Event is delivered to every subscriber after a mutation completes.
//
// Index is the slide the event is about (the selected index, the updated index or
// the deleted index). Current is the selection after the mutation, -1 when none.
// From/To are only set for EventSlidesReordered. Slide is a copy of the affected
// slide when one still exists.
type Event struct {
	Kind    EventKind
	Index   int
	Current int
	From    int
	To      int
	Slide   *model.Slide
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}
