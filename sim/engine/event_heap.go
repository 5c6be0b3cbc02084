package engine

import "container/heap"

// EventHeap is the simulator's future event queue. Timestamps are simulated
// seconds; ties are broken deterministically so repeated runs of the same
// scenario execute events in the same order.
// Ordering: timestamp → type priority → event ID
type EventHeap struct {
	events []Event
}

// NewEventHeap creates a new event heap
func NewEventHeap() *EventHeap {
	h := &EventHeap{
		events: make([]Event, 0),
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *EventHeap) Len() int {
	return len(h.events)
}

// Less implements heap.Interface with deterministic ordering
// Order by: timestamp → type priority → event ID
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]

	// Primary: timestamp (lower first)
	if ei.Timestamp() != ej.Timestamp() {
		return ei.Timestamp() < ej.Timestamp()
	}

	// Secondary: type priority (lower priority value = processed first)
	priI := EventTypePriority[ei.Type()]
	priJ := EventTypePriority[ej.Type()]
	if priI != priJ {
		return priI < priJ
	}

	// Tertiary: event ID (lower first, deterministic tie-breaker)
	return ei.EventID() < ej.EventID()
}

// Swap implements heap.Interface
func (h *EventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

// Push implements heap.Interface
func (h *EventHeap) Push(x interface{}) {
	h.events = append(h.events, x.(Event))
}

// Pop implements heap.Interface
func (h *EventHeap) Pop() interface{} {
	old := h.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.events = old[0 : n-1]
	return item
}

// Schedule adds an event to the heap
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, e)
}

// PopNext removes and returns the next event, or nil when empty.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(Event)
}

// Peek returns the next event without removing it
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.events[0]
}

// NextTime returns the timestamp of the next event. ok is false when the
// heap is empty.
func (h *EventHeap) NextTime() (t float64, ok bool) {
	if h.Len() == 0 {
		return 0, false
	}
	return h.events[0].Timestamp(), true
}

// Remove drops every pending event for which drop returns true and returns
// how many were removed.
func (h *EventHeap) Remove(drop func(Event) bool) int {
	kept := h.events[:0]
	for _, e := range h.events {
		if !drop(e) {
			kept = append(kept, e)
		}
	}
	removed := len(h.events) - len(kept)
	if removed == 0 {
		return 0
	}
	for i := len(kept); i < len(h.events); i++ {
		h.events[i] = nil
	}
	h.events = kept
	heap.Init(h)
	return removed
}
