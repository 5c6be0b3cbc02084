package engine

import (
	"testing"
)

// testEvent builds an event of any type; only the BaseEvent fields matter
// for ordering.
func testEvent(ts float64, typ EventType, id uint64) Event {
	return &VmUpdateEvent{BaseEvent: BaseEvent{timestamp: ts, eventID: id, eventType: typ}}
}

// TestEventHeap_TimestampOrdering tests that events are processed in timestamp order
func TestEventHeap_TimestampOrdering(t *testing.T) {
	h := NewEventHeap()

	h.Schedule(testEvent(10.5, EventTypeVmUpdate, 1))
	h.Schedule(testEvent(0.25, EventTypeVmUpdate, 2))
	h.Schedule(testEvent(30, EventTypeVmUpdate, 3))

	for _, want := range []float64{0.25, 10.5, 30} {
		if got := h.PopNext().Timestamp(); got != want {
			t.Errorf("timestamp = %v, want %v", got, want)
		}
	}
	if h.Len() != 0 {
		t.Errorf("Heap should be empty, len = %d", h.Len())
	}
}

// TestEventHeap_TypePriorityOrdering tests same-timestamp events use type priority
func TestEventHeap_TypePriorityOrdering(t *testing.T) {
	h := NewEventHeap()

	// CloudletReturn (priority 5) is added first but VmCreate (priority 1) wins
	h.Schedule(testEvent(5, EventTypeCloudletReturn, 1))
	h.Schedule(testEvent(5, EventTypeVmCreate, 2))

	if first := h.PopNext(); first.Type() != EventTypeVmCreate {
		t.Errorf("First event type = %s, want VmCreate", first.Type())
	}
	if second := h.PopNext(); second.Type() != EventTypeCloudletReturn {
		t.Errorf("Second event type = %s, want CloudletReturn", second.Type())
	}
}

// TestEventHeap_EventIDOrdering tests same-timestamp same-type events use EventID
func TestEventHeap_EventIDOrdering(t *testing.T) {
	h := NewEventHeap()

	h.Schedule(testEvent(1, EventTypeCloudletSubmit, 3))
	h.Schedule(testEvent(1, EventTypeCloudletSubmit, 1))
	h.Schedule(testEvent(1, EventTypeCloudletSubmit, 2))

	for _, want := range []uint64{1, 2, 3} {
		if got := h.PopNext().EventID(); got != want {
			t.Errorf("event ID = %d, want %d", got, want)
		}
	}
}

// TestEventHeap_DeterministicOrdering tests that ordering is deterministic regardless of insertion order
func TestEventHeap_DeterministicOrdering(t *testing.T) {
	events := []Event{
		testEvent(2, EventTypeVmCreate, 1),
		testEvent(2, EventTypeVmCreateAck, 2),
		testEvent(2, EventTypeCloudletSubmit, 3),
		testEvent(2, EventTypeVmUpdate, 4),
		testEvent(2, EventTypeCloudletReturn, 5),
	}

	h1 := NewEventHeap()
	for _, e := range events {
		h1.Schedule(e)
	}
	h2 := NewEventHeap()
	for i := len(events) - 1; i >= 0; i-- {
		h2.Schedule(events[i])
	}

	expected := []EventType{
		EventTypeVmCreate,
		EventTypeVmCreateAck,
		EventTypeCloudletSubmit,
		EventTypeVmUpdate,
		EventTypeCloudletReturn,
	}
	for i, want := range expected {
		a, b := h1.PopNext().Type(), h2.PopNext().Type()
		if a != want || b != want {
			t.Errorf("Position %d: got %s and %s, want %s", i, a, b, want)
		}
	}
}

func TestEventHeap_PeekDoesNotRemove(t *testing.T) {
	h := NewEventHeap()
	if h.Peek() != nil || h.PopNext() != nil {
		t.Fatal("empty heap must return nil")
	}
	h.Schedule(testEvent(1, EventTypeVmUpdate, 1))
	if h.Peek() == nil || h.Len() != 1 {
		t.Errorf("Peek removed the event, len = %d", h.Len())
	}
}

// TestEventHeap_NextTime tests the next timestamp is reported without popping
func TestEventHeap_NextTime(t *testing.T) {
	h := NewEventHeap()

	if _, ok := h.NextTime(); ok {
		t.Fatal("NextTime on empty heap should report ok = false")
	}

	h.Schedule(testEvent(7.5, EventTypeVmUpdate, 1))
	h.Schedule(testEvent(2.5, EventTypeVmUpdate, 2))

	next, ok := h.NextTime()
	if !ok || next != 2.5 {
		t.Errorf("NextTime = (%v, %v), want (2.5, true)", next, ok)
	}
	if h.Len() != 2 {
		t.Errorf("NextTime should not remove events, len = %d", h.Len())
	}
}

// TestEventHeap_Remove tests dropped events leave the remaining order intact
func TestEventHeap_Remove(t *testing.T) {
	h := NewEventHeap()

	h.Schedule(testEvent(4, EventTypeVmUpdate, 1))
	h.Schedule(testEvent(1, EventTypeCloudletSubmit, 2))
	h.Schedule(testEvent(3, EventTypeVmUpdate, 3))
	h.Schedule(testEvent(2, EventTypeCloudletReturn, 4))

	removed := h.Remove(func(e Event) bool { return e.Type() == EventTypeVmUpdate })
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if h.Remove(func(Event) bool { return false }) != 0 {
		t.Error("removing nothing should report 0")
	}

	for _, want := range []uint64{2, 4} {
		if got := h.PopNext().EventID(); got != want {
			t.Errorf("event ID = %d, want %d", got, want)
		}
	}
	if h.PopNext() != nil {
		t.Error("heap should be empty")
	}
}
