package meshcheck

const (
	OVERLAP_FOUND EventType = iota
	OBJECT_PASSED
	OBJECT_FAILED
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// OverlapFoundEvent fires once per overlapping pair found on an object
type OverlapFoundEvent struct {
	Object string
	Pair   FacePair
}

func (e OverlapFoundEvent) Type() EventType { return OVERLAP_FOUND }

// ObjectPassedEvent fires for objects with no overlapping faces
type ObjectPassedEvent struct {
	Object string
}

func (e ObjectPassedEvent) Type() EventType { return OBJECT_PASSED }

// ObjectFailedEvent fires for objects with at least one overlapping pair
type ObjectFailedEvent struct {
	Object string
	Pairs  []FacePair
}

func (e ObjectFailedEvent) Type() EventType { return OBJECT_FAILED }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers check outcomes and delivers them to listeners at flush,
// so listeners observe a completed run rather than a partial one.
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 64),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
