package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventEvaluationSaved    EventType = "evaluation_saved"
	EventEvaluationUpdated  EventType = "evaluation_updated"
	EventEvaluationDeleted  EventType = "evaluation_deleted"
	EventEvaluationImported EventType = "evaluation_imported"
	EventEvaluationExported EventType = "evaluation_exported"
)

// Event represents an event that occurred in the system
type Event struct {
	Type         EventType `json:"type"`
	EvaluationID int64     `json:"evaluation_id"`
	Path         string    `json:"path,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers. A nil bus is a no-op.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
