package models

import (
	"time"
)

// EventType represents the type of an event emitted by a pipeline run
type EventType string

const (
	// Run events
	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"
	EventRunAborted   EventType = "run.aborted"

	// Stage events
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
	EventStageError     EventType = "stage.error"
	EventStageOutput    EventType = "stage.output"
)

// Event represents a generic pipeline event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// String returns a data field as string, or "" when missing
func (e Event) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// EventListener must be implemented to receive events from a pipeline
type EventListener interface {
	OnEvent(event Event)
}

// EventListenerFunc is an adapter to use functions as EventListener
type EventListenerFunc func(event Event)

func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}
