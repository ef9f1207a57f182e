// Package events provides an event system for job lifecycle notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventJobQueued is emitted when a job is accepted into the work queue
	EventJobQueued EventType = "job_queued"
	// EventJobStarted is emitted when a worker picks up a job
	EventJobStarted EventType = "job_started"
	// EventJobCompleted is emitted when a job returns normally
	EventJobCompleted EventType = "job_completed"
	// EventJobFailed is emitted when a job panics and the worker recovers it
	EventJobFailed EventType = "job_failed"
	// EventFaultInjected is emitted when a synthetic fault is injected into a job
	EventFaultInjected EventType = "fault_injected"
)

// NoWorker is the WorkerID of events not tied to a worker
const NoWorker = -1

// Event represents a job lifecycle event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id,omitempty"`
	WorkerID  int       `json:"worker_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Elapsed   string `json:"elapsed,omitempty"`
	Error     string `json:"error,omitempty"`
	FaultType string `json:"fault_type,omitempty"`
	Delay     string `json:"delay,omitempty"`
}

// NewJobQueuedEvent creates a job queued event
func NewJobQueuedEvent(jobID string) Event {
	return Event{
		Type:      EventJobQueued,
		Timestamp: time.Now(),
		JobID:     jobID,
		WorkerID:  NoWorker,
	}
}

// NewJobStartedEvent creates a job started event
func NewJobStartedEvent(workerID int, jobID string) Event {
	return Event{
		Type:      EventJobStarted,
		Timestamp: time.Now(),
		JobID:     jobID,
		WorkerID:  workerID,
	}
}

// NewJobFinishedEvent creates a completed or failed event depending on err
func NewJobFinishedEvent(workerID int, jobID string, elapsed time.Duration, err error) Event {
	event := Event{
		Type:      EventJobCompleted,
		Timestamp: time.Now(),
		JobID:     jobID,
		WorkerID:  workerID,
		Data: EventData{
			Elapsed: elapsed.String(),
		},
	}
	if err != nil {
		event.Type = EventJobFailed
		event.Data.Error = err.Error()
	}
	return event
}

// NewFaultInjectedEvent creates a fault injection event
func NewFaultInjectedEvent(faultType string, delay time.Duration) Event {
	event := Event{
		Type:      EventFaultInjected,
		Timestamp: time.Now(),
		WorkerID:  NoWorker,
		Data: EventData{
			FaultType: faultType,
		},
	}
	if delay > 0 {
		event.Data.Delay = delay.String()
	}
	return event
}
