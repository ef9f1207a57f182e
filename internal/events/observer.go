package events

import "time"

// Observer publishes worker pool lifecycle callbacks onto a Bus.
// It satisfies worker.Observer.
type Observer struct {
	bus        *Bus
	skipQueued bool
}

// NewObserver creates an Observer publishing to bus
func NewObserver(bus *Bus) *Observer {
	return &Observer{bus: bus}
}

// SkipQueued suppresses job_queued events, which dominate busy streams
func (o *Observer) SkipQueued() *Observer {
	o.skipQueued = true
	return o
}

// JobQueued publishes a job_queued event unless SkipQueued was set
func (o *Observer) JobQueued(jobID string) {
	if o.skipQueued {
		return
	}
	o.bus.Publish(NewJobQueuedEvent(jobID))
}

// JobStarted publishes a job_started event
func (o *Observer) JobStarted(workerID int, jobID string) {
	o.bus.Publish(NewJobStartedEvent(workerID, jobID))
}

// JobFinished publishes job_completed, or job_failed when err is non-nil
func (o *Observer) JobFinished(workerID int, jobID string, elapsed time.Duration, err error) {
	o.bus.Publish(NewJobFinishedEvent(workerID, jobID, elapsed, err))
}
