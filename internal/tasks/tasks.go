// Package tasks dispatches fire-and-forget background work: customer
// notifications and model retraining. Dispatch is at-least-once via a Redis
// list queue consumed by fleetworker; an in-process bus dispatcher backs
// broker-less development runs.
package tasks

import (
	"fmt"
	"time"
)

// Task names on the queue.
const (
	TaskSendNotification = "send_notification"
	TaskRetrainModel     = "retrain_model"
)

// QueueKey is the Redis list both dispatcher and worker agree on.
const QueueKey = "fleet:tasks"

// Task is one queued unit of work.
type Task struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Args       map[string]string `json:"args"`
	Attempts   int               `json:"attempts"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// DispatchError marks a failure to hand work to the broker. It is the only
// dispatch failure the orchestrator swallows; anything else indicates a
// programming error and is logged loudly instead.
type DispatchError struct {
	Task string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Task, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
