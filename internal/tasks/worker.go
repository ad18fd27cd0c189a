package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

const (
	popTimeout  = 5 * time.Second
	maxAttempts = 3
)

// Notifier delivers a rendered message to a customer.
type Notifier interface {
	Notify(ctx context.Context, channel, destination, message string) error
}

// LogNotifier writes the message to the structured log instead of an
// external provider. Stands in until an SMS/voice gateway is attached.
type LogNotifier struct {
	Logger *structlog.Logger
}

func (n LogNotifier) Notify(_ context.Context, channel, destination, message string) error {
	n.Logger.Info("notification delivered", structlog.Fields{
		"channel":     channel,
		"destination": destination,
		"message":     message,
	})
	return nil
}

// Worker consumes tasks from the Redis queue.
type Worker struct {
	rdb      *redis.Client
	queue    string
	notifier Notifier
	logger   *structlog.Logger

	processed func(name, result string)
}

// NewWorker constructs a Worker. processed may be nil.
func NewWorker(rdb *redis.Client, notifier Notifier, logger *structlog.Logger) *Worker {
	return &Worker{
		rdb:      rdb,
		queue:    QueueKey,
		notifier: notifier,
		logger:   logger,
		processed: func(name, result string) {
			tasksProcessedTotal.WithLabelValues(name, result).Inc()
		},
	}
}

// Run blocks until ctx is canceled, popping one task at a time.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", structlog.Fields{"queue": w.queue})
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		vals, err := w.rdb.BRPop(ctx, popTimeout, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.logger.Error("queue pop failed", structlog.Fields{"error": err.Error()})
			time.Sleep(time.Second)
			continue
		}
		if len(vals) != 2 {
			continue
		}
		w.handleRaw(ctx, []byte(vals[1]))
	}
}

func (w *Worker) handleRaw(ctx context.Context, raw []byte) {
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		w.logger.Error("malformed task dropped", structlog.Fields{"error": err.Error()})
		w.processed("unknown", "malformed")
		return
	}
	if err := w.Handle(ctx, t); err != nil {
		t.Attempts++
		if t.Attempts >= maxAttempts {
			w.logger.Error("task dropped after retries", structlog.Fields{
				"task": t.Name, "id": t.ID, "attempts": t.Attempts, "error": err.Error(),
			})
			w.processed(t.Name, "dropped")
			return
		}
		w.logger.Warn("task re-queued", structlog.Fields{
			"task": t.Name, "id": t.ID, "attempts": t.Attempts, "error": err.Error(),
		})
		payload, _ := json.Marshal(t)
		if perr := w.rdb.LPush(ctx, w.queue, payload).Err(); perr != nil {
			w.logger.Error("re-queue failed", structlog.Fields{"task": t.Name, "error": perr.Error()})
		}
		w.processed(t.Name, "requeued")
		return
	}
	w.processed(t.Name, "ok")
}

// Handle executes a single task.
func (w *Worker) Handle(ctx context.Context, t Task) error {
	switch t.Name {
	case TaskSendNotification:
		return w.notifier.Notify(ctx, t.Args["channel"], t.Args["destination"], t.Args["message"])
	case TaskRetrainModel:
		// Training runs out of band; the queue entry only records the request.
		w.logger.Info("retrain requested", structlog.Fields{
			"model_path":   t.Args["model_path"],
			"encoder_path": t.Args["encoder_path"],
		})
		return nil
	default:
		w.logger.Warn("unknown task", structlog.Fields{"task": t.Name})
		return nil
	}
}
