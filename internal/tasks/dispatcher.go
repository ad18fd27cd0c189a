package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/arjun1665/SmartFleet/pkg/eventbus"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

// Dispatcher enqueues background tasks. Implementations never block the
// caller beyond the enqueue itself; no result is ever consumed.
type Dispatcher interface {
	SendNotification(ctx context.Context, channel, destination, message string) error
	RetrainModel(ctx context.Context, modelPath, encoderPath string) error
}

// RedisDispatcher pushes tasks onto a Redis list.
type RedisDispatcher struct {
	rdb   *redis.Client
	queue string
}

// NewRedisDispatcher constructs a dispatcher over an existing client.
func NewRedisDispatcher(rdb *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb, queue: QueueKey}
}

func (d *RedisDispatcher) SendNotification(ctx context.Context, channel, destination, message string) error {
	return d.push(ctx, Task{
		ID:   uuid.New().String(),
		Name: TaskSendNotification,
		Args: map[string]string{
			"channel":     channel,
			"destination": destination,
			"message":     message,
		},
		EnqueuedAt: time.Now().UTC(),
	})
}

func (d *RedisDispatcher) RetrainModel(ctx context.Context, modelPath, encoderPath string) error {
	return d.push(ctx, Task{
		ID:   uuid.New().String(),
		Name: TaskRetrainModel,
		Args: map[string]string{
			"model_path":   modelPath,
			"encoder_path": encoderPath,
		},
		EnqueuedAt: time.Now().UTC(),
	})
}

func (d *RedisDispatcher) push(ctx context.Context, t Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		// marshal failure is a bug, not broker unavailability
		return err
	}
	if err := d.rdb.LPush(ctx, d.queue, payload).Err(); err != nil {
		return &DispatchError{Task: t.Name, Err: err}
	}
	return nil
}

// BusDispatcher publishes tasks on the in-process event bus. Used when no
// Redis broker is configured (memory store / local development).
type BusDispatcher struct {
	bus *eventbus.Bus
}

// NewBusDispatcher constructs a dispatcher over an in-process bus.
func NewBusDispatcher(bus *eventbus.Bus) *BusDispatcher { return &BusDispatcher{bus: bus} }

func (d *BusDispatcher) SendNotification(ctx context.Context, channel, destination, message string) error {
	err := d.bus.Publish(ctx, eventbus.Event{
		Type:   TaskSendNotification,
		Source: "orchestrator",
		Payload: map[string]string{
			"channel":     channel,
			"destination": destination,
			"message":     message,
		},
	})
	if err != nil {
		return &DispatchError{Task: TaskSendNotification, Err: err}
	}
	return nil
}

func (d *BusDispatcher) RetrainModel(ctx context.Context, modelPath, encoderPath string) error {
	err := d.bus.Publish(ctx, eventbus.Event{
		Type:   TaskRetrainModel,
		Source: "orchestrator",
		Payload: map[string]string{
			"model_path":   modelPath,
			"encoder_path": encoderPath,
		},
	})
	if err != nil {
		return &DispatchError{Task: TaskRetrainModel, Err: err}
	}
	return nil
}

// LogSubscriber drains bus-dispatched tasks in development runs.
type LogSubscriber struct {
	Logger *structlog.Logger
}

func (s LogSubscriber) Topics() []string { return []string{TaskSendNotification, TaskRetrainModel} }

func (s LogSubscriber) Handle(_ context.Context, evt eventbus.Event) {
	s.Logger.Info("task handled in-process", structlog.Fields{"task": evt.Type, "payload": evt.Payload})
}
