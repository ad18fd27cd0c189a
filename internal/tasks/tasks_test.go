package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/arjun1665/SmartFleet/pkg/eventbus"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

func TestDispatchErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DispatchError{Task: TaskSendNotification, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("DispatchError should unwrap to its cause")
	}
	var de *DispatchError
	if !errors.As(error(err), &de) {
		t.Error("errors.As should match *DispatchError")
	}
}

func TestBusDispatcherPublishes(t *testing.T) {
	bus := eventbus.NewBus(8)
	defer bus.Close()

	received := make(chan eventbus.Event, 2)
	bus.Register(chanSubscriber{ch: received})

	d := NewBusDispatcher(bus)
	if err := d.SendNotification(context.Background(), "sms", "+15550100", "hello"); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if err := d.RetrainModel(context.Background(), "m.json", "e.json"); err != nil {
		t.Fatalf("RetrainModel: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-received:
			seen[evt.Type] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	if !seen[TaskSendNotification] || !seen[TaskRetrainModel] {
		t.Errorf("events seen: %v", seen)
	}
}

type chanSubscriber struct {
	ch chan eventbus.Event
}

func (s chanSubscriber) Topics() []string { return []string{TaskSendNotification, TaskRetrainModel} }

func (s chanSubscriber) Handle(_ context.Context, evt eventbus.Event) { s.ch <- evt }

func TestWorkerHandleNotification(t *testing.T) {
	logger := structlog.New("test", structlog.LevelError, io.Discard)
	recorder := &recordingNotifier{}
	w := &Worker{notifier: recorder, logger: logger, processed: func(string, string) {}}

	err := w.Handle(context.Background(), Task{
		Name: TaskSendNotification,
		Args: map[string]string{"channel": "sms", "destination": "+15550100", "message": "hi"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if recorder.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", recorder.calls)
	}
	if recorder.lastChannel != "sms" || recorder.lastDestination != "+15550100" {
		t.Errorf("notifier got %s/%s", recorder.lastChannel, recorder.lastDestination)
	}
}

func TestWorkerHandleUnknownTask(t *testing.T) {
	logger := structlog.New("test", structlog.LevelError, io.Discard)
	w := &Worker{notifier: &recordingNotifier{}, logger: logger, processed: func(string, string) {}}

	if err := w.Handle(context.Background(), Task{Name: "mystery"}); err != nil {
		t.Fatalf("unknown tasks should be dropped without error, got %v", err)
	}
}

func TestWorkerHandleRetrain(t *testing.T) {
	logger := structlog.New("test", structlog.LevelError, io.Discard)
	w := &Worker{notifier: &recordingNotifier{}, logger: logger, processed: func(string, string) {}}

	err := w.Handle(context.Background(), Task{
		Name: TaskRetrainModel,
		Args: map[string]string{"model_path": "m.json", "encoder_path": "e.json"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

type recordingNotifier struct {
	calls           int
	lastChannel     string
	lastDestination string
}

func (n *recordingNotifier) Notify(_ context.Context, channel, destination, _ string) error {
	n.calls++
	n.lastChannel = channel
	n.lastDestination = destination
	return nil
}
