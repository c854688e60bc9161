package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	done := make(chan Event, 1)
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		done <- event
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})

	select {
	case got := <-done:
		if got.EventName() != "thing.happened" {
			t.Fatalf("unexpected event: %s", got.EventName())
		}
	case <-time.After(time.Second):
		t.Fatalf("handler was not invoked")
	}
}

func TestPublishSurvivesCallerCancellation(t *testing.T) {
	bus := NewInMemoryBus(nil)

	release := make(chan struct{})
	handlerCtxErr := make(chan error, 1)
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		<-release
		handlerCtxErr <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	cancel()
	close(release)

	select {
	case err := <-handlerCtxErr:
		if err != nil {
			t.Fatalf("expected handler context to outlive the publisher, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("handler was not invoked")
	}
}

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var order []int
	for i := 1; i <= 3; i++ {
		bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
			order = append(order, i)
			return nil
		}))
	}

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected handlers in registration order, got %v", order)
	}
}

func TestPublishSyncReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus(nil)
	wantErr := errors.New("handler failed")

	var secondRan bool
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return wantErr
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		secondRan = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if secondRan {
		t.Fatalf("expected publish to stop at first error")
	}
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "nobody.cares"})
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "nobody.cares"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
