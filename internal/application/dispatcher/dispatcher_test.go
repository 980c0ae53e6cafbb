package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/domain/event"
)

func TestDispatchRunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	var order []string
	d.SubscribeNamed(event.TypeTransitionApplied, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeTransitionApplied, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	evt := event.NewEvent(event.TypeTransitionApplied, "rep-1", "tu-1", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers ran in order %v, want [first second]", order)
	}
}

func TestDispatchStopsOnError(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	var secondRan bool
	d.SubscribeNamed(event.TypeReportCompleted, "failing", func(ctx context.Context, evt *event.Event) error {
		return errors.New("boom")
	})
	d.SubscribeNamed(event.TypeReportCompleted, "never", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	evt := event.NewEvent(event.TypeReportCompleted, "rep-1", "coord-1", nil)
	err := d.Dispatch(context.Background(), evt)
	if err == nil {
		t.Fatal("Dispatch() should return handler error")
	}
	if secondRan {
		t.Error("handlers after a failure should not run")
	}
}

func TestDispatchIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	evt := event.NewEvent(event.TypeRevisionRequested, "rep-1", "coord-1", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Errorf("Dispatch() with no handlers error = %v", err)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	d.Subscribe(event.TypeTransitionApplied, func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	evt := event.NewEvent(event.TypeTransitionApplied, "rep-1", "tu-1", nil)
	err := d.Dispatch(context.Background(), evt)
	if err == nil {
		t.Fatal("Dispatch() should surface a recovered panic as error")
	}
}

func TestDispatchAsyncCompletesBeforeClose(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var count atomic.Int32
	d.Subscribe(event.TypeTransitionApplied, func(ctx context.Context, evt *event.Event) error {
		time.Sleep(10 * time.Millisecond)
		count.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		evt := event.NewEvent(event.TypeTransitionApplied, "rep-1", "tu-1", nil)
		d.DispatchAsync(context.Background(), evt)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := count.Load(); got != 5 {
		t.Errorf("async handlers completed = %d, want 5", got)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	evt := event.NewEvent(event.TypeTransitionApplied, "rep-1", "tu-1", nil)
	if err := d.Dispatch(context.Background(), evt); err == nil {
		t.Error("Dispatch() after Close should fail")
	}

	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
}
