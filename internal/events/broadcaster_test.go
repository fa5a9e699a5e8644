package events

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[string](4)

	ch, unsubscribe := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	unsubscribe()
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	// Channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed")
		}
	default:
		t.Error("channel should be closed and readable")
	}

	// Unsubscribing twice must be safe
	unsubscribe()
}

func TestBroadcaster_Publish(t *testing.T) {
	b := NewBroadcaster[int](4)

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Publish(42)

	select {
	case got := <-ch:
		if got != 42 {
			t.Errorf("expected 42, got %d", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for publish")
	}
}

func TestBroadcaster_SlowSubscriberSkipped(t *testing.T) {
	b := NewBroadcaster[int](1)

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Publish(1)
	b.Publish(2) // buffer full, dropped

	if got := <-ch; got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	select {
	case v := <-ch:
		t.Errorf("expected no second value, got %d", v)
	default:
	}
}

func TestBroadcaster_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[int](4)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, unsubscribe := b.Subscribe()
			time.Sleep(time.Millisecond)
			unsubscribe()
		}()
	}

	wg.Wait()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after cleanup, got %d", b.SubscriberCount())
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster[int](4)
	ch, _ := b.Subscribe()

	b.Close()

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Close")
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}
}
