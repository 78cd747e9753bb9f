package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before an event arrived")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubFanOut(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	defer h.Close()

	a, cancelA, err := h.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cancelA()
	b, cancelB, err := h.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cancelB()

	if n, _ := h.Subscribers(ctx); n != 2 {
		t.Errorf("Subscribers() = %d, want 2", n)
	}

	if err := h.Publish(ctx, NewEvent(EventRefresh, "And")); err != nil {
		t.Fatal(err)
	}
	for _, ch := range []<-chan Event{a, b} {
		if e := receive(t, ch); e.Type != EventRefresh || e.Module != "And" {
			t.Errorf("got %+v, want refresh for And", e)
		}
	}
}

func TestHubCancel(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	defer h.Close()

	ch, cancel, err := h.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	cancel() // second call is a no-op

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if n, _ := h.Subscribers(ctx); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestHubContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	defer h.Close()

	ch, _, err := h.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	h := NewHub()
	defer h.Close()

	_, cancel, err := h.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			_ = h.Publish(ctx, NewEvent(EventRefresh, ""))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestHubClose(t *testing.T) {
	ctx := context.Background()
	h := NewHub()

	ch, cancel, err := h.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	cancel() // safe after close

	if _, ok := <-ch; ok {
		t.Error("channel should be closed by Close")
	}
	if err := h.Publish(ctx, NewEvent(EventEnd, "")); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v, want ErrClosed", err)
	}
	if _, _, err := h.Subscribe(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrClosed", err)
	}
}

func TestHubEndReachesFullSubscriber(t *testing.T) {
	tests := []struct {
		name       string
		backlog    int
		wantQueued int
	}{
		{"empty queue", 0, 1},
		{"partial queue", subscriberBuffer / 2, subscriberBuffer/2 + 1},
		{"full queue", subscriberBuffer, subscriberBuffer},
		{"overflowing queue", subscriberBuffer * 2, subscriberBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := NewHub()
			defer h.Close()

			ch, cancel, err := h.Subscribe(ctx)
			if err != nil {
				t.Fatal(err)
			}
			defer cancel()

			for i := 0; i < tt.backlog; i++ {
				if err := h.Publish(ctx, NewEvent(EventRefresh, "Mux")); err != nil {
					t.Fatal(err)
				}
			}
			if err := h.Publish(ctx, NewEvent(EventEnd, "")); err != nil {
				t.Fatal(err)
			}

			if n := len(ch); n != tt.wantQueued {
				t.Errorf("queued = %d, want %d", n, tt.wantQueued)
			}
			var last Event
			for n := len(ch); n > 0; n-- {
				last = receive(t, ch)
			}
			if last.Type != EventEnd {
				t.Errorf("last event = %q, want %q", last.Type, EventEnd)
			}
		})
	}
}
