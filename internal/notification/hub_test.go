package notification

import (
	"context"
	"errors"
	"testing"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(4)
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	if err := hub.Send(context.Background(), Message{Kind: KindMessageSent, Body: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, ch := range []<-chan Message{a, b} {
		msg := <-ch
		if msg.Kind != KindMessageSent || msg.Body != "hi" {
			t.Fatalf("unexpected message %+v", msg)
		}
	}

	cancelA()
	cancelA()
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers())
	}
	if _, ok := <-a; ok {
		t.Fatal("cancelled channel must be closed")
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe()
	defer cancel()

	ctx := context.Background()
	_ = hub.Send(ctx, Message{Kind: "first"})
	_ = hub.Send(ctx, Message{Kind: "second"})

	if msg := <-ch; msg.Kind != "first" {
		t.Fatalf("expected first message, got %s", msg.Kind)
	}
	select {
	case msg := <-ch:
		t.Fatalf("expected dropped message, got %s", msg.Kind)
	default:
	}
}

type failingNotifier struct{ err error }

func (f failingNotifier) Send(context.Context, Message) error { return f.err }

func TestMultiDeliversToAll(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe()
	defer cancel()

	boom := errors.New("boom")
	m := Multi{failingNotifier{err: boom}, nil, hub}
	if err := m.Send(context.Background(), Message{Kind: KindFunded}); !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if msg := <-ch; msg.Kind != KindFunded {
		t.Fatalf("hub did not receive message")
	}
}
