package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []string
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		got = append(got, "first:"+event.TicketID)
		return nil
	})
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		got = append(got, "second:"+event.TicketID)
		return nil
	})
	dispatcher.Subscribe(EventTicketStatusChanged, func(ctx context.Context, event Event) error {
		got = append(got, "wrong-type")
		return nil
	})

	if err := dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
	if got[0] != "first:t1" || got[1] != "second:t1" {
		t.Errorf("deliveries = %v, want ordered per subscription", got)
	}
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var reached bool
	dispatcher.Subscribe(EventTicketAssigned, func(ctx context.Context, event Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketAssigned, func(ctx context.Context, event Event) error {
		reached = true
		return nil
	})

	if err := dispatcher.Publish(context.Background(), Event{Type: EventTicketAssigned}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !reached {
		t.Error("later handler not invoked after earlier handler error")
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	if err := dispatcher.Publish(context.Background(), Event{Type: EventTicketSolutionSet}); err != nil {
		t.Fatalf("Publish with no subscribers: %v", err)
	}
}
