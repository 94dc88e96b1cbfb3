package scraper

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func collectEvents(ch <-chan ProgressEvent, max int, timeout time.Duration) []ProgressEvent {
	var events []ProgressEvent
	deadline := time.After(timeout)
	for len(events) < max {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		case <-deadline:
			return events
		}
	}
	return events
}

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe("s1")
	defer unsubscribe()

	statuses := []Status{StatusInitializing, StatusLogin, StatusLoginSuccess}
	for _, status := range statuses {
		bus.Emit(ProgressEvent{SessionID: "s1", Status: status})
	}

	events := collectEvents(ch, len(statuses), time.Second)
	if len(events) != len(statuses) {
		t.Fatalf("got %d events, want %d", len(events), len(statuses))
	}
	for i, status := range statuses {
		if events[i].Status != status {
			t.Errorf("event %d = %s, want %s", i, events[i].Status, status)
		}
		if events[i].Timestamp.IsZero() {
			t.Errorf("event %d has zero timestamp", i)
		}
	}
}

func TestBusSessionIsolation(t *testing.T) {
	bus := NewBus()
	ch1, unsub1 := bus.Subscribe("s1")
	defer unsub1()
	ch2, unsub2 := bus.Subscribe("s2")
	defer unsub2()

	bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusLogin})

	if got := collectEvents(ch1, 1, time.Second); len(got) != 1 {
		t.Fatalf("s1 got %d events, want 1", len(got))
	}
	select {
	case event := <-ch2:
		t.Errorf("s2 received event for s1: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe("s1")

	bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusLogin})
	if got := collectEvents(ch, 1, time.Second); len(got) != 1 {
		t.Fatalf("got %d events before unsubscribe, want 1", len(got))
	}

	unsubscribe()
	// Channel must be closed; a second call must not panic.
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}

	// Emitting after unsubscribe must not panic either.
	bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusCompleted})
}

func TestBusCloseSession(t *testing.T) {
	bus := NewBus()
	ch1, unsub1 := bus.Subscribe("s1")
	ch2, unsub2 := bus.Subscribe("s1")
	defer unsub1()
	defer unsub2()

	bus.CloseSession("s1")

	if _, ok := <-ch1; ok {
		t.Error("first channel still open after CloseSession")
	}
	if _, ok := <-ch2; ok {
		t.Error("second channel still open after CloseSession")
	}
}

func TestBusSinkReceivesAllSessions(t *testing.T) {
	bus := NewBus()
	var seen []string
	bus.RegisterSink(func(event ProgressEvent) {
		seen = append(seen, event.SessionID)
	})

	bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusLogin})
	bus.Emit(ProgressEvent{SessionID: "s2", Status: StatusLogin})

	if len(seen) != 2 || seen[0] != "s1" || seen[1] != "s2" {
		t.Errorf("sink saw %v, want [s1 s2]", seen)
	}
}

func TestNilBusIsNoOp(t *testing.T) {
	var bus *Bus
	bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusLogin})
	bus.RegisterSink(func(ProgressEvent) {})
	bus.CloseSession("s1")

	ch, unsubscribe := bus.Subscribe("s1")
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("nil bus subscription returned an open channel")
	}
}

func TestBusEmitConcurrentWithUnsubscribe(t *testing.T) {
	// Listeners detach (SSE clients disconnecting, sessions closing) while a
	// run keeps emitting. Emit must never hit a closed channel.
	bus := NewBus()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for e := 0; e < 4; e++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusProcessingCourse})
				}
			}
		}()
	}

	for i := 0; i < 5000; i++ {
		_, unsubscribe := bus.Subscribe("s1")
		unsubscribe()

		if i%10 == 0 {
			// Leave a listener behind and let CloseSession reap it.
			bus.Subscribe("s1")
			bus.CloseSession("s1")
		}
	}

	close(done)
	wg.Wait()
}

func TestBusConcurrentSessions(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(session string) {
			defer wg.Done()
			ch, unsubscribe := bus.Subscribe(session)
			defer unsubscribe()

			for i := 0; i < 20; i++ {
				bus.Emit(ProgressEvent{SessionID: session, Status: StatusGroupProcessed})
			}
			if got := collectEvents(ch, 20, time.Second); len(got) != 20 {
				t.Errorf("session %s got %d events, want 20", session, len(got))
			}
		}(fmt.Sprintf("s%d", s))
	}
	wg.Wait()
}

func TestBusSlowListenerDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe("s1")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < listenerBuffer*2; i++ {
			bus.Emit(ProgressEvent{SessionID: "s1", Status: StatusProcessingCourse})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow listener")
	}

	if got := len(ch); got > listenerBuffer {
		t.Errorf("buffered %d events, want at most %d", got, listenerBuffer)
	}
}
