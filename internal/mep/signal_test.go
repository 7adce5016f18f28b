package mep

import "testing"

func TestSignal_SubscribeEmitReceive(t *testing.T) {
	s := NewSignal[int]()
	defer s.Close()

	id, ch := s.Subscribe()
	if id == "" {
		t.Fatal("expected a non-empty subscription id")
	}

	s.Emit(42)

	select {
	case v := <-ch:
		if v != 42 {
			t.Fatalf("received %d, want 42", v)
		}
	default:
		t.Fatal("no event buffered after Emit")
	}
}

func TestSignal_Unsubscribe(t *testing.T) {
	s := NewSignal[string]()
	defer s.Close()

	id, ch := s.Subscribe()
	s.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Fatal("channel still open after Unsubscribe")
	}
	if n := s.SubscriberCount(); n != 0 {
		t.Fatalf("SubscriberCount() = %d, want 0", n)
	}

	// Emitting with no subscribers must not panic
	s.Emit("x")
}

func TestSignal_DropsWhenSubscriberFull(t *testing.T) {
	s := NewSignal[int]()
	defer s.Close()

	_, ch := s.Subscribe()
	for i := 0; i < signalBuffer+5; i++ {
		s.Emit(i)
	}

	got := 0
	for {
		select {
		case <-ch:
			got++
			continue
		default:
		}
		break
	}
	if got != signalBuffer {
		t.Fatalf("received %d events, want %d (overflow dropped)", got, signalBuffer)
	}
}

func TestSignal_Close(t *testing.T) {
	s := NewSignal[int]()

	_, ch := s.Subscribe()
	s.Close()

	if _, open := <-ch; open {
		t.Fatal("channel still open after Close")
	}

	// Emit after close is dropped
	s.Emit(1)

	// Subscribe after close yields a closed channel
	_, late := s.Subscribe()
	if _, open := <-late; open {
		t.Fatal("post-close subscription channel is open")
	}

	// Close is idempotent
	s.Close()
}

func TestSignal_MultipleSubscribersEachReceive(t *testing.T) {
	s := NewSignal[int]()
	defer s.Close()

	_, a := s.Subscribe()
	_, b := s.Subscribe()

	s.Emit(7)

	for name, ch := range map[string]chan int{"a": a, "b": b} {
		select {
		case v := <-ch:
			if v != 7 {
				t.Errorf("subscriber %s received %d, want 7", name, v)
			}
		default:
			t.Errorf("subscriber %s received nothing", name)
		}
	}
}
