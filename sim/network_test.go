package sim

import (
	"math/rand"
	"testing"
	"time"
)

func newFuzzCounter() func() uint32 {
	var n uint32
	return func() uint32 { n++; return n }
}

func TestNetworkStack_NormalQueuedBecomesSent(t *testing.T) {
	ns := NewNetworkStack(Constant(0))
	sq := NewSimQueue()
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	rng := rand.New(rand.NewSource(1))

	queued := SimEvent{Event: TriggerEvent{Kind: EventNormalQueued}, Time: 10 * time.Microsecond, Client: true, Fuzz: 1}
	activity := ns.Process(sq, queued, client, server, 10*time.Microsecond, rng, newFuzzCounter())

	if activity {
		t.Error("NormalQueued should not itself count as network activity")
	}
	got, ok := sq.PeekSide(true)
	if !ok || got.Event.Kind != EventNormalSent {
		t.Fatalf("expected a NormalSent event pushed, got %+v ok=%v", got, ok)
	}
}

func TestNetworkStack_NormalSentProducesRecvOnOtherSide(t *testing.T) {
	ns := NewNetworkStack(Constant(5 * time.Microsecond))
	sq := NewSimQueue()
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	rng := rand.New(rand.NewSource(1))

	sent := SimEvent{Event: TriggerEvent{Kind: EventNormalSent}, Time: 10 * time.Microsecond, Client: true, Fuzz: 1}
	activity := ns.Process(sq, sent, client, server, 10*time.Microsecond, rng, newFuzzCounter())

	if !activity {
		t.Error("NormalSent should count as network activity")
	}
	got, ok := sq.PeekSide(false)
	if !ok || got.Event.Kind != EventNormalRecv {
		t.Fatalf("expected a NormalRecv event on the server side, got %+v ok=%v", got, ok)
	}
	if got.Time != 15*time.Microsecond {
		t.Errorf("NormalRecv time = %v, want 15µs (10µs send + 5µs network delay)", got.Time)
	}
}

func TestNetworkStack_PaddingReplaceCoalescesIntoRecentSend(t *testing.T) {
	ns := NewNetworkStack(Constant(0))
	sq := NewSimQueue()
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	client.LastSentTime = 100 * time.Microsecond
	rng := rand.New(rand.NewSource(1))

	padding := SimEvent{
		Event:   TriggerEvent{Kind: EventPaddingSent},
		Time:    100*time.Microsecond + 200*time.Nanosecond,
		Client:  true,
		Replace: true,
		Fuzz:    1,
	}
	activity := ns.Process(sq, padding, client, server, padding.Time, rng, newFuzzCounter())

	if activity {
		t.Error("coalesced padding should not be reported as network activity")
	}
	if sq.Len() != 0 {
		t.Errorf("coalesced padding should push nothing, queue len = %d", sq.Len())
	}
}

func TestNetworkStack_PaddingReplaceSwapsOntoQueuedNormalPacket(t *testing.T) {
	ns := NewNetworkStack(Constant(0))
	sq := NewSimQueue()
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	client.LastSentTime = -1000 * time.Second

	queuedNormal := SimEvent{Event: TriggerEvent{Kind: EventNormalSent}, Time: 50*time.Microsecond + 100*time.Nanosecond, Client: true, Fuzz: 1}
	sq.PushSim(queuedNormal)

	padding := SimEvent{
		Event:   TriggerEvent{Kind: EventPaddingSent},
		Time:    50 * time.Microsecond,
		Client:  true,
		Replace: true,
		Fuzz:    2,
	}
	rng := rand.New(rand.NewSource(1))
	activity := ns.Process(sq, padding, client, server, padding.Time, rng, newFuzzCounter())

	if activity {
		t.Error("a replaced send should not itself be reported as new network activity")
	}
	got, ok := sq.PeekSide(true)
	if !ok {
		t.Fatal("expected the replaced NormalSent event still queued")
	}
	if got.Event.Kind != EventNormalSent || !got.Bypass || got.Replace {
		t.Errorf("replaced event = %+v, want Bypass=true Replace=false", got)
	}
	if got.Time != padding.Time {
		t.Errorf("replaced event time = %v, want %v (padding's time)", got.Time, padding.Time)
	}
}

func TestNetworkStack_PaddingSentWithoutReplaceAlwaysTravelsWire(t *testing.T) {
	ns := NewNetworkStack(Constant(2 * time.Microsecond))
	sq := NewSimQueue()
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	rng := rand.New(rand.NewSource(1))

	padding := SimEvent{Event: TriggerEvent{Kind: EventPaddingSent}, Time: 10 * time.Microsecond, Client: true, Fuzz: 1}
	activity := ns.Process(sq, padding, client, server, 10*time.Microsecond, rng, newFuzzCounter())

	if !activity {
		t.Error("non-replacing padding should always count as network activity")
	}
	got, ok := sq.PeekSide(false)
	if !ok || got.Event.Kind != EventPaddingRecv {
		t.Fatalf("expected a PaddingRecv on the server side, got %+v ok=%v", got, ok)
	}
}

func TestNetworkStack_RecvEventsAreTerminal(t *testing.T) {
	ns := NewNetworkStack(Constant(0))
	sq := NewSimQueue()
	client := newTestState(true, 0)
	server := newTestState(false, 0)
	rng := rand.New(rand.NewSource(1))

	for _, kind := range []EventKind{EventNormalRecv, EventPaddingRecv} {
		ev := SimEvent{Event: TriggerEvent{Kind: kind}, Time: 1 * time.Microsecond, Client: true, Fuzz: 1}
		activity := ns.Process(sq, ev, client, server, 1*time.Microsecond, rng, newFuzzCounter())
		if !activity {
			t.Errorf("%s should be reported as network activity", kind)
		}
		if sq.Len() != 0 {
			t.Errorf("%s should not push anything new, queue len = %d", kind, sq.Len())
		}
	}
}
