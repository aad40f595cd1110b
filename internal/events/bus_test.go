package events

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	b := NewBus(zerolog.Nop())

	var order []int
	b.Subscribe(TopicItemDeleted, func(Event) { order = append(order, 1) })
	b.Subscribe(TopicItemDeleted, func(Event) { order = append(order, 2) })
	b.Subscribe(TopicItemDeleted, func(Event) { order = append(order, 3) })

	b.Publish(ItemDeleted{ItemID: "x"})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestBus_PanickingListenerDoesNotBlockOthers(t *testing.T) {
	b := NewBus(zerolog.Nop())

	ran := false
	b.Subscribe(TopicItemSaved, func(Event) { panic("listener bug") })
	b.Subscribe(TopicItemSaved, func(Event) { ran = true })

	b.Publish(ItemSaved{ItemID: "a"})

	if !ran {
		t.Fatalf("second listener did not run after first panicked")
	}
}

func TestBus_TopicIsolation(t *testing.T) {
	b := NewBus(zerolog.Nop())

	var got Event
	b.Subscribe(TopicQuotaWarning, func(e Event) { got = e })

	b.Publish(ItemDeleted{ItemID: "x"})
	if got != nil {
		t.Fatalf("listener received event from another topic: %v", got)
	}

	b.Publish(QuotaWarning{})
	if _, ok := got.(QuotaWarning); !ok {
		t.Fatalf("expected QuotaWarning, got %T", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(zerolog.Nop())

	calls := 0
	unsub := b.Subscribe(TopicSettingsChanged, func(Event) { calls++ })

	b.Publish(SettingsChanged{})
	unsub()
	b.Publish(SettingsChanged{})

	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestBus_CloseDetachesAll(t *testing.T) {
	b := NewBus(zerolog.Nop())

	calls := 0
	b.Subscribe(TopicItemDeleted, func(Event) { calls++ })
	b.Close()
	b.Publish(ItemDeleted{ItemID: "x"})
	b.Subscribe(TopicItemDeleted, func(Event) { calls++ })
	b.Publish(ItemDeleted{ItemID: "y"})

	if calls != 0 {
		t.Fatalf("expected no deliveries after Close, got %d", calls)
	}
}
