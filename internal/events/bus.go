// Package events provides the in-process publish/subscribe bus that decouples
// storage writers from UI and analytics observers. Each topic carries exactly
// one payload type, so handlers can assert the event without reflection.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepstack/keepstack/internal/model"
)

// Topic keys event routing.
type Topic string

const (
	TopicQuotaWarning    Topic = "quota:warning"
	TopicItemSaved       Topic = "item:saved"
	TopicItemDeleted     Topic = "item:deleted"
	TopicSettingsChanged Topic = "settings:changed"
	TopicBackupRestored  Topic = "backup:restored"
	TopicIndexRebuilt    Topic = "index:rebuilt"
)

// Event is implemented by every payload struct.
type Event interface {
	EventTopic() Topic
}

// QuotaWarning fires once per upward threshold crossing of a storage area.
type QuotaWarning struct {
	Usage model.QuotaUsage
}

func (QuotaWarning) EventTopic() Topic { return TopicQuotaWarning }

// ItemSaved fires after an item write, including partially failed ones.
type ItemSaved struct {
	ItemID  string
	Created bool
	Result  model.SaveResult
}

func (ItemSaved) EventTopic() Topic { return TopicItemSaved }

// ItemDeleted fires after an item has been removed from the storage areas.
// The search index prunes its postings in response.
type ItemDeleted struct {
	ItemID string
}

func (ItemDeleted) EventTopic() Topic { return TopicItemDeleted }

// SettingsChanged fires after the settings document is replaced.
type SettingsChanged struct{}

func (SettingsChanged) EventTopic() Topic { return TopicSettingsChanged }

// BackupRestored fires after a restore pass, successful or not.
type BackupRestored struct {
	BackupID string
	Areas    []model.Area
}

func (BackupRestored) EventTopic() Topic { return TopicBackupRestored }

// IndexRebuilt fires after a full index rebuild completes.
type IndexRebuilt struct {
	Items    int
	Tokens   int
	Duration time.Duration
}

func (IndexRebuilt) EventTopic() Topic { return TopicIndexRebuilt }

// Handler consumes events for one topic.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus delivers events synchronously: listeners run in registration order
// inside the publishing call. A panicking listener is recovered and logged
// and must not prevent later listeners from running.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Topic][]subscription
	log    zerolog.Logger
	closed bool
}

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{subs: make(map[Topic][]subscription), log: log}
}

// Subscribe registers a handler for a topic and returns an unsubscribe func.
func (b *Bus) Subscribe(topic Topic, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers evt to every subscriber of its topic, in registration
// order, before returning.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	list := append([]subscription(nil), b.subs[evt.EventTopic()]...)
	b.mu.Unlock()

	for _, s := range list {
		b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s subscription, evt Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().
				Interface("panic", rec).
				Str("topic", string(evt.EventTopic())).
				Msg("event listener panicked")
		}
	}()
	s.fn(evt)
}

// Close detaches all listeners. Subsequent Subscribe calls are no-ops and
// Publish delivers to nobody.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Topic][]subscription)
}
