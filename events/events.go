package events

import (
	"context"
	"sync"
	"time"

	"aoba/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeFeedItemNew      EventType = "feed_item_new"
	EventTypeFeedError        EventType = "feed_error"
	EventTypeProviderActivity EventType = "provider_activity"
	EventTypeGuildJoined      EventType = "guild_joined"
	EventTypeGuildRemoved     EventType = "guild_removed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// FeedItemNewEvent is emitted for each feed entry not previously seen
type FeedItemNewEvent struct {
	FeedURL     string
	Link        string
	Title       string
	GUID        string
	Description string
	Author      string
	Published   *time.Time
}

func (e FeedItemNewEvent) Type() EventType {
	return EventTypeFeedItemNew
}

// FeedErrorEvent is emitted when a fetch or parse fails; the subscription
// keeps polling
type FeedErrorEvent struct {
	FeedURL string
	Err     error
}

func (e FeedErrorEvent) Type() EventType {
	return EventTypeFeedError
}

// ProviderActivityEvent is emitted when a polled provider observes new
// activity on a watched upstream channel
type ProviderActivityEvent struct {
	Provider  models.ProviderName
	ChannelID string
	Event     string
	Title     string
	URL       string
	Author    string
	StartedAt time.Time
}

func (e ProviderActivityEvent) Type() EventType {
	return EventTypeProviderActivity
}

// GuildJoinedEvent is emitted when the bot joins a guild
type GuildJoinedEvent struct {
	GuildID int64
	Name    string
}

func (e GuildJoinedEvent) Type() EventType {
	return EventTypeGuildJoined
}

// GuildRemovedEvent is emitted when the bot leaves a guild
type GuildRemovedEvent struct {
	GuildID int64
}

func (e GuildRemovedEvent) Type() EventType {
	return EventTypeGuildRemoved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously in subscription order so feed items reach subscribers in
// the order they were fetched.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. A panicking handler
// is logged and does not stop delivery to the remaining handlers.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
