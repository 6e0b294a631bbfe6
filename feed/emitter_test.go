package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"aoba/events"
	"aoba/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	mu     sync.Mutex
	items  []events.FeedItemNewEvent
	errors []events.FeedErrorEvent
}

func newEventRecorder(bus *events.Bus) *eventRecorder {
	r := &eventRecorder{}
	bus.Subscribe(events.EventTypeFeedItemNew, func(ctx context.Context, event events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.items = append(r.items, event.(events.FeedItemNewEvent))
	})
	bus.Subscribe(events.EventTypeFeedError, func(ctx context.Context, event events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errors = append(r.errors, event.(events.FeedErrorEvent))
	})
	return r
}

func (r *eventRecorder) itemTitles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.items))
	for i, item := range r.items {
		titles[i] = item.Title
	}
	return titles
}

func (r *eventRecorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newTestEmitter(client HTTPClient) (*Emitter, *events.Bus) {
	bus := events.NewBus()
	return NewEmitter(NewFetcherWithClient(client), bus, metrics.NewCollector()), bus
}

func TestEmitter_Subscribe(t *testing.T) {
	t.Run("first fetch emits every item in fetch order", func(t *testing.T) {
		client := newStubClient()
		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/a", "First", ""),
			rssItem("https://example.com/b", "Second", ""),
		))

		emitter, bus := newTestEmitter(client)
		defer emitter.Dispose()
		recorder := newEventRecorder(bus)

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: time.Hour})

		waitFor(t, time.Second, func() bool { return len(recorder.itemTitles()) == 2 })
		assert.Equal(t, []string{"First", "Second"}, recorder.itemTitles())
	})

	t.Run("ignore first suppresses the initial fetch only", func(t *testing.T) {
		client := newStubClient()
		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/a", "Old", ""),
		))

		emitter, bus := newTestEmitter(client)
		defer emitter.Dispose()
		recorder := newEventRecorder(bus)

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: 20 * time.Millisecond, IgnoreFirst: true})

		waitFor(t, time.Second, func() bool { return client.requestCount() >= 1 })

		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/b", "New", ""),
			rssItem("https://example.com/a", "Old", ""),
		))

		waitFor(t, time.Second, func() bool { return len(recorder.itemTitles()) == 1 })
		assert.Equal(t, []string{"New"}, recorder.itemTitles())
	})

	t.Run("repeated fetches emit each item exactly once", func(t *testing.T) {
		client := newStubClient()
		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/a", "First", ""),
		))

		emitter, bus := newTestEmitter(client)
		defer emitter.Dispose()
		recorder := newEventRecorder(bus)

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: 10 * time.Millisecond})

		waitFor(t, time.Second, func() bool { return client.requestCount() >= 4 })
		assert.Equal(t, []string{"First"}, recorder.itemTitles())
	})

	t.Run("resubscribing replaces the polling loop", func(t *testing.T) {
		client := newStubClient()
		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/a", "First", ""),
		))

		emitter, bus := newTestEmitter(client)
		defer emitter.Dispose()
		recorder := newEventRecorder(bus)

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: time.Hour})
		waitFor(t, time.Second, func() bool { return client.requestCount() >= 1 })

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: time.Hour})
		waitFor(t, time.Second, func() bool { return client.requestCount() >= 2 })

		// The replacement loop starts with fresh history, so the same item
		// is announced again, but only once per loop
		assert.Equal(t, []string{"First", "First"}, recorder.itemTitles())
	})

	t.Run("fetch errors emit feed error and polling continues", func(t *testing.T) {
		client := newStubClient()
		client.serve("https://example.com/feed", http.StatusInternalServerError, "boom")

		emitter, bus := newTestEmitter(client)
		defer emitter.Dispose()
		recorder := newEventRecorder(bus)

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: 10 * time.Millisecond})

		waitFor(t, time.Second, func() bool { return recorder.errorCount() >= 1 })

		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/a", "Recovered", ""),
		))

		waitFor(t, time.Second, func() bool { return len(recorder.itemTitles()) == 1 })
		assert.Equal(t, []string{"Recovered"}, recorder.itemTitles())
	})
}

func TestEmitter_Unsubscribe(t *testing.T) {
	t.Run("stops the polling loop", func(t *testing.T) {
		client := newStubClient()
		client.serve("https://example.com/feed", http.StatusOK, rssFeed(
			rssItem("https://example.com/a", "First", ""),
		))

		emitter, _ := newTestEmitter(client)
		defer emitter.Dispose()

		emitter.Subscribe(Config{URL: "https://example.com/feed", Refresh: 10 * time.Millisecond})
		waitFor(t, time.Second, func() bool { return client.requestCount() >= 1 })

		emitter.Unsubscribe("https://example.com/feed")
		assert.False(t, emitter.Subscribed("https://example.com/feed"))

		count := client.requestCount()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, count, client.requestCount())
	})

	t.Run("unknown url is a no-op", func(t *testing.T) {
		emitter, _ := newTestEmitter(newStubClient())
		emitter.Unsubscribe("https://example.com/unknown")
	})
}

func TestSubscriptionIngest(t *testing.T) {
	makeItems := func(n, offset int) []Item {
		items := make([]Item, n)
		for i := range items {
			items[i] = Item{
				Link:  fmt.Sprintf("https://example.com/%d", offset+i),
				Title: fmt.Sprintf("Post %d", offset+i),
			}
		}
		return items
	}

	t.Run("history is bounded by fetch size times multiplier", func(t *testing.T) {
		sub := &subscription{seen: make(map[string]bool)}

		for batch := 0; batch < 10; batch++ {
			sub.ingest(makeItems(5, batch*5), 3)
		}

		assert.Len(t, sub.history, 15)
		assert.Len(t, sub.seen, 15)
	})

	t.Run("evicted items can be announced again", func(t *testing.T) {
		sub := &subscription{seen: make(map[string]bool)}

		first := makeItems(2, 0)
		sub.ingest(first, 1)

		// Push the originals out of the window
		sub.ingest(makeItems(2, 10), 1)

		newItems, _ := sub.ingest(first, 1)
		require.Len(t, newItems, 2)
		assert.Equal(t, first[0].key(), newItems[0].key())
	})

	t.Run("retained items are not re-announced", func(t *testing.T) {
		sub := &subscription{seen: make(map[string]bool)}

		items := makeItems(3, 0)
		newItems, _ := sub.ingest(items, 3)
		assert.Len(t, newItems, 3)

		newItems, _ = sub.ingest(items, 3)
		assert.Empty(t, newItems)
	})

	t.Run("suppression applies to the first ingest only", func(t *testing.T) {
		sub := &subscription{seen: make(map[string]bool), ignoreFirst: true}

		_, suppress := sub.ingest(makeItems(2, 0), 3)
		assert.True(t, suppress)

		_, suppress = sub.ingest(makeItems(2, 2), 3)
		assert.False(t, suppress)
	})
}
