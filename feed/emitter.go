package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"aoba/events"
	"aoba/metrics"

	log "github.com/sirupsen/logrus"
)

// defaultHistoryMultiplier scales the retained history window relative to
// the number of items observed in the latest fetch
const defaultHistoryMultiplier = 3

// Config describes one feed subscription
type Config struct {
	URL     string
	Refresh time.Duration
	// IgnoreFirst suppresses item events for the first successful fetch
	// so content that predates the subscription is not announced
	IgnoreFirst bool
}

type subscription struct {
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	history     []Item
	seen        map[string]bool
	ignoreFirst bool
}

// Emitter owns the polling loops for all subscribed feeds and publishes
// new-item and error events on the bus
type Emitter struct {
	fetcher    *Fetcher
	bus        *events.Bus
	collector  *metrics.Collector
	multiplier int

	mu   sync.Mutex
	subs map[string]*subscription
}

// NewEmitter creates an Emitter publishing on the given bus
func NewEmitter(fetcher *Fetcher, bus *events.Bus, collector *metrics.Collector) *Emitter {
	return &Emitter{
		fetcher:    fetcher,
		bus:        bus,
		collector:  collector,
		multiplier: defaultHistoryMultiplier,
		subs:       make(map[string]*subscription),
	}
}

// Subscribe registers a polling loop for cfg.URL. An existing subscription
// for the same URL is canceled and replaced, so no two loops ever poll one
// URL concurrently. The first fetch happens immediately.
func (e *Emitter) Subscribe(cfg Config) {
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Minute
	}

	e.mu.Lock()
	if old, ok := e.subs[cfg.URL]; ok {
		old.cancel()
		<-old.done
		log.WithField("url", cfg.URL).Info("Replacing feed subscription")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		cfg:         cfg,
		cancel:      cancel,
		done:        make(chan struct{}),
		seen:        make(map[string]bool),
		ignoreFirst: cfg.IgnoreFirst,
	}
	e.subs[cfg.URL] = sub
	e.mu.Unlock()

	go e.run(ctx, sub)
}

// Unsubscribe cancels the polling loop for url and drops its history.
// No-op if the URL is not subscribed.
func (e *Emitter) Unsubscribe(url string) {
	e.mu.Lock()
	sub, ok := e.subs[url]
	if ok {
		delete(e.subs, url)
	}
	e.mu.Unlock()

	if ok {
		sub.cancel()
		<-sub.done
	}
}

// Subscribed reports whether a polling loop exists for url
func (e *Emitter) Subscribed(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.subs[url]
	return ok
}

// Dispose cancels every subscription
func (e *Emitter) Dispose() {
	e.mu.Lock()
	subs := make([]*subscription, 0, len(e.subs))
	for url, sub := range e.subs {
		subs = append(subs, sub)
		delete(e.subs, url)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}
}

// run polls one subscription until its context is canceled. Fetches for a
// single URL are strictly sequential: the next tick is only consumed after
// the previous fetch settles.
func (e *Emitter) run(ctx context.Context, sub *subscription) {
	defer close(sub.done)

	e.poll(ctx, sub)

	ticker := time.NewTicker(sub.cfg.Refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.poll(ctx, sub)
		}
	}
}

func (e *Emitter) poll(ctx context.Context, sub *subscription) {
	items, err := e.fetcher.Fetch(ctx, sub.cfg.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			e.collector.RecordFeedFetch("parse_error")
		} else {
			e.collector.RecordFeedFetch("http_error")
		}

		log.WithError(err).WithField("url", sub.cfg.URL).Warn("Feed fetch failed")
		e.bus.Emit(ctx, events.FeedErrorEvent{FeedURL: sub.cfg.URL, Err: err})
		return
	}
	e.collector.RecordFeedFetch("ok")

	newItems, suppress := sub.ingest(items, e.multiplier)
	if suppress {
		return
	}

	for _, item := range newItems {
		e.bus.Emit(ctx, events.FeedItemNewEvent{
			FeedURL:     sub.cfg.URL,
			Link:        item.Link,
			Title:       item.Title,
			GUID:        item.GUID,
			Description: item.Description,
			Author:      item.Author,
			Published:   item.Published,
		})
	}
}

// ingest records a successful fetch: it identifies the items whose identity
// key is absent from history, appends them in fetch order, recomputes the
// history cap as len(fetched)×multiplier and trims oldest-first. The second
// return value is true when this fetch's emissions are suppressed (the
// designated first fetch of an IgnoreFirst subscription).
func (s *subscription) ingest(fetched []Item, multiplier int) ([]Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newItems []Item
	for _, item := range fetched {
		if s.seen[item.key()] {
			continue
		}
		s.seen[item.key()] = true
		s.history = append(s.history, item)
		newItems = append(newItems, item)
	}

	// The retained window tracks observed feed volume
	maxHistory := len(fetched) * multiplier
	if excess := len(s.history) - maxHistory; excess > 0 {
		for _, evicted := range s.history[:excess] {
			delete(s.seen, evicted.key())
		}
		s.history = append([]Item(nil), s.history[excess:]...)
	}

	suppress := s.ignoreFirst
	s.ignoreFirst = false
	return newItems, suppress
}
