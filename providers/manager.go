package providers

import (
	"context"
	"sync"
	"time"

	"aoba/events"
	"aoba/models"

	log "github.com/sirupsen/logrus"
)

// ChannelSource yields the union of upstream channels any guild watches for
// a provider. The manager polls exactly this set.
type ChannelSource interface {
	WatchedChannels(ctx context.Context, provider models.ProviderName) ([]string, error)
}

// Manager runs one polling loop per provider and emits a ProviderActivity
// event on each transition from inactive to active. An activity that stays
// up across polls is announced once.
type Manager struct {
	providers []Provider
	source    ChannelSource
	bus       *events.Bus
	interval  time.Duration

	mu     sync.Mutex
	active map[models.ProviderName]map[string]bool
	seeded map[models.ProviderName]bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(providers []Provider, source ChannelSource, bus *events.Bus, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Manager{
		providers: providers,
		source:    source,
		bus:       bus,
		interval:  interval,
		active:    make(map[models.ProviderName]map[string]bool),
		seeded:    make(map[models.ProviderName]bool),
	}
}

// Start launches the polling loops. Safe to call once.
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	for _, provider := range m.providers {
		m.wg.Add(1)
		go m.run(ctx, provider)
	}
}

// Stop cancels all loops and waits for them to finish
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, provider Provider) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.pollOnce(ctx, provider)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx, provider)
		}
	}
}

func (m *Manager) pollOnce(ctx context.Context, provider Provider) {
	channels, err := m.source.WatchedChannels(ctx, provider.Name())
	if err != nil {
		log.WithError(err).WithField("provider", provider.Name()).Warn("Failed to load watched channels")
		return
	}
	if len(channels) == 0 {
		m.setActive(provider.Name(), nil)
		return
	}

	activities, err := provider.Poll(ctx, channels)
	if err != nil {
		log.WithError(err).WithField("provider", provider.Name()).Warn("Provider poll failed")
		return
	}

	for _, activity := range m.transitions(provider.Name(), activities) {
		m.bus.Emit(ctx, events.ProviderActivityEvent{
			Provider:  activity.Provider,
			ChannelID: activity.ChannelID,
			Event:     activity.Event,
			Title:     activity.Title,
			URL:       activity.URL,
			Author:    activity.Author,
			StartedAt: activity.StartedAt,
		})
	}
}

// transitions replaces the provider's active set with the latest poll and
// returns only the activities that were not active before. The first poll
// seeds the set silently so activity predating startup is not announced.
func (m *Manager) transitions(provider models.ProviderName, activities []Activity) []Activity {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.active[provider]
	current := make(map[string]bool, len(activities))

	var fresh []Activity
	for _, activity := range activities {
		key := activity.ChannelID + "\x00" + activity.Event + "\x00" + activity.URL
		current[key] = true
		if !previous[key] {
			fresh = append(fresh, activity)
		}
	}
	m.active[provider] = current

	if !m.seeded[provider] {
		m.seeded[provider] = true
		return nil
	}
	return fresh
}

func (m *Manager) setActive(provider models.ProviderName, channels map[string]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[provider] = channels
}
