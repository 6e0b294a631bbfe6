package providers

import (
	"context"
	"sync"
	"testing"
	"time"

	"aoba/events"
	"aoba/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name models.ProviderName

	mu         sync.Mutex
	activities []Activity
	polled     [][]string
	err        error
}

func (p *fakeProvider) Name() models.ProviderName {
	return p.name
}

func (p *fakeProvider) Poll(ctx context.Context, channels []string) ([]Activity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polled = append(p.polled, channels)
	return p.activities, p.err
}

func (p *fakeProvider) setActivities(activities []Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = activities
}

type fakeChannelSource struct {
	channels map[models.ProviderName][]string
}

func (s *fakeChannelSource) WatchedChannels(ctx context.Context, provider models.ProviderName) ([]string, error) {
	return s.channels[provider], nil
}

type activityRecorder struct {
	mu         sync.Mutex
	activities []events.ProviderActivityEvent
}

func newActivityRecorder(bus *events.Bus) *activityRecorder {
	r := &activityRecorder{}
	bus.Subscribe(events.EventTypeProviderActivity, func(ctx context.Context, event events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.activities = append(r.activities, event.(events.ProviderActivityEvent))
	})
	return r
}

func (r *activityRecorder) all() []events.ProviderActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.ProviderActivityEvent(nil), r.activities...)
}

func liveActivity(channel, title string) Activity {
	return Activity{
		Provider:  models.ProviderTwitch,
		ChannelID: channel,
		Event:     "live",
		Title:     title,
		URL:       "https://www.twitch.tv/" + channel,
		Author:    channel,
		StartedAt: time.Now(),
	}
}

func TestManagerTransitions(t *testing.T) {
	t.Run("first poll seeds silently", func(t *testing.T) {
		m := NewManager(nil, nil, events.NewBus(), time.Minute)

		fresh := m.transitions(models.ProviderTwitch, []Activity{liveActivity("shroud", "fps")})
		assert.Empty(t, fresh)
	})

	t.Run("only new activity is returned after seeding", func(t *testing.T) {
		m := NewManager(nil, nil, events.NewBus(), time.Minute)
		m.transitions(models.ProviderTwitch, nil)

		first := m.transitions(models.ProviderTwitch, []Activity{liveActivity("shroud", "fps")})
		require.Len(t, first, 1)
		assert.Equal(t, "shroud", first[0].ChannelID)

		// Still live, so no repeat announcement
		second := m.transitions(models.ProviderTwitch, []Activity{liveActivity("shroud", "fps")})
		assert.Empty(t, second)
	})

	t.Run("going offline and live again announces again", func(t *testing.T) {
		m := NewManager(nil, nil, events.NewBus(), time.Minute)
		m.transitions(models.ProviderTwitch, nil)

		m.transitions(models.ProviderTwitch, []Activity{liveActivity("shroud", "fps")})
		m.transitions(models.ProviderTwitch, nil)

		again := m.transitions(models.ProviderTwitch, []Activity{liveActivity("shroud", "fps")})
		assert.Len(t, again, 1)
	})

	t.Run("providers track state independently", func(t *testing.T) {
		m := NewManager(nil, nil, events.NewBus(), time.Minute)
		m.transitions(models.ProviderTwitch, nil)
		m.transitions(models.ProviderPicarto, nil)

		m.transitions(models.ProviderTwitch, []Activity{liveActivity("shroud", "fps")})

		picarto := liveActivity("artist", "drawing")
		picarto.Provider = models.ProviderPicarto
		fresh := m.transitions(models.ProviderPicarto, []Activity{picarto})
		assert.Len(t, fresh, 1)
	})
}

func TestManagerPolling(t *testing.T) {
	t.Run("polls watched channels and emits transitions", func(t *testing.T) {
		provider := &fakeProvider{name: models.ProviderTwitch}
		source := &fakeChannelSource{channels: map[models.ProviderName][]string{
			models.ProviderTwitch: {"shroud", "lirik"},
		}}
		bus := events.NewBus()
		recorder := newActivityRecorder(bus)

		m := NewManager([]Provider{provider}, source, bus, time.Minute)

		ctx := context.Background()
		m.pollOnce(ctx, provider)

		provider.setActivities([]Activity{liveActivity("lirik", "variety")})
		m.pollOnce(ctx, provider)

		activities := recorder.all()
		require.Len(t, activities, 1)
		assert.Equal(t, models.ProviderTwitch, activities[0].Provider)
		assert.Equal(t, "lirik", activities[0].ChannelID)
		assert.Equal(t, "live", activities[0].Event)

		provider.mu.Lock()
		defer provider.mu.Unlock()
		require.Len(t, provider.polled, 2)
		assert.Equal(t, []string{"shroud", "lirik"}, provider.polled[0])
	})

	t.Run("skips polling when nothing is watched", func(t *testing.T) {
		provider := &fakeProvider{name: models.ProviderTwitch}
		source := &fakeChannelSource{channels: map[models.ProviderName][]string{}}

		m := NewManager([]Provider{provider}, source, events.NewBus(), time.Minute)
		m.pollOnce(context.Background(), provider)

		provider.mu.Lock()
		defer provider.mu.Unlock()
		assert.Empty(t, provider.polled)
	})

	t.Run("poll errors do not emit", func(t *testing.T) {
		provider := &fakeProvider{name: models.ProviderTwitch, err: assert.AnError}
		source := &fakeChannelSource{channels: map[models.ProviderName][]string{
			models.ProviderTwitch: {"shroud"},
		}}
		bus := events.NewBus()
		recorder := newActivityRecorder(bus)

		m := NewManager([]Provider{provider}, source, bus, time.Minute)
		m.pollOnce(context.Background(), provider)

		assert.Empty(t, recorder.all())
	})
}

func TestManagerLifecycle(t *testing.T) {
	provider := &fakeProvider{name: models.ProviderTwitch}
	source := &fakeChannelSource{channels: map[models.ProviderName][]string{
		models.ProviderTwitch: {"shroud"},
	}}

	m := NewManager([]Provider{provider}, source, events.NewBus(), time.Hour)
	m.Start()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		provider.mu.Lock()
		polls := len(provider.polled)
		provider.mu.Unlock()
		if polls >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.Stop()

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.GreaterOrEqual(t, len(provider.polled), 1)
}
