package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"aoba/models"
)

const picartoChannelURL = "https://api.picarto.tv/api/v1/channel/name/"

// PicartoProvider polls the public channel API per watched channel
type PicartoProvider struct {
	client Doer
}

func NewPicartoProvider(client Doer) *PicartoProvider {
	return &PicartoProvider{client: client}
}

func (p *PicartoProvider) Name() models.ProviderName {
	return models.ProviderPicarto
}

type picartoChannelResponse struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Online   bool   `json:"online"`
	LastLive string `json:"last_live"`
}

func (p *PicartoProvider) Poll(ctx context.Context, channels []string) ([]Activity, error) {
	var activities []Activity
	for _, channel := range channels {
		activity, err := p.pollChannel(ctx, channel)
		if err != nil {
			return nil, fmt.Errorf("picarto channel %s: %w", channel, err)
		}
		if activity != nil {
			activities = append(activities, *activity)
		}
	}
	return activities, nil
}

func (p *PicartoProvider) pollChannel(ctx context.Context, channel string) (*Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, picartoChannelURL+url.PathEscape(channel), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown channels are skipped, not fatal for the whole poll
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel request status %d", resp.StatusCode)
	}

	var info picartoChannelResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	if !info.Online {
		return nil, nil
	}

	startedAt := time.Now()
	if t, err := time.Parse("2006-01-02 15:04:05", info.LastLive); err == nil {
		startedAt = t
	}

	return &Activity{
		Provider:  models.ProviderPicarto,
		ChannelID: channel,
		Event:     "live",
		Title:     info.Title,
		URL:       "https://picarto.tv/" + info.Name,
		Author:    info.Name,
		StartedAt: startedAt,
	}, nil
}
