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

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

// YouTubeProvider polls the Data API for recent uploads per channel
type YouTubeProvider struct {
	apiKey string
	client Doer
}

func NewYouTubeProvider(apiKey string, client Doer) *YouTubeProvider {
	return &YouTubeProvider{apiKey: apiKey, client: client}
}

func (p *YouTubeProvider) Name() models.ProviderName {
	return models.ProviderYouTube
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			ChannelID    string    `json:"channelId"`
			ChannelTitle string    `json:"channelTitle"`
			Title        string    `json:"title"`
			PublishedAt  time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// Poll issues one search per channel; the Data API has no batch endpoint
// for cross-channel uploads
func (p *YouTubeProvider) Poll(ctx context.Context, channels []string) ([]Activity, error) {
	var activities []Activity
	for _, channel := range channels {
		uploads, err := p.pollChannel(ctx, channel)
		if err != nil {
			return nil, fmt.Errorf("youtube channel %s: %w", channel, err)
		}
		activities = append(activities, uploads...)
	}
	return activities, nil
}

func (p *YouTubeProvider) pollChannel(ctx context.Context, channelID string) ([]Activity, error) {
	query := url.Values{
		"part":       {"snippet"},
		"channelId":  {channelID},
		"type":       {"video"},
		"order":      {"date"},
		"maxResults": {"5"},
		"key":        {p.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeSearchURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request status %d", resp.StatusCode)
	}

	var search youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID == "" {
			continue
		}
		activities = append(activities, Activity{
			Provider:  models.ProviderYouTube,
			ChannelID: item.Snippet.ChannelID,
			Event:     "video",
			Title:     item.Snippet.Title,
			URL:       "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Author:    item.Snippet.ChannelTitle,
			StartedAt: item.Snippet.PublishedAt,
		})
	}
	return activities, nil
}
