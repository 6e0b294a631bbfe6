package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"aoba/models"
)

const (
	twitchTokenURL   = "https://id.twitch.tv/oauth2/token"
	twitchStreamsURL = "https://api.twitch.tv/helix/streams"

	// Helix caps user_login filters per request
	twitchMaxLoginsPerRequest = 100
)

// TwitchProvider polls the Helix streams endpoint for live channels
type TwitchProvider struct {
	clientID     string
	clientSecret string
	client       Doer

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewTwitchProvider creates a Helix poller using app access token auth
func NewTwitchProvider(clientID, clientSecret string, client Doer) *TwitchProvider {
	return &TwitchProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       client,
	}
}

func (p *TwitchProvider) Name() models.ProviderName {
	return models.ProviderTwitch
}

type twitchTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type twitchStreamsResponse struct {
	Data []struct {
		UserLogin string    `json:"user_login"`
		UserName  string    `json:"user_name"`
		Title     string    `json:"title"`
		StartedAt time.Time `json:"started_at"`
	} `json:"data"`
}

// Poll returns one Activity per channel that is currently live
func (p *TwitchProvider) Poll(ctx context.Context, channels []string) ([]Activity, error) {
	if len(channels) == 0 {
		return nil, nil
	}

	token, err := p.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("twitch auth: %w", err)
	}

	var activities []Activity
	for start := 0; start < len(channels); start += twitchMaxLoginsPerRequest {
		end := start + twitchMaxLoginsPerRequest
		if end > len(channels) {
			end = len(channels)
		}

		batch, err := p.pollBatch(ctx, token, channels[start:end])
		if err != nil {
			return nil, err
		}
		activities = append(activities, batch...)
	}
	return activities, nil
}

func (p *TwitchProvider) pollBatch(ctx context.Context, token string, logins []string) ([]Activity, error) {
	query := url.Values{}
	for _, login := range logins {
		query.Add("user_login", login)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, twitchStreamsURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", p.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitch streams request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		p.invalidateToken()
		return nil, fmt.Errorf("twitch streams request: token rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitch streams request: status %d", resp.StatusCode)
	}

	var streams twitchStreamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&streams); err != nil {
		return nil, fmt.Errorf("twitch streams decode: %w", err)
	}

	activities := make([]Activity, 0, len(streams.Data))
	for _, stream := range streams.Data {
		activities = append(activities, Activity{
			Provider:  models.ProviderTwitch,
			ChannelID: strings.ToLower(stream.UserLogin),
			Event:     "live",
			Title:     stream.Title,
			URL:       "https://www.twitch.tv/" + stream.UserLogin,
			Author:    stream.UserName,
			StartedAt: stream.StartedAt,
		})
	}
	return activities, nil
}

func (p *TwitchProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitchTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request status %d", resp.StatusCode)
	}

	var token twitchTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}

	p.accessToken = token.AccessToken
	// Refresh a minute early so in-flight polls never race expiry
	p.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return p.accessToken, nil
}

func (p *TwitchProvider) invalidateToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessToken = ""
}
