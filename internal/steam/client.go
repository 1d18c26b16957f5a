package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const defaultBaseURL = "https://api.steampowered.com"

// Client is a Steam Web API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a new Steam API client.
func NewClient(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.Named("steam"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	params.Set("key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d, body: %s", ErrMalformedResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// FetchOwnedGames retrieves the owned-games list for a Steam user,
// sorted by name. A well-formed empty response (private profile or
// unknown id) yields zero games, not an error.
func (c *Client) FetchOwnedGames(ctx context.Context, steamID string) ([]OwnedGame, error) {
	params := url.Values{}
	params.Set("steamid", steamID)
	params.Set("include_appinfo", "true")
	params.Set("include_played_free_games", "true")

	var envelope ownedGamesEnvelope
	if err := c.get(ctx, "/IPlayerService/GetOwnedGames/v0001/", params, &envelope); err != nil {
		return nil, err
	}

	if envelope.Response == nil {
		return nil, fmt.Errorf("%w: missing response object", ErrMalformedResponse)
	}

	games := envelope.Response.Games
	c.logger.Debug("fetched owned games",
		zap.String("steam_id", steamID),
		zap.Int("count", len(games)))

	sortGamesByName(games)
	return games, nil
}

// sortGamesByName orders games by name ascending using a
// case-insensitive English collation.
func sortGamesByName(games []OwnedGame) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(games, func(i, j int) bool {
		return col.CompareString(games[i].Name, games[j].Name) < 0
	})
}

// FetchProfile retrieves the player summary for a Steam user.
// Zero players is ErrPlayerNotFound. More than one is not expected;
// the first is used.
func (c *Client) FetchProfile(ctx context.Context, steamID string) (*Profile, error) {
	params := url.Values{}
	params.Set("steamids", steamID)

	var envelope playerSummariesEnvelope
	if err := c.get(ctx, "/ISteamUser/GetPlayerSummaries/v0002/", params, &envelope); err != nil {
		return nil, err
	}

	if envelope.Response == nil {
		return nil, fmt.Errorf("%w: missing response object", ErrMalformedResponse)
	}
	if len(envelope.Response.Players) == 0 {
		return nil, ErrPlayerNotFound
	}

	profile := formatProfile(envelope.Response.Players[0])
	return &profile, nil
}

func formatProfile(p playerSummary) Profile {
	profile := Profile{
		SteamID:                  p.SteamID,
		PersonaName:              p.PersonaName,
		ProfileURL:               p.ProfileURL,
		Avatar:                   p.Avatar,
		AvatarMedium:             p.AvatarMedium,
		AvatarFull:               p.AvatarFull,
		PersonaState:             p.PersonaState,
		CommunityVisibilityState: p.CommunityVisibilityState,
		RealName:                 p.RealName,
	}
	if p.TimeCreated > 0 {
		profile.TimeCreated = time.Unix(p.TimeCreated, 0).UTC().Format("January 2, 2006")
	}
	if p.LastLogoff > 0 {
		profile.LastLogoff = time.Unix(p.LastLogoff, 0).UTC().Format("January 2, 2006")
	}
	return profile
}
