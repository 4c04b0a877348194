package apisports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dweezil78/sniper-app/internal/pkg/config"
	"github.com/dweezil78/sniper-app/internal/pkg/models"
)

const apiKeyHeader = "x-apisports-key"

// Client is a thin wrapper over the API-Sports v3 football REST API. One
// GET per call, fixed timeout, no automatic retries: the scan loop decides
// what to do with a failed fixture.
type Client struct {
	baseURL  string
	apiKey   string
	timezone string
	client   *http.Client
	cache    ResponseCache

	oddsTTL time.Duration
	formTTL time.Duration
}

func NewClient(cfg *config.APIConfig, cache ResponseCache) *Client {
	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.Key,
		timezone: cfg.Timezone,
		client:   &http.Client{Timeout: timeout},
		cache:    cache,
		oddsTTL:  time.Duration(cfg.OddsCacheTTL),
		formTTL:  time.Duration(cfg.FormCacheTTL),
	}
}

// envelope is the fixed top-level shape of every v3 response. The errors
// field is a list on some endpoints and an object on others, so it is kept
// raw and only checked for emptiness.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Response json.RawMessage `json:"response"`
}

// FetchFixtures returns the fixtures scheduled for a date (YYYY-MM-DD) in
// the configured timezone. An empty day is not an error.
func (c *Client) FetchFixtures(ctx context.Context, date string) ([]models.Fixture, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("timezone", c.timezone)

	raw, err := c.get(ctx, "fixtures", params, 0)
	if err != nil {
		return nil, err
	}
	var items []FixtureItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	fixtures := make([]models.Fixture, 0, len(items))
	for _, it := range items {
		fixtures = append(fixtures, toFixture(it))
	}
	return fixtures, nil
}

// FetchOdds returns the raw odds payload for one fixture. No bookmaker
// data is not an error: the extractor handles the empty item.
func (c *Client) FetchOdds(ctx context.Context, fixtureID int64) (OddsItem, error) {
	params := url.Values{}
	params.Set("fixture", strconv.FormatInt(fixtureID, 10))

	raw, err := c.get(ctx, "odds", params, c.oddsTTL)
	if err != nil {
		return OddsItem{}, err
	}
	var items []OddsItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return OddsItem{}, fmt.Errorf("decode odds: %w", err)
	}
	if len(items) == 0 {
		return OddsItem{}, nil
	}
	return items[0], nil
}

// FetchTeamLastFixtures returns the team's most recent fixtures, newest
// first, as the provider orders them.
func (c *Client) FetchTeamLastFixtures(ctx context.Context, teamID int64, last int) ([]FixtureItem, error) {
	params := url.Values{}
	params.Set("team", strconv.FormatInt(teamID, 10))
	params.Set("last", strconv.Itoa(last))

	raw, err := c.get(ctx, "fixtures", params, c.formTTL)
	if err != nil {
		return nil, err
	}
	var items []FixtureItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode team fixtures: %w", err)
	}
	return items, nil
}

// FetchFixtureByID returns one fixture with its scores, or nil when the
// provider does not know the id.
func (c *Client) FetchFixtureByID(ctx context.Context, fixtureID int64) (*FixtureItem, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(fixtureID, 10))

	raw, err := c.get(ctx, "fixtures", params, 0)
	if err != nil {
		return nil, err
	}
	var items []FixtureItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// get performs one GET and returns the envelope's response field. Cached
// bodies bypass the network entirely.
func (c *Client) get(ctx context.Context, path string, params url.Values, ttl time.Duration) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	var body []byte
	if c.cache != nil && ttl > 0 {
		if cached, ok := c.cache.Get(u); ok {
			body = cached
		}
	}

	if body == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(apiKeyHeader, c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &TransportError{Status: resp.StatusCode, Body: string(body)}
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if msgs := providerErrors(env.Errors); len(msgs) > 0 {
		return nil, &ProviderError{Messages: msgs}
	}

	if c.cache != nil && ttl > 0 {
		c.cache.Set(u, body, ttl)
	}

	if len(env.Response) == 0 {
		return json.RawMessage("[]"), nil
	}
	return env.Response, nil
}

// providerErrors flattens the polymorphic errors field into messages.
// Empty array, empty object and null all mean "no error".
func providerErrors(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(trimmed, &asMap); err == nil {
		msgs := make([]string, 0, len(asMap))
		for field, msg := range asMap {
			msgs = append(msgs, field+": "+msg)
		}
		return msgs
	}
	var asList []string
	if err := json.Unmarshal(trimmed, &asList); err == nil {
		return asList
	}
	return []string{string(trimmed)}
}

func toFixture(it FixtureItem) models.Fixture {
	return models.Fixture{
		ID:            it.Fixture.ID,
		KickoffTime:   it.KickoffTime(),
		HomeTeamID:    it.Teams.Home.ID,
		AwayTeamID:    it.Teams.Away.ID,
		HomeTeamName:  it.Teams.Home.Name,
		AwayTeamName:  it.Teams.Away.Name,
		LeagueID:      it.League.ID,
		LeagueName:    it.League.Name,
		LeagueCountry: it.League.Country,
		Status:        it.Fixture.Status.Short,
	}
}
