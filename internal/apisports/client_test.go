package apisports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dweezil78/sniper-app/internal/pkg/config"
)

func testClient(t *testing.T, handler http.HandlerFunc, cache ResponseCache) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.APIConfig{
		BaseURL:      server.URL,
		Key:          "test-key",
		Timezone:     "Europe/Rome",
		Timeout:      config.Duration(5 * time.Second),
		OddsCacheTTL: config.Duration(time.Minute),
		FormCacheTTL: config.Duration(time.Minute),
	}
	return NewClient(cfg, cache)
}

func TestFetchFixtures(t *testing.T) {
	var gotKey, gotDate, gotTZ string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-apisports-key")
		gotDate = r.URL.Query().Get("date")
		gotTZ = r.URL.Query().Get("timezone")
		w.Write([]byte(`{
			"errors": [],
			"response": [{
				"fixture": {"id": 1001, "date": "2026-08-28T20:45:00+02:00", "status": {"short": "NS"}},
				"league": {"id": 135, "name": "Serie A", "country": "Italy"},
				"teams": {"home": {"id": 10, "name": "Milan"}, "away": {"id": 20, "name": "Inter"}}
			}]
		}`))
	}

	client := testClient(t, handler, nil)
	fixtures, err := client.FetchFixtures(context.Background(), "2026-08-28")
	if err != nil {
		t.Fatalf("FetchFixtures: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("api key header = %q, want test-key", gotKey)
	}
	if gotDate != "2026-08-28" || gotTZ != "Europe/Rome" {
		t.Errorf("query date=%q tz=%q", gotDate, gotTZ)
	}
	if len(fixtures) != 1 {
		t.Fatalf("got %d fixtures, want 1", len(fixtures))
	}
	f := fixtures[0]
	if f.ID != 1001 || f.Status != "NS" || f.LeagueCountry != "Italy" {
		t.Errorf("fixture = %+v", f)
	}
	if f.Label() != "Milan - Inter" {
		t.Errorf("label = %q", f.Label())
	}
	if f.KickoffTime.IsZero() {
		t.Error("kickoff time not parsed")
	}
}

func TestFetchOddsEmptyResponse(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [], "response": []}`))
	}
	client := testClient(t, handler, nil)

	item, err := client.FetchOdds(context.Background(), 1001)
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if len(item.Bookmakers) != 0 {
		t.Errorf("item = %+v, want empty", item)
	}
}

func TestGetProviderError(t *testing.T) {
	// The provider reports quota problems inside a 200 response. Both the
	// object and the list form of the errors field must be recognized.
	bodies := map[string]string{
		"object form": `{"errors": {"requests": "You have reached the request limit"}, "response": []}`,
		"list form":   `{"errors": ["invalid api key"], "response": []}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}
			client := testClient(t, handler, nil)

			_, err := client.FetchOdds(context.Background(), 1001)
			if !IsProviderError(err) {
				t.Fatalf("err = %v, want a provider error", err)
			}
		})
	}
}

func TestGetTransportError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}
	client := testClient(t, handler, nil)

	_, err := client.FetchOdds(context.Background(), 1001)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want a transport error", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", te.Status)
	}
	if IsProviderError(err) {
		t.Error("transport error must not read as provider error")
	}
}

func TestGetUsesCache(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"errors": [], "response": []}`))
	}
	client := testClient(t, handler, NewMemoryCache())
	ctx := context.Background()

	if _, err := client.FetchOdds(ctx, 1001); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FetchOdds(ctx, 1001); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1 (second call cached)", got)
	}

	// A different fixture is a different cache key.
	if _, err := client.FetchOdds(ctx, 1002); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}
}

func TestGetDoesNotCacheProviderErrors(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`{"errors": ["rate limited"], "response": []}`))
			return
		}
		w.Write([]byte(`{"errors": [], "response": []}`))
	}
	client := testClient(t, handler, NewMemoryCache())
	ctx := context.Background()

	if _, err := client.FetchOdds(ctx, 1001); !IsProviderError(err) {
		t.Fatalf("first call: err = %v, want provider error", err)
	}
	if _, err := client.FetchOdds(ctx, 1001); err != nil {
		t.Fatalf("second call must retry past the failed body: %v", err)
	}
}

func TestFetchFixtureByID(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "1001" {
			w.Write([]byte(`{
				"errors": [],
				"response": [{
					"fixture": {"id": 1001, "date": "2026-08-28T20:45:00+02:00", "status": {"short": "FT"}},
					"teams": {"home": {"id": 10, "name": "Milan"}, "away": {"id": 20, "name": "Inter"}},
					"goals": {"home": 2, "away": 1},
					"score": {"halftime": {"home": 1, "away": 0}}
				}]
			}`))
			return
		}
		w.Write([]byte(`{"errors": [], "response": []}`))
	}
	client := testClient(t, handler, nil)
	ctx := context.Background()

	item, err := client.FetchFixtureByID(ctx, 1001)
	if err != nil {
		t.Fatalf("FetchFixtureByID: %v", err)
	}
	if item == nil || item.Goals.Home == nil || *item.Goals.Home != 2 {
		t.Fatalf("item = %+v, want full-time 2-1", item)
	}
	if item.Score.Halftime.Home == nil || *item.Score.Halftime.Home != 1 {
		t.Errorf("halftime home = %v, want 1", item.Score.Halftime.Home)
	}

	missing, err := client.FetchFixtureByID(ctx, 9999)
	if err != nil {
		t.Fatalf("FetchFixtureByID(9999): %v", err)
	}
	if missing != nil {
		t.Errorf("unknown fixture = %+v, want nil", missing)
	}
}
