package scryfall

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mtgleague/leaguebot/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.Scryfall{BaseURL: server.URL, MaxResults: 25})
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "bolt" {
			t.Fatalf("unexpected query %q", got)
		}
		w.Write([]byte(`{
			"total_cards": 2,
			"data": [
				{"name": "Lightning Bolt", "tcgplayer_id": 101},
				{"name": "Bolt of Keranos"}
			]
		}`))
	})

	candidates, err := client.Search("bolt")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %+v", candidates)
	}
	if candidates[0].Name != "Lightning Bolt" || candidates[0].TCGPlayerID != 101 {
		t.Fatalf("first candidate = %+v", candidates[0])
	}
	if candidates[1].TCGPlayerID != 0 {
		t.Fatalf("missing tcgplayer_id should decode to 0, got %+v", candidates[1])
	}
}

func TestSearchTooManyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_cards": 312, "data": [{"name": "Island"}]}`))
	})
	if _, err := client.Search("island"); !errors.Is(err, ErrTooManyResults) {
		t.Fatalf("expected ErrTooManyResults, got %v", err)
	}
}

func TestSearchNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_cards": 0, "data": []}`))
	})
	if _, err := client.Search("zzzz"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}

	// Scryfall answers 404 for terms matching nothing
	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if _, err := client.Search("zzzz"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults on 404, got %v", err)
	}
}

func TestPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/tcgplayer/101" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"prices": {"usd": "1.53"}}`))
	})
	price, err := client.Price(101)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if price != 1.53 {
		t.Fatalf("price = %v, want 1.53", price)
	}
}

func TestPriceMissingUSD(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": {}}`))
	})
	price, err := client.Price(101)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if price != 0 {
		t.Fatalf("price = %v, want 0 for missing usd", price)
	}
}
