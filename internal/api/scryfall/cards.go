// Package scryfall is a thin client for the two Scryfall endpoints the bot
// uses: card search by term and TCGplayer price lookup.
package scryfall

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrTooManyResults means the search matched more cards than the
	// configured cap; the caller should ask for a narrower term.
	ErrTooManyResults = errors.New("too many results; narrow your search")
	ErrNoResults      = errors.New("no cards found")
)

// Candidate is one card matched by a search.
type Candidate struct {
	Name        string
	TCGPlayerID int64
}

type searchResponse struct {
	TotalCards int `json:"total_cards"`
	Data       []struct {
		Name        string `json:"name"`
		TCGPlayerID int64  `json:"tcgplayer_id"`
	} `json:"data"`
}

type tcgplayerResponse struct {
	Prices struct {
		USD string `json:"usd"`
	} `json:"prices"`
}

// Search looks up cards matching term.
func (c *Client) Search(term string) ([]Candidate, error) {
	var resp searchResponse
	params := map[string]string{
		"format": "json",
		"q":      term,
	}
	if err := c.get("/cards/search", params, &resp); err != nil {
		return nil, fmt.Errorf("searching cards: %w", err)
	}
	if resp.TotalCards > c.maxResults {
		return nil, fmt.Errorf("%d matches: %w", resp.TotalCards, ErrTooManyResults)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoResults
	}
	candidates := make([]Candidate, len(resp.Data))
	for i, card := range resp.Data {
		candidates[i] = Candidate{Name: card.Name, TCGPlayerID: card.TCGPlayerID}
	}
	return candidates, nil
}

// Price returns the USD price for a TCGplayer id, or 0 when Scryfall has no
// price on file.
func (c *Client) Price(tcgplayerID int64) (float64, error) {
	var resp tcgplayerResponse
	endpoint := fmt.Sprintf("/cards/tcgplayer/%d", tcgplayerID)
	if err := c.get(endpoint, nil, &resp); err != nil {
		return 0, fmt.Errorf("fetching price: %w", err)
	}
	if resp.Prices.USD == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(resp.Prices.USD, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing price %q: %w", resp.Prices.USD, err)
	}
	return price, nil
}
