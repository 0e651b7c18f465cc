// Package ledger enforces the season-cumulative acquisition budget: cards
// are bought against allowances earned by finalized weeks, and unused
// allowance carries forward. The rows themselves live in the sqlite store.
package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mtgleague/leaguebot/internal/league"
	"github.com/mtgleague/leaguebot/internal/store"
)

// Service wraps the store with the allowance check-then-act logic. The mutex
// serializes additions so two concurrent buys cannot both pass the check
// against stale usage.
type Service struct {
	mu    sync.Mutex
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Budget is a player's cumulative allowance across all finalized weeks.
type Budget struct {
	Cards float64
	Price float64
}

// WeekHistory is one week's slice of a player's acquisition history.
type WeekHistory struct {
	Week      string
	Allowance league.Allowance
	Cards     []store.Card
	Total     float64
}

// cumulativeBudget sums each finalized week's limits for the player. Weeks
// still open contribute nothing until they finalize.
func cumulativeBudget(l *league.League, player string) Budget {
	var b Budget
	for _, wk := range l.Weeks {
		if !wk.Finalized {
			continue
		}
		if a, ok := wk.Allowances[player]; ok {
			b.Cards += float64(a.CardLimit)
			b.Price += a.PriceLimit
		}
	}
	return b
}

// RecordAddition appends one acquisition for a player, charged against the
// given week. The week must already be finalized, and the addition must fit
// inside the player's remaining season-wide budget.
func (s *Service) RecordAddition(l *league.League, week, player, name string, tcgID int64, price float64) (store.Card, error) {
	wk, ok := l.Weeks[week]
	if !ok {
		return store.Card{}, fmt.Errorf("week %s: %w", week, league.ErrNotFound)
	}
	if !wk.Finalized {
		return store.Card{}, fmt.Errorf("week %s: %w", week, league.ErrNotFinalized)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	budget := cumulativeBudget(l, player)
	count, total, err := s.usageLocked(l.Name, player, "")
	if err != nil {
		return store.Card{}, err
	}
	if float64(count+1) > budget.Cards || total+price > budget.Price {
		return store.Card{}, fmt.Errorf(
			"player %s at %d/%.0f cards and $%.2f/$%.2f: %w",
			player, count, budget.Cards, total, budget.Price, league.ErrAllowanceExceeded)
	}

	c := store.Card{
		ID:          uuid.NewString(),
		League:      l.Name,
		Week:        week,
		Player:      player,
		Name:        name,
		TCGPlayerID: tcgID,
		Price:       price,
	}
	if err := s.store.InsertCard(c); err != nil {
		return store.Card{}, err
	}
	return c, nil
}

// RemoveAddition deletes exactly one row by its id.
func (s *Service) RemoveAddition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteCard(id)
}

// Usage reports how many cards and how much money a player has spent,
// optionally limited to one week (empty week means the whole season).
func (s *Service) Usage(l *league.League, player, week string) (int, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usageLocked(l.Name, player, week)
}

func (s *Service) usageLocked(leagueName, player, week string) (int, float64, error) {
	cards, err := s.store.CardsByPlayer(leagueName, player, week)
	if err != nil {
		return 0, 0, err
	}
	total := 0.0
	for _, c := range cards {
		total += c.Price
	}
	return len(cards), total, nil
}

// CumulativeBudget exposes the season budget for rendering prompts.
func (s *Service) CumulativeBudget(l *league.League, player string) Budget {
	return cumulativeBudget(l, player)
}

// CardsForWeek lists a player's rows against one week, for the removal menu.
func (s *Service) CardsForWeek(l *league.League, player, week string) ([]store.Card, error) {
	return s.store.CardsByPlayer(l.Name, player, week)
}

// PlayerHistory groups a player's rows by week, pairing each with that
// week's limits. Rows against a week that has not finalized fall back to the
// middle-tier limits.
func (s *Service) PlayerHistory(l *league.League, player string) ([]WeekHistory, error) {
	cards, err := s.store.CardsByPlayer(l.Name, player, "")
	if err != nil {
		return nil, err
	}
	byWeek := make(map[string][]store.Card)
	for _, c := range cards {
		byWeek[c.Week] = append(byWeek[c.Week], c)
	}
	weeks := make([]string, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	league.SortKeys(weeks)

	out := make([]WeekHistory, 0, len(weeks))
	for _, w := range weeks {
		allowance := league.DefaultAllowance()
		if wk, ok := l.Weeks[w]; ok && wk.Finalized {
			if a, ok := wk.Allowances[player]; ok {
				allowance = a
			}
		}
		h := WeekHistory{Week: w, Allowance: allowance, Cards: byWeek[w]}
		for _, c := range byWeek[w] {
			h.Total += c.Price
		}
		out = append(out, h)
	}
	return out, nil
}

// CardDescriptions formats a week's rows for the finalization snapshot.
// Satisfies league.CardSource.
func (s *Service) CardDescriptions(leagueName, week string) (map[string][]string, error) {
	cards, err := s.store.CardsByWeek(leagueName, week)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, c := range cards {
		out[c.Player] = append(out[c.Player], fmt.Sprintf("%s ($%.2f)", c.Name, c.Price))
	}
	return out, nil
}
