package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mtgleague/leaguebot/internal/api/scryfall"
	"github.com/mtgleague/leaguebot/internal/league"
	"github.com/mtgleague/leaguebot/internal/store"
)

type pickKind int

const (
	pickAdd pickKind = iota
	pickRemove
)

// pendingPick is a two-step flow awaiting a user's selection: either a card
// candidate to buy or an owned card to remove.
type pendingPick struct {
	kind       pickKind
	week       string
	candidates []scryfall.Candidate
	rows       []store.Card
}

// BeginAddCard starts the acquisition flow: it checks that the current week
// is finalized, reports remaining season budget, searches for the term, and
// either completes immediately (single match) or asks the user to pick.
func (s *Service) BeginAddCard(userID, term string) (Message, error) {
	l, _, err := s.current()
	if err != nil {
		return Message{}, err
	}
	if !l.HasPlayer(userID) {
		return Message{}, fmt.Errorf("player not in this league: %w", league.ErrNotFound)
	}
	week, wk := l.CurrentWeek()
	if wk == nil {
		return Message{}, fmt.Errorf("no weeks recorded: %w", league.ErrNotFound)
	}
	if !wk.Finalized {
		return Message{}, fmt.Errorf("week %s: %w", week, league.ErrNotFinalized)
	}
	if strings.TrimSpace(term) == "" {
		return Message{}, fmt.Errorf("a search term is required: %w", scryfall.ErrNoResults)
	}

	budget := s.ledger.CumulativeBudget(l, userID)
	count, total, err := s.ledger.Usage(l, userID, "")
	if err != nil {
		return Message{}, err
	}
	header := fmt.Sprintf("You have used **%d/%.0f** cards and **$%.2f/$%.2f** this season.\n",
		count, budget.Cards, total, budget.Price)

	candidates, err := s.cards.Search(term)
	if err != nil {
		return Message{}, err
	}

	if len(candidates) == 1 {
		return s.completeAdd(l, userID, week, candidates[0])
	}

	s.mu.Lock()
	s.pending[userID] = &pendingPick{kind: pickAdd, week: week, candidates: candidates}
	s.mu.Unlock()

	var menu strings.Builder
	menu.WriteString(header)
	menu.WriteString("Reply with `!pick <number>` (or the card's name):\n")
	for i, c := range candidates {
		fmt.Fprintf(&menu, "%d. %s\n", i+1, c.Name)
	}
	return Message{Title: "Choose Card", Description: strings.TrimRight(menu.String(), "\n")}, nil
}

// BeginRemoveCard lists the caller's acquisitions for the current week and
// asks which one to remove.
func (s *Service) BeginRemoveCard(userID string) (Message, error) {
	l, _, err := s.current()
	if err != nil {
		return Message{}, err
	}
	week, wk := l.CurrentWeek()
	if wk == nil {
		return Message{}, fmt.Errorf("no weeks recorded: %w", league.ErrNotFound)
	}
	rows, err := s.ledger.CardsForWeek(l, userID, week)
	if err != nil {
		return Message{}, err
	}
	if len(rows) == 0 {
		return Message{Title: "Info", Description: "No cards to remove."}, nil
	}

	s.mu.Lock()
	s.pending[userID] = &pendingPick{kind: pickRemove, week: week, rows: rows}
	s.mu.Unlock()

	var menu strings.Builder
	menu.WriteString("Reply with `!pick <number>`:\n")
	for i, r := range rows {
		fmt.Fprintf(&menu, "%d. %s ($%.2f)\n", i+1, r.Name, r.Price)
	}
	return Message{Title: "Remove Card", Description: strings.TrimRight(menu.String(), "\n")}, nil
}

// Pick resolves a pending add or remove selection. The reply may be the menu
// number or an approximate card name.
func (s *Service) Pick(userID, reply string) (Message, error) {
	s.mu.Lock()
	p, ok := s.pending[userID]
	s.mu.Unlock()
	if !ok {
		return Message{}, fmt.Errorf("nothing to pick: %w", league.ErrNotFound)
	}

	l, _, err := s.current()
	if err != nil {
		return Message{}, err
	}

	size := len(p.candidates)
	if p.kind == pickRemove {
		size = len(p.rows)
	}
	idx, err := resolveSelection(reply, size, func(i int) string {
		if p.kind == pickRemove {
			return p.rows[i].Name
		}
		return p.candidates[i].Name
	})
	if err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	delete(s.pending, userID)
	s.mu.Unlock()

	if p.kind == pickRemove {
		row := p.rows[idx]
		if err := s.ledger.RemoveAddition(row.ID); err != nil {
			return Message{}, err
		}
		return Message{Title: "Card Removed", Description: fmt.Sprintf("Removed %s", row.Name)}, nil
	}
	return s.completeAdd(l, userID, p.week, p.candidates[idx])
}

func (s *Service) completeAdd(l *league.League, userID, week string, candidate scryfall.Candidate) (Message, error) {
	if candidate.TCGPlayerID == 0 {
		return Message{}, fmt.Errorf("%s has no TCGplayer id: %w", candidate.Name, league.ErrNotFound)
	}
	price, err := s.cards.Price(candidate.TCGPlayerID)
	if err != nil {
		return Message{}, err
	}
	if _, err := s.ledger.RecordAddition(l, week, userID, candidate.Name, candidate.TCGPlayerID, price); err != nil {
		return Message{}, err
	}
	return Message{
		Title:       "Card Added",
		Description: fmt.Sprintf("Added %s — $%.2f", candidate.Name, price),
	}, nil
}

// resolveSelection accepts a 1-based menu number or an approximate name,
// matched by Levenshtein distance.
func resolveSelection(reply string, size int, nameAt func(int) string) (int, error) {
	reply = strings.TrimSpace(reply)
	if n, err := strconv.Atoi(reply); err == nil {
		if n < 1 || n > size {
			return 0, fmt.Errorf("selection %d out of range: %w", n, league.ErrNotFound)
		}
		return n - 1, nil
	}

	best, bestDistance := -1, -1
	for i := 0; i < size; i++ {
		distance := fuzzy.LevenshteinDistance(strings.ToLower(reply), strings.ToLower(nameAt(i)))
		if best == -1 || distance < bestDistance {
			best, bestDistance = i, distance
		}
	}
	if best == -1 {
		return 0, fmt.Errorf("invalid selection: %w", league.ErrNotFound)
	}
	return best, nil
}

// ViewCards renders one player's acquisition history, grouped by week with
// that week's limits.
func (s *Service) ViewCards(targetID string) (Message, error) {
	l, _, err := s.current()
	if err != nil {
		return Message{}, err
	}
	history, err := s.ledger.PlayerHistory(l, targetID)
	if err != nil {
		return Message{}, err
	}
	name := s.resolve(targetID)
	if len(history) == 0 {
		return Message{Title: "Info", Description: fmt.Sprintf("No cards for %s.", name)}, nil
	}

	var sb strings.Builder
	for _, h := range history {
		fmt.Fprintf(&sb, "Week %s (%s): %d/%d cards — $%.2f/$%.0f\n",
			h.Week, titleCase(h.Allowance.Category), len(h.Cards), h.Allowance.CardLimit, h.Total, h.Allowance.PriceLimit)
		for _, c := range h.Cards {
			fmt.Fprintf(&sb, "  • %s: $%.2f\n", c.Name, c.Price)
		}
	}
	return Message{
		Title:       fmt.Sprintf("Cards for %s", name),
		Description: strings.TrimRight(sb.String(), "\n"),
	}, nil
}
