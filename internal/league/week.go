package league

import "fmt"

// FinalizeWeek computes final scores and allowances for a week and marks it
// finalized. The computation is all-or-nothing: nothing is written to the
// week until every derived value has been produced. cards is the ledger
// snapshot for the week, grouped by player, already formatted for display.
//
// Both the manual trigger and the vote collector's auto-finalize path funnel
// through here so the two can never diverge.
func (l *League) FinalizeWeek(week string, cards map[string][]string) (*Week, error) {
	wk, ok := l.Weeks[week]
	if !ok {
		return nil, fmt.Errorf("week %s: %w", week, ErrNotFound)
	}
	if wk.Finalized {
		return nil, fmt.Errorf("week %s: %w", week, ErrAlreadyFinalized)
	}
	if wk.NumGames == 0 {
		return nil, fmt.Errorf("week %s: %w", week, ErrDivisionUndefined)
	}
	if len(wk.Games) != wk.NumGames {
		return nil, fmt.Errorf("week %s has %d of %d games recorded: %w",
			week, len(wk.Games), wk.NumGames, ErrIncompleteWeek)
	}

	scores := make(map[string]int, len(l.Players))
	for _, p := range l.Players {
		scores[p] = 0
	}
	for _, game := range wk.Games {
		for player, r := range game {
			scores[player] += r.Points
		}
	}

	allowances := make(map[string]Allowance, len(l.Players))
	for _, p := range l.Players {
		total := 0
		for gameKey, game := range wk.Games {
			r, ok := game[p]
			if !ok {
				return nil, fmt.Errorf("week %s game %s has no placement for %s: %w",
					week, gameKey, p, ErrIncompleteWeek)
			}
			total += r.Placement
		}
		avg := float64(total) / float64(wk.NumGames)
		allowances[p] = AllowanceFor(avg, len(l.Players))
	}

	if cards == nil {
		cards = make(map[string][]string)
	}

	wk.FinalScores = scores
	wk.Allowances = allowances
	wk.CardAdditions = cards
	wk.Finalized = true
	return wk, nil
}
