// Package league holds the core state of a recurring multiplayer league:
// weekly rounds, reaction-vote collection, scoring, and the allowance
// derivation that feeds the acquisition ledger.
//
// Week and game indices are 1-based and serialize as strings; helpers in this
// package always compare them numerically, never lexically.
package league

import (
	"fmt"
	"sort"
	"strconv"
)

// Result is one player's recorded outcome for a single game.
type Result struct {
	Placement int `json:"placement"`
	Points    int `json:"points"`
}

// Week is one scoring period. Games grows as rounds complete; the remaining
// fields are written exactly once, by finalization.
type Week struct {
	Games         map[string]map[string]Result `json:"games"`
	NumGames      int                          `json:"num_games"`
	Finalized     bool                         `json:"finalized"`
	FinalScores   map[string]int               `json:"final_scores,omitempty"`
	Allowances    map[string]Allowance         `json:"allowances,omitempty"`
	CardAdditions map[string][]string          `json:"card_additions,omitempty"`
}

// League is one roster plus its sequence of weeks. The roster is fixed at
// creation; players are opaque platform user ids.
type League struct {
	Name    string           `json:"league_name"`
	Players []string         `json:"players"`
	Weeks   map[string]*Week `json:"weeks"`
}

// Standing is one leaderboard row.
type Standing struct {
	Player string
	Points int
}

func New(name string, players []string) (*League, error) {
	if name == "" {
		return nil, fmt.Errorf("league name is required")
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("league needs at least one player")
	}
	return &League{
		Name:    name,
		Players: append([]string(nil), players...),
		Weeks:   make(map[string]*Week),
	}, nil
}

// Key renders a 1-based week or game index in its serialized form.
func Key(n int) string {
	return strconv.Itoa(n)
}

// SortKeys orders serialized week/game indices numerically.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
}

func (l *League) HasPlayer(id string) bool {
	for _, p := range l.Players {
		if p == id {
			return true
		}
	}
	return false
}

// CurrentWeek returns the highest-indexed week. At most one week is ever
// open, and it is always this one.
func (l *League) CurrentWeek() (string, *Week) {
	highest := 0
	for k := range l.Weeks {
		if n, err := strconv.Atoi(k); err == nil && n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return "", nil
	}
	key := Key(highest)
	return key, l.Weeks[key]
}

// EnsureOpenWeek returns the current week if it has not finalized, otherwise
// creates the next week with the given round count. The returned bool reports
// whether a week was created.
func (l *League) EnsureOpenWeek(numGames int) (string, *Week, bool, error) {
	if numGames < 1 {
		return "", nil, false, fmt.Errorf("number of games must be at least 1")
	}
	key, wk := l.CurrentWeek()
	if wk != nil && !wk.Finalized {
		return key, wk, false, nil
	}
	next := 1
	if key != "" {
		n, _ := strconv.Atoi(key)
		next = n + 1
	}
	key = Key(next)
	wk = &Week{
		Games:    make(map[string]map[string]Result),
		NumGames: numGames,
	}
	l.Weeks[key] = wk
	return key, wk, true, nil
}

// EditScore overrides a single recorded placement, re-deriving points. It
// only touches games that have already been merged; it never flips a week's
// finalized flag and never re-runs finalization.
func (l *League) EditScore(week, game int, player string, placement int) (Result, error) {
	wk, ok := l.Weeks[Key(week)]
	if !ok {
		return Result{}, fmt.Errorf("week %d: %w", week, ErrNotFound)
	}
	g, ok := wk.Games[Key(game)]
	if !ok {
		return Result{}, fmt.Errorf("week %d game %d: %w", week, game, ErrNotFound)
	}
	points, err := PointsFor(placement, len(l.Players))
	if err != nil {
		return Result{}, err
	}
	r := Result{Placement: placement, Points: points}
	g[player] = r
	return r, nil
}

// Leaderboard sums points across every recorded game of every week, ordered
// by total descending (ties broken by player id for stable output).
func (l *League) Leaderboard() []Standing {
	totals := make(map[string]int)
	for _, wk := range l.Weeks {
		for _, game := range wk.Games {
			for player, r := range game {
				totals[player] += r.Points
			}
		}
	}
	standings := make([]Standing, 0, len(totals))
	for player, points := range totals {
		standings = append(standings, Standing{Player: player, Points: points})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].Player < standings[j].Player
	})
	return standings
}
