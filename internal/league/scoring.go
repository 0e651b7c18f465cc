package league

import "fmt"

// Allowance categories derived from a player's average placement for a week.
const (
	CategoryWin    = "win"
	CategoryMiddle = "middle"
	CategoryLast   = "last"
)

// Allowance is a week's spending budget for one player. Limits are consumed
// cumulatively across the season, not per week.
type Allowance struct {
	Category   string  `json:"category"`
	CardLimit  int     `json:"card_limit"`
	PriceLimit float64 `json:"price_limit"`
}

var allowanceCaps = map[string]Allowance{
	CategoryWin:    {Category: CategoryWin, CardLimit: 1, PriceLimit: 5},
	CategoryMiddle: {Category: CategoryMiddle, CardLimit: 3, PriceLimit: 10},
	CategoryLast:   {Category: CategoryLast, CardLimit: 5, PriceLimit: 15},
}

// PointsFor converts a round placement into points: first place earns 3,
// last place earns 0, everyone in between earns 1.
func PointsFor(placement, totalPlayers int) (int, error) {
	if totalPlayers < 1 {
		return 0, fmt.Errorf("%w: total players %d", ErrInvalidPlacement, totalPlayers)
	}
	if placement < 1 || placement > totalPlayers {
		return 0, fmt.Errorf("%w: placement %d with %d players", ErrInvalidPlacement, placement, totalPlayers)
	}
	switch {
	case placement == 1:
		return 3, nil
	case placement == totalPlayers:
		return 0, nil
	default:
		return 1, nil
	}
}

// AllowanceFor maps an average placement onto the fixed allowance table.
// An average of exactly 1 means the player won every game of the week.
func AllowanceFor(averagePlacement float64, rosterSize int) Allowance {
	switch {
	case averagePlacement == 1:
		return allowanceCaps[CategoryWin]
	case averagePlacement == float64(rosterSize):
		return allowanceCaps[CategoryLast]
	default:
		return allowanceCaps[CategoryMiddle]
	}
}

// DefaultAllowance is the middle-tier budget, used when rendering spend
// against a week that has not finalized yet.
func DefaultAllowance() Allowance {
	return allowanceCaps[CategoryMiddle]
}
