package league

import "errors"

var (
	ErrInvalidPlacement  = errors.New("placement out of range")
	ErrDivisionUndefined = errors.New("average placement undefined for a week with no games")
	ErrAlreadyFinalized  = errors.New("week already finalized")
	ErrIncompleteWeek    = errors.New("week has missing placements")
	ErrNotFinalized      = errors.New("week not finalized")
	ErrAllowanceExceeded = errors.New("allowance exceeded for the season")
	ErrNotFound          = errors.New("not found")
	ErrNoActiveLeague    = errors.New("no league loaded")
)
