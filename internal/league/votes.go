package league

import (
	"fmt"
	"sort"
	"sync"
)

// Saver persists the league after a collector mutation. The store's sqlite
// implementation satisfies it.
type Saver interface {
	SaveLeague(l *League) error
}

// CardSource supplies the ledger snapshot consumed by finalization.
type CardSource interface {
	CardDescriptions(leagueName, week string) (map[string][]string, error)
}

// PlayerResult is one row of a completed round, for rendering.
type PlayerResult struct {
	Player    string
	Placement int
	Points    int
}

// VoteOutcome reports what a submitted vote caused. The zero value means the
// vote was recorded (or silently ignored) without completing anything.
type VoteOutcome struct {
	Week          string
	Game          string
	RoundComplete bool
	Results       []PlayerResult // placement ascending
	WeekFinalized bool
	Summary       *Week // set when the vote finalized the week
}

type session struct {
	week     string
	game     string
	expected map[string]struct{}

	mu        sync.Mutex
	responses map[string]Result
}

// Collector tracks the open vote sessions of one league. Sessions are keyed
// by an opaque id (in practice the chat message id carrying the reactions).
//
// Recording a response touches only that session's lock; the transition to
// complete — merge into the week, persistence, possible finalization — is
// serialized per week so two rounds of the same week can never race. The
// merge itself mutates the league's maps, so it additionally takes the state
// mutex shared with every other reader and writer of the league; chat events
// arrive on their own goroutines and a leaderboard read concurrent with a
// completing vote would otherwise crash.
type Collector struct {
	league *League
	saver  Saver
	cards  CardSource
	state  *sync.Mutex

	mu       sync.Mutex
	sessions map[string]*session
	weekMu   map[string]*sync.Mutex
}

// NewCollector wires a collector to a league. state is the mutex guarding
// the league's maps; the caller uses the same mutex for its own accesses.
func NewCollector(l *League, saver Saver, cards CardSource, state *sync.Mutex) *Collector {
	return &Collector{
		league:   l,
		saver:    saver,
		cards:    cards,
		state:    state,
		sessions: make(map[string]*session),
		weekMu:   make(map[string]*sync.Mutex),
	}
}

// Open registers a vote session for one game of a week. Every roster player
// at this moment is expected to vote before the session completes.
func (c *Collector) Open(sessionID, week, game string) {
	expected := make(map[string]struct{}, len(c.league.Players))
	for _, p := range c.league.Players {
		expected[p] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = &session{
		week:      week,
		game:      game,
		expected:  expected,
		responses: make(map[string]Result),
	}
}

// OpenSessions reports how many sessions are still collecting votes.
func (c *Collector) OpenSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// HasOpenSession reports whether some session is already collecting votes
// for the given week and game.
func (c *Collector) HasOpenSession(week, game string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.week == week && s.game == game {
			return true
		}
	}
	return false
}

func (c *Collector) weekLock(week string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	mu, ok := c.weekMu[week]
	if !ok {
		mu = &sync.Mutex{}
		c.weekMu[week] = mu
	}
	return mu
}

// SubmitVote records one player's placement for a session. Unknown sessions,
// votes against a finalized week, voters outside the roster, and placements
// that do not parse into the valid range are all silently ignored — they are
// stray or late events, not caller mistakes. A repeat vote from the same
// player overwrites the earlier one.
//
// The vote that completes a session merges the session's responses into the
// week, persists, and — when it was the week's last outstanding game —
// finalizes the week.
func (c *Collector) SubmitVote(sessionID, player string, placement int) (VoteOutcome, error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	c.mu.Unlock()
	if !ok {
		return VoteOutcome{}, nil
	}
	if _, ok := s.expected[player]; !ok {
		return VoteOutcome{}, nil
	}
	c.state.Lock()
	wk := c.league.Weeks[s.week]
	closed := wk == nil || wk.Finalized
	c.state.Unlock()
	if closed {
		return VoteOutcome{}, nil
	}
	points, err := PointsFor(placement, len(s.expected))
	if err != nil {
		return VoteOutcome{}, nil
	}

	s.mu.Lock()
	s.responses[player] = Result{Placement: placement, Points: points}
	complete := len(s.responses) == len(s.expected)
	s.mu.Unlock()
	if !complete {
		return VoteOutcome{}, nil
	}

	wmu := c.weekLock(s.week)
	wmu.Lock()
	defer wmu.Unlock()

	// Another vote may have already completed this session while we waited
	// on the week lock.
	c.mu.Lock()
	if _, ok := c.sessions[sessionID]; !ok {
		c.mu.Unlock()
		return VoteOutcome{}, nil
	}
	delete(c.sessions, sessionID)
	c.mu.Unlock()

	c.state.Lock()
	defer c.state.Unlock()

	wk = c.league.Weeks[s.week]
	if wk == nil || wk.Finalized {
		return VoteOutcome{}, nil
	}

	merged := make(map[string]Result, len(s.responses))
	s.mu.Lock()
	for p, r := range s.responses {
		merged[p] = r
	}
	s.mu.Unlock()
	wk.Games[s.game] = merged

	if err := c.saver.SaveLeague(c.league); err != nil {
		return VoteOutcome{}, fmt.Errorf("saving merged round: %w", err)
	}

	outcome := VoteOutcome{
		Week:          s.week,
		Game:          s.game,
		RoundComplete: true,
		Results:       sortedResults(merged),
	}

	if len(wk.Games) != wk.NumGames {
		return outcome, nil
	}

	cards, err := c.cards.CardDescriptions(c.league.Name, s.week)
	if err != nil {
		return outcome, fmt.Errorf("reading ledger snapshot: %w", err)
	}
	summary, err := c.league.FinalizeWeek(s.week, cards)
	if err != nil {
		return outcome, fmt.Errorf("finalizing week %s: %w", s.week, err)
	}
	if err := c.saver.SaveLeague(c.league); err != nil {
		return outcome, fmt.Errorf("saving finalized week: %w", err)
	}
	outcome.WeekFinalized = true
	outcome.Summary = summary
	return outcome, nil
}

func sortedResults(responses map[string]Result) []PlayerResult {
	out := make([]PlayerResult, 0, len(responses))
	for p, r := range responses {
		out = append(out, PlayerResult{Player: p, Placement: r.Placement, Points: r.Points})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Placement < out[j].Placement
	})
	return out
}
