package league

import (
	"reflect"
	"sync"
	"testing"
)

type fakeSaver struct {
	saves int
	fail  error
}

func (f *fakeSaver) SaveLeague(l *League) error {
	if f.fail != nil {
		return f.fail
	}
	f.saves++
	return nil
}

type fakeCards struct {
	byPlayer map[string][]string
}

func (f *fakeCards) CardDescriptions(leagueName, week string) (map[string][]string, error) {
	if f.byPlayer == nil {
		return map[string][]string{}, nil
	}
	return f.byPlayer, nil
}

func newTestCollector(t *testing.T, numGames int) (*League, *Collector, *fakeSaver) {
	t.Helper()
	l := newTestLeague(t)
	if _, _, _, err := l.EnsureOpenWeek(numGames); err != nil {
		t.Fatalf("EnsureOpenWeek: %v", err)
	}
	saver := &fakeSaver{}
	return l, NewCollector(l, saver, &fakeCards{}, &sync.Mutex{}), saver
}

func TestSubmitVoteStrayEventsIgnored(t *testing.T) {
	l, c, saver := newTestCollector(t, 1)
	c.Open("msg-1", "1", "1")

	// unknown session
	if out, err := c.SubmitVote("nope", "alice", 1); err != nil || out.RoundComplete {
		t.Fatalf("unknown session: out=%+v err=%v", out, err)
	}
	// voter outside the roster
	if out, err := c.SubmitVote("msg-1", "mallory", 1); err != nil || out.RoundComplete {
		t.Fatalf("stranger vote: out=%+v err=%v", out, err)
	}
	// unparseable / out-of-range placement
	if out, err := c.SubmitVote("msg-1", "alice", 17); err != nil || out.RoundComplete {
		t.Fatalf("bad placement: out=%+v err=%v", out, err)
	}
	// finalized week
	l.Weeks["1"].Finalized = true
	if out, err := c.SubmitVote("msg-1", "alice", 1); err != nil || out.RoundComplete {
		t.Fatalf("finalized week vote: out=%+v err=%v", out, err)
	}
	if saver.saves != 0 {
		t.Fatalf("stray events persisted the league %d times", saver.saves)
	}
}

func TestSessionCompletionOrderIndependent(t *testing.T) {
	placements := map[string]int{"alice": 1, "bob": 2, "carol": 3}
	orders := [][]string{
		{"alice", "bob", "carol"},
		{"carol", "bob", "alice"},
		{"bob", "alice", "carol"},
	}

	var reference map[string]Result
	for _, order := range orders {
		l, c, _ := newTestCollector(t, 1)
		c.Open("msg-1", "1", "1")

		var final VoteOutcome
		for _, player := range order {
			out, err := c.SubmitVote("msg-1", player, placements[player])
			if err != nil {
				t.Fatalf("SubmitVote(%s): %v", player, err)
			}
			if out.RoundComplete {
				final = out
			}
		}
		if !final.RoundComplete {
			t.Fatalf("order %v never completed the round", order)
		}

		merged := l.Weeks["1"].Games["1"]
		if reference == nil {
			reference = merged
			continue
		}
		if !reflect.DeepEqual(merged, reference) {
			t.Fatalf("order %v merged %v, earlier order merged %v", order, merged, reference)
		}
	}

	want := map[string]Result{
		"alice": {Placement: 1, Points: 3},
		"bob":   {Placement: 2, Points: 1},
		"carol": {Placement: 3, Points: 0},
	}
	if !reflect.DeepEqual(reference, want) {
		t.Fatalf("merged results = %v, want %v", reference, want)
	}
}

func TestRevoteOverwrites(t *testing.T) {
	l, c, _ := newTestCollector(t, 1)
	c.Open("msg-1", "1", "1")

	if _, err := c.SubmitVote("msg-1", "alice", 3); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := c.SubmitVote("msg-1", "alice", 1); err != nil {
		t.Fatalf("revote: %v", err)
	}
	if _, err := c.SubmitVote("msg-1", "bob", 2); err != nil {
		t.Fatalf("bob: %v", err)
	}
	out, err := c.SubmitVote("msg-1", "carol", 3)
	if err != nil {
		t.Fatalf("carol: %v", err)
	}
	if !out.RoundComplete {
		t.Fatalf("expected completion")
	}
	if got := l.Weeks["1"].Games["1"]["alice"]; got.Placement != 1 || got.Points != 3 {
		t.Fatalf("alice result = %+v, want overwrite to place 1", got)
	}
}

func TestCompletedRoundResultsOrderedByPlacement(t *testing.T) {
	_, c, _ := newTestCollector(t, 1)
	c.Open("msg-1", "1", "1")

	c.SubmitVote("msg-1", "carol", 2)
	c.SubmitVote("msg-1", "alice", 3)
	out, err := c.SubmitVote("msg-1", "bob", 1)
	if err != nil || !out.RoundComplete {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	wantOrder := []string{"bob", "carol", "alice"}
	for i, r := range out.Results {
		if r.Player != wantOrder[i] {
			t.Fatalf("results[%d] = %s, want %s", i, r.Player, wantOrder[i])
		}
	}
}

func TestLastGameAutoFinalizesWeek(t *testing.T) {
	l, c, saver := newTestCollector(t, 2)
	c.Open("msg-1", "1", "1")
	c.Open("msg-2", "1", "2")

	vote := func(id string) VoteOutcome {
		t.Helper()
		c.SubmitVote(id, "alice", 1)
		c.SubmitVote(id, "bob", 2)
		out, err := c.SubmitVote(id, "carol", 3)
		if err != nil {
			t.Fatalf("voting on %s: %v", id, err)
		}
		return out
	}

	first := vote("msg-1")
	if !first.RoundComplete || first.WeekFinalized {
		t.Fatalf("first round outcome = %+v", first)
	}
	if c.OpenSessions() != 1 {
		t.Fatalf("expected 1 open session, got %d", c.OpenSessions())
	}

	second := vote("msg-2")
	if !second.RoundComplete || !second.WeekFinalized || second.Summary == nil {
		t.Fatalf("second round outcome = %+v", second)
	}
	if !l.Weeks["1"].Finalized {
		t.Fatalf("week not finalized")
	}
	if second.Summary.FinalScores["alice"] != 6 {
		t.Fatalf("final scores = %v", second.Summary.FinalScores)
	}
	// one save per merge plus one for the finalized state
	if saver.saves != 3 {
		t.Fatalf("expected 3 saves, got %d", saver.saves)
	}
	if c.OpenSessions() != 0 {
		t.Fatalf("expected all sessions destroyed, got %d", c.OpenSessions())
	}
}

func TestCompletedSessionIsDestroyed(t *testing.T) {
	l, c, _ := newTestCollector(t, 2)
	c.Open("msg-1", "1", "1")

	c.SubmitVote("msg-1", "alice", 1)
	c.SubmitVote("msg-1", "bob", 2)
	if out, _ := c.SubmitVote("msg-1", "carol", 3); !out.RoundComplete {
		t.Fatalf("expected completion")
	}

	// a late vote for the destroyed session changes nothing
	before := l.Weeks["1"].Games["1"]["alice"]
	if out, err := c.SubmitVote("msg-1", "alice", 2); err != nil || out.RoundComplete {
		t.Fatalf("late vote: out=%+v err=%v", out, err)
	}
	if got := l.Weeks["1"].Games["1"]["alice"]; got != before {
		t.Fatalf("late vote mutated merged game: %+v", got)
	}
}

func TestHasOpenSession(t *testing.T) {
	_, c, _ := newTestCollector(t, 2)
	c.Open("msg-1", "1", "1")

	if !c.HasOpenSession("1", "1") {
		t.Fatalf("expected open session for week 1 game 1")
	}
	if c.HasOpenSession("1", "2") {
		t.Fatalf("unexpected session for week 1 game 2")
	}

	c.SubmitVote("msg-1", "alice", 1)
	c.SubmitVote("msg-1", "bob", 2)
	c.SubmitVote("msg-1", "carol", 3)
	if c.HasOpenSession("1", "1") {
		t.Fatalf("completed session still reported open")
	}
}
