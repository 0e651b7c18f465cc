// Package service is the orchestration layer: it owns the loaded league
// handle, wires chat events into the core league/ledger operations, and
// renders results into user-facing text. Nothing below this package formats
// messages, and nothing in this package talks to Discord directly.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mtgleague/leaguebot/internal/api/scryfall"
	"github.com/mtgleague/leaguebot/internal/league"
	"github.com/mtgleague/leaguebot/internal/ledger"
	"github.com/mtgleague/leaguebot/internal/store"
)

// NameResolver turns a platform user id into a display name.
type NameResolver func(playerID string) string

// Message is a rendered reply, consumed by the bot as an embed.
type Message struct {
	Title       string
	Description string
}

type Service struct {
	store   *store.Store
	cards   *scryfall.Client
	ledger  *ledger.Service
	resolve NameResolver

	mu        sync.Mutex
	league    *league.League
	collector *league.Collector
	pending   map[string]*pendingPick
}

func New(st *store.Store, cards *scryfall.Client, led *ledger.Service, resolve NameResolver) *Service {
	if resolve == nil {
		resolve = func(id string) string { return id }
	}
	return &Service{
		store:   st,
		cards:   cards,
		ledger:  led,
		resolve: resolve,
		pending: make(map[string]*pendingPick),
	}
}

func (s *Service) current() (*league.League, *league.Collector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.league == nil {
		return nil, nil, league.ErrNoActiveLeague
	}
	return s.league, s.collector, nil
}

// CreateLeague creates and persists a fresh league and makes it current.
func (s *Service) CreateLeague(name string, playerIDs []string) (Message, error) {
	l, err := league.New(name, playerIDs)
	if err != nil {
		return Message{}, err
	}
	if err := s.store.SaveLeague(l); err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	s.league = l
	s.collector = league.NewCollector(l, s.store, s.ledger, &s.mu)
	s.pending = make(map[string]*pendingPick)
	s.mu.Unlock()

	names := make([]string, len(playerIDs))
	for i, id := range playerIDs {
		names[i] = s.resolve(id)
	}
	slog.Info("league created", "league", name, "players", len(playerIDs))
	return Message{
		Title:       "League Created",
		Description: fmt.Sprintf("**League:** %s\n**Players:** %s", name, strings.Join(names, ", ")),
	}, nil
}

// LoadLeague swaps the current league handle for a stored one. Open vote
// sessions of the previous league are discarded with it.
func (s *Service) LoadLeague(name string) (Message, error) {
	l, err := s.store.LoadLeague(name)
	if err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	s.league = l
	s.collector = league.NewCollector(l, s.store, s.ledger, &s.mu)
	s.pending = make(map[string]*pendingPick)
	s.mu.Unlock()

	slog.Info("league loaded", "league", name)
	return Message{
		Title:       "League Loaded",
		Description: fmt.Sprintf("Loaded **%s**", l.Name),
	}, nil
}

// LeagueName is used for footers; empty when nothing is loaded.
func (s *Service) LeagueName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.league == nil {
		return ""
	}
	return s.league.Name
}

// RoundGame is one vote prompt the bot should post.
type RoundGame struct {
	Key         string
	Title       string
	Description string
}

// RoundStart describes the sessions to open for a round-start request.
type RoundStart struct {
	Week       string
	RosterSize int
	Games      []RoundGame
}

// StartRound ensures an open week and describes a vote prompt for every game
// that has no recorded results yet and no session already collecting votes,
// so a repeated round-start command cannot shadow a prompt that is mid-vote.
// The bot posts the prompts and registers each message id as a session via
// RegisterSession.
func (s *Service) StartRound(numGames int) (*RoundStart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.league == nil {
		return nil, league.ErrNoActiveLeague
	}

	week, wk, created, err := s.league.EnsureOpenWeek(numGames)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.store.SaveLeague(s.league); err != nil {
			return nil, err
		}
		slog.Info("week opened", "league", s.league.Name, "week", week, "games", wk.NumGames)
	}

	var choices strings.Builder
	for i, id := range s.league.Players {
		fmt.Fprintf(&choices, ":%d: %s\n", i+1, s.resolve(id))
	}

	start := &RoundStart{Week: week, RosterSize: len(s.league.Players)}
	for g := 1; g <= wk.NumGames; g++ {
		key := league.Key(g)
		if _, done := wk.Games[key]; done {
			continue
		}
		if s.collector.HasOpenSession(week, key) {
			continue
		}
		start.Games = append(start.Games, RoundGame{
			Key:         key,
			Title:       fmt.Sprintf("Week %s - Game %s", week, key),
			Description: "React with placement:\n" + choices.String(),
		})
	}
	return start, nil
}

// RegisterSession binds a posted vote prompt to its week and game.
func (s *Service) RegisterSession(messageID, week, game string) error {
	_, collector, err := s.current()
	if err != nil {
		return err
	}
	collector.Open(messageID, week, game)
	return nil
}

// HandleVote routes one reaction to the collector and renders whatever it
// caused. Reactions that are not placement votes produce no messages.
func (s *Service) HandleVote(messageID, userID string, placement int) ([]Message, error) {
	_, collector, err := s.current()
	if err != nil {
		return nil, nil // no league loaded; reaction is a stray event
	}

	outcome, err := collector.SubmitVote(messageID, userID, placement)
	if err != nil {
		return nil, err
	}
	if !outcome.RoundComplete {
		return nil, nil
	}

	var lines strings.Builder
	for _, r := range outcome.Results {
		fmt.Fprintf(&lines, "%s: place %d — **%d pts**\n", s.resolve(r.Player), r.Placement, r.Points)
	}
	messages := []Message{{
		Title:       fmt.Sprintf("Results W%s G%s", outcome.Week, outcome.Game),
		Description: strings.TrimRight(lines.String(), "\n"),
	}}
	if outcome.WeekFinalized {
		messages = append(messages, s.renderFinalizedWeek(outcome.Week, outcome.Summary))
	}
	return messages, nil
}

// Leaderboard renders season-wide point totals, highest first.
func (s *Service) Leaderboard() (Message, error) {
	l, _, err := s.current()
	if err != nil {
		return Message{}, err
	}
	standings := l.Leaderboard()
	if len(standings) == 0 {
		return Message{Title: "No Data", Description: "No scores recorded yet."}, nil
	}
	var sb strings.Builder
	for _, st := range standings {
		fmt.Fprintf(&sb, "%s: **%d pts**\n", s.resolve(st.Player), st.Points)
	}
	return Message{Title: "🏆 Leaderboard", Description: strings.TrimRight(sb.String(), "\n")}, nil
}

// LeaderboardReport is the scheduler-facing variant of Leaderboard.
func (s *Service) LeaderboardReport() (string, error) {
	msg, err := s.Leaderboard()
	if err != nil {
		return "", err
	}
	return msg.Title + "\n" + msg.Description, nil
}

// EditScore overrides one recorded placement and persists the league.
func (s *Service) EditScore(week, game int, playerID string, placement int) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.league == nil {
		return Message{}, league.ErrNoActiveLeague
	}
	r, err := s.league.EditScore(week, game, playerID, placement)
	if err != nil {
		return Message{}, err
	}
	if err := s.store.SaveLeague(s.league); err != nil {
		return Message{}, err
	}
	return Message{
		Title:       "Score Updated",
		Description: fmt.Sprintf("W%d G%d %s -> place %d (%d pts)", week, game, s.resolve(playerID), r.Placement, r.Points),
	}, nil
}

// FinalizeWeek is the manual finalization trigger for the current week.
func (s *Service) FinalizeWeek() (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.league == nil {
		return Message{}, league.ErrNoActiveLeague
	}
	week, wk := s.league.CurrentWeek()
	if wk == nil {
		return Message{}, fmt.Errorf("no weeks recorded: %w", league.ErrNotFound)
	}
	cards, err := s.ledger.CardDescriptions(s.league.Name, week)
	if err != nil {
		return Message{}, err
	}
	summary, err := s.league.FinalizeWeek(week, cards)
	if err != nil {
		return Message{}, err
	}
	if err := s.store.SaveLeague(s.league); err != nil {
		return Message{}, err
	}
	slog.Info("week finalized", "league", s.league.Name, "week", week)
	return s.renderFinalizedWeek(week, summary), nil
}

func (s *Service) renderFinalizedWeek(week string, wk *league.Week) Message {
	var sb strings.Builder

	sb.WriteString("*Final Scores*\n")
	if len(wk.FinalScores) == 0 {
		sb.WriteString("No scores.\n")
	}
	players := make([]string, 0, len(wk.FinalScores))
	for p := range wk.FinalScores {
		players = append(players, p)
	}
	// highest score first, ties by id for stable output
	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if wk.FinalScores[a] != wk.FinalScores[b] {
			return wk.FinalScores[a] > wk.FinalScores[b]
		}
		return a < b
	})
	for _, p := range players {
		fmt.Fprintf(&sb, "🏅 %s: **%d pts**\n", s.resolve(p), wk.FinalScores[p])
	}

	sb.WriteString("\n*Allowances*\n")
	if len(wk.Allowances) == 0 {
		sb.WriteString("No allowances.\n")
	}
	for _, p := range players {
		if a, ok := wk.Allowances[p]; ok {
			fmt.Fprintf(&sb, "💳 %s: %s — %d cards / $%.0f\n",
				s.resolve(p), titleCase(a.Category), a.CardLimit, a.PriceLimit)
		}
	}

	sb.WriteString("\n*Cards Added*\n")
	if len(wk.CardAdditions) == 0 {
		sb.WriteString("No cards added.")
	}
	for p, cards := range wk.CardAdditions {
		fmt.Fprintf(&sb, "📦 %s: %s\n", s.resolve(p), strings.Join(cards, ", "))
	}

	return Message{
		Title:       fmt.Sprintf("Week %s Finalized", week),
		Description: strings.TrimRight(sb.String(), "\n"),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RenderError maps core error kinds to user-facing text.
func (s *Service) RenderError(err error) Message {
	desc := err.Error()
	switch {
	case errors.Is(err, league.ErrNoActiveLeague):
		desc = "No league loaded."
	case errors.Is(err, league.ErrAlreadyFinalized):
		desc = "Week already finalized."
	case errors.Is(err, league.ErrNotFinalized):
		desc = "Week not finalized yet."
	case errors.Is(err, league.ErrIncompleteWeek):
		desc = "Week still has missing results."
	case errors.Is(err, league.ErrAllowanceExceeded):
		desc = "Allowance exceeded for the season."
	case errors.Is(err, league.ErrInvalidPlacement):
		desc = "That placement is out of range."
	case errors.Is(err, league.ErrNotFound):
		desc = "Invalid week/game."
	case errors.Is(err, scryfall.ErrTooManyResults):
		desc = "Too many results; narrow search."
	case errors.Is(err, scryfall.ErrNoResults):
		desc = "No cards found."
	}
	return Message{Title: "Error", Description: desc}
}
