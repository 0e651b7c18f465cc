// Package store persists league state and ledger rows in a single sqlite
// database. League state is an opaque JSON blob keyed by league name; card
// additions are indexed rows keyed by a synthetic id so removal never has to
// match by value.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mtgleague/leaguebot/internal/league"
)

type Store struct {
	db *sql.DB
}

// Card is one ledger row: an acquisition charged against a player's
// cumulative allowance.
type Card struct {
	ID          string
	League      string
	Week        string
	Player      string
	Name        string
	TCGPlayerID int64
	Price       float64
}

const schema = `
CREATE TABLE IF NOT EXISTS league (
    name TEXT PRIMARY KEY,
    blob TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS card_addition (
    id TEXT PRIMARY KEY,
    league TEXT NOT NULL,
    week TEXT NOT NULL,
    player TEXT NOT NULL,
    card_name TEXT NOT NULL,
    tcgplayer_id INTEGER NOT NULL DEFAULT 0,
    price REAL NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_card_addition_player ON card_addition(league, player);
CREATE INDEX IF NOT EXISTS idx_card_addition_week ON card_addition(league, week);
`

// Open opens (creating if necessary) the database at path. Safe to call on
// an existing database; the schema uses IF NOT EXISTS throughout.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from silently splitting per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLeague writes the whole league state as one blob, replacing any
// previous state for the same name.
func (s *Store) SaveLeague(l *league.League) error {
	blob, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encoding league: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO league (name, blob, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
	`, l.Name, string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving league %q: %w", l.Name, err)
	}
	return nil
}

func (s *Store) LoadLeague(name string) (*league.League, error) {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM league WHERE name = $1`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("league %q: %w", name, league.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading league %q: %w", name, err)
	}
	l := &league.League{}
	if err := json.Unmarshal([]byte(blob), l); err != nil {
		return nil, fmt.Errorf("decoding league %q: %w", name, err)
	}
	if l.Weeks == nil {
		l.Weeks = make(map[string]*league.Week)
	}
	return l, nil
}

func (s *Store) InsertCard(c Card) error {
	_, err := s.db.Exec(`
		INSERT INTO card_addition (id, league, week, player, card_name, tcgplayer_id, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.League, c.Week, c.Player, c.Name, c.TCGPlayerID, c.Price, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting card %q: %w", c.Name, err)
	}
	return nil
}

// DeleteCard removes exactly one row by id.
func (s *Store) DeleteCard(id string) error {
	res, err := s.db.Exec(`DELETE FROM card_addition WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting card %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", id, league.ErrNotFound)
	}
	return nil
}

// CardsByPlayer returns every row for a player across the whole season,
// optionally filtered to one week (empty week means all weeks).
func (s *Store) CardsByPlayer(leagueName, player, week string) ([]Card, error) {
	query := `
		SELECT id, league, week, player, card_name, tcgplayer_id, price
		FROM card_addition
		WHERE league = $1 AND player = $2`
	args := []any{leagueName, player}
	if week != "" {
		query += ` AND week = $3`
		args = append(args, week)
	}
	query += ` ORDER BY created_at, id`
	return s.queryCards(query, args...)
}

// CardsByWeek returns every row recorded against one week.
func (s *Store) CardsByWeek(leagueName, week string) ([]Card, error) {
	return s.queryCards(`
		SELECT id, league, week, player, card_name, tcgplayer_id, price
		FROM card_addition
		WHERE league = $1 AND week = $2
		ORDER BY created_at, id`, leagueName, week)
}

func (s *Store) queryCards(query string, args ...any) ([]Card, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cards: %w", err)
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.League, &c.Week, &c.Player, &c.Name, &c.TCGPlayerID, &c.Price); err != nil {
			return nil, fmt.Errorf("scanning card row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading card rows: %w", err)
	}
	return out, nil
}
