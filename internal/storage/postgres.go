package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/sbc2026/companion/internal/pkg/config"
)

// ErrDuplicatePick is returned when a user already made a pick of the same
// bet type for a match.
var ErrDuplicatePick = errors.New("user already made a pick of this bet type for this match")

// TeamRow is one row of the teams table.
type TeamRow struct {
	ID          int64
	Name        string
	GroupName   sql.NullString
	CountryCode sql.NullString
}

// MatchRow is one row of the matches table, match_cards-shaped: team names
// inline, scores null until the match finishes.
type MatchRow struct {
	ID         int64
	Team1      string
	Team2      string
	MatchDate  time.Time
	Venue      sql.NullString
	Stage      sql.NullString
	Status     string
	ScoreTeam1 sql.NullInt64
	ScoreTeam2 sql.NullInt64
}

// ValueBetRow is one row of the valuebets table. Edge and EV are stored as
// the percentage strings the model produces ("4.5%").
type ValueBetRow struct {
	ID       int64
	Match    string
	Market   string
	Pick     string
	FairOdds int64
	BookOdds int64
	Edge     string
	EV       string
}

// PickRow is one row of the bets table.
type PickRow struct {
	ID      int64
	UserID  string
	MatchID int64
	BetType string
	BetOn   string
	Odds    sql.NullInt64
	Amount  sql.NullFloat64
	Result  sql.NullString
}

// PostgresStore backs the data API with PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database, verifies the connection and ensures
// the schema exists.
func NewPostgresStore(cfg *config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL store initialized")
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS teams (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL UNIQUE,
		group_name VARCHAR(100),
		country_code VARCHAR(10)
	);

	CREATE TABLE IF NOT EXISTS matches (
		id SERIAL PRIMARY KEY,
		team1 VARCHAR(200) NOT NULL,
		team2 VARCHAR(200) NOT NULL,
		match_date TIMESTAMP NOT NULL,
		venue VARCHAR(200),
		stage VARCHAR(100),
		status VARCHAR(20) NOT NULL DEFAULT 'upcoming',
		score_team1 INTEGER,
		score_team2 INTEGER
	);

	CREATE TABLE IF NOT EXISTS valuebets (
		id SERIAL PRIMARY KEY,
		match VARCHAR(200) NOT NULL,
		market VARCHAR(100) NOT NULL,
		pick VARCHAR(100) NOT NULL,
		fair_odds INTEGER NOT NULL,
		book INTEGER NOT NULL,
		edge VARCHAR(20) NOT NULL,
		ev VARCHAR(20) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bets (
		id SERIAL PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		match_id INTEGER NOT NULL REFERENCES matches(id),
		bet_type VARCHAR(50) NOT NULL,
		bet_on VARCHAR(100) NOT NULL,
		odds INTEGER,
		amount DECIMAL(12, 2),
		result VARCHAR(20),
		UNIQUE(user_id, match_id, bet_type)
	);

	CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status);
	CREATE INDEX IF NOT EXISTS idx_bets_user ON bets(user_id, bet_type);
	CREATE INDEX IF NOT EXISTS idx_bets_match ON bets(match_id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// ListTeams returns all teams ordered by name.
func (s *PostgresStore) ListTeams(ctx context.Context) ([]TeamRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, group_name, country_code FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []TeamRow
	for rows.Next() {
		var t TeamRow
		if err := rows.Scan(&t.ID, &t.Name, &t.GroupName, &t.CountryCode); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListMatches returns all matches ordered by date.
func (s *PostgresStore) ListMatches(ctx context.Context) ([]MatchRow, error) {
	return s.queryMatches(ctx,
		`SELECT id, team1, team2, match_date, venue, stage, status, score_team1, score_team2
		 FROM matches ORDER BY match_date`)
}

// ListResults returns finished matches, most recent first.
func (s *PostgresStore) ListResults(ctx context.Context) ([]MatchRow, error) {
	return s.queryMatches(ctx,
		`SELECT id, team1, team2, match_date, venue, stage, status, score_team1, score_team2
		 FROM matches WHERE status = 'finished' ORDER BY match_date DESC`)
}

func (s *PostgresStore) queryMatches(ctx context.Context, query string, args ...any) ([]MatchRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ID, &m.Team1, &m.Team2, &m.MatchDate, &m.Venue, &m.Stage,
			&m.Status, &m.ScoreTeam1, &m.ScoreTeam2); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListValueBets returns all value bets in insertion order.
func (s *PostgresStore) ListValueBets(ctx context.Context) ([]ValueBetRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match, market, pick, fair_odds, book, edge, ev FROM valuebets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuebets: %w", err)
	}
	defer rows.Close()

	var bets []ValueBetRow
	for rows.Next() {
		var vb ValueBetRow
		if err := rows.Scan(&vb.ID, &vb.Match, &vb.Market, &vb.Pick,
			&vb.FairOdds, &vb.BookOdds, &vb.Edge, &vb.EV); err != nil {
			return nil, fmt.Errorf("failed to scan value bet: %w", err)
		}
		bets = append(bets, vb)
	}
	return bets, rows.Err()
}

// ListPicks returns all recorded picks.
func (s *PostgresStore) ListPicks(ctx context.Context) ([]PickRow, error) {
	return s.queryPicks(ctx,
		`SELECT id, user_id, match_id, bet_type, bet_on, odds, amount, result FROM bets ORDER BY id`)
}

// UserBets returns one user's picks filtered by bet type.
func (s *PostgresStore) UserBets(ctx context.Context, userID, betType string) ([]PickRow, error) {
	return s.queryPicks(ctx,
		`SELECT id, user_id, match_id, bet_type, bet_on, odds, amount, result
		 FROM bets WHERE user_id = $1 AND bet_type = $2 ORDER BY id`, userID, betType)
}

func (s *PostgresStore) queryPicks(ctx context.Context, query string, args ...any) ([]PickRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	var picks []PickRow
	for rows.Next() {
		var p PickRow
		if err := rows.Scan(&p.ID, &p.UserID, &p.MatchID, &p.BetType, &p.BetOn,
			&p.Odds, &p.Amount, &p.Result); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// InsertMatch stores a new match and returns the stored row.
func (s *PostgresStore) InsertMatch(ctx context.Context, team1, team2 string, matchDate time.Time, venue, stage, status string) (MatchRow, error) {
	m := MatchRow{Team1: team1, Team2: team2, MatchDate: matchDate, Status: status}
	if venue != "" {
		m.Venue = sql.NullString{String: venue, Valid: true}
	}
	if stage != "" {
		m.Stage = sql.NullString{String: stage, Valid: true}
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO matches (team1, team2, match_date, venue, stage, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		team1, team2, matchDate, m.Venue, m.Stage, status).Scan(&m.ID)
	if err != nil {
		return MatchRow{}, fmt.Errorf("failed to insert match: %w", err)
	}
	return m, nil
}

// InsertPick stores a new pick, rejecting a duplicate of the same bet type
// by the same user on the same match.
func (s *PostgresStore) InsertPick(ctx context.Context, userID string, matchID int64, betType, betOn string, odds int64, amount float64) (PickRow, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bets WHERE user_id = $1 AND match_id = $2 AND bet_type = $3)`,
		userID, matchID, betType).Scan(&exists)
	if err != nil {
		return PickRow{}, fmt.Errorf("failed to check existing pick: %w", err)
	}
	if exists {
		return PickRow{}, ErrDuplicatePick
	}

	p := PickRow{
		UserID: userID, MatchID: matchID, BetType: betType, BetOn: betOn,
		Odds:   sql.NullInt64{Int64: odds, Valid: true},
		Amount: sql.NullFloat64{Float64: amount, Valid: true},
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO bets (user_id, match_id, bet_type, bet_on, odds, amount)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, matchID, betType, betOn, odds, amount).Scan(&p.ID)
	if err != nil {
		return PickRow{}, fmt.Errorf("failed to insert pick: %w", err)
	}
	return p, nil
}

// SettleMatch records the final score, marks the match finished and settles
// every winner-type pick on it: picks on the winning side are marked won,
// the other side lost, and every pick pushes on a draw.
func (s *PostgresStore) SettleMatch(ctx context.Context, matchID int64, scoreTeam1, scoreTeam2 int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE matches SET score_team1 = $1, score_team2 = $2, status = 'finished' WHERE id = $3`,
		scoreTeam1, scoreTeam2, matchID)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	winner := WinningSide(scoreTeam1, scoreTeam2)
	if winner == "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE bets SET result = 'push' WHERE match_id = $1`, matchID)
	} else {
		loser := "team2"
		if winner == "team2" {
			loser = "team1"
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE bets SET result = 'won' WHERE match_id = $1 AND bet_on = $2`, matchID, winner); err == nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE bets SET result = 'lost' WHERE match_id = $1 AND bet_on = $2`, matchID, loser)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to settle picks: %w", err)
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// WinningSide reports which side a winner pick must be on to win ("team1"
// or "team2"), or "" on a draw.
func WinningSide(scoreTeam1, scoreTeam2 int) string {
	switch {
	case scoreTeam1 > scoreTeam2:
		return "team1"
	case scoreTeam2 > scoreTeam1:
		return "team2"
	default:
		return ""
	}
}
