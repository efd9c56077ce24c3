// Package betdata hosts the betting data API: the JSON collections the
// assistant's data-access facade consumes, plus the write endpoints used to
// maintain them.
package betdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sbc2026/companion/internal/storage"
)

// Store is the storage surface the data API needs. *storage.PostgresStore
// satisfies it.
type Store interface {
	ListTeams(ctx context.Context) ([]storage.TeamRow, error)
	ListMatches(ctx context.Context) ([]storage.MatchRow, error)
	ListResults(ctx context.Context) ([]storage.MatchRow, error)
	ListValueBets(ctx context.Context) ([]storage.ValueBetRow, error)
	ListPicks(ctx context.Context) ([]storage.PickRow, error)
	UserBets(ctx context.Context, userID, betType string) ([]storage.PickRow, error)
	InsertMatch(ctx context.Context, team1, team2 string, matchDate time.Time, venue, stage, status string) (storage.MatchRow, error)
	InsertPick(ctx context.Context, userID string, matchID int64, betType, betOn string, odds int64, amount float64) (storage.PickRow, error)
	SettleMatch(ctx context.Context, matchID int64, scoreTeam1, scoreTeam2 int) error
}

// Server exposes the data API over HTTP.
type Server struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: store, log: log}
}

// Register adds all data endpoints to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/teams", s.handleTeams)
	mux.HandleFunc("/match_cards", s.handleMatchCards)
	mux.HandleFunc("/matches", s.handleMatches)
	mux.HandleFunc("/valuebets", s.handleValueBets)
	mux.HandleFunc("/results", s.handleResults)
	mux.HandleFunc("/picks", s.handlePicks)
	mux.HandleFunc("/user_bets", s.handleUserBets)
}

// Wire shapes. Optional columns are omitted when null so clients see the
// same field-presence behavior the teams/match tables actually have.

type teamPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	GroupName   string `json:"group_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

type matchPayload struct {
	ID         int64  `json:"match_id"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	MatchDate  string `json:"match_date"`
	Venue      string `json:"venue,omitempty"`
	Stage      string `json:"stage,omitempty"`
	Status     string `json:"status"`
	ScoreTeam1 *int64 `json:"score_team1,omitempty"`
	ScoreTeam2 *int64 `json:"score_team2,omitempty"`
}

type valueBetPayload struct {
	ID       int64  `json:"id"`
	Match    string `json:"match"`
	Market   string `json:"market"`
	Pick     string `json:"pick"`
	FairOdds int64  `json:"fair_odds"`
	Book     int64  `json:"book"`
	Edge     string `json:"edge"`
	EV       string `json:"ev"`
}

type pickPayload struct {
	ID      int64    `json:"id"`
	UserID  string   `json:"user_id"`
	MatchID int64    `json:"match_id"`
	BetType string   `json:"bet_type"`
	BetOn   string   `json:"bet_on"`
	Odds    *int64   `json:"odds,omitempty"`
	Amount  *float64 `json:"amount,omitempty"`
	Result  string   `json:"result,omitempty"`
}

func teamToPayload(t storage.TeamRow) teamPayload {
	return teamPayload{
		ID:          t.ID,
		Name:        t.Name,
		GroupName:   t.GroupName.String,
		CountryCode: t.CountryCode.String,
	}
}

func matchToPayload(m storage.MatchRow) matchPayload {
	p := matchPayload{
		ID:        m.ID,
		Team1:     m.Team1,
		Team2:     m.Team2,
		MatchDate: m.MatchDate.Format(time.RFC3339),
		Venue:     m.Venue.String,
		Stage:     m.Stage.String,
		Status:    m.Status,
	}
	if m.ScoreTeam1.Valid {
		p.ScoreTeam1 = &m.ScoreTeam1.Int64
	}
	if m.ScoreTeam2.Valid {
		p.ScoreTeam2 = &m.ScoreTeam2.Int64
	}
	return p
}

func pickToPayload(p storage.PickRow) pickPayload {
	out := pickPayload{
		ID:      p.ID,
		UserID:  p.UserID,
		MatchID: p.MatchID,
		BetType: p.BetType,
		BetOn:   p.BetOn,
		Result:  p.Result.String,
	}
	if p.Odds.Valid {
		out.Odds = &p.Odds.Int64
	}
	if p.Amount.Valid {
		out.Amount = &p.Amount.Float64
	}
	return out
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	teams, err := s.store.ListTeams(r.Context())
	if err != nil {
		s.fail(w, r, "list teams", err)
		return
	}
	payload := make([]teamPayload, 0, len(teams))
	for _, t := range teams {
		payload = append(payload, teamToPayload(t))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMatchCards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeMatchList(w, r, s.store.ListMatches)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeMatchList(w, r, s.store.ListResults)
	case http.MethodPost:
		s.handlePostResult(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) writeMatchList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context) ([]storage.MatchRow, error)) {
	matches, err := list(r.Context())
	if err != nil {
		s.fail(w, r, "list matches", err)
		return
	}
	payload := make([]matchPayload, 0, len(matches))
	for _, m := range matches {
		payload = append(payload, matchToPayload(m))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeMatchList(w, r, s.store.ListMatches)
	case http.MethodPost:
		s.handlePostMatch(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type postMatchRequest struct {
	Team1     string `json:"team1"`
	Team2     string `json:"team2"`
	MatchDate string `json:"match_date"`
	Venue     string `json:"venue"`
	Stage     string `json:"stage"`
	Status    string `json:"status"`
}

func (s *Server) handlePostMatch(w http.ResponseWriter, r *http.Request) {
	var req postMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Team1 == "" || req.Team2 == "" {
		writeError(w, http.StatusBadRequest, "team1 and team2 are required")
		return
	}
	if req.Team1 == req.Team2 {
		writeError(w, http.StatusBadRequest, "Teams cannot be the same.")
		return
	}
	if req.Status == "" {
		req.Status = "upcoming"
	}

	matchDate, err := time.Parse(time.RFC3339, req.MatchDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "match_date must be RFC 3339")
		return
	}
	if req.Status == "upcoming" && !matchDate.After(time.Now().UTC()) {
		writeError(w, http.StatusBadRequest, "Match date must be in the future.")
		return
	}

	m, err := s.store.InsertMatch(r.Context(), req.Team1, req.Team2, matchDate, req.Venue, req.Stage, req.Status)
	if err != nil {
		s.fail(w, r, "insert match", err)
		return
	}
	writeJSON(w, http.StatusOK, matchToPayload(m))
}

// Demo rows returned from /valuebets when the table is empty, so the
// front-end has something to show on a fresh database.
var demoValueBets = []valueBetPayload{
	{ID: 1, Match: "ARG vs BRA", Market: "Moneyline", Pick: "ARG", FairOdds: 120, Book: 140, Edge: "4.5%", EV: "6.2%"},
	{ID: 2, Match: "FRA vs GER", Market: "Over 2.5", Pick: "Over", FairOdds: -110, Book: 105, Edge: "3.1%", EV: "4.0%"},
}

func (s *Server) handleValueBets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	bets, err := s.store.ListValueBets(r.Context())
	if err != nil {
		s.fail(w, r, "list value bets", err)
		return
	}
	if len(bets) == 0 {
		writeJSON(w, http.StatusOK, demoValueBets)
		return
	}
	payload := make([]valueBetPayload, 0, len(bets))
	for _, vb := range bets {
		payload = append(payload, valueBetPayload{
			ID: vb.ID, Match: vb.Match, Market: vb.Market, Pick: vb.Pick,
			FairOdds: vb.FairOdds, Book: vb.BookOdds, Edge: vb.Edge, EV: vb.EV,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePicks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		picks, err := s.store.ListPicks(r.Context())
		if err != nil {
			s.fail(w, r, "list picks", err)
			return
		}
		payload := make([]pickPayload, 0, len(picks))
		for _, p := range picks {
			payload = append(payload, pickToPayload(p))
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		s.handlePostPick(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type postPickRequest struct {
	UserID  string  `json:"user_id"`
	MatchID int64   `json:"match_id"`
	BetType string  `json:"bet_type"`
	BetOn   string  `json:"bet_on"`
	Odds    int64   `json:"odds"`
	Amount  float64 `json:"amount"`
}

func (s *Server) handlePostPick(w http.ResponseWriter, r *http.Request) {
	var req postPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.MatchID == 0 || req.BetType == "" || req.BetOn == "" {
		writeError(w, http.StatusBadRequest, "user_id, match_id, bet_type and bet_on are required")
		return
	}
	if req.BetType == "winner" && req.BetOn != "team1" && req.BetOn != "team2" {
		writeError(w, http.StatusBadRequest, "User did not bet on the eligible teams, must bet on team1 or team2")
		return
	}

	p, err := s.store.InsertPick(r.Context(), req.UserID, req.MatchID, req.BetType, req.BetOn, req.Odds, req.Amount)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicatePick) {
			writeError(w, http.StatusBadRequest, "User already made a pick for the same bet type for this match.")
			return
		}
		s.fail(w, r, "insert pick", err)
		return
	}
	writeJSON(w, http.StatusOK, pickToPayload(p))
}

type postResultRequest struct {
	MatchID    int64 `json:"match_id"`
	ScoreTeam1 *int  `json:"score_team1"`
	ScoreTeam2 *int  `json:"score_team2"`
}

func (s *Server) handlePostResult(w http.ResponseWriter, r *http.Request) {
	var req postResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MatchID == 0 || req.ScoreTeam1 == nil || req.ScoreTeam2 == nil {
		writeError(w, http.StatusBadRequest, "match_id, score_team1 and score_team2 are required")
		return
	}

	err := s.store.SettleMatch(r.Context(), req.MatchID, *req.ScoreTeam1, *req.ScoreTeam2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("match %d not found", req.MatchID))
			return
		}
		s.fail(w, r, "settle match", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Results updated successfully."})
}

func (s *Server) handleUserBets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := r.URL.Query().Get("user_id")
	betType := r.URL.Query().Get("bet_type")
	if userID == "" || betType == "" {
		writeError(w, http.StatusBadRequest, "user_id and bet_type are required")
		return
	}

	picks, err := s.store.UserBets(r.Context(), userID, betType)
	if err != nil {
		s.fail(w, r, "list user bets", err)
		return
	}
	bets := make([]pickPayload, 0, len(picks))
	for _, p := range picks {
		bets = append(bets, pickToPayload(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"bet_type": betType,
		"bets":     bets,
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := uuid.NewString()
	s.log.Error("request failed", "request_id", requestID, "op", op, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error, request "+requestID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
