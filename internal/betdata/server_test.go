package betdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sbc2026/companion/internal/storage"
)

type fakeStore struct {
	teams     []storage.TeamRow
	matches   []storage.MatchRow
	valueBets []storage.ValueBetRow
	picks     []storage.PickRow

	insertedMatch *storage.MatchRow
	insertedPick  *storage.PickRow
	settled       bool
	pickErr       error
	settleErr     error
}

func (f *fakeStore) ListTeams(ctx context.Context) ([]storage.TeamRow, error) {
	return f.teams, nil
}

func (f *fakeStore) ListMatches(ctx context.Context) ([]storage.MatchRow, error) {
	return f.matches, nil
}

func (f *fakeStore) ListResults(ctx context.Context) ([]storage.MatchRow, error) {
	var out []storage.MatchRow
	for _, m := range f.matches {
		if m.Status == "finished" {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListValueBets(ctx context.Context) ([]storage.ValueBetRow, error) {
	return f.valueBets, nil
}

func (f *fakeStore) ListPicks(ctx context.Context) ([]storage.PickRow, error) {
	return f.picks, nil
}

func (f *fakeStore) UserBets(ctx context.Context, userID, betType string) ([]storage.PickRow, error) {
	var out []storage.PickRow
	for _, p := range f.picks {
		if p.UserID == userID && p.BetType == betType {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMatch(ctx context.Context, team1, team2 string, matchDate time.Time, venue, stage, status string) (storage.MatchRow, error) {
	m := storage.MatchRow{ID: 42, Team1: team1, Team2: team2, MatchDate: matchDate, Status: status}
	f.insertedMatch = &m
	return m, nil
}

func (f *fakeStore) InsertPick(ctx context.Context, userID string, matchID int64, betType, betOn string, odds int64, amount float64) (storage.PickRow, error) {
	if f.pickErr != nil {
		return storage.PickRow{}, f.pickErr
	}
	p := storage.PickRow{ID: 7, UserID: userID, MatchID: matchID, BetType: betType, BetOn: betOn}
	f.insertedPick = &p
	return p, nil
}

func (f *fakeStore) SettleMatch(ctx context.Context, matchID int64, scoreTeam1, scoreTeam2 int) error {
	if f.settleErr != nil {
		return f.settleErr
	}
	f.settled = true
	return nil
}

func newTestServer(store *fakeStore) *httptest.Server {
	mux := http.NewServeMux()
	New(store, nil).Register(mux)
	return httptest.NewServer(mux)
}

func TestTeamsEndpoint(t *testing.T) {
	store := &fakeStore{teams: []storage.TeamRow{
		{ID: 1, Name: "Argentina", GroupName: sql.NullString{String: "Group A", Valid: true}},
		{ID: 2, Name: "Brazil"},
	}}
	srv := newTestServer(store)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/teams")
	if err != nil {
		t.Fatalf("GET /teams: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var teams []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&teams); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("got %d teams, want 2", len(teams))
	}
	if teams[0]["name"] != "Argentina" || teams[0]["group_name"] != "Group A" {
		t.Errorf("unexpected first team: %v", teams[0])
	}
	if _, ok := teams[1]["group_name"]; ok {
		t.Errorf("group_name should be omitted when null: %v", teams[1])
	}
}

func TestValueBetsDemoFallback(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/valuebets")
	if err != nil {
		t.Fatalf("GET /valuebets: %v", err)
	}
	defer resp.Body.Close()

	var bets []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&bets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bets) != 2 {
		t.Fatalf("got %d demo bets, want 2", len(bets))
	}
	if bets[0]["match"] != "ARG vs BRA" {
		t.Errorf("first demo bet match = %v", bets[0]["match"])
	}
}

func TestValueBetsFromStore(t *testing.T) {
	store := &fakeStore{valueBets: []storage.ValueBetRow{
		{ID: 5, Match: "ESP vs POR", Market: "Moneyline", Pick: "ESP", FairOdds: 110, BookOdds: 125, Edge: "2.5%", EV: "3.3%"},
	}}
	srv := newTestServer(store)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/valuebets")
	if err != nil {
		t.Fatalf("GET /valuebets: %v", err)
	}
	defer resp.Body.Close()

	var bets []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&bets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bets) != 1 || bets[0]["match"] != "ESP vs POR" {
		t.Fatalf("unexpected bets: %v", bets)
	}
}

func TestPostMatchValidation(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)
	defer srv.Close()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "same teams",
			body:       `{"team1":"Argentina","team2":"Argentina","match_date":"2030-01-01T18:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Teams cannot be the same.",
		},
		{
			name:       "past date for upcoming",
			body:       `{"team1":"Argentina","team2":"Brazil","match_date":"2020-01-01T18:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Match date must be in the future.",
		},
		{
			name:       "missing teams",
			body:       `{"match_date":"2030-01-01T18:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "valid",
			body:       `{"team1":"Argentina","team2":"Brazil","match_date":"2030-01-01T18:00:00Z","venue":"Lusail"}`,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/matches", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /matches: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantDetail != "" {
				var body map[string]string
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["detail"] != tt.wantDetail {
					t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
				}
			}
		})
	}

	if store.insertedMatch == nil {
		t.Fatal("valid match was not inserted")
	}
	if store.insertedMatch.Status != "upcoming" {
		t.Errorf("default status = %q, want upcoming", store.insertedMatch.Status)
	}
}

func TestPostPickValidation(t *testing.T) {
	t.Run("rejects winner bet on non-team side", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})
		defer srv.Close()

		body := `{"user_id":"u1","match_id":3,"bet_type":"winner","bet_on":"draw","odds":150,"amount":25}`
		resp, err := http.Post(srv.URL+"/picks", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /picks: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("rejects duplicate pick", func(t *testing.T) {
		srv := newTestServer(&fakeStore{pickErr: storage.ErrDuplicatePick})
		defer srv.Close()

		body := `{"user_id":"u1","match_id":3,"bet_type":"winner","bet_on":"team1","odds":150,"amount":25}`
		resp, err := http.Post(srv.URL+"/picks", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /picks: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		var respBody map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(respBody["detail"], "already made a pick") {
			t.Errorf("detail = %q", respBody["detail"])
		}
	})

	t.Run("accepts valid pick", func(t *testing.T) {
		store := &fakeStore{}
		srv := newTestServer(store)
		defer srv.Close()

		body := `{"user_id":"u1","match_id":3,"bet_type":"winner","bet_on":"team2","odds":150,"amount":25}`
		resp, err := http.Post(srv.URL+"/picks", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /picks: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if store.insertedPick == nil || store.insertedPick.BetOn != "team2" {
			t.Errorf("pick not recorded: %+v", store.insertedPick)
		}
	})
}

func TestPostResult(t *testing.T) {
	t.Run("settles match", func(t *testing.T) {
		store := &fakeStore{}
		srv := newTestServer(store)
		defer srv.Close()

		body := `{"match_id":3,"score_team1":2,"score_team2":1}`
		resp, err := http.Post(srv.URL+"/results", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /results: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !store.settled {
			t.Error("match was not settled")
		}
	})

	t.Run("unknown match is 404", func(t *testing.T) {
		srv := newTestServer(&fakeStore{settleErr: sql.ErrNoRows})
		defer srv.Close()

		body := `{"match_id":999,"score_team1":2,"score_team2":1}`
		resp, err := http.Post(srv.URL+"/results", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /results: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("missing scores rejected", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})
		defer srv.Close()

		body := `{"match_id":3}`
		resp, err := http.Post(srv.URL+"/results", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /results: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestUserBetsEndpoint(t *testing.T) {
	store := &fakeStore{picks: []storage.PickRow{
		{ID: 1, UserID: "u1", MatchID: 3, BetType: "winner", BetOn: "team1"},
		{ID: 2, UserID: "u1", MatchID: 4, BetType: "score", BetOn: "2-1"},
		{ID: 3, UserID: "u2", MatchID: 3, BetType: "winner", BetOn: "team2"},
	}}
	srv := newTestServer(store)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/user_bets?user_id=u1&bet_type=winner")
	if err != nil {
		t.Fatalf("GET /user_bets: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		UserID  string           `json:"user_id"`
		BetType string           `json:"bet_type"`
		Bets    []map[string]any `json:"bets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != "u1" || body.BetType != "winner" {
		t.Errorf("echo fields = %q/%q", body.UserID, body.BetType)
	}
	if len(body.Bets) != 1 || body.Bets[0]["bet_on"] != "team1" {
		t.Errorf("unexpected bets: %v", body.Bets)
	}

	t.Run("missing params rejected", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/user_bets?user_id=u1")
		if err != nil {
			t.Fatalf("GET /user_bets: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}
