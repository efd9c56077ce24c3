package models

// Match status values as served by the data API.
const (
	MatchStatusUpcoming = "upcoming"
	MatchStatusFinished = "finished"
)

// Match represents one tournament match as served by /match_cards and
// /results. Scores are only present when Status is "finished".
type Match struct {
	ID         string `json:"match_id"`
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	Date       string `json:"match_date"`
	Venue      string `json:"venue,omitempty"`
	Stage      string `json:"stage,omitempty"`
	Status     string `json:"status"`
	ScoreTeam1 *int   `json:"score_team1,omitempty"`
	ScoreTeam2 *int   `json:"score_team2,omitempty"`
}

// Finished reports whether the match is completed with both scores recorded.
func (m Match) Finished() bool {
	return m.Status == MatchStatusFinished && m.ScoreTeam1 != nil && m.ScoreTeam2 != nil
}

// Team represents one tournament team. GroupName and CountryCode may be
// absent from the backend payload.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GroupName   string `json:"group_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// ValueBet is one model-identified betting opportunity. Edge and EV carry a
// trailing percent sign ("4.5%"); they are parsed for ranking but never
// rewritten in place.
type ValueBet struct {
	ID       string `json:"id"`
	Match    string `json:"match"`
	Market   string `json:"market"`
	Pick     string `json:"pick"`
	FairOdds string `json:"fair_odds"`
	BookOdds string `json:"book"`
	Edge     string `json:"edge"`
	EV       string `json:"ev"`
}

// Pick result values. An absent result means the pick is still open.
const (
	PickResultWon  = "won"
	PickResultLost = "lost"
)

// Pick represents one recorded pick. Odds, Amount and Result are optional;
// missing values are rendered as placeholders downstream.
type Pick struct {
	ID      string `json:"id"`
	MatchID string `json:"match_id"`
	BetType string `json:"bet_type"`
	BetOn   string `json:"bet_on"`
	Odds    string `json:"odds,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Result  string `json:"result,omitempty"`
}

// UserBets is the /user_bets response: all picks for one user filtered by
// bet type.
type UserBets struct {
	UserID  string `json:"user_id"`
	BetType string `json:"bet_type"`
	Bets    []Pick `json:"bets"`
}
