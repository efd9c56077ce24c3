package assistant

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sbc2026/companion/internal/pkg/models"
)

// record is one raw backend row. The backend is observed to emit
// inconsistent key casing ("match" vs "Match", "fair_odds" vs "Fair Odds"),
// so every field is resolved through a fixed alias priority list here and
// nowhere else.
type record map[string]any

// str returns the first present, non-empty alias converted to a string.
func (r record) str(aliases ...string) string {
	for _, key := range aliases {
		if v, ok := r[key]; ok {
			if s := coerceString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// strOr is str with a placeholder fallback for display fields.
func (r record) strOr(fallback string, aliases ...string) string {
	if s := r.str(aliases...); s != "" {
		return s
	}
	return fallback
}

// intPtr returns the first present alias as an integer, or nil when no
// alias holds a usable number.
func (r record) intPtr(aliases ...string) *int {
	for _, key := range aliases {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			n := int(x)
			return &n
		case json.Number:
			if i, err := x.Int64(); err == nil {
				n := int(i)
				return &n
			}
		case string:
			if i, err := strconv.Atoi(x); err == nil {
				return &i
			}
		}
	}
	return nil
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func teamFromRecord(r record) models.Team {
	return models.Team{
		ID:          r.str("id", "ID", "Id"),
		Name:        r.str("name", "Name"),
		GroupName:   r.str("group_name", "groupName", "Group Name", "group"),
		CountryCode: r.str("country_code", "countryCode", "Country Code"),
	}
}

func matchFromRecord(r record) models.Match {
	return models.Match{
		ID:         r.str("match_id", "matchId", "id", "ID"),
		Team1:      r.str("team1", "Team1", "team_1"),
		Team2:      r.str("team2", "Team2", "team_2"),
		Date:       r.str("match_date", "matchDate", "date", "Date"),
		Venue:      r.str("venue", "Venue"),
		Stage:      r.str("stage", "Stage"),
		Status:     r.str("status", "Status"),
		ScoreTeam1: r.intPtr("score_team1", "scoreTeam1", "Score Team1"),
		ScoreTeam2: r.intPtr("score_team2", "scoreTeam2", "Score Team2"),
	}
}

func valueBetFromRecord(r record) models.ValueBet {
	return models.ValueBet{
		ID:       r.str("id", "ID", "Id"),
		Match:    r.strOr("-", "match", "Match"),
		Market:   r.strOr("-", "market", "Market"),
		Pick:     r.strOr("-", "pick", "Pick"),
		FairOdds: r.strOr("-", "fair_odds", "fairOdds", "Fair Odds", "fair"),
		BookOdds: r.strOr("-", "book", "book_odds", "Book Odds", "bookOdds"),
		Edge:     r.strOr("-", "edge", "Edge"),
		EV:       r.strOr("-", "ev", "EV", "Ev"),
	}
}

func pickFromRecord(r record) models.Pick {
	return models.Pick{
		ID:      r.str("id", "ID", "Id"),
		MatchID: r.str("match_id", "matchId", "Match ID"),
		BetType: r.str("bet_type", "betType", "Bet Type"),
		BetOn:   r.str("bet_on", "betOn", "Bet On"),
		Odds:    r.str("odds", "Odds"),
		Amount:  r.str("amount", "Amount"),
		Result:  r.str("result", "Result"),
	}
}
