package assistant

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sbc2026/companion/internal/pkg/models"
)

// Top-N cuts per intent.
const (
	highScoringLimit = 5
	valueBetsLimit   = 3
	upcomingLimit    = 5
	resultsLimit     = 10
	picksLimit       = 10
)

const userBetsReply = "I can't look up personal bets from chat: there's no account linked to this conversation. " +
	"Open the My Bets panel to see your picks, or ask me about value bets, results, or upcoming matches."

const helpReply = `I'm your betting assistant. Try asking:
- "show all teams" for every team in the database
- "Argentina matches" for a team's matches
- "best value bets" for the top edges right now
- "upcoming matches" for what's next on the schedule
- "record of France" for a team's win-loss-draw record
- "results" for finished matches
- "show picks" for recorded picks
- "group stage matches" for matches in a tournament stage`

func handleListTeams(ctx context.Context, src DataSource, _ string) (string, error) {
	teams, err := src.ListTeams(ctx)
	if err != nil {
		return "", err
	}
	return renderTeams(teams), nil
}

func handleHighScoring(ctx context.Context, src DataSource, _ string) (string, error) {
	matches, err := src.ListMatches(ctx)
	if err != nil {
		return "", err
	}
	return renderHighScoring(matches), nil
}

func handleTeamMatches(ctx context.Context, src DataSource, team string) (string, error) {
	matches, err := src.ListMatches(ctx)
	if err != nil {
		return "", err
	}
	return renderTeamMatches(team, matches), nil
}

func handleValueBets(ctx context.Context, src DataSource, _ string) (string, error) {
	bets, err := src.ListValueBets(ctx)
	if err != nil {
		return "", err
	}
	return renderValueBets(bets), nil
}

func handleUpcoming(ctx context.Context, src DataSource, _ string) (string, error) {
	matches, err := src.ListMatches(ctx)
	if err != nil {
		return "", err
	}
	return renderUpcoming(matches), nil
}

func handleTeamRecord(ctx context.Context, src DataSource, team string) (string, error) {
	matches, err := src.ListMatches(ctx)
	if err != nil {
		return "", err
	}
	return renderTeamRecord(team, matches), nil
}

func handleResults(ctx context.Context, src DataSource, _ string) (string, error) {
	results, err := src.ListResults(ctx)
	if err != nil {
		return "", err
	}
	return renderResults(results), nil
}

func handleAllPicks(ctx context.Context, src DataSource, _ string) (string, error) {
	picks, err := src.ListPicks(ctx)
	if err != nil {
		return "", err
	}
	return renderPicks(picks), nil
}

func handleUserBets(_ context.Context, _ DataSource, _ string) (string, error) {
	return userBetsReply, nil
}

func handleStageFilter(ctx context.Context, src DataSource, stage string) (string, error) {
	matches, err := src.ListMatches(ctx)
	if err != nil {
		return "", err
	}
	return renderStageFilter(stage, matches), nil
}

func handleHelp(_ context.Context, _ DataSource, _ string) (string, error) {
	return helpReply, nil
}

// renderTeams lists teams in the order the data API returned them.
func renderTeams(teams []models.Team) string {
	if len(teams) == 0 {
		return "No teams found in the database."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are all %d teams:\n", len(teams))
	for i, t := range teams {
		fmt.Fprintf(&b, "%d. %s", i+1, t.Name)
		if t.CountryCode != "" {
			fmt.Fprintf(&b, " [%s]", t.CountryCode)
		}
		if t.GroupName != "" {
			// Some payloads already carry "Group A", others just "A".
			if strings.HasPrefix(strings.ToLower(t.GroupName), "group") {
				fmt.Fprintf(&b, " (%s)", t.GroupName)
			} else {
				fmt.Fprintf(&b, " (Group %s)", t.GroupName)
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHighScoring(matches []models.Match) string {
	finished := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Finished() {
			finished = append(finished, m)
		}
	}
	if len(finished) == 0 {
		return "No finished matches with scores available yet."
	}

	sort.SliceStable(finished, func(i, j int) bool {
		return totalGoals(finished[i]) > totalGoals(finished[j])
	})
	if len(finished) > highScoringLimit {
		finished = finished[:highScoringLimit]
	}

	var b strings.Builder
	b.WriteString("Highest-scoring matches:\n")
	for i, m := range finished {
		fmt.Fprintf(&b, "%d. %s %d-%d %s (%d goals) - %s\n",
			i+1, m.Team1, *m.ScoreTeam1, *m.ScoreTeam2, m.Team2, totalGoals(m), formatDate(m.Date))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTeamMatches(team string, matches []models.Match) string {
	involved := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if matchInvolves(m, team) {
			involved = append(involved, m)
		}
	}
	if len(involved) == 0 {
		return fmt.Sprintf("No matches found involving %q. Try a team name, e.g. \"Argentina matches\" or \"matches for France\".", team)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d match(es) involving %s:\n", len(involved), team)
	for _, m := range involved {
		b.WriteString(matchLine(m))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderValueBets(bets []models.ValueBet) string {
	if len(bets) == 0 {
		return "No value bets available right now."
	}

	ranked := make([]models.ValueBet, len(bets))
	copy(ranked, bets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return parsePercent(ranked[i].Edge) > parsePercent(ranked[j].Edge)
	})
	if len(ranked) > valueBetsLimit {
		ranked = ranked[:valueBetsLimit]
	}

	var b strings.Builder
	b.WriteString("Top value bets:\n")
	for i, vb := range ranked {
		fmt.Fprintf(&b, "%d. %s - %s: %s (Edge: %s)\n", i+1, vb.Match, vb.Market, vb.Pick, vb.Edge)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderUpcoming(matches []models.Match) string {
	upcoming := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchStatusUpcoming {
			upcoming = append(upcoming, m)
		}
	}
	if len(upcoming) == 0 {
		return "No upcoming matches scheduled."
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		ti, iOK := parseDate(upcoming[i].Date)
		tj, jOK := parseDate(upcoming[j].Date)
		if iOK != jOK {
			return iOK // parseable dates sort before unparseable ones
		}
		return ti.Before(tj)
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}

	var b strings.Builder
	b.WriteString("Upcoming matches:\n")
	for _, m := range upcoming {
		b.WriteString(matchLine(m))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTeamRecord(team string, matches []models.Match) string {
	var wins, losses, draws, played int
	for _, m := range matches {
		if !m.Finished() || !matchInvolves(m, team) {
			continue
		}
		played++
		own, opp := *m.ScoreTeam1, *m.ScoreTeam2
		if !sideMatches(m.Team1, team) {
			own, opp = opp, own
		}
		switch {
		case own > opp:
			wins++
		case own < opp:
			losses++
		default:
			draws++
		}
	}

	if played == 0 {
		return fmt.Sprintf("No finished matches found for %s.", capitalize(team))
	}
	return fmt.Sprintf("%s: %dW-%dL-%dD (%d matches)", capitalize(team), wins, losses, draws, played)
}

func renderResults(results []models.Match) string {
	if len(results) == 0 {
		return "No results available yet."
	}

	shown := results
	if len(shown) > resultsLimit {
		shown = shown[:resultsLimit]
	}

	var b strings.Builder
	b.WriteString("Latest results:\n")
	for i, m := range shown {
		fmt.Fprintf(&b, "%d. %s %s-%s %s - %s\n",
			i+1, m.Team1, scoreString(m.ScoreTeam1), scoreString(m.ScoreTeam2), m.Team2, formatDate(m.Date))
	}
	if extra := len(results) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "...and %d more", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPicks(picks []models.Pick) string {
	if len(picks) == 0 {
		return "No picks recorded yet."
	}

	shown := picks
	if len(shown) > picksLimit {
		shown = shown[:picksLimit]
	}

	var b strings.Builder
	b.WriteString("Recorded picks:\n")
	for i, p := range shown {
		result := "PENDING"
		if p.Result != "" {
			result = strings.ToUpper(p.Result)
		}
		fmt.Fprintf(&b, "%d. %s: %s @ %s ($%s) - %s\n",
			i+1, orDash(p.BetType), orDash(p.BetOn), orDash(p.Odds), orDash(p.Amount), result)
	}
	if extra := len(picks) - len(shown); extra > 0 {
		fmt.Fprintf(&b, "...and %d more", extra)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStageFilter(stage string, matches []models.Match) string {
	filtered := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if stageMatches(stage, m.Stage) {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		return fmt.Sprintf("No matches found for %s.", stage)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s matches:\n", stage)
	for _, m := range filtered {
		b.WriteString(matchLine(m))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// matchLine renders one match as a bulleted line, with the score when the
// match is finished and venue/stage when present.
func matchLine(m models.Match) string {
	var b strings.Builder
	if m.Finished() {
		fmt.Fprintf(&b, "* %s %d-%d %s - %s", m.Team1, *m.ScoreTeam1, *m.ScoreTeam2, m.Team2, formatDate(m.Date))
	} else {
		fmt.Fprintf(&b, "* %s vs %s - %s", m.Team1, m.Team2, formatDate(m.Date))
	}
	if m.Venue != "" {
		fmt.Fprintf(&b, " at %s", m.Venue)
	}
	if m.Stage != "" {
		fmt.Fprintf(&b, " (%s)", m.Stage)
	}
	return b.String()
}

func matchInvolves(m models.Match, team string) bool {
	return sideMatches(m.Team1, team) || sideMatches(m.Team2, team)
}

func sideMatches(side, team string) bool {
	return strings.Contains(strings.ToLower(side), strings.ToLower(team))
}

// stageMatches compares a canonical stage against whatever stage label the
// match record carries ("Group A", "Semifinal", "Final", ...).
func stageMatches(canonical, matchStage string) bool {
	ms := strings.ToLower(strings.TrimSpace(matchStage))
	if ms == "" {
		return false
	}
	switch canonical {
	case StageGroupStage:
		return strings.HasPrefix(ms, "group")
	case StageRoundOf16:
		return strings.Contains(ms, "16") || strings.HasPrefix(ms, "round")
	case StageQuarterfinals:
		return strings.HasPrefix(ms, "quarter")
	case StageSemifinals:
		return strings.HasPrefix(ms, "semi")
	case StageFinal:
		// Exact match so "Semifinal" never counts as the Final.
		return ms == "final"
	default:
		return strings.EqualFold(canonical, matchStage)
	}
}

func totalGoals(m models.Match) int {
	return *m.ScoreTeam1 + *m.ScoreTeam2
}

// parsePercent strips the trailing percent sign and an optional leading
// plus, then parses the number. Non-numeric values rank as 0; the original
// string is never modified.
func parsePercent(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatDate renders a backend date string for display, falling back to the
// raw value when it doesn't parse.
func formatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		if s == "" {
			return "-"
		}
		return s
	}
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2, 2006 15:04")
}

func scoreString(score *int) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
