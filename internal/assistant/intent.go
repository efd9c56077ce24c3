package assistant

import (
	"context"
	"strings"
)

// Intent names. The set is fixed; IntentHelp is the guaranteed catch-all.
const (
	IntentListTeams   = "list_teams"
	IntentHighScoring = "high_scoring"
	IntentTeamMatches = "team_matches"
	IntentValueBets   = "value_bets"
	IntentUpcoming    = "upcoming"
	IntentTeamRecord  = "team_record"
	IntentResults     = "results"
	IntentAllPicks    = "all_picks"
	IntentUserBets    = "user_bets"
	IntentStageFilter = "stage_filter"
	IntentHelp        = "help"
)

// intentRule is one entry in the ordered rule table. match reports whether
// the rule fires for a normalized query and returns the extracted entity
// when the rule needs one; rules that need an entity decline the query when
// extraction fails, so classification falls through to the next rule.
type intentRule struct {
	name    string
	match   func(q string) (entity string, ok bool)
	handler func(ctx context.Context, src DataSource, entity string) (string, error)
}

// intentRules is the authoritative intent registry. It is evaluated
// top-down and the first match wins, so the ordering is load-bearing:
// list-teams sits above team-matches because a bare "teams" query would
// otherwise be read as a team-name lookup, and high-scoring sits above
// team-matches for the same keyword-overlap reason. The trailing help rule
// always matches. Built once, never mutated.
var intentRules = []intentRule{
	{
		name: IntentListTeams,
		match: func(q string) (string, bool) {
			ok := strings.Contains(q, "all teams") ||
				strings.Contains(q, "list teams") ||
				strings.Contains(q, "show teams") ||
				q == "teams"
			return "", ok
		},
		handler: handleListTeams,
	},
	{
		name: IntentHighScoring,
		match: func(q string) (string, bool) {
			ok := strings.Contains(q, "most goals") ||
				strings.Contains(q, "highest score") ||
				strings.Contains(q, "highest scoring")
			return "", ok
		},
		handler: handleHighScoring,
	},
	{
		name: IntentTeamMatches,
		match: func(q string) (string, bool) {
			if !containsAny(q, "matches", "games", "fixtures") {
				return "", false
			}
			team := extractTeam(q)
			return team, team != ""
		},
		handler: handleTeamMatches,
	},
	{
		name: IntentValueBets,
		match: func(q string) (string, bool) {
			return "", containsAny(q, "value bet", "best bet", "edge")
		},
		handler: handleValueBets,
	},
	{
		name: IntentUpcoming,
		match: func(q string) (string, bool) {
			return "", containsAny(q, "upcoming", "next", "schedule")
		},
		handler: handleUpcoming,
	},
	{
		name: IntentTeamRecord,
		match: func(q string) (string, bool) {
			if !containsAny(q, "record", "history", "past") {
				return "", false
			}
			team := extractRecordTeam(q)
			return team, team != ""
		},
		handler: handleTeamRecord,
	},
	{
		name: IntentResults,
		match: func(q string) (string, bool) {
			return "", containsAny(q, "finished", "completed", "results", "final matches")
		},
		handler: handleResults,
	},
	{
		name: IntentAllPicks,
		match: func(q string) (string, bool) {
			return "", containsAny(q, "all picks", "all bets", "show picks", "show bets")
		},
		handler: handleAllPicks,
	},
	{
		name: IntentUserBets,
		match: func(q string) (string, bool) {
			return "", containsAny(q, "my bets", "user bets")
		},
		handler: handleUserBets,
	},
	{
		name: IntentStageFilter,
		match: func(q string) (string, bool) {
			// The stage keyword table doubles as the trigger: a query only
			// fires this rule when it resolves to a canonical stage, which
			// covers "group stage"/"round of 16" and bare stage names like
			// "semifinal" alike.
			stage := extractStage(q)
			return stage, stage != ""
		},
		handler: handleStageFilter,
	},
	{
		name: IntentHelp,
		match: func(q string) (string, bool) {
			return "", true
		},
		handler: handleHelp,
	},
}

// Normalize lower-cases and trims a raw query. It runs exactly once per
// submission, before any rule test.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Classification is the outcome of running the rule table.
type Classification struct {
	Intent string
	Entity string
}

// Classify runs the ordered rule table against a raw query. It is total:
// every string, including the empty one, resolves to exactly one intent.
func Classify(raw string) Classification {
	r, entity := classifyRule(Normalize(raw))
	return Classification{Intent: r.name, Entity: entity}
}

func classifyRule(q string) (intentRule, string) {
	for _, r := range intentRules {
		if entity, ok := r.match(q); ok {
			return r, entity
		}
	}
	// Unreachable: the help rule always matches.
	return intentRules[len(intentRules)-1], ""
}

func containsAny(q string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(q, s) {
			return true
		}
	}
	return false
}
