package assistant

import (
	"regexp"
	"strings"
)

// Canonical tournament stages.
const (
	StageGroupStage    = "Group Stage"
	StageRoundOf16     = "Round of 16"
	StageQuarterfinals = "Quarterfinals"
	StageSemifinals    = "Semifinals"
	StageFinal         = "Final"
)

var (
	// "(matches|games|fixtures) ... (with|for|of) <team>"
	teamAfterKeyword = regexp.MustCompile(`\b(?:matches|games|fixtures)\b.*\b(?:with|for|of)\s+([a-z0-9]+)`)
	// "<team> (matches|games|fixtures)"
	teamBeforeKeyword = regexp.MustCompile(`\b([a-z0-9]+)\s+(?:matches|games|fixtures)\b`)
	// "(of|for) <team>" — used by the team-record rule, whose own keywords
	// already matched.
	teamAfterOfFor = regexp.MustCompile(`\b(?:of|for)\s+([a-z0-9]+)`)
)

// reservedTokens are query keywords that must never be read as team names.
// Without this list "upcoming matches" would extract team "upcoming" and the
// team-matches rule would shadow every later rule that mentions matches.
var reservedTokens = map[string]bool{
	"all": true, "show": true, "list": true, "view": true, "the": true,
	"any": true, "my": true, "user": true, "team": true, "teams": true,
	"upcoming": true, "next": true, "latest": true, "recent": true,
	"finished": true, "completed": true, "final": true, "past": true,
	"most": true, "top": true, "best": true, "value": true,
	"today": true, "tomorrow": true, "group": true, "stage": true,
	"round": true, "knockout": true, "last": true, "first": true,
	"semifinal": true, "semifinals": true, "quarterfinal": true,
	"quarterfinals": true, "ro16": true, "16": true,
	"matches": true, "games": true, "fixtures": true,
}

// extractTeam pulls a team-name token out of a normalized query, trying the
// two anchored patterns in order. It returns "" when neither matches, which
// makes the calling rule fall through to the next one.
func extractTeam(q string) string {
	if m := teamAfterKeyword.FindStringSubmatch(q); m != nil && !reservedTokens[m[1]] {
		return m[1]
	}
	if m := teamBeforeKeyword.FindStringSubmatch(q); m != nil && !reservedTokens[m[1]] {
		return m[1]
	}
	return ""
}

// extractRecordTeam pulls the team name for record/history queries, which
// always name the team as "of <team>" or "for <team>".
func extractRecordTeam(q string) string {
	if m := teamAfterOfFor.FindStringSubmatch(q); m != nil && !reservedTokens[m[1]] {
		return m[1]
	}
	return ""
}

type stageKeyword struct {
	keyword string
	stage   string
}

// stageKeywords is tested top-down; order is load-bearing. "semi" and
// "quarter" sit above "final" so that "semifinal" and "quarterfinal" never
// resolve to the Final stage via substring match.
var stageKeywords = []stageKeyword{
	{"semi", StageSemifinals},
	{"quarter", StageQuarterfinals},
	{"round of 16", StageRoundOf16},
	{"ro16", StageRoundOf16},
	{"group", StageGroupStage},
	{"final", StageFinal},
}

// extractStage resolves a canonical stage name from the query, first
// keyword-table hit wins. Returns "" when no stage keyword is present.
func extractStage(q string) string {
	for _, sk := range stageKeywords {
		if strings.Contains(q, sk.keyword) {
			return sk.stage
		}
	}
	return ""
}
